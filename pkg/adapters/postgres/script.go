package postgres

import (
	"strings"
)

// DelimiterLine ends every statement in generated scripts.
const DelimiterLine = "-- ddl-end --"

// Statement is one executable chunk of a generated script.
type Statement struct {
	SQL string
	// Line is the 1-based line the statement starts on
	Line int
	// Standalone statements cannot run inside a transaction block
	Standalone bool
}

var standalonePrefixes = []string{
	"CREATE DATABASE", "DROP DATABASE", "ALTER DATABASE",
	"CREATE TABLESPACE", "DROP TABLESPACE",
}

// SplitScript cuts a script at DelimiterLine lines. Comment lines are
// dropped, so chunks holding only comments (disabled objects, headers) are
// not returned.
func SplitScript(script string) []Statement {
	var (
		stmts []Statement
		buf   []string
		start int
	)

	flush := func() {
		sql := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if sql == "" {
			return
		}
		stmts = append(stmts, Statement{SQL: sql, Line: start, Standalone: isStandalone(sql)})
	}

	for i, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == DelimiterLine {
			flush()
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if len(buf) == 0 {
			start = i + 1
		}
		buf = append(buf, strings.TrimRight(line, "\r"))
	}
	flush()

	return stmts
}

func isStandalone(sql string) bool {
	head := strings.ToUpper(strings.Join(strings.Fields(sql), " "))
	for _, prefix := range standalonePrefixes {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return false
}
