// Package ident decides whether a name can appear unquoted in generated
// PostgreSQL DDL and quotes it when it cannot.
//
// The rules work on raw bytes, not runes: a name is at most MaxNameLength
// bytes and may contain ASCII letters, digits, underscores and 2 or 3 byte
// UTF-8 sequences. Four byte sequences are rejected.
package ident

import (
	"regexp"
)

// MaxNameLength is the PostgreSQL identifier limit (NAMEDATALEN - 1) in bytes.
const MaxNameLength = 63

// formattedShapes match names that are already quoted or schema qualified:
//
//	"OBJECT"
//	"SCHEMA"."OBJECT"
//	"SCHEMA".OBJECT
//	SCHEMA."OBJECT"
//	SCHEMA.OBJECT
var formattedShapes = []*regexp.Regexp{
	regexp.MustCompile(`(?s)^".+"$`),
	regexp.MustCompile(`(?s)^".+"\.".+"$`),
	regexp.MustCompile(`(?s)^".+"\..+$`),
	regexp.MustCompile(`(?s)^.+\.".+"$`),
	regexp.MustCompile(`(?s)^.+\..+$`),
}

// IsFormatted reports whether name already has one of the quoted or
// qualified shapes FormatName leaves untouched.
func IsFormatted(name string) bool {
	for _, re := range formattedShapes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// IsValidName reports whether name satisfies the identifier grammar.
//
// A name wrapped in a pair of double quotes is validated without them; the
// quotes still count towards the length limit.
func IsValidName(name string) bool {
	n := len(name)
	if n == 0 || n > MaxNameLength {
		return false
	}
	i, end := 0, n
	if n > 1 && name[0] == '"' && name[n-1] == '"' {
		i, end = 1, n-1
		if i == end {
			return false
		}
	}
	for i < end {
		if isIdentByte(name[i]) {
			i++
			continue
		}
		size := multiByteLen(name[i:end])
		if size == 0 {
			return false
		}
		i += size
	}
	return true
}

// FormatName returns name in the form it must take in DDL.
//
// Names already quoted or schema qualified are returned unchanged. Valid
// names, and any operator name, are quoted when they contain an uppercase
// ASCII letter or a multibyte character; otherwise they are returned as is.
// An empty result means name cannot be formatted.
func FormatName(name string, isOperator bool) string {
	if IsFormatted(name) {
		return name
	}
	if !isOperator && !IsValidName(name) {
		return ""
	}
	if NeedsQuotes(name) {
		return `"` + name + `"`
	}
	return name
}

// NeedsQuotes reports whether name contains an uppercase ASCII letter or a
// 2 or 3 byte UTF-8 sequence.
func NeedsQuotes(name string) bool {
	for i := 0; i < len(name); {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			return true
		}
		if size := multiByteLen(name[i:]); size > 0 {
			return true
		}
		i++
	}
	return false
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

func isContinuation(c byte) bool {
	return c >= 0x80 && c <= 0xBF
}

// multiByteLen returns the length of the 2 or 3 byte UTF-8 sequence at the
// start of s, or 0 when s does not start with one.
//
//	C2..DF 80..BF         two bytes
//	E0..EF 80..BF 80..BF  three bytes
func multiByteLen(s string) int {
	if len(s) == 0 {
		return 0
	}
	switch lead := s[0]; {
	case lead >= 0xC2 && lead <= 0xDF:
		if len(s) >= 2 && isContinuation(s[1]) {
			return 2
		}
	case lead >= 0xE0 && lead <= 0xEF:
		if len(s) >= 3 && isContinuation(s[1]) && isContinuation(s[2]) {
			return 3
		}
	}
	return 0
}
