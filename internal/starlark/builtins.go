package starlark

import (
	"bytes"
	"encoding/xml"
	"strings"

	"go.starlark.net/starlark"
)

// Builtins returns the helper functions available to every template:
//
//	quote_literal(s)  SQL string literal with embedded quotes doubled
//	xml_escape(s)     s with XML special characters escaped
//	indent(s, prefix) s with every non-blank line prefixed (tab by default)
//	lines(s)          the lines of s, without terminators
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		"quote_literal": starlark.NewBuiltin("quote_literal", quoteLiteral),
		"xml_escape":    starlark.NewBuiltin("xml_escape", xmlEscape),
		"indent":        starlark.NewBuiltin("indent", indent),
		"lines":         starlark.NewBuiltin("lines", lines),
	}
}

// IsBuiltin reports whether name is one of the Builtins.
func IsBuiltin(name string) bool {
	switch name {
	case "quote_literal", "xml_escape", "indent", "lines":
		return true
	}
	return false
}

func quoteLiteral(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	return starlark.String("'" + strings.ReplaceAll(s, "'", "''") + "'"), nil
}

func xmlEscape(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return nil, err
	}
	return starlark.String(buf.String()), nil
}

func indent(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	pad := "\t"
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "s", &s, "prefix?", &pad); err != nil {
		return nil, err
	}
	parts := strings.Split(s, "\n")
	for i, line := range parts {
		if strings.TrimSpace(line) != "" {
			parts[i] = pad + line
		}
	}
	return starlark.String(strings.Join(parts, "\n")), nil
}

func lines(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	if s == "" {
		return starlark.NewList(nil), nil
	}
	parts := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	list := make([]starlark.Value, len(parts))
	for i, line := range parts {
		list[i] = starlark.String(strings.TrimSuffix(line, "\r"))
	}
	return starlark.NewList(list), nil
}
