// Package starlark provides the Starlark execution context and builtins used
// to evaluate template expressions against an attribute dictionary.
package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// AttributesToStarlark exposes an attribute dictionary as template globals.
// Keys that are not valid identifiers are skipped since no expression could
// reference them.
func AttributesToStarlark(attrs map[string]string) starlark.StringDict {
	globals := make(starlark.StringDict, len(attrs))
	for k, v := range attrs {
		if !isIdentifier(k) {
			continue
		}
		globals[k] = starlark.String(v)
	}
	return globals
}

// GlobalsFromMap converts user supplied values, e.g. from a config file, to
// template globals.
func GlobalsFromMap(values map[string]any) (starlark.StringDict, error) {
	globals := make(starlark.StringDict, len(values))
	for k, v := range values {
		if !isIdentifier(k) {
			return nil, fmt.Errorf("global %q is not a valid identifier", k)
		}
		sv, err := GoToStarlark(v)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", k, err)
		}
		globals[k] = sv
	}
	return globals, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return !keywords[s]
}

var keywords = map[string]bool{
	"and": true, "break": true, "continue": true, "def": true, "elif": true,
	"else": true, "for": true, "if": true, "in": true, "lambda": true,
	"load": true, "not": true, "or": true, "pass": true, "return": true,
	"while": true,
}

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]any
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := GoToStarlark(v)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
