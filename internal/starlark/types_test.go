package starlark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestGoToStarlark(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantStr string
		wantErr bool
	}{
		{
			name:    "string",
			input:   "hello",
			wantStr: `"hello"`,
		},
		{
			name:    "int",
			input:   42,
			wantStr: "42",
		},
		{
			name:    "int64",
			input:   int64(123456789),
			wantStr: "123456789",
		},
		{
			name:    "float64",
			input:   3.14,
			wantStr: "3.14",
		},
		{
			name:    "bool true",
			input:   true,
			wantStr: "True",
		},
		{
			name:    "bool false",
			input:   false,
			wantStr: "False",
		},
		{
			name:    "nil",
			input:   nil,
			wantStr: "None",
		},
		{
			name:    "string slice",
			input:   []string{"a", "b", "c"},
			wantStr: `["a", "b", "c"]`,
		},
		{
			name:    "empty string slice",
			input:   []string{},
			wantStr: "[]",
		},
		{
			name:    "any slice",
			input:   []any{"x", 1, true},
			wantStr: `["x", 1, True]`,
		},
		{
			name:    "map",
			input:   map[string]any{"key": "value"},
			wantStr: `{"key": "value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoToStarlark(tt.input)
			if tt.wantErr {
				assert.Error(t, err, "expected error")
				return
			}
			require.NoError(t, err, "unexpected error")
			assert.Equal(t, tt.wantStr, got.String(), "GoToStarlark()")
		})
	}
}

func TestGoToStarlark_Unsupported(t *testing.T) {
	_, err := GoToStarlark(struct{}{})
	assert.Error(t, err)

	_, err = GoToStarlark(map[string]any{"nested": []any{make(chan int)}})
	assert.Error(t, err)
}

func TestAttributesToStarlark(t *testing.T) {
	globals := AttributesToStarlark(map[string]string{
		"name":       "orders",
		"dif_sql":    "1",
		"bad-key":    "x",
		"1st":        "x",
		"for":        "x",
		"sql_object": "TABLE",
	})

	assert.Len(t, globals, 3)
	assert.Equal(t, starlark.String("orders"), globals["name"])
	assert.Equal(t, starlark.String("1"), globals["dif_sql"])
	assert.Equal(t, starlark.String("TABLE"), globals["sql_object"])
}

func TestGlobalsFromMap(t *testing.T) {
	globals, err := GlobalsFromMap(map[string]any{
		"pg_version": "16",
		"extensions": []any{"pgcrypto", "postgis"},
	})
	require.NoError(t, err)
	assert.Equal(t, starlark.String("16"), globals["pg_version"])
	assert.Equal(t, `["pgcrypto", "postgis"]`, globals["extensions"].String())

	_, err = GlobalsFromMap(map[string]any{"not valid": "x"})
	assert.Error(t, err)

	_, err = GlobalsFromMap(map[string]any{"ok": struct{}{}})
	assert.Error(t, err)
}
