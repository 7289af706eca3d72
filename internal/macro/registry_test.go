package macro

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	module := &LoadedModule{
		Namespace: "pg",
		Path:      "/path/to/pg.star",
		Exports: starlark.StringDict{
			"quote_ident": starlark.String("func"),
		},
	}

	err := registry.Register(module)
	require.NoError(t, err, "unexpected error")

	assert.True(t, registry.Has("pg"), "expected registry to have 'pg'")
	assert.Equal(t, 1, registry.Len(), "expected len 1")
}

func TestRegistry_ReservedNamespace(t *testing.T) {
	for _, reserved := range ReservedNamespaces {
		t.Run(reserved, func(t *testing.T) {
			registry := NewRegistry()
			module := &LoadedModule{
				Namespace: reserved,
				Path:      "/path/to/" + reserved + ".star",
				Exports:   starlark.StringDict{},
			}

			err := registry.Register(module)
			require.Error(t, err, "expected error for reserved namespace %q", reserved)

			regErr, ok := err.(*RegistryError)
			require.True(t, ok, "expected *RegistryError, got %T", err)
			assert.Equal(t, reserved, regErr.Namespace, "expected namespace %q", reserved)
		})
	}
}

func TestRegistry_DuplicateNamespace(t *testing.T) {
	registry := NewRegistry()

	module1 := &LoadedModule{
		Namespace: "ddl",
		Path:      "/path/to/ddl.star",
		Exports:   starlark.StringDict{},
	}
	module2 := &LoadedModule{
		Namespace: "ddl",
		Path:      "/other/path/ddl.star",
		Exports:   starlark.StringDict{},
	}

	err := registry.Register(module1)
	require.NoError(t, err, "unexpected error")

	err = registry.Register(module2)
	require.Error(t, err, "expected error for duplicate namespace")

	regErr, ok := err.(*RegistryError)
	require.True(t, ok, "expected *RegistryError, got %T", err)
	assert.Equal(t, "ddl", regErr.Namespace, "expected namespace 'ddl'")
}

func TestRegistry_RegisterAll(t *testing.T) {
	registry := NewRegistry()

	modules := []*LoadedModule{
		{Namespace: "pg", Path: "/pg.star", Exports: starlark.StringDict{}},
		{Namespace: "math", Path: "/math.star", Exports: starlark.StringDict{}},
		{Namespace: "ddl", Path: "/ddl.star", Exports: starlark.StringDict{}},
	}

	err := registry.RegisterAll(modules)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, 3, registry.Len(), "expected 3 modules")

	for _, m := range modules {
		assert.True(t, registry.Has(m.Namespace), "expected registry to have %q", m.Namespace)
	}
}

func TestRegistry_RegisterAll_StopsOnError(t *testing.T) {
	registry := NewRegistry()

	modules := []*LoadedModule{
		{Namespace: "pg", Path: "/pg.star", Exports: starlark.StringDict{}},
		{Namespace: "owner", Path: "/owner.star", Exports: starlark.StringDict{}}, // reserved
		{Namespace: "ddl", Path: "/ddl.star", Exports: starlark.StringDict{}},
	}

	err := registry.RegisterAll(modules)
	require.Error(t, err, "expected error")

	// Only the first one should be registered
	assert.Equal(t, 1, registry.Len(), "expected 1 module (before error)")
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()

	module := &LoadedModule{
		Namespace: "pg",
		Path:      "/path/to/pg.star",
		Exports: starlark.StringDict{
			"quote_ident": starlark.String("func"),
		},
	}
	registry.Register(module)

	got := registry.Get("pg")
	assert.Equal(t, module, got, "Get returned wrong module")

	got = registry.Get("nonexistent")
	assert.Nil(t, got, "expected nil for nonexistent namespace")
}

func TestRegistry_Namespaces(t *testing.T) {
	registry := NewRegistry()

	modules := []*LoadedModule{
		{Namespace: "zeta", Path: "/zeta.star", Exports: starlark.StringDict{}},
		{Namespace: "alpha", Path: "/alpha.star", Exports: starlark.StringDict{}},
		{Namespace: "beta", Path: "/beta.star", Exports: starlark.StringDict{}},
	}
	registry.RegisterAll(modules)

	namespaces := registry.Namespaces()
	require.Len(t, namespaces, 3, "expected 3 namespaces")

	// Should be sorted
	expected := []string{"alpha", "beta", "zeta"}
	for i, ns := range expected {
		assert.Equal(t, ns, namespaces[i], "expected %q at index %d", ns, i)
	}
}

func TestRegistry_ToStarlarkDict(t *testing.T) {
	registry := NewRegistry()

	module := &LoadedModule{
		Namespace: "ddl",
		Path:      "/ddl.star",
		Exports: starlark.StringDict{
			"drop": starlark.String("drop_func"),
			"add":  starlark.String("add_func"),
		},
	}
	registry.Register(module)

	dict := registry.ToStarlarkDict()
	require.Len(t, dict, 1, "expected 1 entry")

	ddlVal, ok := dict["ddl"]
	require.True(t, ok, "expected 'ddl' in dict")

	// Check it's a module with HasAttrs
	mod, ok := ddlVal.(starlark.HasAttrs)
	require.True(t, ok, "expected HasAttrs, got %T", ddlVal)

	// Check attribute access
	dropVal, err := mod.Attr("drop")
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, `"drop_func"`, dropVal.String(), "expected 'drop_func'")

	// Check AttrNames
	attrNames := mod.AttrNames()
	assert.Len(t, attrNames, 2, "expected 2 attr names")
}

func TestStarlarkModule_NoSuchAttr(t *testing.T) {
	mod := &starlarkModule{
		name:    "test",
		exports: starlark.StringDict{},
	}

	_, err := mod.Attr("nonexistent")
	assert.Error(t, err, "expected error for nonexistent attr")
}

func TestStarlarkModule_Interface(t *testing.T) {
	mod := &starlarkModule{
		name: "test",
		exports: starlark.StringDict{
			"foo": starlark.String("bar"),
		},
	}

	// Test String()
	assert.Equal(t, "<module test>", mod.String(), "unexpected String()")

	// Test Type()
	assert.Equal(t, "module", mod.Type(), "unexpected Type()")

	// Test Truth()
	assert.Equal(t, starlark.True, mod.Truth(), "expected Truth() to return True")

	// Test Hash()
	_, err := mod.Hash()
	assert.Error(t, err, "expected error from Hash()")
}

func TestLoadAndRegister(t *testing.T) {
	// Test with nonexistent directory - should return empty registry
	registry, err := LoadAndRegister("/nonexistent/path")
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, 0, registry.Len(), "expected empty registry")
}

func TestReservedNamespaces(t *testing.T) {
	for _, name := range []string{"name", "owner", "sql_object", "template_name", "indent", "quote_literal"} {
		assert.Contains(t, ReservedNamespaces, name)
	}
	assert.IsIncreasing(t, ReservedNamespaces, "reserved namespaces are sorted and unique")
}

func TestStarlarkModule_CallFromExpression(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "pg.star", `
def quote_ident(name):
    return '"' + name + '"'
`)

	registry, err := LoadAndRegister(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"pg"}, registry.Namespaces())

	thread := &starlark.Thread{Name: "test"}
	v, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "expr", `pg.quote_ident("Orders")`, registry.ToStarlarkDict())
	require.NoError(t, err)
	assert.Equal(t, `"Orders"`, v.(starlark.String).GoString())

	_, err = starlark.EvalOptions(&syntax.FileOptions{}, thread, "expr", `pg.missing()`, registry.ToStarlarkDict())
	assert.ErrorContains(t, err, "has no attribute")
}

func TestLoadAndRegister_ReservedFile(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "indent.star", "x = 1\n")

	_, err := LoadAndRegister(dir)
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "indent", regErr.Namespace)
}

func writeMacro(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
