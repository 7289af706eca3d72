package commands

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgdef/pkg/object"
)

func TestNewRenderCommand(t *testing.T) {
	cmd := NewRenderCommand()

	assert.Equal(t, "render <type> <name>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"schema", "owner", "tablespace", "collation", "database", "comment", "protected", "system", "disabled", "reduced", "attr", "watch"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewTemplatesCommand(t *testing.T) {
	cmd := NewTemplatesCommand()

	assert.Equal(t, "templates", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("all"))

	var subs []string
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"show", "check"}, subs)
}

func TestNewApplyCommand(t *testing.T) {
	cmd := NewApplyCommand()

	assert.Equal(t, "apply [file|-]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
}

func TestNewNameCommand(t *testing.T) {
	cmd := NewNameCommand()

	for _, c := range cmd.Commands() {
		assert.NotNil(t, c.Flags().Lookup("operator"), "%s should accept --operator", c.Name())
	}
}

func TestBuildObject(t *testing.T) {
	alloc := object.NewIDAllocator(100)

	obj, err := BuildObject(alloc, object.TypeTable, "orders", RenderOptions{
		Schema:     "public",
		Owner:      "admin",
		Tablespace: "fast",
		Comment:    "all orders",
		Disabled:   true,
		Attrs:      map[string]string{"columns": "id int"},
	})
	require.NoError(t, err)

	assert.Equal(t, uint32(100), obj.ID())
	assert.Equal(t, "public.orders", obj.FormattedName(true))
	assert.Equal(t, object.TypeRole, obj.Owner().Type())
	assert.Equal(t, "fast", obj.Tablespace().Name())
	assert.Equal(t, "all orders", obj.Comment())
	assert.True(t, obj.IsSQLDisabled())
	assert.False(t, obj.IsProtected())
	assert.Equal(t, "id int", obj.Attributes()["columns"])
}

func TestBuildObject_SystemFlags(t *testing.T) {
	obj, err := BuildObject(object.NewIDAllocator(0), object.TypeSchema, "pg_catalog", RenderOptions{System: true})
	require.NoError(t, err)
	assert.True(t, obj.IsSystemObject())
	assert.True(t, obj.IsProtected())
	assert.True(t, obj.IsSQLDisabled())
}

func TestBuildObject_Rejected(t *testing.T) {
	_, err := BuildObject(object.NewIDAllocator(0), object.TypeRole, "admin", RenderOptions{Schema: "public"})
	require.Error(t, err)
	assert.True(t, object.IsAssociationError(err))

	_, err = BuildObject(object.NewIDAllocator(0), object.TypeSchema, "", RenderOptions{})
	require.Error(t, err)
	assert.True(t, object.IsNameError(err))
}

func TestCheckNames(t *testing.T) {
	results := checkNames([]string{"orders", "Orders", "a;b"}, false)
	require.Len(t, results, 3)

	assert.Equal(t, NameResult{Name: "orders", Valid: true, Formatted: "orders"}, results[0])
	assert.Equal(t, NameResult{Name: "Orders", Valid: true, Formatted: `"Orders"`, Quoted: true}, results[1])
	assert.False(t, results[2].Valid)
	assert.EqualError(t, invalidNames(results), "1 of 3 names are invalid")

	ops := checkNames([]string{"+"}, true)
	assert.True(t, ops[0].Valid)
	assert.Equal(t, "+", ops[0].Formatted)
}

func TestCopyFS(t *testing.T) {
	src := fstest.MapFS{
		"sql/schema.sql": {Data: []byte("CREATE SCHEMA {{ name }};\n")},
		"xml/schema.xml": {Data: []byte("<schema/>\n")},
	}
	dir := t.TempDir()

	written, err := copyFS(src, dir, false)
	require.NoError(t, err)
	assert.Len(t, written, 2)

	target := filepath.Join(dir, "sql", "schema.sql")
	require.NoError(t, os.WriteFile(target, []byte("edited"), 0o600))

	written, err = copyFS(src, dir, false)
	require.NoError(t, err)
	assert.Empty(t, written)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))

	written, err = copyFS(src, dir, true)
	require.NoError(t, err)
	assert.Len(t, written, 2)
}
