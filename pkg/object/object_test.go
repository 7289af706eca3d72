package object

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgdef/pkg/spi"
)

func newObject(t *testing.T, alloc *IDAllocator, typ ObjectType, name string) *Object {
	t.Helper()
	o, err := NewNamed(alloc, typ, name)
	require.NoError(t, err)
	return o
}

func TestNew(t *testing.T) {
	alloc := NewIDAllocator(0)
	o := New(alloc, TypeTable)

	assert.Equal(t, DefaultIDBase, o.ID())
	assert.Equal(t, TypeTable, o.Type())
	assert.Equal(t, "Table", o.TypeName())
	assert.Equal(t, DefaultName, o.Name())
	assert.False(t, o.IsProtected())
	assert.False(t, o.IsSystemObject())
	assert.False(t, o.IsSQLDisabled())
	assert.Nil(t, o.Schema())

	attrs := o.Attributes()
	for _, key := range []string{spi.AttrName, spi.AttrComment, spi.AttrOwner, spi.AttrTablespace, spi.AttrSchema, spi.AttrCollation, spi.AttrProtected, spi.AttrSQLDisabled} {
		v, ok := attrs[key]
		assert.True(t, ok, key)
		assert.Empty(t, v, key)
	}

	assert.Panics(t, func() { New(nil, TypeTable) })
}

func TestObject_SetName(t *testing.T) {
	o := New(NewIDAllocator(0), TypeTable)

	require.NoError(t, o.SetName("customers"))
	assert.Equal(t, "customers", o.Name())

	require.NoError(t, o.SetName(`"OrderItems"`))
	assert.Equal(t, "OrderItems", o.Name())

	require.NoError(t, o.SetName("ab\x00c"))
	assert.Equal(t, "abc", o.Name())

	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmptyName},
		{"only nul", "\x00\x00", ErrEmptyName},
		{"too long", strings.Repeat("a", 64), ErrNameTooLong},
		{"invalid", "bad-name!", ErrInvalidName},
		{"empty quotes", `""`, ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.SetName(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsNameError(err))
			assert.Equal(t, "abc", o.Name(), "name must survive a failed assignment")
		})
	}
}

func TestObject_SetName_Boundary(t *testing.T) {
	o := New(NewIDAllocator(0), TypeTable)
	require.NoError(t, o.SetName(strings.Repeat("a", 63)))

	// Quotes count towards the limit but are not stored.
	require.NoError(t, o.SetName(`"`+strings.Repeat("A", 61)+`"`))
	assert.Len(t, o.Name(), 61)
	assert.ErrorIs(t, o.SetName(`"`+strings.Repeat("A", 62)+`"`), ErrNameTooLong)
}

func TestObject_FormattedName(t *testing.T) {
	alloc := NewIDAllocator(0)
	public := newObject(t, alloc, TypeSchema, "public")
	sales := newObject(t, alloc, TypeSchema, "Sales")

	table := newObject(t, alloc, TypeTable, "orders")
	assert.Equal(t, "orders", table.FormattedName(true))

	require.NoError(t, table.SetSchema(public))
	assert.Equal(t, "public.orders", table.FormattedName(true))
	assert.Equal(t, "orders", table.FormattedName(false))

	require.NoError(t, table.SetName("Orders"))
	require.NoError(t, table.SetSchema(sales))
	assert.Equal(t, `"Sales"."Orders"`, table.FormattedName(true))

	op := New(alloc, TypeOperator)
	op.name = "+"
	require.NoError(t, op.SetSchema(public))
	assert.Equal(t, "public.+", op.FormattedName(true))
}

func TestObject_Flags(t *testing.T) {
	o := New(NewIDAllocator(0), TypeTable)

	o.SetProtected(true)
	assert.True(t, o.IsProtected())
	o.SetProtected(false)
	assert.False(t, o.IsProtected())

	o.SetSQLDisabled(true)
	assert.True(t, o.IsSQLDisabled())

	o.SetSystemObject(true)
	assert.True(t, o.IsSystemObject())
	assert.True(t, o.IsProtected())
	assert.True(t, o.IsSQLDisabled())

	o.SetProtected(false)
	assert.True(t, o.IsProtected(), "system objects stay protected")

	o.SetSystemObject(false)
	assert.False(t, o.IsSystemObject())
	assert.False(t, o.IsProtected())
	assert.False(t, o.IsSQLDisabled())

	o.SetComment("hello")
	assert.Equal(t, "hello", o.Comment())
}

func TestObject_SetSchema(t *testing.T) {
	alloc := NewIDAllocator(0)
	schema := newObject(t, alloc, TypeSchema, "public")
	role := newObject(t, alloc, TypeRole, "admin")
	table := newObject(t, alloc, TypeTable, "orders")
	index := newObject(t, alloc, TypeIndex, "orders_idx")

	err := table.SetSchema(nil)
	assert.ErrorIs(t, err, ErrMissingAssociation)
	assert.True(t, IsAssociationError(err))

	assert.ErrorIs(t, table.SetSchema(role), ErrWrongAssociationType)
	assert.Nil(t, table.Schema())

	assert.ErrorIs(t, index.SetSchema(schema), ErrAssociationNotAccepted)
	assert.Nil(t, index.Schema())

	require.NoError(t, table.SetSchema(schema))
	assert.Same(t, schema, table.Schema())
}

func TestObject_SetOwner(t *testing.T) {
	alloc := NewIDAllocator(0)
	role := newObject(t, alloc, TypeRole, "admin")
	schema := newObject(t, alloc, TypeSchema, "public")
	table := newObject(t, alloc, TypeTable, "orders")
	view := newObject(t, alloc, TypeView, "recent_orders")

	assert.ErrorIs(t, table.SetOwner(schema), ErrWrongAssociationType)
	assert.ErrorIs(t, view.SetOwner(role), ErrAssociationNotAccepted)

	require.NoError(t, table.SetOwner(role))
	assert.Same(t, role, table.Owner())
	require.NoError(t, table.SetOwner(nil))
	assert.Nil(t, table.Owner())
}

func TestObject_SetTablespace(t *testing.T) {
	alloc := NewIDAllocator(0)
	ts := newObject(t, alloc, TypeTablespace, "fast_disk")
	role := newObject(t, alloc, TypeRole, "admin")
	fn := newObject(t, alloc, TypeFunction, "calc")
	table := newObject(t, alloc, TypeTable, "orders")

	err := fn.SetTablespace(ts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssociationNotAccepted)

	var assocErr *AssociationError
	require.True(t, errors.As(err, &assocErr))
	assert.Equal(t, AssocTablespace, assocErr.Association)
	assert.Equal(t, "fast_disk", assocErr.Target)
	assert.Equal(t, TypeFunction, assocErr.Type)
	assert.Contains(t, err.Error(), `function "calc": cannot set tablespace to tablespace "fast_disk"`)

	assert.ErrorIs(t, table.SetTablespace(role), ErrWrongAssociationType)
	require.NoError(t, table.SetTablespace(ts))
	assert.Same(t, ts, table.Tablespace())
}

func TestObject_SetCollation(t *testing.T) {
	alloc := NewIDAllocator(0)
	coll := newObject(t, alloc, TypeCollation, "en_us")
	schema := newObject(t, alloc, TypeSchema, "public")
	column := newObject(t, alloc, TypeColumn, "title")
	table := newObject(t, alloc, TypeTable, "orders")

	assert.ErrorIs(t, table.SetCollation(coll), ErrAssociationNotAccepted)
	assert.ErrorIs(t, column.SetCollation(schema), ErrWrongAssociationType)

	require.NoError(t, column.SetCollation(coll))
	assert.Same(t, coll, column.Collation())
	require.NoError(t, column.SetCollation(nil))
	assert.Nil(t, column.Collation())
	require.NoError(t, table.SetCollation(nil))
}

func TestObject_SetDatabase(t *testing.T) {
	alloc := NewIDAllocator(0)
	db := newObject(t, alloc, TypeDatabase, "shop")
	schema := newObject(t, alloc, TypeSchema, "public")

	require.NoError(t, schema.SetDatabase(db))
	assert.Same(t, db, schema.Database())
	assert.ErrorIs(t, schema.SetDatabase(schema), ErrWrongAssociationType)
	assert.Same(t, db, schema.Database())
	require.NoError(t, schema.SetDatabase(nil))
	assert.Nil(t, schema.Database())
}

func TestObject_Attributes(t *testing.T) {
	o := New(NewIDAllocator(0), TypeFunction)
	o.SetAttribute("signature", "calc(integer)")

	attrs := o.Attributes()
	assert.Equal(t, "calc(integer)", attrs["signature"])

	attrs["signature"] = "mutated"
	assert.Equal(t, "calc(integer)", o.Attributes()["signature"], "Attributes returns a copy")

	o.ResetAttributes()
	got := o.Attributes()
	v, ok := got["signature"]
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestObject_CopyFrom(t *testing.T) {
	alloc := NewIDAllocator(0)
	schema := newObject(t, alloc, TypeSchema, "public")
	src := newObject(t, alloc, TypeTable, "orders")
	require.NoError(t, src.SetSchema(schema))
	src.SetComment("orders table")
	src.SetProtected(true)

	dst := New(alloc, TypeTable)
	id := dst.ID()
	require.NoError(t, dst.CopyFrom(src))

	assert.Equal(t, id, dst.ID())
	assert.Equal(t, TypeTable, dst.Type())
	assert.Equal(t, "orders", dst.Name())
	assert.Equal(t, "orders table", dst.Comment())
	assert.True(t, dst.IsProtected())
	assert.Same(t, schema, dst.Schema())
	assert.True(t, dst.HasName("orders"))

	assert.ErrorIs(t, dst.CopyFrom(nil), ErrNullArgument)
}

func TestObject_CopyFrom_TypeMismatch(t *testing.T) {
	alloc := NewIDAllocator(0)
	ts := newObject(t, alloc, TypeTablespace, "fast")
	tbl := newObject(t, alloc, TypeTable, "orders")
	require.NoError(t, tbl.SetTablespace(ts))
	id := tbl.ID()

	err := tbl.CopyFrom(newObject(t, alloc, TypeSchema, "sales"))
	require.ErrorIs(t, err, ErrTypeMismatch)

	assert.Equal(t, TypeTable, tbl.Type())
	assert.Equal(t, id, tbl.ID())
	assert.Equal(t, "orders", tbl.Name())
	assert.Same(t, ts, tbl.Tablespace())
}

func TestObject_String(t *testing.T) {
	alloc := NewIDAllocator(500)
	schema := newObject(t, alloc, TypeSchema, "public")
	table := newObject(t, alloc, TypeTable, "orders")
	require.NoError(t, table.SetSchema(schema))
	assert.Equal(t, "table public.orders (id 501)", table.String())
}
