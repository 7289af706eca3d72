// Package object models PostgreSQL schema objects: their identity, naming,
// flags and the associations they hold to other objects (schema, owner,
// tablespace, collation and database).
//
// Associations are plain references. An Object never owns what it points
// at; the container holding the object graph is responsible for clearing
// references before it discards an object.
//
// Objects are not safe for concurrent mutation.
package object

import (
	"fmt"
	"maps"
	"strings"

	"github.com/leapstack-labs/pgdef/pkg/ident"
	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// DefaultName is the placeholder name of a freshly created object.
const DefaultName = "new_object"

// baseAttributes are present (possibly empty) on every object.
var baseAttributes = []string{
	spi.AttrName,
	spi.AttrComment,
	spi.AttrOwner,
	spi.AttrTablespace,
	spi.AttrSchema,
	spi.AttrCollation,
	spi.AttrProtected,
	spi.AttrSQLDisabled,
}

// Object is a schema object.
type Object struct {
	id   uint32
	typ  ObjectType
	name string

	comment     string
	protected   bool
	system      bool
	sqlDisabled bool

	schema     *Object
	owner      *Object
	tablespace *Object
	collation  *Object
	database   *Object

	attributes map[string]string
}

// New creates an object of type t named DefaultName with an id from alloc.
func New(alloc *IDAllocator, t ObjectType) *Object {
	if alloc == nil {
		panic("object: New called with nil IDAllocator")
	}
	o := &Object{
		id:         alloc.Next(),
		typ:        t,
		name:       DefaultName,
		attributes: make(map[string]string, len(baseAttributes)),
	}
	for _, key := range baseAttributes {
		o.attributes[key] = ""
	}
	return o
}

// NewNamed is New followed by SetName.
func NewNamed(alloc *IDAllocator, t ObjectType, name string) (*Object, error) {
	o := New(alloc, t)
	if err := o.SetName(name); err != nil {
		return nil, err
	}
	return o, nil
}

// ID returns the object id.
func (o *Object) ID() uint32 { return o.id }

// Type returns the object type.
func (o *Object) Type() ObjectType { return o.typ }

// TypeName returns the display name of the object type.
func (o *Object) TypeName() string { return o.typ.DisplayName() }

// SetName validates and assigns name. NUL characters are dropped first and
// surrounding double quotes are not stored.
func (o *Object) SetName(name string) error {
	clean := strings.ReplaceAll(name, "\x00", "")
	if clean == "" {
		return &NameError{Name: name, Type: o.typ, Err: ErrEmptyName}
	}
	if !ident.IsValidName(clean) {
		if len(clean) > ident.MaxNameLength {
			return &NameError{Name: clean, Type: o.typ, Err: ErrNameTooLong}
		}
		return &NameError{Name: clean, Type: o.typ, Err: ErrInvalidName}
	}
	o.name = strings.ReplaceAll(clean, `"`, "")
	return nil
}

// Name returns the stored, unquoted name.
func (o *Object) Name() string { return o.name }

// FormattedName returns the name as it must appear in DDL, prefixed by the
// formatted schema name when prependSchema is set and a schema is assigned.
func (o *Object) FormattedName(prependSchema bool) string {
	name := ident.FormatName(o.name, o.typ == TypeOperator)
	if prependSchema && o.schema != nil {
		name = ident.FormatName(o.schema.name, false) + "." + name
	}
	return name
}

// HasName reports whether the stored name equals name.
func (o *Object) HasName(name string) bool { return o.name == name }

// SetComment sets the free text comment.
func (o *Object) SetComment(comment string) { o.comment = comment }

// Comment returns the free text comment.
func (o *Object) Comment() string { return o.comment }

// SetProtected sets the protection flag. System objects stay protected.
func (o *Object) SetProtected(v bool) {
	o.protected = v || o.system
}

// IsProtected reports whether the object is protected against edition.
func (o *Object) IsProtected() bool { return o.protected }

// SetSQLDisabled marks the object so its DDL is emitted commented out.
func (o *Object) SetSQLDisabled(v bool) { o.sqlDisabled = v }

// IsSQLDisabled reports whether the object's DDL is commented out.
func (o *Object) IsSQLDisabled() bool { return o.sqlDisabled }

// SetSystemObject marks a built-in object. The protection and SQL disabled
// flags follow the value.
func (o *Object) SetSystemObject(v bool) {
	o.system = v
	o.protected = v
	o.sqlDisabled = v
}

// IsSystemObject reports whether the object is built into the server.
func (o *Object) IsSystemObject() bool { return o.system }

// AcceptsSchema reports whether o's type belongs to a schema.
func (o *Object) AcceptsSchema() bool { return AcceptsSchema(o.typ) }

// AcceptsOwner reports whether o's type has an owner role.
func (o *Object) AcceptsOwner() bool { return AcceptsOwner(o.typ) }

// AcceptsTablespace reports whether o's type can be placed in a tablespace.
func (o *Object) AcceptsTablespace() bool { return AcceptsTablespace(o.typ) }

// AcceptsCollation reports whether o's type carries a collation.
func (o *Object) AcceptsCollation() bool { return AcceptsCollation(o.typ) }

func (o *Object) assocError(a Association, target *Object, err error) *AssociationError {
	e := &AssociationError{
		Object:      o.name,
		Type:        o.typ,
		Association: a,
		Err:         err,
	}
	if target != nil {
		e.Target = target.name
		e.TargetType = target.typ
	}
	return e
}

// SetSchema assigns the schema. The schema is mandatory: nil fails.
func (o *Object) SetSchema(schema *Object) error {
	switch {
	case schema == nil:
		return o.assocError(AssocSchema, nil, ErrMissingAssociation)
	case schema.typ != AssocSchema.targetType():
		return o.assocError(AssocSchema, schema, ErrWrongAssociationType)
	case !o.AcceptsSchema():
		return o.assocError(AssocSchema, schema, ErrAssociationNotAccepted)
	}
	o.schema = schema
	return nil
}

// Schema returns the schema, or nil.
func (o *Object) Schema() *Object { return o.schema }

// SetOwner assigns the owner role. Nil clears it.
func (o *Object) SetOwner(owner *Object) error {
	switch {
	case owner != nil && owner.typ != AssocOwner.targetType():
		return o.assocError(AssocOwner, owner, ErrWrongAssociationType)
	case !o.AcceptsOwner():
		return o.assocError(AssocOwner, owner, ErrAssociationNotAccepted)
	}
	o.owner = owner
	return nil
}

// Owner returns the owner role, or nil.
func (o *Object) Owner() *Object { return o.owner }

// SetTablespace assigns the tablespace. Nil clears it.
func (o *Object) SetTablespace(tablespace *Object) error {
	switch {
	case tablespace != nil && tablespace.typ != AssocTablespace.targetType():
		return o.assocError(AssocTablespace, tablespace, ErrWrongAssociationType)
	case !o.AcceptsTablespace():
		return o.assocError(AssocTablespace, tablespace, ErrAssociationNotAccepted)
	}
	o.tablespace = tablespace
	return nil
}

// Tablespace returns the tablespace, or nil.
func (o *Object) Tablespace() *Object { return o.tablespace }

// SetCollation assigns the collation. Nil clears it on any type.
func (o *Object) SetCollation(collation *Object) error {
	if collation != nil {
		if !o.AcceptsCollation() {
			return o.assocError(AssocCollation, collation, ErrAssociationNotAccepted)
		}
		if collation.typ != AssocCollation.targetType() {
			return o.assocError(AssocCollation, collation, ErrWrongAssociationType)
		}
	}
	o.collation = collation
	return nil
}

// Collation returns the collation, or nil.
func (o *Object) Collation() *Object { return o.collation }

// SetDatabase assigns the containing database. Nil clears it.
func (o *Object) SetDatabase(db *Object) error {
	if db != nil && db.typ != AssocDatabase.targetType() {
		return o.assocError(AssocDatabase, db, ErrWrongAssociationType)
	}
	o.database = db
	return nil
}

// Database returns the containing database, or nil.
func (o *Object) Database() *Object { return o.database }

// SetAttribute pre-populates a render attribute. Values are consumed by the
// next code definition and reset to empty afterwards.
func (o *Object) SetAttribute(key, value string) {
	o.attributes[key] = value
}

// Attributes returns a copy of the render attributes.
func (o *Object) Attributes() map[string]string {
	return maps.Clone(o.attributes)
}

// ResetAttributes empties every attribute value, keeping the keys.
func (o *Object) ResetAttributes() {
	for key := range o.attributes {
		o.attributes[key] = ""
	}
}

// CopyFrom copies name, comment, flags and associations from src.
// The id, type and render attributes of o are kept. src must have the
// same type as o; otherwise o is left untouched.
func (o *Object) CopyFrom(src *Object) error {
	if src == nil {
		return ErrNullArgument
	}
	if src.typ != o.typ {
		return fmt.Errorf("copy %s into %s %q: %w", src.typ, o.typ, o.name, ErrTypeMismatch)
	}
	o.name = src.name
	o.comment = src.comment
	o.protected = src.protected
	o.system = src.system
	o.sqlDisabled = src.sqlDisabled
	o.schema = src.schema
	o.owner = src.owner
	o.tablespace = src.tablespace
	o.collation = src.collation
	o.database = src.database
	return nil
}

func (o *Object) String() string {
	return fmt.Sprintf("%s %s (id %d)", o.typ, o.FormattedName(true), o.id)
}
