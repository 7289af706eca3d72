package object

import (
	"fmt"
	"strings"
)

// ObjectType identifies the kind of a schema object.
type ObjectType int

// ObjectType constants. The order is the one used by project files; append
// new kinds before TypeBaseRelationship.
const (
	TypeColumn ObjectType = iota
	TypeConstraint
	TypeFunction
	TypeTrigger
	TypeIndex
	TypeRule
	TypeTable
	TypeView
	TypeDomain
	TypeSchema
	TypeAggregate
	TypeOperator
	TypeSequence
	TypeRole
	TypeConversion
	TypeCast
	TypeLanguage
	TypeUserType
	TypeTablespace
	TypeOpFamily
	TypeOpClass
	TypeDatabase
	TypeCollation
	TypeExtension
	TypeRelationship
	TypeTextbox
	TypePermission
	TypeParameter
	TypeTypeAttribute
	TypeBaseRelationship

	// TypeBase is the sentinel of objects without a concrete kind.
	TypeBase
	// TypeBaseTable is the sentinel shared by tables and views on the canvas.
	TypeBaseTable
)

// descriptor holds the fixed strings of a type: its template key, display
// name and DDL keyword (empty when the type has no statement of its own).
type descriptor struct {
	key     string
	display string
	keyword string
}

func (t ObjectType) descriptor() (descriptor, bool) {
	switch t {
	case TypeColumn:
		return descriptor{"column", "Column", "COLUMN"}, true
	case TypeConstraint:
		return descriptor{"constraint", "Constraint", "CONSTRAINT"}, true
	case TypeFunction:
		return descriptor{"function", "Function", "FUNCTION"}, true
	case TypeTrigger:
		return descriptor{"trigger", "Trigger", "TRIGGER"}, true
	case TypeIndex:
		return descriptor{"index", "Index", "INDEX"}, true
	case TypeRule:
		return descriptor{"rule", "Rule", "RULE"}, true
	case TypeTable:
		return descriptor{"table", "Table", "TABLE"}, true
	case TypeView:
		return descriptor{"view", "View", "VIEW"}, true
	case TypeDomain:
		return descriptor{"domain", "Domain", "DOMAIN"}, true
	case TypeSchema:
		return descriptor{"schema", "Schema", "SCHEMA"}, true
	case TypeAggregate:
		return descriptor{"aggregate", "Aggregate", "AGGREGATE"}, true
	case TypeOperator:
		return descriptor{"operator", "Operator", "OPERATOR"}, true
	case TypeSequence:
		return descriptor{"sequence", "Sequence", "SEQUENCE"}, true
	case TypeRole:
		return descriptor{"role", "Role", "ROLE"}, true
	case TypeConversion:
		return descriptor{"conversion", "Conversion", "CONVERSION"}, true
	case TypeCast:
		return descriptor{"cast", "Cast", "CAST"}, true
	case TypeLanguage:
		return descriptor{"language", "Language", "LANGUAGE"}, true
	case TypeUserType:
		return descriptor{"usertype", "Type", "TYPE"}, true
	case TypeTablespace:
		return descriptor{"tablespace", "Tablespace", "TABLESPACE"}, true
	case TypeOpFamily:
		return descriptor{"opfamily", "Operator Family", "OPERATOR FAMILY"}, true
	case TypeOpClass:
		return descriptor{"opclass", "Operator Class", "OPERATOR CLASS"}, true
	case TypeDatabase:
		return descriptor{"database", "Database", "DATABASE"}, true
	case TypeCollation:
		return descriptor{"collation", "Collation", "COLLATION"}, true
	case TypeExtension:
		return descriptor{"extension", "Extension", "EXTENSION"}, true
	case TypeRelationship:
		return descriptor{"relationship", "Relationship", ""}, true
	case TypeTextbox:
		return descriptor{"textbox", "Textbox", ""}, true
	case TypePermission:
		return descriptor{"permission", "Permission", ""}, true
	case TypeParameter:
		return descriptor{"parameter", "Parameter", ""}, true
	case TypeTypeAttribute:
		return descriptor{"typeattribute", "Type Attribute", ""}, true
	case TypeBaseRelationship:
		return descriptor{"relationship", "Basic Relationship", ""}, true
	case TypeBase:
		return descriptor{}, true
	case TypeBaseTable:
		return descriptor{"basetable", "Base Table", ""}, true
	default:
		return descriptor{}, false
	}
}

// IsValid reports whether t is a declared ObjectType.
func (t ObjectType) IsValid() bool {
	_, ok := t.descriptor()
	return ok
}

// TemplateKey is the lowercase name of the template rendering t.
func (t ObjectType) TemplateKey() string {
	d, _ := t.descriptor()
	return d.key
}

// DisplayName is the human readable name of t. The base sentinel has none.
func (t ObjectType) DisplayName() string {
	d, _ := t.descriptor()
	return d.display
}

// Keyword returns the DDL keyword of t, e.g. "OPERATOR CLASS".
// Types without a statement of their own fail with ErrNoKeyword.
func (t ObjectType) Keyword() (string, error) {
	d, ok := t.descriptor()
	if !ok || d.keyword == "" {
		return "", fmt.Errorf("%w: %s", ErrNoKeyword, t)
	}
	return d.keyword, nil
}

// HasKeyword reports whether Keyword succeeds for t.
func (t ObjectType) HasKeyword() bool {
	d, _ := t.descriptor()
	return d.keyword != ""
}

func (t ObjectType) String() string {
	switch t {
	case TypeBase:
		return "base"
	case TypeBaseRelationship:
		return "baserelationship"
	}
	if d, ok := t.descriptor(); ok {
		return d.key
	}
	return fmt.Sprintf("ObjectType(%d)", int(t))
}

// ObjectTypes returns the kinds a model can contain, in display order.
func ObjectTypes() []ObjectType {
	return []ObjectType{
		TypeBaseRelationship, TypeAggregate, TypeCast, TypeCollation,
		TypeColumn, TypeConstraint, TypeConversion, TypeDatabase,
		TypeDomain, TypeExtension, TypeFunction, TypeIndex,
		TypeLanguage, TypeOpClass, TypeOperator, TypeOpFamily,
		TypeRelationship, TypeRole, TypeRule, TypeSchema, TypeSequence,
		TypeTable, TypeTablespace, TypeTextbox, TypeTrigger,
		TypeUserType, TypeView, TypePermission,
	}
}

// ParseObjectType resolves a template key, DDL keyword or display name
// (case insensitive) to its ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for t := TypeColumn; t <= TypeBaseTable; t++ {
		d, _ := t.descriptor()
		if d.key == "" {
			continue
		}
		if want == d.key || want == strings.ToLower(d.display) || (d.keyword != "" && want == strings.ToLower(d.keyword)) {
			return t, nil
		}
	}
	return TypeBase, fmt.Errorf("unknown object type %q", s)
}
