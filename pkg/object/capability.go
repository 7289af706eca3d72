package object

import "strings"

// Association is a set of association categories an object may hold.
type Association uint8

// Association categories.
const (
	AssocSchema Association = 1 << iota
	AssocOwner
	AssocTablespace
	AssocCollation
	AssocDatabase
)

// Has reports whether every category in other is in a.
func (a Association) Has(other Association) bool {
	return other != 0 && a&other == other
}

func (a Association) String() string {
	if a == 0 {
		return "none"
	}
	names := []struct {
		bit  Association
		name string
	}{
		{AssocSchema, "schema"},
		{AssocOwner, "owner"},
		{AssocTablespace, "tablespace"},
		{AssocCollation, "collation"},
		{AssocDatabase, "database"},
	}
	var parts []string
	for _, n := range names {
		if a&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// targetType is the kind an association must point at.
func (a Association) targetType() ObjectType {
	switch a {
	case AssocSchema:
		return TypeSchema
	case AssocOwner:
		return TypeRole
	case AssocTablespace:
		return TypeTablespace
	case AssocCollation:
		return TypeCollation
	case AssocDatabase:
		return TypeDatabase
	default:
		return TypeBase
	}
}

// capabilities lists, per type, the associations it may hold besides the
// database, which any object may reference.
var capabilities = map[ObjectType]Association{
	TypeFunction:      AssocSchema | AssocOwner,
	TypeTable:         AssocSchema | AssocOwner | AssocTablespace,
	TypeView:          AssocSchema,
	TypeDomain:        AssocSchema | AssocOwner | AssocCollation,
	TypeSchema:        AssocOwner,
	TypeAggregate:     AssocSchema | AssocOwner,
	TypeOperator:      AssocSchema | AssocOwner,
	TypeSequence:      AssocSchema,
	TypeConversion:    AssocSchema | AssocOwner,
	TypeLanguage:      AssocOwner,
	TypeUserType:      AssocSchema | AssocOwner | AssocCollation,
	TypeTablespace:    AssocOwner,
	TypeDatabase:      AssocOwner | AssocTablespace,
	TypeOpClass:       AssocSchema | AssocOwner,
	TypeOpFamily:      AssocSchema | AssocOwner,
	TypeCollation:     AssocSchema | AssocOwner | AssocCollation,
	TypeExtension:     AssocSchema,
	TypeIndex:         AssocTablespace,
	TypeConstraint:    AssocTablespace,
	TypeColumn:        AssocCollation,
	TypeTypeAttribute: AssocCollation,
}

// Capabilities returns the associations objects of type t may hold.
func Capabilities(t ObjectType) Association {
	return capabilities[t]
}

// Accepts reports whether objects of type t may hold association a.
func Accepts(t ObjectType, a Association) bool {
	return capabilities[t].Has(a)
}

// AcceptsSchema reports whether objects of type t belong to a schema.
func AcceptsSchema(t ObjectType) bool { return Accepts(t, AssocSchema) }

// AcceptsOwner reports whether objects of type t have an owner role.
func AcceptsOwner(t ObjectType) bool { return Accepts(t, AssocOwner) }

// AcceptsTablespace reports whether objects of type t can be placed in a tablespace.
func AcceptsTablespace(t ObjectType) bool { return Accepts(t, AssocTablespace) }

// AcceptsCollation reports whether objects of type t carry a collation.
func AcceptsCollation(t ObjectType) bool { return Accepts(t, AssocCollation) }
