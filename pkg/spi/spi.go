// Package spi defines the contract between schema objects and the template
// engine that renders them, without either side importing the other.
package spi

import (
	"fmt"
	"strings"
)

// Mode selects which representation a template engine produces.
type Mode int

// Mode constants for the two supported outputs.
const (
	ModeSQL Mode = iota // DDL statements
	ModeXML             // interchange document
)

func (m Mode) String() string {
	switch m {
	case ModeSQL:
		return "sql"
	case ModeXML:
		return "xml"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Extension is the file extension of templates for the mode.
func (m Mode) Extension() string {
	return m.String()
}

// ParseMode converts "sql" or "xml" (any case) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sql", "ddl":
		return ModeSQL, nil
	case "xml":
		return ModeXML, nil
	default:
		return ModeSQL, fmt.Errorf("unknown definition mode %q (want sql or xml)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeSQL && m != ModeXML {
		return nil, fmt.Errorf("invalid definition mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseMode.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// TemplateEngine renders a named template against an attribute dictionary.
//
// Implementations are stateful: SetIgnoreUnknownAttributes applies to the
// next Render call only, and ResetParserState discards whatever a failed
// render left behind.
type TemplateEngine interface {
	// Render expands the template registered under key for mode.
	// A reference to an attribute absent from attrs fails with
	// *MissingAttributeError unless unknown attributes are ignored.
	Render(key string, attrs map[string]string, mode Mode) (string, error)

	// SetIgnoreUnknownAttributes makes absent attributes render as empty
	// strings during the next Render call.
	SetIgnoreUnknownAttributes(ignore bool)

	// ResetParserState clears partial state after a failed render.
	ResetParserState()
}

// MissingAttributeError reports a template referencing an attribute the
// dictionary does not define.
type MissingAttributeError struct {
	Attribute string
	Template  string
	Line      int
}

func (e *MissingAttributeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: attribute %q has no value", e.Template, e.Line, e.Attribute)
	}
	return fmt.Sprintf("%s: attribute %q has no value", e.Template, e.Attribute)
}

// Attribute keys shared by every schema object template.
const (
	AttrName        = "name"
	AttrComment     = "comment"
	AttrOwner       = "owner"
	AttrTablespace  = "tablespace"
	AttrSchema      = "schema"
	AttrCollation   = "collation"
	AttrProtected   = "protected"
	AttrSQLDisabled = "sql_disabled"
	AttrDifSQL      = "dif_sql"
	AttrSQLObject   = "sql_object"
	AttrReducedForm = "reduced_form"
)

// Sub-template keys rendered with unknown attributes ignored.
const (
	TemplateOwner   = "owner"
	TemplateComment = "comment"
)

// Bool encodes a flag the way templates test it: "1" for true, "" for false.
func Bool(v bool) string {
	if v {
		return "1"
	}
	return ""
}
