// Package codedef renders schema objects to SQL DDL or to their XML
// interchange form through a spi.TemplateEngine.
//
// The generator assembles the attribute dictionary a template sees: the
// object's pre-populated attributes, its flags, its name and keyword, and
// its associations. In SQL mode associations are referenced by formatted
// name; in XML mode they are embedded as their own reduced definitions.
package codedef

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/pgdef/pkg/object"
	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// DefaultMaxDepth bounds how deeply reduced definitions of associations are
// nested inside each other.
const DefaultMaxDepth = 16

// disabledPrefix starts every line of a definition whose SQL is disabled.
const disabledPrefix = "-- "

// Generator produces code definitions. It is not safe for concurrent use
// when the underlying engine is not.
type Generator struct {
	engine   spi.TemplateEngine
	logger   *slog.Logger
	maxDepth int
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger (default discards).
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMaxDepth limits association nesting. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(g *Generator) {
		if depth > 0 {
			g.maxDepth = depth
		}
	}
}

// New returns a generator rendering through engine.
func New(engine spi.TemplateEngine, opts ...Option) *Generator {
	if engine == nil {
		panic("codedef: New called with nil engine")
	}
	g := &Generator{
		engine:   engine,
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Applicable reports whether objects of type t have a definition in mode.
// Composite canvas kinds render through other paths in SQL mode.
func Applicable(t object.ObjectType, mode spi.Mode) bool {
	switch t {
	case object.TypeBase, object.TypeBaseTable:
		return false
	case object.TypeBaseRelationship, object.TypeTextbox:
		return mode != spi.ModeSQL
	}
	return true
}

// differentiatedComment reports whether the COMMENT ON target of t is more
// than its name, so the comment template needs the type marker.
func differentiatedComment(t object.ObjectType) bool {
	switch t {
	case object.TypeColumn, object.TypeAggregate, object.TypeFunction,
		object.TypeCast, object.TypeConstraint, object.TypeRule,
		object.TypeTrigger, object.TypeOperator, object.TypeOpClass,
		object.TypeOpFamily:
		return true
	}
	return false
}

// Definition renders obj in mode. The reduced form is the short reference
// used when obj is embedded in another object's XML.
//
// Types without a definition in mode yield "" without touching the engine.
// Whatever the outcome, obj's attribute values are empty afterwards.
func (g *Generator) Definition(obj *object.Object, mode spi.Mode, reduced bool) (string, error) {
	if obj == nil {
		return "", object.ErrNullArgument
	}
	r := &render{g: g, mode: mode, active: make(map[*object.Object]bool)}
	return r.definition(obj, reduced, 0)
}

// DefinitionAll renders each object in full and joins the non-empty
// results with a blank line. It stops at the first error.
func (g *Generator) DefinitionAll(objs []*object.Object, mode spi.Mode) (string, error) {
	var parts []string
	for _, obj := range objs {
		def, err := g.Definition(obj, mode, false)
		if err != nil {
			return "", err
		}
		if def != "" {
			parts = append(parts, def)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// render is the state of one Definition call: the objects on the current
// association chain.
type render struct {
	g      *Generator
	mode   spi.Mode
	active map[*object.Object]bool
}

func (r *render) definition(obj *object.Object, reduced bool, depth int) (string, error) {
	typ := obj.Type()
	if !Applicable(typ, r.mode) {
		return "", nil
	}
	if r.active[obj] {
		return "", fmt.Errorf("%w: %s %s", ErrRenderCycle, typ.DisplayName(), obj.FormattedName(true))
	}
	if depth > r.g.maxDepth {
		return "", fmt.Errorf("%w: %s %s at depth %d", ErrRenderDepth, typ.DisplayName(), obj.FormattedName(true), depth)
	}

	r.active[obj] = true
	defer delete(r.active, obj)
	defer obj.ResetAttributes()

	r.g.logger.Debug("rendering definition",
		"type", typ.String(),
		"name", obj.Name(),
		"mode", r.mode.String(),
		"reduced", reduced,
		"depth", depth)

	out, err := r.build(obj, reduced, depth)
	if err != nil {
		r.g.engine.ResetParserState()
		return "", r.wrap(obj, err)
	}
	return out, nil
}

func (r *render) build(obj *object.Object, reduced bool, depth int) (string, error) {
	var (
		typ    = obj.Type()
		sql    = r.mode == spi.ModeSQL
		attrs  = obj.Attributes()
		format = sql || (reduced && typ != object.TypeTextbox && typ != object.TypeRelationship)
		err    error
	)

	attrs[spi.AttrSQLDisabled] = spi.Bool(obj.IsSQLDisabled())

	if differentiatedComment(typ) {
		attrs[spi.AttrDifSQL] = spi.Bool(true)
		attrs[typ.TemplateKey()] = spi.Bool(true)
	} else {
		attrs[spi.AttrDifSQL] = ""
	}

	if attrs[spi.AttrName] == "" {
		attrs[spi.AttrName] = displayName(obj, format)
	}
	// Relationships and textboxes have no keyword; their XML renders with an
	// empty sql_object.
	attrs[spi.AttrSQLObject] = ""
	if kw, kwErr := typ.Keyword(); kwErr == nil {
		attrs[spi.AttrSQLObject] = kw
	}

	if schema := obj.Schema(); schema != nil {
		if attrs[spi.AttrSchema], err = r.reference(schema, format, depth); err != nil {
			return "", err
		}
	}

	if !sql {
		attrs[spi.AttrProtected] = spi.Bool(obj.IsProtected())
	}

	if ts := obj.Tablespace(); ts != nil {
		if attrs[spi.AttrTablespace], err = r.reference(ts, format, depth); err != nil {
			return "", err
		}
	}

	if coll := obj.Collation(); coll != nil && attrs[spi.AttrCollation] == "" {
		if attrs[spi.AttrCollation], err = r.reference(coll, format, depth); err != nil {
			return "", err
		}
	}

	// Tablespaces and databases are created by a single statement, so
	// owner and comment go into it rather than into extra statements.
	standalone := sql && (typ == object.TypeTablespace || typ == object.TypeDatabase)

	if owner := obj.Owner(); owner != nil {
		if attrs[spi.AttrOwner], err = r.reference(owner, format, depth); err != nil {
			return "", err
		}
		if sql && !standalone {
			r.g.engine.SetIgnoreUnknownAttributes(true)
			if attrs[spi.AttrOwner], err = r.g.engine.Render(spi.TemplateOwner, attrs, r.mode); err != nil {
				return "", err
			}
		}
	}

	if comment := obj.Comment(); comment != "" {
		attrs[spi.AttrComment] = comment
		if !standalone {
			r.g.engine.SetIgnoreUnknownAttributes(true)
			if attrs[spi.AttrComment], err = r.g.engine.Render(spi.TemplateComment, attrs, r.mode); err != nil {
				return "", err
			}
		}
	}

	attrs[spi.AttrReducedForm] = spi.Bool(reduced)

	out, err := r.g.engine.Render(typ.TemplateKey(), attrs, r.mode)
	if err != nil {
		return "", err
	}

	if sql && obj.IsSQLDisabled() {
		out = disable(out)
	}
	return out, nil
}

// reference is how obj's definition refers to an associated object: its
// name in SQL, its reduced definition in XML.
func (r *render) reference(assoc *object.Object, format bool, depth int) (string, error) {
	if r.mode == spi.ModeSQL {
		return displayName(assoc, format), nil
	}
	return r.definition(assoc, true, depth+1)
}

func (r *render) wrap(obj *object.Object, err error) error {
	var (
		defErr  *DefinitionError
		tmplErr *TemplateError
		missing *spi.MissingAttributeError
	)
	switch {
	case errors.As(err, &defErr), errors.As(err, &tmplErr),
		errors.Is(err, ErrRenderCycle), errors.Is(err, ErrRenderDepth):
		// Raised for an associated object; already carries its context.
		return err
	case errors.As(err, &missing):
		return &DefinitionError{Object: obj.FormattedName(true), Type: obj.TypeName(), Err: err}
	default:
		return &TemplateError{Object: obj.FormattedName(true), Type: obj.TypeName(), Err: err}
	}
}

func displayName(obj *object.Object, format bool) string {
	if format {
		return obj.FormattedName(true)
	}
	return obj.Name()
}

// disable turns every line of a definition into a SQL comment.
func disable(def string) string {
	if def == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(def, "\n"), "\n") {
		b.WriteString(disabledPrefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
