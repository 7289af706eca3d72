package starlark

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// fileOptions are the dialect options for template expressions.
var fileOptions = &syntax.FileOptions{}

// maxUnknownPasses bounds how often an expression is re-resolved after
// binding unknown names to empty strings.
const maxUnknownPasses = 4

// ExecutionContext holds the globals a template is evaluated against:
// builtins, then extra globals, then the attribute dictionary.
type ExecutionContext struct {
	// globals is the combined set of all globals for execution
	globals starlark.StringDict

	// ignoreUnknown binds unknown names to "" instead of failing
	ignoreUnknown bool

	// maxSteps caps the execution steps of a single expression (0 = unlimited)
	maxSteps uint64

	// mu protects globals, which grow when unknown names are bound
	mu sync.RWMutex
}

// ContextOption is a functional option for configuring ExecutionContext.
type ContextOption func(*ExecutionContext)

// WithGlobals adds values visible to every expression. Attributes with the
// same name take precedence.
func WithGlobals(globals starlark.StringDict) ContextOption {
	return func(ctx *ExecutionContext) {
		for name, v := range globals {
			ctx.globals[name] = v
		}
	}
}

// WithIgnoreUnknown makes references to undefined names evaluate to "".
func WithIgnoreUnknown(ignore bool) ContextOption {
	return func(ctx *ExecutionContext) {
		ctx.ignoreUnknown = ignore
	}
}

// WithMaxSteps limits the Starlark execution steps of each expression.
func WithMaxSteps(steps uint64) ContextOption {
	return func(ctx *ExecutionContext) {
		ctx.maxSteps = steps
	}
}

// NewExecutionContext creates a context whose globals are the builtins, any
// option supplied globals and attrs, in increasing precedence.
func NewExecutionContext(attrs map[string]string, opts ...ContextOption) *ExecutionContext {
	ctx := &ExecutionContext{
		globals: Builtins(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	for name, v := range AttributesToStarlark(attrs) {
		ctx.globals[name] = v
	}
	return ctx
}

// Globals returns a snapshot of the globals dictionary.
func (ctx *ExecutionContext) Globals() starlark.StringDict {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return maps.Clone(ctx.globals)
}

// IgnoresUnknown reports whether undefined names evaluate to "".
func (ctx *ExecutionContext) IgnoresUnknown() bool {
	return ctx.ignoreUnknown
}

// EvalExpr evaluates a single Starlark expression and returns the result.
// This is used for {{ expr }} template expressions.
func (ctx *ExecutionContext) EvalExpr(expr string, filename string, line int) (starlark.Value, error) {
	return ctx.EvalExprWithLocals(expr, filename, line, nil)
}

// EvalExprWithLocals evaluates a Starlark expression with additional local variables.
// This is used for expressions inside loops where loop variables need to be in scope.
func (ctx *ExecutionContext) EvalExprWithLocals(expr string, filename string, line int, locals starlark.StringDict) (starlark.Value, error) {
	for pass := 0; ; pass++ {
		env := ctx.Globals()
		// Locals take precedence
		for k, v := range locals {
			env[k] = v
		}

		result, err := starlark.EvalOptions(fileOptions, ctx.newThread(filename), filename, expr, env)
		if err == nil {
			return result, nil
		}

		names, ok := undefinedNames(err)
		if !ok {
			return nil, &EvalError{
				File:    filename,
				Line:    line,
				Expr:    expr,
				Message: err.Error(),
				Cause:   err,
			}
		}
		if !ctx.ignoreUnknown || pass >= maxUnknownPasses {
			return nil, &UndefinedError{
				Name: names[0],
				File: filename,
				Line: line,
				Expr: expr,
			}
		}

		ctx.mu.Lock()
		for _, name := range names {
			ctx.globals[name] = starlark.String("")
		}
		ctx.mu.Unlock()
	}
}

// EvalExprString evaluates a Starlark expression and returns the string result.
// This is the typical use case for template expressions.
func (ctx *ExecutionContext) EvalExprString(expr string, filename string, line int) (string, error) {
	return ctx.EvalExprStringWithLocals(expr, filename, line, nil)
}

// EvalExprStringWithLocals evaluates a Starlark expression with local variables and returns the string result.
func (ctx *ExecutionContext) EvalExprStringWithLocals(expr string, filename string, line int, locals starlark.StringDict) (string, error) {
	result, err := ctx.EvalExprWithLocals(expr, filename, line, locals)
	if err != nil {
		return "", err
	}
	return ValueToString(result), nil
}

// ValueToString converts an expression result to template output.
// Strings are emitted unquoted and None as nothing.
func ValueToString(v starlark.Value) string {
	switch v := v.(type) {
	case starlark.String:
		return string(v)
	case starlark.NoneType:
		return ""
	default:
		return v.String()
	}
}

// newThread creates a new Starlark thread for execution.
func (ctx *ExecutionContext) newThread(name string) *starlark.Thread {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, _ string) {
			// Template execution does not print
		},
	}
	if ctx.maxSteps > 0 {
		thread.SetMaxExecutionSteps(ctx.maxSteps)
	}
	return thread
}

// undefinedNames extracts the names reported as undefined by the resolver.
// It returns false if err holds any other kind of failure.
func undefinedNames(err error) ([]string, bool) {
	var list resolve.ErrorList
	if !errors.As(err, &list) {
		return nil, false
	}
	names := make([]string, 0, len(list))
	for _, e := range list {
		rest, ok := strings.CutPrefix(e.Msg, "undefined: ")
		if !ok {
			return nil, false
		}
		// The resolver may append a spelling hint
		name, _, _ := strings.Cut(rest, " ")
		names = append(names, name)
	}
	return names, len(names) > 0
}

// EvalError represents an error during Starlark expression evaluation.
type EvalError struct {
	File    string
	Line    int
	Expr    string
	Message string
	Cause   error
}

func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: error evaluating %q: %s", e.File, e.Line, e.Expr, e.Message)
	}
	return fmt.Sprintf("%s: error evaluating %q: %s", e.File, e.Expr, e.Message)
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}

// UndefinedError reports an expression referencing a name that is neither an
// attribute nor a global.
type UndefinedError struct {
	Name string
	File string
	Line int
	Expr string
}

func (e *UndefinedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: undefined name %q in %q", e.File, e.Line, e.Name, e.Expr)
	}
	return fmt.Sprintf("%s: undefined name %q in %q", e.File, e.Name, e.Expr)
}
