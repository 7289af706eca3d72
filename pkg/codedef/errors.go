package codedef

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the generator.
var (
	// ErrInvalidDefinition indicates a template referenced an attribute the
	// object did not provide.
	ErrInvalidDefinition = errors.New("invalid object definition")
	// ErrTemplateFailure indicates any other template engine failure.
	ErrTemplateFailure = errors.New("template engine failure")
	// ErrRenderCycle indicates an object reached again through its own
	// associations while being rendered.
	ErrRenderCycle = errors.New("association cycle while rendering")
	// ErrRenderDepth indicates associations nested deeper than the limit.
	ErrRenderDepth = errors.New("association nesting too deep")
)

// DefinitionError wraps a missing attribute failure with the object it
// occurred on. It matches both ErrInvalidDefinition and the engine error.
type DefinitionError struct {
	Object string // formatted name, schema qualified
	Type   string // display name of the object type
	Err    error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition of %s %s (probably a missing attribute): %v", e.Type, e.Object, e.Err)
}

func (e *DefinitionError) Unwrap() []error {
	return []error{ErrInvalidDefinition, e.Err}
}

// TemplateError passes any other engine failure through with the object it
// occurred on. It matches both ErrTemplateFailure and the engine error.
type TemplateError struct {
	Object string
	Type   string
	Err    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("rendering %s %s: %v", e.Type, e.Object, e.Err)
}

func (e *TemplateError) Unwrap() []error {
	return []error{ErrTemplateFailure, e.Err}
}
