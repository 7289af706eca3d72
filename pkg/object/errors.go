package object

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by object setters.
var (
	// ErrEmptyName indicates an empty name (after NUL characters are stripped).
	ErrEmptyName = errors.New("object name is empty")
	// ErrNameTooLong indicates a name longer than ident.MaxNameLength bytes.
	ErrNameTooLong = errors.New("object name is too long")
	// ErrInvalidName indicates a name outside the identifier grammar.
	ErrInvalidName = errors.New("object name is invalid")
	// ErrMissingAssociation indicates a nil value for a mandatory association.
	ErrMissingAssociation = errors.New("required association is not set")
	// ErrWrongAssociationType indicates an association target of the wrong kind.
	ErrWrongAssociationType = errors.New("association target has the wrong type")
	// ErrAssociationNotAccepted indicates an association the object's type cannot hold.
	ErrAssociationNotAccepted = errors.New("association is not accepted by the object type")
	// ErrNullArgument indicates a nil object where one is required.
	ErrNullArgument = errors.New("object is nil")
	// ErrNoKeyword indicates a type without a DDL keyword.
	ErrNoKeyword = errors.New("object type has no DDL keyword")
	// ErrTypeMismatch indicates a copy between objects of different types.
	ErrTypeMismatch = errors.New("object types differ")
)

// NameError is returned when a name cannot be assigned.
type NameError struct {
	Name string
	Type ObjectType
	Err  error
}

// Error implements the error interface.
func (e *NameError) Error() string {
	return fmt.Sprintf("cannot name %s %q: %v", e.Type, e.Name, e.Err)
}

// Unwrap returns the sentinel describing the failure.
func (e *NameError) Unwrap() error {
	return e.Err
}

// AssociationError is returned when an association cannot be set.
type AssociationError struct {
	Object      string      // name of the object being modified
	Type        ObjectType  // type of the object being modified
	Association Association // category being set
	Target      string      // name of the rejected target, if any
	TargetType  ObjectType  // type of the rejected target, if any
	Err         error
}

// Error implements the error interface.
func (e *AssociationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q: cannot set %s", e.Type, e.Object, e.Association)
	if e.Target != "" {
		fmt.Fprintf(&b, " to %s %q", e.TargetType, e.Target)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the sentinel describing the failure.
func (e *AssociationError) Unwrap() error {
	return e.Err
}

// IsNameError reports whether err is a NameError.
func IsNameError(err error) bool {
	var nameErr *NameError
	return errors.As(err, &nameErr)
}

// IsAssociationError reports whether err is an AssociationError.
func IsAssociationError(err error) bool {
	var assocErr *AssociationError
	return errors.As(err, &assocErr)
}
