package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for item validation.
var (
	// ErrInvalidQuantity rejects add requests with a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")

	// ErrDanglingVariant signals that an item references a variant that no
	// longer exists on its product. The caller must leave the line's derived
	// fields untouched.
	ErrDanglingVariant = errors.New("variant no longer exists on product")
)

// InvalidIdentifierError indicates a structurally malformed identifier. It is
// raised before any state is touched or any collaborator is called.
type InvalidIdentifierError struct {
	Field string
	Value string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s identifier %q", e.Field, e.Value)
}

// NotFoundError indicates a well-formed reference to an order or item that
// does not exist. Unlike InvalidIdentifierError it is detected after at
// least one collaborator call, so partial side effects may already apply.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
