package entries

import "fmt"

// ValidationError reports malformed caller input: a cursor that does not
// decode, or a bulk mutation exceeding its bound.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a single-entry operation against an entry that does
// not exist or belongs to another user. List-level scope filters never raise
// it; an unknown subscription or tag id yields an empty result instead.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func newNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
