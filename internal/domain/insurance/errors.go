package insurance

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError and is what repositories return
// for a missing key.
var ErrNotFound = errors.New("not found")

// Kind names the table a lookup was made against.
type Kind string

const (
	KindClaim Kind = "claim"
	KindPlan  Kind = "plan"
)

// NotFoundError is returned by the keyed lookups when the identifier is not
// present in the reference data.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case KindClaim:
		return fmt.Sprintf("claim with number %s not found", e.ID)
	case KindPlan:
		return fmt.Sprintf("plan with ID %s not found", e.ID)
	default:
		return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
	}
}

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AsNotFound unwraps err into a NotFoundError if it carries one.
func AsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}
