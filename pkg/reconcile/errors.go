package reconcile

import (
	"errors"
	"fmt"
)

// ErrNothingToRevoke reports that no rule item contained any of the
// requested principals. It is distinguishable from success but carries no
// remote mutation: callers may treat it as a warning.
var ErrNothingToRevoke = errors.New("no matching grant to revoke")

// ValidationError rejects an intent before any remote call is made. It is
// never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid intent: " + e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
