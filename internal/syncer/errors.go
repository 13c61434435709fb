package syncer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
	"github.com/channel-sync/backend/internal/transform"
)

// ErrSyncInFlight is returned when a sync is requested while one is pending
// for the same entity. The request is dropped, not queued.
var ErrSyncInFlight = errors.New("sync already in flight")

// PreconditionError reports missing local data; nothing was sent remotely.
type PreconditionError = transform.PreconditionError

// RetriedError is a create that was rejected, retried once without the
// offending optional fields, and rejected again.
type RetriedError struct {
	Stripped []string
	Err      error
}

func (e *RetriedError) Error() string {
	return fmt.Sprintf("retried without %s: %v", strings.Join(e.Stripped, ", "), e.Err)
}

func (e *RetriedError) Unwrap() error {
	return e.Err
}

// ErrorClass lets callers choose between "fix your data", "try again" and
// "already retried automatically".
type ErrorClass string

const (
	ClassNone         ErrorClass = ""
	ClassPrecondition ErrorClass = "precondition"
	ClassNotFound     ErrorClass = "not_found"
	ClassValidation   ErrorClass = "validation"
	ClassRetried      ErrorClass = "retried"
	ClassInFlight     ErrorClass = "in_flight"
	ClassRemote       ErrorClass = "remote"
)

// Classify maps an error returned by the engine to its class.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	var perr *PreconditionError
	var rerr *RetriedError
	var verr *channex.ValidationError
	switch {
	case errors.As(err, &perr):
		return ClassPrecondition
	case errors.Is(err, ErrSyncInFlight):
		return ClassInFlight
	case errors.As(err, &rerr):
		return ClassRetried
	case errors.Is(err, channex.ErrNotFound), errors.Is(err, backend.ErrNotFound):
		return ClassNotFound
	case errors.As(err, &verr):
		return ClassValidation
	default:
		return ClassRemote
	}
}

func isRemoteNotFound(err error) bool {
	return errors.Is(err, channex.ErrNotFound)
}
