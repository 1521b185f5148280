package constant

import "github.com/pkg/errors"

const (
	ValidationErrMsg        = "validation failed"
	NotFoundErrMsg          = "entry not found"
	DuplicateEntryErrMsg    = "student already has an active entry in this queue"
	InvalidTransitionErrMsg = "invalid status transition"
	StaleEntryErrMsg        = "entry was modified concurrently"
	PastClosingErrMsg       = "deferral would extend past closing time"
	QueueFullErrMsg         = "queue is at capacity"
	QueueClosedErrMsg       = "queue is closed"
	DeferNotAllowedErrMsg   = "queue does not allow deferral"
	InfraErrMsg             = "backing service unavailable"
)

var (
	ErrValidation        = errors.New(ValidationErrMsg)
	ErrNotFound          = errors.New(NotFoundErrMsg)
	ErrDuplicateEntry    = errors.New(DuplicateEntryErrMsg)
	ErrInvalidTransition = errors.New(InvalidTransitionErrMsg)
	ErrStaleEntry        = errors.New(StaleEntryErrMsg)
	ErrPastClosing       = errors.New(PastClosingErrMsg)
	ErrQueueFull         = errors.New(QueueFullErrMsg)
	ErrQueueClosed       = errors.New(QueueClosedErrMsg)
	ErrDeferNotAllowed   = errors.New(DeferNotAllowedErrMsg)
	ErrInfra             = errors.New(InfraErrMsg)
)

// ErrorKind groups sentinel errors into the classes callers act on.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindCapacityOrSchedule ErrorKind = "capacity_or_schedule"
	KindInfra              ErrorKind = "infra"
	KindUnknown            ErrorKind = "unknown"
)

// KindOf classifies err. Anything not wrapping a known sentinel is KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDeferNotAllowed):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateEntry), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrStaleEntry):
		return KindConflict
	case errors.Is(err, ErrPastClosing), errors.Is(err, ErrQueueFull), errors.Is(err, ErrQueueClosed):
		return KindCapacityOrSchedule
	case errors.Is(err, ErrInfra):
		return KindInfra
	}
	return KindUnknown
}
