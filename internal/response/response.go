package response

import (
	"net/http"

	"advising_queue/internal/constant"

	"github.com/pkg/errors"
)

// SuccessResponse is the body of a mutation that returns nothing else
type SuccessResponse struct {
	Message string `json:"message" example:"entry completed"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	// Machine readable code
	// example: VALIDATION_ERROR
	Code string `json:"code"`

	// Human readable message
	// example: validation failed
	Message string `json:"message"`

	// Optional details
	// example: missing name, studentId
	Details string `json:"details,omitempty"`
}

var kindStatus = map[constant.ErrorKind]struct {
	status int
	code   string
}{
	constant.KindValidation:         {http.StatusBadRequest, "VALIDATION_ERROR"},
	constant.KindNotFound:           {http.StatusNotFound, "NOT_FOUND"},
	constant.KindConflict:           {http.StatusConflict, "CONFLICT"},
	constant.KindCapacityOrSchedule: {http.StatusUnprocessableEntity, "CAPACITY_OR_SCHEDULE"},
	constant.KindInfra:              {http.StatusServiceUnavailable, "INFRA_ERROR"},
}

// FromError maps err to an HTTP status and envelope. Message carries the sentinel text,
// Details the full wrapped chain.
func FromError(err error) (int, ErrorResponse) {
	kind := constant.KindOf(err)
	m, ok := kindStatus[kind]
	if !ok {
		return http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
			Details: err.Error(),
		}
	}
	return m.status, ErrorResponse{
		Code:    m.code,
		Message: messageOf(err),
		Details: err.Error(),
	}
}

var sentinels = []error{
	constant.ErrValidation,
	constant.ErrNotFound,
	constant.ErrDuplicateEntry,
	constant.ErrInvalidTransition,
	constant.ErrStaleEntry,
	constant.ErrPastClosing,
	constant.ErrQueueFull,
	constant.ErrQueueClosed,
	constant.ErrDeferNotAllowed,
	constant.ErrInfra,
}

func messageOf(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
