package response

import (
	"net/http"
	"testing"

	"advising_queue/internal/constant"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{errors.Wrap(constant.ErrValidation, "missing name"), http.StatusBadRequest, "VALIDATION_ERROR", constant.ValidationErrMsg},
		{errors.Wrap(constant.ErrNotFound, "find"), http.StatusNotFound, "NOT_FOUND", constant.NotFoundErrMsg},
		{errors.Wrap(constant.ErrDuplicateEntry, "a@b"), http.StatusConflict, "CONFLICT", constant.DuplicateEntryErrMsg},
		{errors.Wrap(constant.ErrPastClosing, "closes 20:00"), http.StatusUnprocessableEntity, "CAPACITY_OR_SCHEDULE", constant.PastClosingErrMsg},
		{errors.Wrap(constant.ErrInfra, "db down"), http.StatusServiceUnavailable, "INFRA_ERROR", constant.InfraErrMsg},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, body := FromError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.msg, body.Message)
			assert.Equal(t, tt.err.Error(), body.Details)
		})
	}
}
