package handlers

import (
	"strconv"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// abortWithError writes the envelope for err. Unclassified errors are logged since the
// caller only sees a generic message for them.
func abortWithError(c *gin.Context, logger *logrus.Logger, err error) {
	status, body := response.FromError(err)
	if constant.KindOf(err) == constant.KindUnknown || constant.KindOf(err) == constant.KindInfra {
		logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(400, response.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: constant.ValidationErrMsg,
		Details: err.Error(),
	})
}

func entryID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(constant.ErrValidation, "bad entry id %q", c.Param("id"))
	}
	return uint(id), nil
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}
