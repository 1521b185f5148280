package handlers

import (
	"net/http"

	"advising_queue/internal/constant"

	"github.com/gin-gonic/gin"
)

// Mine godoc
// @Summary		My queues
// @Description	Every active entry of the student across queues, with position and wait
// @Tags			queue
// @Produce		json
// @Param			student-email	header	string	true	"Student email"
// @Success		200				{array}		StatusResponse
// @Failure		400				{object}	response.ErrorResponse	"Missing header (VALIDATION_ERROR)"
// @Router			/api/queue/mine [get]
func (h *QueueHandler) Mine(c *gin.Context) {
	statuses, err := h.svc.Mine(c.Request.Context(), c.GetHeader(constant.StudentEmailHeader))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}

	items := make([]StatusResponse, 0, len(statuses))
	for _, st := range statuses {
		items = append(items, statusResponse(st))
	}
	c.JSON(http.StatusOK, items)
}
