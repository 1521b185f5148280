package handlers

import (
	"context"
	"net/http"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"
	"advising_queue/internal/ordering"
	"advising_queue/internal/queue"
	"advising_queue/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type QueueService interface {
	Join(ctx context.Context, req queue.JoinRequest) (*models.QueueEntry, error)
	Status(ctx context.Context, queueID, email string) (*queue.EntryStatus, error)
	Mine(ctx context.Context, email string) ([]queue.EntryStatus, error)
	ListActive(ctx context.Context, queueID string) ([]ordering.Ranked, error)
	ListQueues(ctx context.Context) ([]queue.QueueSummary, error)
	Defer(ctx context.Context, queueID, email string, minutes int) (*models.QueueEntry, error)
	Leave(ctx context.Context, queueID, email string) error
}

type QueueHandler struct {
	svc    QueueService
	logger *logrus.Logger
}

func NewQueueHandler(svc QueueService, logger *logrus.Logger) *QueueHandler {
	return &QueueHandler{svc: svc, logger: logger}
}

// RankedEntry is an active entry with its place in line
type RankedEntry struct {
	models.QueueEntry
	Position          int `json:"position"`
	EstimatedWaitTime int `json:"estimatedWaitTime"` // minutes
}

func rankedEntries(ranked []ordering.Ranked) []RankedEntry {
	out := make([]RankedEntry, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, RankedEntry{
			QueueEntry:        r.Entry,
			Position:          r.Position,
			EstimatedWaitTime: minutes(r.EstimatedWait),
		})
	}
	return out
}

// QueueItem is a catalog queue as a prospective joiner sees it
type QueueItem struct {
	models.Queue
	IsOpen            bool  `json:"isOpen"`
	ActiveCount       int64 `json:"activeCount"`
	EstimatedWaitTime int   `json:"estimatedWaitTime"` // minutes, for someone joining now
}

type StudentDetails struct {
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Questions string `json:"questions,omitempty"`
}

// StatusResponse is a student's live standing in one queue
type StatusResponse struct {
	EntryID           uint           `json:"entryId"`
	QueueID           string         `json:"queueId"`
	QueueName         string         `json:"queueName"`
	Description       string         `json:"description"`
	Position          int            `json:"position"`
	EstimatedWaitTime int            `json:"estimatedWaitTime"` // minutes
	Status            models.Status  `json:"status"`
	JoinedAt          time.Time      `json:"joinedAt"`
	DeferredUntil     *time.Time     `json:"deferredUntil,omitempty"`
	NoShowDeadline    *time.Time     `json:"noShowDeadline,omitempty"`
	StudentDetails    StudentDetails `json:"studentDetails"`
}

func statusResponse(st queue.EntryStatus) StatusResponse {
	return StatusResponse{
		EntryID:           st.Entry.ID,
		QueueID:           st.Entry.QueueID,
		QueueName:         st.Queue.Name,
		Description:       st.Queue.Description,
		Position:          st.Position,
		EstimatedWaitTime: minutes(st.EstimatedWait),
		Status:            st.Entry.Status,
		JoinedAt:          st.Entry.JoinedAt,
		DeferredUntil:     st.Entry.DeferredUntil,
		NoShowDeadline:    st.NoShowDeadline,
		StudentDetails: StudentDetails{
			Name:      st.Entry.Name,
			StudentID: st.Entry.StudentID,
			Email:     st.Entry.Email,
			Phone:     st.Entry.Phone,
			Questions: st.Entry.Questions,
		},
	}
}

type DeferRequest struct {
	StudentEmail string `json:"studentEmail" binding:"required"`
	DeferMinutes int    `json:"deferMinutes" binding:"required"`
}

type LeaveRequest struct {
	StudentEmail string `json:"studentEmail"`
}

// ListQueues godoc
// @Summary		List queues
// @Description	Every catalog queue with its open flag, active count and the wait for a new joiner
// @Tags			queue
// @Produce		json
// @Success		200	{array}		QueueItem
// @Failure		503	{object}	response.ErrorResponse	"Store unavailable (INFRA_ERROR)"
// @Router			/api/queues [get]
func (h *QueueHandler) ListQueues(c *gin.Context) {
	summaries, err := h.svc.ListQueues(c.Request.Context())
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	items := make([]QueueItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, QueueItem{
			Queue:             s.Queue,
			IsOpen:            s.IsOpen,
			ActiveCount:       s.ActiveCount,
			EstimatedWaitTime: minutes(s.EstimatedWait),
		})
	}
	c.JSON(http.StatusOK, items)
}

// Join godoc
// @Summary		Join a queue
// @Description	Creates a waiting entry. queueId defaults to the general queue, email to <studentId>@<student domain>.
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			entry	body		queue.JoinRequest	true	"Student details"
// @Success		201		{object}	models.QueueEntry
// @Failure		400		{object}	response.ErrorResponse	"Missing fields (VALIDATION_ERROR)"
// @Failure		409		{object}	response.ErrorResponse	"Already in this queue (CONFLICT)"
// @Failure		422		{object}	response.ErrorResponse	"Queue closed or full (CAPACITY_OR_SCHEDULE)"
// @Router			/api/queue [post]
func (h *QueueHandler) Join(c *gin.Context) {
	var req queue.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	entry, err := h.svc.Join(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListActive godoc
// @Summary		Active entries
// @Description	Active entries in line order with position and estimated wait
// @Tags			queue
// @Produce		json
// @Param			queueId	query		string	false	"Only this queue"
// @Success		200		{array}		RankedEntry
// @Router			/api/queue [get]
func (h *QueueHandler) ListActive(c *gin.Context) {
	ranked, err := h.svc.ListActive(c.Request.Context(), c.Query("queueId"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rankedEntries(ranked))
}

// Status godoc
// @Summary		Student status
// @Description	Position and estimated wait of the student's active entry, computed on every call
// @Tags			queue
// @Produce		json
// @Param			queueId			path		string	true	"Queue id"
// @Param			student-email	header		string	true	"Student email"
// @Success		200				{object}	StatusResponse
// @Failure		404				{object}	response.ErrorResponse	"Not in this queue (NOT_FOUND)"
// @Router			/api/queue/{queueId}/status [get]
func (h *QueueHandler) Status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context(), c.Param("queueId"), c.GetHeader(constant.StudentEmailHeader))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse(*st))
}

// Defer godoc
// @Summary		Defer
// @Description	Postpones the student's turn without losing their place. A deferral past closing time is refused so the client can offer leaving instead.
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			queueId	path		string			true	"Queue id"
// @Param			request	body		DeferRequest	true	"Who and how long"
// @Success		200		{object}	models.QueueEntry
// @Failure		400		{object}	response.ErrorResponse	"Bad minutes or deferral disabled (VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Not in this queue (NOT_FOUND)"
// @Failure		409		{object}	response.ErrorResponse	"Already called (CONFLICT)"
// @Failure		422		{object}	response.ErrorResponse	"Past closing time (CAPACITY_OR_SCHEDULE)"
// @Router			/api/queue/{queueId}/defer [post]
func (h *QueueHandler) Defer(c *gin.Context) {
	var req DeferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	entry, err := h.svc.Defer(c.Request.Context(), c.Param("queueId"), req.StudentEmail, req.DeferMinutes)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Leave godoc
// @Summary		Leave
// @Description	Deletes the student's active entry. The email comes from the body or the student-email header.
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			queueId	path		string			true	"Queue id"
// @Param			request	body		LeaveRequest	false	"Who"
// @Success		200		{object}	response.SuccessResponse
// @Failure		404		{object}	response.ErrorResponse	"Not in this queue (NOT_FOUND)"
// @Router			/api/queue/{queueId}/leave [delete]
func (h *QueueHandler) Leave(c *gin.Context) {
	var req LeaveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	if req.StudentEmail == "" {
		req.StudentEmail = c.GetHeader(constant.StudentEmailHeader)
	}
	if err := h.svc.Leave(c.Request.Context(), c.Param("queueId"), req.StudentEmail); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "left the queue"})
}
