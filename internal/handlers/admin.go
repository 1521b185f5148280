package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"
	"advising_queue/internal/ordering"
	"advising_queue/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminService interface {
	ListActive(ctx context.Context, queueID string) ([]ordering.Ranked, error)
	Export(ctx context.Context) ([]models.QueueEntry, error)
	Complete(ctx context.Context, id uint) (*models.QueueEntry, error)
	Notify(ctx context.Context, id uint) (*models.QueueEntry, error)
	MarkNoShow(ctx context.Context, id uint) (*queue.NoShowFlag, error)
	MarkNoShowNow(ctx context.Context, id uint) (*models.QueueEntry, error)
	CancelNoShow(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) (*models.QueueEntry, error)
}

type AdminHandler struct {
	svc    AdminService
	logger *logrus.Logger
}

func NewAdminHandler(svc AdminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

type NoShowResponse struct {
	EntryID        uint      `json:"entryId"`
	Deadline       time.Time `json:"deadline"`
	Position       int       `json:"position"` // anything but 1 means the entry was not yet up
	AlreadyPending bool      `json:"alreadyPending"`
}

type CancelNoShowResponse struct {
	EntryID   uint `json:"entryId"`
	Cancelled bool `json:"cancelled"`
}

// Entries godoc
// @Summary		Admin queue view
// @Description	Active entries in line order; the dashboard re-reads this on every refresh signal
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			queueId	query	string	false	"Only this queue"
// @Success		200		{array}		RankedEntry
// @Failure		401		{object}	response.ErrorResponse
// @Router			/api/admin/entries [get]
func (h *AdminHandler) Entries(c *gin.Context) {
	ranked, err := h.svc.ListActive(c.Request.Context(), c.Query("queueId"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rankedEntries(ranked))
}

var exportColumns = []string{
	"id", "queueId", "name", "studentId", "email", "phone", "questions",
	"status", "joinedAt", "deferredUntil", "completedAt",
}

// Export godoc
// @Summary		Export today's entries
// @Description	Every entry that joined today, in any status, as JSON or CSV
// @Tags			admin
// @Produce		json
// @Produce		text/csv
// @Security		BearerAuth
// @Param			format	query	string	false	"json (default) or csv"
// @Success		200		{array}		models.QueueEntry
// @Router			/api/admin/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	entries, err := h.svc.Export(c.Request.Context())
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, entries)
		return
	}

	filename := fmt.Sprintf("queue-export-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportColumns)
	for _, e := range entries {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.QueueID,
			e.Name,
			e.StudentID,
			e.Email,
			e.Phone,
			e.Questions,
			string(e.Status),
			e.JoinedAt.Format(time.RFC3339),
			formatOptional(e.DeferredUntil),
			formatOptional(e.CompletedAt),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.WithError(err).Warn("csv export interrupted")
	}
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Complete godoc
// @Summary		Complete
// @Description	Marks an active entry as served; it stays in the store for export
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Entry id"
// @Success		200	{object}	models.QueueEntry
// @Failure		404	{object}	response.ErrorResponse	"NOT_FOUND"
// @Failure		409	{object}	response.ErrorResponse	"Already terminal (CONFLICT)"
// @Router			/api/admin/entries/{id}/complete [post]
func (h *AdminHandler) Complete(c *gin.Context) {
	h.mutate(c, h.svc.Complete)
}

// Notify godoc
// @Summary		Call next
// @Description	Moves a waiting or deferred entry to notified
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Entry id"
// @Success		200	{object}	models.QueueEntry
// @Failure		409	{object}	response.ErrorResponse	"CONFLICT"
// @Router			/api/admin/entries/{id}/notify [post]
func (h *AdminHandler) Notify(c *gin.Context) {
	h.mutate(c, h.svc.Notify)
}

// Delete godoc
// @Summary		Delete
// @Description	Removes an active entry outright
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Entry id"
// @Success		200	{object}	models.QueueEntry
// @Failure		409	{object}	response.ErrorResponse	"Entry is terminal (CONFLICT)"
// @Router			/api/admin/entries/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	h.mutate(c, h.svc.Delete)
}

func (h *AdminHandler) mutate(c *gin.Context, op func(context.Context, uint) (*models.QueueEntry, error)) {
	id, err := entryID(c)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	entry, err := op(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"entry_id": id,
		"admin":    c.GetString(constant.AdminEmailKey),
		"path":     c.FullPath(),
	}).Info("admin action")
	c.JSON(http.StatusOK, entry)
}

// MarkNoShow godoc
// @Summary		Flag no-show
// @Description	Starts the grace window after which the entry becomes no-show. Flagging twice keeps the first window. immediate=true skips the window.
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id			path		int		true	"Entry id"
// @Param			immediate	query		bool	false	"Mark without a grace window"
// @Success		202			{object}	NoShowResponse
// @Success		200			{object}	models.QueueEntry
// @Failure		409			{object}	response.ErrorResponse	"Entry is terminal (CONFLICT)"
// @Router			/api/admin/entries/{id}/noshow [post]
func (h *AdminHandler) MarkNoShow(c *gin.Context) {
	if immediate, _ := strconv.ParseBool(c.Query("immediate")); immediate {
		h.mutate(c, h.svc.MarkNoShowNow)
		return
	}

	id, err := entryID(c)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	flag, err := h.svc.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, NoShowResponse{
		EntryID:        flag.EntryID,
		Deadline:       flag.Deadline,
		Position:       flag.Position,
		AlreadyPending: flag.AlreadyPending,
	})
}

// CancelNoShow godoc
// @Summary		Cancel no-show
// @Description	Discards the pending grace timer. cancelled=false means there was none left to cancel.
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Entry id"
// @Success		200	{object}	CancelNoShowResponse
// @Failure		404	{object}	response.ErrorResponse	"NOT_FOUND"
// @Router			/api/admin/entries/{id}/noshow [delete]
func (h *AdminHandler) CancelNoShow(c *gin.Context) {
	id, err := entryID(c)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	cancelled, err := h.svc.CancelNoShow(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CancelNoShowResponse{EntryID: id, Cancelled: cancelled})
}
