package queue

import (
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"

	"github.com/pkg/errors"
)

// transitions lists the legal target statuses of every active status. Terminal
// statuses have no entry, so nothing leaves them.
var transitions = map[models.Status][]models.Status{
	models.StatusWaiting:  {models.StatusDeferred, models.StatusNotified, models.StatusCompleted, models.StatusNoShow},
	models.StatusDeferred: {models.StatusWaiting, models.StatusDeferred, models.StatusNotified, models.StatusCompleted, models.StatusNoShow},
	models.StatusNotified: {models.StatusCompleted, models.StatusNoShow},
}

func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// apply moves e to status to, keeping the temporal fields in step with it.
func apply(e *models.QueueEntry, to models.Status, now time.Time) error {
	if !CanTransition(e.Status, to) {
		return errors.Wrapf(constant.ErrInvalidTransition, "entry %d: %s -> %s", e.ID, e.Status, to)
	}
	e.Status = to
	if to != models.StatusDeferred {
		e.DeferredUntil = nil
	}
	if to == models.StatusCompleted {
		e.CompletedAt = &now
	}
	return nil
}
