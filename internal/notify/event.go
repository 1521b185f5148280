// Package notify publishes queue changes to subscribers.
//
// The default message is a refresh signal: it names the queue that changed and nothing
// else, and the subscriber re-reads the authoritative state. Targeted messages carry a
// complete entry payload and are only sent when enabled.
package notify

import (
	"time"

	"advising_queue/internal/models"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRefresh      Kind = "queue-refresh"
	KindEntryAdded   Kind = "queue-added"
	KindEntryRemoved Kind = "queue-deleted"
)

type Event struct {
	ID      string        `json:"id"`
	Kind    Kind          `json:"kind"`
	QueueID string        `json:"queueId,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	Entry   *EntryPayload `json:"entry,omitempty"`
	At      time.Time     `json:"at"`
}

// EntryPayload is the full public view of an entry, so a targeted event never leaves
// a subscriber guessing at fields.
type EntryPayload struct {
	ID            uint          `json:"id"`
	QueueID       string        `json:"queueId"`
	Name          string        `json:"name"`
	StudentID     string        `json:"studentId"`
	Email         string        `json:"email"`
	Status        models.Status `json:"status"`
	JoinedAt      time.Time     `json:"joinedAt"`
	DeferredUntil *time.Time    `json:"deferredUntil,omitempty"`
}

func PayloadOf(e models.QueueEntry) *EntryPayload {
	return &EntryPayload{
		ID:            e.ID,
		QueueID:       e.QueueID,
		Name:          e.Name,
		StudentID:     e.StudentID,
		Email:         e.Email,
		Status:        e.Status,
		JoinedAt:      e.JoinedAt,
		DeferredUntil: e.DeferredUntil,
	}
}

// Refresh builds a refresh signal. An empty queueID means "something changed somewhere".
func Refresh(queueID, reason string) Event {
	return Event{ID: uuid.NewString(), Kind: KindRefresh, QueueID: queueID, Reason: reason, At: time.Now()}
}

func Targeted(kind Kind, entry models.QueueEntry) Event {
	return Event{ID: uuid.NewString(), Kind: kind, QueueID: entry.QueueID, Entry: PayloadOf(entry), At: time.Now()}
}
