package models

import (
	"regexp"
	"strings"
	"time"

	"advising_queue/internal/constant"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusDeferred  Status = "deferred"
	StatusNotified  Status = "notified"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
)

// ActiveStatuses count toward position and capacity.
var ActiveStatuses = []Status{StatusWaiting, StatusDeferred, StatusNotified}

func (s Status) IsActive() bool {
	return s == StatusWaiting || s == StatusDeferred || s == StatusNotified
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusNoShow
}

func (s Status) Valid() bool {
	return s.IsActive() || s.IsTerminal()
}

// QueueEntry is one student's occupancy of one queue.
type QueueEntry struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	QueueID   string `gorm:"size:64;index:idx_entries_queue_status;uniqueIndex:idx_entries_active_student,priority:1;not null" json:"queueId"`
	Email     string `gorm:"index;uniqueIndex:idx_entries_active_student,priority:2;not null" json:"email"`
	StudentID string `gorm:"not null" json:"studentId"`
	Name      string `gorm:"not null" json:"name"`
	Phone     string `json:"phone,omitempty"`
	Questions string `json:"questions,omitempty"`
	Status    Status `gorm:"size:16;index:idx_entries_queue_status;not null" json:"status"`
	// Active is true while the entry is active and NULL once terminal. NULLs never
	// collide in a unique index, so (queue_id, email, active) admits one active entry.
	Active        *bool      `gorm:"uniqueIndex:idx_entries_active_student,priority:3" json:"-"`
	JoinedAt      time.Time  `gorm:"index;not null" json:"joinedAt"`
	DeferredUntil *time.Time `json:"deferredUntil,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	// Version guards read-modify-write cycles in the store.
	Version   int       `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var queueIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidQueueID reports whether id is a lowercase slug such as "general-advising".
func ValidQueueID(id string) bool {
	return queueIDPattern.MatchString(id)
}

// ActiveFlag is the value stored in Active for status s.
func ActiveFlag(s Status) *bool {
	if !s.IsActive() {
		return nil
	}
	active := true
	return &active
}

// Normalize stores every instant in UTC so the database compares them consistently.
func (e *QueueEntry) Normalize() {
	e.JoinedAt = e.JoinedAt.UTC()
	e.DeferredUntil = utcPtr(e.DeferredUntil)
	e.CompletedAt = utcPtr(e.CompletedAt)
	e.Active = ActiveFlag(e.Status)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Validate checks the record invariants before it reaches the database.
func (e *QueueEntry) Validate() error {
	var missing []string
	if strings.TrimSpace(e.QueueID) == "" {
		missing = append(missing, "queueId")
	}
	if strings.TrimSpace(e.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(e.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(e.StudentID) == "" {
		missing = append(missing, "studentId")
	}
	if len(missing) > 0 {
		return errors.Wrapf(constant.ErrValidation, "missing %s", strings.Join(missing, ", "))
	}
	if !ValidQueueID(e.QueueID) {
		return errors.Wrapf(constant.ErrValidation, "bad queueId %q", e.QueueID)
	}
	if !e.Status.Valid() {
		return errors.Wrapf(constant.ErrValidation, "unknown status %q", e.Status)
	}
	if (e.CompletedAt != nil) != (e.Status == StatusCompleted) {
		return errors.Wrap(constant.ErrValidation, "completedAt must be set exactly when completed")
	}
	if e.DeferredUntil != nil && e.Status != StatusDeferred {
		return errors.Wrap(constant.ErrValidation, "deferredUntil is only valid while deferred")
	}
	if e.JoinedAt.IsZero() {
		return errors.Wrap(constant.ErrValidation, "joinedAt is required")
	}
	return nil
}

// BeforeCreate runs Validate and normalizes the row.
func (e *QueueEntry) BeforeCreate(tx *gorm.DB) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Normalize()
	return nil
}
