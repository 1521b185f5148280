package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Queue is descriptive metadata for one service queue. The ordering engine never mutates it.
type Queue struct {
	ID                 string    `gorm:"primaryKey;size:64" json:"id"`
	Name               string    `gorm:"not null" json:"name"`
	Description        string    `json:"description"`
	IsActive           bool      `json:"isActive"`
	MaxCapacity        int       `json:"maxCapacity"`        // 0 means unlimited
	AverageServiceTime int       `json:"averageServiceTime"` // minutes
	OpenTime           string    `gorm:"size:5" json:"openTime"`  // "15:04"
	CloseTime          string    `gorm:"size:5" json:"closeTime"` // "15:04"
	AdminEmails        string    `json:"adminEmails"`             // comma separated, e.g. "a@yorku.ca,b@yorku.ca"
	AllowDefer         bool      `json:"allowDefer"`
	MaxDeferMinutes    int       `json:"maxDeferMinutes"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

const (
	DefaultMaxCapacity        = 50
	DefaultAverageServiceTime = 10
	DefaultOpenTime           = "09:00"
	DefaultCloseTime          = "20:00"
	DefaultMaxDeferMinutes    = 60
)

// DefaultQueue describes a queue that has no catalog row.
func DefaultQueue(id string) Queue {
	return Queue{
		ID:                 id,
		Name:               "Academic Queue",
		Description:        "Academic advising and support services.",
		IsActive:           true,
		MaxCapacity:        DefaultMaxCapacity,
		AverageServiceTime: DefaultAverageServiceTime,
		OpenTime:           DefaultOpenTime,
		CloseTime:          DefaultCloseTime,
		AllowDefer:         true,
		MaxDeferMinutes:    DefaultMaxDeferMinutes,
	}
}

// SeedQueues is the catalog installed by the migrate command.
func SeedQueues() []Queue {
	seed := []struct{ id, name, description string }{
		{"academic-advising", "Academic Advising", "Get help with course selection, degree planning, and academic requirements."},
		{"career-services", "Career Services", "Resume review, job search assistance, and career planning."},
		{"financial-aid", "Financial Aid", "Questions about scholarships, loans, and financial assistance."},
		{"general-advising", "General Academic Advising", "Get help with course selection, degree planning, and academic requirements."},
	}
	queues := make([]Queue, 0, len(seed))
	for _, s := range seed {
		q := DefaultQueue(s.id)
		q.Name = s.name
		q.Description = s.description
		queues = append(queues, q)
	}
	return queues
}

func (q Queue) AverageService() time.Duration {
	return time.Duration(q.AverageServiceTime) * time.Minute
}

func (q Queue) Admins() []string {
	var out []string
	for _, e := range strings.Split(q.AdminEmails, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// OpeningTime is the opening instant on the calendar day of now, in now's location.
func (q Queue) OpeningTime(now time.Time) (time.Time, error) {
	return clockOn(now, q.OpenTime)
}

// ClosingTime is the closing instant on the calendar day of now, in now's location.
func (q Queue) ClosingTime(now time.Time) (time.Time, error) {
	return clockOn(now, q.CloseTime)
}

func (q Queue) IsOpenAt(now time.Time) bool {
	if !q.IsActive {
		return false
	}
	opens, err := q.OpeningTime(now)
	if err != nil {
		return false
	}
	closes, err := q.ClosingTime(now)
	if err != nil {
		return false
	}
	return !now.Before(opens) && now.Before(closes)
}

func clockOn(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bad clock time %q", hhmm)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
