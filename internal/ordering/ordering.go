// Package ordering ranks the active entries of one queue.
//
// Everything here is a pure function of the entries passed in. Nothing is cached, so a
// caller that reads the active set from the store and ranks it immediately always sees a
// position consistent with that read.
package ordering

import (
	"sort"
	"time"

	"advising_queue/internal/models"
)

// Ranked is an active entry together with its place in line.
type Ranked struct {
	Entry         models.QueueEntry
	Position      int
	EstimatedWait time.Duration
}

// Less reports whether a is ahead of b: earlier JoinedAt first, then lower store id.
// Deferral does not change either field, so a deferred entry keeps its place.
func Less(a, b models.QueueEntry) bool {
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return a.ID < b.ID
}

// Order returns the active entries sorted by Less. Inactive entries are dropped and the
// input slice is left untouched.
func Order(entries []models.QueueEntry) []models.QueueEntry {
	active := make([]models.QueueEntry, 0, len(entries))
	for _, e := range entries {
		if e.Status.IsActive() {
			active = append(active, e)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return Less(active[i], active[j]) })
	return active
}

// Position is 1 plus the number of active entries strictly ahead of target.
// target itself does not need to be in entries.
func Position(entries []models.QueueEntry, target models.QueueEntry) int {
	pos := 1
	for _, e := range entries {
		if e.ID == target.ID || !e.Status.IsActive() {
			continue
		}
		if Less(e, target) {
			pos++
		}
	}
	return pos
}

// EstimatedWait is (position-1) * averageService, and zero for the head of the line.
func EstimatedWait(position int, averageService time.Duration) time.Duration {
	if position <= 1 {
		return 0
	}
	return time.Duration(position-1) * averageService
}

// Rank orders the active entries and attaches position and estimated wait to each.
func Rank(entries []models.QueueEntry, averageService time.Duration) []Ranked {
	ordered := Order(entries)
	ranked := make([]Ranked, len(ordered))
	for i, e := range ordered {
		ranked[i] = Ranked{
			Entry:         e,
			Position:      i + 1,
			EstimatedWait: EstimatedWait(i+1, averageService),
		}
	}
	return ranked
}
