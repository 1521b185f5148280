package storage

import (
	"context"
	"strings"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// EntryStore persists queue entries. Every mutation of an existing row is a
// compare-and-set on its version column, so concurrent transitions on one entry
// can never interleave into an inconsistent end state.
type EntryStore struct {
	db *gorm.DB
}

func NewEntryStore(db *gorm.DB) *EntryStore {
	return &EntryStore{db: db}
}

// Find lists entries of one queue (all queues when queueID is empty) whose status is in statuses
// (any status when none are given), oldest first.
func (s *EntryStore) Find(ctx context.Context, queueID string, statuses ...models.Status) ([]models.QueueEntry, error) {
	q := s.db.WithContext(ctx).Order("joined_at ASC, id ASC")
	if queueID != "" {
		q = q.Where("queue_id = ?", queueID)
	}
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var entries []models.QueueEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, infra(err, "find entries")
	}
	return entries, nil
}

// FindOne returns the active entry of email in queueID.
func (s *EntryStore) FindOne(ctx context.Context, email, queueID string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.WithContext(ctx).
		Where("queue_id = ? AND email = ? AND status IN ?", queueID, email, models.ActiveStatuses).
		First(&entry).Error
	if err != nil {
		return nil, notFoundOrInfra(err, "find active entry")
	}
	return &entry, nil
}

// FindActiveByEmail lists the active entries of one student across all queues.
func (s *EntryStore) FindActiveByEmail(ctx context.Context, email string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.WithContext(ctx).
		Where("email = ? AND status IN ?", email, models.ActiveStatuses).
		Order("joined_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, infra(err, "find entries by email")
	}
	return entries, nil
}

func (s *EntryStore) FindByID(ctx context.Context, id uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, notFoundOrInfra(err, "find entry")
	}
	return &entry, nil
}

// FindSince lists every entry that joined at or after t, oldest first.
func (s *EntryStore) FindSince(ctx context.Context, t time.Time) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.WithContext(ctx).
		Where("joined_at >= ?", t.UTC()).
		Order("joined_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, infra(err, "find entries since")
	}
	return entries, nil
}

// FindExpiredDeferrals lists deferred entries whose deferral ended at or before t.
func (s *EntryStore) FindExpiredDeferrals(ctx context.Context, t time.Time) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.WithContext(ctx).
		Where("status = ? AND deferred_until <= ?", models.StatusDeferred, t.UTC()).
		Order("joined_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, infra(err, "find expired deferrals")
	}
	return entries, nil
}

func (s *EntryStore) CountActive(ctx context.Context, queueID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("queue_id = ? AND status IN ?", queueID, models.ActiveStatuses).
		Count(&n).Error
	if err != nil {
		return 0, infra(err, "count active entries")
	}
	return n, nil
}

// Insert stores a new entry. A second active entry for the same student and queue
// fails with constant.ErrDuplicateEntry.
func (s *EntryStore) Insert(ctx context.Context, entry *models.QueueEntry) error {
	err := s.db.WithContext(ctx).Create(entry).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, constant.ErrValidation):
		return err
	case isDuplicate(err):
		return errors.Wrapf(constant.ErrDuplicateEntry, "%s in %s", entry.Email, entry.QueueID)
	}
	return infra(err, "insert entry")
}

// UpdateByID loads the entry, lets mutate change it, and writes it back only if nobody
// else wrote in between. Lost races are retried a few times before giving up with
// constant.ErrStaleEntry. An error from mutate aborts without writing.
func (s *EntryStore) UpdateByID(ctx context.Context, id uint, mutate func(*models.QueueEntry) error) (*models.QueueEntry, error) {
	for attempt := 0; attempt < constant.StoreUpdateRetries; attempt++ {
		current, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		next := *current
		if err := mutate(&next); err != nil {
			return nil, err
		}
		next.ID, next.QueueID, next.Email, next.JoinedAt = current.ID, current.QueueID, current.Email, current.JoinedAt
		if err := next.Validate(); err != nil {
			return nil, err
		}
		next.Version = current.Version + 1
		next.Normalize()
		next.UpdatedAt = time.Now().UTC()

		res := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
			Where("id = ? AND version = ?", id, current.Version).
			Updates(map[string]interface{}{
				"status":         next.Status,
				"deferred_until": next.DeferredUntil,
				"completed_at":   next.CompletedAt,
				"active":         next.Active,
				"version":        next.Version,
				"updated_at":     next.UpdatedAt,
			})
		if res.Error != nil {
			if isDuplicate(res.Error) {
				return nil, errors.Wrapf(constant.ErrDuplicateEntry, "entry %d", id)
			}
			return nil, infra(res.Error, "update entry")
		}
		if res.RowsAffected == 1 {
			return &next, nil
		}
	}
	return nil, errors.Wrapf(constant.ErrStaleEntry, "entry %d", id)
}

// DeleteByID hard-deletes the entry if check accepts it and it was not modified meanwhile.
func (s *EntryStore) DeleteByID(ctx context.Context, id uint, check func(*models.QueueEntry) error) (*models.QueueEntry, error) {
	for attempt := 0; attempt < constant.StoreUpdateRetries; attempt++ {
		current, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(current); err != nil {
				return nil, err
			}
		}

		res := s.db.WithContext(ctx).
			Where("id = ? AND version = ?", id, current.Version).
			Delete(&models.QueueEntry{})
		if res.Error != nil {
			return nil, infra(res.Error, "delete entry")
		}
		if res.RowsAffected == 1 {
			return current, nil
		}
	}
	return nil, errors.Wrapf(constant.ErrStaleEntry, "entry %d", id)
}

// DeleteTerminalBefore hard-deletes completed and no-show entries that joined before t.
func (s *EntryStore) DeleteTerminalBefore(ctx context.Context, t time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status IN ? AND joined_at < ?", []models.Status{models.StatusCompleted, models.StatusNoShow}, t.UTC()).
		Delete(&models.QueueEntry{})
	if res.Error != nil {
		return 0, infra(res.Error, "purge entries")
	}
	return res.RowsAffected, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func notFoundOrInfra(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(constant.ErrNotFound, op)
	}
	return infra(err, op)
}

func infra(err error, op string) error {
	return errors.Wrapf(constant.ErrInfra, "storage : %s: %v", op, err)
}
