package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"
	"advising_queue/internal/storage"
	"advising_queue/internal/storage/storagetest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func newEntry(email string, joined time.Time) *models.QueueEntry {
	return &models.QueueEntry{
		QueueID:   "general-advising",
		Email:     email,
		StudentID: "217100",
		Name:      "Student " + email,
		Status:    models.StatusWaiting,
		JoinedAt:  joined,
	}
}

func TestInsertAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	a := newEntry("a@my.yorku.ca", t0)
	b := newEntry("b@my.yorku.ca", t0.Add(time.Second))
	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))
	assert.Less(t, a.ID, b.ID)

	got, err := s.FindOne(ctx, "b@my.yorku.ca", "general-advising")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.True(t, got.JoinedAt.Equal(b.JoinedAt))
}

func TestInsertRejectsSecondActiveEntry(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	first := newEntry("a@my.yorku.ca", t0)
	require.NoError(t, s.Insert(ctx, first))

	err := s.Insert(ctx, newEntry("a@my.yorku.ca", t0.Add(time.Minute)))
	assert.True(t, errors.Is(err, constant.ErrDuplicateEntry), "got %v", err)

	// a different queue is fine
	other := newEntry("a@my.yorku.ca", t0.Add(time.Minute))
	other.QueueID = "career-services"
	require.NoError(t, s.Insert(ctx, other))

	// once the first entry is terminal the student may rejoin
	_, err = s.UpdateByID(ctx, first.ID, func(e *models.QueueEntry) error {
		now := t0.Add(2 * time.Minute)
		e.Status = models.StatusCompleted
		e.CompletedAt = &now
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, newEntry("a@my.yorku.ca", t0.Add(3*time.Minute))))
}

func TestInsertValidates(t *testing.T) {
	s := storage.NewEntryStore(storagetest.OpenMemory(t))
	bad := newEntry("a@my.yorku.ca", t0)
	bad.QueueID = ""
	err := s.Insert(context.Background(), bad)
	assert.True(t, errors.Is(err, constant.ErrValidation), "got %v", err)
}

func TestConcurrentInsertsKeepOneActive(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Insert(ctx, newEntry("race@my.yorku.ca", t0.Add(time.Duration(i)*time.Millisecond)))
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, constant.ErrDuplicateEntry), "got %v", err)
	}
	assert.Equal(t, 1, ok)

	active, err := s.Find(ctx, "general-advising", models.ActiveStatuses...)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUpdateByIDAbortsOnMutateError(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))
	e := newEntry("a@my.yorku.ca", t0)
	require.NoError(t, s.Insert(ctx, e))

	_, err := s.UpdateByID(ctx, e.ID, func(*models.QueueEntry) error { return constant.ErrInvalidTransition })
	assert.True(t, errors.Is(err, constant.ErrInvalidTransition))

	got, err := s.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, got.Status)
	assert.Equal(t, 0, got.Version)
}

func TestUpdateByIDKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))
	e := newEntry("a@my.yorku.ca", t0)
	require.NoError(t, s.Insert(ctx, e))

	until := t0.Add(15 * time.Minute)
	updated, err := s.UpdateByID(ctx, e.ID, func(x *models.QueueEntry) error {
		x.QueueID = "elsewhere"
		x.JoinedAt = t0.Add(time.Hour)
		x.Status = models.StatusDeferred
		x.DeferredUntil = &until
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "general-advising", updated.QueueID)
	assert.True(t, updated.JoinedAt.Equal(t0))
	assert.Equal(t, 1, updated.Version)

	got, err := s.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeferred, got.Status)
	require.NotNil(t, got.DeferredUntil)
	assert.True(t, got.DeferredUntil.Equal(until))
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))
	e := newEntry("a@my.yorku.ca", t0)
	require.NoError(t, s.Insert(ctx, e))

	complete := func(x *models.QueueEntry) error {
		if !x.Status.IsActive() {
			return constant.ErrInvalidTransition
		}
		now := t0.Add(time.Minute)
		x.Status = models.StatusCompleted
		x.CompletedAt = &now
		return nil
	}

	var wg sync.WaitGroup
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateByID(ctx, e.ID, complete)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))
	e := newEntry("a@my.yorku.ca", t0)
	require.NoError(t, s.Insert(ctx, e))

	_, err := s.DeleteByID(ctx, e.ID, func(*models.QueueEntry) error { return constant.ErrInvalidTransition })
	assert.True(t, errors.Is(err, constant.ErrInvalidTransition))

	deleted, err := s.DeleteByID(ctx, e.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, e.ID, deleted.ID)

	_, err = s.FindByID(ctx, e.ID)
	assert.True(t, errors.Is(err, constant.ErrNotFound))

	_, err = s.DeleteByID(ctx, e.ID, nil)
	assert.True(t, errors.Is(err, constant.ErrNotFound))
}

func TestFindSinceAndPurge(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	old := newEntry("old@my.yorku.ca", t0.Add(-48*time.Hour))
	old.Status = models.StatusNoShow
	today := newEntry("today@my.yorku.ca", t0)
	require.NoError(t, s.Insert(ctx, old))
	require.NoError(t, s.Insert(ctx, today))

	since, err := s.FindSince(ctx, t0.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, today.ID, since[0].ID)

	n, err := s.DeleteTerminalBefore(ctx, t0.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := s.Find(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFindExpiredDeferrals(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	for i, minutes := range []int{5, 30} {
		e := newEntry([]string{"a@my.yorku.ca", "b@my.yorku.ca"}[i], t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.Insert(ctx, e))
		until := t0.Add(time.Duration(minutes) * time.Minute)
		_, err := s.UpdateByID(ctx, e.ID, func(x *models.QueueEntry) error {
			x.Status = models.StatusDeferred
			x.DeferredUntil = &until
			return nil
		})
		require.NoError(t, err)
	}

	expired, err := s.FindExpiredDeferrals(ctx, t0.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "a@my.yorku.ca", expired[0].Email)

	n, err := s.CountActive(ctx, "general-advising")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	mine, err := s.FindActiveByEmail(ctx, "b@my.yorku.ca")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestActiveEntriesAreKeyedByQueueAndEmail(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	slashed := newEntry("b/c@x.ca", t0)
	slashed.QueueID = "a"
	require.NoError(t, s.Insert(ctx, slashed))

	plain := newEntry("c@x.ca", t0.Add(time.Second))
	plain.QueueID = "a-b"
	require.NoError(t, s.Insert(ctx, plain))

	got, err := s.FindOne(ctx, "b/c@x.ca", "a")
	require.NoError(t, err)
	assert.Equal(t, slashed.ID, got.ID)

	_, err = s.FindOne(ctx, "c@x.ca", "a")
	assert.True(t, errors.Is(err, constant.ErrNotFound), "got %v", err)

	bad := newEntry("c@x.ca", t0)
	bad.QueueID = "a/b"
	err = s.Insert(ctx, bad)
	assert.True(t, errors.Is(err, constant.ErrValidation), "got %v", err)
}

func TestTimesCompareAcrossZones(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	toronto := time.FixedZone("EDT", -4*3600)
	joined := time.Date(2026, 10, 16, 10, 0, 0, 0, toronto) // 14:00Z
	done := joined.Add(10 * time.Minute)
	e := newEntry("a@my.yorku.ca", joined)
	e.Status = models.StatusCompleted
	e.CompletedAt = &done
	require.NoError(t, s.Insert(ctx, e))

	found, err := s.FindSince(ctx, time.Date(2026, 10, 16, 13, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, found, 1)

	n, err := s.DeleteTerminalBefore(ctx, time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteTerminalBefore(ctx, joined.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExpiredDeferralsAcrossZones(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEntryStore(storagetest.OpenMemory(t))

	toronto := time.FixedZone("EDT", -4*3600)
	e := newEntry("a@my.yorku.ca", t0)
	require.NoError(t, s.Insert(ctx, e))
	_, err := s.UpdateByID(ctx, e.ID, func(e *models.QueueEntry) error {
		until := time.Date(2026, 10, 16, 11, 0, 0, 0, toronto) // 15:00Z
		e.Status = models.StatusDeferred
		e.DeferredUntil = &until
		return nil
	})
	require.NoError(t, err)

	expired, err := s.FindExpiredDeferrals(ctx, time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, expired)

	expired, err = s.FindExpiredDeferrals(ctx, time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}
