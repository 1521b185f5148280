// Package queue holds the entry lifecycle: joining, position queries, deferral, leaving
// and the staff transitions, each followed by a change notification.
package queue

import (
	"context"
	"sort"
	"strings"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"
	"advising_queue/internal/ordering"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type EntryStore interface {
	Find(ctx context.Context, queueID string, statuses ...models.Status) ([]models.QueueEntry, error)
	FindOne(ctx context.Context, email, queueID string) (*models.QueueEntry, error)
	FindActiveByEmail(ctx context.Context, email string) ([]models.QueueEntry, error)
	FindByID(ctx context.Context, id uint) (*models.QueueEntry, error)
	FindSince(ctx context.Context, t time.Time) ([]models.QueueEntry, error)
	FindExpiredDeferrals(ctx context.Context, t time.Time) ([]models.QueueEntry, error)
	CountActive(ctx context.Context, queueID string) (int64, error)
	Insert(ctx context.Context, entry *models.QueueEntry) error
	UpdateByID(ctx context.Context, id uint, mutate func(*models.QueueEntry) error) (*models.QueueEntry, error)
	DeleteByID(ctx context.Context, id uint, check func(*models.QueueEntry) error) (*models.QueueEntry, error)
	DeleteTerminalBefore(ctx context.Context, t time.Time) (int64, error)
}

type Catalog interface {
	Get(ctx context.Context, id string) (models.Queue, error)
	List(ctx context.Context) ([]models.Queue, error)
}

type Notifier interface {
	EntryAdded(ctx context.Context, entry models.QueueEntry) error
	EntryRemoved(ctx context.Context, entry models.QueueEntry) error
	QueueChanged(ctx context.Context, queueID, reason string) error
}

type Timers interface {
	Schedule(id uint, fire func()) (time.Time, bool)
	Cancel(id uint) bool
	Deadline(id uint) (time.Time, bool)
}

// expiryTimeout bounds the store work of a no-show timer firing outside any request.
const expiryTimeout = 10 * time.Second

type Service struct {
	store    EntryStore
	catalog  Catalog
	notifier Notifier
	timers   Timers
	logger   *logrus.Logger

	defaultQueueID string
	emailDomain    string
	location       *time.Location
	clock          func() time.Time
	onTransition   func(queueID string, to models.Status)
}

type Option func(*Service)

// WithDefaults sets the queue used when a join names none, and the domain used to derive
// an email from a student id.
func WithDefaults(queueID, emailDomain string) Option {
	return func(s *Service) { s.defaultQueueID, s.emailDomain = queueID, emailDomain }
}

// WithLocation sets the zone that opening hours and "today" are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithTransitionObserver is told about every status an entry enters.
func WithTransitionObserver(fn func(queueID string, to models.Status)) Option {
	return func(s *Service) { s.onTransition = fn }
}

func NewService(store EntryStore, catalog Catalog, notifier Notifier, timers Timers, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		store:          store,
		catalog:        catalog,
		notifier:       notifier,
		timers:         timers,
		logger:         logger,
		defaultQueueID: "general-advising",
		location:       time.Local,
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().In(s.location)
}

type JoinRequest struct {
	QueueID   string `json:"queueId"`
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Questions string `json:"questions"`
}

// Join creates a waiting entry for the student. The queue must be open and below
// capacity, and the student must not already hold an active entry in it.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*models.QueueEntry, error) {
	now := s.now()
	entry := &models.QueueEntry{
		QueueID:   strings.ToLower(strings.TrimSpace(req.QueueID)),
		Name:      strings.TrimSpace(req.Name),
		StudentID: strings.TrimSpace(req.StudentID),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Questions: strings.TrimSpace(req.Questions),
		Status:    models.StatusWaiting,
		JoinedAt:  now,
	}
	if entry.QueueID == "" {
		entry.QueueID = s.defaultQueueID
	}
	if entry.Email == "" && entry.StudentID != "" && s.emailDomain != "" {
		entry.Email = strings.ToLower(entry.StudentID) + "@" + s.emailDomain
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	q, err := s.catalog.Get(ctx, entry.QueueID)
	if err != nil {
		return nil, err
	}
	if !q.IsOpenAt(now) {
		return nil, errors.Wrapf(constant.ErrQueueClosed, "%s opens %s-%s", q.ID, q.OpenTime, q.CloseTime)
	}
	if q.MaxCapacity > 0 {
		active, err := s.store.CountActive(ctx, entry.QueueID)
		if err != nil {
			return nil, err
		}
		if active >= int64(q.MaxCapacity) {
			return nil, errors.Wrapf(constant.ErrQueueFull, "%s holds %d", q.ID, active)
		}
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, err
	}
	s.observe(entry.QueueID, entry.Status)
	s.logger.WithFields(logrus.Fields{"queue_id": entry.QueueID, "entry_id": entry.ID}).Info("student joined queue")

	s.publish(ctx, func(ctx context.Context) error { return s.notifier.EntryAdded(ctx, *entry) })
	return entry, nil
}

// EntryStatus is an entry together with its rank, derived fresh from the store.
type EntryStatus struct {
	Entry          models.QueueEntry
	Queue          models.Queue
	Position       int
	EstimatedWait  time.Duration
	NoShowDeadline *time.Time
}

// Status reports the active entry of email in queueID with its current position.
func (s *Service) Status(ctx context.Context, queueID, email string) (*EntryStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.Wrap(constant.ErrValidation, "missing studentEmail")
	}
	entry, err := s.store.FindOne(ctx, email, queueID)
	if err != nil {
		return nil, err
	}
	return s.statusOf(ctx, *entry)
}

// Mine reports every active entry of email across all queues.
func (s *Service) Mine(ctx context.Context, email string) ([]EntryStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.Wrap(constant.ErrValidation, "missing studentEmail")
	}
	entries, err := s.store.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	out := make([]EntryStatus, 0, len(entries))
	for _, e := range entries {
		st, err := s.statusOf(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}

func (s *Service) statusOf(ctx context.Context, entry models.QueueEntry) (*EntryStatus, error) {
	active, err := s.store.Find(ctx, entry.QueueID, models.ActiveStatuses...)
	if err != nil {
		return nil, err
	}
	q, err := s.catalog.Get(ctx, entry.QueueID)
	if err != nil {
		return nil, err
	}
	pos := ordering.Position(active, entry)
	st := &EntryStatus{
		Entry:         entry,
		Queue:         q,
		Position:      pos,
		EstimatedWait: ordering.EstimatedWait(pos, q.AverageService()),
	}
	if deadline, ok := s.timers.Deadline(entry.ID); ok {
		st.NoShowDeadline = &deadline
	}
	return st, nil
}

// ListActive ranks the active entries of queueID, or of every queue when queueID is empty.
// Ranks are per queue; the result is grouped by queue id.
func (s *Service) ListActive(ctx context.Context, queueID string) ([]ordering.Ranked, error) {
	entries, err := s.store.Find(ctx, queueID, models.ActiveStatuses...)
	if err != nil {
		return nil, err
	}

	byQueue := make(map[string][]models.QueueEntry)
	var ids []string
	for _, e := range entries {
		if _, ok := byQueue[e.QueueID]; !ok {
			ids = append(ids, e.QueueID)
		}
		byQueue[e.QueueID] = append(byQueue[e.QueueID], e)
	}
	sort.Strings(ids)

	ranked := make([]ordering.Ranked, 0, len(entries))
	for _, id := range ids {
		q, err := s.catalog.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, ordering.Rank(byQueue[id], q.AverageService())...)
	}
	return ranked, nil
}

// QueueSummary describes a catalog queue as a prospective joiner sees it.
type QueueSummary struct {
	Queue         models.Queue
	IsOpen        bool
	ActiveCount   int64
	EstimatedWait time.Duration
}

func (s *Service) ListQueues(ctx context.Context) ([]QueueSummary, error) {
	queues, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]QueueSummary, 0, len(queues))
	for _, q := range queues {
		n, err := s.store.CountActive(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, QueueSummary{
			Queue:         q,
			IsOpen:        q.IsOpenAt(now),
			ActiveCount:   n,
			EstimatedWait: ordering.EstimatedWait(int(n)+1, q.AverageService()),
		})
	}
	return out, nil
}

// Defer postpones the student's entry by minutes without changing its place in line.
// A deferral running past the queue's closing time fails with constant.ErrPastClosing;
// the caller decides whether to offer leaving instead.
func (s *Service) Defer(ctx context.Context, queueID, email string, minutes int) (*models.QueueEntry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.Wrap(constant.ErrValidation, "missing studentEmail")
	}
	if minutes <= 0 {
		return nil, errors.Wrapf(constant.ErrValidation, "deferMinutes must be positive, got %d", minutes)
	}

	q, err := s.catalog.Get(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if !q.AllowDefer {
		return nil, errors.Wrap(constant.ErrDeferNotAllowed, q.ID)
	}
	if q.MaxDeferMinutes > 0 && minutes > q.MaxDeferMinutes {
		return nil, errors.Wrapf(constant.ErrValidation, "deferMinutes exceeds %d", q.MaxDeferMinutes)
	}

	entry, err := s.store.FindOne(ctx, email, queueID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	until := now.Add(time.Duration(minutes) * time.Minute)
	closes, err := q.ClosingTime(now)
	if err != nil {
		return nil, err
	}
	if until.After(closes) {
		return nil, errors.Wrapf(constant.ErrPastClosing, "%s closes at %s", q.ID, q.CloseTime)
	}

	updated, err := s.transition(ctx, entry.ID, models.StatusDeferred, func(e *models.QueueEntry) error {
		e.DeferredUntil = &until
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, func(ctx context.Context) error {
		return s.notifier.QueueChanged(ctx, updated.QueueID, "entry deferred")
	})
	return updated, nil
}

// Leave deletes the student's active entry outright.
func (s *Service) Leave(ctx context.Context, queueID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.Wrap(constant.ErrValidation, "missing studentEmail")
	}
	entry, err := s.store.FindOne(ctx, email, queueID)
	if err != nil {
		return err
	}
	_, err = s.remove(ctx, entry.ID)
	return err
}

// Delete removes an active entry on behalf of staff. Terminal entries stay for export.
func (s *Service) Delete(ctx context.Context, id uint) (*models.QueueEntry, error) {
	return s.remove(ctx, id)
}

func (s *Service) remove(ctx context.Context, id uint) (*models.QueueEntry, error) {
	removed, err := s.store.DeleteByID(ctx, id, func(e *models.QueueEntry) error {
		if !e.Status.IsActive() {
			return errors.Wrapf(constant.ErrInvalidTransition, "entry %d is %s", e.ID, e.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.timers.Cancel(id)
	s.logger.WithFields(logrus.Fields{"queue_id": removed.QueueID, "entry_id": removed.ID}).Info("entry removed")

	s.publish(ctx, func(ctx context.Context) error { return s.notifier.EntryRemoved(ctx, *removed) })
	return removed, nil
}

// Complete marks an active entry as served.
func (s *Service) Complete(ctx context.Context, id uint) (*models.QueueEntry, error) {
	updated, err := s.transition(ctx, id, models.StatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	s.timers.Cancel(id)
	s.publish(ctx, func(ctx context.Context) error {
		return s.notifier.QueueChanged(ctx, updated.QueueID, "entry completed")
	})
	return updated, nil
}

// Notify calls a waiting or deferred entry up to the desk.
func (s *Service) Notify(ctx context.Context, id uint) (*models.QueueEntry, error) {
	updated, err := s.transition(ctx, id, models.StatusNotified, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, func(ctx context.Context) error {
		return s.notifier.QueueChanged(ctx, updated.QueueID, "entry notified")
	})
	return updated, nil
}

// NoShowFlag describes the grace timer of a flagged entry.
type NoShowFlag struct {
	EntryID  uint
	Deadline time.Time
	// Position is the entry's current place in line. Staff normally flag position 1.
	Position int
	// AlreadyPending is set when the entry was flagged before; the first timer stands.
	AlreadyPending bool
}

// MarkNoShow starts the grace timer for an active entry. Flagging an entry that already
// has a pending timer changes nothing.
func (s *Service) MarkNoShow(ctx context.Context, id uint) (*NoShowFlag, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.Status.IsActive() {
		return nil, errors.Wrapf(constant.ErrInvalidTransition, "entry %d is %s", id, entry.Status)
	}
	active, err := s.store.Find(ctx, entry.QueueID, models.ActiveStatuses...)
	if err != nil {
		return nil, err
	}
	pos := ordering.Position(active, *entry)

	deadline, armed := s.timers.Schedule(id, func() { s.expireNoShow(id) })
	if deadline.IsZero() {
		return nil, errors.Wrap(constant.ErrInfra, "no-show timers are shut down")
	}
	if armed {
		fields := logrus.Fields{"queue_id": entry.QueueID, "entry_id": id, "position": pos}
		if pos != 1 {
			s.logger.WithFields(fields).Warn("no-show flagged ahead of its turn")
		} else {
			s.logger.WithFields(fields).Info("no-show grace window started")
		}
		s.publish(ctx, func(ctx context.Context) error {
			return s.notifier.QueueChanged(ctx, entry.QueueID, "no-show flagged")
		})
	}
	return &NoShowFlag{EntryID: id, Deadline: deadline, Position: pos, AlreadyPending: !armed}, nil
}

// CancelNoShow discards the pending grace timer of id. It reports false when there was
// none, including when the timer already fired.
func (s *Service) CancelNoShow(ctx context.Context, id uint) (bool, error) {
	if s.timers.Cancel(id) {
		if entry, err := s.store.FindByID(ctx, id); err == nil {
			s.publish(ctx, func(ctx context.Context) error {
				return s.notifier.QueueChanged(ctx, entry.QueueID, "no-show cancelled")
			})
		}
		return true, nil
	}
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// MarkNoShowNow moves an active entry to no-show without a grace window.
func (s *Service) MarkNoShowNow(ctx context.Context, id uint) (*models.QueueEntry, error) {
	s.timers.Cancel(id)
	updated, err := s.transition(ctx, id, models.StatusNoShow, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, func(ctx context.Context) error {
		return s.notifier.QueueChanged(ctx, updated.QueueID, "entry no-show")
	})
	return updated, nil
}

func (s *Service) expireNoShow(id uint) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryTimeout)
	defer cancel()

	log := s.logger.WithField("entry_id", id)
	updated, err := s.transition(ctx, id, models.StatusNoShow, nil)
	switch {
	case err == nil:
	case errors.Is(err, constant.ErrNotFound), errors.Is(err, constant.ErrInvalidTransition):
		log.WithError(err).Info("no-show timer fired for an entry that is no longer active")
		return
	default:
		log.WithError(err).Error("no-show transition failed")
		return
	}
	s.publish(ctx, func(ctx context.Context) error {
		return s.notifier.QueueChanged(ctx, updated.QueueID, "entry no-show")
	})
}

// Export returns every entry that joined today, in the service's location.
func (s *Service) Export(ctx context.Context) ([]models.QueueEntry, error) {
	now := s.now()
	y, m, d := now.Date()
	return s.store.FindSince(ctx, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

// ReinstateExpiredDeferrals returns deferred entries whose deferral has ended to waiting.
// It reports how many entries moved.
func (s *Service) ReinstateExpiredDeferrals(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.store.FindExpiredDeferrals(ctx, now)
	if err != nil {
		return 0, err
	}

	touched := make(map[string]struct{})
	moved := 0
	for _, e := range expired {
		_, err := s.transition(ctx, e.ID, models.StatusWaiting, func(cur *models.QueueEntry) error {
			if cur.DeferredUntil != nil && cur.DeferredUntil.After(now) {
				return errors.Wrapf(constant.ErrInvalidTransition, "entry %d was deferred again", cur.ID)
			}
			return nil
		})
		switch {
		case err == nil:
			moved++
			touched[e.QueueID] = struct{}{}
		case errors.Is(err, constant.ErrNotFound), errors.Is(err, constant.ErrInvalidTransition):
			// left, served or re-deferred since the query
		default:
			return moved, err
		}
	}

	for queueID := range touched {
		s.publish(ctx, func(ctx context.Context) error {
			return s.notifier.QueueChanged(ctx, queueID, "deferral expired")
		})
	}
	return moved, nil
}

// Purge hard-deletes terminal entries that joined before cutoff.
func (s *Service) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.store.DeleteTerminalBefore(ctx, cutoff)
}

// transition applies a status change atomically on one entry. extra runs first inside
// the same read-modify-write and sees the entry as stored.
func (s *Service) transition(ctx context.Context, id uint, to models.Status, extra func(*models.QueueEntry) error) (*models.QueueEntry, error) {
	now := s.now()
	updated, err := s.store.UpdateByID(ctx, id, func(e *models.QueueEntry) error {
		if extra != nil {
			if err := extra(e); err != nil {
				return err
			}
		}
		return apply(e, to, now)
	})
	if err != nil {
		return nil, err
	}
	s.observe(updated.QueueID, to)
	s.logger.WithFields(logrus.Fields{
		"queue_id": updated.QueueID,
		"entry_id": updated.ID,
		"status":   to,
	}).Info("entry transitioned")
	return updated, nil
}

func (s *Service) observe(queueID string, to models.Status) {
	if s.onTransition != nil {
		s.onTransition(queueID, to)
	}
}

// publish runs send detached from the caller's cancellation. A failed publish is logged
// by the notifier and never undoes the mutation; subscribers catch up on their next read.
func (s *Service) publish(ctx context.Context, send func(ctx context.Context) error) {
	if err := send(context.WithoutCancel(ctx)); err != nil {
		s.logger.WithError(err).Warn("change notification not delivered")
	}
}
