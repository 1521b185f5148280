package notify

import (
	"context"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Publisher delivers one event to the subscribers of one topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

// Broadcaster fans queue changes out to the queue topic and the admin topic on every
// configured publisher (the local hub, and the Redis relay when running several instances).
type Broadcaster struct {
	publishers []Publisher
	targeted   bool
	logger     *logrus.Logger
	retries    int
	backoff    time.Duration
	observe    func(kind Kind, err error)
}

type Option func(*Broadcaster)

// WithTargetedEvents adds queue-added / queue-deleted events next to the refresh signal.
func WithTargetedEvents(enabled bool) Option {
	return func(b *Broadcaster) { b.targeted = enabled }
}

func WithRetry(retries int, backoff time.Duration) Option {
	return func(b *Broadcaster) { b.retries, b.backoff = retries, backoff }
}

// WithObserver is told about every publish attempt outcome, e.g. for metrics.
func WithObserver(fn func(kind Kind, err error)) Option {
	return func(b *Broadcaster) { b.observe = fn }
}

func NewBroadcaster(logger *logrus.Logger, publishers []Publisher, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		publishers: publishers,
		logger:     logger,
		retries:    constant.PublishRetries,
		backoff:    constant.PublishBackoff,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.retries < 1 {
		b.retries = 1
	}
	return b
}

// EntryAdded announces a new entry in its queue.
func (b *Broadcaster) EntryAdded(ctx context.Context, entry models.QueueEntry) error {
	var evs []Event
	if b.targeted {
		evs = append(evs, Targeted(KindEntryAdded, entry))
	}
	evs = append(evs, Refresh(entry.QueueID, "entry added"))
	return b.send(ctx, entry.QueueID, evs...)
}

// EntryRemoved announces that an entry left the active set by deletion.
func (b *Broadcaster) EntryRemoved(ctx context.Context, entry models.QueueEntry) error {
	var evs []Event
	if b.targeted {
		evs = append(evs, Targeted(KindEntryRemoved, entry))
	}
	evs = append(evs, Refresh(entry.QueueID, "entry removed"))
	return b.send(ctx, entry.QueueID, evs...)
}

// QueueChanged sends a refresh signal for queueID.
func (b *Broadcaster) QueueChanged(ctx context.Context, queueID, reason string) error {
	return b.send(ctx, queueID, Refresh(queueID, reason))
}

func (b *Broadcaster) send(ctx context.Context, queueID string, evs ...Event) error {
	topics := []string{constant.QueueTopic(queueID), constant.AdminTopic}
	var firstErr error
	for _, ev := range evs {
		for _, topic := range topics {
			for _, p := range b.publishers {
				err := b.publishWithRetry(ctx, p, topic, ev)
				if b.observe != nil {
					b.observe(ev.Kind, err)
				}
				if err != nil {
					b.logger.WithError(err).WithFields(logrus.Fields{
						"topic": topic,
						"kind":  ev.Kind,
					}).Warn("publish failed, subscribers will reconcile on next pull")
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}
	return firstErr
}

// publishWithRetry is safe to repeat: a duplicate refresh only causes one extra re-fetch.
func (b *Broadcaster) publishWithRetry(ctx context.Context, p Publisher, topic string, ev Event) error {
	var err error
	for attempt := 0; attempt < b.retries; attempt++ {
		if err = p.Publish(ctx, topic, ev); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "notify : publish aborted")
		case <-time.After(b.backoff):
		}
	}
	return errors.Wrapf(constant.ErrInfra, "notify : publish to %s: %v", topic, err)
}
