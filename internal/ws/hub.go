package ws

import (
	"context"
	"sync"

	"advising_queue/internal/notify"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrHubClosed = errors.New("ws : hub is not running")

const defaultBufferSize = 64

// Hub fans events out to subscribers grouped by topic. The subscriber sets are owned by
// the Run loop; everything else talks to it over channels.
type Hub struct {
	// Для каждого топика храним множество подписок.
	subscribers map[string]map[*Subscription]struct{}
	register    chan *Subscription
	unregister  chan *Subscription
	broadcast   chan topicMessage
	done        chan struct{}

	// counts mirrors len(subscribers[topic]) for readers outside the loop
	mu     sync.RWMutex
	counts map[string]int

	bufferSize int
	logger     *logrus.Logger
	onChange   func(topic string, subscribers int)
}

type topicMessage struct {
	topic string
	event notify.Event
}

// Subscription is one subscriber's cursor on a topic. C is closed when the subscription
// ends: by Close, by the hub stopping, or by the hub dropping a subscriber that fell
// behind. A dropped subscriber recovers by re-subscribing and re-reading state.
type Subscription struct {
	Topic string
	C     <-chan notify.Event

	send chan notify.Event
	hub  *Hub
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}

type Option func(*Hub)

// WithBufferSize sets how many undelivered events a subscriber may lag before it is dropped.
func WithBufferSize(n int) Option {
	return func(h *Hub) { h.bufferSize = n }
}

// WithSubscriberGauge reports the subscriber count of a topic whenever it changes.
func WithSubscriberGauge(fn func(topic string, subscribers int)) Option {
	return func(h *Hub) { h.onChange = fn }
}

func NewHub(logger *logrus.Logger, opts ...Option) *Hub {
	h := &Hub{
		subscribers: make(map[string]map[*Subscription]struct{}),
		register:    make(chan *Subscription),
		unregister:  make(chan *Subscription),
		broadcast:   make(chan topicMessage),
		done:        make(chan struct{}),
		counts:      make(map[string]int),
		bufferSize:  defaultBufferSize,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes registrations and broadcasts until ctx is cancelled, then closes every
// subscription.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for topic, subs := range h.subscribers {
				for sub := range subs {
					close(sub.send)
				}
				delete(h.subscribers, topic)
				h.setCount(topic, 0)
			}
			return
		case sub := <-h.register:
			if h.subscribers[sub.Topic] == nil {
				h.subscribers[sub.Topic] = make(map[*Subscription]struct{})
			}
			h.subscribers[sub.Topic][sub] = struct{}{}
			h.setCount(sub.Topic, len(h.subscribers[sub.Topic]))
		case sub := <-h.unregister:
			h.remove(sub)
		case msg := <-h.broadcast:
			for sub := range h.subscribers[msg.topic] {
				select {
				case sub.send <- msg.event:
				default:
					h.logger.WithField("topic", msg.topic).Warn("dropping slow subscriber")
					h.remove(sub)
				}
			}
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	subs, ok := h.subscribers[sub.Topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.subscribers, sub.Topic)
	}
	h.setCount(sub.Topic, len(subs))
}

func (h *Hub) setCount(topic string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n == 0 {
		delete(h.counts, topic)
	} else {
		h.counts[topic] = n
	}
	// under the lock so the gauge never lags behind Subscribers
	if h.onChange != nil {
		h.onChange(topic, n)
	}
}

// Subscribe attaches a new subscriber to topic.
func (h *Hub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	send := make(chan notify.Event, h.bufferSize)
	sub := &Subscription{Topic: topic, C: send, send: send, hub: h}
	select {
	case h.register <- sub:
		return sub, nil
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Publish delivers ev to the current subscribers of topic.
func (h *Hub) Publish(ctx context.Context, topic string, ev notify.Event) error {
	select {
	case h.broadcast <- topicMessage{topic: topic, event: ev}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[topic]
}
