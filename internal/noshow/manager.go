// Package noshow keeps the pending no-show grace timers, keyed by entry id.
package noshow

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager owns one single-shot timer per flagged entry. The pending set is shared by the
// request path (Schedule, Cancel) and the expiry callbacks, so every access holds mu.
// A timer counts as fired the moment its callback removes it from the set; from then on
// Cancel reports false, and before then the callback finds nothing to run.
type Manager struct {
	grace  time.Duration
	logger *logrus.Logger

	mu      sync.Mutex
	pending map[uint]*pendingTimer
	wg      sync.WaitGroup
	closed  bool

	onChange func(pending int)
}

type pendingTimer struct {
	timer    *time.Timer
	deadline time.Time
}

type Option func(*Manager)

// WithGaugeFunc reports the pending count after every change.
func WithGaugeFunc(fn func(pending int)) Option {
	return func(m *Manager) { m.onChange = fn }
}

func NewManager(grace time.Duration, logger *logrus.Logger, opts ...Option) *Manager {
	m := &Manager{
		grace:   grace,
		logger:  logger,
		pending: make(map[uint]*pendingTimer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Grace() time.Duration {
	return m.grace
}

// Schedule arms a timer for id that runs fire once the grace window elapses.
// It returns false, leaving the existing timer untouched, when id already has one,
// and false after Stop.
func (m *Manager) Schedule(id uint, fire func()) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return time.Time{}, false
	}
	if p, ok := m.pending[id]; ok {
		return p.deadline, false
	}

	p := &pendingTimer{deadline: time.Now().Add(m.grace)}
	m.wg.Add(1)
	p.timer = time.AfterFunc(m.grace, func() {
		defer m.wg.Done()
		if !m.claim(id, p) {
			return
		}
		m.logger.WithField("entry_id", id).Info("no-show grace window elapsed")
		fire()
	})
	m.pending[id] = p
	m.report()
	return p.deadline, true
}

// claim removes p from the pending set if it is still the live timer for id.
func (m *Manager) claim(id uint, p *pendingTimer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.pending[id]; !ok || cur != p {
		return false
	}
	delete(m.pending, id)
	m.report()
	return true
}

// Cancel discards the pending timer for id. It reports whether one was pending.
func (m *Manager) Cancel(id uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[id]
	if !ok {
		return false
	}
	delete(m.pending, id)
	if p.timer.Stop() {
		m.wg.Done()
	}
	m.report()
	return true
}

// Deadline reports when the pending timer for id fires.
func (m *Manager) Deadline(id uint) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[id]
	if !ok {
		return time.Time{}, false
	}
	return p.deadline, true
}

func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Stop drops every pending timer and waits for callbacks already running.
// Dropped timers never fire.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	for id, p := range m.pending {
		delete(m.pending, id)
		if p.timer.Stop() {
			m.wg.Done()
		}
	}
	m.report()
	m.mu.Unlock()

	m.wg.Wait()
}

// report must be called with mu held.
func (m *Manager) report() {
	if m.onChange != nil {
		m.onChange(len(m.pending))
	}
}
