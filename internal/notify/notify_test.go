package notify

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	ev    Event
}

type recorder struct {
	mu       sync.Mutex
	got      []published
	failures int
}

func (r *recorder) Publish(_ context.Context, topic string, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("channel unavailable")
	}
	r.got = append(r.got, published{topic: topic, ev: ev})
	return nil
}

func (r *recorder) snapshot() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.got...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var sample = models.QueueEntry{ID: 3, QueueID: "general-advising", Name: "Ada", Email: "ada@my.yorku.ca", Status: models.StatusWaiting}

func TestRefreshGoesToQueueAndAdminTopics(t *testing.T) {
	rec := &recorder{}
	b := NewBroadcaster(quietLogger(), []Publisher{rec})

	require.NoError(t, b.QueueChanged(context.Background(), "general-advising", "entry completed"))

	got := rec.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "queue-general-advising", got[0].topic)
	assert.Equal(t, constant.AdminTopic, got[1].topic)
	for _, p := range got {
		assert.Equal(t, KindRefresh, p.ev.Kind)
		assert.Nil(t, p.ev.Entry)
		assert.NotEmpty(t, p.ev.ID)
	}
}

func TestTargetedEventsAreOptIn(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, NewBroadcaster(quietLogger(), []Publisher{rec}).EntryAdded(context.Background(), sample))
	for _, p := range rec.snapshot() {
		assert.Equal(t, KindRefresh, p.ev.Kind)
	}

	rec = &recorder{}
	b := NewBroadcaster(quietLogger(), []Publisher{rec}, WithTargetedEvents(true))
	require.NoError(t, b.EntryRemoved(context.Background(), sample))
	got := rec.snapshot()
	require.Len(t, got, 4)
	assert.Equal(t, KindEntryRemoved, got[0].ev.Kind)
	require.NotNil(t, got[0].ev.Entry)
	assert.Equal(t, "ada@my.yorku.ca", got[0].ev.Entry.Email)
	// the refresh always follows so a subscriber ignoring targeted events still converges
	assert.Equal(t, KindRefresh, got[len(got)-1].ev.Kind)
}

func TestPublishRetriesThenReportsInfraError(t *testing.T) {
	rec := &recorder{failures: 2}
	var observed []error
	b := NewBroadcaster(quietLogger(), []Publisher{rec},
		WithRetry(3, time.Millisecond),
		WithObserver(func(_ Kind, err error) { observed = append(observed, err) }))

	require.NoError(t, b.QueueChanged(context.Background(), "q", "x"))
	assert.Len(t, rec.snapshot(), 2)
	assert.Equal(t, []error{nil, nil}, observed)

	rec = &recorder{failures: 100}
	b = NewBroadcaster(quietLogger(), []Publisher{rec}, WithRetry(2, time.Millisecond))
	err := b.QueueChanged(context.Background(), "q", "x")
	assert.True(t, errors.Is(err, constant.ErrInfra), "got %v", err)
}

func TestRedisRelayCrossesInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		return c
	}

	localA, localB := &recorder{}, &recorder{}
	relayA := NewRedisRelay(newClient(), "events", localA, quietLogger())
	relayB := NewRedisRelay(newClient(), "events", localB, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, r := range []*RedisRelay{relayA, relayB} {
		ready := make(chan struct{})
		wg.Add(1)
		go func(r *RedisRelay) {
			defer wg.Done()
			_ = r.Run(ctx, ready)
		}(r)
		<-ready
	}

	ev := Refresh("general-advising", "entry added")
	require.NoError(t, relayA.Publish(ctx, "queue-general-advising", ev))

	assert.Eventually(t, func() bool { return len(localB.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	got := localB.snapshot()[0]
	assert.Equal(t, "queue-general-advising", got.topic)
	assert.Equal(t, ev.ID, got.ev.ID)

	// the publishing instance does not hear its own event back
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, localA.snapshot())

	cancel()
	wg.Wait()
}
