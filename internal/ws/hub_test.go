package ws

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()
	h := NewHub(quietLogger(), opts...)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return h
}

func receive(t *testing.T, sub *Subscription) notify.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	return notify.Event{}
}

func TestPublishReachesOnlyTopicSubscribers(t *testing.T) {
	h := startHub(t)
	ctx := context.Background()

	queueSub, err := h.Subscribe(ctx, constant.QueueTopic("general-advising"))
	require.NoError(t, err)
	otherSub, err := h.Subscribe(ctx, constant.QueueTopic("financial-aid"))
	require.NoError(t, err)
	defer queueSub.Close()
	defer otherSub.Close()

	ev := notify.Refresh("general-advising", "entry added")
	require.NoError(t, h.Publish(ctx, constant.QueueTopic("general-advising"), ev))

	assert.Equal(t, ev.ID, receive(t, queueSub).ID)
	select {
	case got := <-otherSub.C:
		t.Fatalf("unexpected event %+v", got)
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 1, h.Subscribers(constant.QueueTopic("general-advising")))
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	var mu sync.Mutex
	counts := map[string]int{}
	h := startHub(t, WithBufferSize(1), WithSubscriberGauge(func(topic string, n int) {
		mu.Lock()
		counts[topic] = n
		mu.Unlock()
	}))
	ctx := context.Background()

	slow, err := h.Subscribe(ctx, constant.AdminTopic)
	require.NoError(t, err)
	fast, err := h.Subscribe(ctx, constant.AdminTopic)
	require.NoError(t, err)
	defer fast.Close()

	require.NoError(t, h.Publish(ctx, constant.AdminTopic, notify.Refresh("a", "one")))
	receive(t, fast)
	require.NoError(t, h.Publish(ctx, constant.AdminTopic, notify.Refresh("a", "two")))

	// slow still holds "one" in its buffer, so "two" overflows it; Publish returns
	// before fan-out finishes, so wait for the drop before draining anything
	require.Eventually(t, func() bool {
		return h.Subscribers(constant.AdminTopic) == 1
	}, time.Second, 5*time.Millisecond)

	first := receive(t, slow)
	assert.Equal(t, "one", first.Reason)
	_, ok := <-slow.C
	assert.False(t, ok)

	assert.Equal(t, "two", receive(t, fast).Reason)
	assert.Equal(t, 1, h.Subscribers(constant.AdminTopic))
	mu.Lock()
	assert.Equal(t, 1, counts[constant.AdminTopic])
	mu.Unlock()

	// closing a dropped subscription is harmless
	slow.Close()
}

func TestCloseEndsSubscription(t *testing.T) {
	h := startHub(t)
	sub, err := h.Subscribe(context.Background(), "queue-x")
	require.NoError(t, err)
	sub.Close()
	sub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return h.Subscribers("queue-x") == 0 }, time.Second, 5*time.Millisecond)
}

func TestStoppedHubRejectsWork(t *testing.T) {
	h := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	sub, err := h.Subscribe(context.Background(), "queue-x")
	require.NoError(t, err)
	cancel()
	<-done

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.ErrorIs(t, h.Publish(context.Background(), "queue-x", notify.Refresh("x", "late")), ErrHubClosed)
	_, err = h.Subscribe(context.Background(), "queue-x")
	assert.ErrorIs(t, err, ErrHubClosed)
	sub.Close()
}

func TestQueueWebSocketSendsRefreshOnConnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := startHub(t)

	r := gin.New()
	r.GET("/api/queue/:queueId/ws", h.QueueWebSocketHandler)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/queue/general-advising/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var hello notify.Event
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, notify.KindRefresh, hello.Kind)
	assert.Equal(t, "general-advising", hello.QueueID)

	topic := constant.QueueTopic("general-advising")
	require.Eventually(t, func() bool { return h.Subscribers(topic) == 1 }, time.Second, 5*time.Millisecond)

	ev := notify.Refresh("general-advising", "entry completed")
	require.NoError(t, h.Publish(context.Background(), topic, ev))

	var got notify.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, ev.ID, got.ID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Subscribers(topic) == 0 }, time.Second, 5*time.Millisecond)
}
