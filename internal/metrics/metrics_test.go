package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"advising_queue/internal/models"
	"advising_queue/internal/notify"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	m := New()

	m.ObserveTransition("general-advising", models.StatusCompleted)
	m.ObserveTransition("general-advising", models.StatusCompleted)
	m.ObserveTransition("general-advising", models.StatusNoShow)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("general-advising", "completed")))

	m.SetPendingNoShows(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pendingNoShows))

	m.SetSubscribers("admin", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.subscribers.WithLabelValues("admin")))
	m.SetSubscribers("admin", 0)
	assert.Equal(t, 0, testutil.CollectAndCount(m.subscribers))

	m.ObservePublish(notify.KindRefresh, nil)
	m.ObservePublish(notify.KindRefresh, errors.New("down"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("queue-refresh", "error")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveTransition("financial-aid", models.StatusWaiting)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `advising_queue_entry_transitions_total{queue="financial-aid",status="waiting"} 1`)
}
