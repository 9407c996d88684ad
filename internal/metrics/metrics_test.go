package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.ObserveExchange(DemoChat, false, 300*time.Millisecond)
	r.ObserveExchange(DemoChat, true, time.Second)
	r.ObserveExchange(DemoVision, false, time.Second)
	r.Rejected(DemoChat)
	r.ImageSaved()
	r.TicketWritten()
	r.TicketWritten()
	r.SetSessions(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.exchanges.WithLabelValues(DemoChat, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exchanges.WithLabelValues(DemoChat, OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exchanges.WithLabelValues(DemoChat, OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exchanges.WithLabelValues(DemoVision, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.imagesSaved))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticketsWritten))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.sessions))
	assert.Equal(t, 2, testutil.CollectAndCount(r.latency))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveExchange(DemoChat, false, time.Second)
		r.Rejected(DemoChat)
		r.ImageSaved()
		r.TicketWritten()
		r.SetSessions(1)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	r := New()
	r.ImageSaved()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "levelup_images_saved_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
