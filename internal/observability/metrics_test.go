package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discord-modmail/modmail/internal/config"
)

func TestMetrics_Dispatch(t *testing.T) {
	m := NewMetrics()

	m.DispatchObserved("dm_receive", "claimed", 10*time.Millisecond)
	m.DispatchObserved("dm_receive", "claimed", 5*time.Millisecond)
	m.DispatchObserved("dm_receive", "failed", time.Millisecond)
	m.HandlerFailed("dm_receive", "relay")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatches.WithLabelValues("dm_receive", "claimed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("dm_receive", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.handlerFailures.WithLabelValues("dm_receive", "relay")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DispatchObserved("e", "completed", 0)
		m.HandlerFailed("e", "h")
		m.RecordRelay("TO_STAFF")
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordError("/", "GET", "X")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordRelay("TO_USER")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `modmail_relayed_messages_total{direction="TO_USER"} 1`)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), m))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets/42", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))

	_, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("request completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/tickets/:id", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/boom", "GET", "418")))
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "loud"}, "production")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
