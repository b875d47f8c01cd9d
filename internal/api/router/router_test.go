package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
	"github.com/wolfman30/lsv-booking-widget/internal/host"
	"github.com/wolfman30/lsv-booking-widget/internal/observability/metrics"
	"github.com/wolfman30/lsv-booking-widget/internal/widget"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

type emptyAPI struct{}

func (emptyAPI) ListSlots(context.Context, string) ([]bookingapi.Slot, error) {
	return []bookingapi.Slot{}, nil
}

func (emptyAPI) ListAvailability(context.Context, string, string, string) ([]string, error) {
	return nil, nil
}

func (emptyAPI) Book(context.Context, string, string, bookingapi.BookingRequest) (*bookingapi.BookingResponse, error) {
	return &bookingapi.BookingResponse{}, nil
}

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	logger := logging.New("error")
	reg := prometheus.NewRegistry()
	m := metrics.NewWidgetMetrics(reg)
	allowlist, err := widget.NewAPIAllowlist("http://api.test")
	require.NoError(t, err)
	cfg := &Config{
		Logger:             logger,
		Widget:             host.NewHandler(host.Options{API: emptyAPI{}, Metrics: m, Logger: logger, APIAllowlist: allowlist}),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://shop.example"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestMetrics(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lsv_widget_instances_active")
}

func TestWidgetScript(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/widget/lsv-booking.js", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "lsv-booking")
}

func TestWidgetRateLimit(t *testing.T) {
	r := newTestRouter(t, func(c *Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widget/lsv-booking.js", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health checks are never limited.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWidgetSocket(t *testing.T) {
	ts := httptest.NewServer(newTestRouter(t, nil))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/widget/ws?api-url=http://api.test&profile-slug=acme&vault-slug=main"
	conn, err := websocket.Dial(wsURL, "", ts.URL)
	require.NoError(t, err)
	defer conn.Close()

	var msg host.OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	assert.Equal(t, "session", msg.Type)
	assert.NotEmpty(t, msg.SessionID)
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
