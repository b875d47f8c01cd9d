package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
	"github.com/wolfman30/lsv-booking-widget/internal/widget"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

// stubAPI serves one Monday-only slot and records booking requests.
type stubAPI struct {
	mu       sync.Mutex
	paths    []string
	bookings []bookingapi.BookingRequest
}

func (s *stubAPI) ListSlots(_ context.Context, path string) ([]bookingapi.Slot, error) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	return []bookingapi.Slot{{
		ID: "s1", Title: "Consultation", DurationMin: 30,
		StartTime: "09:00", EndTime: "17:00", DaysOfWeek: []string{"mon"},
	}}, nil
}

func (s *stubAPI) ListAvailability(context.Context, string, string, string) ([]string, error) {
	return []string{"09:00", "09:30"}, nil
}

func (s *stubAPI) Book(_ context.Context, _ string, _ string, req bookingapi.BookingRequest) (*bookingapi.BookingResponse, error) {
	s.mu.Lock()
	s.bookings = append(s.bookings, req)
	s.mu.Unlock()
	return &bookingapi.BookingResponse{GuestName: req.GuestName, StartAt: req.StartAt}, nil
}

func (s *stubAPI) Bookings() []bookingapi.BookingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bookingapi.BookingRequest(nil), s.bookings...)
}

func newTestServer(t *testing.T, opts Options) (*Handler, *httptest.Server) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.New("error")
	}
	if opts.APIAllowlist == nil {
		allowlist, err := widget.NewAPIAllowlist("http://api.test")
		require.NoError(t, err)
		opts.APIAllowlist = allowlist
	}
	h := NewHandler(opts)
	mux := http.NewServeMux()
	mux.HandleFunc("/widget/ws", h.HandleWebSocket)
	mux.HandleFunc("/widget/lsv-booking.js", h.HandleLoaderJS)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return h, ts
}

func dial(t *testing.T, ts *httptest.Server, query url.Values) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/widget/ws?" + query.Encode()
	conn, err := websocket.Dial(wsURL, "", ts.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(OutboundMessage) bool) OutboundMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg OutboundMessage
		require.NoError(t, websocket.JSON.Receive(conn, &msg))
		if match(msg) {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg InboundMessage) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(conn, msg))
}

func renderedStep(step widget.Step) func(OutboundMessage) bool {
	return func(m OutboundMessage) bool {
		return m.Type == "render" && m.Step == string(step) && !strings.Contains(m.HTML, `class="loading"`)
	}
}

func mountQuery(extra ...string) url.Values {
	q := url.Values{
		"api-url":      {"http://api.test"},
		"profile-slug": {"acme"},
		"vault-slug":   {"main"},
	}
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return q
}

func TestHandleLoaderJS(t *testing.T) {
	h := NewHandler(Options{Logger: logging.New("error")})
	req := httptest.NewRequest(http.MethodGet, "/widget/lsv-booking.js", nil)
	w := httptest.NewRecorder()

	h.HandleLoaderJS(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	body := w.Body.String()
	assert.Contains(t, body, `customElements.define("lsv-booking"`)
	assert.NotContains(t, body, baseURLPlaceholder)
}

func TestHandleLoaderJS_Reconnects(t *testing.T) {
	body := string(loaderScript(""))

	// A closed socket schedules a fresh mount and shows a retry panel.
	assert.Contains(t, body, "if (this._mounted) this._scheduleReconnect();")
	assert.Contains(t, body, `data-lsv-reconnect`)
	assert.Contains(t, body, "RECONNECT_MAX_MS")
	// Attribute changes before the socket opens remount with current attributes.
	assert.Contains(t, body, "readyState === WebSocket.OPEN")
	assert.Regexp(t, `(?s)attributeChangedCallback.*?this\._connect\(\);`, body)
}

func TestHandleLoaderJS_PublicBaseURL(t *testing.T) {
	h := NewHandler(Options{PublicBaseURL: "https://widgets.example.com", Logger: logging.New("error")})
	w := httptest.NewRecorder()
	h.HandleLoaderJS(w, httptest.NewRequest(http.MethodGet, "/widget/lsv-booking.js", nil))
	assert.Contains(t, w.Body.String(), `"https://widgets.example.com"`)
}

func TestWebSocket_MountRendersSlots(t *testing.T) {
	api := &stubAPI{}
	h, ts := newTestServer(t, Options{API: api})
	conn := dial(t, ts, mountQuery())

	session := readUntil(t, conn, func(m OutboundMessage) bool { return m.Type == "session" })
	assert.Len(t, session.SessionID, 32)

	frame := readUntil(t, conn, renderedStep(widget.StepSlots))
	assert.Contains(t, frame.HTML, `data-slot-id="s1"`)
	assert.Equal(t, 1, h.ActiveSessions())

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"http://api.test/api/v1/public/vaults/acme/main"}, api.paths)
}

func TestWebSocket_BookingFlow(t *testing.T) {
	api := &stubAPI{}
	_, ts := newTestServer(t, Options{API: api})
	// Etc/GMT-2 is two hours ahead of UTC.
	conn := dial(t, ts, mountQuery("tz", "Etc/GMT-2"))
	readUntil(t, conn, renderedStep(widget.StepSlots))

	send(t, conn, InboundMessage{Type: "action", Action: "select-slot", Data: map[string]string{"slotId": "s1"}})
	readUntil(t, conn, renderedStep(widget.StepDate))

	send(t, conn, InboundMessage{Type: "action", Action: "select-date", Data: map[string]string{"date": "2026-03-02"}})
	frame := readUntil(t, conn, renderedStep(widget.StepTime))
	assert.Contains(t, frame.HTML, `data-time="09:30"`)

	send(t, conn, InboundMessage{Type: "action", Action: "select-time", Data: map[string]string{"time": "09:00"}})
	send(t, conn, InboundMessage{Type: "action", Action: "go-to-form"})
	frame = readUntil(t, conn, renderedStep(widget.StepForm))
	assert.Contains(t, frame.HTML, `id="lsv-booking-form"`)

	send(t, conn, InboundMessage{Type: "submit", Fields: map[string]string{"guestName": "Ada", "guestEmail": "ada@example.com"}})
	event := readUntil(t, conn, func(m OutboundMessage) bool { return m.Type == "event" })
	assert.Equal(t, widget.EventSubmitted, event.Name)
	detail, ok := event.Detail.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Consultation", detail["slotTitle"])
	assert.Equal(t, "2026-03-02T07:00:00.000Z", detail["startAt"])

	bookings := api.Bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, "2026-03-02T07:00:00.000Z", bookings[0].StartAt)
}

func TestWebSocket_Ping(t *testing.T) {
	_, ts := newTestServer(t, Options{API: &stubAPI{}})
	conn := dial(t, ts, mountQuery())
	readUntil(t, conn, func(m OutboundMessage) bool { return m.Type == "session" })

	send(t, conn, InboundMessage{Type: "ping"})
	readUntil(t, conn, func(m OutboundMessage) bool { return m.Type == "pong" })
}

func TestWebSocket_AttributeChange(t *testing.T) {
	api := &stubAPI{}
	_, ts := newTestServer(t, Options{API: api})
	conn := dial(t, ts, mountQuery("theme", "dark"))
	readUntil(t, conn, renderedStep(widget.StepSlots))

	send(t, conn, InboundMessage{Type: "attribute", Name: "theme", Value: "light"})
	frame := readUntil(t, conn, func(m OutboundMessage) bool { return m.Type == "render" })
	assert.Contains(t, frame.HTML, `data-theme="light"`)

	send(t, conn, InboundMessage{Type: "attribute", Name: "vault-slug", Value: "other"})
	readUntil(t, conn, renderedStep(widget.StepSlots))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.paths, 2)
	assert.Equal(t, "http://api.test/api/v1/public/vaults/acme/other", api.paths[1])
}

// countingServer stands in for a service the host must never reach.
func countingServer(t *testing.T) (*httptest.Server, func() int) {
	t.Helper()
	var (
		mu   sync.Mutex
		hits int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"slots":[{"id":"secret","title":"internal"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return hits
	}
}

func TestWebSocket_RejectsUnlistedAPIURL(t *testing.T) {
	internal, hits := countingServer(t)
	h, ts := newTestServer(t, Options{API: bookingapi.NewClient(time.Second, logging.New("error"))})

	for _, apiURL := range []string{
		internal.URL,
		internal.URL + "/anything?x=",
		"http://api.test@" + strings.TrimPrefix(internal.URL, "http://"),
		"http://api.test.evil.example",
		"",
	} {
		conn := dial(t, ts, mountQuery("api-url", apiURL))
		msg := readUntil(t, conn, func(OutboundMessage) bool { return true })
		assert.Equal(t, "error", msg.Type, apiURL)
		assert.Equal(t, "api-url is not allowed", msg.Text)
	}

	assert.Zero(t, hits())
	assert.Zero(t, h.ActiveSessions())
}

func TestWebSocket_AttributeChangeToUnlistedAPIURL(t *testing.T) {
	internal, hits := countingServer(t)
	api := &stubAPI{}
	_, ts := newTestServer(t, Options{API: api})
	conn := dial(t, ts, mountQuery())
	readUntil(t, conn, renderedStep(widget.StepSlots))

	send(t, conn, InboundMessage{Type: "attribute", Name: "api-url", Value: internal.URL + "/anything?x="})
	frame := readUntil(t, conn, func(m OutboundMessage) bool {
		return m.Type == "render" && strings.Contains(m.HTML, "Failed to load booking slots")
	})
	assert.NotContains(t, frame.HTML, "secret")

	assert.Zero(t, hits())
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Len(t, api.paths, 1)
}

func TestWebSocket_ForwardsNotifications(t *testing.T) {
	var (
		mu  sync.Mutex
		got []widget.Notification
	)
	relay := widget.NotifierFunc(func(_ context.Context, _ string, n widget.Notification) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, n)
		return nil
	})
	_, ts := newTestServer(t, Options{API: &stubAPI{}, Notifier: relay})
	conn := dial(t, ts, mountQuery())
	readUntil(t, conn, renderedStep(widget.StepSlots))

	send(t, conn, InboundMessage{Type: "action", Action: "select-slot", Data: map[string]string{"slotId": "s1"}})
	send(t, conn, InboundMessage{Type: "action", Action: "select-date", Data: map[string]string{"date": "2026-03-02"}})
	readUntil(t, conn, renderedStep(widget.StepTime))
	send(t, conn, InboundMessage{Type: "action", Action: "select-time", Data: map[string]string{"time": "09:00"}})
	send(t, conn, InboundMessage{Type: "action", Action: "go-to-form"})
	send(t, conn, InboundMessage{Type: "submit", Fields: map[string]string{"guestName": "Ada", "guestEmail": "ada@example.com"}})
	readUntil(t, conn, func(m OutboundMessage) bool { return m.Type == "event" })

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, widget.EventSubmitted, got[0].Name)
}

func TestLocation(t *testing.T) {
	def := time.FixedZone("DEF", 3600)
	h := NewHandler(Options{DefaultLocation: def, Logger: logging.New("error")})

	assert.Equal(t, def, h.location(""))
	assert.Equal(t, def, h.location("Mars/Olympus_Mons"))
	assert.Equal(t, "Europe/Paris", h.location("Europe/Paris").String())
}

func TestGenerateSessionID(t *testing.T) {
	s1 := generateSessionID()
	s2 := generateSessionID()
	assert.NotEqual(t, s1, s2)
	assert.Len(t, s1, 32)
}

func TestShutdown(t *testing.T) {
	h, ts := newTestServer(t, Options{API: &stubAPI{}})
	conn := dial(t, ts, mountQuery())
	readUntil(t, conn, renderedStep(widget.StepSlots))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))
	assert.Zero(t, h.ActiveSessions())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg OutboundMessage
	for {
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			break
		}
	}

	late := dial(t, ts, mountQuery())
	refused := readUntil(t, late, func(m OutboundMessage) bool { return true })
	assert.Equal(t, "error", refused.Type)
}
