// Package host serves booking widget instances to browsers: the element
// script that page authors embed, and the websocket each mounted element
// talks to.
package host

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // browsers report IANA zone names

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"github.com/wolfman30/lsv-booking-widget/internal/events"
	"github.com/wolfman30/lsv-booking-widget/internal/observability/metrics"
	"github.com/wolfman30/lsv-booking-widget/internal/widget"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

const (
	frameRate  = 20
	frameBurst = 40
)

// InboundMessage is what the element script sends.
type InboundMessage struct {
	Type   string            `json:"type"` // "action", "submit", "attribute", "ping"
	Action string            `json:"action,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Name   string            `json:"name,omitempty"`
	Value  string            `json:"value,omitempty"`
}

// OutboundMessage is what we send to the element script.
type OutboundMessage struct {
	Type      string `json:"type"` // "session", "render", "event", "pong", "error"
	SessionID string `json:"session_id,omitempty"`
	HTML      string `json:"html,omitempty"`
	Step      string `json:"step,omitempty"`
	Name      string `json:"name,omitempty"`
	Detail    any    `json:"detail,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Options configures a Handler.
type Options struct {
	API             widget.API
	Notifier        widget.Notifier // receives notifications in addition to the page
	Metrics         *metrics.WidgetMetrics
	Logger          *logging.Logger
	DefaultLocation *time.Location
	PublicBaseURL   string
	// APIAllowlist bounds the api-url values a page may mount with. Nil
	// rejects every mount.
	APIAllowlist *widget.APIAllowlist
}

// Handler manages widget connections.
type Handler struct {
	api        widget.API
	notifier   widget.Notifier
	metrics    *metrics.WidgetMetrics
	logger     *logging.Logger
	defaultLoc *time.Location
	allowlist  *widget.APIAllowlist
	loaderJS   []byte

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool
	active   sync.WaitGroup
}

// NewHandler creates a widget host handler.
func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	return &Handler{
		api:        opts.API,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		defaultLoc: opts.DefaultLocation,
		allowlist:  opts.APIAllowlist,
		loaderJS:   loaderScript(opts.PublicBaseURL),
		sessions:   make(map[string]*session),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and mounts one widget instance for
// the lifetime of the connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	// The server's read and write timeouts still apply to the hijacked
	// connection; a mounted widget lives far longer.
	_ = conn.SetDeadline(time.Time{})

	q := r.URL.Query()
	attrs := widget.Attributes{
		APIURL:      q.Get(widget.AttrAPIURL),
		ProfileSlug: q.Get(widget.AttrProfileSlug),
		VaultSlug:   q.Get(widget.AttrVaultSlug),
		Theme:       q.Get(widget.AttrTheme),
	}
	loc := h.location(q.Get("tz"))

	if !h.allowlist.Allows(attrs.APIURL) {
		h.logger.Warn("widget: mount rejected, api-url not allowed", "api_url", attrs.APIURL)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "api-url is not allowed"})
		return
	}

	sess := &session{
		id:      generateSessionID(),
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(frameRate), frameBurst),
	}
	logger := h.logger.With("session_id", sess.id)
	sess.inst = widget.NewInstance(widget.Options{
		ID:         sess.id,
		Attributes: attrs,
		API:        h.api,
		View:       sess,
		Notifier:   events.Fanout(sess, h.notifier),
		Location:   loc,
		Metrics:    h.metrics,
		Logger:     logger,
		AllowAPI:   h.allowlist.Allows,
	})

	if !h.register(sess) {
		_ = sess.send(OutboundMessage{Type: "error", Text: "server is shutting down"})
		return
	}
	defer h.unregister(sess)

	if err := sess.send(OutboundMessage{Type: "session", SessionID: sess.id}); err != nil {
		logger.Debug("widget: session greeting failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		if err := sess.inst.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("widget: instance stopped", "error", err)
		}
	}()
	defer func() {
		sess.inst.Detach()
		<-sess.inst.Done()
	}()

	logger.Info("widget: connection opened", "profile_slug", attrs.ProfileSlug, "vault_slug", attrs.VaultSlug, "tz", loc.String())

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			logger.Debug("widget: connection closed", "error", err)
			return
		}
		if !sess.limiter.Allow() {
			logger.Debug("widget: frame dropped by rate limit", "type", msg.Type)
			continue
		}
		h.handleFrame(sess, msg)
	}
}

func (h *Handler) handleFrame(sess *session, msg InboundMessage) {
	switch msg.Type {
	case "ping":
		_ = sess.send(OutboundMessage{Type: "pong"})
	case "action":
		if strings.TrimSpace(msg.Action) == "" {
			return
		}
		sess.inst.Gesture(msg.Action, msg.Data)
	case "submit":
		sess.inst.SubmitForm(msg.Fields)
	case "attribute":
		sess.inst.SetAttribute(msg.Name, msg.Value)
	}
}

// location resolves the browser-reported zone, falling back to the default.
func (h *Handler) location(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return h.defaultLoc
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		h.logger.Debug("widget: unknown time zone", "tz", tz)
		return h.defaultLoc
	}
	return loc
}

func (h *Handler) register(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s.id] = s
	h.active.Add(1)
	return true
}

func (h *Handler) unregister(s *session) {
	h.mu.Lock()
	if h.sessions[s.id] == s {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()
	h.active.Done()
}

// ActiveSessions returns the number of mounted instances.
func (h *Handler) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown detaches every instance, closes their connections and waits for
// them to finish or for ctx to end. New connections are refused afterwards.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.inst.Detach()
		_ = s.conn.Close()
	}

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		h.logger.Info("widget: all sessions closed", "count", len(sessions))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
