package host

import (
	"context"
	"sync"

	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"github.com/wolfman30/lsv-booking-widget/internal/widget"
)

// session is one websocket connection and the instance it hosts. It is the
// instance's View and its page notifier.
type session struct {
	id      string
	conn    *websocket.Conn
	inst    *widget.Instance
	limiter *rate.Limiter

	sendMu sync.Mutex
}

func (s *session) send(msg OutboundMessage) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return websocket.JSON.Send(s.conn, msg)
}

// Render pushes a full frame to the page.
func (s *session) Render(_ context.Context, f widget.Frame) error {
	return s.send(OutboundMessage{Type: "render", HTML: f.HTML, Step: string(f.Step)})
}

// Notify dispatches n as a DOM event on the host element.
func (s *session) Notify(_ context.Context, _ string, n widget.Notification) error {
	return s.send(OutboundMessage{Type: "event", Name: n.Name, Detail: n.Detail})
}
