// Package events relays widget notifications to out-of-page consumers.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/lsv-booking-widget/internal/widget"
)

// Envelope is the transport form of one widget notification.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	InstanceID string          `json:"instance_id"`
	Event      string          `json:"event"`
	Detail     json.RawMessage `json:"detail"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EnvelopeOption customizes the generated envelope (useful in tests).
type EnvelopeOption func(*Envelope)

// WithEventID overrides the automatically generated id.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.ID = id
		}
	}
}

// WithTimestamp overrides the occurrence time.
func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if !ts.IsZero() {
			e.OccurredAt = ts.UTC()
		}
	}
}

var (
	errMissingInstance = errors.New("events: instance id is required")
	errMissingEvent    = errors.New("events: event name is required")
	nowFunc            = time.Now
)

// NewEnvelope wraps n for delivery.
func NewEnvelope(instanceID string, n widget.Notification, opts ...EnvelopeOption) (Envelope, error) {
	if strings.TrimSpace(instanceID) == "" {
		return Envelope{}, errMissingInstance
	}
	if strings.TrimSpace(n.Name) == "" {
		return Envelope{}, errMissingEvent
	}
	detail, err := json.Marshal(n.Detail)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal detail: %w", err)
	}
	env := Envelope{
		ID:         uuid.New(),
		InstanceID: strings.TrimSpace(instanceID),
		Event:      n.Name,
		Detail:     detail,
		OccurredAt: nowFunc().UTC(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}
