package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Client wraps the three public booking-slot endpoints. Every call takes the
// tenant resource path so the caller decides which vault it targets.
type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewClient constructs a booking API client. A zero timeout uses the default.
func NewClient(timeout time.Duration, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		tracer:     otel.Tracer("lsv-booking/bookingapi"),
	}
}

// ListSlots returns the booking types published for a vault.
func (c *Client) ListSlots(ctx context.Context, resourcePath string) ([]Slot, error) {
	var wrapped struct {
		Slots []Slot `json:"slots"`
	}
	if err := c.doJSON(ctx, "bookingapi.list_slots", http.MethodGet, resourcePath+"/booking-slots", nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if wrapped.Slots == nil {
		wrapped.Slots = []Slot{}
	}
	return wrapped.Slots, nil
}

// ListAvailability returns the open start times for a slot on a YYYY-MM-DD date.
func (c *Client) ListAvailability(ctx context.Context, resourcePath, slotID, date string) ([]string, error) {
	q := url.Values{}
	q.Set("date", date)
	endpoint := fmt.Sprintf("%s/booking-slots/%s/availability?%s", resourcePath, url.PathEscape(slotID), q.Encode())

	var wrapped struct {
		Times []string `json:"times"`
	}
	if err := c.doJSON(ctx, "bookingapi.list_availability", http.MethodGet, endpoint, nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	if wrapped.Times == nil {
		wrapped.Times = []string{}
	}
	return wrapped.Times, nil
}

// Book submits a booking for a slot.
func (c *Client) Book(ctx context.Context, resourcePath, slotID string, req BookingRequest) (*BookingResponse, error) {
	endpoint := fmt.Sprintf("%s/booking-slots/%s/book", resourcePath, url.PathEscape(slotID))
	var resp BookingResponse
	if err := c.doJSON(ctx, "bookingapi.book", http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("book slot: %w", err)
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, spanName, method, endpoint string, body interface{}, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method))

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		span.SetStatus(codes.Error, apiErr.Error())
		c.logger.Warn("booking API non-2xx response", "status", resp.StatusCode, "method", method, "message", apiErr.Message)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls "error", then "message", out of a failure body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
