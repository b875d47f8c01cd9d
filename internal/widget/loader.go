package widget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
	"github.com/wolfman30/lsv-booking-widget/internal/observability/metrics"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

const (
	msgSlotsFailed   = "Failed to load booking slots. Please try again."
	msgTimesFailed   = "Failed to load available times. Please try again."
	msgBookingFailed = "Booking failed. Please try again."
)

// API is the remote booking service.
type API interface {
	ListSlots(ctx context.Context, resourcePath string) ([]bookingapi.Slot, error)
	ListAvailability(ctx context.Context, resourcePath, slotID, date string) ([]string, error)
	Book(ctx context.Context, resourcePath, slotID string, req bookingapi.BookingRequest) (*bookingapi.BookingResponse, error)
}

// Loader runs machine effects against the API and turns each outcome into
// the event that resolves it.
type Loader struct {
	api     API
	metrics *metrics.WidgetMetrics
	logger  *logging.Logger
}

// NewLoader creates a loader.
func NewLoader(api API, m *metrics.WidgetMetrics, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{api: api, metrics: m, logger: logger}
}

// Execute performs eff against resourcePath. It blocks for the duration of
// the request and always returns a resolving event.
func (l *Loader) Execute(ctx context.Context, resourcePath string, eff Effect) Event {
	start := time.Now()
	var (
		ev  Event
		err error
	)
	switch e := eff.(type) {
	case LoadSlots:
		var slots []bookingapi.Slot
		slots, err = l.api.ListSlots(ctx, resourcePath)
		ev = SlotsLoaded{Generation: e.Generation, Slots: slots, Err: err}
	case LoadTimes:
		var times []string
		times, err = l.api.ListAvailability(ctx, resourcePath, e.SlotID, e.Date)
		ev = TimesLoaded{Generation: e.Generation, SlotID: e.SlotID, Date: e.Date, Times: times, Err: err}
	case SubmitBooking:
		var resp *bookingapi.BookingResponse
		resp, err = l.api.Book(ctx, resourcePath, e.SlotID, e.Request)
		ev = BookingCompleted{Generation: e.Generation, Response: resp, Err: err}
	default:
		panic(fmt.Sprintf("widget: unknown effect %T", eff))
	}

	status := "ok"
	if err != nil {
		status = "error"
		var apiErr *bookingapi.APIError
		if errors.As(err, &apiErr) {
			status = strconv.Itoa(apiErr.StatusCode)
		}
		l.logger.Warn("widget: booking API call failed", "operation", eff.operation(), "error", err)
	}
	l.metrics.ObserveAPICall(eff.operation(), status, time.Since(start).Seconds())
	return ev
}

// Refuse resolves eff as failed without calling the API.
func (l *Loader) Refuse(eff Effect, err error) Event {
	l.logger.Warn("widget: booking API call refused", "operation", eff.operation(), "error", err)
	l.metrics.ObserveAPICall(eff.operation(), "refused", 0)
	switch e := eff.(type) {
	case LoadSlots:
		return SlotsLoaded{Generation: e.Generation, Err: err}
	case LoadTimes:
		return TimesLoaded{Generation: e.Generation, SlotID: e.SlotID, Date: e.Date, Err: err}
	case SubmitBooking:
		return BookingCompleted{Generation: e.Generation, Err: err}
	}
	panic(fmt.Sprintf("widget: unknown effect %T", eff))
}

// BookingErrorMessage is the user-facing text for a failed booking: the
// server's message when it sent one, the HTTP status otherwise, and a
// generic line for transport or decoding failures.
func BookingErrorMessage(err error) string {
	var apiErr *bookingapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return msgBookingFailed
}
