package widget

import (
	"context"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
)

// Event drives a state transition. Gestures come from the dispatcher; the
// *Loaded / BookingCompleted events come back from the loader.
type Event interface {
	eventName() string
}

type (
	// Reset clears everything and reloads the slot list.
	Reset struct{}
	// SelectSlot picks a booking type from the loaded list.
	SelectSlot struct{ SlotID string }
	// SelectDate picks an ISO date for the selected slot.
	SelectDate struct{ Date string }
	// SelectTime picks one of the available times.
	SelectTime struct{ Time string }
	// GoToForm advances from a chosen time to the contact form.
	GoToForm struct{}
	// Submit sends the booking.
	Submit      struct{ Contact Contact }
	BackToSlots struct{}
	BackToDate  struct{}
	BackToTime  struct{}
	// Retry re-issues the failed load, if any.
	Retry struct{}

	// SlotsLoaded resolves a LoadSlots effect.
	SlotsLoaded struct {
		Generation uint64
		Slots      []bookingapi.Slot
		Err        error
	}
	// TimesLoaded resolves a LoadTimes effect.
	TimesLoaded struct {
		Generation uint64
		SlotID     string
		Date       string
		Times      []string
		Err        error
	}
	// BookingCompleted resolves a SubmitBooking effect.
	BookingCompleted struct {
		Generation uint64
		Response   *bookingapi.BookingResponse
		Err        error
	}
)

func (Reset) eventName() string            { return "reset" }
func (SelectSlot) eventName() string       { return "select-slot" }
func (SelectDate) eventName() string       { return "select-date" }
func (SelectTime) eventName() string       { return "select-time" }
func (GoToForm) eventName() string         { return "go-to-form" }
func (Submit) eventName() string           { return "submit" }
func (BackToSlots) eventName() string      { return "back-to-slots" }
func (BackToDate) eventName() string       { return "back-to-date" }
func (BackToTime) eventName() string       { return "back-to-time" }
func (Retry) eventName() string            { return "retry" }
func (SlotsLoaded) eventName() string      { return "slots-loaded" }
func (TimesLoaded) eventName() string      { return "times-loaded" }
func (BookingCompleted) eventName() string { return "booking-completed" }

// Contact is what the visitor typed into the form, already trimmed.
type Contact struct {
	Name  string
	Email string
	Phone string
	Notes string
}

// Effect is a network operation the machine asks its owner to run.
type Effect interface {
	operation() string
}

type (
	LoadSlots struct{ Generation uint64 }
	LoadTimes struct {
		Generation uint64
		SlotID     string
		Date       string
	}
	SubmitBooking struct {
		Generation uint64
		SlotID     string
		Request    bookingapi.BookingRequest
	}
)

func (LoadSlots) operation() string     { return "list_slots" }
func (LoadTimes) operation() string     { return "list_availability" }
func (SubmitBooking) operation() string { return "book" }

// Notification names as dispatched on the host page.
const (
	EventSubmitted = "lsv-booking-submitted"
	EventError     = "lsv-booking-error"
)

// SubmittedDetail accompanies EventSubmitted. BookingID and EndAt are always
// empty: the book endpoint does not return them.
type SubmittedDetail struct {
	BookingID string `json:"bookingId"`
	StartAt   string `json:"startAt"`
	EndAt     string `json:"endAt"`
	SlotTitle string `json:"slotTitle"`
}

// ErrorDetail accompanies EventError.
type ErrorDetail struct {
	Message string `json:"message"`
	Step    Step   `json:"step"`
}

// Notification is an outbound event for the host page.
type Notification struct {
	Name   string `json:"name"`
	Detail any    `json:"detail"`
}

// Notifier delivers notifications for an instance.
type Notifier interface {
	Notify(ctx context.Context, instanceID string, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, instanceID string, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, instanceID string, n Notification) error {
	return f(ctx, instanceID, n)
}
