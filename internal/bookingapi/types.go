// Package bookingapi is a client for the public booking-slot API a widget
// instance talks to.
package bookingapi

import (
	"fmt"
	"strings"
)

// Slot is a server-defined booking type.
type Slot struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	DurationMin   int      `json:"durationMin"`
	BufferMin     int      `json:"bufferMin"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime"`
	DaysOfWeek    []string `json:"daysOfWeek"`
	Timezone      string   `json:"timezone"`
	MaxConcurrent int      `json:"maxConcurrent"`
	RequirePhone  bool     `json:"requirePhone"`
}

// BookingRequest is the body of a book call. Optional fields are omitted when empty.
type BookingRequest struct {
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	StartAt    string `json:"startAt"`
	GuestPhone string `json:"guestPhone,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// BookingResponse is returned on a successful book call.
type BookingResponse struct {
	GuestName string `json:"guestName"`
	StartAt   string `json:"startAt"`
}

// APIError is returned for non-2xx responses. Message holds the server's
// "error" field, else its "message" field, else nothing.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}
