package widget

import "strings"

// Contact form field names.
const (
	fieldName  = "guestName"
	fieldEmail = "guestEmail"
	fieldPhone = "guestPhone"
	fieldNotes = "notes"
)

// Gesture payload keys, as the element script reads them from data-* attributes.
const (
	payloadSlotID = "slotId"
	payloadDate   = "date"
	payloadTime   = "time"
)

// Dispatch maps a data-action tag and its payload to a state machine event.
// It reports false for unknown actions or missing payload values.
func Dispatch(action string, payload map[string]string) (Event, bool) {
	switch action {
	case "retry":
		return Retry{}, true
	case "select-slot":
		if id := payload[payloadSlotID]; id != "" {
			return SelectSlot{SlotID: id}, true
		}
	case "back-to-slots":
		return BackToSlots{}, true
	case "select-date":
		if date := payload[payloadDate]; date != "" {
			return SelectDate{Date: date}, true
		}
	case "back-to-date":
		return BackToDate{}, true
	case "select-time":
		if t := payload[payloadTime]; t != "" {
			return SelectTime{Time: t}, true
		}
	case "go-to-form":
		return GoToForm{}, true
	case "back-to-time":
		return BackToTime{}, true
	}
	return nil, false
}

// ParseContact reads the submitted contact form. Name and email are required.
func ParseContact(fields map[string]string) (Contact, bool) {
	c := Contact{
		Name:  strings.TrimSpace(fields[fieldName]),
		Email: strings.TrimSpace(fields[fieldEmail]),
		Phone: strings.TrimSpace(fields[fieldPhone]),
		Notes: strings.TrimSpace(fields[fieldNotes]),
	}
	if c.Name == "" || c.Email == "" {
		return Contact{}, false
	}
	return c, true
}
