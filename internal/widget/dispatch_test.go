package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatch(t *testing.T) {
	tests := []struct {
		action  string
		payload map[string]string
		want    Event
		ok      bool
	}{
		{action: "retry", want: Retry{}, ok: true},
		{action: "select-slot", payload: map[string]string{"slotId": "s1"}, want: SelectSlot{SlotID: "s1"}, ok: true},
		{action: "select-slot", payload: map[string]string{}},
		{action: "select-date", payload: map[string]string{"date": "2026-03-02"}, want: SelectDate{Date: "2026-03-02"}, ok: true},
		{action: "select-date"},
		{action: "select-time", payload: map[string]string{"time": "09:00"}, want: SelectTime{Time: "09:00"}, ok: true},
		{action: "go-to-form", want: GoToForm{}, ok: true},
		{action: "back-to-slots", want: BackToSlots{}, ok: true},
		{action: "back-to-date", want: BackToDate{}, ok: true},
		{action: "back-to-time", want: BackToTime{}, ok: true},
		{action: "submit"},
		{action: "launch-missiles"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, ok := Dispatch(tt.action, tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseContact(t *testing.T) {
	c, ok := ParseContact(map[string]string{
		"guestName":  "  Ada Lovelace ",
		"guestEmail": "ada@example.com",
		"guestPhone": " 555-0100 ",
		"notes":      "",
	})
	assert.True(t, ok)
	assert.Equal(t, Contact{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0100"}, c)

	_, ok = ParseContact(map[string]string{"guestName": "Ada", "guestEmail": "   "})
	assert.False(t, ok)

	_, ok = ParseContact(nil)
	assert.False(t, ok)
}
