// Package widget implements the booking wizard: the state it walks through,
// the network calls that feed it, and the view derived from it.
package widget

import (
	"slices"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
)

// Step is the wizard stage that decides which view renders.
type Step string

const (
	StepSlots   Step = "slots"
	StepDate    Step = "date"
	StepTime    Step = "time"
	StepForm    Step = "form"
	StepSuccess Step = "success"
)

// progressSteps are the stages shown in the step indicator.
var progressSteps = []Step{StepSlots, StepDate, StepTime, StepForm}

// State is the wizard aggregate owned by one instance.
type State struct {
	Step           Step
	Slots          []bookingapi.Slot
	SelectedSlot   *bookingapi.Slot
	SelectedDate   string
	SelectedTime   string
	AvailableTimes []string
	IsLoading      bool
	ErrorMsg       string
}

// initialState is the state right after a reset, before the slot load is issued.
func initialState() State {
	return State{Step: StepSlots}
}

// Clone returns a copy that shares nothing mutable with s.
func (s State) Clone() State {
	out := s
	out.Slots = slices.Clone(s.Slots)
	out.AvailableTimes = slices.Clone(s.AvailableTimes)
	if s.SelectedSlot != nil {
		slot := *s.SelectedSlot
		slot.DaysOfWeek = slices.Clone(slot.DaysOfWeek)
		out.SelectedSlot = &slot
	}
	return out
}

func (s State) findSlot(id string) *bookingapi.Slot {
	for i := range s.Slots {
		if s.Slots[i].ID == id {
			return &s.Slots[i]
		}
	}
	return nil
}
