package widget

import (
	"slices"
	"strings"
	"time"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
)

type operation int

const (
	opNone operation = iota
	opSlots
	opTimes
	opBook
)

// Outcome tells the owner of a Machine what a transition requires.
type Outcome struct {
	Render        bool
	Effect        Effect
	Notifications []Notification
}

// Machine is the wizard state machine. It is not safe for concurrent use; an
// Instance owns it from a single goroutine.
type Machine struct {
	state State
	loc   *time.Location

	// generation increments on every reset; results carrying an older value
	// belong to a discarded state and are dropped.
	generation uint64
	inflight   operation
	failed     operation
}

// NewMachine returns a machine in the pre-attach state. loc is used to turn the
// chosen date and time into an absolute start time.
func NewMachine(loc *time.Location) *Machine {
	if loc == nil {
		loc = time.UTC
	}
	return &Machine{state: initialState(), loc: loc}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state.Clone()
}

// Generation returns the current reset generation.
func (m *Machine) Generation() uint64 {
	return m.generation
}

// Apply runs one transition. Events whose guard fails return a zero Outcome
// and leave the state untouched.
func (m *Machine) Apply(ev Event) Outcome {
	switch e := ev.(type) {
	case Reset:
		return m.reset()
	case SlotsLoaded:
		return m.slotsLoaded(e)
	case TimesLoaded:
		return m.timesLoaded(e)
	case BookingCompleted:
		return m.bookingCompleted(e)
	case Retry:
		return m.retry()
	}

	// The view only offers loading or error affordances in these states.
	if m.state.IsLoading || m.state.ErrorMsg != "" {
		return Outcome{}
	}

	switch e := ev.(type) {
	case SelectSlot:
		return m.selectSlot(e.SlotID)
	case SelectDate:
		return m.selectDate(e.Date)
	case SelectTime:
		return m.selectTime(e.Time)
	case GoToForm:
		if m.state.Step != StepTime || m.state.SelectedTime == "" {
			return Outcome{}
		}
		m.state.Step = StepForm
		return Outcome{Render: true}
	case Submit:
		return m.submit(e.Contact)
	case BackToSlots:
		if m.state.Step != StepDate {
			return Outcome{}
		}
		m.state.SelectedSlot = nil
		m.state.SelectedDate = ""
		m.state.SelectedTime = ""
		m.state.AvailableTimes = nil
		m.state.Step = StepSlots
		return Outcome{Render: true}
	case BackToDate:
		if m.state.Step != StepTime {
			return Outcome{}
		}
		m.state.SelectedTime = ""
		m.state.Step = StepDate
		return Outcome{Render: true}
	case BackToTime:
		if m.state.Step != StepForm {
			return Outcome{}
		}
		m.state.Step = StepTime
		return Outcome{Render: true}
	}
	return Outcome{}
}

func (m *Machine) reset() Outcome {
	m.generation++
	m.state = initialState()
	m.failed = opNone
	return m.begin(opSlots, LoadSlots{Generation: m.generation})
}

func (m *Machine) begin(op operation, eff Effect) Outcome {
	m.state.IsLoading = true
	m.state.ErrorMsg = ""
	m.inflight = op
	return Outcome{Render: true, Effect: eff}
}

// settle accepts a result only if it answers the single outstanding request
// of the current generation.
func (m *Machine) settle(generation uint64, op operation) bool {
	if generation != m.generation || m.inflight != op || !m.state.IsLoading {
		return false
	}
	m.inflight = opNone
	m.state.IsLoading = false
	return true
}

func (m *Machine) fail(op operation, msg string) {
	m.state.IsLoading = false
	m.state.ErrorMsg = msg
	m.failed = op
}

func (m *Machine) selectSlot(id string) Outcome {
	if m.state.Step != StepSlots {
		return Outcome{}
	}
	slot := m.state.findSlot(id)
	if slot == nil {
		return Outcome{}
	}
	m.state.SelectedSlot = slot
	m.state.Step = StepDate
	return Outcome{Render: true}
}

func (m *Machine) selectDate(date string) Outcome {
	if m.state.Step != StepDate || m.state.SelectedSlot == nil {
		return Outcome{}
	}
	day, err := time.Parse(isoDate, date)
	if err != nil || !IsDateAllowed(m.state.SelectedSlot, day.Weekday()) {
		return Outcome{}
	}
	m.state.SelectedDate = date
	m.state.SelectedTime = ""
	m.state.AvailableTimes = nil
	return m.begin(opTimes, LoadTimes{
		Generation: m.generation,
		SlotID:     m.state.SelectedSlot.ID,
		Date:       date,
	})
}

func (m *Machine) selectTime(t string) Outcome {
	if m.state.Step != StepTime || !slices.Contains(m.state.AvailableTimes, t) {
		return Outcome{}
	}
	m.state.SelectedTime = t
	return Outcome{Render: true}
}

func (m *Machine) submit(c Contact) Outcome {
	s := m.state
	if s.Step != StepForm || s.SelectedSlot == nil || s.SelectedDate == "" || s.SelectedTime == "" {
		return Outcome{}
	}
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" {
		return Outcome{}
	}
	if s.SelectedSlot.RequirePhone && strings.TrimSpace(c.Phone) == "" {
		return Outcome{}
	}
	startAt, err := StartAt(s.SelectedDate, s.SelectedTime, m.loc)
	if err != nil {
		m.fail(opBook, msgBookingFailed)
		return Outcome{Render: true, Notifications: []Notification{bookingError(msgBookingFailed)}}
	}
	return m.begin(opBook, SubmitBooking{
		Generation: m.generation,
		SlotID:     s.SelectedSlot.ID,
		Request: bookingapi.BookingRequest{
			GuestName:  c.Name,
			GuestEmail: c.Email,
			StartAt:    startAt,
			GuestPhone: c.Phone,
			Notes:      c.Notes,
		},
	})
}

func (m *Machine) retry() Outcome {
	if m.state.IsLoading {
		return Outcome{}
	}
	if m.state.ErrorMsg == "" {
		return Outcome{Render: true}
	}
	failed := m.failed
	m.state.ErrorMsg = ""
	m.failed = opNone

	s := m.state
	switch {
	case s.Step == StepSlots:
		return m.begin(opSlots, LoadSlots{Generation: m.generation})
	case failed == opTimes && s.SelectedSlot != nil && s.SelectedDate != "":
		m.state.AvailableTimes = nil
		return m.begin(opTimes, LoadTimes{
			Generation: m.generation,
			SlotID:     s.SelectedSlot.ID,
			Date:       s.SelectedDate,
		})
	}
	// A failed booking is never resubmitted here; the form comes back instead.
	return Outcome{Render: true}
}

func (m *Machine) slotsLoaded(e SlotsLoaded) Outcome {
	if !m.settle(e.Generation, opSlots) {
		return Outcome{}
	}
	if e.Err != nil {
		m.fail(opSlots, msgSlotsFailed)
		return Outcome{Render: true}
	}
	m.state.Slots = e.Slots
	m.state.ErrorMsg = ""
	return Outcome{Render: true}
}

func (m *Machine) timesLoaded(e TimesLoaded) Outcome {
	if !m.settle(e.Generation, opTimes) {
		return Outcome{}
	}
	s := m.state
	if e.Err != nil || s.SelectedSlot == nil || e.SlotID != s.SelectedSlot.ID || e.Date != s.SelectedDate {
		m.fail(opTimes, msgTimesFailed)
		return Outcome{Render: true}
	}
	m.state.AvailableTimes = e.Times
	m.state.ErrorMsg = ""
	m.state.Step = StepTime
	return Outcome{Render: true}
}

func (m *Machine) bookingCompleted(e BookingCompleted) Outcome {
	if !m.settle(e.Generation, opBook) {
		return Outcome{}
	}
	if e.Err != nil {
		msg := BookingErrorMessage(e.Err)
		m.fail(opBook, msg)
		return Outcome{Render: true, Notifications: []Notification{bookingError(msg)}}
	}
	detail := SubmittedDetail{}
	if e.Response != nil {
		detail.StartAt = e.Response.StartAt
	}
	if m.state.SelectedSlot != nil {
		detail.SlotTitle = m.state.SelectedSlot.Title
	}
	m.state.ErrorMsg = ""
	m.state.Step = StepSuccess
	return Outcome{
		Render:        true,
		Notifications: []Notification{{Name: EventSubmitted, Detail: detail}},
	}
}

func bookingError(msg string) Notification {
	return Notification{Name: EventError, Detail: ErrorDetail{Message: msg, Step: StepForm}}
}
