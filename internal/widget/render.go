package widget

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wolfman30/lsv-booking-widget/internal/theme"
)

// FormID identifies the contact form in the rendered tree.
const FormID = "lsv-booking-form"

var dayLabels = [7]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// ViewContext carries the inputs a render needs besides the state.
type ViewContext struct {
	Now      time.Time
	Location *time.Location
	Theme    theme.Theme
}

// Render builds the complete visual tree for s. The result is a document
// node holding the stylesheet and the widget root; it replaces whatever was
// rendered before. Render never mutates s.
func Render(s State, vc ViewContext) *html.Node {
	if vc.Location == nil {
		vc.Location = time.UTC
	}
	if vc.Now.IsZero() {
		vc.Now = time.Now()
	}

	doc := &html.Node{Type: html.DocumentNode}
	style := element(atom.Style)
	style.AppendChild(textNode(theme.Stylesheet(vc.Theme)))
	doc.AppendChild(style)

	root := element(atom.Div, "class", "widget", "data-theme", string(vc.Theme), "data-step", string(s.Step))
	doc.AppendChild(root)

	if s.Step == StepSuccess {
		root.AppendChild(renderSuccess())
		return doc
	}

	root.AppendChild(renderStepIndicator(s.Step))
	switch {
	case s.IsLoading:
		root.AppendChild(renderLoading())
	case s.ErrorMsg != "":
		root.AppendChild(renderError(s.ErrorMsg))
	default:
		switch s.Step {
		case StepSlots:
			root.AppendChild(renderSlots(s))
		case StepDate:
			root.AppendChild(renderDate(s, vc))
		case StepTime:
			root.AppendChild(renderTime(s, vc))
		case StepForm:
			root.AppendChild(renderForm(s, vc))
		}
	}
	return doc
}

// RenderHTML serialises Render's tree.
func RenderHTML(s State, vc ViewContext) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, Render(s, vc)); err != nil {
		return "", fmt.Errorf("render widget: %w", err)
	}
	return b.String(), nil
}

func renderStepIndicator(step Step) *html.Node {
	current := -1
	for i, st := range progressSteps {
		if st == step {
			current = i
		}
	}
	div := element(atom.Div, "class", "step-indicator")
	for i, st := range progressSteps {
		class := "step-dot"
		switch {
		case i == current:
			class += " active"
		case i < current:
			class += " done"
		}
		div.AppendChild(element(atom.Div, "class", class, "data-step", string(st)))
	}
	return div
}

func renderLoading() *html.Node {
	div := element(atom.Div, "class", "loading")
	div.AppendChild(element(atom.Div, "class", "spinner"))
	div.AppendChild(withText(element(atom.Span), "Loading…"))
	return div
}

func renderError(msg string) *html.Node {
	wrapper := element(atom.Div)
	wrapper.AppendChild(withText(element(atom.Div, "class", "error-box"), msg))
	wrapper.AppendChild(withText(element(atom.Button, "type", "button", "class", "btn-retry", "data-action", "retry"), "Try again"))
	return wrapper
}

func renderSlots(s State) *html.Node {
	wrapper := element(atom.Div)
	wrapper.AppendChild(withText(element(atom.P, "class", "section-title"), "Choose a booking type"))

	if len(s.Slots) == 0 {
		wrapper.AppendChild(withText(element(atom.P, "class", "empty-msg"), "No booking slots available."))
		return wrapper
	}

	list := element(atom.Div, "class", "slot-list")
	for _, slot := range s.Slots {
		card := element(atom.Button, "type", "button", "class", "slot-card", "data-action", "select-slot", "data-slot-id", slot.ID)
		card.AppendChild(withText(element(atom.P, "class", "slot-card-title"), slot.Title))
		if slot.Description != "" {
			card.AppendChild(withText(element(atom.P, "class", "slot-card-meta slot-card-desc"), slot.Description))
		}
		meta := fmt.Sprintf("%d min  ·  %s  ·  %s–%s", slot.DurationMin, FormatDayList(slot.DaysOfWeek), slot.StartTime, slot.EndTime)
		card.AppendChild(withText(element(atom.P, "class", "slot-card-meta"), meta))
		list.AppendChild(card)
	}
	wrapper.AppendChild(list)
	return wrapper
}

func renderDate(s State, vc ViewContext) *html.Node {
	wrapper := element(atom.Div)
	wrapper.AppendChild(backButton("back-to-slots"))
	wrapper.AppendChild(withText(element(atom.P, "class", "section-title"), "Select a date"))

	grid := element(atom.Div, "class", "date-grid")
	for _, label := range dayLabels {
		grid.AppendChild(withText(element(atom.Div, "class", "date-header"), label))
	}

	dates := NextDates(vc.Now, vc.Location)
	// Pad so the first day lines up under its weekday column.
	for i := time.Sunday; i < dates[0].Weekday; i++ {
		grid.AppendChild(element(atom.Div, "class", "date-cell empty"))
	}
	for _, d := range dates {
		allowed := IsDateAllowed(s.SelectedSlot, d.Weekday)
		class := "date-cell"
		if !allowed {
			class += " disabled"
		}
		if d.Date == s.SelectedDate {
			class += " selected"
		}
		cell := element(atom.Button, "type", "button", "class", class, "title", d.Label)
		if allowed {
			setAttr(cell, "data-action", "select-date")
			setAttr(cell, "data-date", d.Date)
		} else {
			setAttr(cell, "disabled", "")
		}
		grid.AppendChild(withText(cell, strconv.Itoa(d.Day)))
	}
	wrapper.AppendChild(grid)
	return wrapper
}

func renderTime(s State, vc ViewContext) *html.Node {
	wrapper := element(atom.Div)
	wrapper.AppendChild(backButton("back-to-date"))
	wrapper.AppendChild(withText(element(atom.P, "class", "section-title"), "Available times · "+FormatDate(s.SelectedDate)))

	if len(s.AvailableTimes) == 0 {
		wrapper.AppendChild(withText(element(atom.P, "class", "empty-msg"), "No times available on this date. Try another day."))
	} else {
		grid := element(atom.Div, "class", "time-grid")
		for _, t := range s.AvailableTimes {
			class := "time-btn"
			if t == s.SelectedTime {
				class += " selected"
			}
			btn := element(atom.Button, "type", "button", "class", class, "data-action", "select-time", "data-time", t)
			grid.AppendChild(withText(btn, FormatTime(t, vc.Location)))
		}
		wrapper.AppendChild(grid)
	}

	if s.SelectedTime != "" {
		actions := element(atom.Div, "class", "actions")
		actions.AppendChild(withText(element(atom.Button, "type", "button", "class", "btn-primary", "data-action", "go-to-form"), "Continue"))
		wrapper.AppendChild(actions)
	}
	return wrapper
}

func renderForm(s State, vc ViewContext) *html.Node {
	wrapper := element(atom.Div)
	wrapper.AppendChild(backButton("back-to-time"))

	summary := element(atom.Div, "class", "booking-summary")
	title := ""
	requirePhone := false
	if s.SelectedSlot != nil {
		title = s.SelectedSlot.Title
		requirePhone = s.SelectedSlot.RequirePhone
	}
	summary.AppendChild(withText(element(atom.Strong), title))
	summary.AppendChild(withText(element(atom.Span), FormatDate(s.SelectedDate)+" at "+FormatTime(s.SelectedTime, vc.Location)))
	wrapper.AppendChild(summary)

	form := element(atom.Form, "id", FormID)
	form.AppendChild(formField(fieldName, "Full name", "text", true))
	form.AppendChild(formField(fieldEmail, "Email address", "email", true))
	if requirePhone {
		form.AppendChild(formField(fieldPhone, "Phone number", "tel", true))
	}

	notes := element(atom.Div, "class", "form-group")
	notes.AppendChild(withText(element(atom.Label, "class", "form-label", "for", "lsv-notes"), "Notes (optional)"))
	notes.AppendChild(element(atom.Textarea, "class", "form-textarea", "id", "lsv-notes", "name", fieldNotes, "rows", "3", "placeholder", "Anything you'd like to share…"))
	form.AppendChild(notes)

	actions := element(atom.Div, "class", "actions")
	actions.AppendChild(withText(element(atom.Button, "type", "submit", "class", "btn-primary"), "Confirm Booking"))
	form.AppendChild(actions)

	wrapper.AppendChild(form)
	return wrapper
}

func formField(name, label, inputType string, required bool) *html.Node {
	group := element(atom.Div, "class", "form-group")
	text := label
	if required {
		text += " *"
	}
	group.AppendChild(withText(element(atom.Label, "class", "form-label", "for", "lsv-"+name), text))

	autocomplete := "off"
	switch name {
	case fieldName:
		autocomplete = "name"
	case fieldEmail:
		autocomplete = "email"
	case fieldPhone:
		autocomplete = "tel"
	}
	input := element(atom.Input, "class", "form-input", "type", inputType, "id", "lsv-"+name, "name", name, "autocomplete", autocomplete)
	if required {
		setAttr(input, "required", "")
	}
	group.AppendChild(input)
	return group
}

func renderSuccess() *html.Node {
	view := element(atom.Div, "class", "success-view")
	view.AppendChild(withText(element(atom.Div, "class", "success-icon"), "✓"))
	view.AppendChild(withText(element(atom.P, "class", "success-title"), "Booking requested!"))
	view.AppendChild(withText(element(atom.P, "class", "success-msg"), "Check your email to confirm your booking."))
	return view
}

func backButton(action string) *html.Node {
	return withText(element(atom.Button, "type", "button", "class", "btn-back", "data-action", action), "← Back")
}

// element creates a node for a; attrs are key/value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(textNode(s))
	return n
}
