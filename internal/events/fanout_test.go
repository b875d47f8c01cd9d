package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/lsv-booking-widget/internal/widget"
)

func TestFanout(t *testing.T) {
	var got []string
	record := func(name string, err error) widget.Notifier {
		return widget.NotifierFunc(func(_ context.Context, instanceID string, n widget.Notification) error {
			got = append(got, name+":"+instanceID+":"+n.Name)
			return err
		})
	}
	boom := errors.New("boom")

	notifier := Fanout(record("page", nil), nil, record("stream", boom), record("audit", nil))
	err := notifier.Notify(context.Background(), "inst-1", widget.Notification{Name: widget.EventSubmitted})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{
		"page:inst-1:lsv-booking-submitted",
		"stream:inst-1:lsv-booking-submitted",
		"audit:inst-1:lsv-booking-submitted",
	}, got)
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, Fanout().Notify(context.Background(), "inst-1", widget.Notification{Name: widget.EventError}))
}
