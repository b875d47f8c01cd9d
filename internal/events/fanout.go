package events

import (
	"context"
	"errors"

	"github.com/wolfman30/lsv-booking-widget/internal/widget"
)

// Fanout delivers each notification to every notifier in order. All notifiers
// are attempted; their errors are joined.
func Fanout(notifiers ...widget.Notifier) widget.Notifier {
	var targets []widget.Notifier
	for _, n := range notifiers {
		if n != nil {
			targets = append(targets, n)
		}
	}
	return widget.NotifierFunc(func(ctx context.Context, instanceID string, n widget.Notification) error {
		var errs []error
		for _, target := range targets {
			if err := target.Notify(ctx, instanceID, n); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
