package widget

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/lsv-booking-widget/internal/observability/metrics"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

const (
	inboxSize            = 32
	defaultNotifyTimeout = 5 * time.Second
)

// Frame is one complete render of an instance.
type Frame struct {
	InstanceID string
	Step       Step
	HTML       string
}

// View receives every frame an instance renders. Each frame replaces the
// previous one entirely.
type View interface {
	Render(ctx context.Context, f Frame) error
}

// Options configures a new Instance.
type Options struct {
	ID         string
	Attributes Attributes
	API        API
	View       View
	Notifier   Notifier
	Location   *time.Location
	Clock      func() time.Time
	Metrics    *metrics.WidgetMetrics
	Logger     *logging.Logger

	// AllowAPI vets the api-url before every request. Nil allows any URL.
	AllowAPI func(apiURL string) bool

	NotifyTimeout time.Duration
}

// Instance is one mounted widget. A single goroutine (Run) owns its state and
// handles gestures, attribute changes and network results in arrival order.
type Instance struct {
	id       string
	attrs    Attributes
	machine  *Machine
	loader   *Loader
	view     View
	notifier Notifier
	loc      *time.Location
	clock    func() time.Time
	metrics  *metrics.WidgetMetrics
	logger   *logging.Logger
	allowAPI func(string) bool

	notifyTimeout time.Duration

	inbox      chan any
	detach     chan struct{}
	detachOnce sync.Once
	done       chan struct{}
	effects    sync.WaitGroup
}

type (
	gestureMsg struct {
		action  string
		payload map[string]string
	}
	submitMsg    struct{ fields map[string]string }
	attributeMsg struct{ name, value string }
	snapshotMsg  struct{ reply chan State }
)

// NewInstance creates an unattached instance. Call Run to attach it.
func NewInstance(opts Options) *Instance {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	logger := opts.Logger.With("instance_id", opts.ID)
	return &Instance{
		id:            opts.ID,
		attrs:         opts.Attributes,
		machine:       NewMachine(opts.Location),
		loader:        NewLoader(opts.API, opts.Metrics, logger),
		view:          opts.View,
		notifier:      opts.Notifier,
		loc:           opts.Location,
		clock:         opts.Clock,
		metrics:       opts.Metrics,
		logger:        logger,
		allowAPI:      opts.AllowAPI,
		notifyTimeout: opts.NotifyTimeout,
		inbox:         make(chan any, inboxSize),
		detach:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// ID returns the instance identifier.
func (i *Instance) ID() string { return i.id }

// Done is closed once Run has returned and every outstanding request has
// been abandoned.
func (i *Instance) Done() <-chan struct{} { return i.done }

// Run attaches the instance: it resets the state, starts the slot load and
// processes messages until Detach is called or ctx ends. It must be called
// once.
func (i *Instance) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		i.effects.Wait()
		close(i.done)
	}()

	i.metrics.InstanceAttached()
	defer i.metrics.InstanceDetached()
	i.logger.Info("widget: attached", "resource_path", i.attrs.ResourcePath())

	i.apply(ctx, Reset{})
	for {
		select {
		case <-ctx.Done():
			i.logger.Info("widget: context ended", "error", ctx.Err())
			return ctx.Err()
		case <-i.detach:
			i.logger.Info("widget: detached")
			return nil
		case msg := <-i.inbox:
			i.handle(ctx, msg)
		}
	}
}

// Detach tears the instance down. Responses still in flight are discarded.
func (i *Instance) Detach() {
	i.detachOnce.Do(func() { close(i.detach) })
}

// Gesture delivers a click on an element tagged with data-action.
func (i *Instance) Gesture(action string, payload map[string]string) bool {
	return i.post(gestureMsg{action: action, payload: payload})
}

// SubmitForm delivers the contact form values.
func (i *Instance) SubmitForm(fields map[string]string) bool {
	return i.post(submitMsg{fields: fields})
}

// SetAttribute delivers a host attribute change on a mounted instance.
func (i *Instance) SetAttribute(name, value string) bool {
	return i.post(attributeMsg{name: name, value: value})
}

// Snapshot returns a copy of the current state, or false once the instance
// has stopped.
func (i *Instance) Snapshot() (State, bool) {
	reply := make(chan State, 1)
	if !i.post(snapshotMsg{reply: reply}) {
		return State{}, false
	}
	select {
	case s := <-reply:
		return s, true
	case <-i.done:
		return State{}, false
	}
}

func (i *Instance) post(msg any) bool {
	select {
	case <-i.detach:
		return false
	case <-i.done:
		return false
	default:
	}
	select {
	case i.inbox <- msg:
		return true
	case <-i.detach:
		return false
	case <-i.done:
		return false
	}
}

func (i *Instance) handle(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case Event:
		i.apply(ctx, m)
	case gestureMsg:
		ev, ok := Dispatch(m.action, m.payload)
		if !ok {
			i.metrics.ObserveGesture(m.action, false)
			return
		}
		i.metrics.ObserveGesture(m.action, i.apply(ctx, ev))
	case submitMsg:
		contact, ok := ParseContact(m.fields)
		if !ok {
			i.metrics.ObserveGesture("submit", false)
			return
		}
		i.metrics.ObserveGesture("submit", i.apply(ctx, Submit{Contact: contact}))
	case attributeMsg:
		i.attributeChanged(ctx, m.name, m.value)
	case snapshotMsg:
		m.reply <- i.machine.State()
	}
}

// apply runs one transition and its consequences: re-render, notifications,
// then the network effect. It reports whether anything changed.
func (i *Instance) apply(ctx context.Context, ev Event) bool {
	out := i.machine.Apply(ev)
	if out.Render {
		i.render(ctx)
	}
	for _, n := range out.Notifications {
		i.notify(ctx, n)
	}
	if out.Effect != nil {
		i.launch(ctx, out.Effect)
	}
	return out.Render || out.Effect != nil
}

func (i *Instance) launch(ctx context.Context, eff Effect) {
	// Built now so the request reflects the attributes at the time of the
	// transition.
	target := i.attrs.ResourcePath()
	allowed := i.allowAPI == nil || i.allowAPI(i.attrs.APIURL)
	i.effects.Add(1)
	go func() {
		defer i.effects.Done()
		var ev Event
		if allowed {
			ev = i.loader.Execute(ctx, target, eff)
		} else {
			ev = i.loader.Refuse(eff, ErrAPINotAllowed)
		}
		select {
		case i.inbox <- ev:
		case <-ctx.Done():
		}
	}()
}

func (i *Instance) attributeChanged(ctx context.Context, name, value string) {
	old, observed := i.attrs.Get(name)
	if !observed {
		return
	}
	change := ClassifyAttributeChange(name, old, value)
	if change == ChangeNone {
		return
	}
	i.attrs.Set(name, value)
	switch change {
	case ChangeRender:
		i.render(ctx)
	case ChangeReset:
		i.logger.Info("widget: configuration changed, resetting", "attribute", name)
		i.apply(ctx, Reset{})
	}
}

func (i *Instance) render(ctx context.Context) {
	if i.view == nil {
		return
	}
	state := i.machine.State()
	markup, err := RenderHTML(state, ViewContext{
		Now:      i.clock(),
		Location: i.loc,
		Theme:    i.attrs.ThemeValue(),
	})
	if err != nil {
		i.logger.Error("widget: render failed", "error", err)
		return
	}
	if err := i.view.Render(ctx, Frame{InstanceID: i.id, Step: state.Step, HTML: markup}); err != nil {
		i.logger.Debug("widget: frame not delivered", "error", err)
	}
}

func (i *Instance) notify(ctx context.Context, n Notification) {
	i.metrics.ObserveNotification(n.Name)
	if i.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(ctx, i.notifyTimeout)
	defer cancel()
	if err := i.notifier.Notify(nctx, i.id, n); err != nil {
		i.logger.Warn("widget: notification not delivered", "event", n.Name, "error", err)
	}
}
