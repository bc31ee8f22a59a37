package render

import (
	"context"

	"brane-view/internal/invocation"
	"brane-view/internal/logger"
)

var log = logger.Named("render")

// State is the controller lifecycle state.
type State int

const (
	Unrendered State = iota
	Rendered
)

func (s State) String() string {
	if s == Rendered {
		return "rendered"
	}
	return "unrendered"
}

// Controller owns the last observed record of one display and decides
// whether an update warrants a repaint. It is not safe for concurrent use;
// updates for a display must arrive serially.
type Controller struct {
	displayID string
	projector Projector
	surface   Surface
	memo      *Memo

	last  *invocation.Record
	paint int
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSignature widens or replaces the change-detection key.
func WithSignature(sig Signature) Option {
	return func(c *Controller) {
		c.memo = NewMemo(sig)
	}
}

// NewController builds a controller in the Unrendered state.
func NewController(displayID string, projector Projector, surface Surface, opts ...Option) *Controller {
	c := &Controller{
		displayID: displayID,
		projector: projector,
		surface:   surface,
		memo:      NewMemo(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate observes a new snapshot. When its signature differs from the
// stored one it stores the record, paints the projected model and waits for
// the surface to signal completion. It reports whether a paint happened.
//
// A skipped update returns immediately. Cancelling ctx stops waiting on an
// in-flight paint without aborting it.
func (c *Controller) OnUpdate(ctx context.Context, rec invocation.Record) (bool, error) {
	if !c.memo.Changed(rec) {
		log.WithField("display", c.displayID).Debugf("status %s unchanged, skip", rec.Status)
		return false, nil
	}
	from := c.State()
	stored := rec
	c.last = &stored
	c.paint++

	model := c.projector.Project(rec)
	for _, issue := range model.Issues {
		log.WithField("display", c.displayID).Warnf("degraded field: %v", issue)
	}
	log.WithField("display", c.displayID).
		WithField("paint", c.paint).
		WithField("from", from).
		Infof("paint status=%s", rec.Status)

	done := c.surface.Paint(c.displayID, model)
	if done == nil {
		return true, nil
	}
	select {
	case <-done:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// State reports whether the controller has painted anything yet.
func (c *Controller) State() State {
	if c.last == nil {
		return Unrendered
	}
	return Rendered
}

// Terminal reports whether the stored record reached a terminal status.
// The controller keeps accepting updates afterwards.
func (c *Controller) Terminal() bool {
	return c.last != nil && c.last.Status.Terminal()
}
