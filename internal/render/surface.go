package render

import "brane-view/internal/invocation"

// Surface is anything that can paint a presentation model. Paint returns a
// single-shot completion signal: the channel is closed once the paint has
// been applied. A nil channel means the paint completed synchronously.
type Surface interface {
	Paint(displayID string, model invocation.Model) <-chan struct{}
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(displayID string, model invocation.Model) <-chan struct{}

func (f SurfaceFunc) Paint(displayID string, model invocation.Model) <-chan struct{} {
	return f(displayID, model)
}

// Projector turns a record into a presentation model.
type Projector interface {
	Project(rec invocation.Record) invocation.Model
}

// Done returns an already-closed completion channel.
func Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
