package render

import (
	"context"
	"sync"

	"brane-view/internal/invocation"
)

// Registry keeps one controller per display id.
type Registry struct {
	mu          sync.Mutex
	projector   Projector
	surface     Surface
	opts        []Option
	controllers map[string]*Controller
}

func NewRegistry(projector Projector, surface Surface, opts ...Option) *Registry {
	return &Registry{
		projector:   projector,
		surface:     surface,
		opts:        opts,
		controllers: map[string]*Controller{},
	}
}

// Handle routes a fragment to its display. A first display starts a fresh
// controller for the id; an update goes to the existing controller, creating
// one when the id was never seen.
func (r *Registry) Handle(ctx context.Context, frag invocation.Fragment) (bool, error) {
	c := r.controllerFor(frag.DisplayID, !frag.Update)
	return c.OnUpdate(ctx, frag.Record)
}

func (r *Registry) controllerFor(displayID string, fresh bool) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[displayID]; ok && !fresh {
		return c
	}
	c := NewController(displayID, r.projector, r.surface, r.opts...)
	r.controllers[displayID] = c
	return c
}

// AllTerminal reports whether every known display reached a terminal status.
// An empty registry is not terminal. Call it from the goroutine that drives
// Handle.
func (r *Registry) AllTerminal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.controllers) == 0 {
		return false
	}
	for _, c := range r.controllers {
		if !c.Terminal() {
			return false
		}
	}
	return true
}
