package events

import (
	"context"
	"log/slog"
	"sync"
)

// Visibility is implemented by anything that can be on screen.
type Visibility interface {
	Visible() bool
}

// VisibilityGate consumes events while any registered Visibility is visible,
// so a user already looking at the gallery is not also sent a notification.
type VisibilityGate struct {
	mu      sync.RWMutex
	targets []Visibility
	logger  *slog.Logger
}

// NewVisibilityGate creates a gate with no targets. An empty gate lets every event through.
func NewVisibilityGate(logger *slog.Logger) *VisibilityGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisibilityGate{logger: logger.With("component", "visibility_gate")}
}

// Register adds v to the targets checked on every event.
func (g *VisibilityGate) Register(v Visibility) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.targets = append(g.targets, v)
}

// Unregister removes v. Unknown targets are ignored.
func (g *VisibilityGate) Unregister(v Visibility) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, t := range g.targets {
		if t == v {
			g.targets = append(g.targets[:i], g.targets[i+1:]...)
			return
		}
	}
}

// AnyVisible reports whether a registered target is currently visible.
func (g *VisibilityGate) AnyVisible() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, t := range g.targets {
		if t.Visible() {
			return true
		}
	}
	return false
}

// HandleEvent implements EventHandler.
func (g *VisibilityGate) HandleEvent(_ context.Context, event *NewResultsEvent) error {
	if !g.AnyVisible() {
		return nil
	}
	g.logger.Debug("gallery visible, suppressing notification", "event_id", event.ID)
	return ErrConsumed
}
