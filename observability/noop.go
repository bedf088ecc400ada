package observability

import "context"

// NoOpObserver discards all events with zero overhead. It is the default for
// souls, connections, and the registry when no observer is injected.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
