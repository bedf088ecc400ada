package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marcabisamra/SocialAGI/core/protocol"
	"github.com/marcabisamra/SocialAGI/observability"
	"github.com/marcabisamra/SocialAGI/soul"
)

// Registry maps channel identities to their session coordinators. Sessions
// are created eagerly on connect and discarded on disconnect; nothing
// survives a reconnect. Thread-safe: connect and disconnect are single
// atomic insert/remove operations.
type Registry struct {
	mu       sync.RWMutex
	souls    map[string]*soul.Soul
	observer observability.Observer
}

// NewRegistry creates an empty Registry reporting to the given observer.
func NewRegistry(observer observability.Observer) *Registry {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Registry{
		souls:    make(map[string]*soul.Soul),
		observer: observer,
	}
}

// OnConnect creates a fresh soul for the identity, stores it, and emits the
// connected event naming the persona. An existing soul under the same
// identity is replaced; channel identities are unique per active connection.
func (r *Registry) OnConnect(identity string, bp soul.Blueprint, gateway soul.Gateway, emitter soul.Emitter, opts ...soul.Option) *soul.Soul {
	s := soul.New(bp, gateway, emitter, opts...)

	r.mu.Lock()
	r.souls[identity] = s
	r.mu.Unlock()

	emitter.Emit(protocol.NewEnvelope(protocol.EventConnected, protocol.Connected{
		Message:  "Connected to AI Soul backend",
		SoulName: bp.Name,
	}))

	r.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventConnect,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "server.Registry",
		Data:      map[string]any{"identity": identity, "soul": bp.Name},
	})

	return s
}

// OnDisconnect removes and discards the identity's soul. An in-flight
// background metacognition task keeps its reference and runs to completion;
// its result is dropped along with the discarded session.
func (r *Registry) OnDisconnect(identity string) {
	r.mu.Lock()
	_, existed := r.souls[identity]
	delete(r.souls, identity)
	r.mu.Unlock()

	if existed {
		r.observer.OnEvent(context.Background(), observability.Event{
			Type:      EventDisconnect,
			Level:     observability.LevelInfo,
			Timestamp: time.Now(),
			Source:    "server.Registry",
			Data:      map[string]any{"identity": identity},
		})
	}
}

// Dispatch forwards a user utterance to the identity's coordinator and emits
// the final response event. A message from an untracked identity is a
// protocol violation: an error event is emitted and nothing else happens.
// Gateway failures are not re-reported here; the coordinator already emitted
// the error event for them. A turn rejected because one is already running
// gets its error event here instead.
func (r *Registry) Dispatch(ctx context.Context, identity, text string, emitter soul.Emitter) {
	r.mu.RLock()
	s, exists := r.souls[identity]
	r.mu.RUnlock()

	if !exists {
		emitter.Emit(protocol.NewEnvelope(protocol.EventError, protocol.Error{
			Message: "AI Soul not found",
		}))
		r.observer.OnEvent(ctx, observability.Event{
			Type:      EventUnknownSession,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "server.Registry",
			Data:      map[string]any{"identity": identity},
		})
		return
	}

	response, err := s.ProcessMessage(ctx, text)
	if err != nil {
		// The coordinator already emitted the error event for gateway
		// failures. A rejected concurrent turn never reached the
		// coordinator's emit path, so it is reported here.
		if errors.Is(err, soul.ErrTurnInFlight) {
			emitter.Emit(protocol.NewEnvelope(protocol.EventError, protocol.Error{
				Message: err.Error(),
			}))
		}
		return
	}

	emitter.Emit(protocol.NewEnvelope(protocol.EventResponse, protocol.NewResponse(response)))
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.souls)
}
