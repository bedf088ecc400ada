package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/marcabisamra/SocialAGI/core/protocol"
	"github.com/marcabisamra/SocialAGI/server"
	"github.com/marcabisamra/SocialAGI/soul"
)

// recordingEmitter captures emitted envelopes in order.
type recordingEmitter struct {
	mu        sync.Mutex
	envelopes []protocol.Envelope
}

func (e *recordingEmitter) Emit(env protocol.Envelope) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.envelopes = append(e.envelopes, env)
}

func (e *recordingEmitter) all() []protocol.Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]protocol.Envelope(nil), e.envelopes...)
}

func (e *recordingEmitter) byEvent(event string) []protocol.Envelope {
	var out []protocol.Envelope
	for _, env := range e.all() {
		if env.Event == event {
			out = append(out, env)
		}
	}
	return out
}

// echoGateway produces canned cognition and keeps the thought process.
type echoGateway struct {
	dialogErr error
}

func (g *echoGateway) InternalMonologue(ctx context.Context, history []protocol.Message, instruction string) (string, error) {
	return "a private thought", nil
}

func (g *echoGateway) ExternalDialog(ctx context.Context, history []protocol.Message, instruction string) (string, error) {
	if g.dialogErr != nil {
		return "", g.dialogErr
	}
	return "Nice to meet you!", nil
}

func (g *echoGateway) Decision(ctx context.Context, history []protocol.Message, prompt string, choices []string) (string, error) {
	return soul.ChoiceKeepProcessTheSame, nil
}

func (g *echoGateway) Brainstorm(ctx context.Context, history []protocol.Message, prompt string) ([]string, error) {
	return nil, errors.New("should not be called")
}

func TestRegistry_OnConnect(t *testing.T) {
	registry := server.NewRegistry(nil)
	emitter := &recordingEmitter{}

	s := registry.OnConnect("conn-1", soul.Samantha, &echoGateway{}, emitter)
	if s == nil {
		t.Fatal("OnConnect returned nil soul")
	}
	if registry.Len() != 1 {
		t.Errorf("got %d sessions, want 1", registry.Len())
	}

	connected := emitter.byEvent(protocol.EventConnected)
	if len(connected) != 1 {
		t.Fatalf("got %d connected events, want 1", len(connected))
	}

	var payload protocol.Connected
	if err := json.Unmarshal(connected[0].Data, &payload); err != nil {
		t.Fatalf("bad connected payload: %v", err)
	}
	if payload.SoulName != "Samantha" {
		t.Errorf("got soul name %q, want Samantha", payload.SoulName)
	}
}

func TestRegistry_Dispatch_EmitsResponse(t *testing.T) {
	registry := server.NewRegistry(nil)
	emitter := &recordingEmitter{}
	registry.OnConnect("conn-1", soul.Samantha, &echoGateway{}, emitter,
		soul.WithStageDelay(0))

	registry.Dispatch(context.Background(), "conn-1", "Hello!", emitter)

	responses := emitter.byEvent(protocol.EventResponse)
	if len(responses) != 1 {
		t.Fatalf("got %d response events, want 1", len(responses))
	}

	var payload protocol.Response
	if err := json.Unmarshal(responses[0].Data, &payload); err != nil {
		t.Fatalf("bad response payload: %v", err)
	}
	if payload.Message != "Nice to meet you!" {
		t.Errorf("got message %q, want %q", payload.Message, "Nice to meet you!")
	}
	if payload.Timestamp == "" {
		t.Error("response has no timestamp")
	}
}

func TestRegistry_Dispatch_UnknownSession(t *testing.T) {
	registry := server.NewRegistry(nil)
	emitter := &recordingEmitter{}

	registry.Dispatch(context.Background(), "ghost", "Hello!", emitter)

	errs := emitter.byEvent(protocol.EventError)
	if len(errs) != 1 {
		t.Fatalf("got %d error events, want 1", len(errs))
	}
	if len(emitter.byEvent(protocol.EventResponse)) != 0 {
		t.Error("response event emitted for unknown session")
	}
}

func TestRegistry_Dispatch_TurnFailure_NoResponse(t *testing.T) {
	registry := server.NewRegistry(nil)
	emitter := &recordingEmitter{}
	registry.OnConnect("conn-1", soul.Samantha, &echoGateway{dialogErr: errors.New("model unavailable")}, emitter,
		soul.WithStageDelay(0))

	registry.Dispatch(context.Background(), "conn-1", "Hello!", emitter)

	if len(emitter.byEvent(protocol.EventResponse)) != 0 {
		t.Error("response event emitted for a failed turn")
	}
	if len(emitter.byEvent(protocol.EventError)) != 1 {
		t.Error("expected exactly one error event")
	}
}

func TestRegistry_Dispatch_ConcurrentTurnRejected(t *testing.T) {
	registry := server.NewRegistry(nil)
	emitter := &recordingEmitter{}

	release := make(chan struct{})
	started := make(chan struct{})
	gw := &echoGateway{}
	registry.OnConnect("conn-1", soul.Samantha, &blockingGateway{
		Gateway: gw,
		started: started,
		release: release,
	}, emitter, soul.WithStageDelay(0))

	done := make(chan struct{})
	go func() {
		registry.Dispatch(context.Background(), "conn-1", "first", emitter)
		close(done)
	}()

	<-started
	registry.Dispatch(context.Background(), "conn-1", "second", emitter)

	// The rejected turn must be audible: exactly one error event, no second
	// response.
	errs := emitter.byEvent(protocol.EventError)
	if len(errs) != 1 {
		t.Fatalf("got %d error events for the rejected turn, want 1", len(errs))
	}

	close(release)
	<-done
	if len(emitter.byEvent(protocol.EventResponse)) != 1 {
		t.Error("first turn did not produce its response")
	}
}

// blockingGateway holds the first monologue until released.
type blockingGateway struct {
	soul.Gateway
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *blockingGateway) InternalMonologue(ctx context.Context, history []protocol.Message, instruction string) (string, error) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	return g.Gateway.InternalMonologue(ctx, history, instruction)
}

func TestRegistry_OnDisconnect(t *testing.T) {
	registry := server.NewRegistry(nil)
	emitter := &recordingEmitter{}
	registry.OnConnect("conn-1", soul.Samantha, &echoGateway{}, emitter)

	registry.OnDisconnect("conn-1")

	if registry.Len() != 0 {
		t.Errorf("got %d sessions after disconnect, want 0", registry.Len())
	}

	// A message after disconnect is a protocol violation, not a turn.
	registry.Dispatch(context.Background(), "conn-1", "Hello!", emitter)
	if len(emitter.byEvent(protocol.EventError)) != 1 {
		t.Error("expected an error event for a discarded session")
	}
}

func TestRegistry_ReconnectYieldsFreshSession(t *testing.T) {
	registry := server.NewRegistry(nil)
	gw := &echoGateway{}

	first := registry.OnConnect("conn-1", soul.Samantha, gw, &recordingEmitter{},
		soul.WithStageDelay(0))
	registry.Dispatch(context.Background(), "conn-1", "Hello!", &recordingEmitter{})
	if got := len(first.Session().Messages()); got != 3 {
		t.Fatalf("got %d memory entries after one turn, want 3", got)
	}

	registry.OnDisconnect("conn-1")
	second := registry.OnConnect("conn-1", soul.Samantha, gw, &recordingEmitter{})

	if second.Session().ID() == first.Session().ID() {
		t.Error("reconnect reused the discarded session")
	}
	if got := len(second.Session().Messages()); got != 1 {
		t.Errorf("fresh session has %d memory entries, want 1 seeded entry", got)
	}
}
