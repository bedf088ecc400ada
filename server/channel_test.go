package server

import (
	"context"
	"sync"
	"testing"

	"github.com/marcabisamra/SocialAGI/core/protocol"
	"github.com/marcabisamra/SocialAGI/observability"
)

func TestEventChannel_SendReceive(t *testing.T) {
	ec := newEventChannel(context.Background(), 4)
	defer ec.Close()

	sent := protocol.NewEnvelope(protocol.EventThought, protocol.Thought{
		Type: protocol.ThoughtProcessing,
		Text: "considersResponse...",
	})
	if err := ec.Send(sent); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got, err := ec.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if got.Event != protocol.EventThought {
		t.Errorf("got event %q, want thought", got.Event)
	}
}

func TestEventChannel_SendAfterClose(t *testing.T) {
	ec := newEventChannel(context.Background(), 4)
	ec.Close()

	// Buffer space is free, so an accidental enqueue would succeed; every
	// post-close Send must still be refused.
	env := protocol.NewEnvelope(protocol.EventThought, nil)
	for i := 0; i < 1000; i++ {
		if err := ec.Send(env); err == nil {
			t.Fatalf("Send %d succeeded on a closed channel", i)
		}
	}
}

func TestEventChannel_ReceiveAfterClose(t *testing.T) {
	ec := newEventChannel(context.Background(), 4)
	ec.Close()

	if _, err := ec.Receive(); err == nil {
		t.Fatal("Receive succeeded on a closed channel")
	}
	if !ec.IsClosed() {
		t.Error("IsClosed reports an open channel after Close")
	}
}

// countingObserver tallies events by type.
type countingObserver struct {
	mu     sync.Mutex
	counts map[observability.EventType]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{counts: make(map[observability.EventType]int)}
}

func (o *countingObserver) OnEvent(ctx context.Context, event observability.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[event.Type]++
}

func (o *countingObserver) count(eventType observability.EventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[eventType]
}

func TestConn_EmitAfterCloseCountsDrop(t *testing.T) {
	observer := newCountingObserver()
	c := newConn(context.Background(), nil, observer)
	c.outbound.Close()

	// A background metacognition task emitting for a disconnected session
	// lands here: every emission must be dropped and counted, never queued.
	const emissions = 100
	env := protocol.NewEnvelope(protocol.EventThought, protocol.Thought{
		Type: protocol.ThoughtContemplating,
		Text: "Adapting my thinking process: reflectsOnMood",
	})
	for i := 0; i < emissions; i++ {
		c.Emit(env)
	}

	if got := observer.count(EventEmitDropped); got != emissions {
		t.Errorf("got %d dropped emissions counted, want %d", got, emissions)
	}
}
