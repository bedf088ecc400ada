package server

import (
	"context"
	"sync/atomic"

	"github.com/marcabisamra/SocialAGI/core/protocol"
)

// eventChannel is the buffered, session-scoped queue between a soul's event
// emissions and the connection's single writer goroutine. Closing cancels the
// channel context rather than closing the underlying chan, so late emissions
// from a background metacognition task block briefly and drop instead of
// panicking.
type eventChannel struct {
	channel chan protocol.Envelope
	ctx     context.Context
	cancel  context.CancelFunc
	closed  atomic.Bool
}

func newEventChannel(parent context.Context, bufferSize int) *eventChannel {
	ctx, cancel := context.WithCancel(parent)
	return &eventChannel{
		channel: make(chan protocol.Envelope, bufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Send enqueues an envelope for delivery. Returns the channel context error
// once the channel is closed. The closed check comes first: with buffer space
// free, a bare select would pick between the enqueue and the cancelled
// context at random, silently accepting events nothing will ever drain.
func (ec *eventChannel) Send(env protocol.Envelope) error {
	if err := ec.ctx.Err(); err != nil {
		return err
	}
	select {
	case ec.channel <- env:
		return nil
	case <-ec.ctx.Done():
		return ec.ctx.Err()
	}
}

// Receive dequeues the next envelope, blocking until one arrives or the
// channel is closed.
func (ec *eventChannel) Receive() (protocol.Envelope, error) {
	select {
	case env := <-ec.channel:
		return env, nil
	case <-ec.ctx.Done():
		return protocol.Envelope{}, ec.ctx.Err()
	}
}

func (ec *eventChannel) Close() {
	if ec.closed.CompareAndSwap(false, true) {
		ec.cancel()
	}
}

func (ec *eventChannel) IsClosed() bool {
	return ec.closed.Load()
}
