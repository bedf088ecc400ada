package server

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marcabisamra/SocialAGI/core/protocol"
	"github.com/marcabisamra/SocialAGI/observability"
)

const outboundBufferSize = 64

// conn is one client's message channel: a websocket carrying Envelope frames
// in both directions. Outbound events funnel through a buffered queue into a
// single writer goroutine, preserving the per-turn emission order. conn
// implements soul.Emitter.
type conn struct {
	id       string
	ws       *websocket.Conn
	outbound *eventChannel
	observer observability.Observer
}

func newConn(parent context.Context, ws *websocket.Conn, observer observability.Observer) *conn {
	return &conn{
		id:       uuid.Must(uuid.NewV7()).String(),
		ws:       ws,
		outbound: newEventChannel(parent, outboundBufferSize),
		observer: observer,
	}
}

// Emit queues an event for delivery. Fire-and-forget: an emission after the
// connection has closed is counted and dropped, never an error. Background
// metacognition for a disconnected session lands here.
func (c *conn) Emit(env protocol.Envelope) {
	if err := c.outbound.Send(env); err != nil {
		c.observer.OnEvent(context.Background(), observability.Event{
			Type:      EventEmitDropped,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "server.conn",
			Data:      map[string]any{"identity": c.id, "event": env.Event},
		})
	}
}

// writeLoop drains the outbound queue onto the websocket. Runs until the
// channel closes or a write fails.
func (c *conn) writeLoop() {
	for {
		env, err := c.outbound.Receive()
		if err != nil {
			return
		}
		if err := c.ws.WriteJSON(env); err != nil {
			c.outbound.Close()
			return
		}
	}
}

// readLoop decodes inbound envelopes and hands them to the registry until
// the peer disconnects. Runs on the handler goroutine; dispatching inline
// serializes foreground turns per connection.
func (c *conn) readLoop(ctx context.Context, registry *Registry) {
	for {
		var env protocol.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			return
		}

		switch env.Event {
		case protocol.EventMessage:
			var msg protocol.UserMessage
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				c.Emit(protocol.NewEnvelope(protocol.EventError, protocol.Error{
					Message: "malformed message payload",
				}))
				continue
			}

			// Empty input is rejected here, before the coordinator sees it.
			if strings.TrimSpace(msg.Message) == "" {
				c.observer.OnEvent(ctx, observability.Event{
					Type:      EventEmptyMessage,
					Level:     observability.LevelVerbose,
					Timestamp: time.Now(),
					Source:    "server.conn",
					Data:      map[string]any{"identity": c.id},
				})
				continue
			}

			registry.Dispatch(ctx, c.id, msg.Message, c)

		case protocol.EventUpdateConfig:
			// Advisory only: logged, no defined effect.
			var cfg map[string]any
			_ = json.Unmarshal(env.Data, &cfg)
			c.observer.OnEvent(ctx, observability.Event{
				Type:      EventConfigUpdate,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "server.conn",
				Data:      map[string]any{"identity": c.id, "keys": len(cfg)},
			})

		default:
			c.Emit(protocol.NewEnvelope(protocol.EventError, protocol.Error{
				Message: "unknown event: " + env.Event,
			}))
		}
	}
}

func (c *conn) close() {
	c.outbound.Close()
	_ = c.ws.Close()
}
