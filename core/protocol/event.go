// Package protocol defines the dialog memory records and the wire events
// exchanged between the relay server and a connected client. Each frame is an
// Envelope naming the event and carrying its JSON payload.
package protocol

import (
	"encoding/json"
	"time"
)

// Event names carried in Envelope.Event.
const (
	// Server to client.
	EventConnected = "connected"
	EventThought   = "thought"
	EventResponse  = "response"
	EventError     = "error"

	// Client to server.
	EventMessage      = "message"
	EventUpdateConfig = "updateConfig"
)

// ThoughtType classifies a thought progress notification.
type ThoughtType string

const (
	// ThoughtProcessing announces that a reasoning stage is starting.
	ThoughtProcessing ThoughtType = "processing"
	// ThoughtThinking carries the text a reasoning stage produced.
	ThoughtThinking ThoughtType = "thinking"
	// ThoughtContemplating reports a background revision of the stage list.
	ThoughtContemplating ThoughtType = "contemplating"
)

// Envelope is the JSON frame carried over the message channel in both
// directions. Data holds the event payload, encoded per the payload types
// below.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope wraps an event payload into an Envelope. Marshal failures are
// impossible for the payload types in this package, so they surface as an
// envelope carrying null data rather than an error return.
func NewEnvelope(event string, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return Envelope{Event: event, Data: data}
}

// Connected is the payload of the "connected" event, sent once per session
// the moment the channel is established.
type Connected struct {
	Message  string `json:"message"`
	SoulName string `json:"soulName"`
}

// Thought is the payload of a "thought" progress event.
type Thought struct {
	Type  ThoughtType `json:"type"`
	Text  string      `json:"text"`
	Stage string      `json:"stage"`
}

// Response is the payload of the final "response" event of a turn.
type Response struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewResponse creates a Response stamped with the current time in RFC 3339
// format.
func NewResponse(message string) Response {
	return Response{
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Error is the payload of an "error" event.
type Error struct {
	Message string `json:"message"`
}

// UserMessage is the payload of the inbound "message" event.
type UserMessage struct {
	Message string `json:"message"`
}
