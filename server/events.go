package server

import "github.com/marcabisamra/SocialAGI/observability"

// Server event types emitted for connection lifecycle and protocol handling.
const (
	EventConnect        observability.EventType = "server.connect"
	EventDisconnect     observability.EventType = "server.disconnect"
	EventUnknownSession observability.EventType = "server.session.unknown"
	EventEmptyMessage   observability.EventType = "server.message.empty"
	EventConfigUpdate   observability.EventType = "server.config.update"
	EventEmitDropped    observability.EventType = "server.emit.dropped"
	EventSpeechError    observability.EventType = "server.speech.error"
)
