// Package session manages per-connection conversational state: the
// append-only dialog memory and the mutable list of reasoning stages a soul
// runs before speaking.
package session

import (
	"github.com/marcabisamra/SocialAGI/core/protocol"
)

// Session holds one connected client's conversation state. Memory is an
// ordered, append-only sequence of role-tagged records seeded with a system
// entry; the stage list is replaced wholesale by background metacognition.
// Implementations must be safe for concurrent use: a background metacognition
// task may read and write while a foreground turn is running.
type Session interface {
	// ID returns the unique session identifier.
	ID() string
	// AddMessage appends a record to the dialog memory.
	AddMessage(msg protocol.Message)
	// Messages returns a defensive copy of the dialog memory.
	Messages() []protocol.Message
	// Stages returns a snapshot of the current reasoning stage names.
	Stages() []string
	// SetStages replaces the reasoning stage list wholesale.
	SetStages(stages []string)
}
