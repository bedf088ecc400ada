package session

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/marcabisamra/SocialAGI/core/protocol"
)

type memorySession struct {
	id       string
	mu       sync.RWMutex
	messages []protocol.Message
	stages   []string
}

// NewMemorySession creates a Session backed by in-memory slices, seeded with
// a system-role record and the given initial stage names. The session is
// assigned a unique UUIDv7 identifier. Nothing is persisted: session state
// lives exactly as long as the connection that created it.
func NewMemorySession(systemPrompt string, stages []string) Session {
	return &memorySession{
		id:       uuid.Must(uuid.NewV7()).String(),
		messages: protocol.InitMessages(protocol.RoleSystem, systemPrompt),
		stages:   slices.Clone(stages),
	}
}

func (s *memorySession) ID() string {
	return s.id
}

func (s *memorySession) AddMessage(msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *memorySession) Messages() []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

func (s *memorySession) Stages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.stages)
}

func (s *memorySession) SetStages(stages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = slices.Clone(stages)
}
