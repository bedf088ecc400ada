// Package soul implements the per-connection session coordinator: it drives a
// conversational turn through the session's internal reasoning stages, emits
// progress events over the message channel, and runs a background
// metacognition step that may rewrite the stage list itself.
//
// The hard reasoning is delegated to a Gateway; this package owns only the
// turn protocol, its ordering guarantees, and its failure semantics.
package soul

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/marcabisamra/SocialAGI/core/protocol"
	"github.com/marcabisamra/SocialAGI/observability"
	"github.com/marcabisamra/SocialAGI/session"
)

// DefaultStages is the reasoning stage list every new session starts with.
var DefaultStages = []string{"considersResponse"}

const defaultStageDelay = 5 * time.Millisecond

// Emitter delivers a one-way event to the session's client. Delivery is
// fire-and-forget: no acknowledgment, no retry. Implementations must tolerate
// emission after the underlying channel has closed.
type Emitter interface {
	Emit(env protocol.Envelope)
}

// Option configures a Soul after construction.
type Option func(*Soul)

// WithObserver overrides the default no-op observer.
func WithObserver(o observability.Observer) Option {
	return func(s *Soul) { s.observer = o }
}

// WithStageDelay overrides the pause inserted between reasoning stages. The
// pause only paces the event stream for presentation; it carries no
// correctness weight.
func WithStageDelay(d time.Duration) Option {
	return func(s *Soul) { s.stageDelay = d }
}

// WithSession overrides the session created from the blueprint. Used by tests
// to pre-seed dialog state.
func WithSession(sess session.Session) Option {
	return func(s *Soul) { s.session = sess }
}

// Soul coordinates one session's conversational turns. It guarantees the
// strict per-turn event order: one processing/thinking thought pair per
// reasoning stage, a responding announcement, then exactly one response —
// unless a gateway failure truncates the sequence with an error event.
type Soul struct {
	blueprint  Blueprint
	session    session.Session
	gateway    Gateway
	emitter    Emitter
	observer   observability.Observer
	stageDelay time.Duration

	turnInFlight atomic.Bool
}

// New creates a Soul for one connection. A fresh session is created eagerly,
// seeded with a system record derived from the blueprint's persona and goal.
func New(bp Blueprint, gateway Gateway, emitter Emitter, opts ...Option) *Soul {
	s := &Soul{
		blueprint:  bp,
		session:    session.NewMemorySession(systemPrompt(bp), DefaultStages),
		gateway:    gateway,
		emitter:    emitter,
		observer:   observability.NoOpObserver{},
		stageDelay: defaultStageDelay,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Blueprint returns the immutable persona descriptor.
func (s *Soul) Blueprint() Blueprint {
	return s.blueprint
}

// Session returns the session state owned by this soul.
func (s *Soul) Session() session.Session {
	return s.session
}

// ProcessMessage runs one foreground turn for a non-empty user utterance:
// append the user record, run each reasoning stage in sequence (each stage's
// monologue frames the next), produce the spoken response, append it, and
// launch background metacognition without waiting for it.
//
// Any gateway failure emits an error event, aborts the remainder of the turn,
// and leaves memory in whatever partial state was already appended. The
// session remains usable for the next message.
func (s *Soul) ProcessMessage(ctx context.Context, text string) (string, error) {
	if !s.turnInFlight.CompareAndSwap(false, true) {
		return "", ErrTurnInFlight
	}
	defer s.turnInFlight.Store(false)

	s.session.AddMessage(protocol.NewMessage(protocol.RoleUser, text))

	// The stage list is snapshotted here: a concurrent metacognition rewrite
	// takes effect on the next turn, never mid-turn.
	stages := s.session.Stages()

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventTurnStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "soul.ProcessMessage",
		Data: map[string]any{
			"session_id": s.session.ID(),
			"stages":     len(stages),
		},
	})

	// Working history for this turn only. Stage monologues accumulate here so
	// each stage frames the next, but they are never written to session memory.
	working := s.session.Messages()

	for _, stage := range stages {
		s.emitter.Emit(protocol.NewEnvelope(protocol.EventThought, protocol.Thought{
			Type:  protocol.ThoughtProcessing,
			Text:  stage + "...",
			Stage: "thinking",
		}))

		s.observer.OnEvent(ctx, observability.Event{
			Type:      EventStageStart,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "soul.ProcessMessage",
			Data:      map[string]any{"session_id": s.session.ID(), "stage": stage},
		})

		thought, err := s.gateway.InternalMonologue(ctx, working, monologueInstruction(s.blueprint.Name, stage))
		if err != nil {
			s.failTurn(ctx, stage, err)
			return "", err
		}

		working = append(working, protocol.NewMessage(protocol.RoleAssistant, thought))

		s.emitter.Emit(protocol.NewEnvelope(protocol.EventThought, protocol.Thought{
			Type:  protocol.ThoughtThinking,
			Text:  thought,
			Stage: stage,
		}))

		s.observer.OnEvent(ctx, observability.Event{
			Type:      EventStageComplete,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "soul.ProcessMessage",
			Data:      map[string]any{"session_id": s.session.ID(), "stage": stage},
		})

		// Pace the event stream so the client can render thoughts incrementally.
		if s.stageDelay > 0 {
			time.Sleep(s.stageDelay)
		}
	}

	s.emitter.Emit(protocol.NewEnvelope(protocol.EventThought, protocol.Thought{
		Type:  protocol.ThoughtProcessing,
		Text:  "Formulating response...",
		Stage: "responding",
	}))

	response, err := s.gateway.ExternalDialog(ctx, working, dialogInstruction(s.blueprint.Name))
	if err != nil {
		s.failTurn(ctx, "responding", err)
		return "", err
	}

	s.session.AddMessage(protocol.NewMessage(protocol.RoleAssistant, response))

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventResponse,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "soul.ProcessMessage",
		Data: map[string]any{
			"session_id":      s.session.ID(),
			"response_length": len(response),
		},
	})

	// Best-effort self-revision; never on the critical path. The detached
	// context lets it run to completion even if the turn's context is
	// cancelled by a disconnect — its result is simply dropped.
	go s.runMetacognition(context.WithoutCancel(ctx))

	return response, nil
}

func (s *Soul) failTurn(ctx context.Context, stage string, err error) {
	s.emitter.Emit(protocol.NewEnvelope(protocol.EventError, protocol.Error{
		Message: err.Error(),
	}))

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventTurnError,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "soul.ProcessMessage",
		Data: map[string]any{
			"session_id": s.session.ID(),
			"stage":      stage,
			"error":      err.Error(),
		},
	})
}

// runMetacognition asks the gateway whether the reasoning stage list should
// change, and on changeThoughtProcess brainstorms a replacement, swaps it in
// wholesale, and emits a single contemplating thought. Failures are reported
// to the observer only — they never reach the client and never affect a
// foreground turn.
func (s *Soul) runMetacognition(ctx context.Context) {
	history := s.session.Messages()
	stages := s.session.Stages()

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventMetacognitionStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "soul.runMetacognition",
		Data:      map[string]any{"session_id": s.session.ID()},
	})

	choice, err := s.gateway.Decision(ctx, history, decisionPrompt(s.blueprint, stages), []string{
		ChoiceChangeThoughtProcess,
		ChoiceKeepProcessTheSame,
	})
	if err != nil {
		s.failMetacognition(ctx, err)
		return
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventMetacognitionDecision,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "soul.runMetacognition",
		Data:      map[string]any{"session_id": s.session.ID(), "choice": choice},
	})

	if choice != ChoiceChangeThoughtProcess {
		return
	}

	revised, err := s.gateway.Brainstorm(ctx, history, brainstormPrompt(s.blueprint, stages))
	if err != nil {
		s.failMetacognition(ctx, err)
		return
	}
	if len(revised) == 0 {
		s.failMetacognition(ctx, ErrEmptyStageList)
		return
	}

	s.session.SetStages(revised)

	s.emitter.Emit(protocol.NewEnvelope(protocol.EventThought, protocol.Thought{
		Type:  protocol.ThoughtContemplating,
		Text:  "Adapting my thinking process: " + strings.Join(revised, ", "),
		Stage: "metacognition",
	}))

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventMetacognitionRevised,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "soul.runMetacognition",
		Data:      map[string]any{"session_id": s.session.ID(), "stages": revised},
	})
}

func (s *Soul) failMetacognition(ctx context.Context, err error) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventMetacognitionError,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "soul.runMetacognition",
		Data: map[string]any{
			"session_id": s.session.ID(),
			"error":      err.Error(),
		},
	})
}
