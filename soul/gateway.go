package soul

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcabisamra/SocialAGI/core/protocol"
)

// Decision choice labels for the metacognition step.
const (
	ChoiceChangeThoughtProcess = "changeThoughtProcess"
	ChoiceKeepProcessTheSame   = "keepProcessTheSame"
)

// Gateway is the black-box reasoning contract. All calls are blocking, may
// fail, and carry no retry policy; callers own failure handling. History is
// the dialog context to reason over and is never mutated by the gateway.
type Gateway interface {
	// InternalMonologue produces the text of one private reasoning stage.
	InternalMonologue(ctx context.Context, history []protocol.Message, instruction string) (string, error)
	// ExternalDialog produces the text spoken out loud to the user.
	ExternalDialog(ctx context.Context, history []protocol.Message, instruction string) (string, error)
	// Decision picks exactly one of the given choice labels.
	Decision(ctx context.Context, history []protocol.Message, prompt string, choices []string) (string, error)
	// Brainstorm produces an ordered list of short text items.
	Brainstorm(ctx context.Context, history []protocol.Message, prompt string) ([]string, error)
}

// systemPrompt builds the seeded system memory record for a blueprint.
func systemPrompt(bp Blueprint) string {
	return fmt.Sprintf(`<CONTEXT>You are modeling the mind of %s

%s

%s has the following goal of: %s

You exist as a 3D digital entity and can see and interact with humans through text and voice.
Keep your responses concise but meaningful, usually 1-3 sentences.

</CONTEXT>`, bp.Name, bp.Personality, bp.Name, bp.Goal)
}

// monologueInstruction frames one reasoning stage as a private thought.
func monologueInstruction(name, stage string) string {
	return fmt.Sprintf("%s %s - thinks to themselves internally", name, stage)
}

// dialogInstruction frames the spoken response.
func dialogInstruction(name string) string {
	return fmt.Sprintf("what %s says out loud next", name)
}

// decisionPrompt asks whether the current stage list should change.
func decisionPrompt(bp Blueprint, stages []string) string {
	return fmt.Sprintf(
		"Consider the prior dialog and the goal of %s. %s has the following INTERNAL METACOGNITION: [%s]. Should the INTERNAL METACOGNITION change or stay the same?",
		bp.Goal, bp.Name, strings.Join(stages, ", "),
	)
}

// brainstormPrompt asks for a revised stage list.
func brainstormPrompt(bp Blueprint, stages []string) string {
	return fmt.Sprintf(`Previously, %s used the following INTERNAL METACOGNITION to think to themselves before speaking: [%s]. Now, REVISE the INTERNAL METACOGNITION, adding, deleting, or modifying the processes.

For example. Revise [process1, process2] to [process1', process4, process5]. The revised processes must be different than the prior ones.

MAKE SURE the new actions are all parts of one's INTERNAL thought process PRIOR to speaking to the user, directed at oneself. Actions like provoking are all more external and don't qualify.`,
		bp.Name, strings.Join(stages, ", "),
	)
}
