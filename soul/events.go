package soul

import "github.com/marcabisamra/SocialAGI/observability"

// Soul event types emitted during a conversational turn and its trailing
// metacognition step.
const (
	EventTurnStart             observability.EventType = "soul.turn.start"
	EventStageStart            observability.EventType = "soul.stage.start"
	EventStageComplete         observability.EventType = "soul.stage.complete"
	EventResponse              observability.EventType = "soul.response"
	EventTurnError             observability.EventType = "soul.turn.error"
	EventMetacognitionStart    observability.EventType = "soul.metacognition.start"
	EventMetacognitionDecision observability.EventType = "soul.metacognition.decision"
	EventMetacognitionRevised  observability.EventType = "soul.metacognition.revised"
	EventMetacognitionError    observability.EventType = "soul.metacognition.error"
)
