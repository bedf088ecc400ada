package soul

import "errors"

// ErrTurnInFlight is returned by ProcessMessage when a foreground turn is
// already running for the session. At most one foreground turn may be active
// per session at a time.
var ErrTurnInFlight = errors.New("a turn is already in flight for this session")

// ErrBlueprintNotFound is returned by Catalog.Get for an unknown name.
var ErrBlueprintNotFound = errors.New("blueprint not found")

// ErrEmptyStageList marks a brainstorm call that produced no usable stage
// names. The current stage list is kept.
var ErrEmptyStageList = errors.New("brainstorm produced an empty stage list")

// ErrUnrecognizedChoice marks a decision call whose answer matched none of
// the offered choice labels.
var ErrUnrecognizedChoice = errors.New("decision returned an unrecognized choice")
