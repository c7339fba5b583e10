package core

import "errors"

// Configuration errors. They are surfaced to the immediate caller and never
// leave a team or session partially mutated.
var (
	// ErrCapacityExceeded is returned when a team has no free participant slot.
	ErrCapacityExceeded = errors.New("team capacity exceeded")
	// ErrDuplicateParticipant is returned when a participant id is added twice.
	ErrDuplicateParticipant = errors.New("participant already exists")
	// ErrUnknownPersonality is returned for a personality template that does not exist.
	ErrUnknownPersonality = errors.New("unknown personality template")
	// ErrUnknownProvider is returned for a provider id missing from the provider table.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrInvalidSelection is returned for unparsable or out of range selection input.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrEmptySelection is returned when a selection resolves to no participants.
	ErrEmptySelection = errors.New("empty selection")
	// ErrEmptyCatalog is returned when no participant definitions are available.
	ErrEmptyCatalog = errors.New("no participants configured")
	// ErrRoundLimit is returned when a session has used all allowed rounds.
	ErrRoundLimit = errors.New("round limit reached")
)

// Participant call errors.
var (
	// ErrNoResponse is returned when a model closes its stream without a reply.
	ErrNoResponse = errors.New("model returned no response")
)
