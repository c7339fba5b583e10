// Package agent contains the Participant: one independently configured
// discussion member bound to a model provider and a personality.
//
// A participant never reads the shared log itself. The orchestrator renders
// the log from the participant's perspective and hands the resulting view to
// Respond, which prepends the personality as system instruction and drives a
// single model call. Respond may fail or hang; callers bound it with a
// context deadline.
//
// The active flag controls whether a participant is included in future
// rounds. Flipping it mid-round has no effect on the round in flight because
// the orchestrator snapshots the active set when a round starts.
package agent
