package orchestrator

import (
	"context"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/core"
)

// runDebate lets participants speak in order. Each view is rendered right
// before the call so later speakers see earlier replies of the same round.
// A failed turn appends nothing and the round moves on.
func (o *Orchestrator) runDebate(ctx context.Context, round Round, active []*agent.Participant) []Result {
	results := make([]Result, 0, len(active))

	for _, p := range active {
		r := o.call(ctx, p, round.Log.View(p.Name()))
		if r.OK() {
			round.Log.Append(core.AuthorParticipant, r.Content, r.ParticipantID, r.ParticipantName)
		}

		results = append(results, r)
		round.OnResult(r)
	}

	return results
}
