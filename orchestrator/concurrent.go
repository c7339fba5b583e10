package orchestrator

import (
	"context"
	"sync"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/core"
)

// runConcurrent renders every view before the first call starts, fans the
// calls out and appends successful replies in participant order once all of
// them have settled. Sibling failures never affect each other.
func (o *Orchestrator) runConcurrent(ctx context.Context, round Round, active []*agent.Participant) []Result {
	views := make([][]core.ViewMessage, len(active))
	for i, p := range active {
		views[i] = round.Log.View(p.Name())
	}

	results := make([]Result, len(active))

	var wg sync.WaitGroup
	for i, p := range active {
		wg.Add(1)
		go func(i int, p *agent.Participant) {
			defer wg.Done()
			results[i] = o.call(ctx, p, views[i])
		}(i, p)
	}

	wg.Wait()

	for _, r := range results {
		if r.OK() {
			round.Log.Append(core.AuthorParticipant, r.Content, r.ParticipantID, r.ParticipantName)
		}
	}

	for _, r := range results {
		round.OnResult(r)
	}

	return results
}
