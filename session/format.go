package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentteam/catalog"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/orchestrator"
)

func formatUsage(c Commands) string {
	return fmt.Sprintf("Please provide a topic, e.g. %q.", primary(c.Triggers)+" how should we design a distributed cache")
}

func formatSelectionPrompt(topic string, defs []catalog.Definition, c Commands) string {
	return fmt.Sprintf("Discussion topic: %s\n\nAvailable participants:\n%s\n\nReply with numbers separated by commas (e.g. 1,3) or %q for everyone.",
		topic, catalog.Format(defs), primary(c.SelectAll))
}

func formatSelectionError(err error, c Commands) string {
	var selErr *SelectionError
	switch {
	case errors.As(err, &selErr) && !selErr.NotNumber:
		return fmt.Sprintf("Number %s is not valid, please choose between 1 and %d.", selErr.Input, selErr.Max)
	case errors.Is(err, core.ErrEmptySelection):
		return "No participants selected, please try again."
	default:
		return fmt.Sprintf("Please enter valid numbers separated by commas (e.g. 1,3) or %q.", primary(c.SelectAll))
	}
}

func formatStarted(names []string) string {
	return fmt.Sprintf("Participants: %s\nThe discussion has started.", strings.Join(names, ", "))
}

func formatResult(round int, r orchestrator.Result) string {
	switch r.Outcome {
	case orchestrator.OutcomeSuccess:
		return fmt.Sprintf("[Round %d · %s]\n%s", round, r.ParticipantName, r.Content)
	case orchestrator.OutcomeTimeout:
		return fmt.Sprintf("[Round %d · %s] timed out without a reply", round, r.ParticipantName)
	default:
		return fmt.Sprintf("[Round %d · %s] failed: %v", round, r.ParticipantName, r.Err)
	}
}

func formatTrailer(round int, c Commands) string {
	return fmt.Sprintf("Round %d finished | reply to add your view | %q for another round | %q to finish",
		round, primary(c.Continue), primary(c.End))
}

func formatSummary(info Info) string {
	participants := strings.Join(info.Participants, ", ")
	if participants == "" {
		participants = "none"
	}
	return fmt.Sprintf("Discussion ended | topic: %s | participants: %s | %d rounds | %d messages",
		info.Topic, participants, info.RoundCount, info.MessageCount)
}

func formatRoundLimit(limit int, c Commands) string {
	return fmt.Sprintf("The round limit (%d) has been reached, send %q to finish.", limit, primary(c.End))
}
