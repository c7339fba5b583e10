package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/orchestrator"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	speakerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7FD1AE"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F5C26B"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func renderTitle(text string) string {
	return titleStyle.Render(text)
}

func renderResult(round int, r orchestrator.Result) string {
	head := speakerStyle.Render(fmt.Sprintf("[Round %d · %s]", round, r.ParticipantName))
	if !r.OK() {
		return head + " " + failStyle.Render(fmt.Sprintf("(%s: %v)", r.Outcome, r.Err))
	}
	return head + "\n" + r.Content
}

// renderHistory prints the whole conversation log in a box.
func renderHistory(msgs []core.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.IsUser() {
			lines = append(lines, userStyle.Render("User")+": "+m.Content)
			continue
		}
		lines = append(lines, speakerStyle.Render(m.AuthorName)+": "+m.Content)
	}
	return boxStyle.Render(strings.Join(lines, "\n\n"))
}

func renderDim(text string) string {
	return dimStyle.Render(text)
}
