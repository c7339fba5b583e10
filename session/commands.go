package session

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/hupe1980/agentteam/core"
)

// Commands is the vocabulary the state machine reacts to. Every command
// accepts several aliases; the first alias is the one shown to users.
// Matching ignores surrounding whitespace and ASCII case.
type Commands struct {
	// Triggers start a discussion when followed by a topic.
	Triggers []string `mapstructure:"triggers"`
	// SelectAll picks every catalog entry during selection.
	SelectAll []string `mapstructure:"select_all"`
	// Continue runs a round without new user input.
	Continue []string `mapstructure:"continue"`
	// End terminates the discussion.
	End []string `mapstructure:"end"`
}

// DefaultCommands returns English commands plus the Chinese vocabulary the
// bot has always understood.
func DefaultCommands() Commands {
	return Commands{
		Triggers:  []string{"discuss", "讨论"},
		SelectAll: []string{"all", "全部"},
		Continue:  []string{"continue", "继续"},
		End:       []string{"end", "讨论结束"},
	}
}

// withDefaults fills empty alias lists from DefaultCommands.
func (c Commands) withDefaults() Commands {
	d := DefaultCommands()
	if len(c.Triggers) == 0 {
		c.Triggers = d.Triggers
	}
	if len(c.SelectAll) == 0 {
		c.SelectAll = d.SelectAll
	}
	if len(c.Continue) == 0 {
		c.Continue = d.Continue
	}
	if len(c.End) == 0 {
		c.End = d.End
	}
	return c
}

// ParseTrigger reports whether text starts a discussion and returns the
// topic. A bare trigger returns ok with an empty topic.
func (c Commands) ParseTrigger(text string) (topic string, ok bool) {
	text = strings.TrimSpace(text)

	for _, trigger := range c.Triggers {
		if len(text) < len(trigger) || !strings.EqualFold(text[:len(trigger)], trigger) {
			continue
		}

		rest := text[len(trigger):]
		if rest == "" {
			return "", true
		}

		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsSpace(r) && r != ':' && r != '：' {
			continue
		}

		return strings.TrimSpace(strings.TrimLeft(rest, ":："+" \t")), true
	}

	return "", false
}

// IsSelectAll reports whether text selects every participant.
func (c Commands) IsSelectAll(text string) bool { return matches(c.SelectAll, text) }

// IsContinue reports whether text asks for another round.
func (c Commands) IsContinue(text string) bool { return matches(c.Continue, text) }

// IsEnd reports whether text terminates the discussion.
func (c Commands) IsEnd(text string) bool { return matches(c.End, text) }

func matches(aliases []string, text string) bool {
	text = strings.TrimSpace(text)
	return lo.ContainsBy(aliases, func(a string) bool { return strings.EqualFold(a, text) })
}

func primary(aliases []string) string {
	if len(aliases) == 0 {
		return ""
	}
	return aliases[0]
}

// ParseSelection turns selection input into zero-based catalog indices.
// Input is either a select-all alias or 1-based numbers separated by ASCII or
// full-width commas. Duplicates are dropped keeping the first occurrence.
func (c Commands) ParseSelection(input string, n int) ([]int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, core.ErrEmptySelection
	}

	if c.IsSelectAll(input) {
		if n == 0 {
			return nil, core.ErrEmptySelection
		}
		return lo.Range(n), nil
	}

	parts := strings.Split(strings.ReplaceAll(input, "，", ","), ",")

	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)

		num, err := strconv.Atoi(part)
		if err != nil {
			return nil, &SelectionError{Input: part, Max: n, NotNumber: true}
		}

		if num < 1 || num > n {
			return nil, &SelectionError{Input: part, Max: n}
		}

		indices = append(indices, num-1)
	}

	indices = lo.Uniq(indices)
	if len(indices) == 0 {
		return nil, core.ErrEmptySelection
	}

	return indices, nil
}

// SelectionError describes a rejected selection token.
type SelectionError struct {
	Input     string
	Max       int
	NotNumber bool
}

func (e *SelectionError) Error() string {
	if e.NotNumber {
		return fmt.Sprintf("invalid selection: %q is not a number", e.Input)
	}
	return fmt.Sprintf("invalid selection: %s is out of range 1-%d", e.Input, e.Max)
}

// Unwrap makes SelectionError match core.ErrInvalidSelection.
func (e *SelectionError) Unwrap() error { return core.ErrInvalidSelection }
