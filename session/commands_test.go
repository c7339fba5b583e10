package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/core"
)

func TestCommands_ParseTrigger(t *testing.T) {
	c := DefaultCommands()

	tests := []struct {
		name  string
		text  string
		topic string
		ok    bool
	}{
		{name: "english", text: "discuss event sourcing", topic: "event sourcing", ok: true},
		{name: "case insensitive", text: "Discuss Event Sourcing", topic: "Event Sourcing", ok: true},
		{name: "colon", text: "discuss: caching", topic: "caching", ok: true},
		{name: "chinese", text: "讨论 微服务", topic: "微服务", ok: true},
		{name: "full width colon", text: "讨论：微服务", topic: "微服务", ok: true},
		{name: "bare", text: "  讨论  ", topic: "", ok: true},
		{name: "prefix of word", text: "discussion about x", ok: false},
		{name: "unrelated", text: "hello", ok: false},
		{name: "empty", text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic, ok := c.ParseTrigger(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.topic, topic)
		})
	}
}

func TestCommands_Matchers(t *testing.T) {
	c := DefaultCommands()

	assert.True(t, c.IsEnd("END"))
	assert.True(t, c.IsEnd(" 讨论结束 "))
	assert.False(t, c.IsEnd("the end"))
	assert.True(t, c.IsContinue("继续"))
	assert.True(t, c.IsContinue("Continue"))
	assert.True(t, c.IsSelectAll("全部"))
	assert.False(t, c.IsSelectAll("1,2"))
}

func TestCommands_ParseSelection(t *testing.T) {
	c := DefaultCommands()

	t.Run("numbers", func(t *testing.T) {
		got, err := c.ParseSelection("1, 3", 3)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, got)
	})

	t.Run("full width commas and duplicates", func(t *testing.T) {
		got, err := c.ParseSelection("2，1，2", 3)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 0}, got)
	})

	t.Run("all", func(t *testing.T) {
		got, err := c.ParseSelection("全部", 4)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3}, got)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := c.ParseSelection("  ", 3)
		require.ErrorIs(t, err, core.ErrEmptySelection)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := c.ParseSelection("1,5", 3)
		require.ErrorIs(t, err, core.ErrInvalidSelection)

		var selErr *SelectionError
		require.ErrorAs(t, err, &selErr)
		assert.Equal(t, "5", selErr.Input)
		assert.False(t, selErr.NotNumber)
		assert.Equal(t, "invalid selection: 5 is out of range 1-3", err.Error())
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := c.ParseSelection("one", 3)
		require.ErrorIs(t, err, core.ErrInvalidSelection)

		var selErr *SelectionError
		require.ErrorAs(t, err, &selErr)
		assert.True(t, selErr.NotNumber)
	})
}

func TestCommands_WithDefaults(t *testing.T) {
	c := Commands{End: []string{"stop"}}.withDefaults()

	assert.Equal(t, []string{"stop"}, c.End)
	assert.Equal(t, DefaultCommands().Triggers, c.Triggers)
	assert.Equal(t, DefaultCommands().SelectAll, c.SelectAll)
}
