package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m := NewMessage(AuthorParticipant, "hello", "p1", "Alice")

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, AuthorParticipant, m.AuthorKind)
	assert.Equal(t, "p1", m.AuthorID)
	assert.Equal(t, "Alice", m.AuthorName)
	assert.Equal(t, "hello", m.Content)
	assert.False(t, m.CreatedAt.IsZero())
	assert.False(t, m.IsUser())

	other := NewMessage(AuthorUser, "hi", "", "")
	assert.True(t, other.IsUser())
	assert.NotEqual(t, m.ID, other.ID)
}

func TestPersonalityInstruction(t *testing.T) {
	t.Run("prompt only", func(t *testing.T) {
		p := Personality{Name: "Critic", SystemPrompt: "You critique ideas."}
		assert.Equal(t, "You critique ideas.", p.Instruction())
	})

	t.Run("with style", func(t *testing.T) {
		p := Personality{Name: "Critic", SystemPrompt: "You critique ideas.", ResponseStyle: "concise"}
		assert.Equal(t, "You critique ideas.\n\nResponse style: concise", p.Instruction())
	})

	t.Run("empty prompt falls back", func(t *testing.T) {
		assert.Equal(t, DefaultSystemPrompt, Personality{}.Instruction())
	})
}

func TestDefaultPersonality(t *testing.T) {
	p := DefaultPersonality()
	assert.Equal(t, "Assistant", p.Name)
	assert.Equal(t, "You are a helpful assistant.", p.SystemPrompt)
}

func TestRoundLimiter(t *testing.T) {
	t.Run("unlimited", func(t *testing.T) {
		rl := NewRoundLimiter(0)
		for i := 1; i <= 5; i++ {
			n, err := rl.Acquire()
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}
		assert.Equal(t, -1, rl.Remaining())
	})

	t.Run("bounded", func(t *testing.T) {
		rl := NewRoundLimiter(2)

		_, err := rl.Acquire()
		require.NoError(t, err)
		assert.Equal(t, 1, rl.Remaining())

		_, err = rl.Acquire()
		require.NoError(t, err)

		n, err := rl.Acquire()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRoundLimit))
		assert.Equal(t, 2, n)
		assert.Equal(t, 2, rl.Count())
		assert.Equal(t, 0, rl.Remaining())
	})
}
