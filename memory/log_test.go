package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/core"
)

func TestLog_AppendAndCount(t *testing.T) {
	log := NewLog()
	assert.Equal(t, 0, log.Count())

	m := log.AppendUser("topic")
	assert.Equal(t, 1, log.Count())
	assert.Equal(t, core.AuthorUser, m.AuthorKind)

	log.Append(core.AuthorParticipant, "reply", "p1", "Alice")
	assert.Equal(t, 2, log.Count())

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "topic", msgs[0].Content)
	assert.Equal(t, "Alice", msgs[1].AuthorName)
}

func TestLog_RenderFor(t *testing.T) {
	log := NewLog()
	log.AppendUser("X")
	log.Append(core.AuthorParticipant, "a1", "p1", "A")
	log.Append(core.AuthorParticipant, "b1", "p2", "B")

	t.Run("viewer A", func(t *testing.T) {
		assert.Equal(t, []core.ViewMessage{
			{Role: core.RoleUser, Content: "X"},
			{Role: core.RoleAssistant, Content: "a1"},
			{Role: core.RoleUser, Content: "[B]: b1"},
		}, log.View("A"))
	})

	t.Run("viewer B", func(t *testing.T) {
		assert.Equal(t, []core.ViewMessage{
			{Role: core.RoleUser, Content: "X"},
			{Role: core.RoleUser, Content: "[A]: a1"},
			{Role: core.RoleAssistant, Content: "b1"},
		}, log.View("B"))
	})

	t.Run("no viewer", func(t *testing.T) {
		assert.Equal(t, []core.ViewMessage{
			{Role: core.RoleUser, Content: "X"},
			{Role: core.RoleUser, Content: "[A]: a1"},
			{Role: core.RoleUser, Content: "[B]: b1"},
		}, log.View(""))
	})
}

func TestLog_RenderForIsRestartableSnapshot(t *testing.T) {
	log := NewLog()
	log.AppendUser("first")

	seq := log.RenderFor("A")
	log.Append(core.AuthorParticipant, "later", "p1", "A")

	var first, second []core.ViewMessage
	for v := range seq {
		first = append(first, v)
	}
	for v := range seq {
		second = append(second, v)
	}

	assert.Equal(t, []core.ViewMessage{{Role: core.RoleUser, Content: "first"}}, first)
	assert.Equal(t, first, second)
	assert.Len(t, log.View("A"), 2)
}

func TestLog_RenderForEarlyStop(t *testing.T) {
	log := NewLog()
	for i := 0; i < 5; i++ {
		log.AppendUser("m")
	}

	n := 0
	for range log.RenderFor("") {
		n++
		if n == 2 {
			break
		}
	}

	assert.Equal(t, 2, n)
}

func TestLog_Window(t *testing.T) {
	log := NewLog(WithWindow(2))
	log.AppendUser("one")
	log.AppendUser("two")
	log.AppendUser("three")

	assert.Equal(t, 3, log.Count())
	assert.Equal(t, []core.ViewMessage{
		{Role: core.RoleUser, Content: "two"},
		{Role: core.RoleUser, Content: "three"},
	}, log.View(""))
}

func TestLog_Clear(t *testing.T) {
	log := NewLog()
	log.AppendUser("one")
	before := log.RenderFor("")

	log.Clear()
	assert.Equal(t, 0, log.Count())
	assert.Empty(t, log.View(""))

	var kept int
	for range before {
		kept++
	}
	assert.Equal(t, 1, kept)
}

func TestLog_ConcurrentAccess(t *testing.T) {
	log := NewLog()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			log.AppendUser("m")
		}()
		go func() {
			defer wg.Done()
			_ = log.View("A")
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, log.Count())
}
