package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/relay/internal/models"
)

func TestSession_Exchanges(t *testing.T) {
	sess := newSession("s1")

	sess.AppendExchange("What is a mortgage?", "A loan secured by property.")
	sess.CompleteTurn()
	sess.AppendExchange("And the rate?", "It varies by lender.")
	sess.CompleteTurn()

	history := sess.History()
	require.Len(t, history, 4)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "What is a mortgage?", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, models.RoleUser, history[2].Role)

	assert.Equal(t, 2, sess.TurnCount())
}

func TestSession_HistoryIsACopy(t *testing.T) {
	sess := newSession("s1")
	sess.AppendExchange("q", "a")

	history := sess.History()
	history[0].Content = "mutated"

	assert.Equal(t, "q", sess.History()[0].Content)
}

func TestSession_AgentsUsed(t *testing.T) {
	sess := newSession("s1")

	sess.RecordAgent(models.AgentMedical)
	sess.RecordAgent(models.AgentGeneral)
	sess.RecordAgent(models.AgentMedical)

	assert.Equal(t, []string{"general", "medical"}, sess.AgentsUsed())
}

func TestSession_Info(t *testing.T) {
	sess := newSession("s1")
	sess.AppendExchange("q", "a")
	sess.RecordAgent(models.AgentSales)

	info := sess.Info()
	assert.Equal(t, "s1", info.SessionID)
	assert.Equal(t, 2, info.MessageCount)
	assert.Equal(t, []string{"sales"}, info.AgentsUsed)
	assert.False(t, info.CreatedAt.IsZero())
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager(ManagerConfig{})

	sess := m.GetOrCreate("")
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID())

	// Same id resolves to the same session.
	again := m.GetOrCreate(sess.ID())
	assert.Same(t, sess, again)

	// An unknown id creates a session under that id.
	named := m.GetOrCreate("custom-id")
	assert.Equal(t, "custom-id", named.ID())
	assert.Equal(t, 2, m.Len())
}

func TestManager_Clear(t *testing.T) {
	m := NewManager(ManagerConfig{})
	sess := m.GetOrCreate("")

	assert.True(t, m.Clear(sess.ID()))
	assert.False(t, m.Clear(sess.ID()))
	assert.False(t, m.Clear("never-existed"))
	assert.Equal(t, 0, m.Len())
}

func TestManager_List(t *testing.T) {
	m := NewManager(ManagerConfig{})
	first := m.GetOrCreate("first")
	first.RecordAgent(models.AgentAIML)
	m.GetOrCreate("second")

	infos := m.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "first", infos[0].SessionID)
	assert.Equal(t, []string{"ai_ml"}, infos[0].AgentsUsed)
	assert.Equal(t, "second", infos[1].SessionID)
}

func TestManager_EvictsAtCapacity(t *testing.T) {
	m := NewManager(ManagerConfig{MaxSessions: 3, TTL: time.Hour})

	oldest := m.GetOrCreate("oldest")
	_ = oldest
	time.Sleep(2 * time.Millisecond)
	m.GetOrCreate("middle")
	time.Sleep(2 * time.Millisecond)
	m.GetOrCreate("newest")

	// Hitting the cap evicts the least recently active session.
	m.GetOrCreate("extra")

	assert.Equal(t, 3, m.Len())
	_, ok := m.Get("oldest")
	assert.False(t, ok)
	_, ok = m.Get("newest")
	assert.True(t, ok)
}

func TestManager_EvictsExpired(t *testing.T) {
	m := NewManager(ManagerConfig{MaxSessions: 10, TTL: time.Millisecond})

	m.GetOrCreate("stale")
	time.Sleep(5 * time.Millisecond)

	// Any access prunes sessions idle past the TTL.
	fresh := m.GetOrCreate("fresh")
	require.NotNil(t, fresh)

	_, ok := m.Get("stale")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}
