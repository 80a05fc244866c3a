package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAgent(t *testing.T) {
	for _, id := range AllAgents() {
		got, ok := ParseAgent(string(id))
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}

	got, ok := ParseAgent("  Medical ")
	assert.True(t, ok)
	assert.Equal(t, AgentMedical, got)

	_, ok = ParseAgent("astrologer")
	assert.False(t, ok)

	_, ok = ParseAgent("")
	assert.False(t, ok)
}

func TestAllAgents_GeneralFirst(t *testing.T) {
	agents := AllAgents()
	assert.Len(t, agents, 6)
	assert.Equal(t, AgentGeneral, agents[0])
}
