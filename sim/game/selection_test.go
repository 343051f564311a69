package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim"
)

func TestSelect_Server_ToggleAndSetProcessingTime(t *testing.T) {
	// GIVEN server 2 selected
	q := NewQueueSimulator(newTestConfig(3), nil)
	require.True(t, q.Select(sim.SelectServerComponent(2)))
	s := q.Connection().Server(2)

	// WHEN toggled
	require.True(t, q.ToggleSelected())
	// THEN it is stopped
	assert.True(t, s.IsStopped())

	// WHEN "1.5" is typed and submitted
	for _, r := range "1.5" {
		require.True(t, q.TypeChar(r))
	}
	assert.Equal(t, "1.5", q.InputText())
	require.True(t, q.SubmitProcessingTime())

	// THEN the processing time is 1500 ms and the field is cleared
	assert.Equal(t, 1500, s.ProcessingTimeMs())
	assert.Empty(t, q.InputText())
}

func TestSubmitProcessingTime_InvalidInputKeepsValue(t *testing.T) {
	q := NewQueueSimulator(newTestConfig(1), nil)
	require.True(t, q.Select(sim.SelectServerComponent(1)))
	q.TypeChar('0')
	assert.False(t, q.SubmitProcessingTime())
	assert.Equal(t, 2000, q.Connection().Server(1).ProcessingTimeMs())
	assert.False(t, q.TypeChar('x'))
}

func TestSelect_MissingServer_Refused(t *testing.T) {
	q := NewQueueSimulator(newTestConfig(1), nil)
	assert.False(t, q.Select(sim.SelectServerComponent(9)))
	assert.True(t, q.Selection().IsNone())
}

func TestSelect_Generator_Toggle(t *testing.T) {
	q := NewQueueSimulator(newTestConfig(1), nil)
	require.True(t, q.Select(sim.SelectGeneratorComponent()))
	require.True(t, q.ToggleSelected())
	assert.True(t, q.Generator().IsStopped())
	assert.False(t, q.GenerateProcess())
	assert.False(t, q.TypeChar('1'), "generator has no numeric field")

	q.ClearSelection()
	assert.False(t, q.ToggleSelected())
}
