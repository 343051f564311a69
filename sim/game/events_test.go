package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/shop"
)

func newGameSim(t *testing.T) *QueueSimulator {
	t.Helper()
	cfg := newTestConfig(3)
	cfg.GameConfig.Enabled = true
	return NewQueueSimulator(cfg, nil)
}

func TestTriggerEvent_ServerFailure_RemovesPurchasedServer(t *testing.T) {
	// GIVEN a purchased fourth server that is selected
	q := newGameSim(t)
	q.score = 10
	require.True(t, q.Purchase(shop.CPU4))
	require.True(t, q.Select(sim.SelectServerComponent(4)))

	// WHEN a server failure fires
	got := q.TriggerEvent(EventServerFailure)

	// THEN the purchased server is gone, its slot is for sale and the selection is cleared
	assert.Equal(t, EventServerFailure, got)
	assert.Len(t, q.Connection().Servers(), 3)
	assert.Nil(t, q.Connection().Server(4))
	item, _ := q.Catalog().Item(shop.CPU4)
	assert.False(t, item.Purchased)
	assert.True(t, q.Selection().IsNone())
	require.NotEmpty(t, q.Notifications())
	assert.Equal(t, EventServerFailure, q.Notifications()[0].Kind)
}

func TestTriggerEvent_ServerFailure_NeverRemovesInitialServers(t *testing.T) {
	q := newGameSim(t)
	got := q.TriggerEvent(EventServerFailure)
	assert.Equal(t, EventIncreasedLoad, got, "falls back to load increase")
	assert.Len(t, q.Connection().Servers(), 3)
}

func TestTriggerEvent_Regression_LowersOneLevel(t *testing.T) {
	// GIVEN one speed upgrade
	q := newGameSim(t)
	q.score = 100
	require.True(t, q.Purchase(shop.UpgradeSpeed))
	base := q.Config().TransportSpeed
	require.InDelta(t, base*1.25, q.Connection().TransportSpeed(), 1e-9)

	// WHEN regressed
	got := q.TriggerEvent(EventRegression)

	// THEN the level and the effect return to level 1
	assert.Equal(t, EventRegression, got)
	assert.Equal(t, 1, q.Catalog().Level(shop.UpgradeSpeed))
	assert.InDelta(t, base, q.Connection().TransportSpeed(), 1e-9)

	// WHEN nothing is eligible any more
	assert.Equal(t, EventIncreasedLoad, q.TriggerEvent(EventRegression))
}

func TestTriggerEvent_IncreasedLoad_ShrinksIntervalTemporarily(t *testing.T) {
	// Outside game mode so no periodic event re-arms the surge.
	q := NewQueueSimulator(newTestConfig(3), nil)
	interval := q.GenerationInterval()

	q.TriggerEvent(EventIncreasedLoad)

	require.True(t, q.SurgeActive())
	eff := q.EffectiveInterval()
	assert.GreaterOrEqual(t, eff, interval*0.7-1e-9)
	assert.LessOrEqual(t, eff, interval*0.9+1e-9)
	assert.Equal(t, interval, q.GenerationInterval())

	// WHEN the surge duration passes
	q.Run(int64(q.Config().SurgeDurationSeconds) * int64(q.Clock().TicksPerSecond()))
	assert.False(t, q.SurgeActive())
	assert.Equal(t, interval, q.EffectiveInterval())
}

func TestEventsTick_FiresEveryInterval(t *testing.T) {
	q := newGameSim(t)
	ticks := int64(q.Config().EventIntervalSeconds) * int64(q.Clock().TicksPerSecond())

	q.Run(ticks - 1)
	assert.Empty(t, q.Notifications())
	q.Tick()
	require.Len(t, q.Notifications(), 1)
	// Nothing is eligible for regression or failure, so it is always a surge.
	assert.Equal(t, EventIncreasedLoad, q.Notifications()[0].Kind)
}

func TestEvents_DisabledOutsideGameMode(t *testing.T) {
	q := NewQueueSimulator(newTestConfig(1), nil)
	q.Run(2000)
	assert.Empty(t, q.Notifications())
	assert.Equal(t, 15, q.Health())
}

func TestNotifications_BoundedAndExpiring(t *testing.T) {
	q := newGameSim(t)
	for i := 0; i < 7; i++ {
		q.notify(EventTimeout, "x")
	}
	assert.Len(t, q.Notifications(), q.Config().MaxNotifications)

	q.Run(int64(q.Config().NotificationTTLSeconds) * int64(q.Clock().TicksPerSecond()))
	assert.Empty(t, q.Notifications())
}

func TestChooseEvent_RespectsWeights(t *testing.T) {
	cfg := newTestConfig(1)
	cfg.GameConfig.Enabled = true
	cfg.Weights = sim.EventWeights{ServerFailure: 1}
	q := NewQueueSimulator(cfg, nil)
	for i := 0; i < 20; i++ {
		assert.Equal(t, EventServerFailure, q.chooseEvent())
	}
}

func TestStartSurge_LeavesEventChoiceSequenceAlone(t *testing.T) {
	// GIVEN two games with the same seed, one of which has already surged
	surged := newGameSim(t)
	plain := newGameSim(t)
	require.Equal(t, EventIncreasedLoad, surged.TriggerEvent(EventIncreasedLoad))
	require.True(t, surged.SurgeActive())

	// WHEN both draw a run of event kinds
	// THEN the draws are identical
	for i := 0; i < 20; i++ {
		assert.Equal(t, plain.chooseEvent(), surged.chooseEvent(), "draw %d", i)
	}
}
