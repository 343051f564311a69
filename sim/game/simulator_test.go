package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim"
)

func TestNewQueueSimulator_InitialState(t *testing.T) {
	q := NewQueueSimulator(sim.DefaultSimConfig(), nil)

	assert.Len(t, q.Connection().Servers(), 3)
	assert.Equal(t, 0, q.Score())
	assert.Equal(t, 15, q.Health())
	assert.False(t, q.GameOver())
	assert.NotEmpty(t, q.SessionID())
	assert.Nil(t, q.Trace())
	for i, s := range q.Connection().Servers() {
		assert.Equal(t, sim.ServerID(i+1), s.ID())
	}
}

func TestNewQueueSimulator_InvalidConfig_Panics(t *testing.T) {
	cfg := sim.DefaultSimConfig()
	cfg.MaxCapacity = 0
	assert.Panics(t, func() { NewQueueSimulator(cfg, nil) })
}

// Scenario A: one process on one server goes through every state and scores once.
func TestScenario_SingleProcessCompletes(t *testing.T) {
	// GIVEN one server and capacity 10
	cfg := newTestConfig(1)
	q := NewQueueSimulator(cfg, nil)

	// WHEN one process is added
	require.True(t, q.GenerateProcess())
	p := q.Processes()[0]
	route, ok := q.Connection().Route(1)
	require.True(t, ok)
	bound := int64(math.Ceil(route.Distance/cfg.TransportSpeed)) +
		int64(cfg.ProcessingTimeMs*cfg.TicksPerSecond/1000)

	for q.Clock().Now() < bound && q.Score() == 0 {
		q.Tick()
	}

	// THEN it completed within the bound and scored exactly once
	assert.Equal(t, 1, q.Score())
	assert.Equal(t, []sim.ProcessState{
		sim.StateCreated, sim.StateInQueue, sim.StateInTransit, sim.StateProcessing, sim.StateCompleted,
	}, p.History())
	q.Run(200)
	assert.Equal(t, 1, q.Score())
	assert.Empty(t, q.Processes(), "completed process is pruned")
}

// Scenario B: round-robin over two servers assigns 1, 2, 1.
func TestScenario_RoundRobinAssignment(t *testing.T) {
	q := NewQueueSimulator(newTestConfig(2), nil)

	for i := 0; i < 3; i++ {
		require.True(t, q.GenerateProcess())
	}

	var targets []sim.ServerID
	for _, p := range q.Processes() {
		targets = append(targets, p.Target)
	}
	assert.Equal(t, []sim.ServerID{1, 2, 1}, targets)
}

// Scenario C: a process waiting 2 s at 60 ticks/s is evicted and not scored.
func TestScenario_QueueTimeout(t *testing.T) {
	// GIVEN one server busy with a very long process and a 2 s queue limit
	cfg := newTestConfig(1)
	cfg.ProcessingTimeMs = 1_000_000
	cfg.MaxQueueTimeSeconds = 2.0
	q := NewQueueSimulator(cfg, nil)
	require.True(t, q.GenerateProcess())
	require.True(t, q.GenerateProcess())
	waiting := q.Processes()[1]

	// WHEN the second process reaches the wait queue
	tickUntil(t, q, 1000, func() bool { return waiting.State == sim.StateWaitingCPU })
	entered := waiting.QueueEnteredAt

	// THEN it is evicted once it has waited 2 s and never processed
	tickUntil(t, q, 200, func() bool { return waiting.State != sim.StateWaitingCPU })
	assert.Equal(t, int64(120), q.Clock().Now()-entered)
	assert.LessOrEqual(t, q.Clock().Now()-entered, int64(121))
	assert.Equal(t, sim.StateCompleted, waiting.State)
	assert.True(t, waiting.TimedOut)
	assert.NotContains(t, waiting.History(), sim.StateProcessing)
	assert.Equal(t, 1, q.TimedOut())
	assert.Equal(t, 0, q.Score())
	assert.Equal(t, 0, q.Connection().Servers()[0].QueueLength())
}

// Scenario D: fifteen timeouts in game mode end the game and freeze the simulation.
func TestScenario_GameOverFreezes(t *testing.T) {
	// GIVEN game mode with one permanently busy server and a short queue limit
	cfg := newTestConfig(1)
	cfg.GameConfig.Enabled = true
	cfg.ProcessingTimeMs = 1_000_000
	cfg.MaxQueueTimeSeconds = 0.5
	cfg.MaxCapacity = 50
	q := NewQueueSimulator(cfg, nil)
	require.Equal(t, 15, q.Health())

	// WHEN processes keep arriving until the game ends
	for i := 0; i < 5000 && !q.GameOver(); i++ {
		q.GenerateProcess()
		q.Tick()
		if !q.GameOver() {
			require.Equal(t, 15-q.TimedOut(), q.Health())
		}
	}

	// THEN health is exhausted by the timeouts
	require.True(t, q.GameOver())
	assert.Equal(t, 0, q.Health())
	assert.GreaterOrEqual(t, q.TimedOut(), 15)
	assert.True(t, q.Generator().IsStopped())
	for _, s := range q.Connection().Servers() {
		assert.True(t, s.IsStopped())
	}

	// THEN further ticks change nothing
	before := q.View()
	for i := 0; i < 100; i++ {
		q.Tick()
	}
	assert.Equal(t, before, q.View())
	assert.False(t, q.GenerateProcess())
	assert.Equal(t, EventKind(""), q.TriggerEvent(EventIncreasedLoad))
}

func TestCapacityInvariant_HoldsEveryTick(t *testing.T) {
	// GIVEN fast auto-generation into a small system
	cfg := newTestConfig(2)
	cfg.AutoGenerate = true
	cfg.IntervalSeconds = 0.05
	cfg.MaxCapacity = 4
	q := NewQueueSimulator(cfg, nil)

	for i := 0; i < 2000; i++ {
		q.Tick()
		require.LessOrEqual(t, q.Connection().TotalProcesses(), q.Connection().MaxCapacity(), "tick %d", i)
	}
	// WHEN the system is full an extra admission is refused with no side effect
	tickUntil(t, q, 500, func() bool { return !q.Connection().HasCapacity() })
	extra := sim.NewProcess(99999, sim.Point{}, q.Clock().Now())
	total := q.Connection().TotalProcesses()
	assert.False(t, q.Connection().AddProcess(extra))
	assert.Equal(t, total, q.Connection().TotalProcesses())
	assert.Equal(t, sim.StateCreated, extra.State)
}

func TestFIFO_CompletionOrderMatchesQueueOrder(t *testing.T) {
	// GIVEN one stopped server, so every arrival has to wait in its queue
	cfg := newTestConfig(1)
	cfg.ProcessingTimeMs = 100
	cfg.MaxQueueTimeSeconds = 60
	q := NewQueueSimulator(cfg, nil)
	s := q.Connection().Servers()[0]
	s.Stop()
	for i := 0; i < 6; i++ {
		require.True(t, q.GenerateProcess())
	}
	tickUntil(t, q, 2000, func() bool { return s.QueueLength() == 6 })
	queued := append([]*sim.Process(nil), s.Queue()...)
	for i := 1; i < len(queued); i++ {
		require.LessOrEqual(t, queued[i-1].QueueEnteredAt, queued[i].QueueEnteredAt)
	}

	// WHEN the server resumes and drains its queue
	s.Resume()
	tickUntil(t, q, 5000, func() bool { return q.Score() == 6 })

	// THEN completion ticks follow queue order and nobody skipped the queue
	for i, p := range queued {
		assert.Contains(t, p.History(), sim.StateWaitingCPU)
		assert.False(t, p.TimedOut)
		if i > 0 {
			assert.Less(t, queued[i-1].CompletedAt, p.CompletedAt)
		}
	}
}

func TestSweepTimeouts_StopsAtGameOver(t *testing.T) {
	// GIVEN a game with one health point and four processes queued at a stopped server
	cfg := newTestConfig(1)
	cfg.GameConfig.Enabled = true
	cfg.InitialHealth = 1
	cfg.MaxQueueTimeSeconds = 60
	q := NewQueueSimulator(cfg, nil)
	s := q.Connection().Servers()[0]
	s.Stop()
	for i := 0; i < 4; i++ {
		require.True(t, q.GenerateProcess())
	}
	tickUntil(t, q, 2000, func() bool { return s.QueueLength() == 4 })

	// WHEN the limit drops so every waiting process expires in the same tick
	require.True(t, q.SetMaxQueueTime(0.01))
	q.Tick()

	// THEN only the timeout that ended the game is counted
	assert.True(t, q.GameOver())
	assert.Equal(t, 0, q.Health())
	assert.Equal(t, 1, q.TimedOut())
	assert.Equal(t, 1, q.Metrics().TimedOut)
	assert.Equal(t, 3, s.QueueLength())
	for _, p := range s.Queue() {
		assert.Equal(t, sim.StateWaitingCPU, p.State)
	}
}

func TestView_RemainingFrozenWhileServerStopped(t *testing.T) {
	// GIVEN a server processing a 2000 ms process
	cfg := newTestConfig(1)
	q := NewQueueSimulator(cfg, nil)
	require.True(t, q.GenerateProcess())
	s := q.Connection().Servers()[0]
	tickUntil(t, q, 2000, func() bool { return s.Current() != nil })
	q.Run(30)
	before := q.View().Servers[0].RemainingMs
	require.Greater(t, before, 0.0)

	// WHEN the server is stopped for a simulated second
	s.Stop()
	q.Run(60)

	// THEN the presented remaining time has not moved, before or after resuming
	assert.InDelta(t, before, q.View().Servers[0].RemainingMs, 1e-9)
	s.Resume()
	assert.InDelta(t, before, q.View().Servers[0].RemainingMs, 1e-9)
}

func TestStateMonotonicity_AndTimeoutExclusivity(t *testing.T) {
	// GIVEN a busy game-mode run with timeouts, purchases and events
	cfg := newTestConfig(3)
	cfg.AutoGenerate = true
	cfg.IntervalSeconds = 0.1
	cfg.MaxQueueTimeSeconds = 1.5
	cfg.GameConfig.Enabled = true
	cfg.InitialHealth = 1000
	q := NewQueueSimulator(cfg, nil)
	c := newCollector()

	for i := 0; i < 6000; i++ {
		q.Tick()
		c.observe(q)
		if i == 1000 {
			q.score += 100
			q.Purchase("cpu_4")
			q.Purchase("upgrade_speed")
		}
	}

	// THEN every history is strictly increasing in rank
	require.NotEmpty(t, c.seen)
	for id, p := range c.seen {
		h := p.History()
		for i := 1; i < len(h); i++ {
			require.Greater(t, h[i].Rank(), h[i-1].Rank(), "process %d history %v", id, h)
		}
		if p.TimedOut {
			assert.NotContains(t, h, sim.StateProcessing, "process %d", id)
		}
	}
}

func TestDeterminism_SameSeedSameRun(t *testing.T) {
	run := func() View {
		cfg := newTestConfig(3)
		cfg.AutoGenerate = true
		cfg.IntervalSeconds = 0.25
		cfg.GameConfig.Enabled = true
		cfg.InitialHealth = 500
		q := NewQueueSimulator(cfg, nil)
		q.score = 200
		q.Purchase("cpu_4")
		q.Purchase("cpu_5")
		q.Purchase("upgrade_capacity")
		q.Run(4000)
		return q.View()
	}
	assert.Equal(t, run(), run())
}

func TestTrace_RecordsDecisions(t *testing.T) {
	cfg := newTestConfig(1)
	cfg.TraceLevel = "decisions"
	cfg.ProcessingTimeMs = 1_000_000
	cfg.MaxQueueTimeSeconds = 0.5
	q := NewQueueSimulator(cfg, nil)
	require.NotNil(t, q.Trace())

	require.True(t, q.GenerateProcess())
	require.True(t, q.GenerateProcess())
	tickUntil(t, q, 1000, func() bool { return q.TimedOut() == 1 })

	assert.Len(t, q.Trace().Admissions, 2)
	assert.Len(t, q.Trace().Routings, 2)
	require.Len(t, q.Trace().Timeouts, 1)
	assert.Equal(t, "CPU_1", q.Trace().Timeouts[0].Server)
}

func TestMetrics_CountCompletionsAndRejections(t *testing.T) {
	cfg := newTestConfig(1)
	cfg.MaxCapacity = 1
	cfg.ProcessingTimeMs = 100
	q := NewQueueSimulator(cfg, nil)

	assert.True(t, q.GenerateProcess())
	assert.False(t, q.GenerateProcess())
	tickUntil(t, q, 1000, func() bool { return q.Score() == 1 })

	m := q.Metrics()
	assert.Equal(t, 2, m.Generated)
	assert.Equal(t, 1, m.Admitted)
	assert.Equal(t, 1, m.Rejected)
	assert.Equal(t, 1, m.Completed)
	assert.Len(t, m.E2ESeconds, 1)
}
