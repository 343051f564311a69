package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim"
)

// newTestConfig returns a default configuration with manual generation and
// the given number of initial servers.
func newTestConfig(servers int) sim.SimConfig {
	cfg := sim.DefaultSimConfig()
	cfg.InitialServers = servers
	cfg.AutoGenerate = false
	return cfg
}

// tickUntil ticks until cond holds or limit ticks elapsed. Fails the test on limit.
func tickUntil(t *testing.T, q *QueueSimulator, limit int, cond func() bool) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if cond() {
			return
		}
		q.Tick()
	}
	require.True(t, cond(), "condition not met within %d ticks", limit)
}

// collect records every process ever seen in the master list.
type collector struct {
	seen map[sim.ProcessID]*sim.Process
}

func newCollector() *collector { return &collector{seen: make(map[sim.ProcessID]*sim.Process)} }

func (c *collector) observe(q *QueueSimulator) {
	for _, p := range q.Processes() {
		c.seen[p.ID] = p
	}
}
