package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim/trace"
)

// newTestConnection builds a connection system with servers placed on the
// x axis at distance 30, 60, ... from the origin.
func newTestConnection(t *testing.T, servers int, capacity int) (*ConnectionSystem, *Clock) {
	t.Helper()
	clock := NewClock(60)
	c := NewConnectionSystem(clock, Point{}, NewLoadBalancer("round-robin"), capacity, 3.0, DefaultTransitLimits())
	for i := 0; i < servers; i++ {
		c.AddServer(NewServer(ServerID(i+1), Point{X: float64(30 * (i + 1))}, "gray", 100, clock))
	}
	return c, clock
}

func TestConnectionSystem_AddProcess_NoServers_Rejects(t *testing.T) {
	c, _ := newTestConnection(t, 0, 10)
	p := NewProcess(1, Point{X: 9}, 0)
	assert.False(t, c.AddProcess(p))
	assert.Equal(t, StateCreated, p.State)
	assert.Equal(t, 0, c.TotalProcesses())
}

func TestConnectionSystem_Capacity_RejectsAtLimit(t *testing.T) {
	// GIVEN capacity 2
	c, _ := newTestConnection(t, 1, 2)
	require.True(t, c.AddProcess(NewProcess(1, Point{}, 0)))
	require.True(t, c.AddProcess(NewProcess(2, Point{}, 0)))

	// WHEN a third is offered
	p := NewProcess(3, Point{}, 0)
	ok := c.AddProcess(p)

	// THEN it is refused and nothing changes
	assert.False(t, ok)
	assert.Equal(t, 2, c.TotalProcesses())
	assert.Equal(t, StateCreated, p.State)
	_, assigned := c.Assignment(3)
	assert.False(t, assigned)
}

func TestConnectionSystem_Update_DeliversAndDispatches(t *testing.T) {
	// GIVEN one server 30 units away and two admitted processes
	c, clock := newTestConnection(t, 1, 10)
	a, b := NewProcess(1, Point{}, 0), NewProcess(2, Point{}, 0)
	require.True(t, c.AddProcess(a))
	require.True(t, c.AddProcess(b))
	assert.Len(t, c.InputQueue(), 2)

	// WHEN one tick runs, exactly one is promoted
	clock.Advance()
	c.Update()
	assert.Len(t, c.InputQueue(), 1)
	assert.Equal(t, StateInTransit, a.State)

	// THEN a arrives to an idle server, b queues behind it
	for i := 0; i < 20; i++ {
		clock.Advance()
		c.Update()
	}
	s := c.Server(1)
	assert.Equal(t, StateProcessing, a.State)
	assert.Equal(t, StateWaitingCPU, b.State)
	assert.Equal(t, s.Position(), a.Position)
	assert.Same(t, a, s.Current())
	_, stillAssigned := c.Assignment(a.ID)
	assert.False(t, stillAssigned, "assignment is cleaned up on hand-off")
	assert.Equal(t, 2, c.TotalProcesses())

	// WHEN a completes, the next update dispatches b
	for !s.CheckProcessingComplete() {
		clock.Advance()
	}
	c.Update()
	assert.Equal(t, StateProcessing, b.State)
}

func TestConnectionSystem_TransitCap(t *testing.T) {
	c, clock := newTestConnection(t, 1, 20)
	c.servers[0].position = Point{X: 3000}
	c.recomputeRoutes()
	for i := 1; i <= 10; i++ {
		require.True(t, c.AddProcess(NewProcess(ProcessID(i), Point{}, 0)))
	}
	for i := 0; i < 10; i++ {
		clock.Advance()
		c.Update()
	}
	assert.Len(t, c.Transit(), 5, "single-server cap")

	c.AddServer(NewServer(2, Point{X: 3000, Y: 10}, "gray", 100, clock))
	assert.Equal(t, 8, c.TransitCap())
}

func TestConnectionSystem_ZeroLengthRoute_Teleports(t *testing.T) {
	clock := NewClock(60)
	c := NewConnectionSystem(clock, Point{}, NewLoadBalancer(""), 5, 3.0, DefaultTransitLimits())
	c.AddServer(NewServer(1, Point{}, "gray", 100, clock))
	route, ok := c.Route(1)
	require.True(t, ok)
	assert.Equal(t, Route{}, route)

	p := NewProcess(1, Point{}, 0)
	require.True(t, c.AddProcess(p))
	clock.Advance()
	c.Update()
	assert.Equal(t, StateProcessing, p.State)
}

func TestConnectionSystem_RemoveServer_DropsAndReroutes(t *testing.T) {
	// GIVEN two servers and four processes routed 1, 2, 1, 2
	c, clock := newTestConnection(t, 2, 10)
	ps := make([]*Process, 4)
	for i := range ps {
		ps[i] = NewProcess(ProcessID(i+1), Point{}, 0)
		require.True(t, c.AddProcess(ps[i]))
	}
	clock.Advance()
	c.Update() // ps[0] in transit to server 1

	// WHEN server 1 is removed
	dropped := c.RemoveServer(1)

	// THEN the in-transit process bound to it is dropped and queued ones re-routed
	require.Len(t, dropped, 1)
	assert.Same(t, ps[0], dropped[0])
	assert.True(t, ps[0].Dropped)
	assert.Equal(t, ServerID(2), ps[2].Target)
	target, _ := c.Assignment(ps[2].ID)
	assert.Equal(t, ServerID(2), target)
	_, hasRoute := c.Route(1)
	assert.False(t, hasRoute)
	assert.Nil(t, c.RemoveServer(1), "unknown id")

	// WHEN the last server goes, the input queue is dropped too
	dropped = c.RemoveServer(2)
	assert.Len(t, dropped, 3)
	assert.Equal(t, 0, c.TotalProcesses())
}

func TestConnectionSystem_Setters_IgnoreInvalid(t *testing.T) {
	c, _ := newTestConnection(t, 1, 10)
	assert.False(t, c.SetMaxCapacity(0))
	assert.False(t, c.SetTransportSpeed(-1))
	assert.Equal(t, 10, c.MaxCapacity())
	assert.Equal(t, 3.0, c.TransportSpeed())
	assert.True(t, c.SetMaxCapacity(15))
	assert.True(t, c.SetTransportSpeed(4.5))
	assert.Equal(t, 15, c.MaxCapacity())
}

func TestConnectionSystem_SlotPositions_ShowOrder(t *testing.T) {
	c, clock := newTestConnection(t, 1, 10)
	for i := 1; i <= 3; i++ {
		require.True(t, c.AddProcess(NewProcess(ProcessID(i), Point{}, 0)))
	}
	clock.Advance()
	c.Update()
	q := c.InputQueue()
	require.Len(t, q, 2)
	assert.Equal(t, Point{X: -30, Y: -20}, q[0].Position)
	assert.Equal(t, Point{X: -55, Y: -5}, q[1].Position)
}

func TestConnectionSystem_Trace_RecordsDecisions(t *testing.T) {
	c, _ := newTestConnection(t, 2, 1)
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	c.SetTrace(st)

	c.AddProcess(NewProcess(1, Point{}, 0))
	c.AddProcess(NewProcess(2, Point{}, 0))

	require.Len(t, st.Admissions, 2)
	assert.True(t, st.Admissions[0].Admitted)
	assert.Equal(t, "capacity exhausted", st.Admissions[1].Reason)
	require.Len(t, st.Routings, 1)
	assert.Equal(t, "CPU_1", st.Routings[0].ChosenServer)
}

func TestNewConnectionSystem_InvalidParams_Panic(t *testing.T) {
	clock := NewClock(60)
	assert.Panics(t, func() { NewConnectionSystem(clock, Point{}, &RoundRobin{}, 0, 1, DefaultTransitLimits()) })
	assert.Panics(t, func() { NewConnectionSystem(clock, Point{}, &RoundRobin{}, 1, 0, DefaultTransitLimits()) })
}
