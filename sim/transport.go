package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queue-sim/sim/trace"
)

// TransitLimits caps how many processes may be in transit at once. The cap
// depends on whether one or several servers are attached.
type TransitLimits struct {
	Single int // cap when at most one server exists
	Multi  int // cap when two or more servers exist
}

// DefaultTransitLimits returns the tuned caps (5 single-server, 8 multi-server).
func DefaultTransitLimits() TransitLimits {
	return TransitLimits{Single: 5, Multi: 8}
}

// For returns the cap for a configuration with n servers.
func (l TransitLimits) For(n int) int {
	if n <= 1 {
		return l.Single
	}
	return l.Multi
}

// ConnectionSystem is the transport layer between the generator and the servers.
// It owns the shared input queue, the in-transit list, the process→server
// assignment map and the per-server route cache.
//
// Capacity invariant: TotalProcesses() <= MaxCapacity() at admission time.
// All counters are recomputed from live collections on every call.
//
// Thread-safety: NOT thread-safe. All methods must be called from the tick loop.
type ConnectionSystem struct {
	clock    *Clock
	origin   Point
	servers  []*Server
	balancer LoadBalancer

	inputQueue  ProcessQueue
	transit     []*Process
	assignments map[ProcessID]ServerID
	routes      map[ServerID]Route

	maxCapacity    int
	transportSpeed float64
	limits         TransitLimits

	trace *trace.SimulationTrace
}

// NewConnectionSystem creates a transport rooted at the generator position.
// Panics if maxCapacity or transportSpeed is not positive.
func NewConnectionSystem(clock *Clock, origin Point, balancer LoadBalancer, maxCapacity int, transportSpeed float64, limits TransitLimits) *ConnectionSystem {
	if maxCapacity <= 0 {
		panic("NewConnectionSystem: maxCapacity must be > 0")
	}
	if transportSpeed <= 0 {
		panic("NewConnectionSystem: transportSpeed must be > 0")
	}
	return &ConnectionSystem{
		clock:          clock,
		origin:         origin,
		balancer:       balancer,
		assignments:    make(map[ProcessID]ServerID),
		routes:         make(map[ServerID]Route),
		maxCapacity:    maxCapacity,
		transportSpeed: transportSpeed,
		limits:         limits,
	}
}

// SetTrace attaches a decision trace. Nil disables recording.
func (c *ConnectionSystem) SetTrace(st *trace.SimulationTrace) {
	c.trace = st
}

// === Accessors ===

// Origin returns the generator position all routes start from.
func (c *ConnectionSystem) Origin() Point { return c.origin }

// Servers returns the live server list. Callers MUST NOT modify it.
func (c *ConnectionSystem) Servers() []*Server { return c.servers }

// Server returns the server with the given id, or nil if it no longer exists.
func (c *ConnectionSystem) Server(id ServerID) *Server {
	for _, s := range c.servers {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// InputQueue returns the processes waiting at the generator, FIFO order.
func (c *ConnectionSystem) InputQueue() []*Process { return c.inputQueue.Items() }

// Transit returns the processes currently moving toward a server.
func (c *ConnectionSystem) Transit() []*Process { return c.transit }

// Route returns the cached route to a server.
func (c *ConnectionSystem) Route(id ServerID) (Route, bool) {
	r, ok := c.routes[id]
	return r, ok
}

// Assignment returns the server a process in the transport layer is bound to.
func (c *ConnectionSystem) Assignment(id ProcessID) (ServerID, bool) {
	s, ok := c.assignments[id]
	return s, ok
}

// MaxCapacity returns the admission limit.
func (c *ConnectionSystem) MaxCapacity() int { return c.maxCapacity }

// TransportSpeed returns the distance a process travels per tick.
func (c *ConnectionSystem) TransportSpeed() float64 { return c.transportSpeed }

// TransitCap returns the concurrent in-transit limit for the current server count.
func (c *ConnectionSystem) TransitCap() int { return c.limits.For(len(c.servers)) }

// SetMaxCapacity updates the admission limit. Non-positive values are ignored.
// Lowering the limit below the current total does not evict anything.
func (c *ConnectionSystem) SetMaxCapacity(n int) bool {
	if n <= 0 {
		return false
	}
	c.maxCapacity = n
	return true
}

// SetTransportSpeed updates the per-tick travel distance. Non-positive values are ignored.
func (c *ConnectionSystem) SetTransportSpeed(v float64) bool {
	if v <= 0 {
		return false
	}
	c.transportSpeed = v
	return true
}

// SetLoadBalancer swaps the routing policy.
func (c *ConnectionSystem) SetLoadBalancer(lb LoadBalancer) {
	c.balancer = lb
}

// TotalProcesses counts everything inside the system:
// input queue + transit + all server queues + busy servers.
func (c *ConnectionSystem) TotalProcesses() int {
	total := c.inputQueue.Len() + len(c.transit)
	for _, s := range c.servers {
		total += s.Load()
	}
	return total
}

// HasCapacity reports whether one more process may be admitted.
func (c *ConnectionSystem) HasCapacity() bool {
	return c.TotalProcesses() < c.maxCapacity
}

// === Server set ===

// AddServer attaches a server and recomputes every route.
func (c *ConnectionSystem) AddServer(s *Server) {
	c.servers = append(c.servers, s)
	c.recomputeRoutes()
	logrus.Infof("[tick %07d] %s attached (%d servers)", c.clock.Now(), s.Name(), len(c.servers))
}

// RemoveServer detaches a server and returns every process that was dropped
// with it: its current process, its wait queue and processes in transit to it.
// Processes still in the input queue are re-routed to a remaining server, or
// dropped if none remains. Returns nil if the server does not exist.
func (c *ConnectionSystem) RemoveServer(id ServerID) []*Process {
	idx := -1
	for i, s := range c.servers {
		if s.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	removed := c.servers[idx]
	now := c.clock.Now()

	dropped := removed.evict()
	for _, p := range dropped {
		p.Drop(now)
	}

	keep := c.transit[:0]
	for _, p := range c.transit {
		if p.Target == id {
			p.Drop(now)
			delete(c.assignments, p.ID)
			dropped = append(dropped, p)
			continue
		}
		keep = append(keep, p)
	}
	for i := len(keep); i < len(c.transit); i++ {
		c.transit[i] = nil
	}
	c.transit = keep

	c.servers = append(c.servers[:idx], c.servers[idx+1:]...)
	c.recomputeRoutes()

	for _, p := range c.inputQueue.Items() {
		if p.Target != id {
			continue
		}
		target, reason := c.balancer.Select(c.servers)
		if target == nil {
			continue
		}
		p.Reassign(target.ID())
		c.assignments[p.ID] = target.ID()
		c.recordRouting(p, target, reason)
	}
	if len(c.servers) == 0 {
		for _, p := range c.inputQueue.Drain() {
			p.Drop(now)
			delete(c.assignments, p.ID)
			dropped = append(dropped, p)
		}
	}

	if len(dropped) > 0 {
		logrus.Warnf("[tick %07d] %s removed, %d processes dropped", now, removed.Name(), len(dropped))
	} else {
		logrus.Infof("[tick %07d] %s removed", now, removed.Name())
	}
	return dropped
}

// recomputeRoutes rebuilds the route cache for every server from scratch.
func (c *ConnectionSystem) recomputeRoutes() {
	routes := make(map[ServerID]Route, len(c.servers))
	for _, s := range c.servers {
		routes[s.ID()] = NewRoute(c.origin, s.Position())
	}
	c.routes = routes
}

// === Admission ===

// AddProcess admits p into the input queue bound to a load-balancer target.
// Returns false, leaving all state unchanged, when there are no servers, the
// system is at capacity, or the balancer yields no target.
func (c *ConnectionSystem) AddProcess(p *Process) bool {
	now := c.clock.Now()
	if len(c.servers) == 0 {
		c.recordAdmission(p, false, "no servers")
		return false
	}
	if !c.HasCapacity() {
		c.recordAdmission(p, false, "capacity exhausted")
		return false
	}
	target, reason := c.balancer.Select(c.servers)
	if target == nil {
		c.recordAdmission(p, false, "no target")
		return false
	}

	c.assignments[p.ID] = target.ID()
	p.Position = c.origin
	p.Admit(target.ID())
	c.inputQueue.Enqueue(p)

	c.recordAdmission(p, true, "admitted")
	c.recordRouting(p, target, reason)
	logrus.Debugf("[tick %07d] process %d admitted, routed to %s (%s)", now, p.ID, target.Name(), reason)
	return true
}

func (c *ConnectionSystem) recordAdmission(p *Process, admitted bool, reason string) {
	if !c.trace.Enabled() {
		return
	}
	c.trace.RecordAdmission(trace.AdmissionRecord{
		ProcessID: int64(p.ID),
		Tick:      c.clock.Now(),
		Admitted:  admitted,
		Reason:    reason,
	})
}

func (c *ConnectionSystem) recordRouting(p *Process, target *Server, reason string) {
	if !c.trace.Enabled() {
		return
	}
	loads := make(map[string]int, len(c.servers))
	for _, s := range c.servers {
		loads[s.Name()] = s.Load()
	}
	c.trace.RecordRouting(trace.RoutingRecord{
		ProcessID:    int64(p.ID),
		Tick:         c.clock.Now(),
		ChosenServer: target.Name(),
		Reason:       reason,
		Loads:        loads,
	})
}

// === Update ===

// Update advances the transport by one tick, in fixed order:
// promote from input queue, move transit, dispatch server queues, lay out queue slots.
func (c *ConnectionSystem) Update() {
	c.promote()
	c.advanceTransit()
	c.dispatchQueues()
	c.updateSlotPositions()
}

// promote moves at most one process from the input queue into transit.
func (c *ConnectionSystem) promote() {
	if c.inputQueue.Len() == 0 || len(c.transit) >= c.TransitCap() {
		return
	}
	p := c.inputQueue.Dequeue()
	p.Depart()
	p.Position = c.origin
	c.transit = append(c.transit, p)
}

// advanceTransit moves every in-transit process along its route and hands
// off those that arrive this tick.
func (c *ConnectionSystem) advanceTransit() {
	speed := c.transportSpeed
	moving := make([]*Process, 0, len(c.transit))
	for _, p := range c.transit {
		target := c.Server(p.Target)
		if target == nil {
			// RemoveServer drops these; reaching here means the invariant broke.
			logrus.Warnf("process %d in transit to missing server %d", p.ID, p.Target)
			continue
		}
		route := c.routes[target.ID()]
		p.Position.X += route.DirX * speed
		p.Position.Y += route.DirY * speed

		if p.Position.DistanceTo(target.Position()) <= speed {
			p.Position = target.Position()
			c.handOff(p, target)
			continue
		}
		moving = append(moving, p)
	}
	c.transit = moving
}

// handOff delivers an arrived process: straight to processing if the target is
// free, otherwise into its wait queue.
func (c *ConnectionSystem) handOff(p *Process, target *Server) {
	delete(c.assignments, p.ID)
	if target.IsIdle() && !target.IsStopped() {
		target.StartProcessing(p)
		return
	}
	target.AddToQueue(p)
	logrus.Debugf("[tick %07d] process %d waiting at %s (queue=%d)", c.clock.Now(), p.ID, target.Name(), target.QueueLength())
}

// dispatchQueues starts the head of each idle, running server's queue.
func (c *ConnectionSystem) dispatchQueues() {
	for _, s := range c.servers {
		if !s.IsIdle() || s.IsStopped() || s.QueueLength() == 0 {
			continue
		}
		s.StartProcessing(s.NextProcess())
	}
}

// updateSlotPositions lays out waiting processes so their order is visible.
func (c *ConnectionSystem) updateSlotPositions() {
	for i, p := range c.inputQueue.Items() {
		p.Position = Point{
			X: c.origin.X - 30 - float64(i*25),
			Y: c.origin.Y - 20 + float64((i%3)*15),
		}
	}
	for _, s := range c.servers {
		center := s.Position()
		for i, p := range s.Queue() {
			p.Position = Point{
				X: center.X - 60 - float64(i*35),
				Y: center.Y - 20 + float64((i%2)*40),
			}
		}
	}
}
