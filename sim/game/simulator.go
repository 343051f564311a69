// Package game implements QueueSimulator, the controller that ties the
// generator, connection system and servers together each tick, and layers the
// economy and game mode (health, random events, notifications) on top.
package game

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/shop"
	"github.com/inference-sim/queue-sim/sim/trace"
)

// QueueSimulator owns one simulation run. Per tick, in fixed order:
// generation, transport update, timeout sweep, completion sweep, game-mode
// events and notifications, prune.
//
// Score counts successful completions and never decreases; shop purchases are
// paid from Balance() = score − spent.
//
// Thread-safety: NOT thread-safe. Drive it from a single loop.
type QueueSimulator struct {
	cfg       sim.SimConfig
	sessionID string
	log       *logrus.Entry

	clock     *sim.Clock
	generator *sim.Generator
	conn      *sim.ConnectionSystem
	catalog   *shop.Catalog
	rng       *sim.PartitionedRNG
	trace     *trace.SimulationTrace
	metrics   *sim.Metrics

	processes    []*sim.Process // master list; finished processes are pruned each tick
	nextServerID sim.ServerID
	serverItems  map[sim.ServerID]shop.ItemID // purchased servers and the slot they came from
	processingMs int                          // duration given to servers created from now on

	autoGenerate    bool
	intervalSeconds float64
	genTicks        int64
	maxQueueSeconds float64

	score    int
	spent    int
	timedOut int

	health        int
	gameOver      bool
	eventTicks    int64
	surgeFraction float64
	surgeUntil    int64
	notifications []Notification

	selection sim.Selection
	field     *sim.NumericField
}

// NewQueueSimulator builds a simulator from cfg with InitialServers servers
// attached. A nil catalog selects shop.NewCatalog().
// Panics if cfg fails Validate; callers validate user input first.
func NewQueueSimulator(cfg sim.SimConfig, catalog *shop.Catalog) *QueueSimulator {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewQueueSimulator: %v", err))
	}
	if catalog == nil {
		catalog = shop.NewCatalog()
	}
	sessionID := uuid.New().String()
	clock := sim.NewClock(cfg.TicksPerSecond)
	conn := sim.NewConnectionSystem(clock, cfg.LayoutConfig.Generator, sim.NewLoadBalancer(cfg.LoadBalancer),
		cfg.MaxCapacity, cfg.TransportSpeed, cfg.TransitLimits)

	q := &QueueSimulator{
		cfg:             cfg,
		sessionID:       sessionID,
		log:             logrus.WithField("session", sessionID),
		clock:           clock,
		generator:       sim.NewGenerator(cfg.LayoutConfig.Generator),
		conn:            conn,
		catalog:         catalog,
		rng:             sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)),
		metrics:         &sim.Metrics{},
		nextServerID:    1,
		serverItems:     make(map[sim.ServerID]shop.ItemID),
		processingMs:    cfg.ProcessingTimeMs,
		autoGenerate:    cfg.AutoGenerate,
		intervalSeconds: cfg.IntervalSeconds,
		maxQueueSeconds: cfg.MaxQueueTimeSeconds,
		health:          cfg.InitialHealth,
		field:           sim.NewNumericField(8),
	}
	if trace.TraceLevel(cfg.TraceLevel) == trace.TraceLevelDecisions {
		q.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
		conn.SetTrace(q.trace)
	}
	for i := 0; i < cfg.InitialServers; i++ {
		q.attachServer()
	}
	q.log.Infof("simulation ready: %d servers, lb=%s, game mode=%v", cfg.InitialServers, cfg.LoadBalancer, cfg.GameConfig.Enabled)
	return q
}

// attachServer creates the next server at its layout slot.
func (q *QueueSimulator) attachServer() *sim.Server {
	id := q.nextServerID
	q.nextServerID++
	s := sim.NewServer(id, q.cfg.LayoutConfig.SlotPosition(id), q.cfg.LayoutConfig.SlotColor(id), q.processingMs, q.clock)
	q.conn.AddServer(s)
	return s
}

// Tick advances the simulation by one frame. A no-op after game over.
func (q *QueueSimulator) Tick() {
	if q.gameOver {
		return
	}
	q.clock.Advance()

	q.autoGenerateTick()
	q.conn.Update()
	q.metrics.ObserveInSystem(q.conn.TotalProcesses())
	q.sweepTimeouts()
	q.sweepCompletions()
	if q.cfg.GameConfig.Enabled && !q.gameOver {
		q.eventsTick()
	}
	q.expireNotifications()
	q.prune()
}

// Run calls Tick n times or until game over. Returns the ticks executed.
func (q *QueueSimulator) Run(n int64) int64 {
	var done int64
	for ; done < n && !q.gameOver; done++ {
		q.Tick()
	}
	return done
}

// sweepTimeouts evicts every waiting process whose queue wait reached the limit.
func (q *QueueSimulator) sweepTimeouts() {
	now := q.clock.Now()
	for _, s := range q.conn.Servers() {
		if q.gameOver {
			return
		}
		var expired []*sim.Process
		for _, p := range s.Queue() {
			if p.State == sim.StateWaitingCPU && q.clock.ElapsedSeconds(p.QueueEnteredAt) >= q.maxQueueSeconds {
				expired = append(expired, p)
			}
		}
		for _, p := range expired {
			if q.gameOver {
				return
			}
			wait := q.clock.ElapsedSeconds(p.QueueEnteredAt)
			s.RemoveFromQueue(p)
			p.TimeOut(now)
			q.timedOut++
			q.metrics.TimedOut++
			q.metrics.RecordWait(wait)
			if q.trace.Enabled() {
				q.trace.RecordTimeout(trace.TimeoutRecord{
					ProcessID:   int64(p.ID),
					Tick:        now,
					Server:      s.Name(),
					WaitSeconds: wait,
				})
			}
			q.log.Debugf("[tick %07d] process %d timed out at %s after %.2fs", now, p.ID, s.Name(), wait)
			if q.cfg.GameConfig.Enabled {
				q.damage(fmt.Sprintf("Process %d timed out at %s", p.ID, s.Name()))
			}
		}
	}
}

// sweepCompletions scores every server whose current process finished this tick.
func (q *QueueSimulator) sweepCompletions() {
	for _, s := range q.conn.Servers() {
		p := s.Current()
		if !s.CheckProcessingComplete() {
			continue
		}
		q.score++
		q.metrics.RecordCompletion(p, q.clock)
		if slices.Contains(p.History(), sim.StateWaitingCPU) {
			q.metrics.RecordWait(float64(p.ProcessingStartedAt-p.QueueEnteredAt) / float64(q.clock.TicksPerSecond()))
		}
	}
}

// prune drops finished processes from the master list.
func (q *QueueSimulator) prune() {
	q.processes = slices.DeleteFunc(q.processes, (*sim.Process).IsFinished)
}

// === Accessors ===

// SessionID returns the unique id of this run.
func (q *QueueSimulator) SessionID() string { return q.sessionID }

// Config returns the configuration the simulator was built from.
func (q *QueueSimulator) Config() sim.SimConfig { return q.cfg }

// Clock returns the simulation clock.
func (q *QueueSimulator) Clock() *sim.Clock { return q.clock }

// Connection returns the transport layer.
func (q *QueueSimulator) Connection() *sim.ConnectionSystem { return q.conn }

// Generator returns the process generator.
func (q *QueueSimulator) Generator() *sim.Generator { return q.generator }

// Catalog returns the shop.
func (q *QueueSimulator) Catalog() *shop.Catalog { return q.catalog }

// Metrics returns the collected metrics.
func (q *QueueSimulator) Metrics() *sim.Metrics { return q.metrics }

// Trace returns the decision trace, or nil when tracing is off.
func (q *QueueSimulator) Trace() *trace.SimulationTrace { return q.trace }

// Processes returns the live processes. Callers MUST NOT modify it.
func (q *QueueSimulator) Processes() []*sim.Process { return q.processes }

// Score returns the number of successfully completed processes.
func (q *QueueSimulator) Score() int { return q.score }

// Balance returns the score not yet spent in the shop.
func (q *QueueSimulator) Balance() int { return q.score - q.spent }

// TimedOut returns the number of processes evicted by the queue-wait timeout.
func (q *QueueSimulator) TimedOut() int { return q.timedOut }

// MaxQueueTime returns the queue-wait limit in seconds.
func (q *QueueSimulator) MaxQueueTime() float64 { return q.maxQueueSeconds }

// SetMaxQueueTime changes the queue-wait limit. Non-positive values are ignored.
func (q *QueueSimulator) SetMaxQueueTime(seconds float64) bool {
	if seconds <= 0 {
		return false
	}
	q.maxQueueSeconds = seconds
	q.log.Infof("max queue time set to %.2fs", seconds)
	return true
}
