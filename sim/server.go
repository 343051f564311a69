package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// ServerID is the stable identity of a server. IDs are never reused within a
// simulation, so a stale ID simply fails the existence check.
type ServerID int

// Server models one CPU: a single processing slot plus a private FIFO wait queue.
//
// Invariants:
//   - at most one current process
//   - a stopped server starts no new work and completes no work, but keeps its queue
//
// Thread-safety: NOT thread-safe. All methods must be called from the tick loop.
type Server struct {
	id       ServerID
	name     string
	color    string
	position Point
	clock    *Clock

	idle      bool
	stopped   bool
	stoppedAt int64

	current          *Process
	queue            ProcessQueue
	processingTimeMs int
}

// NewServer creates an idle, running server named CPU_<id>.
func NewServer(id ServerID, position Point, color string, processingTimeMs int, clock *Clock) *Server {
	if processingTimeMs <= 0 {
		panic(fmt.Sprintf("NewServer: processingTimeMs must be > 0, got %d", processingTimeMs))
	}
	return &Server{
		id:               id,
		name:             fmt.Sprintf("CPU_%d", id),
		color:            color,
		position:         position,
		clock:            clock,
		idle:             true,
		processingTimeMs: processingTimeMs,
	}
}

// ID returns the server identifier.
func (s *Server) ID() ServerID { return s.id }

// Name returns the human-readable name.
func (s *Server) Name() string { return s.name }

// Color returns the presentation color tag.
func (s *Server) Color() string { return s.color }

// Position returns the server center.
func (s *Server) Position() Point { return s.position }

// IsIdle reports whether the processing slot is free.
func (s *Server) IsIdle() bool { return s.idle }

// IsStopped reports whether the server is administratively paused.
func (s *Server) IsStopped() bool { return s.stopped }

// Current returns the process being served, or nil.
func (s *Server) Current() *Process { return s.current }

// ProcessingTimeMs returns the duration assigned to processes dispatched here.
func (s *Server) ProcessingTimeMs() int { return s.processingTimeMs }

// QueueLength returns the number of waiting processes.
func (s *Server) QueueLength() int { return s.queue.Len() }

// Queue returns the waiting processes in FIFO order. Callers MUST NOT modify it.
func (s *Server) Queue() []*Process { return s.queue.Items() }

// Load is the least-loaded metric: waiting processes plus one if busy.
func (s *Server) Load() int {
	if s.idle {
		return s.queue.Len()
	}
	return s.queue.Len() + 1
}

// Status returns a short label for presentation.
func (s *Server) Status() string {
	switch {
	case s.stopped:
		return "stopped"
	case s.idle:
		return "idle"
	default:
		return "processing"
	}
}

// StartProcessing puts p in the processing slot. No-op returning false when stopped.
func (s *Server) StartProcessing(p *Process) bool {
	if s.stopped {
		return false
	}
	s.current = p
	s.idle = false
	p.StartProcessing(s.clock.Now(), s.processingTimeMs)
	logrus.Debugf("[tick %07d] %s started process %d", s.clock.Now(), s.name, p.ID)
	return true
}

// CheckProcessingComplete returns true exactly once, on the tick the current
// process finishes, and frees the slot. Always false while stopped.
func (s *Server) CheckProcessingComplete() bool {
	if s.stopped || s.current == nil {
		return false
	}
	if !s.current.IsProcessingComplete(s.clock) {
		return false
	}
	logrus.Debugf("[tick %07d] %s completed process %d", s.clock.Now(), s.name, s.current.ID)
	s.current = nil
	s.idle = true
	return true
}

// AddToQueue stamps the wait start and appends p to the FIFO.
func (s *Server) AddToQueue(p *Process) {
	p.EnterQueue(s.clock.Now())
	s.queue.Enqueue(p)
}

// NextProcess pops the head of the queue, or returns nil.
func (s *Server) NextProcess() *Process {
	return s.queue.Dequeue()
}

// RemoveFromQueue deletes p from the wait queue (timeout eviction).
func (s *Server) RemoveFromQueue(p *Process) bool {
	return s.queue.Remove(p)
}

// ToggleStop flips between stopped and running.
func (s *Server) ToggleStop() {
	if s.stopped {
		s.Resume()
	} else {
		s.Stop()
	}
}

// Stop pauses the server. The current process keeps its slot but makes no progress.
func (s *Server) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.stoppedAt = s.clock.Now()
	logrus.Infof("[tick %07d] %s stopped", s.clock.Now(), s.name)
}

// Resume un-pauses the server. Ticks spent stopped are credited back to the
// current process so its progress is frozen rather than lost.
func (s *Server) Resume() {
	if !s.stopped {
		return
	}
	s.stopped = false
	if s.current != nil {
		s.current.ProcessingStartedAt += s.clock.Now() - s.stoppedAt
	}
	logrus.Infof("[tick %07d] %s resumed", s.clock.Now(), s.name)
}

// SetProcessingTime sets the duration for future dispatches. Input that rounds
// to less than one millisecond is ignored and the previous value kept.
func (s *Server) SetProcessingTime(seconds float64) bool {
	ms := int(math.Round(seconds * 1000))
	if ms <= 0 {
		return false
	}
	s.processingTimeMs = ms
	logrus.Infof("%s processing time set to %.2fs", s.name, seconds)
	return true
}

// SetProcessingTimeMs is the millisecond form used by upgrade recomputation.
func (s *Server) SetProcessingTimeMs(ms int) bool {
	if ms <= 0 {
		return false
	}
	s.processingTimeMs = ms
	return true
}

// RemainingMs returns the processing time left for the current process, 0 when
// idle. While stopped it is measured up to the stop tick, so it does not move.
func (s *Server) RemainingMs() float64 {
	if s.current == nil || s.current.State != StateProcessing {
		return 0
	}
	elapsed := s.clock.ElapsedMs(s.current.ProcessingStartedAt)
	if s.stopped {
		elapsed -= s.clock.ElapsedMs(s.stoppedAt)
	}
	return max(0, float64(s.current.ProcessingTimeMs)-elapsed)
}

// evict releases every process bound to the server (current and queued) so the
// server can be removed. Returned in slot-then-FIFO order.
func (s *Server) evict() []*Process {
	var out []*Process
	if s.current != nil {
		out = append(out, s.current)
		s.current = nil
		s.idle = true
	}
	return append(out, s.queue.Drain()...)
}
