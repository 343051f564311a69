// Defines the Process struct that models one unit of simulated work.
// Tracks identity, position, lifecycle state and the tick timestamps used for
// processing and queue-wait timing.

package sim

import (
	"fmt"
)

// ProcessID uniquely identifies a process. Assigned monotonically by the Generator.
type ProcessID int64

// ProcessState represents the lifecycle state of a process.
type ProcessState string

const (
	StateCreated    ProcessState = "created"
	StateInQueue    ProcessState = "in_queue"
	StateInTransit  ProcessState = "in_transit"
	StateWaitingCPU ProcessState = "waiting_cpu"
	StateProcessing ProcessState = "processing"
	StateCompleted  ProcessState = "completed"
)

// stateRank orders states along the lifecycle. A process only ever moves to a
// state of strictly higher rank.
var stateRank = map[ProcessState]int{
	StateCreated:    0,
	StateInQueue:    1,
	StateInTransit:  2,
	StateWaitingCPU: 3,
	StateProcessing: 4,
	StateCompleted:  5,
}

// Rank returns the position of the state in the lifecycle ordering, or -1 for
// an unknown state.
func (s ProcessState) Rank() int {
	r, ok := stateRank[s]
	if !ok {
		return -1
	}
	return r
}

// Process models a single unit of work flowing generator → transport → server.
type Process struct {
	ID       ProcessID
	Position Point
	State    ProcessState

	CreatedAt           int64 // tick the generator created it
	QueueEnteredAt      int64 // tick it joined a server wait queue (valid in waiting_cpu)
	ProcessingStartedAt int64 // tick processing began, shifted forward by paused ticks
	ProcessingTimeMs    int   // copied from the target server at dispatch
	CompletedAt         int64 // tick it reached completed

	Target   ServerID // server chosen by the load balancer on admission
	Active   bool
	TimedOut bool
	Dropped  bool // its server was removed while it was bound to it

	history []ProcessState
}

// NewProcess creates a process in the created state.
func NewProcess(id ProcessID, position Point, tick int64) *Process {
	return &Process{
		ID:        id,
		Position:  position,
		State:     StateCreated,
		CreatedAt: tick,
		Active:    true,
		history:   []ProcessState{StateCreated},
	}
}

func (p *Process) String() string {
	return fmt.Sprintf("Process: (ID: %d, State: %s, Target: %d, Position: %v)", p.ID, p.State, p.Target, p.Position)
}

// History returns the ordered list of states this process has visited.
func (p *Process) History() []ProcessState {
	out := make([]ProcessState, len(p.history))
	copy(out, p.history)
	return out
}

// transition moves the process to `to`, enforcing forward-only movement.
func (p *Process) transition(to ProcessState, allowed ...ProcessState) {
	legal := false
	for _, from := range allowed {
		if p.State == from {
			legal = true
			break
		}
	}
	if !legal || to.Rank() <= p.State.Rank() {
		panic(fmt.Sprintf("process %d: illegal transition %s -> %s", p.ID, p.State, to))
	}
	p.State = to
	p.history = append(p.history, to)
}

// Admit marks the process as accepted into the system and bound to target.
func (p *Process) Admit(target ServerID) {
	p.transition(StateInQueue, StateCreated)
	p.Target = target
}

// Reassign rebinds a process that has not left the input queue yet.
func (p *Process) Reassign(target ServerID) {
	if p.State != StateInQueue {
		panic(fmt.Sprintf("process %d: reassign in state %s", p.ID, p.State))
	}
	p.Target = target
}

// Depart marks the process as pulled from the input queue into transit.
func (p *Process) Depart() {
	p.transition(StateInTransit, StateInQueue)
}

// EnterQueue marks arrival at a busy or stopped server and stamps the wait start.
func (p *Process) EnterQueue(tick int64) {
	p.transition(StateWaitingCPU, StateInTransit)
	p.QueueEnteredAt = tick
}

// StartProcessing begins service with the given duration.
func (p *Process) StartProcessing(tick int64, durationMs int) {
	p.transition(StateProcessing, StateInTransit, StateWaitingCPU)
	p.ProcessingStartedAt = tick
	p.ProcessingTimeMs = durationMs
}

// IsProcessingComplete completes the process once its elapsed processing time
// reaches its duration. Returns true only on the call that completes it.
func (p *Process) IsProcessingComplete(clock *Clock) bool {
	if p.State != StateProcessing {
		return false
	}
	if clock.ElapsedMs(p.ProcessingStartedAt) < float64(p.ProcessingTimeMs) {
		return false
	}
	p.transition(StateCompleted, StateProcessing)
	p.Active = false
	p.CompletedAt = clock.Now()
	return true
}

// RemainingMs returns the processing time left, clamped at 0. Zero outside processing.
func (p *Process) RemainingMs(clock *Clock) float64 {
	if p.State != StateProcessing {
		return 0
	}
	return max(0, float64(p.ProcessingTimeMs)-clock.ElapsedMs(p.ProcessingStartedAt))
}

// TimeOut force-completes a waiting process that exceeded the queue-wait limit.
// It never passes through processing.
func (p *Process) TimeOut(tick int64) {
	p.transition(StateCompleted, StateWaitingCPU)
	p.Active = false
	p.TimedOut = true
	p.CompletedAt = tick
}

// Drop terminates a process whose server disappeared underneath it.
func (p *Process) Drop(tick int64) {
	p.transition(StateCompleted, StateInQueue, StateInTransit, StateWaitingCPU, StateProcessing)
	p.Active = false
	p.Dropped = true
	p.CompletedAt = tick
}

// IsFinished reports whether the process can be pruned from the master list.
func (p *Process) IsFinished() bool {
	return !p.Active && p.State != StateProcessing
}
