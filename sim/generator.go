package sim

import "github.com/sirupsen/logrus"

// Generator creates processes at the generator position with monotonic IDs.
// Pacing (the generation interval) belongs to the controller; the generator
// only knows whether it is stopped.
type Generator struct {
	position Point
	stopped  bool
	nextID   ProcessID
}

// NewGenerator creates a running generator whose first process has ID 1.
func NewGenerator(position Point) *Generator {
	return &Generator{position: position, nextID: 1}
}

// Position returns the generator center; every route starts here.
func (g *Generator) Position() Point { return g.position }

// IsStopped reports whether generation is paused.
func (g *Generator) IsStopped() bool { return g.stopped }

// NextID returns the ID the next created process will receive.
func (g *Generator) NextID() ProcessID { return g.nextID }

// CreateProcess creates a new process at the generator position.
func (g *Generator) CreateProcess(tick int64) *Process {
	p := NewProcess(g.nextID, g.position, tick)
	g.nextID++
	logrus.Debugf("[tick %07d] generator created process %d", tick, p.ID)
	return p
}

// Stop pauses generation.
func (g *Generator) Stop() { g.stopped = true }

// Resume restarts generation.
func (g *Generator) Resume() { g.stopped = false }

// ToggleStop flips the stopped flag.
func (g *Generator) ToggleStop() { g.stopped = !g.stopped }
