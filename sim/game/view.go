package game

import "github.com/inference-sim/queue-sim/sim"

// ProcessView is the render-facing state of one process.
type ProcessView struct {
	ID       sim.ProcessID
	State    sim.ProcessState
	Position sim.Point
	Target   sim.ServerID
}

// ServerView is the render-facing state of one server.
type ServerView struct {
	ID               sim.ServerID
	Name             string
	Color            string
	Position         sim.Point
	Status           string
	QueueLength      int
	ProcessingTimeMs int
	Current          sim.ProcessID // 0 when idle
	RemainingMs      float64
}

// GeneratorView is the render-facing state of the generator.
type GeneratorView struct {
	Position        sim.Point
	Stopped         bool
	AutoGenerate    bool
	IntervalSeconds float64
	Frequency       string
}

// View is a point-in-time snapshot for the presentation layer.
type View struct {
	Tick           int64
	Processes      []ProcessView
	Servers        []ServerView
	Generator      GeneratorView
	TotalProcesses int
	MaxCapacity    int
	TransportSpeed float64
	MaxQueueTime   float64

	Score     int
	Balance   int
	TimedOut  int
	Health    int
	MaxHealth int
	GameOver  bool

	Notifications []Notification
	Selection     sim.Selection
	InputText     string
}

// View builds a snapshot of the current state.
func (q *QueueSimulator) View() View {
	v := View{
		Tick: q.clock.Now(),
		Generator: GeneratorView{
			Position:        q.generator.Position(),
			Stopped:         q.generator.IsStopped(),
			AutoGenerate:    q.autoGenerate,
			IntervalSeconds: q.intervalSeconds,
			Frequency:       q.Frequency(),
		},
		TotalProcesses: q.conn.TotalProcesses(),
		MaxCapacity:    q.conn.MaxCapacity(),
		TransportSpeed: q.conn.TransportSpeed(),
		MaxQueueTime:   q.maxQueueSeconds,
		Score:          q.score,
		Balance:        q.Balance(),
		TimedOut:       q.timedOut,
		Health:         q.health,
		MaxHealth:      q.MaxHealth(),
		GameOver:       q.gameOver,
		Notifications:  q.Notifications(),
		Selection:      q.selection,
		InputText:      q.field.Text(),
	}
	for _, p := range q.processes {
		v.Processes = append(v.Processes, ProcessView{ID: p.ID, State: p.State, Position: p.Position, Target: p.Target})
	}
	for _, s := range q.conn.Servers() {
		sv := ServerView{
			ID:               s.ID(),
			Name:             s.Name(),
			Color:            s.Color(),
			Position:         s.Position(),
			Status:           s.Status(),
			QueueLength:      s.QueueLength(),
			ProcessingTimeMs: s.ProcessingTimeMs(),
		}
		if p := s.Current(); p != nil {
			sv.Current = p.ID
			sv.RemainingMs = s.RemainingMs()
		}
		v.Servers = append(v.Servers, sv)
	}
	return v
}
