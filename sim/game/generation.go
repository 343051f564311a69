package game

// FrequencyPreset is a named generation interval.
type FrequencyPreset struct {
	Name            string
	IntervalSeconds float64
}

// FrequencyPresets are ordered from slowest to fastest.
var FrequencyPresets = []FrequencyPreset{
	{Name: "very slow", IntervalSeconds: 3},
	{Name: "slow", IntervalSeconds: 2},
	{Name: "normal", IntervalSeconds: 1},
	{Name: "fast", IntervalSeconds: 0.5},
	{Name: "very fast", IntervalSeconds: 0.25},
}

// GenerateProcess creates one process and offers it to the connection system.
// Returns false if the generator is stopped or admission was rejected; a
// rejected process never enters the master list.
func (q *QueueSimulator) GenerateProcess() bool {
	if q.gameOver || q.generator.IsStopped() {
		return false
	}
	p := q.generator.CreateProcess(q.clock.Now())
	q.metrics.Generated++
	if !q.conn.AddProcess(p) {
		q.metrics.Rejected++
		q.log.Debugf("[tick %07d] process %d rejected (%d/%d in system)", q.clock.Now(), p.ID, q.conn.TotalProcesses(), q.conn.MaxCapacity())
		return false
	}
	q.metrics.Admitted++
	q.processes = append(q.processes, p)
	return true
}

// autoGenerateTick accumulates elapsed ticks and fires once the effective
// interval is reached, provided the system has room and the generator runs.
// Otherwise the accumulator is held so the process fires as soon as it can.
func (q *QueueSimulator) autoGenerateTick() {
	if !q.autoGenerate {
		return
	}
	q.genTicks++
	if q.genTicks < q.clock.TicksFor(q.EffectiveInterval()*1000) {
		return
	}
	if q.generator.IsStopped() || !q.conn.HasCapacity() || len(q.conn.Servers()) == 0 {
		return
	}
	q.GenerateProcess()
	q.genTicks = 0
}

// AutoGenerate reports whether periodic generation is on.
func (q *QueueSimulator) AutoGenerate() bool { return q.autoGenerate }

// ToggleAutoGenerate flips periodic generation and returns the new value.
func (q *QueueSimulator) ToggleAutoGenerate() bool {
	q.autoGenerate = !q.autoGenerate
	q.genTicks = 0
	return q.autoGenerate
}

// GenerationInterval returns the configured interval in seconds.
func (q *QueueSimulator) GenerationInterval() float64 { return q.intervalSeconds }

// EffectiveInterval returns the interval currently in force, shortened while
// an increased-load event is active.
func (q *QueueSimulator) EffectiveInterval() float64 {
	if q.clock.Now() < q.surgeUntil {
		return q.intervalSeconds * (1 - q.surgeFraction)
	}
	return q.intervalSeconds
}

// SetGenerationInterval changes the interval. Non-positive values are ignored.
func (q *QueueSimulator) SetGenerationInterval(seconds float64) bool {
	if seconds <= 0 {
		return false
	}
	q.intervalSeconds = seconds
	q.log.Infof("generation interval set to %.2fs", seconds)
	return true
}

// Frequency returns the preset name matching the interval, or "custom".
func (q *QueueSimulator) Frequency() string {
	for _, p := range FrequencyPresets {
		if p.IntervalSeconds == q.intervalSeconds {
			return p.Name
		}
	}
	return "custom"
}

// IncreaseFrequency switches to the next faster preset. Returns false at the
// fastest preset.
func (q *QueueSimulator) IncreaseFrequency() bool {
	for _, p := range FrequencyPresets {
		if p.IntervalSeconds < q.intervalSeconds {
			return q.SetGenerationInterval(p.IntervalSeconds)
		}
	}
	return false
}

// DecreaseFrequency switches to the next slower preset. Returns false at the
// slowest preset.
func (q *QueueSimulator) DecreaseFrequency() bool {
	for i := len(FrequencyPresets) - 1; i >= 0; i-- {
		if p := FrequencyPresets[i]; p.IntervalSeconds > q.intervalSeconds {
			return q.SetGenerationInterval(p.IntervalSeconds)
		}
	}
	return false
}

// ToggleGenerator stops or resumes the generator.
func (q *QueueSimulator) ToggleGenerator() bool {
	if q.gameOver {
		return false
	}
	q.generator.ToggleStop()
	return true
}
