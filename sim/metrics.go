// Tracks simulation-wide counters and per-process latency samples.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
)

// Distribution captures statistical summary of a metric.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return Distribution{
		Mean:  sum / float64(len(sorted)),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// percentile computes the p-th percentile using linear interpolation.
// Input must be sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Metrics aggregates statistics about the simulation for final reporting.
// Latency samples are recorded in seconds.
type Metrics struct {
	Generated int // processes created by the generator
	Admitted  int // processes accepted into the connection system
	Rejected  int // processes refused at admission (capacity or no servers)
	Completed int // processes that finished processing (the score)
	TimedOut  int // processes removed from a wait queue by the timeout
	Dropped   int // processes lost when their server was removed

	PeakInSystem int // max simultaneous processes inside the connection system

	WaitSeconds []float64 // queue wait of processes that went through a wait queue
	E2ESeconds  []float64 // creation to completion of completed processes
}

// RecordCompletion samples a completed process.
func (m *Metrics) RecordCompletion(p *Process, clock *Clock) {
	m.Completed++
	m.E2ESeconds = append(m.E2ESeconds, float64(p.CompletedAt-p.CreatedAt)/float64(clock.TicksPerSecond()))
}

// RecordWait samples how long a process sat in a wait queue.
func (m *Metrics) RecordWait(seconds float64) {
	m.WaitSeconds = append(m.WaitSeconds, seconds)
}

// ObserveInSystem updates the in-system high-water mark.
func (m *Metrics) ObserveInSystem(n int) {
	if n > m.PeakInSystem {
		m.PeakInSystem = n
	}
}

// MetricsOutput is the JSON form written by SaveResults.
type MetricsOutput struct {
	SessionID    string       `json:"session_id"`
	Ticks        int64        `json:"ticks"`
	SimSeconds   float64      `json:"sim_seconds"`
	Generated    int          `json:"generated"`
	Admitted     int          `json:"admitted"`
	Rejected     int          `json:"rejected"`
	Completed    int          `json:"completed"`
	TimedOut     int          `json:"timed_out"`
	Dropped      int          `json:"dropped"`
	PeakInSystem int          `json:"peak_in_system"`
	Throughput   float64      `json:"throughput_per_sec"`
	Wait         Distribution `json:"wait_seconds"`
	E2E          Distribution `json:"e2e_seconds"`
}

// Output summarizes the metrics at the given tick.
func (m *Metrics) Output(sessionID string, ticks int64, ticksPerSecond int) MetricsOutput {
	secs := float64(ticks) / float64(ticksPerSecond)
	out := MetricsOutput{
		SessionID:    sessionID,
		Ticks:        ticks,
		SimSeconds:   secs,
		Generated:    m.Generated,
		Admitted:     m.Admitted,
		Rejected:     m.Rejected,
		Completed:    m.Completed,
		TimedOut:     m.TimedOut,
		Dropped:      m.Dropped,
		PeakInSystem: m.PeakInSystem,
		Wait:         NewDistribution(m.WaitSeconds),
		E2E:          NewDistribution(m.E2ESeconds),
	}
	if secs > 0 {
		out.Throughput = float64(m.Completed) / secs
	}
	return out
}

// Print writes a human-readable summary to w.
func (m *Metrics) Print(w io.Writer, ticks int64, ticksPerSecond int) {
	o := m.Output("", ticks, ticksPerSecond)
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulated Time       : %.2f s (%d ticks)\n", o.SimSeconds, o.Ticks)
	fmt.Fprintf(w, "Generated            : %d\n", o.Generated)
	fmt.Fprintf(w, "Admitted / Rejected  : %d / %d\n", o.Admitted, o.Rejected)
	fmt.Fprintf(w, "Completed (score)    : %d\n", o.Completed)
	fmt.Fprintf(w, "Timed Out            : %d\n", o.TimedOut)
	fmt.Fprintf(w, "Dropped              : %d\n", o.Dropped)
	fmt.Fprintf(w, "Peak In System       : %d\n", o.PeakInSystem)
	if o.Completed > 0 {
		fmt.Fprintf(w, "Throughput           : %.3f /s\n", o.Throughput)
		fmt.Fprintf(w, "E2E mean / p95       : %.3f s / %.3f s\n", o.E2E.Mean, o.E2E.P95)
	}
	if o.Wait.Count > 0 {
		fmt.Fprintf(w, "Queue wait mean / p95: %.3f s / %.3f s\n", o.Wait.Mean, o.Wait.P95)
	}
}

// SaveResults writes the JSON summary to fileName.
func (m *Metrics) SaveResults(fileName, sessionID string, ticks int64, ticksPerSecond int) error {
	data, err := json.MarshalIndent(m.Output(sessionID, ticks, ticksPerSecond), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metrics: %w", err)
	}
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", fileName, err)
	}
	logrus.Infof("Metrics written to: %s", fileName)
	return nil
}
