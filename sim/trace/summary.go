package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions     int
	AdmittedCount      int
	RejectedCount      int
	TimeoutCount       int
	MeanTimeoutWait    float64
	UniqueTargets      int
	TargetDistribution map[string]int // server name → count of processes routed
	TimeoutsByServer   map[string]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
		TimeoutsByServer:   make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Admissions)
	for _, a := range st.Admissions {
		if a.Admitted {
			summary.AdmittedCount++
		} else {
			summary.RejectedCount++
		}
	}

	for _, r := range st.Routings {
		summary.TargetDistribution[r.ChosenServer]++
	}
	summary.UniqueTargets = len(summary.TargetDistribution)

	if len(st.Timeouts) > 0 {
		totalWait := 0.0
		for _, to := range st.Timeouts {
			summary.TimeoutsByServer[to.Server]++
			totalWait += to.WaitSeconds
		}
		summary.TimeoutCount = len(st.Timeouts)
		summary.MeanTimeoutWait = totalWait / float64(len(st.Timeouts))
	}

	return summary
}
