// Package trace provides decision-trace recording for admission, routing and
// timeout analysis. This package has no dependencies on sim/. It stores pure data types.
package trace

// AdmissionRecord captures a single admission decision at the connection system.
type AdmissionRecord struct {
	ProcessID int64
	Tick      int64
	Admitted  bool
	Reason    string
}

// RoutingRecord captures a single load balancer decision.
type RoutingRecord struct {
	ProcessID    int64
	Tick         int64
	ChosenServer string
	Reason       string
	Loads        map[string]int // server name → load at decision time
}

// TimeoutRecord captures a queue-wait eviction.
type TimeoutRecord struct {
	ProcessID   int64
	Tick        int64
	Server      string
	WaitSeconds float64
}
