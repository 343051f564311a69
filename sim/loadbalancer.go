package sim

import "fmt"

// LoadBalancer selects the server a newly admitted process is routed to.
// Implementations receive the live server list on every call, so a server added
// or removed at runtime is visible to the very next selection.
type LoadBalancer interface {
	// Select returns the target server and a human-readable reason.
	// Returns a nil server when servers is empty; callers must treat nil as
	// "reject", never dereference it.
	Select(servers []*Server) (*Server, string)
}

// RoundRobin cycles over the server list. The cursor advances on every
// selection regardless of the chosen server's load.
type RoundRobin struct {
	cursor int
}

// Select implements LoadBalancer for RoundRobin.
func (rr *RoundRobin) Select(servers []*Server) (*Server, string) {
	if len(servers) == 0 {
		return nil, "round-robin (no servers)"
	}
	idx := rr.cursor % len(servers)
	rr.cursor++
	return servers[idx], fmt.Sprintf("round-robin[%d]", idx)
}

// LeastLoaded routes to the server with minimum QueueLength + busy flag.
// Ties are broken by first occurrence in list order (lowest index).
type LeastLoaded struct{}

// Select implements LoadBalancer for LeastLoaded.
func (ll *LeastLoaded) Select(servers []*Server) (*Server, string) {
	if len(servers) == 0 {
		return nil, "least-loaded (no servers)"
	}
	target := servers[0]
	minLoad := target.Load()
	for i := 1; i < len(servers); i++ {
		if load := servers[i].Load(); load < minLoad {
			minLoad = load
			target = servers[i]
		}
	}
	return target, fmt.Sprintf("least-loaded (load=%d)", minLoad)
}

// ValidLoadBalancers is the set of recognized load balancer names.
// Empty string defaults to round-robin.
var ValidLoadBalancers = map[string]bool{"": true, "round-robin": true, "least-loaded": true}

// IsValidLoadBalancer reports whether name is a recognized load balancer.
func IsValidLoadBalancer(name string) bool {
	return ValidLoadBalancers[name]
}

// LoadBalancerNames returns the selectable names, for CLI help.
func LoadBalancerNames() []string {
	return []string{"round-robin", "least-loaded"}
}

// NewLoadBalancer creates a load balancer by name.
// Panics on unrecognized names; validate user input with IsValidLoadBalancer first.
func NewLoadBalancer(name string) LoadBalancer {
	if !IsValidLoadBalancer(name) {
		panic(fmt.Sprintf("unknown load balancer %q", name))
	}
	switch name {
	case "", "round-robin":
		return &RoundRobin{}
	case "least-loaded":
		return &LeastLoaded{}
	default:
		panic(fmt.Sprintf("unhandled load balancer %q", name))
	}
}
