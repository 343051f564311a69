// Package sim provides the tick-driven queueing engine for queue-sim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - process.go: Process lifecycle (created → in_queue → in_transit → waiting_cpu/processing → completed)
//   - server.go: single-slot servers with private FIFO wait queues
//   - transport.go: the ConnectionSystem that admits, routes and moves processes
//
// # Architecture
//
// The sim package owns the entities and the transport layer; the controller and
// the economy live in sub-packages:
//   - sim/game/: QueueSimulator, the per-tick controller (timeouts, score, game mode)
//   - sim/shop/: shop catalog, geometric price curves and upgrade effect formulas
//   - sim/trace/: decision trace recording (admission, routing, timeouts)
//
// # Time
//
// There is no wall clock. A Clock counts ticks at a fixed rate and every timestamp
// (creation, queue entry, processing start) is a tick number, so runs are fully
// deterministic for a given seed and input sequence.
//
// # Key Interfaces
//
//   - LoadBalancer: select the target server for a newly admitted process
package sim
