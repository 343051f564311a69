// Implements the ProcessQueue, the FIFO used for the shared input queue and for
// each server's private wait queue.

package sim

import (
	"fmt"
	"strings"
)

// ProcessQueue is a FIFO queue of processes. Order is strictly arrival order;
// there is no priority reordering.
type ProcessQueue struct {
	queue []*Process
}

// Enqueue adds a process to the back of the queue.
func (pq *ProcessQueue) Enqueue(p *Process) {
	if p == nil {
		panic("Enqueue: process must not be nil")
	}
	pq.queue = append(pq.queue, p)
}

func (pq *ProcessQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, p := range pq.queue {
		sb.WriteString(fmt.Sprint(p.ID))
		if i < len(pq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of processes in the queue.
func (pq *ProcessQueue) Len() int {
	return len(pq.queue)
}

// Peek returns the process at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (pq *ProcessQueue) Peek() *Process {
	if len(pq.queue) == 0 {
		return nil
	}
	return pq.queue[0]
}

// Dequeue removes and returns the front process, or nil if empty.
func (pq *ProcessQueue) Dequeue() *Process {
	if len(pq.queue) == 0 {
		return nil
	}
	p := pq.queue[0]
	pq.queue[0] = nil
	pq.queue = pq.queue[1:]
	return p
}

// Remove deletes p from anywhere in the queue, preserving the order of the rest.
// Returns false if p is not queued.
func (pq *ProcessQueue) Remove(p *Process) bool {
	for i, q := range pq.queue {
		if q == p {
			pq.queue = append(pq.queue[:i], pq.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers MUST NOT
// append to or reslice it.
func (pq *ProcessQueue) Items() []*Process {
	return pq.queue
}

// Drain removes and returns every queued process in FIFO order.
func (pq *ProcessQueue) Drain() []*Process {
	out := pq.queue
	pq.queue = nil
	return out
}
