package game

import "github.com/inference-sim/queue-sim/sim"

// Selection returns the currently selected component.
func (q *QueueSimulator) Selection() sim.Selection { return q.selection }

// Select changes the selection. Selecting a server that does not exist is
// refused. Any pending text input is discarded.
func (q *QueueSimulator) Select(sel sim.Selection) bool {
	if id, ok := sel.Server(); ok && q.conn.Server(id) == nil {
		return false
	}
	q.selection = sel
	q.field.Clear()
	return true
}

// ClearSelection deselects everything.
func (q *QueueSimulator) ClearSelection() {
	q.selection = sim.NoSelection()
	q.field.Clear()
}

// selectedServer resolves the selection to a live server, clearing a stale one.
func (q *QueueSimulator) selectedServer() *sim.Server {
	id, ok := q.selection.Server()
	if !ok {
		return nil
	}
	s := q.conn.Server(id)
	if s == nil {
		q.ClearSelection()
	}
	return s
}

// ToggleSelected stops or resumes the selected generator or server.
func (q *QueueSimulator) ToggleSelected() bool {
	if q.gameOver {
		return false
	}
	switch q.selection.Kind() {
	case sim.SelectGenerator:
		q.generator.ToggleStop()
		return true
	case sim.SelectServer:
		if s := q.selectedServer(); s != nil {
			s.ToggleStop()
			return true
		}
	}
	return false
}

// TypeChar feeds a keyboard character to the processing-time field of the
// selected server.
func (q *QueueSimulator) TypeChar(r rune) bool {
	if q.selectedServer() == nil {
		return false
	}
	return q.field.Type(r)
}

// Backspace deletes the last typed character.
func (q *QueueSimulator) Backspace() { q.field.Backspace() }

// InputText returns the pending text of the processing-time field.
func (q *QueueSimulator) InputText() string { return q.field.Text() }

// SubmitProcessingTime applies the typed value, in seconds, to the selected
// server. Empty or non-positive input is ignored. The field is cleared either way.
func (q *QueueSimulator) SubmitProcessingTime() bool {
	defer q.field.Clear()
	s := q.selectedServer()
	if s == nil || q.gameOver {
		return false
	}
	v, ok := q.field.Value()
	if !ok {
		return false
	}
	return s.SetProcessingTime(v)
}
