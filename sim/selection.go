package sim

import "fmt"

// SelectionKind discriminates what the presentation layer has selected.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectGenerator
	SelectServer
)

// Selection is a tagged union over {None, Generator, Server(id)}. The server
// variant carries a stable ServerID, so a selection that outlives its server
// simply fails the existence check instead of pointing at the wrong one.
type Selection struct {
	kind   SelectionKind
	server ServerID
}

// NoSelection returns the empty selection.
func NoSelection() Selection { return Selection{} }

// SelectGeneratorComponent returns a selection of the generator.
func SelectGeneratorComponent() Selection { return Selection{kind: SelectGenerator} }

// SelectServerComponent returns a selection of the server with the given id.
func SelectServerComponent(id ServerID) Selection {
	return Selection{kind: SelectServer, server: id}
}

// Kind returns the variant tag.
func (s Selection) Kind() SelectionKind { return s.kind }

// Server returns the selected server id; ok is false for other variants.
func (s Selection) Server() (ServerID, bool) {
	if s.kind != SelectServer {
		return 0, false
	}
	return s.server, true
}

// IsNone reports whether nothing is selected.
func (s Selection) IsNone() bool { return s.kind == SelectNone }

func (s Selection) String() string {
	switch s.kind {
	case SelectGenerator:
		return "generator"
	case SelectServer:
		return fmt.Sprintf("server(%d)", s.server)
	default:
		return "none"
	}
}
