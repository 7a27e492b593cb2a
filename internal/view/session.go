package view

import (
	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Session holds the current State of one open view for callers that prefer a
// stateful handle over threading States through by hand. It is not safe for
// concurrent use.
type Session struct {
	coordinator *Coordinator
	state       State
	source      Source
}

// NewSession creates a session with no source and default parameters
func NewSession(c *Coordinator) *Session {
	return &Session{coordinator: c}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Apply replaces the view parameters
func (s *Session) Apply(params types.ViewParameters) State {
	s.state = s.coordinator.Update(s.state, params, s.source)
	return s.state
}

// SetSource replaces the record source, keeping the current parameters
func (s *Session) SetSource(src Source) State {
	s.source = src
	s.state = s.coordinator.Update(s.state, s.state.Params, src)
	return s.state
}

// Select selects a display row
func (s *Session) Select(row int) State {
	s.state = s.coordinator.Select(s.state, row)
	return s.state
}

// NextMatch advances the search cursor
func (s *Session) NextMatch() State {
	s.state = s.coordinator.NextMatch(s.state)
	return s.state
}

// PrevMatch moves the search cursor back
func (s *Session) PrevMatch() State {
	s.state = s.coordinator.PrevMatch(s.state)
	return s.state
}
