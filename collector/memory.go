package collector

import (
	"errors"

	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// Memory is an in-memory, ordered Collector. Because the whole sequence
// lives in a slice, BeginReading can be called any number of times and each
// pass sees the full recorded sequence — spec.md §4.E's "multiple passes
// permitted".
type Memory struct {
	states []*schema.MarginalState
	cursor int
	closed bool
}

// NewMemory returns an empty Memory collector.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Start() error {
	m.states = m.states[:0]
	m.closed = false
	return nil
}

func (m *Memory) Append(state *schema.MarginalState) error {
	if m.closed {
		return errors.New("collector: append after finish")
	}
	m.states = append(m.states, state)
	return nil
}

func (m *Memory) Finish() error {
	m.closed = true
	return nil
}

func (m *Memory) BeginReading() error {
	m.cursor = 0
	return nil
}

func (m *Memory) Next() (*schema.MarginalState, bool, error) {
	if m.cursor >= len(m.states) {
		return nil, false, nil
	}
	s := m.states[m.cursor]
	m.cursor++
	return s, true, nil
}

// Len reports how many snapshots have been recorded.
func (m *Memory) Len() int { return len(m.states) }
