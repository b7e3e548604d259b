package schema

import (
	"encoding/gob"
	"fmt"
	"io"
)

// GobCodec encodes MarginalState with the standard library's encoding/gob.
// It is the one place in this repo that reaches for the standard library by
// deliberate choice rather than necessity: spec.md places the wire format
// outside the core's concerns, so there is no ecosystem serialization
// library to "wire in" here without presuming a caller's own format — gob
// is simply a working default a caller can swap out via the Codec
// interface.
type GobCodec struct{}

// Encode writes state to w.
func (GobCodec) Encode(w io.Writer, state *MarginalState) error {
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("schema: gob encode: %w", err)
	}
	return nil
}

// Decode reads one MarginalState from r.
func (GobCodec) Decode(r io.Reader) (*MarginalState, error) {
	var state MarginalState
	if err := gob.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("schema: gob decode: %w", err)
	}
	return &state, nil
}
