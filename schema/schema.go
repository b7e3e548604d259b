// Package schema defines the logical shape of the state messages the core
// writes to and reads from a Collector. Concrete wire encoding is
// deliberately not fixed here: spec.md §1 places "the serialized message
// schema used for state persistence" outside the core's scope (it treats
// the collector as an opaque byte sink/source). The original bayesmix used
// Protobuf for this; this package instead exposes the same logical shape as
// plain Go structs plus a pluggable Codec, so a caller can choose Protobuf,
// JSON, or anything else without the core depending on any of them.
package schema

import "io"

// Vector is a dense float64 vector, row-major by convention (size is
// redundant with len(Data) but kept to mirror the external wire shape given
// in spec.md §6 one-to-one).
type Vector struct {
	Size int
	Data []float64
}

// Matrix is a dense row-major float64 matrix.
type Matrix struct {
	Rows, Cols int
	Data       []float64 // row-major
}

// UniLSState is the scalar location-scale cluster state produced by NNIG:
// a mean and a variance.
type UniLSState struct {
	Mean float64
	Var  float64
}

// MultiLSState is the vector location / matrix precision cluster state
// produced by NNW.
type MultiLSState struct {
	Mean Vector
	Prec Matrix
}

// ClusterState is one cluster's snapshot: its cardinality plus exactly one
// of the family-specific payloads. Exactly one of Uni/Multi is populated,
// matching the `oneof payload` shape in spec.md §6.
type ClusterState struct {
	Cardinality int
	Uni         *UniLSState
	Multi       *MultiLSState
}

// MixingState captures whichever mixing family is active; again exactly one
// field is populated.
type MixingState struct {
	DirichletProcess *DPState
	PitmanYor        *PYState
}

// DPState is the Dirichlet process mixing's hyperparameter snapshot.
type DPState struct {
	TotalMass float64
}

// PYState is the Pitman-Yor mixing's hyperparameter snapshot.
type PYState struct {
	Strength, Discount float64
}

// MarginalState is one iteration's complete snapshot, the unit the
// Collector appends and replays (spec.md §3 "chain element").
type MarginalState struct {
	Iteration      int
	ClusterStates  []ClusterState
	Allocations    []int
	MixingState    MixingState
}

// Codec is the pluggable wire encoding a Collector uses to turn a
// MarginalState into bytes and back. The core never picks a Codec for the
// caller; collector.File accepts one as a constructor argument, while
// collector.Memory keeps the MarginalState values themselves and encodes
// nothing.
type Codec interface {
	Encode(w io.Writer, state *MarginalState) error
	Decode(r io.Reader) (*MarginalState, error)
}
