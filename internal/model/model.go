// Package model defines the scoring model the learner trains and the
// actors query. The concrete architecture sits behind the Model
// interface; Linear is the reference implementation.
package model

import "errors"

// ErrShapeMismatch is returned when loaded parameters do not match the
// feature shape the model was built for.
var ErrShapeMismatch = errors.New("model: parameter shape mismatch")

// Params is one immutable copy of a model's parameters. Snapshots handed
// to actors must never be mutated; training always works on a fresh copy.
type Params struct {
	StateLen  int
	ActionLen int
	Weights   []float32
	Bias      float32
}

// Clone deep-copies p, so callers can mutate the copy freely.
func (p Params) Clone() Params {
	w := make([]float32, len(p.Weights))
	copy(w, p.Weights)
	p.Weights = w
	return p
}

// OptimizerState is the optimizer's internal state, checkpointed next to
// the parameters so training resumes exactly.
type OptimizerState struct {
	Velocity []float32
	VBias    float32
}

// Clone deep-copies s.
func (s OptimizerState) Clone() OptimizerState {
	v := make([]float32, len(s.Velocity))
	copy(v, s.Velocity)
	s.Velocity = v
	return s
}

// Model is the trainable scorer of (state, action) pairs. Implementations
// are not safe for concurrent use; the learner owns its model, actors
// score through immutable Params snapshots instead.
type Model interface {
	// TrainStep runs one gradient update against the targets and returns
	// the batch loss. When the loss or any gradient is non-finite the
	// parameters are left untouched and the non-finite loss is returned
	// for the caller to handle.
	TrainStep(states, actions [][]float32, targets []float32, lr float32) float32

	// SnapshotParams returns an immutable copy of the current parameters.
	SnapshotParams() Params

	// LoadParams replaces the current parameters from a checkpoint.
	LoadParams(Params) error

	// OptimizerState returns a copy of the optimizer state.
	OptimizerState() OptimizerState

	// LoadOptimizerState restores the optimizer state from a checkpoint.
	LoadOptimizerState(OptimizerState) error
}

// Score evaluates one state against one candidate action under a fixed
// parameter snapshot. This is the actors' hot path: it touches only the
// snapshot, never a live model.
func Score(p Params, state, action []float32) float32 {
	s := p.Bias
	for i, v := range state {
		s += p.Weights[i] * v
	}
	off := p.StateLen
	for i, v := range action {
		s += p.Weights[off+i] * v
	}
	return s
}
