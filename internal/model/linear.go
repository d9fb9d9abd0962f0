package model

import (
	"fmt"
	"math"
	"math/rand"
)

// maxGradNorm bounds the global gradient norm per update. Margin targets
// grow as 2^bombs, and an unclipped step on such a batch can push the
// parameters far enough that later losses overflow to +Inf.
const maxGradNorm = 40.0

// Linear scores a (state, action) pair as a learned linear function of
// the concatenated features, trained by momentum SGD on mean squared
// error. It stands in for the network architecture, which is outside
// this repository's scope; everything upstream only sees the Model
// interface and Params snapshots.
type Linear struct {
	stateLen  int
	actionLen int
	weights   []float32
	bias      float32
	velocity  []float32
	vBias     float32
	momentum  float32
}

// NewLinear builds a model with small random initial weights drawn from
// rng, so runs are reproducible under a fixed seed.
func NewLinear(stateLen, actionLen int, momentum float32, rng *rand.Rand) *Linear {
	n := stateLen + actionLen
	w := make([]float32, n)
	scale := float32(1.0 / math.Sqrt(float64(n)))
	for i := range w {
		w[i] = (rng.Float32()*2 - 1) * scale
	}
	return &Linear{
		stateLen:  stateLen,
		actionLen: actionLen,
		weights:   w,
		velocity:  make([]float32, n),
		momentum:  momentum,
	}
}

func (m *Linear) predictOne(state, action []float32) float32 {
	s := m.bias
	for i, v := range state {
		s += m.weights[i] * v
	}
	for i, v := range action {
		s += m.weights[m.stateLen+i] * v
	}
	return s
}

// Predict scores each pair under the current parameters.
func (m *Linear) Predict(states, actions [][]float32) []float32 {
	out := make([]float32, len(states))
	for i := range states {
		out[i] = m.predictOne(states[i], actions[i])
	}
	return out
}

// TrainStep applies one momentum-SGD update on the MSE between
// predictions and targets. A non-finite loss or gradient leaves the
// parameters and optimizer state untouched.
func (m *Linear) TrainStep(states, actions [][]float32, targets []float32, lr float32) float32 {
	n := len(states)
	if n == 0 {
		return 0
	}

	grad := make([]float32, len(m.weights))
	var gradBias, loss float32
	for i := 0; i < n; i++ {
		pred := m.predictOne(states[i], actions[i])
		diff := pred - targets[i]
		loss += diff * diff
		g := 2 * diff / float32(n)
		for j, v := range states[i] {
			grad[j] += g * v
		}
		for j, v := range actions[i] {
			grad[m.stateLen+j] += g * v
		}
		gradBias += g
	}
	loss /= float32(n)

	if !finite(loss) || !finite(gradBias) {
		return loss
	}
	for _, g := range grad {
		if !finite(g) {
			return float32(math.NaN())
		}
	}

	var sq float64
	for _, g := range grad {
		sq += float64(g) * float64(g)
	}
	sq += float64(gradBias) * float64(gradBias)
	if norm := math.Sqrt(sq); norm > maxGradNorm {
		scale := float32(maxGradNorm / norm)
		for i := range grad {
			grad[i] *= scale
		}
		gradBias *= scale
	}

	for i, g := range grad {
		m.velocity[i] = m.momentum*m.velocity[i] - lr*g
		m.weights[i] += m.velocity[i]
	}
	m.vBias = m.momentum*m.vBias - lr*gradBias
	m.bias += m.vBias

	return loss
}

// SnapshotParams returns an immutable copy of the current parameters.
func (m *Linear) SnapshotParams() Params {
	w := make([]float32, len(m.weights))
	copy(w, m.weights)
	return Params{
		StateLen:  m.stateLen,
		ActionLen: m.actionLen,
		Weights:   w,
		Bias:      m.bias,
	}
}

// LoadParams replaces the current parameters, rejecting shape mismatches.
func (m *Linear) LoadParams(p Params) error {
	if p.StateLen != m.stateLen || p.ActionLen != m.actionLen || len(p.Weights) != len(m.weights) {
		return fmt.Errorf("%w: have (%d,%d,%d), checkpoint (%d,%d,%d)",
			ErrShapeMismatch, m.stateLen, m.actionLen, len(m.weights),
			p.StateLen, p.ActionLen, len(p.Weights))
	}
	copy(m.weights, p.Weights)
	m.bias = p.Bias
	return nil
}

// OptimizerState returns a copy of the momentum buffers.
func (m *Linear) OptimizerState() OptimizerState {
	v := make([]float32, len(m.velocity))
	copy(v, m.velocity)
	return OptimizerState{Velocity: v, VBias: m.vBias}
}

// LoadOptimizerState restores the momentum buffers.
func (m *Linear) LoadOptimizerState(s OptimizerState) error {
	if len(s.Velocity) != len(m.velocity) {
		return fmt.Errorf("%w: optimizer velocity length %d, want %d",
			ErrShapeMismatch, len(s.Velocity), len(m.velocity))
	}
	copy(m.velocity, s.Velocity)
	m.vBias = s.VBias
	return nil
}

func finite(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}
