package training

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
	"landlord-rl/internal/model"
	"landlord-rl/internal/testutil"
)

// stubModel lets tests script the loss sequence, including non-finite
// losses, and observe whether an update was applied.
type stubModel struct {
	losses  []float32
	step    int
	applied int
	params  model.Params
}

func newStubModel(losses ...float32) *stubModel {
	return &stubModel{
		losses: losses,
		params: model.Params{
			StateLen:  experience.StateLen,
			ActionLen: experience.ActionLen,
			Weights:   make([]float32, experience.StateLen+experience.ActionLen),
		},
	}
}

func (m *stubModel) TrainStep(states, actions [][]float32, targets []float32, lr float32) float32 {
	loss := m.losses[m.step%len(m.losses)]
	m.step++
	if !math.IsNaN(float64(loss)) && !math.IsInf(float64(loss), 0) {
		m.applied++
		m.params.Bias += 1 // visible parameter change per applied update
	}
	return loss
}

func (m *stubModel) SnapshotParams() model.Params               { return m.params.Clone() }
func (m *stubModel) LoadParams(p model.Params) error            { m.params = p.Clone(); return nil }
func (m *stubModel) OptimizerState() model.OptimizerState       { return model.OptimizerState{} }
func (m *stubModel) LoadOptimizerState(model.OptimizerState) error { return nil }

func fillPool(t *testing.T, p *experience.Pool, role game.Role, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		rec := experience.TrainingRecord{
			Role:   role,
			State:  make([]float32, experience.StateLen),
			Action: make([]float32, experience.ActionLen),
			Target: 1,
		}
		require.NoError(t, p.Push(ctx, rec))
	}
}

func newTestLearner(t *testing.T, m model.Model, maxSkips int) (*Learner, *experience.Pool, *SnapshotStore) {
	t.Helper()
	pool, err := experience.NewPool(game.Landlord, 16, 4, 0, testutil.NopLogger())
	require.NoError(t, err)
	store := NewSnapshotStore()
	l := NewLearner(LearnerConfig{
		Role:                game.Landlord,
		Pool:                pool,
		Model:               m,
		Store:               store,
		LearningRate:        0.01,
		MaxConsecutiveSkips: maxSkips,
		Logger:              testutil.NopLogger(),
	})
	return l, pool, store
}

func TestLearner_StepTrainsAndPublishes(t *testing.T) {
	m := newStubModel(0.5)
	l, pool, store := newTestLearner(t, m, 10)
	fillPool(t, pool, game.Landlord, 4)

	require.NoError(t, l.Step(context.Background()))

	assert.Equal(t, uint64(4), l.Frames())
	assert.Equal(t, uint64(1), l.Batches())
	assert.Equal(t, float32(0.5), l.LastLoss())

	snap := store.Current(game.Landlord)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, uint64(4), snap.Frames)
}

// Failure scenario: a non-finite loss is injected on one batch; the
// learner skips that update, parameters unchanged, and keeps going.
func TestLearner_NonFiniteLossSkipsUpdate(t *testing.T) {
	m := newStubModel(float32(math.NaN()), 0.25)
	l, pool, _ := newTestLearner(t, m, 10)
	fillPool(t, pool, game.Landlord, 8)

	before := m.SnapshotParams()
	require.NoError(t, l.Step(context.Background()))
	assert.Equal(t, 0, m.applied, "skipped update must not touch parameters")
	assert.Equal(t, before, m.SnapshotParams())
	assert.Equal(t, uint64(0), l.Frames(), "skipped batches do not count as trained frames")

	// The next batch trains normally.
	require.NoError(t, l.Step(context.Background()))
	assert.Equal(t, 1, m.applied)
	assert.Equal(t, uint64(4), l.Frames())
}

func TestLearner_ConsecutiveSkipsEscalate(t *testing.T) {
	m := newStubModel(float32(math.Inf(1)))
	l, pool, _ := newTestLearner(t, m, 3)
	fillPool(t, pool, game.Landlord, 16)

	ctx := context.Background()
	require.NoError(t, l.Step(ctx))
	require.NoError(t, l.Step(ctx))
	err := l.Step(ctx)
	assert.ErrorIs(t, err, ErrTooManySkips)
}

func TestLearner_FiniteLossResetsSkipCount(t *testing.T) {
	m := newStubModel(float32(math.NaN()), 0.1, float32(math.NaN()), 0.1)
	l, pool, _ := newTestLearner(t, m, 2)
	fillPool(t, pool, game.Landlord, 16)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Step(ctx), "alternating skips never reach the limit")
	}
}

func TestLearner_VersionsIncreaseMonotonically(t *testing.T) {
	m := newStubModel(0.5)
	l, pool, store := newTestLearner(t, m, 10)
	fillPool(t, pool, game.Landlord, 16)

	ctx := context.Background()
	var last uint64
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Step(ctx))
		v := store.Current(game.Landlord).Version
		assert.Greater(t, v, last)
		last = v
	}
}

func TestLearner_CheckpointStateDuringTraining(t *testing.T) {
	m := newStubModel(0.5)
	l, pool, _ := newTestLearner(t, m, 10)
	fillPool(t, pool, game.Landlord, 16)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			params, _ := l.CheckpointState()
			// The stub advances Bias by exactly 1 per applied update, so
			// any copy taken mid-update would fall outside this range.
			assert.GreaterOrEqual(t, params.Bias, float32(0))
			assert.LessOrEqual(t, params.Bias, float32(4))
			assert.Len(t, params.Weights, experience.StateLen+experience.ActionLen)
		}
	}()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Step(ctx))
	}
	<-done

	params, _ := l.CheckpointState()
	assert.Equal(t, float32(4), params.Bias)
}

func TestLearner_DrainRespectsCancellation(t *testing.T) {
	m := newStubModel(0.5)
	l, _, _ := newTestLearner(t, m, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Step(ctx) }()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
