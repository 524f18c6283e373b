package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		v := float64(i) / 40
		noise := float64((i * 7) % 5)
		x = append(x, []float64{v, noise})
		if v > 0.5 {
			y = append(y, 10)
		} else {
			y = append(y, 0)
		}
	}
	return x, y
}

func TestFitTree_MemorizesDistinctRows(t *testing.T) {
	x, y := stepData()
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	tr := fitTree(x, y, idx, 0)

	for i, row := range x {
		assert.Equal(t, y[i], tr.predict(row))
	}
	assert.Equal(t, 1.0, tr.importance[0])
	assert.Zero(t, tr.importance[1])
}

func TestFitTree_MaxDepth(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 2, 3, 4}
	tr := fitTree(x, y, []int{0, 1, 2, 3}, 1)

	// one split, two leaves
	assert.Len(t, tr.nodes, 3)
	assert.Equal(t, 1.5, tr.predict([]float64{1}))
	assert.Equal(t, 3.5, tr.predict([]float64{4}))
}

func TestFitTree_ConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	tr := fitTree(x, []float64{7, 7, 7}, []int{0, 1, 2}, 0)
	assert.Len(t, tr.nodes, 1)
	assert.Equal(t, 7.0, tr.predict([]float64{100}))
	assert.Zero(t, tr.importance[0])
}

func TestForest_FitsStepFunction(t *testing.T) {
	x, y := stepData()
	f := NewForest(30, 42, 0)
	require.NoError(t, f.Fit(context.Background(), x, y))

	lo, err := f.Predict([]float64{0.1, 2})
	require.NoError(t, err)
	hi, err := f.Predict([]float64{0.9, 2})
	require.NoError(t, err)
	assert.Less(t, lo, 1.0)
	assert.Greater(t, hi, 9.0)

	imp := f.Importances()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1])
}

func TestForest_SameSeedSameModel(t *testing.T) {
	x, y := stepData()
	a := NewForest(20, 7, 0)
	b := NewForest(20, 7, 0)
	require.NoError(t, a.Fit(context.Background(), x, y))
	require.NoError(t, b.Fit(context.Background(), x, y))

	pa, err := a.PredictAll(x)
	require.NoError(t, err)
	pb, err := b.PredictAll(x)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
	assert.Equal(t, a.Importances(), b.Importances())
}

func TestForest_Errors(t *testing.T) {
	f := NewForest(0, 1, 0)
	assert.Equal(t, 1, f.Trees)

	_, err := f.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, f.Fit(context.Background(), nil, nil), ErrInsufficientData)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x, y := stepData()
	assert.ErrorIs(t, NewForest(5, 1, 0).Fit(ctx, x, y), context.Canceled)
}

func TestScaler(t *testing.T) {
	x := [][]float64{{1, 5}, {3, 5}}
	s := FitScaler(x)
	got := s.Transform(x)
	assert.Equal(t, []float64{-1, 0}, got[0])
	assert.Equal(t, []float64{1, 0}, got[1])
	assert.Equal(t, []float64{3, 1}, s.TransformRow([]float64{5, 6}))
}
