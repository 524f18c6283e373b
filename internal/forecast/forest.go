package forecast

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrNotFitted is returned when predicting with an untrained forest
var ErrNotFitted = errors.New("forest has not been fitted")

// Forest is a bagged ensemble of regression trees. Every tree sees a
// bootstrap sample of the training rows and all features.
type Forest struct {
	Trees    int
	Seed     int64
	MaxDepth int

	trees      []*tree
	importance []float64
}

// NewForest creates an untrained forest
func NewForest(trees int, seed int64, maxDepth int) *Forest {
	if trees < 1 {
		trees = 1
	}
	return &Forest{Trees: trees, Seed: seed, MaxDepth: maxDepth}
}

// Fit trains the forest. Tree seeds are drawn up front from Seed, so the
// result does not depend on how the trees are scheduled.
func (f *Forest) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return ErrInsufficientData
	}

	master := rand.New(rand.NewPCG(uint64(f.Seed), 0x9e3779b97f4a7c15))
	seeds := make([]uint64, f.Trees)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	trees := make([]*tree, f.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seeds[i], uint64(i)))
			sample := make([]int, len(x))
			for k := range sample {
				sample[k] = rng.IntN(len(x))
			}
			trees[i] = fitTree(x, y, sample, f.MaxDepth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.importance = make([]float64, len(x[0]))
	for _, t := range trees {
		for j, v := range t.importance {
			f.importance[j] += v
		}
	}
	total := 0.0
	for _, v := range f.importance {
		total += v
	}
	if total > 0 {
		for j := range f.importance {
			f.importance[j] /= total
		}
	}
	return nil
}

// Predict averages the tree predictions for one row
func (f *Forest) Predict(row []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	s := 0.0
	for _, t := range f.trees {
		s += t.predict(row)
	}
	return s / float64(len(f.trees)), nil
}

// PredictAll predicts every row of x
func (f *Forest) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		p, err := f.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// Importances returns the impurity based importance of each feature,
// normalized to sum to 1
func (f *Forest) Importances() []float64 {
	return append([]float64(nil), f.importance...)
}
