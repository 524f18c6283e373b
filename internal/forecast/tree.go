package forecast

import "sort"

// node is one node of a regression tree. Leaves have feature -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// tree is a CART regression tree grown on squared error, stored as a flat
// node slice with the root at index 0
type tree struct {
	nodes      []node
	importance []float64
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	t        *tree
}

// fitTree grows a tree on the rows listed in idx. Rows may repeat, which
// is how bootstrap samples are passed in. maxDepth 0 grows until leaves
// are pure.
func fitTree(x [][]float64, y []float64, idx []int, maxDepth int) *tree {
	features := 0
	if len(x) > 0 {
		features = len(x[0])
	}
	b := &treeBuilder{x: x, y: y, maxDepth: maxDepth, t: &tree{importance: make([]float64, features)}}
	b.grow(append([]int(nil), idx...), 0)

	total := 0.0
	for _, v := range b.t.importance {
		total += v
	}
	if total > 0 {
		for i := range b.t.importance {
			b.t.importance[i] /= total
		}
	}
	return b.t
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.t.nodes)
	b.t.nodes = append(b.t.nodes, node{feature: -1, value: b.mean(idx)})

	if len(idx) < 2 || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return id
	}
	s, ok := b.bestSplit(idx)
	if !ok {
		return id
	}
	b.t.importance[s.feature] += s.gain

	var left, right []int
	for _, i := range idx {
		if b.x[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.t.nodes[id].feature = s.feature
	b.t.nodes[id].threshold = s.threshold
	b.t.nodes[id].left = l
	b.t.nodes[id].right = r
	return id
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit finds the split with the largest reduction in summed squared
// error. Thresholds sit halfway between adjacent distinct values.
func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	n := float64(len(idx))
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	parent := sumSq - sum*sum/n

	best := split{feature: -1}
	order := append([]int(nil), idx...)
	for f := range b.x[idx[0]] {
		sort.SliceStable(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })

		var lSum, lSq float64
		for k := 0; k < len(order)-1; k++ {
			v := b.y[order[k]]
			lSum += v
			lSq += v * v

			cur, next := b.x[order[k]][f], b.x[order[k+1]][f]
			if cur == next {
				continue
			}
			ln := float64(k + 1)
			rn := n - ln
			rSum, rSq := sum-lSum, sumSq-lSq
			child := (lSq - lSum*lSum/ln) + (rSq - rSum*rSum/rn)
			if gain := parent - child; gain > best.gain+1e-12 {
				best = split{feature: f, threshold: (cur + next) / 2, gain: gain}
			}
		}
	}
	return best, best.feature >= 0
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	s := 0.0
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

func (t *tree) predict(row []float64) float64 {
	n := t.nodes[0]
	for n.feature >= 0 {
		if row[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
	}
	return n.value
}
