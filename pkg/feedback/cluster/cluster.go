// Package cluster groups comments whose embeddings lie close together using
// distance-threshold agglomerative clustering.
package cluster

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/feedback/pkg/feedback/embedding"
	"github.com/cognicore/feedback/pkg/feedback/internalerr"
)

// DefaultDistanceThreshold is the linkage distance at or above which two
// clusters are no longer merged.
const DefaultDistanceThreshold = 1.0

// Cluster is a group of similar comments. Label is only meaningful within
// a single call to Cluster.
type Cluster struct {
	Label   int
	Members []string
}

// Clusters is ordered by first appearance of each label in the input.
type Clusters []Cluster

// Sizes returns the member count of each cluster.
func (cs Clusters) Sizes() []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = len(c.Members)
	}
	return out
}

// Linkage selects how the distance between two clusters is computed.
type Linkage int

const (
	Ward Linkage = iota
	Average
	Complete
	Single
)

func (l Linkage) String() string {
	switch l {
	case Ward:
		return "ward"
	case Average:
		return "average"
	case Complete:
		return "complete"
	case Single:
		return "single"
	default:
		return fmt.Sprintf("linkage(%d)", int(l))
	}
}

// ParseLinkage maps a linkage name to its value. The empty string is Ward.
func ParseLinkage(s string) (Linkage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ward":
		return Ward, nil
	case "average":
		return Average, nil
	case "complete":
		return Complete, nil
	case "single":
		return Single, nil
	}
	return Ward, fmt.Errorf("%w: unknown linkage %q", internalerr.ErrInvalidConfig, s)
}

// Clusterer embeds comments and groups them.
type Clusterer struct {
	embedder  embedding.Embedder
	threshold float64
	linkage   Linkage
}

// New creates a clusterer. A non-positive threshold falls back to
// DefaultDistanceThreshold.
func New(embedder embedding.Embedder, threshold float64, linkage Linkage) *Clusterer {
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	return &Clusterer{embedder: embedder, threshold: threshold, linkage: linkage}
}

// Threshold returns the configured distance threshold.
func (c *Clusterer) Threshold() float64 { return c.threshold }

// Linkage returns the configured linkage.
func (c *Clusterer) Linkage() Linkage { return c.linkage }

// Embedder returns the embedder vectors come from.
func (c *Clusterer) Embedder() embedding.Embedder { return c.embedder }

// Cluster embeds all comments in one batch and groups them. Empty input
// returns no clusters without touching the embedder.
func (c *Clusterer) Cluster(ctx context.Context, comments []string) (Clusters, error) {
	if len(comments) == 0 {
		return Clusters{}, nil
	}

	vecs, err := c.embedder.EmbedBatch(ctx, comments)
	if err != nil {
		return nil, fmt.Errorf("embed %d comments: %w", len(comments), err)
	}
	points, err := toMatrix(vecs, len(comments))
	if err != nil {
		return nil, err
	}

	labels := agglomerate(points, c.threshold, c.linkage)
	return group(comments, labels), nil
}

// toMatrix checks the embedder output and packs it row-wise.
func toMatrix(vecs []embedding.Vector, n int) (*mat.Dense, error) {
	if len(vecs) != n {
		return nil, fmt.Errorf("embedder returned %d vectors for %d comments", len(vecs), n)
	}
	dims := len(vecs[0])
	if dims == 0 {
		return nil, fmt.Errorf("embedder returned empty vectors")
	}
	data := make([]float64, 0, n*dims)
	for i, v := range vecs {
		if len(v) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), dims)
		}
		data = append(data, v...)
	}
	return mat.NewDense(n, dims, data), nil
}

// agglomerate builds the full merge tree with the nearest-neighbor chain
// algorithm, then keeps the merges closer than threshold. The four linkages
// are monotone, so this equals merging greedily until the closest pair is at
// least threshold apart. It returns a cluster id per point; ids are
// arbitrary and renumbered by group.
func agglomerate(points *mat.Dense, threshold float64, linkage Linkage) []int {
	n, _ := points.Dims()

	dist := newCondensed(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist.set(i, j, floats.Distance(points.RawRowView(i), points.RawRowView(j), 2))
		}
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for _, m := range nnChain(dist, linkage) {
		if m.dist < threshold {
			parent[find(m.b)] = find(m.a)
		}
	}

	owner := make([]int, n)
	for i := range owner {
		owner[i] = find(i)
	}
	return owner
}

// merge joins the clusters holding points a and b at linkage distance dist.
type merge struct {
	a, b int
	dist float64
}

// nnChain returns the n-1 merges of the dendrogram in the order performed.
// Slot i always holds the cluster containing point i while it is active.
func nnChain(dist *condensed, linkage Linkage) []merge {
	n := dist.n
	size := make([]float64, n)
	active := make([]bool, n)
	for i := range size {
		size[i] = 1
		active[i] = true
	}

	merges := make([]merge, 0, max(n-1, 0))
	chain := make([]int, 0, n)
	for len(merges) < n-1 {
		if len(chain) == 0 {
			for i, ok := range active {
				if ok {
					chain = append(chain, i)
					break
				}
			}
		}

		// Grow the chain until its last two clusters are reciprocal
		// nearest neighbors. Ties favor the previous element.
		for {
			a := chain[len(chain)-1]
			prev := -1
			best := math.Inf(1)
			if len(chain) > 1 {
				prev = chain[len(chain)-2]
				best = dist.at(a, prev)
			}
			next := prev
			for k := 0; k < n; k++ {
				if !active[k] || k == a {
					continue
				}
				if d := dist.at(a, k); d < best {
					best, next = d, k
				}
			}
			if next == prev {
				break
			}
			chain = append(chain, next)
		}

		a, b := chain[len(chain)-1], chain[len(chain)-2]
		chain = chain[:len(chain)-2]
		dab := dist.at(a, b)
		keep, gone := min(a, b), max(a, b)

		for k := 0; k < n; k++ {
			if !active[k] || k == keep || k == gone {
				continue
			}
			dist.set(keep, k, update(linkage, dist.at(keep, k), dist.at(gone, k), dab, size[keep], size[gone], size[k]))
		}
		size[keep] += size[gone]
		active[gone] = false
		merges = append(merges, merge{a: keep, b: gone, dist: dab})
	}
	return merges
}

// condensed stores the upper triangle of a symmetric distance matrix.
type condensed struct {
	n int
	d []float64
}

func newCondensed(n int) *condensed {
	return &condensed{n: n, d: make([]float64, n*(n-1)/2)}
}

func (c *condensed) index(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*c.n - i*(i+1)/2 + j - i - 1
}

func (c *condensed) at(i, j int) float64 { return c.d[c.index(i, j)] }

func (c *condensed) set(i, j int, v float64) { c.d[c.index(i, j)] = v }

// update is the Lance-Williams recurrence: the distance from cluster k to
// the union of a and b.
func update(linkage Linkage, dak, dbk, dab, na, nb, nk float64) float64 {
	switch linkage {
	case Single:
		return math.Min(dak, dbk)
	case Complete:
		return math.Max(dak, dbk)
	case Average:
		return (na*dak + nb*dbk) / (na + nb)
	default:
		t := na + nb + nk
		sq := ((na+nk)*dak*dak + (nb+nk)*dbk*dbk - nk*dab*dab) / t
		return math.Sqrt(math.Max(sq, 0))
	}
}

// group collects comments by cluster id, numbering clusters in order of
// first appearance and keeping input order inside each cluster.
func group(comments []string, owner []int) Clusters {
	index := make(map[int]int)
	var out Clusters
	for i, id := range owner {
		pos, ok := index[id]
		if !ok {
			pos = len(out)
			index[id] = pos
			out = append(out, Cluster{Label: pos})
		}
		out[pos].Members = append(out[pos].Members, comments[i])
	}
	return out
}
