package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/feedback/pkg/feedback/embedding"
	"github.com/cognicore/feedback/pkg/feedback/internalerr"
)

// pointEmbedder maps each comment to a fixed vector and counts calls.
type pointEmbedder struct {
	points map[string]embedding.Vector
	calls  int
	err    error
}

func (p *pointEmbedder) Name() string { return "points" }

func (p *pointEmbedder) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *pointEmbedder) EmbedBatch(_ context.Context, texts []string) ([]embedding.Vector, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]embedding.Vector, len(texts))
	for i, t := range texts {
		v, ok := p.points[t]
		if !ok {
			return nil, fmt.Errorf("no point for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

func members(cs Clusters) [][]string {
	out := make([][]string, len(cs))
	for i, c := range cs {
		out[i] = c.Members
	}
	return out
}

func TestClusterEmptyInputSkipsEmbedder(t *testing.T) {
	emb := &pointEmbedder{}
	c := New(emb, DefaultDistanceThreshold, Ward)

	for _, in := range [][]string{nil, {}} {
		got, err := c.Cluster(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no clusters, got %v", got)
		}
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for empty input", emb.calls)
	}
}

func TestClusterSingleComment(t *testing.T) {
	emb := &pointEmbedder{points: map[string]embedding.Vector{"solo": {1, 2}}}
	got, err := New(emb, 1.0, Ward).Cluster(context.Background(), []string{"solo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0].Members) != 1 || got[0].Members[0] != "solo" {
		t.Errorf("got %v", got)
	}
	if emb.calls != 1 {
		t.Errorf("embedder calls = %d, want 1", emb.calls)
	}
}

func TestClusterGroupsByFirstAppearance(t *testing.T) {
	emb := &pointEmbedder{points: map[string]embedding.Vector{
		"a": {0, 0},
		"b": {0.1, 0},
		"c": {5, 5},
		"d": {5.1, 5},
	}}
	got, err := New(emb, 1.0, Ward).Cluster(context.Background(), []string{"c", "a", "d", "b"})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"c", "d"}, {"a", "b"}}
	if fmt.Sprint(members(got)) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", members(got), want)
	}
	for i, c := range got {
		if c.Label != i {
			t.Errorf("cluster %d has label %d", i, c.Label)
		}
	}
}

func TestClusterThresholdIsExclusive(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     int
	}{
		{"below threshold merges", 0.99, 1},
		{"at threshold stays apart", 1.0, 2},
		{"above threshold stays apart", 1.5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &pointEmbedder{points: map[string]embedding.Vector{
				"x": {0},
				"y": {tt.distance},
			}}
			got, err := New(emb, 1.0, Ward).Cluster(context.Background(), []string{"x", "y"})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("clusters = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestClusterLinkages(t *testing.T) {
	points := map[string]embedding.Vector{"p0": {0}, "p1": {0.9}, "p2": {1.8}}
	in := []string{"p0", "p1", "p2"}

	tests := []struct {
		linkage Linkage
		want    int
	}{
		{Single, 1},
		{Complete, 2},
		{Average, 2},
		{Ward, 2},
	}

	for _, tt := range tests {
		t.Run(tt.linkage.String(), func(t *testing.T) {
			got, err := New(&pointEmbedder{points: points}, 1.0, tt.linkage).Cluster(context.Background(), in)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("clusters = %d (%v), want %d", len(got), members(got), tt.want)
			}
		})
	}
}

func TestClusterPartitionsEveryComment(t *testing.T) {
	comments := []string{
		"il professore spiega bene",
		"spiega molto bene il professore",
		"lezioni troppo veloci",
		"le lezioni vanno troppo veloci",
		"aula fredda",
		"il professore spiega bene",
	}
	got, err := New(embedding.NewHashing(64), 1.0, Ward).Cluster(context.Background(), comments)
	if err != nil {
		t.Fatal(err)
	}

	var flat []string
	for _, c := range got {
		if len(c.Members) == 0 {
			t.Error("empty cluster")
		}
		flat = append(flat, c.Members...)
	}
	if len(flat) != len(comments) {
		t.Fatalf("clustered %d comments, want %d", len(flat), len(comments))
	}
	sortedIn := slices.Clone(comments)
	slices.Sort(sortedIn)
	slices.Sort(flat)
	if !slices.Equal(sortedIn, flat) {
		t.Errorf("multiset mismatch: %v vs %v", flat, sortedIn)
	}
}

func TestClusterEmbedderErrors(t *testing.T) {
	emb := &pointEmbedder{err: internalerr.ErrEmbedderUnavailable}
	_, err := New(emb, 1.0, Ward).Cluster(context.Background(), []string{"a"})
	if !errors.Is(err, internalerr.ErrEmbedderUnavailable) {
		t.Errorf("expected wrapped embedder error, got %v", err)
	}
}

func TestClusterDimensionMismatch(t *testing.T) {
	emb := &pointEmbedder{points: map[string]embedding.Vector{"a": {1, 2}, "b": {1}}}
	if _, err := New(emb, 1.0, Ward).Cluster(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

type shortEmbedder struct{ pointEmbedder }

func (s *shortEmbedder) EmbedBatch(_ context.Context, texts []string) ([]embedding.Vector, error) {
	return []embedding.Vector{{1}}, nil
}

func TestClusterCountMismatch(t *testing.T) {
	if _, err := New(&shortEmbedder{}, 1.0, Ward).Cluster(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected count mismatch error")
	}
}

func TestParseLinkage(t *testing.T) {
	for _, name := range []string{"ward", "average", "complete", "single"} {
		l, err := ParseLinkage(name)
		if err != nil || l.String() != name {
			t.Errorf("ParseLinkage(%q) = %v, %v", name, l, err)
		}
	}
	if l, err := ParseLinkage(""); err != nil || l != Ward {
		t.Errorf("empty linkage = %v, %v", l, err)
	}
	if _, err := ParseLinkage("centroid"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewDefaultsThreshold(t *testing.T) {
	if got := New(&pointEmbedder{}, 0, Ward).Threshold(); got != DefaultDistanceThreshold {
		t.Errorf("threshold = %v", got)
	}
}

// greedy merges the closest pair of clusters until no pair is closer than
// threshold, recomputing linkage from the member points every round.
func greedy(points *mat.Dense, threshold float64, linkage Linkage) []int {
	n, _ := points.Dims()
	d := func(i, j int) float64 {
		return floats.Distance(points.RawRowView(i), points.RawRowView(j), 2)
	}
	link := func(a, b []int) float64 {
		switch linkage {
		case Single, Complete:
			best := d(a[0], b[0])
			for _, i := range a {
				for _, j := range b {
					if linkage == Single {
						best = math.Min(best, d(i, j))
					} else {
						best = math.Max(best, d(i, j))
					}
				}
			}
			return best
		case Average:
			var sum float64
			for _, i := range a {
				for _, j := range b {
					sum += d(i, j)
				}
			}
			return sum / float64(len(a)*len(b))
		default:
			_, dims := points.Dims()
			centroid := func(c []int) []float64 {
				out := make([]float64, dims)
				for _, i := range c {
					floats.Add(out, points.RawRowView(i))
				}
				floats.Scale(1/float64(len(c)), out)
				return out
			}
			na, nb := float64(len(a)), float64(len(b))
			return math.Sqrt(2*na*nb/(na+nb)) * floats.Distance(centroid(a), centroid(b), 2)
		}
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}
	for len(clusters) > 1 {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := range clusters {
			for j := i + 1; j < len(clusters); j++ {
				if v := link(clusters[i], clusters[j]); v < best {
					bi, bj, best = i, j, v
				}
			}
		}
		if best >= threshold {
			break
		}
		clusters[bi] = append(clusters[bi], clusters[bj]...)
		clusters = slices.Delete(clusters, bj, bj+1)
	}

	owner := make([]int, n)
	for id, c := range clusters {
		for _, i := range c {
			owner[i] = id
		}
	}
	return owner
}

func TestAgglomerateMatchesGreedyMerging(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const n, dims = 60, 3

	centers := make([][]float64, 6)
	for i := range centers {
		centers[i] = []float64{rng.Float64() * 6, rng.Float64() * 6, rng.Float64() * 6}
	}
	data := make([]float64, 0, n*dims)
	names := make([]string, n)
	for i := range n {
		c := centers[rng.IntN(len(centers))]
		for k := range dims {
			data = append(data, c[k]+rng.NormFloat64()*0.3)
		}
		names[i] = fmt.Sprintf("c%d", i)
	}
	points := mat.NewDense(n, dims, data)

	for _, linkage := range []Linkage{Ward, Average, Complete, Single} {
		for _, threshold := range []float64{0.5, 1.0, 2.5} {
			t.Run(fmt.Sprintf("%s/%.1f", linkage, threshold), func(t *testing.T) {
				got := members(group(names, agglomerate(points, threshold, linkage)))
				want := members(group(names, greedy(points, threshold, linkage)))
				if fmt.Sprint(got) != fmt.Sprint(want) {
					t.Errorf("agglomerate = %v\ngreedy = %v", got, want)
				}
			})
		}
	}
}

func TestCondensedIndexCoversUpperTriangle(t *testing.T) {
	c := newCondensed(5)
	seen := make(map[int]bool)
	for i := 0; i < 5; i++ {
		for j := i + 1; j < 5; j++ {
			idx := c.index(i, j)
			if idx != c.index(j, i) {
				t.Errorf("index(%d,%d) not symmetric", i, j)
			}
			if seen[idx] {
				t.Errorf("index %d reused at (%d,%d)", idx, i, j)
			}
			seen[idx] = true
		}
	}
	if len(seen) != len(c.d) {
		t.Errorf("covered %d of %d slots", len(seen), len(c.d))
	}
}
