// Package feedback summarizes free-text survey comments: it drops offensive
// ones, splits the rest by sentiment, groups similar comments and reports one
// representative per group.
package feedback

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/feedback/pkg/feedback/cluster"
	"github.com/cognicore/feedback/pkg/feedback/internalerr"
	"github.com/cognicore/feedback/pkg/feedback/loader"
	"github.com/cognicore/feedback/pkg/feedback/normalize"
	"github.com/cognicore/feedback/pkg/feedback/report"
	"github.com/cognicore/feedback/pkg/feedback/sentiment"
)

// Engine runs the summarization pipeline
type Engine struct {
	loader     *loader.Loader
	filter     *sentiment.Filter
	classifier *sentiment.Classifier
	clusterer  *cluster.Clusterer
	msgs       report.Messages
	logger     *log.Logger
	parallel   bool

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures an Engine
type Options struct {
	Loader     *loader.Loader
	Filter     *sentiment.Filter
	Classifier *sentiment.Classifier
	Clusterer  *cluster.Clusterer
	Messages   report.Messages
	Logger     *log.Logger

	// Parallel clusters the positive and negative buckets concurrently.
	Parallel bool
}

// New creates an Engine with the given stages
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ld := opts.Loader
	if ld == nil {
		ld = loader.New(loader.DefaultTextKey)
	}
	return &Engine{
		loader:     ld,
		filter:     opts.Filter,
		classifier: opts.Classifier,
		clusterer:  opts.Clusterer,
		msgs:       opts.Messages,
		logger:     logger,
		parallel:   opts.Parallel,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Stats counts comments at each stage of a run
type Stats struct {
	Loaded           int
	Removed          int
	Kept             int
	Positive         int
	Negative         int
	Neutral          int
	PositiveClusters int
	NegativeClusters int
}

// Result is the outcome of one run
type Result struct {
	RunID    string
	Report   string
	Positive cluster.Clusters
	Negative cluster.Clusters
	Removed  []string
	Stats    Stats
}

// cacheStats is implemented by embedders that serve from a cache.
type cacheStats interface {
	Stats() (hits, misses int64)
}

func (e *Engine) newRunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}

// RunFile loads comments from a JSON file and runs the pipeline on them.
func (e *Engine) RunFile(ctx context.Context, path string) (*Result, error) {
	e.logger.Info("reading input", "path", path)
	raw, shape, err := e.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	e.logger.Info("comments loaded", "count", len(raw), "shape", shape)
	return e.Run(ctx, raw)
}

// Run cleans, filters, classifies and clusters comments, then renders the
// report. It returns internalerr.ErrNoValidComments when nothing survives
// the offense filter.
func (e *Engine) Run(ctx context.Context, raw []string) (*Result, error) {
	res := &Result{RunID: e.newRunID()}
	logger := e.logger.With("run", res.RunID)
	res.Stats.Loaded = len(raw)

	comments := normalize.All(raw)
	logger.Debug("text cleaned", "count", len(comments))

	kept, removed := e.filter.Apply(comments)
	res.Removed = removed
	res.Stats.Removed = len(removed)
	res.Stats.Kept = len(kept)
	logger.Info("offensive comments removed", "removed", len(removed), "kept", len(kept))

	if len(kept) == 0 {
		logger.Warn("no valid comments after filtering")
		return nil, fmt.Errorf("run %s: %w", res.RunID, internalerr.ErrNoValidComments)
	}

	buckets := e.classifier.Partition(kept)
	res.Stats.Positive = len(buckets.Positive)
	res.Stats.Negative = len(buckets.Negative)
	res.Stats.Neutral = len(buckets.Neutral)
	logger.Info("comments classified",
		"positive", res.Stats.Positive,
		"negative", res.Stats.Negative,
		"neutral", res.Stats.Neutral)

	pos, neg, err := e.clusterBuckets(ctx, buckets)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", res.RunID, err)
	}
	res.Positive, res.Negative = pos, neg
	res.Stats.PositiveClusters = len(pos)
	res.Stats.NegativeClusters = len(neg)
	logger.Info("comments clustered",
		"positive_clusters", len(pos),
		"negative_clusters", len(neg),
		"positive_sizes", pos.Sizes(),
		"negative_sizes", neg.Sizes(),
		"linkage", e.clusterer.Linkage(),
		"threshold", e.clusterer.Threshold())
	if c, ok := e.clusterer.Embedder().(cacheStats); ok {
		hits, misses := c.Stats()
		logger.Info("embedding cache", "hits", hits, "misses", misses)
	}

	res.Report = report.Render(pos, neg, e.msgs)
	logger.Debug("report rendered", "bytes", len(res.Report))
	return res, nil
}

func (e *Engine) clusterBuckets(ctx context.Context, b sentiment.Buckets) (pos, neg cluster.Clusters, err error) {
	if !e.parallel {
		if pos, err = e.clusterer.Cluster(ctx, b.Positive); err != nil {
			return nil, nil, fmt.Errorf("cluster positive: %w", err)
		}
		if neg, err = e.clusterer.Cluster(ctx, b.Negative); err != nil {
			return nil, nil, fmt.Errorf("cluster negative: %w", err)
		}
		return pos, neg, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if pos, err = e.clusterer.Cluster(gctx, b.Positive); err != nil {
			return fmt.Errorf("cluster positive: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if neg, err = e.clusterer.Cluster(gctx, b.Negative); err != nil {
			return fmt.Errorf("cluster negative: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return pos, neg, nil
}
