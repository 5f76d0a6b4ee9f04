package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cognicore/feedback/pkg/feedback/cache/memcache"
	"github.com/cognicore/feedback/pkg/feedback/cache/sqlite"
	"github.com/cognicore/feedback/pkg/feedback/cluster"
	"github.com/cognicore/feedback/pkg/feedback/embedding"
	"github.com/cognicore/feedback/pkg/feedback/loader"
	"github.com/cognicore/feedback/pkg/feedback/report"
	"github.com/cognicore/feedback/pkg/feedback/sentiment"
	"github.com/cognicore/feedback/pkg/feedback/vocabulary"
)

// DefaultOpenAIBaseURL is used when the openai provider has no endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// DefaultOpenAIModel is used when the openai provider has no model.
const DefaultOpenAIModel = "text-embedding-3-small"

// Loader reads the files a Config points at and constructs components
type Loader struct {
	Config Config
}

// Components holds the pipeline stages built from a Config
type Components struct {
	Vocabulary   *vocabulary.Vocabulary
	Scorer       *sentiment.Vader
	LexiconAdded int

	Loader     *loader.Loader
	Filter     *sentiment.Filter
	Classifier *sentiment.Classifier
	Embedder   embedding.Embedder
	Clusterer  *cluster.Clusterer
	Messages   report.Messages

	// Cache is nil unless cache.path is set.
	Cache       embedding.Cache
	CachePruned int64
}

type counter interface {
	Count(ctx context.Context, model string) (int64, error)
}

// CacheEntries returns how many vectors the cache holds for the configured
// model, or 0 without a cache.
func (c *Components) CacheEntries(ctx context.Context) (int64, error) {
	cc, ok := c.Cache.(counter)
	if !ok {
		return 0, nil
	}
	return cc.Count(ctx, c.Embedder.Name())
}

// Close releases the embedding cache, if any.
func (c *Components) Close() error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}

// Load validates the config and returns initialized components
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	comp := &Components{}

	// Load vocabulary
	if cfg.VocabularyPath != "" {
		vocab, err := vocabulary.LoadFromYAML(cfg.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		comp.Vocabulary = vocab
	} else {
		comp.Vocabulary = vocabulary.Default()
	}

	// Load lexicon extras into a fresh scorer
	comp.Scorer = sentiment.NewVader()
	if cfg.LexiconPath != "" {
		entries, err := sentiment.LoadLexiconYAML(cfg.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.LexiconAdded = comp.Scorer.Extend(entries)
	}

	comp.Loader = loader.New(cfg.Loader.TextKey)

	comp.Filter = sentiment.NewFilter(comp.Vocabulary, comp.Scorer)
	comp.Filter.SetThreshold(cfg.Thresholds.Offensive)

	comp.Classifier = sentiment.NewClassifier(comp.Vocabulary, comp.Scorer)
	comp.Classifier.SetMargin(cfg.Thresholds.NeutralMargin)

	emb := newEmbedder(cfg.Embedder)
	if ollama, ok := emb.(*embedding.Ollama); ok {
		if err := ollama.Check(ctx); err != nil {
			return nil, fmt.Errorf("check embedder: %w", err)
		}
	}
	if cfg.Cache.Path != "" {
		c, err := openCache(ctx, cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		comp.Cache = c
		if db, ok := c.(*sqlite.Cache); ok && cfg.Cache.MaxAge > 0 {
			pruned, err := db.Prune(ctx, time.Now().Add(-cfg.Cache.MaxAge))
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("prune cache: %w", err)
			}
			comp.CachePruned = pruned
		}
		emb = embedding.NewCached(emb, c)
	}
	comp.Embedder = emb

	linkage, _ := cluster.ParseLinkage(cfg.Clustering.Linkage)
	comp.Clusterer = cluster.New(emb, cfg.Clustering.DistanceThreshold, linkage)

	comp.Messages, _ = report.Catalog(cfg.Report.Language)

	return comp, nil
}

func newEmbedder(cfg Embedder) embedding.Embedder {
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case ProviderHashing:
		return embedding.NewHashing(cfg.Dimensions)
	case ProviderOpenAI:
		baseURL := cfg.Endpoint
		if baseURL == "" {
			baseURL = DefaultOpenAIBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return &embedding.OpenAI{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			Dimensions: cfg.Dimensions,
			HTTPClient: client,
		}
	default:
		return embedding.NewOllama(cfg.Endpoint, cfg.Model, client)
	}
}

func openCache(ctx context.Context, path string) (embedding.Cache, error) {
	if path == MemoryCache {
		return memcache.New(), nil
	}
	c, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return c, nil
}
