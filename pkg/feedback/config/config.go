package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/feedback/pkg/feedback/cluster"
	"github.com/cognicore/feedback/pkg/feedback/internalerr"
	"github.com/cognicore/feedback/pkg/feedback/loader"
	"github.com/cognicore/feedback/pkg/feedback/report"
	"github.com/cognicore/feedback/pkg/feedback/sentiment"
)

// Embedding providers.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

// MemoryCache as cache path keeps vectors in memory for the run only.
const MemoryCache = "memory"

// Config is the run configuration.
type Config struct {
	Input          string `yaml:"input"`
	Output         string `yaml:"output"`
	LogLevel       string `yaml:"log_level"`
	VocabularyPath string `yaml:"vocabulary_path"`
	LexiconPath    string `yaml:"lexicon_path"`

	Thresholds Thresholds     `yaml:"thresholds"`
	Loader     LoaderSettings `yaml:"loader"`
	Embedder   Embedder       `yaml:"embedder"`
	Clustering Clustering     `yaml:"clustering"`
	Cache      Cache          `yaml:"cache"`
	Report     Report         `yaml:"report"`
}

// Thresholds tunes the sentiment stages.
type Thresholds struct {
	Offensive     float64 `yaml:"offensive"`
	NeutralMargin float64 `yaml:"neutral_margin"`
}

// LoaderSettings tunes input parsing.
type LoaderSettings struct {
	TextKey string `yaml:"text_key"`
}

// Embedder selects and configures the embedding provider.
type Embedder struct {
	Provider   string        `yaml:"provider"`
	Endpoint   string        `yaml:"endpoint"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Dimensions int           `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Clustering tunes the agglomerative clustering.
type Clustering struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
	Linkage           string  `yaml:"linkage"`
	Parallel          bool    `yaml:"parallel"`
}

// Cache enables the embedding cache. An empty path disables it.
// MaxAge, when set, prunes older vectors from a SQLite cache on load.
type Cache struct {
	Path   string        `yaml:"path"`
	MaxAge time.Duration `yaml:"max_age"`
}

// Report selects the message catalog.
type Report struct {
	Language string `yaml:"language"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Input:    "input.json",
		Output:   "output.txt",
		LogLevel: "info",
		Thresholds: Thresholds{
			Offensive:     sentiment.DefaultOffensiveThreshold,
			NeutralMargin: sentiment.DefaultNeutralMargin,
		},
		Loader: LoaderSettings{TextKey: loader.DefaultTextKey},
		Embedder: Embedder{
			Provider: ProviderOllama,
			Timeout:  60 * time.Second,
		},
		Clustering: Clustering{
			DistanceThreshold: cluster.DefaultDistanceThreshold,
			Linkage:           cluster.Ward.String(),
		},
		Report: Report{Language: report.DefaultLanguage},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	var problems []string

	if c.Input == "" {
		problems = append(problems, "input is empty")
	}
	if c.Output == "" {
		problems = append(problems, "output is empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q", c.LogLevel))
	}
	if c.Thresholds.Offensive < -1 || c.Thresholds.Offensive > 1 {
		problems = append(problems, fmt.Sprintf("thresholds.offensive %v outside [-1, 1]", c.Thresholds.Offensive))
	}
	if c.Thresholds.NeutralMargin < 0 || c.Thresholds.NeutralMargin >= 1 {
		problems = append(problems, fmt.Sprintf("thresholds.neutral_margin %v outside [0, 1)", c.Thresholds.NeutralMargin))
	}
	if c.Loader.TextKey == "" {
		problems = append(problems, "loader.text_key is empty")
	}
	switch c.Embedder.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderHashing:
	default:
		problems = append(problems, fmt.Sprintf("embedder.provider %q", c.Embedder.Provider))
	}
	if c.Embedder.Dimensions < 0 {
		problems = append(problems, "embedder.dimensions is negative")
	}
	if c.Embedder.Timeout < 0 {
		problems = append(problems, "embedder.timeout is negative")
	}
	if c.Cache.MaxAge < 0 {
		problems = append(problems, "cache.max_age is negative")
	}
	if c.Clustering.DistanceThreshold <= 0 {
		problems = append(problems, "clustering.distance_threshold must be positive")
	}
	if _, err := cluster.ParseLinkage(c.Clustering.Linkage); err != nil {
		problems = append(problems, fmt.Sprintf("clustering.linkage %q", c.Clustering.Linkage))
	}
	if _, ok := report.Catalog(c.Report.Language); !ok {
		problems = append(problems, fmt.Sprintf("report.language %q (have %s)",
			c.Report.Language, strings.Join(report.Languages(), ", ")))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
