package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full CLI configuration. Precedence: built-in defaults, then
// the YAML file, then COPURCHASE_* environment variables, then flags.
type Config struct {
	Dataset struct {
		// Edges selects the co-purchase edge list: a local path or s3:// URL,
		// plain or gzip.
		Edges string `yaml:"edges"`
		// Meta selects the optional product metadata file.
		Meta string `yaml:"meta"`
		// Cache is where S3 objects are downloaded to.
		Cache string `yaml:"cache"`
	} `yaml:"dataset"`

	Arango struct {
		Endpoint       string `yaml:"endpoint" validate:"omitempty,url"`
		Database       string `yaml:"database"`
		Username       string `yaml:"username"`
		Password       string `yaml:"password"`
		NodeCollection string `yaml:"nodeCollection"`
		EdgeCollection string `yaml:"edgeCollection"`
		BatchSize      int    `yaml:"batchSize" validate:"gte=0"`
		Workers        int    `yaml:"workers" validate:"gte=0"`
	} `yaml:"arango"`

	Analyze struct {
		TopK      int `yaml:"topK" validate:"gte=0"`
		SampleCap int `yaml:"sampleCap" validate:"gte=0"`
	} `yaml:"analyze"`

	Community struct {
		MaxNodes        int     `yaml:"maxNodes" validate:"gte=0"`
		Seed            int64   `yaml:"seed"`
		Resolution      float64 `yaml:"resolution" validate:"gte=0"`
		ForceComponents bool    `yaml:"forceComponents"`
	} `yaml:"community"`

	Persist      bool   `yaml:"persist"`
	ForcePersist bool   `yaml:"forcePersist"`
	SnapshotPath string `yaml:"snapshotPath"`
	LedgerURL    string `yaml:"ledgerURL"`

	MetricsListen string `yaml:"metricsListen"`
	LogLevel      string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	// Output is where the result bundle goes; "-" means stdout.
	Output string `yaml:"output"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Dataset.Cache = "./cache"
	cfg.Arango.Database = "copurchase"
	cfg.Arango.NodeCollection = "products"
	cfg.Arango.EdgeCollection = "copurchases"
	cfg.LogLevel = "info"
	cfg.Output = "-"
	return cfg
}

// loadFile merges a YAML config file over cfg. Unknown keys are rejected so
// typos surface instead of silently falling back to defaults.
func loadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays COPURCHASE_* environment variables. Only the settings
// an operator would inject into a container are env-addressable.
func applyEnv(cfg *Config) {
	for env, target := range map[string]*string{
		"COPURCHASE_ARANGO_ENDPOINT": &cfg.Arango.Endpoint,
		"COPURCHASE_ARANGO_DATABASE": &cfg.Arango.Database,
		"COPURCHASE_ARANGO_USERNAME": &cfg.Arango.Username,
		"COPURCHASE_ARANGO_PASSWORD": &cfg.Arango.Password,
		"COPURCHASE_LEDGER_URL":      &cfg.LedgerURL,
		"COPURCHASE_DATASET_EDGES":   &cfg.Dataset.Edges,
		"COPURCHASE_DATASET_META":    &cfg.Dataset.Meta,
	} {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

// validate checks field shapes and the one cross-field rule a run needs:
// some place to get a graph from.
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Dataset.Edges == "" && c.Arango.Endpoint == "" {
		return fmt.Errorf("invalid configuration: set dataset.edges or arango.endpoint (nothing to build or load a graph from)")
	}
	if c.ForcePersist && !c.Persist {
		return fmt.Errorf("invalid configuration: forcePersist requires persist")
	}
	return nil
}
