package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds every tunable of the ingestion engine. All values come from
// the environment.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"LEDGER_DB_PATH" envDefault:"finledger.db"`

	// Document uploads land in this bucket; empty disables the upload API.
	GCSBucket string `env:"GCS_BUCKET"`

	// Extraction model.
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	ExtractTimeout time.Duration `env:"EXTRACT_TIMEOUT" envDefault:"2m"`

	// Document adapter gates.
	MaxDocumentBytes  int64 `env:"MAX_DOCUMENT_BYTES" envDefault:"10485760"`
	MinStatementChars int   `env:"MIN_STATEMENT_CHARS" envDefault:"100"`
	MaxStatementChars int   `env:"MAX_STATEMENT_CHARS" envDefault:"20000"`

	// External platform endpoints. Overridden in tests with httptest servers.
	AggregatorBaseURL    string `env:"AGGREGATOR_BASE_URL" envDefault:"https://api.bankfeed.example.com"`
	AggregatorMaxRecords int    `env:"AGGREGATOR_MAX_RECORDS" envDefault:"1000"`
	ProcessorBaseURL     string `env:"PROCESSOR_BASE_URL" envDefault:"https://api.payproc.example.com"`
	ProcessorPageSize    int    `env:"PROCESSOR_PAGE_SIZE" envDefault:"100"`
	ProcessorMaxRecords  int    `env:"PROCESSOR_MAX_RECORDS" envDefault:"1000"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}
