package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DiscoveryConfig holds settings for the discovery stage.
// Per prd002-discovery R4.1-R4.5.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`

	// Profile selects the scoring profile: "strict" or "batch".
	Profile string `json:"profile" yaml:"profile"`

	// MaxResults is the number of results requested per search query (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// TopN caps the candidates persisted per book. Zero uses the
	// profile default (strict 5, batch 10).
	TopN int `json:"top_n" yaml:"top_n"`

	// RateLimitDelay is the pause between books (default 2s).
	RateLimitDelay time.Duration `json:"rate_limit_delay" yaml:"rate_limit_delay"`

	// ExtendedDelayEvery doubles the pause after every Nth book (default 5).
	ExtendedDelayEvery int `json:"extended_delay_every" yaml:"extended_delay_every"`
}

// DownloadConfig holds settings for the download queue.
// Per prd004-download R3.1-R3.3.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// Dir is the directory downloads are written to.
	Dir string `json:"dir" yaml:"dir"`
}

// LibraryConfig holds settings for filing and the folder watcher.
// Per prd006-filing R2.1-R2.3.
type LibraryConfig struct {
	// Dir is the canonical library directory ("Title - Author.pdf" files).
	Dir string `json:"dir" yaml:"dir"`

	// WatchDir is the directory the folder watcher observes for new PDFs.
	WatchDir string `json:"watch_dir" yaml:"watch_dir"`

	// SettleDelay is how long a new file's size must hold steady before
	// the watcher imports it (default 2s).
	SettleDelay time.Duration `json:"settle_delay" yaml:"settle_delay"`

	// KnowledgeFile is an optional YAML file of extra knowledge entries
	// merged over the built-in table.
	KnowledgeFile string `json:"knowledge_file,omitempty" yaml:"knowledge_file,omitempty"`
}

// StoreConfig holds settings for the record store.
type StoreConfig struct {
	// Path is the SQLite database file path.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Download  DownloadConfig  `json:"download" yaml:"download"`
	Library   LibraryConfig   `json:"library" yaml:"library"`
}
