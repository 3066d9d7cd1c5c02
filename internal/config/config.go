package config

import (
	"log"
	"os"
	"path/filepath"
)

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr string `json:"listen_addr"`
	Debug      bool   `json:"debug"`

	// Directories
	DataDirectory string `json:"data_directory"`

	// File paths
	DataFile string `json:"data_file"`

	// Storage password for encrypted data directories. Empty means prompt.
	DataPassword string `json:"-"`

	// Default LLM provider settings; per-request headers override these.
	LLMProvider string `json:"llm_provider"`
	LLMAPIKey   string `json:"-"`
	LLMModel    string `json:"llm_model"`
	LLMBaseURL  string `json:"llm_base_url"`

	// When true, a single processing run realizes every missed occurrence of
	// a recurring definition instead of one per invocation.
	RecurringCatchUpAll bool `json:"recurring_catch_up_all"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		ListenAddr:    ":8080",
		Debug:         false,
		DataDirectory: filepath.Join(wd, "data"),
		DataFile:      filepath.Join(wd, "data", "finguide.json"),
	}
}

// Load loads configuration from environment variables over defaults
func Load() *Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("FINGUIDE_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if debug := os.Getenv("FINGUIDE_DEBUG"); debug == "true" || debug == "1" {
		cfg.Debug = true
	}
	if dataDir := os.Getenv("FINGUIDE_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
		cfg.DataFile = filepath.Join(dataDir, "finguide.json")
	}
	if pw := os.Getenv("FINGUIDE_DATA_PASSWORD"); pw != "" {
		cfg.DataPassword = pw
	}
	if p := os.Getenv("FINGUIDE_LLM_PROVIDER"); p != "" {
		cfg.LLMProvider = p
	}
	if k := os.Getenv("FINGUIDE_LLM_API_KEY"); k != "" {
		cfg.LLMAPIKey = k
	}
	if m := os.Getenv("FINGUIDE_LLM_MODEL"); m != "" {
		cfg.LLMModel = m
	}
	if u := os.Getenv("FINGUIDE_LLM_BASE_URL"); u != "" {
		cfg.LLMBaseURL = u
	}
	if v := os.Getenv("FINGUIDE_RECURRING_CATCH_UP_ALL"); v == "true" || v == "1" {
		cfg.RecurringCatchUpAll = true
	}

	cfg.ensureDirectories()

	return cfg
}

// ensureDirectories creates required directories if they don't exist
func (c *Config) ensureDirectories() {
	if err := os.MkdirAll(c.DataDirectory, 0755); err != nil {
		log.Printf("Warning: could not create directory %s: %v", c.DataDirectory, err)
	}
}
