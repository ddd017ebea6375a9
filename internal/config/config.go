// Package config assembles runtime configuration from the environment with an
// optional config.json overlay.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds runtime configuration. Secrets are read from the environment
// at startup; never committed.
type Config struct {
	// OpenAIAPIKey is set from env OPENAI_API_KEY or from config file.
	OpenAIAPIKey string `json:"openai_api_key"`
	// OpenAIBaseURL points the client at an OpenAI-compatible endpoint
	// (e.g. https://openrouter.ai/api/v1). Empty means api.openai.com.
	OpenAIBaseURL string `json:"openai_base_url"`
	// Model is the chat model id (e.g. gpt-4o-mini).
	Model string `json:"model"`

	// PrivateKey is the hex-encoded signing key for the connected account.
	// Set from env THRY_PRIVATE_KEY only, never from the config file.
	PrivateKey string `json:"-"`

	// NetworkID selects the ledger network the agent operates on.
	NetworkID string `json:"network_id"`
	// NetworksPath optionally points at a YAML file overlaying the built-in
	// network table.
	NetworksPath string `json:"networks_path"`

	// DBPath is the path to the transcript database.
	DBPath string `json:"db_path"`
	// ListenAddr is the HTTP API bind address. Empty disables the API.
	ListenAddr string `json:"listen_addr"`

	// MaxToolIterations caps model round-trips per turn; 0 uses the default.
	MaxToolIterations int `json:"max_tool_iterations"`
	// ToolOutputMaxRunes caps tool payload strings (0 = no truncation).
	ToolOutputMaxRunes int `json:"tool_output_max_runes"`

	// ConfigDir is where config.json and the database live.
	ConfigDir string `json:"-"`
}

// DefaultConfigDir returns the project-local .thry dir if present, else
// ~/.config/thry.
func DefaultConfigDir() string {
	cwd, _ := os.Getwd()
	local := filepath.Join(cwd, ".thry")
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "thry")
}

// New builds config from env and the optional config dir. configDir can be
// empty to use the default.
func New(configDir string) *Config {
	if configDir == "" {
		if d := os.Getenv("THRY_CONFIG_DIR"); d != "" {
			configDir = d
		} else {
			configDir = DefaultConfigDir()
		}
	}

	cfg := &Config{
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		Model:              os.Getenv("THRY_MODEL"),
		PrivateKey:         os.Getenv("THRY_PRIVATE_KEY"),
		NetworkID:          os.Getenv("THRY_NETWORK"),
		NetworksPath:       os.Getenv("THRY_NETWORKS_FILE"),
		DBPath:             os.Getenv("THRY_DB_PATH"),
		ListenAddr:         os.Getenv("THRY_LISTEN_ADDR"),
		MaxToolIterations:  intEnv("THRY_MAX_TOOL_ITERATIONS"),
		ToolOutputMaxRunes: intEnv("THRY_TOOL_OUTPUT_MAX_RUNES"),
		ConfigDir:          configDir,
	}

	// Priority: Env < Config File. Keys missing from JSON leave env values
	// untouched.
	configPath := filepath.Join(configDir, "config.json")
	if data, err := os.ReadFile(configPath); err == nil {
		_ = json.Unmarshal(data, cfg)
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.NetworkID == "" {
		cfg.NetworkID = "ethereum-sepolia"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(configDir, "thry.db")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	return cfg
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("THRY_PRIVATE_KEY is not set")
	}
	return nil
}

func intEnv(name string) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return 0
}
