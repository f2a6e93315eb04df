package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Colmmm/xuexinwen/internal/levels"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Dictionary Dictionary `yaml:"dictionary"`
	Processing Processing `yaml:"processing"`
	LLM        LLM        `yaml:"llm"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type Sources struct {
	NYT NYTConfig `yaml:"nyt"`
}

type NYTConfig struct {
	Enabled      bool `yaml:"enabled"`
	MaxArticles  int  `yaml:"max_articles"`
	DelaySeconds int  `yaml:"delay_seconds"`
}

type Dictionary struct {
	// Path to the TOCFL word list CSV. Relative paths resolve against
	// the working directory.
	Path string `yaml:"path"`
}

type Processing struct {
	// TargetLevels are the CEFR tiers to generate simplified rewrites for.
	TargetLevels []string `yaml:"target_levels"`
}

type LLM struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	OllamaURL       string `yaml:"ollama_url"`
	OpenRouterModel string `yaml:"openrouter_model"`
	APIKeyEnv       string `yaml:"api_key_env"`
	Referer         string `yaml:"referer"`
	MaxTokens       int    `yaml:"max_tokens"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for xuexinwen.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "xuexinwen")
}

// DataDir returns the XDG data directory for xuexinwen.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "xuexinwen")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/xuexinwen/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'xuexinwen init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			NYT: NYTConfig{
				Enabled:      true,
				MaxArticles:  5,
				DelaySeconds: 12,
			},
		},
		Dictionary: Dictionary{
			Path: "data/tocfl.csv",
		},
		Processing: Processing{
			TargetLevels: []string{"A2", "B1"},
		},
		LLM: LLM{
			Provider:        "ollama",
			Model:           "qwen2.5:7b",
			OllamaURL:       "http://localhost:11434",
			OpenRouterModel: "google/gemini-2.0-flash-001",
			APIKeyEnv:       "OPENROUTER_API_KEY",
			Referer:         "https://xuexinwen.app",
			MaxTokens:       4096,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for _, level := range cfg.Processing.TargetLevels {
		if levels.Parse(level) == levels.Unknown {
			return nil, fmt.Errorf("invalid target level %q", level)
		}
	}

	return cfg, nil
}

// TargetLevels returns the configured simplification tiers as typed levels.
func (c *Config) TargetLevels() []levels.Level {
	out := make([]levels.Level, 0, len(c.Processing.TargetLevels))
	for _, s := range c.Processing.TargetLevels {
		out = append(out, levels.Parse(s))
	}
	return out
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
