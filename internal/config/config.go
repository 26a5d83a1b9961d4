package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               string `yaml:"port"`
	CorsAllowedOrigins string `yaml:"cors_allowed_origins"`
}

// TranscriptConfig configures the transcript service client and the size
// policy applied before embedding.
type TranscriptConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
	MaxDurationMins int    `yaml:"max_duration_mins"`
	MaxChars        int    `yaml:"max_chars"`
}

// ChunkerConfig configures how the transcript is split.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// OpenAIEmbedderConfig holds settings for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeminiConfig holds settings shared by the Gemini clients.
type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// LocalEmbedderConfig holds settings for the offline hashing embedder.
type LocalEmbedderConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the embedding collaborator.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Gemini *GeminiConfig         `yaml:"gemini,omitempty"`
	Local  *LocalEmbedderConfig  `yaml:"local,omitempty"`
}

// OllamaConfig holds settings for the Ollama generator.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// GeneratorConfig selects and configures the generation collaborator.
type GeneratorConfig struct {
	Type   string        `yaml:"type"`
	Gemini *GeminiConfig `yaml:"gemini,omitempty"`
	Ollama *OllamaConfig `yaml:"ollama,omitempty"`
}

// PipelineConfig bounds the request pipelines.
type PipelineConfig struct {
	EmbedWorkers    int `yaml:"embed_workers"`
	TopK            int `yaml:"top_k"`
	CallTimeoutSecs int `yaml:"call_timeout_secs"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	File string `yaml:"file"`
	Prod bool   `yaml:"prod"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Log        LogConfig        `yaml:"log"`
	Client     ClientConfig     `yaml:"client"`
}

// CallTimeout returns the collaborator call timeout as a duration.
func (c *AppConfig) CallTimeout() time.Duration {
	return time.Duration(c.Pipeline.CallTimeoutSecs) * time.Second
}

// MaxDuration returns the source duration limit, 0 meaning no limit.
func (c *AppConfig) MaxDuration() time.Duration {
	return time.Duration(c.Transcript.MaxDurationMins) * time.Minute
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present: local
// embedder and Ollama generator, so the stack runs without API keys.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:  EmbedderConfig{Type: "local"},
		Generator: GeneratorConfig{Type: "ollama"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Server.CorsAllowedOrigins == "" {
		cfg.Server.CorsAllowedOrigins = "*"
	}
	if cfg.Transcript.TimeoutSecs == 0 {
		cfg.Transcript.TimeoutSecs = 45
	}
	if cfg.Transcript.MaxDurationMins == 0 {
		cfg.Transcript.MaxDurationMins = 180
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 200
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "local"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "ollama"
	}
	if cfg.Pipeline.EmbedWorkers == 0 {
		cfg.Pipeline.EmbedWorkers = 5
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 4
	}
	if cfg.Pipeline.CallTimeoutSecs == 0 {
		cfg.Pipeline.CallTimeoutSecs = 60
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "logs/clipchat.log"
	}
	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = "http://localhost:" + cfg.Server.Port
	}
}
