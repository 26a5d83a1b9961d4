package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"clipchat/internal/config"
	"clipchat/internal/domain"
	"clipchat/internal/embedding"
	"clipchat/internal/llm"
	"clipchat/internal/logger"
	"clipchat/internal/pipeline"
	"clipchat/internal/server"
	"clipchat/internal/summarizer"
	"clipchat/internal/transcript"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New(cfg.Log.File, cfg.Log.Prod)
	defer func() { _ = zl.Sync() }()

	// Assemble collaborators
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "local", "":
		dim := 0
		if cfg.Embedder.Local != nil {
			dim = cfg.Embedder.Local.Dimension
		}
		emb = embedding.NewLocal(dim)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			zl.Fatal("openai embedder config missing")
		}
		client, err := embedding.NewOpenAI(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			zl.Fatal("openai embedder init failed", zap.Error(err))
		}
		emb = client
	case "gemini":
		if cfg.Embedder.Gemini == nil {
			zl.Fatal("gemini embedder config missing")
		}
		client, err := embedding.NewGemini(embedding.GeminiConfig{
			APIKeyEnv: cfg.Embedder.Gemini.APIKeyEnv,
			Model:     cfg.Embedder.Gemini.Model,
		})
		if err != nil {
			zl.Fatal("gemini embedder init failed", zap.Error(err))
		}
		emb = client
	default:
		zl.Fatal("unknown embedder", zap.String("type", cfg.Embedder.Type))
	}

	var gen domain.Generator
	switch cfg.Generator.Type {
	case "ollama", "":
		ocfg := llm.OllamaConfig{Timeout: cfg.CallTimeout()}
		if cfg.Generator.Ollama != nil {
			ocfg.BaseURL = cfg.Generator.Ollama.BaseURL
			ocfg.Model = cfg.Generator.Ollama.Model
		}
		gen = llm.NewOllama(ocfg)
	case "gemini":
		if cfg.Generator.Gemini == nil {
			zl.Fatal("gemini generator config missing")
		}
		client, err := llm.NewGemini(llm.GeminiConfig{
			APIKeyEnv: cfg.Generator.Gemini.APIKeyEnv,
			Model:     cfg.Generator.Gemini.Model,
			Timeout:   cfg.CallTimeout(),
		})
		if err != nil {
			zl.Fatal("gemini generator init failed", zap.Error(err))
		}
		gen = client
	default:
		zl.Fatal("unknown generator", zap.String("type", cfg.Generator.Type))
	}

	source := transcript.NewClient(transcript.Config{
		BaseURL: cfg.Transcript.BaseURL,
		APIKey:  os.Getenv(cfg.Transcript.APIKeyEnv),
		Timeout: time.Duration(cfg.Transcript.TimeoutSecs) * time.Second,
	})

	p := pipeline.New(pipeline.Config{
		ChunkSize:    cfg.Chunker.ChunkSize,
		ChunkOverlap: cfg.Chunker.ChunkOverlap,
		EmbedWorkers: cfg.Pipeline.EmbedWorkers,
		TopK:         cfg.Pipeline.TopK,
		MaxDuration:  cfg.MaxDuration(),
		MaxChars:     cfg.Transcript.MaxChars,
		CallTimeout:  cfg.CallTimeout(),
	}, source, emb, gen, summarizer.NewFrequencySummarizer(), zl)

	srv := server.New(cfg, p, zl)
	if err := srv.Run(); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
