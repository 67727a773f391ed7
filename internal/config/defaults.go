package config

import "github.com/hyperjump/viie/internal/embedding"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Embedding.Method == "" {
		cfg.Embedding.Method = embedding.BagOfWords.String()
	}
	if cfg.Embedding.ModelDimensions == 0 {
		cfg.Embedding.ModelDimensions = embedding.DefaultModelDim
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = embedding.DefaultMaxTokens
	}
	if cfg.Embedding.NGramSize == 0 {
		cfg.Embedding.NGramSize = embedding.DefaultNGramSize
	}
	if cfg.Embedding.MinCount == 0 {
		cfg.Embedding.MinCount = embedding.DefaultMinCount
	}
	if cfg.Embedding.WindowSize == 0 {
		cfg.Embedding.WindowSize = embedding.DefaultWindowSize
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = int(embedding.DefaultTimeout.Seconds())
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Shell.TopK == 0 {
		cfg.Shell.TopK = 5
	}
	if cfg.Shell.Prompt == "" {
		cfg.Shell.Prompt = "viie> "
	}
	if cfg.Ingest.Collection == "" {
		cfg.Ingest.Collection = "documents"
	}
	if cfg.Ingest.Dimension == 0 {
		cfg.Ingest.Dimension = embedding.DefaultDim
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 512
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Ingest.Directories) > 0 && cfg.Ingest.Recursive == nil {
		t := true
		cfg.Ingest.Recursive = &t
	}
}
