package embedding

import "time"

const (
	DefaultDim        = 100
	DefaultNGramSize  = 3
	DefaultMinCount   = 5
	DefaultWindowSize = 5
	DefaultModelDim   = 384
	DefaultMaxTokens  = 256
	DefaultTimeout    = 30 * time.Second
)

// Config holds the parameters of an embedding request. Callers usually start
// from DefaultConfig and override Method and Dim per request.
type Config struct {
	Method      Method
	Dim         int
	APIKey      string
	APIEndpoint string
	// ModelPath is an ONNX sentence model used by BertEmbedding.
	ModelPath string
	ModelDim  int
	MaxTokens int
	// VocabPath replaces the built-in vocabulary of BagOfWords and OneHotEncoding
	// with one word per line.
	VocabPath  string
	NGramSize  int
	MinCount   int
	WindowSize int
	Timeout    time.Duration
}

// DefaultConfig returns the default embedding configuration.
func DefaultConfig() Config {
	return Config{
		Method:     BagOfWords,
		Dim:        DefaultDim,
		ModelDim:   DefaultModelDim,
		MaxTokens:  DefaultMaxTokens,
		NGramSize:  DefaultNGramSize,
		MinCount:   DefaultMinCount,
		WindowSize: DefaultWindowSize,
		Timeout:    DefaultTimeout,
	}
}

// With returns a copy of c using method m and dimension dim.
func (c Config) With(m Method, dim int) Config {
	c.Method = m
	c.Dim = dim
	return c
}

func (c Config) ngramSize() int {
	if c.NGramSize <= 0 {
		return DefaultNGramSize
	}
	return c.NGramSize
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) modelDim() int {
	if c.ModelDim <= 0 {
		return DefaultModelDim
	}
	return c.ModelDim
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}
