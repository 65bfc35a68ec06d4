package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/metrics"
)

// ErrClosed is returned by a Model used after Close.
var ErrClosed = errors.New("embedding model is closed")

// Config selects and configures the provider behind a Model.
type Config struct {
	Provider   string
	Model      string
	BaseURL    string
	Dimensions int
	APIKey     string
}

// Model is the process-wide embedding service. It is created once per run,
// reused for every encode call, and released with Close. Each distinct text
// is sent to the provider at most once while the model is open.
type Model struct {
	inner    Embedder
	provider string
	name     string
	logger   *zap.Logger

	mu     sync.Mutex
	cache  map[string][]float32
	closed bool
}

// New builds the provider described by cfg and wraps it into a Model.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", ProviderGemini:
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.Dimensions, logger)
		if err != nil {
			return nil, err
		}
		return NewModel(g, ProviderGemini, g.Model(), logger), nil
	case ProviderOpenAI:
		o := NewOpenAI(&OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Logger:     logger,
		})
		return NewModel(o, ProviderOpenAI, o.Model(), logger), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// NewModel wraps an already constructed embedder.
func NewModel(inner Embedder, provider, name string, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		inner:    inner,
		provider: provider,
		name:     name,
		logger:   logger,
		cache:    make(map[string][]float32),
	}
}

// Encode returns the embedding of text, calling the provider only on a cache miss.
func (m *Model) Encode(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if vec, ok := m.cache[key]; ok {
		m.mu.Unlock()
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}
	m.mu.Unlock()

	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	res, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	m.cache[key] = res.Vector

	return res.Vector, nil
}

func (m *Model) Provider() string { return m.provider }

func (m *Model) Name() string { return m.name }

// Close drops cached vectors. Further Encode calls fail with ErrClosed.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.logger.Debug("closing embedding model", zap.Int("cached_texts", len(m.cache)))
	m.cache = nil
	m.closed = true

	return nil
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
