package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-matcher/internal/metrics"
)

const (
	ProviderGemini = "gemini"

	defaultGeminiModel = "gemini-embedding-001"
	similarityTaskType = "SEMANTIC_SIMILARITY"
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text with the Google GenAI embedding endpoint.
type Gemini struct {
	models     contentEmbedder
	modelName  string
	dimensions int32
	logger     *zap.Logger
}

// NewGemini creates a Gemini embedder configured for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, dimensions int, logger *zap.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGemini(client.Models, model, dimensions, logger), nil
}

func newGemini(models contentEmbedder, model string, dimensions int, logger *zap.Logger) *Gemini {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gemini{
		models:     models,
		modelName:  model,
		dimensions: int32(dimensions),
		logger:     logger,
	}
}

// Embed implements Embedder.
func (g *Gemini) Embed(ctx context.Context, text string) (Result, error) {
	if g == nil || g.models == nil {
		return Result{}, errors.New("gemini embedder is not initialized")
	}

	cfg := &genai.EmbedContentConfig{TaskType: similarityTaskType}
	if g.dimensions > 0 {
		dims := g.dimensions
		cfg.OutputDimensionality = &dims
	}

	start := time.Now()
	resp, err := g.models.EmbedContent(ctx, g.modelName, genai.Text(text), cfg)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderGemini, g.modelName, "error").Inc()
		return Result{}, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderGemini, g.modelName, "error").Inc()
		return Result{}, fmt.Errorf("gemini: %w", ErrEmptyEmbedding)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderGemini, g.modelName, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(ProviderGemini, g.modelName).Observe(duration.Seconds())

	g.logger.Debug("gemini embed content response",
		zap.Int("dimensions", len(resp.Embeddings[0].Values)),
		zap.Duration("duration", duration),
	)

	return Result{Vector: resp.Embeddings[0].Values}, nil
}

func (g *Gemini) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
