package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRunID identifies one screening run across all of its log entries.
	FieldRunID = "run_id"
	// FieldStrategy is the active matching strategy.
	FieldStrategy = "strategy"
	// FieldProvider is the embedding provider name.
	FieldProvider = "provider"
	// FieldModel is the embedding model identifier.
	FieldModel = "model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// Run describes the run-wide context every entry carries.
type Run struct {
	ID       string
	Strategy string
	Provider string
	Model    string
}

// CommonFields returns the run fields. Empty values are skipped, so a
// lexical run carries no provider or model.
func CommonFields(run Run) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: run.ID},
		StringField{Key: FieldStrategy, Value: run.Strategy},
		StringField{Key: FieldProvider, Value: run.Provider},
		StringField{Key: FieldModel, Value: run.Model},
	)
}

// WithCommonFields attaches the run fields to the provided logger.
func WithCommonFields(logger *zap.Logger, run Run) *zap.Logger {
	return WithFields(logger, CommonFields(run)...)
}

// Preview shortens s for a log line: whitespace runs collapse to one space
// and the result is cut to limit runes with an ellipsis.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
