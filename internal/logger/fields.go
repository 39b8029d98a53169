package logger

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	FieldUserID        = "user_id"
	FieldResumeID      = "resume_id"
	FieldJobID         = "job_id"
	FieldApplicationID = "application_id"

	// FieldProvider is the structured log field key for the question generator provider.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the question generator model.
	FieldModel = "ai_model"
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

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SessionFields describes who is acting and with which resume. Zero values are dropped.
func SessionFields(userID int, resumeID string) []zap.Field {
	id := ""
	if userID > 0 {
		id = strconv.Itoa(userID)
	}
	return StringFields(
		StringField{Key: FieldUserID, Value: id},
		StringField{Key: FieldResumeID, Value: resumeID},
	)
}

// WithSession attaches the session fields to the logger.
func WithSession(logger *zap.Logger, userID int, resumeID string) *zap.Logger {
	return WithFields(logger, SessionFields(userID, resumeID)...)
}

// ProviderFields returns fields that describe the question generator provider and model.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ProviderFields(provider, model)...)
}
