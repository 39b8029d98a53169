package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/logger"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	systemInstruction   = "You are a professional interviewer who generates interview questions."
	defaultMaxLogLength = 200
)

// QuestionGenerator produces interview question sets locally instead of through the
// backend's preparation endpoint.
type QuestionGenerator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewQuestionGenerator(generator contentGenerator, maxLogLength int, log *zap.Logger) *QuestionGenerator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &QuestionGenerator{
		generator: generator,
		logger:    logger.WithProvider(log, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// GenerateInterviewQuestions asks the model for 10 technical and 5 behavioral questions.
// A reply that does not follow the TECHNICAL/BEHAVIORAL layout is an error.
func (q *QuestionGenerator) GenerateInterviewQuestions(ctx context.Context, job smartrecruit.JobMatch, difficulty smartrecruit.Difficulty) (*smartrecruit.InterviewQuestionSet, error) {
	if _, err := smartrecruit.ParseDifficulty(string(difficulty)); err != nil {
		return nil, err
	}

	prompt := buildPrompt(job, difficulty)
	log := q.logger.With(zap.Int(logger.FieldJobID, job.JobID))

	log.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, q.maxLogLen)),
	)

	raw, err := q.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, q.maxLogLen)),
	)

	set, err := smartrecruit.QuestionSetFromText(job.JobID, difficulty, raw)
	if err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	return set, nil
}

func buildPrompt(job smartrecruit.JobMatch, difficulty smartrecruit.Difficulty) string {
	var description strings.Builder
	description.WriteString(job.Title)
	if job.CompanyName != "" {
		description.WriteString(" at " + job.CompanyName)
	}
	if job.Description != "" {
		description.WriteString("\n\n" + strings.TrimSpace(job.Description))
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_DESCRIPTION}}", description.String())
	prompt = strings.ReplaceAll(prompt, "{{DIFFICULTY}}", string(difficulty))
	return prompt
}
