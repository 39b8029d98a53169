package launcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/logger"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// QuestionSource generates interview questions. Both the backend client and the local
// Gemini generator implement it.
type QuestionSource interface {
	GenerateInterviewQuestions(ctx context.Context, job smartrecruit.JobMatch, difficulty smartrecruit.Difficulty) (*smartrecruit.InterviewQuestionSet, error)
}

// InterviewPrep launches the interview preparation view. A difficulty must be selected
// before generating; generating again discards the previous set.
type InterviewPrep struct {
	source QuestionSource
	logger *zap.Logger

	task task[smartrecruit.InterviewQuestionSet]

	mu         sync.Mutex
	difficulty smartrecruit.Difficulty
}

func NewInterviewPrep(source QuestionSource, log *zap.Logger) *InterviewPrep {
	if log == nil {
		log = zap.NewNop()
	}
	return &InterviewPrep{source: source, logger: log}
}

func (l *InterviewPrep) Observe(fn func(State)) {
	l.task.observe(fn)
}

// SelectDifficulty sets the level used by the next Generate.
func (l *InterviewPrep) SelectDifficulty(level string) error {
	difficulty, err := smartrecruit.ParseDifficulty(level)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.difficulty = difficulty
	l.mu.Unlock()
	return nil
}

func (l *InterviewPrep) Difficulty() smartrecruit.Difficulty {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.difficulty
}

// Generate requests a question set for job at the selected difficulty. Without a
// difficulty it fails with a ValidationError and makes no request. On failure the
// difficulty stays selected.
func (l *InterviewPrep) Generate(ctx context.Context, job smartrecruit.JobMatch) (*smartrecruit.InterviewQuestionSet, error) {
	if !job.Complete() {
		return nil, &smartrecruit.ValidationError{Field: "job", Reason: "job details are incomplete"}
	}
	if job.Closed() {
		return nil, &smartrecruit.ValidationError{Field: "job", Reason: "this job is closed"}
	}

	difficulty := l.Difficulty()
	if _, err := smartrecruit.ParseDifficulty(string(difficulty)); err != nil {
		return nil, err
	}

	if err := l.task.begin(); err != nil {
		return nil, err
	}

	log := l.logger.With(zap.Int(logger.FieldJobID, job.JobID), zap.String("difficulty", string(difficulty)))
	log.Debug("generating interview questions")

	set, err := l.source.GenerateInterviewQuestions(ctx, job, difficulty)
	if err != nil {
		log.Warn("interview question generation failed", zap.Error(err))
		l.task.finish(nil, err)
		return nil, err
	}

	log.Info("interview questions generated",
		zap.Int("technical", len(set.Technical)),
		zap.Int("behavioral", len(set.Behavioral)),
	)
	l.task.finish(set, nil)
	return set, nil
}

func (l *InterviewPrep) State() State {
	state, _, _ := l.task.snapshot()
	return state
}

func (l *InterviewPrep) Result() *smartrecruit.InterviewQuestionSet {
	_, result, _ := l.task.snapshot()
	return result
}

func (l *InterviewPrep) Err() error {
	_, _, err := l.task.snapshot()
	return err
}

// Reset discards the set and the difficulty, as when navigating away.
func (l *InterviewPrep) Reset() error {
	if err := l.task.reset(); err != nil {
		return err
	}
	l.mu.Lock()
	l.difficulty = ""
	l.mu.Unlock()
	return nil
}
