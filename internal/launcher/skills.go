package launcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/logger"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// SkillSource fetches the skill analysis of one job against a resume.
type SkillSource interface {
	GetSkillAnalysis(ctx context.Context, jobID, userID int, resumeID string) (*smartrecruit.SkillAnalysis, error)
}

// SkillAnalysis launches the skill analysis view for one job. It has no regenerate: once
// Ready, running it for the same job and resume serves the live result.
type SkillAnalysis struct {
	source SkillSource
	logger *zap.Logger

	task     task[smartrecruit.SkillAnalysis]
	jobID    int
	resumeID string
}

func NewSkillAnalysis(source SkillSource, log *zap.Logger) *SkillAnalysis {
	if log == nil {
		log = zap.NewNop()
	}
	return &SkillAnalysis{source: source, logger: log}
}

// Observe registers fn to be called on every state change.
func (l *SkillAnalysis) Observe(fn func(State)) {
	l.task.observe(fn)
}

func (l *SkillAnalysis) Run(ctx context.Context, job smartrecruit.JobMatch, userID int, resumeID string) (*smartrecruit.SkillAnalysis, error) {
	if !job.Complete() {
		return nil, &smartrecruit.ValidationError{Field: "job", Reason: "job details are incomplete"}
	}
	if job.Closed() {
		return nil, &smartrecruit.ValidationError{Field: "job", Reason: "this job is closed"}
	}
	if resumeID == "" {
		return nil, &smartrecruit.ValidationError{Field: "resume_id", Reason: "select a resume first"}
	}

	if state, result, _ := l.task.snapshot(); state == Ready && l.same(job.JobID, resumeID) {
		return result, nil
	}

	if err := l.task.begin(); err != nil {
		return nil, err
	}
	l.task.mu.Lock()
	l.jobID, l.resumeID = job.JobID, resumeID
	l.task.mu.Unlock()

	log := logger.WithSession(l.logger, userID, resumeID).With(zap.Int(logger.FieldJobID, job.JobID))
	log.Debug("loading skill analysis")

	analysis, err := l.source.GetSkillAnalysis(ctx, job.JobID, userID, resumeID)
	if err != nil {
		log.Warn("skill analysis failed", zap.Error(err))
		l.task.finish(nil, err)
		return nil, err
	}

	if analysis.MatchedSkills == nil {
		analysis.MatchedSkills = smartrecruit.NewSkillSet()
	}
	if analysis.MissingSkills == nil {
		analysis.MissingSkills = smartrecruit.NewSkillSet()
	}

	l.task.finish(analysis, nil)
	return analysis, nil
}

func (l *SkillAnalysis) same(jobID int, resumeID string) bool {
	l.task.mu.Lock()
	defer l.task.mu.Unlock()
	return l.jobID == jobID && l.resumeID == resumeID
}

func (l *SkillAnalysis) State() State {
	state, _, _ := l.task.snapshot()
	return state
}

// Result is the live analysis, nil unless Ready.
func (l *SkillAnalysis) Result() *smartrecruit.SkillAnalysis {
	_, result, _ := l.task.snapshot()
	return result
}

func (l *SkillAnalysis) Err() error {
	_, _, err := l.task.snapshot()
	return err
}

// Reset discards the result, as when navigating away.
func (l *SkillAnalysis) Reset() error {
	return l.task.reset()
}
