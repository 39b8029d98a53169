package workflow

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/logger"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// ResumeBackend is the part of the SmartRecruit client resume management uses.
type ResumeBackend interface {
	ListResumes(ctx context.Context, userID int) (*smartrecruit.Resumes, error)
	UploadResume(ctx context.Context, userID int, filename string, content io.Reader) (*smartrecruit.UploadResult, error)
	DeleteResume(ctx context.Context, resumeID string, userID int) error
}

// ResumeManager uploads and deletes resumes. The list is fetched again after every change
// and never served from a cache.
type ResumeManager struct {
	backend ResumeBackend
	logger  *zap.Logger
	intents *confirmations
}

func NewResumeManager(backend ResumeBackend, log *zap.Logger) *ResumeManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResumeManager{backend: backend, logger: log, intents: newConfirmations()}
}

func (m *ResumeManager) List(ctx context.Context, userID int) (*smartrecruit.Resumes, error) {
	return m.backend.ListResumes(ctx, userID)
}

// Upload sends the file and returns the extraction result together with the fresh list.
func (m *ResumeManager) Upload(ctx context.Context, userID int, filename string, content io.Reader) (*smartrecruit.UploadResult, *smartrecruit.Resumes, error) {
	result, err := m.backend.UploadResume(ctx, userID, filename, content)
	if err != nil {
		return nil, nil, err
	}

	logger.WithSession(m.logger, userID, result.ResumeID).Info("resume uploaded",
		zap.String("filename", filename),
		zap.Int("skills", result.Skills.Len()),
	)

	resumes, err := m.backend.ListResumes(ctx, userID)
	if err != nil {
		return result, nil, err
	}
	return result, resumes, nil
}

// RequestDelete is the first phase of a resume deletion.
func (m *ResumeManager) RequestDelete(resumeID string) (Intent, error) {
	if resumeID == "" {
		return Intent{}, &smartrecruit.ValidationError{Field: "resume_id", Reason: "is required"}
	}
	return m.intents.issue(resumeID), nil
}

func (m *ResumeManager) CancelDelete(intent Intent) {
	m.intents.cancel(intent)
}

// ConfirmDelete deletes the resume and returns the refetched list. On failure nothing is
// refetched and the resume stays listed.
func (m *ResumeManager) ConfirmDelete(ctx context.Context, userID int, intent Intent) (*smartrecruit.Resumes, error) {
	if !m.intents.consume(intent) {
		return nil, ErrUnknownIntent
	}

	log := logger.WithSession(m.logger, userID, intent.Subject)
	if err := m.backend.DeleteResume(ctx, intent.Subject, userID); err != nil {
		log.Warn("resume deletion failed", zap.Error(err))
		return nil, err
	}
	log.Info("resume deleted")

	return m.backend.ListResumes(ctx, userID)
}

func (m *ResumeManager) Reset(context.Context) {
	m.intents.reset()
}
