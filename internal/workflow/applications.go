package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/logger"
	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// ApplicationBackend is the part of the SmartRecruit client the application workflow uses.
type ApplicationBackend interface {
	ApplyForJob(ctx context.Context, jobID, userID int, resumeID string) (*smartrecruit.Application, error)
	WithdrawApplication(ctx context.Context, applicationID string) error
	ListApplications(ctx context.Context, userID int) ([]smartrecruit.Application, error)
	GetJob(ctx context.Context, jobID int) (*smartrecruit.Job, error)
}

// Applications submits and withdraws applications while keeping the applied-set in step.
// At most one apply per (job, resume) pair and one withdraw per application is in flight.
type Applications struct {
	backend ApplicationBackend
	store   session.Store
	logger  *zap.Logger

	mu          sync.Mutex
	pending     map[session.Key]struct{}
	withdrawing map[string]struct{}
	withdrawn   map[string]struct{}

	intents *confirmations
	now     func() time.Time
}

func NewApplications(backend ApplicationBackend, store session.Store, log *zap.Logger) *Applications {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = session.NewMemoryStore()
	}

	return &Applications{
		backend:     backend,
		store:       store,
		logger:      log,
		pending:     map[session.Key]struct{}{},
		withdrawing: map[string]struct{}{},
		withdrawn:   map[string]struct{}{},
		intents:     newConfirmations(),
		now:         time.Now,
	}
}

// Apply submits an application for job with the resume. A pair that is recorded or still
// pending is refused with AlreadyAppliedError without contacting the backend. The record
// is stored before Apply returns; a failed submission stores nothing.
func (a *Applications) Apply(ctx context.Context, job smartrecruit.JobMatch, userID int, resumeID string) (session.Record, error) {
	if resumeID == "" {
		return session.Record{}, &smartrecruit.ValidationError{Field: "resume_id", Reason: "select a resume first"}
	}
	if job.Closed() {
		return session.Record{}, &smartrecruit.ValidationError{Field: "job", Reason: "this job is closed"}
	}

	key := session.Key{JobID: job.JobID, ResumeID: resumeID}
	log := logger.WithSession(a.logger, userID, resumeID).With(zap.Int(logger.FieldJobID, job.JobID))

	if err := a.markPending(ctx, key); err != nil {
		return session.Record{}, err
	}
	defer a.clearPending(key)

	app, err := a.backend.ApplyForJob(ctx, job.JobID, userID, resumeID)
	if err != nil {
		log.Warn("application rejected", zap.Error(err))
		return session.Record{}, err
	}

	record := session.Record{
		JobID:         job.JobID,
		ResumeID:      resumeID,
		ApplicationID: app.ApplicationID,
		Status:        string(app.Status),
		AppliedAt:     app.AppliedAt,
	}
	if record.AppliedAt.IsZero() {
		record.AppliedAt = a.now().UTC()
	}

	if err := a.store.Add(ctx, record); err != nil {
		if errors.Is(err, session.ErrDuplicate) {
			return session.Record{}, &smartrecruit.AlreadyAppliedError{JobID: job.JobID, ResumeID: resumeID}
		}
		return session.Record{}, fmt.Errorf("record application: %w", err)
	}

	log.Info("applied", zap.String(logger.FieldApplicationID, record.ApplicationID))
	return record, nil
}

// markPending checks the pair and reserves it in one critical section.
func (a *Applications) markPending(ctx context.Context, key session.Key) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.pending[key]; ok {
		return &smartrecruit.AlreadyAppliedError{JobID: key.JobID, ResumeID: key.ResumeID}
	}

	_, err := a.store.Get(ctx, key)
	switch {
	case err == nil:
		return &smartrecruit.AlreadyAppliedError{JobID: key.JobID, ResumeID: key.ResumeID}
	case !errors.Is(err, session.ErrNotFound):
		return fmt.Errorf("read applied jobs: %w", err)
	}

	a.pending[key] = struct{}{}
	return nil
}

func (a *Applications) clearPending(key session.Key) {
	a.mu.Lock()
	delete(a.pending, key)
	a.mu.Unlock()
}

// IsApplied reports whether the pair is recorded or an apply for it is in flight.
func (a *Applications) IsApplied(ctx context.Context, jobID int, resumeID string) (bool, error) {
	key := session.Key{JobID: jobID, ResumeID: resumeID}

	a.mu.Lock()
	_, pending := a.pending[key]
	a.mu.Unlock()
	if pending {
		return true, nil
	}

	_, err := a.store.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, session.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// RequestWithdraw is the first phase of a withdraw. The application is untouched until the
// returned intent is confirmed.
func (a *Applications) RequestWithdraw(_ context.Context, applicationID string) (Intent, error) {
	if applicationID == "" {
		return Intent{}, &smartrecruit.ValidationError{Field: "application_id", Reason: "is required"}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkWithdrawable(applicationID); err != nil {
		return Intent{}, err
	}

	return a.intents.issue(applicationID), nil
}

// CancelWithdraw drops the intent. Confirming it afterwards fails with ErrUnknownIntent.
func (a *Applications) CancelWithdraw(intent Intent) {
	a.intents.cancel(intent)
}

// ConfirmWithdraw deletes the application on the backend and then removes exactly its
// local record. On failure the record is kept.
func (a *Applications) ConfirmWithdraw(ctx context.Context, intent Intent) error {
	if !a.intents.consume(intent) {
		return ErrUnknownIntent
	}
	applicationID := intent.Subject

	a.mu.Lock()
	if err := a.checkWithdrawable(applicationID); err != nil {
		a.mu.Unlock()
		return err
	}
	a.withdrawing[applicationID] = struct{}{}
	a.mu.Unlock()

	err := a.backend.WithdrawApplication(ctx, applicationID)

	a.mu.Lock()
	delete(a.withdrawing, applicationID)
	if err == nil {
		a.withdrawn[applicationID] = struct{}{}
	}
	a.mu.Unlock()

	log := a.logger.With(zap.String(logger.FieldApplicationID, applicationID))
	if err != nil {
		log.Warn("withdraw failed", zap.Error(err))
		return err
	}

	// Applications made outside this session have no local record.
	if err := a.store.Remove(ctx, applicationID); err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("forget application: %w", err)
	}

	log.Info("application withdrawn")
	return nil
}

func (a *Applications) checkWithdrawable(applicationID string) error {
	if _, ok := a.withdrawing[applicationID]; ok {
		return &smartrecruit.AlreadyWithdrawnError{ApplicationID: applicationID}
	}
	if _, ok := a.withdrawn[applicationID]; ok {
		return &smartrecruit.AlreadyWithdrawnError{ApplicationID: applicationID}
	}
	return nil
}

// Reset forgets in-flight bookkeeping and outstanding intents. It runs on session teardown.
func (a *Applications) Reset(context.Context) {
	a.mu.Lock()
	a.pending = map[session.Key]struct{}{}
	a.withdrawing = map[string]struct{}{}
	a.withdrawn = map[string]struct{}{}
	a.mu.Unlock()

	a.intents.reset()
}
