package workflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smartrecruit/smartrecruit/internal/results"
	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

type fakeBackend struct {
	mu sync.Mutex

	applyCalls    int
	withdrawCalls int
	applyErr      error
	withdrawErr   error
	nextID        string
	release       chan struct{}
	entered       chan struct{}

	applications []smartrecruit.Application
	jobs         map[int]*smartrecruit.Job
	jobErr       map[int]error
}

func (f *fakeBackend) ApplyForJob(_ context.Context, jobID, userID int, resumeID string) (*smartrecruit.Application, error) {
	f.mu.Lock()
	f.applyCalls++
	release, entered := f.release, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}

	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &smartrecruit.Application{
		ApplicationID: f.nextID,
		JobID:         jobID,
		UserID:        userID,
		ResumeID:      resumeID,
		Status:        smartrecruit.StatusApplied,
	}, nil
}

func (f *fakeBackend) WithdrawApplication(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdrawCalls++
	return f.withdrawErr
}

func (f *fakeBackend) ListApplications(context.Context, int) ([]smartrecruit.Application, error) {
	return f.applications, nil
}

func (f *fakeBackend) GetJob(_ context.Context, jobID int) (*smartrecruit.Job, error) {
	if err := f.jobErr[jobID]; err != nil {
		return nil, err
	}
	return f.jobs[jobID], nil
}

func activeJob(id int) smartrecruit.JobMatch {
	return smartrecruit.JobMatch{JobID: id, Title: "Engineer", JobStatus: smartrecruit.JobActive}
}

func TestApplyTwiceMakesOneRequest(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{nextID: "a100"}
	apps := NewApplications(backend, session.NewMemoryStore(), nil)

	record, err := apps.Apply(ctx, activeJob(42), 7, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a100", record.ApplicationID)

	_, err = apps.Apply(ctx, activeJob(42), 7, "r1")
	var already *smartrecruit.AlreadyAppliedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, 1, backend.applyCalls)

	records, err := apps.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestApplyOtherResumeIsSeparateKey(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{nextID: "a1"}
	apps := NewApplications(backend, nil, nil)

	_, err := apps.Apply(ctx, activeJob(42), 7, "r1")
	require.NoError(t, err)
	_, err = apps.Apply(ctx, activeJob(42), 7, "r2")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.applyCalls)
}

func TestApplyValidatesWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	apps := NewApplications(backend, nil, nil)

	closed := activeJob(1)
	closed.JobStatus = smartrecruit.JobClosed

	for name, tc := range map[string]struct {
		job    smartrecruit.JobMatch
		resume string
	}{
		"empty resume": {job: activeJob(1), resume: ""},
		"closed job":   {job: closed, resume: "r1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := apps.Apply(ctx, tc.job, 7, tc.resume)
			var validation *smartrecruit.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
	assert.Zero(t, backend.applyCalls)
}

func TestApplyFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	rejection := &smartrecruit.BackendError{Status: http.StatusBadRequest, Detail: "Job is closed"}
	backend := &fakeBackend{applyErr: rejection}
	apps := NewApplications(backend, nil, nil)

	_, err := apps.Apply(ctx, activeJob(42), 7, "r1")
	require.ErrorIs(t, err, rejection)
	assert.Equal(t, "Job is closed", smartrecruit.Message(err))

	applied, err := apps.IsApplied(ctx, 42, "r1")
	require.NoError(t, err)
	assert.False(t, applied)

	backend.applyErr = nil
	_, err = apps.Apply(ctx, activeJob(42), 7, "r1")
	require.NoError(t, err)
}

func TestConcurrentApplyShortCircuitsWhilePending(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{nextID: "a1", release: make(chan struct{}), entered: make(chan struct{}, 1)}
	apps := NewApplications(backend, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := apps.Apply(ctx, activeJob(42), 7, "r1")
		done <- err
	}()
	<-backend.entered

	applied, err := apps.IsApplied(ctx, 42, "r1")
	require.NoError(t, err)
	assert.True(t, applied, "pending apply counts as applied")

	_, err = apps.Apply(ctx, activeJob(42), 7, "r1")
	var already *smartrecruit.AlreadyAppliedError
	require.ErrorAs(t, err, &already)

	close(backend.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.applyCalls)
}

func TestApplyWithdrawReenablesApply(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{nextID: "a100"}
	apps := NewApplications(backend, nil, nil)

	view := results.New(apps, nil)
	view.Replace([]smartrecruit.JobMatch{activeJob(42)}, "r1")

	_, err := apps.Apply(ctx, activeJob(42), 7, "r1")
	require.NoError(t, err)
	assert.False(t, view.Actions(ctx, activeJob(42)).Apply)

	intent, err := apps.RequestWithdraw(ctx, "a100")
	require.NoError(t, err)
	assert.Zero(t, backend.withdrawCalls, "request alone must not withdraw")

	require.NoError(t, apps.ConfirmWithdraw(ctx, intent))
	assert.True(t, view.Actions(ctx, activeJob(42)).Apply)

	err = apps.ConfirmWithdraw(ctx, intent)
	require.ErrorIs(t, err, ErrUnknownIntent)

	_, err = apps.RequestWithdraw(ctx, "a100")
	var withdrawn *smartrecruit.AlreadyWithdrawnError
	require.ErrorAs(t, err, &withdrawn)
	assert.Equal(t, 1, backend.withdrawCalls)
}

func TestWithdrawRemovesOnlyMatchingRecord(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Add(ctx, session.Record{JobID: 1, ResumeID: "r1", ApplicationID: "a1"}))
	require.NoError(t, store.Add(ctx, session.Record{JobID: 2, ResumeID: "r1", ApplicationID: "a2"}))

	apps := NewApplications(&fakeBackend{}, store, nil)
	intent, err := apps.RequestWithdraw(ctx, "a1")
	require.NoError(t, err)
	require.NoError(t, apps.ConfirmWithdraw(ctx, intent))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a2", records[0].ApplicationID)
}

func TestWithdrawCancelAndFailure(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Add(ctx, session.Record{JobID: 1, ResumeID: "r1", ApplicationID: "a1"}))

	backend := &fakeBackend{withdrawErr: &smartrecruit.TransportError{Err: errors.New("connection refused")}}
	apps := NewApplications(backend, store, nil)

	intent, err := apps.RequestWithdraw(ctx, "a1")
	require.NoError(t, err)
	apps.CancelWithdraw(intent)
	require.ErrorIs(t, apps.ConfirmWithdraw(ctx, intent), ErrUnknownIntent)
	assert.Zero(t, backend.withdrawCalls)

	intent, err = apps.RequestWithdraw(ctx, "a1")
	require.NoError(t, err)
	var transport *smartrecruit.TransportError
	require.ErrorAs(t, apps.ConfirmWithdraw(ctx, intent), &transport)

	_, err = store.Get(ctx, session.Key{JobID: 1, ResumeID: "r1"})
	require.NoError(t, err, "failed withdraw keeps the record")

	backend.withdrawErr = nil
	intent, err = apps.RequestWithdraw(ctx, "a1")
	require.NoError(t, err, "a failed withdraw can be retried")
	require.NoError(t, apps.ConfirmWithdraw(ctx, intent))
}

func TestSyncFollowsBackend(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Add(ctx, session.Record{JobID: 1, ResumeID: "r1", ApplicationID: "a1", Status: "applied"}))
	require.NoError(t, store.Add(ctx, session.Record{JobID: 2, ResumeID: "r1", ApplicationID: "gone", Status: "applied"}))

	backend := &fakeBackend{applications: []smartrecruit.Application{
		{ApplicationID: "a1", JobID: 1, ResumeID: "r1", Status: smartrecruit.StatusShortlisted},
		{ApplicationID: "a3", JobID: 3, ResumeID: "r2", Status: smartrecruit.StatusApplied},
	}}
	apps := NewApplications(backend, store, nil)

	result, err := apps.Sync(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Added: 1, Updated: 1, Removed: 1}, result)

	record, err := store.Get(ctx, session.Key{JobID: 1, ResumeID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "shortlisted", record.Status)

	_, err = store.Get(ctx, session.Key{JobID: 2, ResumeID: "r1"})
	require.ErrorIs(t, err, session.ErrNotFound)
}

// staleStore misses every lookup, as if another process wrote the row after Get.
type staleStore struct {
	session.Store
}

func (staleStore) Get(context.Context, session.Key) (session.Record, error) {
	return session.Record{}, session.ErrNotFound
}

func TestSyncDoesNotCountDuplicates(t *testing.T) {
	ctx := context.Background()
	inner := session.NewMemoryStore()
	require.NoError(t, inner.Add(ctx, session.Record{JobID: 1, ResumeID: "r1", ApplicationID: "a1", Status: "applied"}))

	backend := &fakeBackend{applications: []smartrecruit.Application{
		{ApplicationID: "a1", JobID: 1, ResumeID: "r1", Status: smartrecruit.StatusApplied},
		{ApplicationID: "a2", JobID: 2, ResumeID: "r1", Status: smartrecruit.StatusApplied},
	}}
	apps := NewApplications(backend, staleStore{Store: inner}, nil)

	result, err := apps.Sync(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Added: 1}, result)
}

func TestListDegradesFailedJoin(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	backend := &fakeBackend{
		applications: []smartrecruit.Application{
			{ApplicationID: "a1", JobID: 1},
			{ApplicationID: "a2", JobID: 2},
		},
		jobs:   map[int]*smartrecruit.Job{1: {ID: 1, Title: "Backend Engineer", Company: "Acme"}},
		jobErr: map[int]error{2: &smartrecruit.BackendError{Status: http.StatusNotFound, Detail: "Job not found"}},
	}
	apps := NewApplications(backend, nil, zap.New(core))

	views, err := apps.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Backend Engineer", views[0].JobTitle)
	assert.Equal(t, "Acme", views[0].CompanyName)
	assert.Equal(t, "Job #2", views[1].JobTitle)
	assert.Equal(t, 1, logs.FilterMessage("could not load job details").Len())
}

func TestResetForgetsIntents(t *testing.T) {
	ctx := context.Background()
	apps := NewApplications(&fakeBackend{}, nil, nil)

	intent, err := apps.RequestWithdraw(ctx, "a1")
	require.NoError(t, err)
	apps.Reset(ctx)
	require.ErrorIs(t, apps.ConfirmWithdraw(ctx, intent), ErrUnknownIntent)
}

type fakeResumes struct {
	items     []*smartrecruit.Resume
	listCalls int
	deleteErr error
}

func (f *fakeResumes) ListResumes(context.Context, int) (*smartrecruit.Resumes, error) {
	f.listCalls++
	return &smartrecruit.Resumes{Items: append([]*smartrecruit.Resume{}, f.items...)}, nil
}

func (f *fakeResumes) UploadResume(_ context.Context, _ int, filename string, content io.Reader) (*smartrecruit.UploadResult, error) {
	if _, err := io.ReadAll(content); err != nil {
		return nil, err
	}
	f.items = append(f.items, &smartrecruit.Resume{ID: "r" + filename, Filename: filename, UploadedAt: time.Now()})
	return &smartrecruit.UploadResult{ResumeID: "r" + filename, Skills: smartrecruit.NewSkillSet("Go")}, nil
}

func (f *fakeResumes) DeleteResume(_ context.Context, resumeID string, _ int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, item := range f.items {
		if item.ID == resumeID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func TestResumeUploadAndTwoPhaseDelete(t *testing.T) {
	ctx := context.Background()
	backend := &fakeResumes{}
	manager := NewResumeManager(backend, nil)

	result, resumes, err := manager.Upload(ctx, 7, "cv.pdf", bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "rcv.pdf", result.ResumeID)
	assert.Equal(t, 1, resumes.Len())

	intent, err := manager.RequestDelete("rcv.pdf")
	require.NoError(t, err)
	assert.Len(t, backend.items, 1, "request alone must not delete")

	backend.deleteErr = &smartrecruit.BackendError{Status: http.StatusInternalServerError}
	_, err = manager.ConfirmDelete(ctx, 7, intent)
	require.Error(t, err)
	assert.Len(t, backend.items, 1)

	backend.deleteErr = nil
	intent, err = manager.RequestDelete("rcv.pdf")
	require.NoError(t, err)
	resumes, err = manager.ConfirmDelete(ctx, 7, intent)
	require.NoError(t, err)
	assert.Zero(t, resumes.Len())
	assert.Equal(t, 2, backend.listCalls, "list is refetched after each change")
}
