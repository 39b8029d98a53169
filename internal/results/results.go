package results

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// AppliedChecker reports whether the job was applied to (or is being applied to) with
// the resume.
type AppliedChecker interface {
	IsApplied(ctx context.Context, jobID int, resumeID string) (bool, error)
}

// Actions is what the user may do with a job in the current state.
type Actions struct {
	SkillAnalysis bool `json:"skillAnalysis"`
	InterviewPrep bool `json:"interviewPrep"`
	Apply         bool `json:"apply"`
}

// ViewModel holds the last fetched recommendations and the filter and page over them.
// Everything it serves is computed by FilterJobs and Paginate from those inputs.
type ViewModel struct {
	mu       sync.RWMutex
	jobs     []smartrecruit.JobMatch
	resumeID string
	filter   string
	page     int

	applied AppliedChecker
	logger  *zap.Logger
}

func New(applied AppliedChecker, logger *zap.Logger) *ViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewModel{applied: applied, logger: logger, page: 1}
}

// Replace swaps in a new fetch result. Nothing of the previous set survives.
func (v *ViewModel) Replace(jobs []smartrecruit.JobMatch, resumeID string) {
	cp := make([]smartrecruit.JobMatch, len(jobs))
	copy(cp, jobs)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.jobs = cp
	v.resumeID = resumeID
	v.page = 1
}

// Clear forgets the result set and the resume, as after logout.
func (v *ViewModel) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.jobs = nil
	v.resumeID = ""
	v.filter = ""
	v.page = 1
}

func (v *ViewModel) ResumeID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.resumeID
}

// SetFilter changes the filter and goes back to the first page.
func (v *ViewModel) SetFilter(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = q
	v.page = 1
}

func (v *ViewModel) Filter() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// All returns the unfiltered set.
func (v *ViewModel) All() []smartrecruit.JobMatch {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return FilterJobs(v.jobs, "")
}

// Filtered returns the set after the current filter.
func (v *ViewModel) Filtered() []smartrecruit.JobMatch {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return FilterJobs(v.jobs, v.filter)
}

// Page serves page n of the filtered set and makes the clamped n current.
func (v *ViewModel) Page(n, size int) []smartrecruit.JobMatch {
	v.mu.Lock()
	defer v.mu.Unlock()
	items, served := Paginate(FilterJobs(v.jobs, v.filter), n, size)
	v.page = served
	return items
}

// CurrentPage is the number of the page last served.
func (v *ViewModel) CurrentPage() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.page
}

func (v *ViewModel) PageCount(size int) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return PageCount(len(FilterJobs(v.jobs, v.filter)), size)
}

// Find looks a job up in the unfiltered set.
func (v *ViewModel) Find(jobID int) (smartrecruit.JobMatch, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, job := range v.jobs {
		if job.JobID == jobID {
			return job, true
		}
	}
	return smartrecruit.JobMatch{}, false
}

// Actions decides which actions are available for job with the current resume.
// A closed job allows nothing. Apply also requires a resume and that no application
// exists or is in flight; when that cannot be determined apply stays disabled.
func (v *ViewModel) Actions(ctx context.Context, job smartrecruit.JobMatch) Actions {
	if job.Closed() {
		return Actions{}
	}

	actions := Actions{SkillAnalysis: true, InterviewPrep: true}

	resumeID := v.ResumeID()
	if resumeID == "" {
		return actions
	}
	if v.applied == nil {
		actions.Apply = true
		return actions
	}

	applied, err := v.applied.IsApplied(ctx, job.JobID, resumeID)
	if err != nil {
		v.logger.Warn("could not check applied state, disabling apply",
			zap.Int("job_id", job.JobID),
			zap.String("resume_id", resumeID),
			zap.Error(err),
		)
		return actions
	}
	actions.Apply = !applied
	return actions
}
