package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicate is returned by Add when the (job, resume) pair is already recorded.
	ErrDuplicate = errors.New("application already recorded")
	ErrNotFound  = errors.New("application record not found")
)

// Key identifies an application: one per job and resume pair.
type Key struct {
	JobID    int    `json:"jobId"`
	ResumeID string `json:"resumeId"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.JobID, k.ResumeID)
}

// Record is a locally known application.
type Record struct {
	JobID         int       `json:"jobId"`
	ResumeID      string    `json:"resumeId"`
	ApplicationID string    `json:"applicationId"`
	Status        string    `json:"status"`
	AppliedAt     time.Time `json:"appliedAt"`
}

func (r Record) Key() Key {
	return Key{JobID: r.JobID, ResumeID: r.ResumeID}
}

// Store keeps the applied-set of the current session. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns ErrNotFound when nothing is recorded under k.
	Get(ctx context.Context, k Key) (Record, error)
	// Add never overwrites: an existing key yields ErrDuplicate.
	Add(ctx context.Context, r Record) error
	// Update refreshes status and application id of an existing record.
	Update(ctx context.Context, r Record) error
	// Remove deletes the single record carrying applicationID.
	Remove(ctx context.Context, applicationID string) error
	List(ctx context.Context) ([]Record, error)
	Clear(ctx context.Context) error
}
