package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
)

const defaultPingTimeout = 5 * time.Second

var openDB = sql.Open

// PGStore keeps the applied-set in PostgreSQL. Rows are partitioned by user.
type PGStore struct {
	DB *sql.DB

	mu     sync.RWMutex
	userID int
}

func NewPGStore(db *sql.DB, userID int) *PGStore {
	return &PGStore{DB: db, userID: userID}
}

// Scope switches the store to another user's rows.
func (s *PGStore) Scope(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// Unscope detaches the store from its user. Rows stay in the database and every call
// fails with ErrNotAuthenticated until the next Scope.
func (s *PGStore) Unscope() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = 0
}

func (s *PGStore) user() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID <= 0 {
		return 0, ErrNotAuthenticated
	}
	return s.userID, nil
}

// OpenPGStore connects, verifies connectivity and applies migrations.
func OpenPGStore(ctx context.Context, databaseURL string, userID int) (*PGStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return NewPGStore(db, userID), nil
}

func (s *PGStore) Close() error {
	return s.DB.Close()
}

func (s *PGStore) Get(ctx context.Context, k Key) (Record, error) {
	const query = `
SELECT job_id, resume_id, application_id, status, applied_at
FROM applied_jobs
WHERE user_id = $1 AND job_id = $2 AND resume_id = $3`
	userID, err := s.user()
	if err != nil {
		return Record{}, err
	}

	var r Record
	err = s.DB.QueryRowContext(ctx, query, userID, k.JobID, k.ResumeID).Scan(
		&r.JobID,
		&r.ResumeID,
		&r.ApplicationID,
		&r.Status,
		&r.AppliedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	r.AppliedAt = r.AppliedAt.UTC()
	return r, nil
}

func (s *PGStore) Add(ctx context.Context, r Record) error {
	const query = `
INSERT INTO applied_jobs (user_id, job_id, resume_id, application_id, status, applied_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, job_id, resume_id) DO NOTHING`
	userID, err := s.user()
	if err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, query,
		userID,
		r.JobID,
		r.ResumeID,
		r.ApplicationID,
		r.Status,
		r.AppliedAt.UTC(),
	)
	if err != nil {
		return err
	}
	return requireRow(res, ErrDuplicate)
}

func (s *PGStore) Update(ctx context.Context, r Record) error {
	const query = `
UPDATE applied_jobs
SET application_id = $4, status = $5
WHERE user_id = $1 AND job_id = $2 AND resume_id = $3`
	userID, err := s.user()
	if err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, query,
		userID,
		r.JobID,
		r.ResumeID,
		r.ApplicationID,
		r.Status,
	)
	if err != nil {
		return err
	}
	return requireRow(res, ErrNotFound)
}

func (s *PGStore) Remove(ctx context.Context, applicationID string) error {
	if applicationID == "" {
		return ErrNotFound
	}
	const query = `DELETE FROM applied_jobs WHERE user_id = $1 AND application_id = $2`
	userID, err := s.user()
	if err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, query, userID, applicationID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrNotFound)
}

func (s *PGStore) List(ctx context.Context) ([]Record, error) {
	const query = `
SELECT job_id, resume_id, application_id, status, applied_at
FROM applied_jobs
WHERE user_id = $1
ORDER BY applied_at DESC, job_id, resume_id`
	userID, err := s.user()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.JobID, &r.ResumeID, &r.ApplicationID, &r.Status, &r.AppliedAt); err != nil {
			return nil, err
		}
		r.AppliedAt = r.AppliedAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PGStore) Clear(ctx context.Context) error {
	userID, err := s.user()
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `DELETE FROM applied_jobs WHERE user_id = $1`, userID)
	return err
}

// requireRow maps "no row touched" to errNone.
func requireRow(res sql.Result, errNone error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNone
	}
	return nil
}
