package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM jobs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Name, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		index[j.ID] = len(jobs)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.pool.Query(ctx,
		`SELECT job_id, name, target_qty, current_qty FROM job_items ORDER BY job_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list job items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var jobID uuid.UUID
		var it models.Item
		if err := itemRows.Scan(&jobID, &it.Name, &it.TargetQty, &it.CurrentQty); err != nil {
			return nil, fmt.Errorf("scan job item: %w", err)
		}
		if i, ok := index[jobID]; ok {
			jobs[i].Items = append(jobs[i].Items, it)
		}
	}
	return jobs, itemRows.Err()
}

func (s *PostgresStore) CreateJob(ctx context.Context, job models.Job) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create job: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO jobs (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		job.ID, job.Name, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}

	for i, it := range job.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO job_items (job_id, name, target_qty, current_qty, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			job.ID, it.Name, it.TargetQty, it.CurrentQty, i)
		if err != nil {
			if isDuplicateKeyError(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("create job item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job models.Job, scans []models.ScanRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update job: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE jobs SET updated_at = $2 WHERE id = $1`, job.ID, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for _, it := range job.Items {
		_, err = tx.Exec(ctx,
			`UPDATE job_items SET current_qty = $3 WHERE job_id = $1 AND name = $2`,
			job.ID, it.Name, it.CurrentQty)
		if err != nil {
			return fmt.Errorf("update job item: %w", err)
		}
	}

	for _, rec := range scans {
		_, err = tx.Exec(ctx,
			`INSERT INTO scans (id, job_id, item_name, scanned_text, location, resulting_qty, scanned_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.JobID, rec.ItemName, rec.ScannedText, rec.Location, rec.ResultingQty, rec.ScannedAt)
		if err != nil {
			return fmt.Errorf("append scan record: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListScans(ctx context.Context, jobID uuid.UUID, limit int) ([]models.ScanRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, item_name, scanned_text, location, resulting_qty, scanned_at
		 FROM scans WHERE job_id = $1 ORDER BY scanned_at DESC, id LIMIT $2`, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	scans := []models.ScanRecord{}
	for rows.Next() {
		var rec models.ScanRecord
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.ItemName, &rec.ScannedText,
			&rec.Location, &rec.ResultingQty, &rec.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		scans = append(scans, rec)
	}
	return scans, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
