package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the durable persistence interface behind the job repository. The
// repository serializes writes per job, so implementations never see two
// concurrent UpdateJob calls for the same job.
type Store interface {
	Ping(ctx context.Context) error

	// ListJobs returns all jobs with their items, in creation order.
	ListJobs(ctx context.Context) ([]models.Job, error)

	// CreateJob inserts a job and its items. Returns ErrDuplicateKey when
	// the job name is already taken.
	CreateJob(ctx context.Context, job models.Job) error

	// UpdateJob writes the job's current item quantities and appends the
	// given scan records in a single transaction.
	UpdateJob(ctx context.Context, job models.Job, scans []models.ScanRecord) error

	// DeleteJob removes a job, its items, and its scan log.
	DeleteJob(ctx context.Context, id uuid.UUID) error

	// ListScans returns up to limit scan records for a job, newest first.
	ListScans(ctx context.Context, jobID uuid.UUID, limit int) ([]models.ScanRecord, error)
}
