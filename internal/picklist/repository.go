package picklist

import (
	"context"

	"github.com/google/uuid"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// MutateFunc transforms a job in place under that job's exclusive lock and
// returns any scan records to append to the job's log. The job value it
// receives is private to the call; the repository commits it (and persists
// it together with the returned records) only when the function returns nil.
type MutateFunc func(job *models.Job) ([]models.ScanRecord, error)

// Repository is the single point of mutation for jobs. Implementations hold
// one exclusive lock per job, so all mutating operations on the same job are
// atomic relative to one another while different jobs never block each other.
type Repository interface {
	// Get returns a snapshot of the job by id, or ErrJobNotFound.
	Get(ctx context.Context, id uuid.UUID) (models.Job, error)

	// Resolve looks a job up by its uuid or, failing that, by its unique
	// name. The id is the canonical key; the name is a secondary lookup.
	Resolve(ctx context.Context, ref string) (models.Job, error)

	// List returns consistent snapshots of all jobs in creation order. Each
	// snapshot is copied under its job's lock, so no job is ever a torn mix
	// of pre- and post-mutation state.
	List(ctx context.Context) []models.Job

	// Create persists and registers a new job. Duplicate names fail with
	// ErrValidation.
	Create(ctx context.Context, job models.Job) (models.Job, error)

	// Delete removes a job and its scan log, or returns ErrJobNotFound.
	Delete(ctx context.Context, ref string) error

	// Mutate runs fn on the job under its lock, persists the outcome, and
	// returns the post-mutation snapshot. A persistence failure surfaces as
	// ErrStorage and leaves the in-memory job unchanged.
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (models.Job, error)

	// Scans returns the most recent scan records for a job, newest first.
	Scans(ctx context.Context, id uuid.UUID, limit int) ([]models.ScanRecord, error)
}
