// Package repo holds the job repository: an in-memory registry of jobs with
// one exclusive lock per job and write-through persistence to the store.
// The per-job lock is the single point of mutation: every scan decrement,
// reconciliation merge, and manual edit for a job runs inside it, so those
// operations are atomic relative to one another while different jobs never
// block each other.
package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/store"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

type entry struct {
	mu      sync.Mutex
	job     models.Job // guarded by mu
	deleted bool       // guarded by mu
}

// Registry implements picklist.Repository.
type Registry struct {
	store store.Store

	// mu guards the maps and order slice only. It is never held across a
	// job mutation or a store call, so registry housekeeping cannot stall
	// behind a slow write.
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*entry
	byName map[string]uuid.UUID // normalized name -> id
	order  []uuid.UUID          // creation order
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{
		store:  s,
		jobs:   make(map[uuid.UUID]*entry),
		byName: make(map[string]uuid.UUID),
	}
}

// Load populates the registry from the store. Called once at startup,
// before the registry is shared.
func (r *Registry) Load(ctx context.Context) error {
	jobs, err := r.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", picklist.ErrStorage, err)
	}
	for _, j := range jobs {
		r.jobs[j.ID] = &entry{job: j}
		r.byName[picklist.Normalize(j.Name)] = j.ID
		r.order = append(r.order, j.ID)
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, id uuid.UUID) (models.Job, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.Job{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return models.Job{}, fmt.Errorf("%w: id %s", picklist.ErrJobNotFound, id)
	}
	return e.job.Clone(), nil
}

// Resolve accepts either the job's uuid or its unique name. The id is
// canonical; the name is a secondary lookup for callers like scan stations
// that were configured with the human label.
func (r *Registry) Resolve(ctx context.Context, ref string) (models.Job, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if job, err := r.Get(ctx, id); err == nil {
			return job, nil
		}
	}

	r.mu.RLock()
	id, ok := r.byName[picklist.Normalize(ref)]
	r.mu.RUnlock()
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %q", picklist.ErrJobNotFound, ref)
	}
	return r.Get(ctx, id)
}

// List returns snapshots of all jobs in creation order. Each job is copied
// under its own lock, held only for the duration of the copy, so a snapshot
// is never a torn mix of pre- and post-mutation state and readers never
// stall writers of other jobs.
func (r *Registry) List(ctx context.Context) []models.Job {
	r.mu.RLock()
	ids := make([]uuid.UUID, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock()

	jobs := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		job, err := r.Get(ctx, id)
		if err != nil {
			continue // deleted between the order snapshot and the copy
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func (r *Registry) Create(ctx context.Context, job models.Job) (models.Job, error) {
	norm := picklist.Normalize(job.Name)

	r.mu.RLock()
	_, taken := r.byName[norm]
	r.mu.RUnlock()
	if taken {
		return models.Job{}, fmt.Errorf("%w: job name %q already exists", picklist.ErrValidation, job.Name)
	}

	// The unique constraint backstops the name check for racing creates.
	if err := r.store.CreateJob(ctx, job); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return models.Job{}, fmt.Errorf("%w: job name %q already exists", picklist.ErrValidation, job.Name)
		}
		return models.Job{}, fmt.Errorf("%w: %v", picklist.ErrStorage, err)
	}

	r.mu.Lock()
	r.jobs[job.ID] = &entry{job: job.Clone()}
	r.byName[norm] = job.ID
	r.order = append(r.order, job.ID)
	r.mu.Unlock()

	return job.Clone(), nil
}

func (r *Registry) Delete(ctx context.Context, ref string) error {
	job, err := r.Resolve(ctx, ref)
	if err != nil {
		return err
	}

	e, err := r.lookup(job.ID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return fmt.Errorf("%w: %q", picklist.ErrJobNotFound, ref)
	}

	if err := r.store.DeleteJob(ctx, job.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", picklist.ErrStorage, err)
	}
	e.deleted = true

	r.mu.Lock()
	delete(r.jobs, job.ID)
	delete(r.byName, picklist.Normalize(e.job.Name))
	for i, id := range r.order {
		if id == job.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	return nil
}

// Mutate applies fn to the job under its exclusive lock. fn works on a
// private copy; the copy is persisted and only then committed to memory, so
// a storage failure leaves the in-memory job exactly as it was and other
// jobs are unaffected.
func (r *Registry) Mutate(ctx context.Context, id uuid.UUID, fn picklist.MutateFunc) (models.Job, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.Job{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return models.Job{}, fmt.Errorf("%w: id %s", picklist.ErrJobNotFound, id)
	}

	working := e.job.Clone()
	scans, err := fn(&working)
	if err != nil {
		return models.Job{}, err
	}
	working.UpdatedAt = time.Now().UTC()

	if err := r.store.UpdateJob(ctx, working, scans); err != nil {
		return models.Job{}, fmt.Errorf("%w: %v", picklist.ErrStorage, err)
	}

	e.job = working
	return working.Clone(), nil
}

func (r *Registry) Scans(ctx context.Context, id uuid.UUID, limit int) ([]models.ScanRecord, error) {
	if _, err := r.lookup(id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	scans, err := r.store.ListScans(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", picklist.ErrStorage, err)
	}
	return scans, nil
}

func (r *Registry) lookup(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	e, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: id %s", picklist.ErrJobNotFound, id)
	}
	return e, nil
}

// Compile-time check that Registry implements the repository contract.
var _ picklist.Repository = (*Registry)(nil)
