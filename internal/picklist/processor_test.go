package picklist_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/repo"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/store"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// memStore backs the registry in tests without a database.
type memStore struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]models.Job
	scans map[uuid.UUID][]models.ScanRecord
}

func newMemStore() *memStore {
	return &memStore{
		jobs:  make(map[uuid.UUID]models.Job),
		scans: make(map[uuid.UUID][]models.ScanRecord),
	}
}

func (s *memStore) Ping(_ context.Context) error { return nil }

func (s *memStore) ListJobs(_ context.Context) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []models.Job
	for _, j := range s.jobs {
		jobs = append(jobs, j.Clone())
	}
	return jobs, nil
}

func (s *memStore) CreateJob(_ context.Context, job models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *memStore) UpdateJob(_ context.Context, job models.Job, scans []models.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return store.ErrNotFound
	}
	s.jobs[job.ID] = job.Clone()
	s.scans[job.ID] = append(s.scans[job.ID], scans...)
	return nil
}

func (s *memStore) DeleteJob(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.jobs, id)
	delete(s.scans, id)
	return nil
}

func (s *memStore) ListScans(_ context.Context, jobID uuid.UUID, limit int) ([]models.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.scans[jobID]
	out := make([]models.ScanRecord, 0, limit)
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

var _ store.Store = (*memStore)(nil)

func newFixture(t *testing.T) (*picklist.Service, *picklist.Processor) {
	t.Helper()
	r := repo.NewRegistry(newMemStore())
	return picklist.NewService(r), picklist.NewProcessor(r)
}

func TestProcess_DecrementsMatchedItem(t *testing.T) {
	svc, proc := newFixture(t)
	ctx := context.Background()

	job, err := svc.Create(ctx, "Tour A", []picklist.ItemInput{
		{Name: "HF-Blue", TargetQty: 10},
		{Name: "HF-Trans", TargetQty: 8},
	})
	require.NoError(t, err)

	out, err := proc.Process(ctx, job.ID.String(), "hf-blue", "Dock 3")
	require.NoError(t, err)
	assert.Equal(t, job.ID, out.JobID)
	assert.Equal(t, "Tour A", out.JobName)
	assert.Equal(t, "HF-Blue", out.ItemName, "outcome carries the stored name, not the scanned text")
	assert.Equal(t, 9, out.NewQty)
	assert.Equal(t, models.JobStatusActive, out.JobStatus)

	got, err := svc.Get(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 9, got.Item("HF-Blue").CurrentQty)
	assert.Equal(t, 8, got.Item("HF-Trans").CurrentQty, "only the matched item changes")
}

func TestProcess_ByJobName(t *testing.T) {
	svc, proc := newFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Tour A", []picklist.ItemInput{{Name: "HF-Blue", TargetQty: 2}})
	require.NoError(t, err)

	out, err := proc.Process(ctx, "tour a", "HF-Blue", "")
	require.NoError(t, err)
	assert.Equal(t, 1, out.NewQty)
}

func TestProcess_DepletedRescanIsIdempotent(t *testing.T) {
	svc, proc := newFixture(t)
	ctx := context.Background()

	job, err := svc.Create(ctx, "Tour A", []picklist.ItemInput{{Name: "HF-Blue", TargetQty: 1}})
	require.NoError(t, err)

	out, err := proc.Process(ctx, job.ID.String(), "HF-Blue", "")
	require.NoError(t, err)
	assert.Equal(t, 0, out.NewQty)

	// Rescans of a depleted item succeed at zero and still leave a record.
	for i := 0; i < 3; i++ {
		out, err = proc.Process(ctx, job.ID.String(), "HF-Blue", "")
		require.NoError(t, err)
		assert.Equal(t, 0, out.NewQty)
		assert.Equal(t, models.JobStatusCompleted, out.JobStatus)
	}

	scans, err := svc.Scans(ctx, job.ID.String(), 0)
	require.NoError(t, err)
	assert.Len(t, scans, 4)
	assert.Equal(t, 0, scans[0].ResultingQty)
}

func TestProcess_UnknownItem(t *testing.T) {
	svc, proc := newFixture(t)
	ctx := context.Background()

	job, err := svc.Create(ctx, "Tour A", []picklist.ItemInput{{Name: "HF-Blue", TargetQty: 5}})
	require.NoError(t, err)

	_, err = proc.Process(ctx, job.ID.String(), "HF-Blue-123456", "")
	require.ErrorIs(t, err, picklist.ErrItemNotFound, "suffixed barcodes are not partial matches")
	assert.Contains(t, err.Error(), "HF-Blue-123456")

	got, err := svc.Get(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 5, got.Item("HF-Blue").CurrentQty, "a failed scan changes nothing")

	scans, err := svc.Scans(ctx, job.ID.String(), 0)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestProcess_EmptyScanText(t *testing.T) {
	svc, proc := newFixture(t)
	ctx := context.Background()

	job, err := svc.Create(ctx, "Tour A", []picklist.ItemInput{{Name: "HF-Blue", TargetQty: 5}})
	require.NoError(t, err)

	_, err = proc.Process(ctx, job.ID.String(), "", "")
	assert.ErrorIs(t, err, picklist.ErrValidation)
}

func TestProcess_UnknownJob(t *testing.T) {
	_, proc := newFixture(t)

	_, err := proc.Process(context.Background(), uuid.NewString(), "HF-Blue", "")
	assert.ErrorIs(t, err, picklist.ErrJobNotFound)
}

func TestProcess_CompletesJob(t *testing.T) {
	svc, proc := newFixture(t)
	ctx := context.Background()

	job, err := svc.Create(ctx, "Tour A", []picklist.ItemInput{
		{Name: "HF-Blue", TargetQty: 10},
		{Name: "HF-Trans", TargetQty: 8},
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		out, err := proc.Process(ctx, job.ID.String(), "HF-Blue", "")
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusActive, out.JobStatus, "job stays active while any item has stock")
	}

	var last picklist.ScanOutcome
	for i := 0; i < 8; i++ {
		last, err = proc.Process(ctx, job.ID.String(), "HF-Trans", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, last.NewQty)
	assert.Equal(t, models.JobStatusCompleted, last.JobStatus)

	got, err := svc.Get(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status())
}

func TestProcess_ConcurrentScansNoLostUpdates(t *testing.T) {
	const k = 40

	svc, proc := newFixture(t)
	ctx := context.Background()

	job, err := svc.Create(ctx, "Tour A", []picklist.ItemInput{{Name: "HF-Blue", TargetQty: k}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := proc.Process(ctx, job.ID.String(), "HF-Blue", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Item("HF-Blue").CurrentQty)

	scans, err := svc.Scans(ctx, job.ID.String(), 100)
	require.NoError(t, err)
	assert.Len(t, scans, k, "every scan leaves exactly one record")
}
