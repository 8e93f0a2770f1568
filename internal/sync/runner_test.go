package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/cache"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/sortly"
	syncpkg "github.com/EargasmDev/SortlyXEargasmInternalTool/internal/sync"
)

type fakeSortly struct {
	items    []sortly.Item
	err      error
	requests []sortly.ListItemsRequest
}

func (f *fakeSortly) ListItems(_ context.Context, req sortly.ListItemsRequest) ([]sortly.Item, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeSortly) UpdateItemQuantity(_ context.Context, _ int64, _ int) error { return nil }

func (f *fakeSortly) Ping(_ context.Context) error { return nil }

var _ sortly.Client = (*fakeSortly)(nil)

type fakeCache struct {
	status    cache.SyncStatus
	hasStatus bool
	cursor    time.Time
	hasCursor bool
}

func (f *fakeCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (f *fakeCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (f *fakeCache) Delete(_ context.Context, _ string) error                         { return nil }
func (f *fakeCache) Ping(_ context.Context) error                                     { return nil }
func (f *fakeCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

func (f *fakeCache) SetSyncStatus(_ context.Context, status cache.SyncStatus) error {
	f.status, f.hasStatus = status, true
	return nil
}

func (f *fakeCache) GetSyncStatus(_ context.Context) (cache.SyncStatus, bool, error) {
	return f.status, f.hasStatus, nil
}

func (f *fakeCache) SetSyncCursor(_ context.Context, cursor time.Time) error {
	f.cursor, f.hasCursor = cursor, true
	return nil
}

func (f *fakeCache) GetSyncCursor(_ context.Context) (time.Time, bool, error) {
	return f.cursor, f.hasCursor, nil
}

var _ cache.Cache = (*fakeCache)(nil)

func warehouseItem(name string, qty int) sortly.Item {
	return sortly.Item{Name: name, Type: "item", Quantity: qty,
		Parent: &sortly.ItemLocation{Name: "Warehouse"}}
}

func TestSyncAll_ReconcilesWarehouseStock(t *testing.T) {
	r, svc := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	ctx := context.Background()

	job := mustCreate(t, svc, "Tour A",
		picklist.ItemInput{Name: "HF-Blue", TargetQty: 10},
		picklist.ItemInput{Name: "HF-Trans", TargetQty: 8},
	)

	client := &fakeSortly{items: []sortly.Item{
		warehouseItem("hf-blue", 4),
		warehouseItem("HF-Trans", 8),
	}}
	runner := syncpkg.NewRunner(client, r, rec, &fakeCache{}, time.Minute, "Warehouse", 100)

	status := runner.SyncAll(ctx)
	assert.True(t, status.Success)
	assert.Equal(t, 1, status.JobsReconciled)
	assert.Equal(t, 1, status.ItemsAdjusted, "only HF-Blue moved")

	got, err := r.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Item("HF-Blue").CurrentQty)
	assert.Equal(t, 8, got.Item("HF-Trans").CurrentQty)
}

func TestSyncAll_SkipsFoldersAndOtherLocations(t *testing.T) {
	r, svc := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	ctx := context.Background()

	job := mustCreate(t, svc, "Tour A", picklist.ItemInput{Name: "HF-Blue", TargetQty: 10})

	client := &fakeSortly{items: []sortly.Item{
		{Name: "HF-Blue", Type: "folder", Quantity: 1, Parent: &sortly.ItemLocation{Name: "Warehouse"}},
		{Name: "HF-Blue", Type: "item", Quantity: 2, Parent: &sortly.ItemLocation{Name: "Showroom"}},
	}}
	runner := syncpkg.NewRunner(client, r, rec, &fakeCache{}, time.Minute, "Warehouse", 100)

	status := runner.SyncAll(ctx)
	assert.True(t, status.Success)

	got, err := r.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Item("HF-Blue").CurrentQty, "folders and foreign locations never count")
}

func TestSyncAll_SumsSplitStock(t *testing.T) {
	r, svc := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	ctx := context.Background()

	job := mustCreate(t, svc, "Tour A", picklist.ItemInput{Name: "HF-Blue", TargetQty: 10})

	// The same SKU split across two warehouse folders sums to 6.
	client := &fakeSortly{items: []sortly.Item{
		warehouseItem("HF-Blue", 2),
		warehouseItem("HF-Blue", 4),
	}}
	runner := syncpkg.NewRunner(client, r, rec, &fakeCache{}, time.Minute, "Warehouse", 100)

	status := runner.SyncAll(ctx)
	assert.True(t, status.Success)

	got, err := r.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Item("HF-Blue").CurrentQty)
}

func TestSyncAll_CursorHandling(t *testing.T) {
	r, _ := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	client := &fakeSortly{}
	c := &fakeCache{}
	runner := syncpkg.NewRunner(client, r, rec, c, time.Minute, "Warehouse", 25)

	// First cycle: no cursor yet, the fetch looks back a bounded window.
	before := time.Now().UTC()
	status := runner.SyncAll(context.Background())
	require.True(t, status.Success)
	require.Len(t, client.requests, 1)
	assert.Equal(t, 25, client.requests[0].PerPage)
	lookback := before.Sub(client.requests[0].UpdatedSince)
	assert.InDelta(t, (24 * time.Hour).Seconds(), lookback.Seconds(), 5)
	require.True(t, c.hasCursor)

	// Second cycle: the stored cursor is rewound by the overlap.
	status = runner.SyncAll(context.Background())
	require.True(t, status.Success)
	require.Len(t, client.requests, 2)
	overlap := c.cursor.Sub(client.requests[1].UpdatedSince)
	assert.InDelta(t, (10 * time.Minute).Seconds(), overlap.Seconds(), 5)
}

func TestSyncAll_ClientFailureSkipsCycle(t *testing.T) {
	r, svc := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	ctx := context.Background()

	job := mustCreate(t, svc, "Tour A", picklist.ItemInput{Name: "HF-Blue", TargetQty: 10})

	client := &fakeSortly{err: sortly.ErrSortlyUnreachable}
	c := &fakeCache{}
	runner := syncpkg.NewRunner(client, r, rec, c, time.Minute, "Warehouse", 100)

	status := runner.SyncAll(ctx)
	assert.False(t, status.Success)
	assert.NotEmpty(t, status.Error)
	assert.False(t, c.hasCursor, "a failed cycle must not advance the cursor")

	got, err := r.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Item("HF-Blue").CurrentQty)
}

func TestTriggerJob(t *testing.T) {
	r, svc := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	ctx := context.Background()

	mustCreate(t, svc, "Tour A", picklist.ItemInput{Name: "HF-Blue", TargetQty: 10})

	client := &fakeSortly{items: []sortly.Item{warehouseItem("HF-Blue", 3)}}
	runner := syncpkg.NewRunner(client, r, rec, &fakeCache{}, time.Minute, "Warehouse", 100)

	job, err := runner.TriggerJob(ctx, "Tour A")
	require.NoError(t, err)
	assert.Equal(t, 3, job.Item("HF-Blue").CurrentQty)

	// Manual sync always fetches a full listing, not a delta.
	require.Len(t, client.requests, 1)
	assert.True(t, client.requests[0].UpdatedSince.IsZero())
}

func TestTriggerJob_Errors(t *testing.T) {
	r, svc := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	ctx := context.Background()

	client := &fakeSortly{err: sortly.ErrSortlyAPIError}
	runner := syncpkg.NewRunner(client, r, rec, &fakeCache{}, time.Minute, "Warehouse", 100)

	_, err := runner.TriggerJob(ctx, "Tour A")
	assert.ErrorIs(t, err, picklist.ErrJobNotFound)

	mustCreate(t, svc, "Tour A", picklist.ItemInput{Name: "HF-Blue", TargetQty: 10})
	_, err = runner.TriggerJob(ctx, "Tour A")
	assert.ErrorIs(t, err, sortly.ErrSortlyAPIError)
}

func TestStatus(t *testing.T) {
	r, _ := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	c := &fakeCache{}
	runner := syncpkg.NewRunner(&fakeSortly{}, r, rec, c, time.Minute, "Warehouse", 100)

	_, ok, err := runner.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "no cycle has run yet")

	require.NoError(t, c.SetSyncStatus(context.Background(), cache.SyncStatus{Success: true}))
	status, ok, err := runner.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, status.Success)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	r, _ := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	runner := syncpkg.NewRunner(&fakeSortly{}, r, rec, &fakeCache{}, 10*time.Millisecond, "Warehouse", 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestSyncAll_ErrorValue(t *testing.T) {
	r, _ := newRegistry(t)
	rec := syncpkg.NewReconciler(r)
	wrapped := errors.New("dial tcp: connection refused")
	client := &fakeSortly{err: wrapped}
	runner := syncpkg.NewRunner(client, r, rec, &fakeCache{}, time.Minute, "Warehouse", 100)

	status := runner.SyncAll(context.Background())
	assert.False(t, status.Success)
	assert.Equal(t, wrapped.Error(), status.Error)
}
