package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/cache"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/sortly"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

const (
	// cursorOverlap rewinds the updated_since cursor so items whose update
	// raced the previous fetch are not missed. The min-merge makes replayed
	// reports harmless.
	cursorOverlap = 10 * time.Minute

	// initialLookback bounds the first fetch when no cursor exists yet.
	initialLookback = 24 * time.Hour
)

// Runner drives periodic reconciliation against Sortly. Every cycle it
// fetches recently updated items first, then applies the already-computed
// quantities job by job, so no job lock is ever held across the network
// call. A failed cycle is logged and recorded, then retried on the next
// tick; scanning is never blocked by sync.
type Runner struct {
	client            sortly.Client
	repo              picklist.Repository
	rec               *Reconciler
	cache             cache.Cache
	interval          time.Duration
	warehouseLocation string
	perPage           int
}

func NewRunner(client sortly.Client, repo picklist.Repository, rec *Reconciler,
	c cache.Cache, interval time.Duration, warehouseLocation string, perPage int) *Runner {
	if perPage <= 0 {
		perPage = 100
	}
	return &Runner{
		client:            client,
		repo:              repo,
		rec:               rec,
		cache:             c,
		interval:          interval,
		warehouseLocation: warehouseLocation,
		perPage:           perPage,
	}
}

// Run executes sync cycles until ctx is cancelled. One cycle runs
// immediately on start.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Runner) runCycle(ctx context.Context) {
	status := r.SyncAll(ctx)
	if err := r.cache.SetSyncStatus(ctx, status); err != nil {
		slog.Warn("record sync status failed", "error", err)
	}
	if !status.Success {
		slog.Warn("sortly sync cycle skipped", "error", status.Error)
		return
	}
	slog.Info("sortly sync cycle complete",
		"jobs_reconciled", status.JobsReconciled,
		"items_adjusted", status.ItemsAdjusted,
	)
}

// SyncAll fetches Sortly items updated since the stored cursor and
// reconciles every job against the reported warehouse quantities.
func (r *Runner) SyncAll(ctx context.Context) cache.SyncStatus {
	now := time.Now().UTC()
	status := cache.SyncStatus{LastRun: now}

	cursor, ok, err := r.cache.GetSyncCursor(ctx)
	if err != nil || !ok {
		cursor = now.Add(-initialLookback)
	} else {
		cursor = cursor.Add(-cursorOverlap)
	}

	items, err := r.client.ListItems(ctx, sortly.ListItemsRequest{
		UpdatedSince: cursor,
		PerPage:      r.perPage,
	})
	if err != nil {
		status.Error = err.Error()
		return status
	}

	external := r.externalQuantities(items)
	status.JobsReconciled, status.ItemsAdjusted = r.reconcileAll(ctx, external)
	status.Success = true

	if err := r.cache.SetSyncCursor(ctx, now); err != nil {
		slog.Warn("store sync cursor failed", "error", err)
	}
	return status
}

// TriggerJob reconciles a single job against a fresh full Sortly listing.
// Used by the manual sync endpoint.
func (r *Runner) TriggerJob(ctx context.Context, jobRef string) (models.Job, error) {
	job, err := r.repo.Resolve(ctx, jobRef)
	if err != nil {
		return models.Job{}, err
	}

	items, err := r.client.ListItems(ctx, sortly.ListItemsRequest{PerPage: r.perPage})
	if err != nil {
		return models.Job{}, err
	}

	return r.rec.Reconcile(ctx, job.ID, r.externalQuantities(items))
}

// Status returns the recorded outcome of the last sync cycle.
func (r *Runner) Status(ctx context.Context) (cache.SyncStatus, bool, error) {
	return r.cache.GetSyncStatus(ctx)
}

// ApplyMovement forwards a webhook-reported stock movement to the
// reconciler.
func (r *Runner) ApplyMovement(ctx context.Context, itemName string, qty int) (MovementResult, error) {
	return r.rec.ApplyMovement(ctx, itemName, qty)
}

// externalQuantities folds a Sortly listing into remaining quantities per
// normalized item name. Folders are skipped; only stock sitting in the
// warehouse counts as remaining. The same SKU in several warehouse folders
// sums up.
func (r *Runner) externalQuantities(items []sortly.Item) map[string]int {
	external := make(map[string]int)
	for _, it := range items {
		if it.IsFolder() {
			continue
		}
		if it.LocationName() != r.warehouseLocation {
			continue
		}
		external[picklist.Normalize(it.Name)] += it.Quantity
	}
	return external
}

func (r *Runner) reconcileAll(ctx context.Context, external map[string]int) (jobs, adjusted int) {
	for _, job := range r.repo.List(ctx) {
		before := job
		after, err := r.rec.Reconcile(ctx, job.ID, external)
		if err != nil {
			// A job deleted mid-cycle or a storage failure affects only
			// this job; the cycle carries on.
			slog.Warn("reconcile job failed", "job", job.Name, "error", err)
			continue
		}
		jobs++
		for i := range after.Items {
			if before.Items[i].CurrentQty != after.Items[i].CurrentQty {
				adjusted++
			}
		}
	}
	return jobs, adjusted
}
