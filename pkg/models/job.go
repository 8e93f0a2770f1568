package models

import (
	"time"

	"github.com/google/uuid"
)

// Job status values. Status is derived from item quantities on every read
// and is never stored, so quantities and status cannot drift apart.
const (
	JobStatusActive    = "active"
	JobStatusCompleted = "completed"
)

// Item is one line within a job: a SKU name, the quantity the job was
// created with, and the quantity still left to pick.
type Item struct {
	Name       string `db:"name"        json:"name"`
	TargetQty  int    `db:"target_qty"  json:"target_qty"`
	CurrentQty int    `db:"current_qty" json:"current_qty"`
}

// Job is a named pick list. Items keep their creation order; item names are
// unique within a job. All quantity mutations go through the repository's
// per-job lock.
type Job struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Items     []Item    `db:"-"          json:"items"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Status derives the job status from its items' quantities at read time.
// A job with at least one unit left to pick is active; a job with every
// item at zero (including a job with no items) is completed.
func (j Job) Status() string {
	for _, it := range j.Items {
		if it.CurrentQty > 0 {
			return JobStatusActive
		}
	}
	return JobStatusCompleted
}

// Item returns a pointer to the item with the given exact name, or nil.
func (j *Job) Item(name string) *Item {
	for i := range j.Items {
		if j.Items[i].Name == name {
			return &j.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the job. Snapshots handed out to readers are
// always clones so callers can never mutate repository state.
func (j Job) Clone() Job {
	c := j
	c.Items = make([]Item, len(j.Items))
	copy(c.Items, j.Items)
	return c
}
