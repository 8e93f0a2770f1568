package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanRecord is one entry in a job's append-only scan log. Records are
// immutable once appended; ScannedAt is server-assigned and non-decreasing
// within a job. A rescan of an already depleted item still appends a record
// so physical rescans stay auditable.
type ScanRecord struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	JobID        uuid.UUID `db:"job_id"        json:"job_id"`
	ItemName     string    `db:"item_name"     json:"item_name"`
	ScannedText  string    `db:"scanned_text"  json:"scanned_text"`
	Location     string    `db:"location"      json:"location,omitempty"`
	ResultingQty int       `db:"resulting_qty" json:"resulting_qty"`
	ScannedAt    time.Time `db:"scanned_at"    json:"scanned_at"`
}
