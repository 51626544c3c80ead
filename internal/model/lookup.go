package model

import (
	"database/sql"
	"time"
)

// LookupSummary is the persisted digest of one vehicle lookup.
// Only derived figures are kept; the record itself is never stored.
type LookupSummary struct {
	ID             string
	Registration   string
	Make           string
	Model          string
	TestCount      int
	PassRate       sql.NullInt64
	AverageMileage sql.NullFloat64
	Checksum       string
	LookedUpAt     time.Time
}

// LookupStats aggregates the lookup log
type LookupStats struct {
	TotalLookups     int
	DistinctVehicles int
	AveragePassRate  float64
	LastLookupAt     sql.NullTime
}
