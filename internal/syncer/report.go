package syncer

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// CollectionResult holds the merge counts for one collection.
type CollectionResult struct {
	Name     string
	Inserted int
	Updated  int
	Skipped  int
	Purged   int
}

// CollectionError attributes a failure to the collection it occurred in.
type CollectionError struct {
	Collection string
	Err        error
}

func (e CollectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collection, e.Err)
}

func (e CollectionError) Unwrap() error { return e.Err }

// Report is the outcome of one SyncNow run. A failed collection contributes
// zero counts and one entry in Errors; the run itself still completes.
type Report struct {
	PerCollection []CollectionResult
	Errors        []CollectionError
	Timestamp     time.Time
	Duration      time.Duration
}

// Err folds the per-collection errors into a single error value, nil when
// the run was clean.
func (r *Report) Err() error {
	var errs []error
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return multierr.Combine(errs...)
}

// Changed reports whether the run modified local state at all.
func (r *Report) Changed() bool {
	for _, c := range r.PerCollection {
		if c.Inserted > 0 || c.Updated > 0 || c.Purged > 0 {
			return true
		}
	}
	return false
}
