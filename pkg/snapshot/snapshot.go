// Package snapshot captures the full observer-facing state of a
// record source at one instant: every recognized type with its wrapped
// records. Snapshots complement the live diff stream — a debugging
// session can be archived and inspected later without the process.
//
// Capture reads through the same strategy hooks the watchers use, but
// inside an untracked region, so taking a snapshot never subscribes to
// anything or perturbs revalidation.
package snapshot

import (
	"context"
	"time"

	"github.com/vigil-dev/vigil"
	"github.com/vigil-dev/vigil/pkg/reactive"
)

// Snapshot is the full wrapped state at one instant.
type Snapshot struct {
	TakenAt time.Time      `json:"takenAt"`
	Types   []TypeSnapshot `json:"types"`
}

// TypeSnapshot is one type with all of its wrapped records.
type TypeSnapshot struct {
	vigil.WrappedType
	Records []vigil.WrappedRecord `json:"records"`
}

// Sink persists snapshots somewhere, returning a reference to the
// stored copy.
type Sink interface {
	Store(ctx context.Context, snap Snapshot) (ref string, err error)
}

// Capture assembles a snapshot of every type the strategy recognizes
// in the catalog. All reads run untracked.
func Capture(source vigil.RecordSource, catalog vigil.TypeCatalog, strategy vigil.Strategy) Snapshot {
	snap := Snapshot{TakenAt: time.Now().UTC()}
	if catalog == nil || strategy == nil {
		return snap
	}

	reactive.Untracked(func() {
		for _, t := range catalog.Types() {
			if !strategy.Detect(t) {
				continue
			}
			name := source.TypeName(t)
			col := strategy.Records(t, name)
			if col == nil {
				col = vigil.EmptyCollection()
			}

			records := col.Records()
			ts := TypeSnapshot{
				WrappedType: vigil.WrappedType{
					Name:    name,
					Count:   len(records),
					Columns: strategy.Columns(t),
					Object:  t,
				},
				Records: make([]vigil.WrappedRecord, 0, len(records)),
			}
			for _, r := range records {
				ts.Records = append(ts.Records, vigil.WrappedRecord{
					Object:         r,
					ColumnValues:   strategy.ColumnValues(r),
					SearchKeywords: strategy.Keywords(r),
					FilterValues:   strategy.FilterValues(r),
					Color:          strategy.Color(r),
				})
			}
			snap.Types = append(snap.Types, ts)
		}
	})
	return snap
}
