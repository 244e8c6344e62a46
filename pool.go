/*
Copyright © 2024 the ContrailGrid authors.
This file is part of ContrailGrid.

ContrailGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ContrailGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ContrailGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package contrailgrid

import (
	"log"
	"sync"
)

// A GranuleFailure records one granule that could not be processed,
// for reporting after the pool joins.
type GranuleFailure struct {
	Record GranuleRecord
	Err    error
}

type granuleOutcome struct {
	acc *GridAccumulator
	err error
	rec GranuleRecord
}

// RunGranulePool processes a day's granules with up to workers
// concurrent goroutines. Each worker owns a private accumulator per
// granule, so no grid is shared between workers and no locking is
// needed; the per-granule grids are summed later by Merge. A granule
// failure is logged with the granule identity and collected, never
// aborting its siblings. The call returns only after every granule
// has either produced a grid or failed; completion order is
// unconstrained.
func RunGranulePool(records []GranuleRecord, resolution float64, workers int, opts PixelOptions) ([]*GridAccumulator, []GranuleFailure) {
	if len(records) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan GranuleRecord, len(records))
	outcomes := make(chan granuleOutcome, len(records))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				acc, err := processGranule(rec, resolution, opts)
				outcomes <- granuleOutcome{acc: acc, err: err, rec: rec}
			}
		}()
	}
	for _, rec := range records {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	var accs []*GridAccumulator
	var failures []GranuleFailure
	for o := range outcomes {
		if o.err != nil {
			log.Printf("contrailgrid: date=%s granule=%s: %v", o.rec.ID.DateKey, o.rec.ID.Key(), o.err)
			failures = append(failures, GranuleFailure{Record: o.rec, Err: o.err})
			continue
		}
		accs = append(accs, o.acc)
	}
	return accs, failures
}

// processGranule runs one granule end to end: open the pair, then
// accumulate its pixels into a fresh grid.
func processGranule(rec GranuleRecord, resolution float64, opts PixelOptions) (*GridAccumulator, error) {
	src, err := OpenGranule(rec, opts)
	if err != nil {
		return nil, err
	}
	acc, err := NewGridAccumulator(resolution)
	if err != nil {
		return nil, err
	}
	acc.Accumulate(src)
	return acc, nil
}
