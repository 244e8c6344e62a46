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
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/sparse"
)

// DayConfig holds everything one day-level task needs. The enclosing
// scheduler supplies the date (via year + task index), the directory
// roots, and the tuning parameters.
type DayConfig struct {
	DateKey string

	ClassificationDir string
	GeolocationDir    string
	OutputDir         string

	// Resolution is the grid cell edge length in degrees.
	Resolution float64

	// Workers bounds within-day granule parallelism.
	Workers int

	Prebinarized bool
	Threshold    float64

	// RatioOnly suppresses the count rasters; the ratio is computed
	// from the full counts either way.
	RatioOnly bool

	// ExportCells additionally writes the per-cell tabular and
	// vector exports.
	ExportCells bool
}

// A DayResult is the merged outcome of one day's granules, ready for
// serialization.
type DayResult struct {
	DateKey    string
	Resolution float64

	Background *sparse.DenseArrayInt
	Contrail   *sparse.DenseArrayInt
	Ratio      *sparse.DenseArray

	Granules       int // granules merged into the grids
	FailedGranules int // match + processing failures
	SkippedPixels  int
}

// A DaySummary condenses a day result for logging and export headers.
type DaySummary struct {
	Cells         int
	CellsWithData int
	Background    int
	Contrail      int
	MeanRatio     float64 // over cells with data; 0 if none
	MaxRatio      float64
}

// Summary computes summary statistics over the day grid.
func (r *DayResult) Summary() DaySummary {
	s := DaySummary{Cells: len(r.Ratio.Elements)}
	for i, v := range r.Ratio.Elements {
		if v == RatioNoData {
			continue
		}
		s.CellsWithData++
		s.Background += r.Background.Elements[i]
		s.Contrail += r.Contrail.Elements[i]
		s.MeanRatio += v
		if v > s.MaxRatio {
			s.MaxRatio = v
		}
	}
	if s.CellsWithData > 0 {
		s.MeanRatio /= float64(s.CellsWithData)
	}
	return s
}

// ProcessDay runs the full day flow: match granules, fan out over the
// worker pool, merge, derive the ratio, and write every output
// artifact. Output files are written even when nothing matched, so
// downstream consumers always find one raster per day. The returned
// DayResult is valid whenever it is non-nil, including alongside a
// non-nil error: an error means the day is incompletely processed
// (some granule skipped or failed, or an artifact unwritable), which
// the command layer turns into a nonzero exit.
func ProcessDay(cfg DayConfig) (*DayResult, error) {
	m := &Matcher{
		ClassificationDir: cfg.ClassificationDir,
		GeolocationDir:    cfg.GeolocationDir,
	}
	records, unmatched, err := m.MatchDay(cfg.DateKey)
	if err != nil {
		return nil, err
	}
	for _, me := range unmatched {
		log.Printf("contrailgrid: date=%s match: %v", cfg.DateKey, me)
	}
	if len(records) == 0 {
		log.Printf("contrailgrid: date=%s: no granules matched; writing empty grids", cfg.DateKey)
	}

	opts := PixelOptions{Prebinarized: cfg.Prebinarized, Threshold: cfg.Threshold}
	accs, failures := RunGranulePool(records, cfg.Resolution, cfg.Workers, opts)

	merged, err := Merge(cfg.Resolution, accs...)
	if err != nil {
		return nil, err
	}
	result := &DayResult{
		DateKey:        cfg.DateKey,
		Resolution:     cfg.Resolution,
		Background:     merged.Background,
		Contrail:       merged.Contrail,
		Ratio:          Ratio(merged),
		Granules:       len(accs),
		FailedGranules: len(failures) + len(unmatched),
		SkippedPixels:  merged.Skipped,
	}

	s := result.Summary()
	log.Printf("contrailgrid: date=%s granules=%d failed=%d skipped_pixels=%d cells_with_data=%d background=%d contrail=%d mean_ratio=%.4f",
		cfg.DateKey, result.Granules, result.FailedGranules, result.SkippedPixels,
		s.CellsWithData, s.Background, s.Contrail, s.MeanRatio)

	var problems []string
	if err := result.Write(cfg.OutputDir, cfg.RatioOnly, cfg.ExportCells); err != nil {
		problems = append(problems, err.Error())
	}
	if result.FailedGranules > 0 {
		problems = append(problems, fmt.Sprintf("%d of %d granules failed",
			result.FailedGranules, result.FailedGranules+result.Granules))
	}
	if len(problems) > 0 {
		return result, fmt.Errorf("contrailgrid: date %s incompletely processed: %s",
			cfg.DateKey, strings.Join(problems, "; "))
	}
	return result, nil
}

// Write persists the day's rasters (and optional cell exports) under
// outputDir. Each artifact is attempted regardless of failures in its
// siblings; the combined error reports everything that could not be
// written.
func (r *DayResult) Write(outputDir string, ratioOnly, exportCells bool) error {
	type artifact struct {
		name  string
		write func(path string) error
	}
	var artifacts []artifact
	if !ratioOnly {
		artifacts = append(artifacts,
			artifact{
				name:  filepath.Join("background", "background_"+r.DateKey+".nc"),
				write: func(p string) error { return WriteCounts(p, r.Background, r.Resolution, "background", r.DateKey) },
			},
			artifact{
				name:  filepath.Join("contrail", "contrail_"+r.DateKey+".nc"),
				write: func(p string) error { return WriteCounts(p, r.Contrail, r.Resolution, "contrail", r.DateKey) },
			},
		)
	}
	artifacts = append(artifacts, artifact{
		name:  filepath.Join("ratio", "ratio_"+r.DateKey+".nc"),
		write: func(p string) error { return WriteRatio(p, r.Ratio, r.Resolution, r.DateKey) },
	})
	if exportCells {
		artifacts = append(artifacts,
			artifact{
				name:  filepath.Join("cells", "cells_"+r.DateKey+".csv"),
				write: func(p string) error { return WriteCellCSV(p, r) },
			},
			artifact{
				name:  filepath.Join("cells", "cells_"+r.DateKey+".shp"),
				write: func(p string) error { return WriteCellShapefile(p, r) },
			},
		)
	}

	var problems []string
	for _, a := range artifacts {
		path := filepath.Join(outputDir, a.name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", a.name, err))
			continue
		}
		if err := a.write(path); err != nil {
			log.Printf("contrailgrid: date=%s writing %s: %v", r.DateKey, a.name, err)
			problems = append(problems, fmt.Sprintf("%s: %v", a.name, err))
			continue
		}
		log.Printf("contrailgrid: date=%s wrote %s", r.DateKey, path)
	}
	if len(problems) > 0 {
		return fmt.Errorf("writing outputs: %s", strings.Join(problems, "; "))
	}
	return nil
}
