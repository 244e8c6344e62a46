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
	"math"

	"github.com/ctessum/sparse"
)

// A Pixel is one swath sample: its geolocation and whether the
// classifier marked it as contrail.
type Pixel struct {
	Lat, Lon float64
	Contrail bool
}

// A PixelSource yields the pixels of one granule, in any order.
// It is finite and consumed at most once.
type PixelSource interface {
	// Next returns the next pixel, or ok == false after the last one.
	Next() (p Pixel, ok bool)
}

// A GridAccumulator owns the background and contrail pixel counters
// for one global equal-angle grid. Counters only ever increase, so
// accumulation is order-independent and per-granule accumulators can
// be summed in any order.
type GridAccumulator struct {
	resolution float64
	rows, cols int

	// Background and Contrail hold the per-cell pixel counts.
	Background *sparse.DenseArrayInt
	Contrail   *sparse.DenseArrayInt

	// Skipped counts pixels whose coordinates were outside
	// [-90,90]×[-180,180] (including NaN) and were not binned.
	Skipped int
}

// NewGridAccumulator creates an empty accumulator for a grid with
// cells of the given edge length in degrees. The resolution must
// divide both 180 and 360 evenly.
func NewGridAccumulator(resolution float64) (*GridAccumulator, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("contrailgrid: grid resolution must be positive, got %g", resolution)
	}
	rows := int(math.Floor(180/resolution + 0.5))
	cols := int(math.Floor(360/resolution + 0.5))
	if math.Abs(float64(rows)*resolution-180) > 1e-9 || math.Abs(float64(cols)*resolution-360) > 1e-9 {
		return nil, fmt.Errorf("contrailgrid: grid resolution %g does not divide 180°×360° evenly", resolution)
	}
	return &GridAccumulator{
		resolution: resolution,
		rows:       rows,
		cols:       cols,
		Background: sparse.ZerosDenseInt(rows, cols),
		Contrail:   sparse.ZerosDenseInt(rows, cols),
	}, nil
}

// Resolution returns the cell edge length in degrees.
func (g *GridAccumulator) Resolution() float64 { return g.resolution }

// Shape returns the number of grid rows and columns.
func (g *GridAccumulator) Shape() (rows, cols int) { return g.rows, g.cols }

// CellIndex maps a coordinate to its grid cell. Row 0 is the
// northernmost band and column 0 starts at -180° longitude; the edge
// values lat = -90 and lon = 180 are clamped into the last row and
// column. ok is false for coordinates outside the valid global range,
// which are never wrapped.
func (g *GridAccumulator) CellIndex(lat, lon float64) (row, col int, ok bool) {
	if !(lat >= -90 && lat <= 90) || !(lon >= -180 && lon <= 180) {
		return 0, 0, false
	}
	row = int(math.Floor((90 - lat) / g.resolution))
	if row >= g.rows {
		row = g.rows - 1
	}
	col = int(math.Floor((lon + 180) / g.resolution))
	if col >= g.cols {
		col = g.cols - 1
	}
	return row, col, true
}

// Add bins a single pixel, incrementing the matching cell's
// background or contrail counter. Out-of-range coordinates are
// recorded in the Skipped statistic.
func (g *GridAccumulator) Add(p Pixel) {
	row, col, ok := g.CellIndex(p.Lat, p.Lon)
	if !ok {
		g.Skipped++
		return
	}
	if p.Contrail {
		g.Contrail.Set(g.Contrail.Get(row, col)+1, row, col)
	} else {
		g.Background.Set(g.Background.Get(row, col)+1, row, col)
	}
}

// Accumulate consumes src, binning every pixel it yields.
func (g *GridAccumulator) Accumulate(src PixelSource) {
	for {
		p, ok := src.Next()
		if !ok {
			return
		}
		g.Add(p)
	}
}
