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

	"github.com/ctessum/sparse"
)

// RatioNoData marks ratio cells where no pixel of either class was
// binned. Zero is a valid ratio, so absence of data needs a value of
// its own.
const RatioNoData = -9999.0

// Merge elementwise-sums the counters of per-granule accumulators
// into a single day-level accumulator. Summation is associative and
// commutative, so the result does not depend on granule processing
// order. All accumulators must share the given resolution; merging
// none yields an empty grid.
func Merge(resolution float64, accs ...*GridAccumulator) (*GridAccumulator, error) {
	out, err := NewGridAccumulator(resolution)
	if err != nil {
		return nil, err
	}
	for _, a := range accs {
		if a.rows != out.rows || a.cols != out.cols {
			return nil, fmt.Errorf("contrailgrid: merging grids of unequal shape: (%d,%d) != (%d,%d)",
				a.rows, a.cols, out.rows, out.cols)
		}
		for i, v := range a.Background.Elements {
			out.Background.Elements[i] += v
		}
		for i, v := range a.Contrail.Elements {
			out.Contrail.Elements[i] += v
		}
		out.Skipped += a.Skipped
	}
	return out, nil
}

// Ratio derives the per-cell contrail fraction
// contrail/(background+contrail), with RatioNoData where no pixels
// were binned.
func Ratio(g *GridAccumulator) *sparse.DenseArray {
	r := sparse.ZerosDense(g.rows, g.cols)
	for i := range r.Elements {
		total := g.Background.Elements[i] + g.Contrail.Elements[i]
		if total == 0 {
			r.Elements[i] = RatioNoData
			continue
		}
		r.Elements[i] = float64(g.Contrail.Elements[i]) / float64(total)
	}
	return r
}
