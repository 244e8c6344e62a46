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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// WGS84 well-known text for the .prj sidecar files.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// CellCenter returns the center coordinate of grid cell (row, col).
func CellCenter(row, col int, resolution float64) (lat, lon float64) {
	lat = 90 - resolution*(float64(row)+0.5)
	lon = -180 + resolution*(float64(col)+0.5)
	return lat, lon
}

// cellPolygon returns the boundary of grid cell (row, col).
func cellPolygon(row, col int, resolution float64) geom.Polygon {
	maxy := 90 - resolution*float64(row)
	miny := maxy - resolution
	minx := -180 + resolution*float64(col)
	maxx := minx + resolution
	return geom.Polygon{[]geom.Point{
		{X: minx, Y: maxy},
		{X: maxx, Y: maxy},
		{X: maxx, Y: miny},
		{X: minx, Y: miny},
		{X: minx, Y: maxy},
	}}
}

// WriteCellCSV writes the full per-cell table: one line per grid cell
// with its indices, center coordinates, counters, and ratio. No-data
// ratio cells are left empty rather than carrying the fill value. A
// comment header carries the day summary.
func WriteCellCSV(path string, r *DayResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("contrailgrid: creating cell export %s: %v", path, err)
	}
	defer f.Close()

	s := r.Summary()
	fmt.Fprintf(f, "# date=%s cells=%d cells_with_data=%d background=%d contrail=%d mean_ratio=%g max_ratio=%g\n",
		r.DateKey, s.Cells, s.CellsWithData, s.Background, s.Contrail, s.MeanRatio, s.MaxRatio)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row", "col", "lat", "lon", "background", "contrail", "ratio"}); err != nil {
		return fmt.Errorf("contrailgrid: writing cell export %s: %v", path, err)
	}
	rows, cols := r.Background.Shape[0], r.Background.Shape[1]
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			lat, lon := CellCenter(row, col, r.Resolution)
			ratio := r.Ratio.Get(row, col)
			ratioStr := ""
			if ratio != RatioNoData {
				ratioStr = strconv.FormatFloat(ratio, 'g', 6, 64)
			}
			rec := []string{
				strconv.Itoa(row),
				strconv.Itoa(col),
				strconv.FormatFloat(lat, 'g', -1, 64),
				strconv.FormatFloat(lon, 'g', -1, 64),
				strconv.Itoa(r.Background.Get(row, col)),
				strconv.Itoa(r.Contrail.Get(row, col)),
				ratioStr,
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("contrailgrid: writing cell export %s: %v", path, err)
			}
		}
	}
	w.Flush()
	return w.Error()
}

// WriteCellShapefile writes cells that received data as polygons with
// their counters and ratio, plus a WGS84 .prj sidecar. Empty cells
// are omitted; the rasters already carry the full grid.
func WriteCellShapefile(path string, r *DayResult) error {
	fields := []goshp.Field{
		goshp.NumberField("row", 10),
		goshp.NumberField("col", 10),
		goshp.FloatField("lat", 14, 6),
		goshp.FloatField("lon", 14, 6),
		goshp.NumberField("background", 12),
		goshp.NumberField("contrail", 12),
		goshp.FloatField("ratio", 14, 8),
	}
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("contrailgrid: creating cell shapefile %s: %v", path, err)
	}
	rows, cols := r.Background.Shape[0], r.Background.Shape[1]
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			ratio := r.Ratio.Get(row, col)
			if ratio == RatioNoData {
				continue
			}
			lat, lon := CellCenter(row, col, r.Resolution)
			err := e.EncodeFields(cellPolygon(row, col, r.Resolution),
				row, col, lat, lon,
				r.Background.Get(row, col), r.Contrail.Get(row, col), ratio)
			if err != nil {
				e.Close()
				return fmt.Errorf("contrailgrid: writing cell shapefile %s: %v", path, err)
			}
		}
	}
	e.Close()

	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	pf, err := os.Create(prj)
	if err != nil {
		return fmt.Errorf("contrailgrid: creating projection file %s: %v", prj, err)
	}
	defer pf.Close()
	if _, err := fmt.Fprint(pf, wgs84WKT); err != nil {
		return fmt.Errorf("contrailgrid: writing projection file %s: %v", prj, err)
	}
	return nil
}
