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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Raster output is CF-style NetCDF: one single-band variable on
// (lat, lon) dimensions with coordinate variables holding cell
// centers. Row 0 is the northernmost band, column 0 begins at -180°
// longitude, and the global bounding box is fixed at
// (-180,-90)–(180,90). The six-element geo_transform attribute uses
// the usual (origin x, dx, 0, origin y, 0, -dy) layout.

// WriteCounts serializes a counter grid to path. name labels the data
// variable ("background" or "contrail").
func WriteCounts(path string, counts *sparse.DenseArrayInt, resolution float64, name, dateKey string) error {
	rows, cols := counts.Shape[0], counts.Shape[1]
	h := newRasterHeader(rows, cols, resolution, dateKey, name, []int32{0})
	h.AddAttribute(name, "units", "pixel count")
	h.AddAttribute(name, "description",
		fmt.Sprintf("number of %s-classified swath pixels binned into each grid cell", name))
	h.Define()

	data := make([]int32, len(counts.Elements))
	for i, v := range counts.Elements {
		data[i] = int32(v)
	}
	return writeRasterFile(path, h, resolution, rows, cols, name, data)
}

// WriteRatio serializes a ratio grid to path, marking no-data cells
// with the RatioNoData fill value.
func WriteRatio(path string, ratio *sparse.DenseArray, resolution float64, dateKey string) error {
	rows, cols := ratio.Shape[0], ratio.Shape[1]
	h := newRasterHeader(rows, cols, resolution, dateKey, "ratio", []float32{0})
	h.AddAttribute("ratio", "units", "1")
	h.AddAttribute("ratio", "description",
		"contrail pixel count divided by total classified pixel count per grid cell")
	h.AddAttribute("ratio", "_FillValue", []float32{RatioNoData})
	h.Define()

	data := make([]float32, len(ratio.Elements))
	for i, v := range ratio.Elements {
		data[i] = float32(v)
	}
	return writeRasterFile(path, h, resolution, rows, cols, "ratio", data)
}

// newRasterHeader builds the common raster file skeleton: dimensions,
// coordinate variables, the data variable, and global georeferencing
// attributes. The caller adds variable attributes and calls Define.
func newRasterHeader(rows, cols int, resolution float64, dateKey, name string, zero interface{}) *cdf.Header {
	h := cdf.NewHeader([]string{"lat", "lon"}, []int{rows, cols})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddAttribute("lat", "description", "grid cell center latitude")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddAttribute("lon", "description", "grid cell center longitude")
	h.AddVariable(name, []string{"lat", "lon"}, zero)

	h.AddAttribute("", "Conventions", "CF-1.6")
	h.AddAttribute("", "title", "ContrailGrid daily contrail grid")
	h.AddAttribute("", "crs", "EPSG:4326")
	h.AddAttribute("", "geo_transform", []float64{-180, resolution, 0, 90, 0, -resolution})
	h.AddAttribute("", "date", dateKey)
	return h
}

// writeRasterFile checks the header, creates the file, and writes the
// coordinate variables plus the data variable.
func writeRasterFile(path string, h *cdf.Header, resolution float64, rows, cols int, name string, data interface{}) error {
	for _, err := range h.Check() {
		return fmt.Errorf("contrailgrid: building raster %s: %v", path, err)
	}
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("contrailgrid: creating raster %s: %v", path, err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("contrailgrid: creating raster %s: %v", path, err)
	}

	lats := make([]float64, rows)
	for i := range lats {
		lats[i] = 90 - resolution*(float64(i)+0.5)
	}
	lons := make([]float64, cols)
	for j := range lons {
		lons[j] = -180 + resolution*(float64(j)+0.5)
	}
	for _, v := range []struct {
		name string
		data interface{}
	}{{"lat", lats}, {"lon", lons}, {name, data}} {
		if err := writeVar(f, v.name, v.data); err != nil {
			return fmt.Errorf("contrailgrid: writing %s to raster %s: %v", v.name, path, err)
		}
	}
	return nil
}

// ReadRatioRaster reads back the ratio variable of a raster written
// by WriteRatio, keeping RatioNoData cells as-is.
func ReadRatioRaster(path string) (*sparse.DenseArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: opening raster %s: %v", path, err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: opening raster %s: %v", path, err)
	}
	data, err := readCoordVar(ff, "ratio")
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: raster %s: %v", path, err)
	}
	return data, nil
}

// ReadCountRaster reads back a counter variable of a raster written
// by WriteCounts.
func ReadCountRaster(path, name string) (*sparse.DenseArrayInt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: opening raster %s: %v", path, err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: opening raster %s: %v", path, err)
	}
	dims := ff.Header.Lengths(name)
	if len(dims) != 2 {
		return nil, fmt.Errorf("contrailgrid: raster %s: variable %s has %d dimensions, expected 2",
			path, name, len(dims))
	}
	buf, err := readVar(ff, name)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: raster %s: reading %s: %v", path, name, err)
	}
	vals, ok := buf.([]int32)
	if !ok {
		return nil, fmt.Errorf("contrailgrid: raster %s: variable %s has unsupported type %T", path, name, buf)
	}
	data := sparse.ZerosDenseInt(dims...)
	for i, v := range vals {
		data.Elements[i] = int(v)
	}
	return data, nil
}
