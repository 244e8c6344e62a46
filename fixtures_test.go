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
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// writeGeolocationFile writes a synthetic geolocation granule with
// float32 Latitude/Longitude variables of shape len(lats)×len(lats[0]),
// plus any extra float32 variables given (same shape), mimicking the
// ancillary payload of real granules.
func writeGeolocationFile(t *testing.T, path string, lats, lons [][]float64, extras map[string][][]float64) {
	t.Helper()
	rows, cols := len(lats), len(lats[0])
	h := cdf.NewHeader([]string{"along_track", "cross_track"}, []int{rows, cols})
	vars := map[string][][]float64{latVar: lats, lonVar: lons}
	names := []string{latVar, lonVar}
	for name, data := range extras {
		vars[name] = data
		names = append(names, name)
	}
	for _, name := range names {
		h.AddVariable(name, []string{"along_track", "cross_track"}, []float32{0})
	}
	h.AddAttribute(latVar, "units", "degrees_north")
	h.AddAttribute(lonVar, "units", "degrees_east")
	h.AddAttribute("", "source", "synthetic test granule")
	h.Define()
	for _, err := range h.Check() {
		t.Fatal(err)
	}

	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		buf := make([]float32, 0, rows*cols)
		for _, row := range vars[name] {
			for _, v := range row {
				buf = append(buf, float32(v))
			}
		}
		if err := writeVar(f, name, buf); err != nil {
			t.Fatal(err)
		}
	}
}

// countSum totals a counter grid.
func countSum(a *sparse.DenseArrayInt) int {
	var n int
	for _, v := range a.Elements {
		n += v
	}
	return n
}

// writeMaskFile writes a grayscale PNG classification mask.
func writeMaskFile(t *testing.T, path string, gray [][]uint8) {
	t.Helper()
	rows, cols := len(gray), len(gray[0])
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.Pix[y*img.Stride+x] = gray[y][x]
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// uniformGrid returns an r×c slab filled with v.
func uniformGrid(r, c int, v float64) [][]float64 {
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = v
		}
	}
	return out
}
