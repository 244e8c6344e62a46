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
	"math"
	"testing"
)

// pixelSlice is an in-memory PixelSource for tests.
type pixelSlice struct {
	pixels []Pixel
	i      int
}

func (s *pixelSlice) Next() (Pixel, bool) {
	if s.i >= len(s.pixels) {
		return Pixel{}, false
	}
	p := s.pixels[s.i]
	s.i++
	return p, true
}

func TestGridShape(t *testing.T) {
	tests := []struct {
		resolution float64
		rows, cols int
	}{
		{1, 180, 360},
		{0.5, 360, 720},
		{2, 90, 180},
		{5, 36, 72},
		{10, 18, 36},
	}
	for _, test := range tests {
		g, err := NewGridAccumulator(test.resolution)
		if err != nil {
			t.Fatalf("resolution %g: %v", test.resolution, err)
		}
		rows, cols := g.Shape()
		if rows != test.rows || cols != test.cols {
			t.Errorf("resolution %g: shape (%d, %d), want (%d, %d)",
				test.resolution, rows, cols, test.rows, test.cols)
		}
	}
	for _, bad := range []float64{0, -1, 7, 0.33} {
		if _, err := NewGridAccumulator(bad); err == nil {
			t.Errorf("resolution %g: expected error", bad)
		}
	}
}

func TestCellIndex(t *testing.T) {
	g, err := NewGridAccumulator(1)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		lat, lon float64
		row, col int
		ok       bool
	}{
		{89.5, -179.5, 0, 0, true},
		{79.5, -159.5, 10, 20, true},
		{-89.5, 179.5, 179, 359, true},
		// Boundary values map to defined edge cells, not errors.
		{90, 0, 0, 180, true},
		{-90, 0, 179, 180, true},
		{0, -180, 90, 0, true},
		{0, 180, 90, 359, true},
		{-90, 180, 179, 359, true},
		// Out-of-range coordinates are rejected, never wrapped.
		{95, 0, 0, 0, false},
		{-91, 0, 0, 0, false},
		{0, 181, 0, 0, false},
		{0, -180.5, 0, 0, false},
		{math.NaN(), 0, 0, 0, false},
		{0, math.NaN(), 0, 0, false},
	}
	for _, test := range tests {
		row, col, ok := g.CellIndex(test.lat, test.lon)
		if ok != test.ok {
			t.Errorf("CellIndex(%g, %g): ok = %v, want %v", test.lat, test.lon, ok, test.ok)
			continue
		}
		if !ok {
			continue
		}
		if row != test.row || col != test.col {
			t.Errorf("CellIndex(%g, %g) = (%d, %d), want (%d, %d)",
				test.lat, test.lon, row, col, test.row, test.col)
		}
		rows, cols := g.Shape()
		if row < 0 || row >= rows || col < 0 || col >= cols {
			t.Errorf("CellIndex(%g, %g) = (%d, %d): outside grid bounds", test.lat, test.lon, row, col)
		}
	}
}

func TestAccumulateSkipsInvalidPixels(t *testing.T) {
	g, err := NewGridAccumulator(1)
	if err != nil {
		t.Fatal(err)
	}
	pixels := make([]Pixel, 0, 10)
	for i := 0; i < 9; i++ {
		pixels = append(pixels, Pixel{Lat: 45.5, Lon: 10.5, Contrail: i%2 == 0})
	}
	pixels = append(pixels, Pixel{Lat: 95, Lon: 10.5}) // invalid latitude
	g.Accumulate(&pixelSlice{pixels: pixels})

	if got := countSum(g.Background) + countSum(g.Contrail); got != 9 {
		t.Errorf("accumulated %d pixels, want 9", got)
	}
	if g.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", g.Skipped)
	}
}

func TestAccumulateOrderIndependent(t *testing.T) {
	pixels := []Pixel{
		{Lat: 10.5, Lon: 20.5, Contrail: true},
		{Lat: 10.5, Lon: 20.5},
		{Lat: -33.2, Lon: 151.2},
		{Lat: 51.5, Lon: -0.1, Contrail: true},
		{Lat: 51.5, Lon: -0.1},
	}
	reversed := make([]Pixel, len(pixels))
	for i, p := range pixels {
		reversed[len(pixels)-1-i] = p
	}

	a, _ := NewGridAccumulator(1)
	b, _ := NewGridAccumulator(1)
	a.Accumulate(&pixelSlice{pixels: pixels})
	b.Accumulate(&pixelSlice{pixels: reversed})

	for i := range a.Background.Elements {
		if a.Background.Elements[i] != b.Background.Elements[i] ||
			a.Contrail.Elements[i] != b.Contrail.Elements[i] {
			t.Fatalf("cell %d differs between accumulation orders", i)
		}
	}
}
