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
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Names of the coordinate variables in geolocation granule files.
const (
	latVar = "Latitude"
	lonVar = "Longitude"
)

// PixelOptions control how classification images are interpreted.
type PixelOptions struct {
	// Prebinarized marks masks already reduced to two values
	// upstream: any nonzero gray level is contrail. Otherwise gray
	// levels are normalized to [0,1] and compared against Threshold.
	Prebinarized bool
	Threshold    float64
}

// A DimensionMismatchError reports a granule whose geolocation and
// classification pixel dimensions differ. The granule fails as a
// whole; values are never resampled to fit.
type DimensionMismatchError struct {
	Granule            string
	GeoRows, GeoCols   int
	MaskRows, MaskCols int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("contrailgrid: granule %s: geolocation is %d×%d pixels but classification is %d×%d",
		e.Granule, e.GeoRows, e.GeoCols, e.MaskRows, e.MaskCols)
}

// GranulePixels yields the (lat, lon, class) triples of one granule
// in row-major scan order. It is created fully populated by
// OpenGranule and consumed once.
type GranulePixels struct {
	granule  string
	lat, lon *sparse.DenseArray
	contrail []bool
	i        int
}

// Len returns the number of pixels.
func (g *GranulePixels) Len() int { return len(g.contrail) }

// Next implements PixelSource.
func (g *GranulePixels) Next() (Pixel, bool) {
	if g.i >= len(g.contrail) {
		return Pixel{}, false
	}
	p := Pixel{
		Lat:      g.lat.Elements[g.i],
		Lon:      g.lon.Elements[g.i],
		Contrail: g.contrail[g.i],
	}
	g.i++
	return p, true
}

// OpenGranule reads the geolocation coordinates and classification
// mask of one matched granule. The two sources must agree exactly on
// pixel dimensions or the whole granule fails with a
// *DimensionMismatchError.
func OpenGranule(rec GranuleRecord, opts PixelOptions) (*GranulePixels, error) {
	lat, lon, err := readCoordinates(rec.GeolocationPath)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: granule %s: reading geolocation: %v", rec.ID.Key(), err)
	}
	mask, rows, cols, err := readClassification(rec.ClassificationPath, opts)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: granule %s: reading classification: %v", rec.ID.Key(), err)
	}
	if lat.Shape[0] != rows || lat.Shape[1] != cols {
		return nil, &DimensionMismatchError{
			Granule: rec.ID.Key(),
			GeoRows: lat.Shape[0], GeoCols: lat.Shape[1],
			MaskRows: rows, MaskCols: cols,
		}
	}
	return &GranulePixels{granule: rec.ID.Key(), lat: lat, lon: lon, contrail: mask}, nil
}

// readCoordinates extracts the Latitude and Longitude variables from
// a geolocation NetCDF file.
func readCoordinates(path string) (lat, lon *sparse.DenseArray, err error) {
	f, err := openWithRetry(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, nil, fmt.Errorf("opening NetCDF file %s: %v", path, err)
	}
	lat, err = readCoordVar(ff, latVar)
	if err != nil {
		return nil, nil, err
	}
	lon, err = readCoordVar(ff, lonVar)
	if err != nil {
		return nil, nil, err
	}
	if lat.Shape[0] != lon.Shape[0] || lat.Shape[1] != lon.Shape[1] {
		return nil, nil, fmt.Errorf("latitude is %d×%d but longitude is %d×%d",
			lat.Shape[0], lat.Shape[1], lon.Shape[0], lon.Shape[1])
	}
	return lat, lon, nil
}

// readVar reads the full extent of one variable into a new buffer.
// For a non-record variable the strider reports io.EOF once its
// cursor reaches the variable's end, so a complete full-extent read
// finishes with io.EOF rather than nil.
func readVar(ff *cdf.File, name string) (interface{}, error) {
	r := ff.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// writeVar writes buf as the full extent of one variable. As with
// readVar, io.EOF marks the cursor reaching the variable's end.
func writeVar(f *cdf.File, name string, buf interface{}) error {
	if _, err := f.Writer(name, nil, nil).Write(buf); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// readCoordVar reads one 2-d coordinate variable in full.
func readCoordVar(ff *cdf.File, name string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %v not in file", name)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("variable %v has %d dimensions, expected 2", name, len(dims))
	}
	buf, err := readVar(ff, name)
	if err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", name, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", name, buf)
	}
	return data, nil
}

// readClassification decodes a grayscale classification mask to
// per-pixel contrail flags in row-major order.
func readClassification(path string, opts PixelOptions) (mask []bool, rows, cols int, err error) {
	f, err := openWithRetry(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding %s: %v", path, err)
	}
	b := img.Bounds()
	rows, cols = b.Dy(), b.Dx()
	mask = make([]bool, 0, rows*cols)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			mask = append(mask, classify(gray, opts))
		}
	}
	return mask, rows, cols, nil
}

func classify(gray uint8, opts PixelOptions) bool {
	if opts.Prebinarized {
		return gray > 0
	}
	return float64(gray)/255 > opts.Threshold
}

// openWithRetry opens a file, retrying transient failures with
// exponential backoff. Cluster filesystems drop the occasional open
// under load; a missing file is permanent and fails immediately.
func openWithRetry(path string) (*os.File, error) {
	var f *os.File
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	err := backoff.RetryNotify(
		func() error {
			var err error
			f, err = os.Open(path)
			if os.IsNotExist(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		b,
		func(err error, d time.Duration) {
			log.Printf("contrailgrid: opening %s: %v: retrying in %v", path, err, d)
		},
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}
