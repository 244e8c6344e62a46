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
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/ctessum/cdf"
)

// Geolocation granule files arrive with many ancillary variables
// (view angles, terrain height, quality flags) that grid aggregation
// never touches. Slimming copies each file keeping only the
// Latitude/Longitude variables and their attributes, which cuts
// archive volume by an order of magnitude while leaving every matcher
// and pixel-source contract intact.

// SlimStats aggregates an archive slimming run.
type SlimStats struct {
	Files         int
	Failed        int
	OriginalBytes int64
	SlimBytes     int64
}

// Reduction returns the saved fraction of the original volume.
func (s SlimStats) Reduction() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return 1 - float64(s.SlimBytes)/float64(s.OriginalBytes)
}

// SlimArchive slims every granule file in inputDir into outputDir,
// keeping file names, with up to workers concurrent goroutines. Files
// that do not follow the granule name grammar are ignored. A failing
// file is logged and counted but does not stop its siblings.
func SlimArchive(inputDir, outputDir string, workers int) (SlimStats, error) {
	var stats SlimStats
	entries, err := ioutil.ReadDir(inputDir)
	if err != nil {
		return stats, fmt.Errorf("contrailgrid: reading archive directory: %v", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return stats, fmt.Errorf("contrailgrid: creating slim output directory: %v", err)
	}

	var names []string
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		if _, err := ParseGranuleID(fi.Name()); err != nil {
			continue
		}
		names = append(names, fi.Name())
	}
	if len(names) == 0 {
		return stats, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(names) {
		workers = len(names)
	}

	type outcome struct {
		orig, slim int64
		err        error
		name       string
	}
	jobs := make(chan string, len(names))
	outcomes := make(chan outcome, len(names))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				orig, slim, err := SlimGranule(
					filepath.Join(inputDir, name), filepath.Join(outputDir, name))
				outcomes <- outcome{orig: orig, slim: slim, err: err, name: name}
			}
		}()
	}
	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		if o.err != nil {
			log.Printf("contrailgrid: slimming %s: %v", o.name, o.err)
			stats.Failed++
			continue
		}
		stats.Files++
		stats.OriginalBytes += o.orig
		stats.SlimBytes += o.slim
	}
	log.Printf("contrailgrid: slimmed %d files (%d failed): %d -> %d bytes (%.1f%% reduction)",
		stats.Files, stats.Failed, stats.OriginalBytes, stats.SlimBytes, stats.Reduction()*100)
	return stats, nil
}

// SlimGranule copies the geolocation file at inPath to outPath,
// keeping only the coordinate variables, their attributes, and the
// global attributes. It returns the file sizes before and after.
func SlimGranule(inPath, outPath string) (origBytes, slimBytes int64, err error) {
	in, err := openWithRetry(inPath)
	if err != nil {
		return 0, 0, err
	}
	defer in.Close()
	src, err := cdf.Open(in)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %v", inPath, err)
	}

	dims := src.Header.Dimensions(latVar)
	lengths := src.Header.Lengths(latVar)
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("%s: variable %s has %d dimensions, expected 2", inPath, latVar, len(dims))
	}
	lonDims := src.Header.Dimensions(lonVar)
	if len(lonDims) != 2 || lonDims[0] != dims[0] || lonDims[1] != dims[1] {
		return 0, 0, fmt.Errorf("%s: %s and %s have different dimensions", inPath, latVar, lonVar)
	}

	h := cdf.NewHeader(dims, lengths)
	bufs := make(map[string]interface{}, 2)
	for _, v := range []string{latVar, lonVar} {
		buf, err := readVar(src, v)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: reading %s: %v", inPath, v, err)
		}
		bufs[v] = buf
		h.AddVariable(v, dims, src.Header.ZeroValue(v, 1))
		for _, a := range src.Header.Attributes(v) {
			h.AddAttribute(v, a, src.Header.GetAttribute(v, a))
		}
	}
	for _, a := range src.Header.Attributes("") {
		h.AddAttribute("", a, src.Header.GetAttribute("", a))
	}
	h.Define()
	for _, err := range h.Check() {
		return 0, 0, fmt.Errorf("%s: building slim header: %v", inPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, 0, fmt.Errorf("creating %s: %v", outPath, err)
	}
	defer out.Close()
	dst, err := cdf.Create(out, h)
	if err != nil {
		return 0, 0, fmt.Errorf("creating %s: %v", outPath, err)
	}
	for _, v := range []string{latVar, lonVar} {
		if err := writeVar(dst, v, bufs[v]); err != nil {
			return 0, 0, fmt.Errorf("%s: writing %s: %v", outPath, v, err)
		}
	}

	inInfo, err := in.Stat()
	if err != nil {
		return 0, 0, err
	}
	outInfo, err := out.Stat()
	if err != nil {
		return 0, 0, err
	}
	return inInfo.Size(), outInfo.Size(), nil
}
