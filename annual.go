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
	"regexp"
	"sort"
	"strconv"

	"github.com/ctessum/sparse"
)

var ratioFileRe = regexp.MustCompile(`^ratio_(\d{4})(\d{3})\.nc$`)

// AnnualInfo summarizes one year's averaging run.
type AnnualInfo struct {
	Year       int
	Days       int
	OutputPath string
}

// AnnualAverage scans ratioDir for daily ratio rasters named
// ratio_YYYYDDD.nc, groups them by year (restricted to
// [firstYear, lastYear]), and writes a per-cell annual mean raster
// ratio_<year>_avg.nc for each year into outputDir. A cell's mean is
// taken over the days that have data for that cell; cells with no
// data on any day stay at RatioNoData. A day file that cannot be read
// or whose shape disagrees is logged and skipped.
func AnnualAverage(ratioDir, outputDir string, firstYear, lastYear int) ([]AnnualInfo, error) {
	entries, err := ioutil.ReadDir(ratioDir)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: reading ratio directory: %v", err)
	}
	byYear := make(map[int][]string)
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		m := ratioFileRe.FindStringSubmatch(fi.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		if year < firstYear || year > lastYear {
			continue
		}
		byYear[year] = append(byYear[year], filepath.Join(ratioDir, fi.Name()))
	}
	if len(byYear) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("contrailgrid: creating annual output directory: %v", err)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	var infos []AnnualInfo
	for _, year := range years {
		files := byYear[year]
		sort.Strings(files)
		avg, days, res, err := averageRatios(files)
		if err != nil {
			return infos, err
		}
		if days == 0 {
			log.Printf("contrailgrid: year %d: no readable ratio rasters", year)
			continue
		}
		outPath := filepath.Join(outputDir, fmt.Sprintf("ratio_%d_avg.nc", year))
		if err := WriteRatio(outPath, avg, res, fmt.Sprintf("%04d", year)); err != nil {
			return infos, err
		}
		log.Printf("contrailgrid: year %d: averaged %d days into %s", year, days, outPath)
		infos = append(infos, AnnualInfo{Year: year, Days: days, OutputPath: outPath})
	}
	return infos, nil
}

// averageRatios computes the per-cell mean over the given daily
// rasters, ignoring no-data cells. It also derives the grid
// resolution from the raster shape.
func averageRatios(files []string) (avg *sparse.DenseArray, days int, resolution float64, err error) {
	var sum *sparse.DenseArray
	var count []int
	for _, file := range files {
		ratio, err := ReadRatioRaster(file)
		if err != nil {
			log.Printf("contrailgrid: annual average: %v; skipping", err)
			continue
		}
		if sum == nil {
			sum = sparse.ZerosDense(ratio.Shape...)
			count = make([]int, len(ratio.Elements))
		} else if ratio.Shape[0] != sum.Shape[0] || ratio.Shape[1] != sum.Shape[1] {
			log.Printf("contrailgrid: annual average: %s is %d×%d, expected %d×%d; skipping",
				file, ratio.Shape[0], ratio.Shape[1], sum.Shape[0], sum.Shape[1])
			continue
		}
		for i, v := range ratio.Elements {
			if v == RatioNoData {
				continue
			}
			sum.Elements[i] += v
			count[i]++
		}
		days++
	}
	if days == 0 {
		return nil, 0, 0, nil
	}
	avg = sparse.ZerosDense(sum.Shape...)
	for i := range avg.Elements {
		if count[i] == 0 {
			avg.Elements[i] = RatioNoData
			continue
		}
		avg.Elements[i] = sum.Elements[i] / float64(count[i])
	}
	return avg, days, 180 / float64(sum.Shape[0]), nil
}
