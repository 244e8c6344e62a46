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

package contrailutil

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spatialstat/contrailgrid"
	"github.com/spf13/cast"
)

// setLogFile mirrors log output to the configured log file, if any.
func setLogFile() error {
	lf := Cfg.GetString("LogFile")
	if lf == "" {
		return nil
	}
	f, err := os.Create(lf)
	if err != nil {
		return fmt.Errorf("contrailgrid: creating log file: %v", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// RunDay resolves the configured task to a date and processes that
// day. A task index out of range for the year is a clean no-op
// success, distinct from processing failures.
func RunDay() error {
	if err := setLogFile(); err != nil {
		return err
	}

	dateKey := Cfg.GetString("Date")
	if dateKey == "" {
		year := Cfg.GetInt("Year")
		// TaskIndex usually comes in from the scheduler environment as
		// a string; a value that doesn't parse must fail loudly rather
		// than coerce to index 0 and silently process the wrong day.
		index, err := cast.ToIntE(Cfg.Get("TaskIndex"))
		if err != nil {
			return fmt.Errorf("contrailgrid: invalid TaskIndex: %v", err)
		}
		doy, err := contrailgrid.TaskDay(year, index)
		if err != nil {
			if _, ok := err.(*contrailgrid.TaskRangeError); ok {
				log.Printf("%v; nothing to do", err)
				return nil
			}
			return err
		}
		dateKey = contrailgrid.DateKey(year, doy)
	}

	cfg := contrailgrid.DayConfig{
		DateKey:           dateKey,
		ClassificationDir: Cfg.GetString("ClassificationDir"),
		GeolocationDir:    Cfg.GetString("GeolocationDir"),
		OutputDir:         os.ExpandEnv(Cfg.GetString("OutputDir")),
		Resolution:        Cfg.GetFloat64("Resolution"),
		Workers:           Cfg.GetInt("Workers"),
		Prebinarized:      Cfg.GetBool("Prebinarized"),
		Threshold:         Cfg.GetFloat64("Threshold"),
		RatioOnly:         Cfg.GetBool("RatioOnly"),
		ExportCells:       Cfg.GetBool("ExportCells"),
	}
	if cfg.ClassificationDir == "" || cfg.GeolocationDir == "" {
		return fmt.Errorf("contrailgrid: ClassificationDir and GeolocationDir must be set")
	}
	cfg.ClassificationDir = os.ExpandEnv(cfg.ClassificationDir)
	cfg.GeolocationDir = os.ExpandEnv(cfg.GeolocationDir)

	_, err := contrailgrid.ProcessDay(cfg)
	return err
}

// RunSlim slims the configured geolocation archive.
func RunSlim() error {
	if err := setLogFile(); err != nil {
		return err
	}
	in := os.ExpandEnv(Cfg.GetString("Slim.InputDir"))
	out := os.ExpandEnv(Cfg.GetString("Slim.OutputDir"))
	if in == "" || out == "" {
		return fmt.Errorf("contrailgrid: Slim.InputDir and Slim.OutputDir must be set")
	}
	stats, err := contrailgrid.SlimArchive(in, out, Cfg.GetInt("Workers"))
	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("contrailgrid: %d of %d granule files failed to slim",
			stats.Failed, stats.Failed+stats.Files)
	}
	return nil
}

// RunAnnual averages the configured daily ratio rasters by year.
func RunAnnual() error {
	if err := setLogFile(); err != nil {
		return err
	}
	ratioDir := os.ExpandEnv(Cfg.GetString("Annual.RatioDir"))
	outDir := os.ExpandEnv(Cfg.GetString("Annual.OutputDir"))
	if ratioDir == "" || outDir == "" {
		return fmt.Errorf("contrailgrid: Annual.RatioDir and Annual.OutputDir must be set")
	}
	_, err := contrailgrid.AnnualAverage(ratioDir, outDir,
		Cfg.GetInt("Annual.FirstYear"), Cfg.GetInt("Annual.LastYear"))
	return err
}
