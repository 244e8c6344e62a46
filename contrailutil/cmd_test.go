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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialstat/contrailgrid"
)

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	want := "ContrailGrid v" + contrailgrid.Version
	if !strings.Contains(buf.String(), want) {
		t.Errorf("version output %q does not contain %q", buf.String(), want)
	}
}

func TestRunDayOutOfRangeTask(t *testing.T) {
	// A job array sized for leap years runs index 365 against 2013;
	// that task must succeed without touching any input.
	Cfg.Set("Date", "")
	Cfg.Set("Year", 2013)
	Cfg.Set("TaskIndex", 365)
	if err := RunDay(); err != nil {
		t.Errorf("out-of-range task index: %v", err)
	}
}

func TestRunDayBadTaskIndex(t *testing.T) {
	// A garbled scheduler variable must not coerce to index 0.
	Cfg.Set("Date", "")
	Cfg.Set("TaskIndex", "$SLURM_ARRAY_TASK_ID")
	defer Cfg.Set("TaskIndex", 0)
	if err := RunDay(); err == nil {
		t.Error("expected error for non-numeric task index")
	}
}

func TestRunDayMissingDirs(t *testing.T) {
	Cfg.Set("Date", "2013001")
	Cfg.Set("ClassificationDir", "")
	Cfg.Set("GeolocationDir", "")
	if err := RunDay(); err == nil {
		t.Error("expected error when input directories are unset")
	}
}

func TestRunDayEmptyDay(t *testing.T) {
	dir, err := ioutil.TempDir("", "cmdtest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	for _, d := range []string{"classification", "geolocation"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}

	Cfg.Set("Date", "2013001")
	Cfg.Set("ClassificationDir", filepath.Join(dir, "classification"))
	Cfg.Set("GeolocationDir", filepath.Join(dir, "geolocation"))
	Cfg.Set("OutputDir", filepath.Join(dir, "output"))
	Cfg.Set("RatioOnly", true)
	defer Cfg.Set("RatioOnly", false)

	// No granules is a success; the empty ratio raster still appears.
	if err := RunDay(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "output", "ratio", "ratio_2013001.nc")); err != nil {
		t.Errorf("ratio raster: %v", err)
	}
}

func TestRunSlimMissingDirs(t *testing.T) {
	Cfg.Set("Slim.InputDir", "")
	Cfg.Set("Slim.OutputDir", "")
	if err := RunSlim(); err == nil {
		t.Error("expected error when slim directories are unset")
	}
}

func TestRunAnnualMissingDirs(t *testing.T) {
	Cfg.Set("Annual.RatioDir", "")
	Cfg.Set("Annual.OutputDir", "")
	if err := RunAnnual(); err == nil {
		t.Error("expected error when annual directories are unset")
	}
}

func TestConfigFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "cmdtest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	cfgPath := filepath.Join(dir, "config.toml")
	if err := ioutil.WriteFile(cfgPath, []byte("Resolution = 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", cfgPath)
	defer Cfg.Set("config", "")
	if err := setConfig(); err != nil {
		t.Fatal(err)
	}
	if got := Cfg.GetFloat64("Resolution"); got != 0.5 {
		t.Errorf("Resolution = %g, want 0.5", got)
	}
}
