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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseGranuleID(t *testing.T) {
	id, err := ParseGranuleID("MOD021KM.A2013005.1435.061.2017296160517.png")
	if err != nil {
		t.Fatal(err)
	}
	want := GranuleID{Product: "MOD021KM", DateKey: "2013005", TimeCode: "1435"}
	if id != want {
		t.Errorf("parsed %+v, want %+v", id, want)
	}
	if got := id.Key(); got != "2013005.1435" {
		t.Errorf("Key() = %q, want 2013005.1435", got)
	}

	// Parsing uses only the base name.
	if _, err := ParseGranuleID("/data/archive/MOD03.A2013005.1435.061.nc"); err != nil {
		t.Errorf("path with directory: %v", err)
	}

	bad := []string{
		"MOD021KM.A2013005.png",          // too few fields
		".A2013005.1435.061.png",         // empty product
		"MOD021KM.2013005.1435.061.png",  // missing A prefix
		"MOD021KM.A201305.1435.061.png",  // short acquisition field
		"MOD021KM.A2013366.1435.061.png", // day 366 of a non-leap year
		"MOD021KM.A2013005.14x5.061.png", // non-numeric time
		"MOD021KM.A2013005.2460.061.png", // hour out of range
		"MOD021KM.A2013005.1460.061.png", // minute out of range
	}
	for _, name := range bad {
		if _, err := ParseGranuleID(name); err == nil {
			t.Errorf("ParseGranuleID(%q): expected error", name)
		}
	}
}

// matchDirs builds classification and geolocation directories holding
// the given (empty) files.
func matchDirs(t *testing.T, classification, geolocation []string) *Matcher {
	t.Helper()
	dir, err := ioutil.TempDir("", "matchtest")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	m := &Matcher{
		ClassificationDir: filepath.Join(dir, "classification"),
		GeolocationDir:    filepath.Join(dir, "geolocation"),
	}
	for _, d := range []string{m.ClassificationDir, m.GeolocationDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range classification {
		if err := ioutil.WriteFile(filepath.Join(m.ClassificationDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range geolocation {
		if err := ioutil.WriteFile(filepath.Join(m.GeolocationDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestMatchDay(t *testing.T) {
	m := matchDirs(t,
		[]string{
			"MASK.A2013005.0210.061.png",
			"MASK.A2013005.1435.061.png",
			"MASK.A2013006.1435.061.png", // different day
			"readme.txt",                 // unrelated, no date key
		},
		[]string{
			"MOD03.A2013005.0210.061.nc",
			"MOD03.A2013005.1435.061.nc",
			"MOD03.A2013006.1435.061.nc",
		})

	records, skipped, err := m.MatchDay("2013005")
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped %d granules, want 0: %v", len(skipped), skipped)
	}
	if len(records) != 2 {
		t.Fatalf("matched %d granules, want 2", len(records))
	}
	// Records come back ordered by classification file name.
	if got := records[0].ID.TimeCode; got != "0210" {
		t.Errorf("first record time code %q, want 0210", got)
	}
	for _, rec := range records {
		if rec.ID.DateKey != "2013005" {
			t.Errorf("record %s has date key %s, want 2013005", rec.ClassificationPath, rec.ID.DateKey)
		}
		wantGeo := filepath.Join(m.GeolocationDir, "MOD03.A2013005."+rec.ID.TimeCode+".061.nc")
		if rec.GeolocationPath != wantGeo {
			t.Errorf("geolocation path %q, want %q", rec.GeolocationPath, wantGeo)
		}
	}
}

func TestMatchDayMissingGeolocation(t *testing.T) {
	m := matchDirs(t,
		[]string{"MASK.A2013005.1435.061.png"},
		[]string{"MOD03.A2013005.0210.061.nc"}) // wrong acquisition

	records, skipped, err := m.MatchDay("2013005")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("matched %d granules, want 0", len(records))
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped %d granules, want 1", len(skipped))
	}
	if !strings.Contains(skipped[0].Reason, "no geolocation file") {
		t.Errorf("unexpected skip reason: %s", skipped[0].Reason)
	}
}

func TestMatchDayMalformedName(t *testing.T) {
	// A file carrying the target date key but failing the name grammar
	// is reported, not silently dropped.
	m := matchDirs(t,
		[]string{"MASK_2013005_broken.png"},
		nil)
	records, skipped, err := m.MatchDay("2013005")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 || len(skipped) != 1 {
		t.Fatalf("got %d records and %d skipped, want 0 and 1", len(records), len(skipped))
	}
	if skipped[0].Name != "MASK_2013005_broken.png" {
		t.Errorf("skipped name = %q", skipped[0].Name)
	}
}

func TestMatchDayAmbiguousGeolocation(t *testing.T) {
	m := matchDirs(t,
		[]string{"MASK.A2013005.1435.061.png"},
		[]string{
			"MOD03.A2013005.1435.061.b.nc",
			"MOD03.A2013005.1435.061.a.nc",
		})
	records, _, err := m.MatchDay("2013005")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("matched %d granules, want 1", len(records))
	}
	// Lexically first candidate wins, deterministically.
	want := filepath.Join(m.GeolocationDir, "MOD03.A2013005.1435.061.a.nc")
	if records[0].GeolocationPath != want {
		t.Errorf("geolocation path %q, want %q", records[0].GeolocationPath, want)
	}
}

func TestMatchDayBadDateKey(t *testing.T) {
	m := matchDirs(t, nil, nil)
	if _, _, err := m.MatchDay("20130"); err == nil {
		t.Error("expected error for malformed date key")
	}
}
