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
	"path/filepath"
	"sort"
	"strings"
)

// A GranuleID holds the fields of a swath product file name that
// identify its acquisition: the product marker, the 7-character
// YYYYDDD date key, and the HHMM time-of-day code. File names follow
// the dotted convention
//
//	<product>.A<yyyy><ddd>.<hhmm>.<rest of name>
//
// and matching relies only on these embedded codes, never on file
// modification times or directory layout.
type GranuleID struct {
	Product  string
	DateKey  string
	TimeCode string
}

// Key returns the acquisition key shared by a geolocation file and
// its classification image.
func (id GranuleID) Key() string { return id.DateKey + "." + id.TimeCode }

// ParseGranuleID extracts the acquisition fields from a granule file
// name. Malformed names fail here, predictably, instead of silently
// mis-pairing files downstream.
func ParseGranuleID(name string) (GranuleID, error) {
	base := filepath.Base(name)
	fields := strings.Split(base, ".")
	if len(fields) < 4 {
		return GranuleID{}, fmt.Errorf("contrailgrid: granule name %q: expected at least 4 dot-separated fields, got %d",
			base, len(fields))
	}
	if fields[0] == "" {
		return GranuleID{}, fmt.Errorf("contrailgrid: granule name %q: empty product field", base)
	}
	a := fields[1]
	if len(a) != 8 || a[0] != 'A' {
		return GranuleID{}, fmt.Errorf("contrailgrid: granule name %q: acquisition field %q is not of the form Ayyyyddd",
			base, a)
	}
	dateKey := a[1:]
	if _, _, err := ParseDateKey(dateKey); err != nil {
		return GranuleID{}, fmt.Errorf("contrailgrid: granule name %q: %v", base, err)
	}
	t := fields[2]
	if len(t) != 4 || !allDigits(t) {
		return GranuleID{}, fmt.Errorf("contrailgrid: granule name %q: time code %q is not of the form hhmm",
			base, t)
	}
	hh := 10*int(t[0]-'0') + int(t[1]-'0')
	mm := 10*int(t[2]-'0') + int(t[3]-'0')
	if hh > 23 || mm > 59 {
		return GranuleID{}, fmt.Errorf("contrailgrid: granule name %q: time code %q out of range", base, t)
	}
	return GranuleID{Product: fields[0], DateKey: dateKey, TimeCode: t}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// A MatchError reports a classification image that could not be
// paired with a geolocation file. The granule is skipped; the day
// continues.
type MatchError struct {
	Name   string // classification file name
	Reason string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("contrailgrid: granule %s: %s", e.Name, e.Reason)
}

// A GranuleRecord pairs one classification image with its geolocation
// file for accumulation.
type GranuleRecord struct {
	ID                 GranuleID
	GeolocationPath    string
	ClassificationPath string
}

// A Matcher pairs the classification images of a target date with
// their geolocation files by embedded acquisition code.
type Matcher struct {
	ClassificationDir string
	GeolocationDir    string
}

// MatchDay finds every classification image whose embedded date key
// equals dateKey and pairs each with the geolocation file sharing its
// acquisition key. Classification images without a geolocation
// counterpart, and files carrying the date key but failing the name
// grammar, are returned as MatchErrors rather than records; neither
// aborts the day. When several geolocation files share one
// acquisition key the lexically first is chosen and the ambiguity
// logged. Records are returned in classification file name order.
func (m *Matcher) MatchDay(dateKey string) ([]GranuleRecord, []*MatchError, error) {
	if _, _, err := ParseDateKey(dateKey); err != nil {
		return nil, nil, err
	}

	geoIndex, err := m.geolocationIndex()
	if err != nil {
		return nil, nil, err
	}

	entries, err := ioutil.ReadDir(m.ClassificationDir)
	if err != nil {
		return nil, nil, fmt.Errorf("contrailgrid: reading classification directory: %v", err)
	}

	var records []GranuleRecord
	var skipped []*MatchError
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		name := fi.Name()
		id, err := ParseGranuleID(name)
		if err != nil {
			if strings.Contains(name, dateKey) {
				skipped = append(skipped, &MatchError{Name: name, Reason: err.Error()})
			}
			continue
		}
		if id.DateKey != dateKey {
			continue
		}
		candidates := geoIndex[id.Key()]
		if len(candidates) == 0 {
			skipped = append(skipped, &MatchError{
				Name:   name,
				Reason: fmt.Sprintf("no geolocation file for acquisition %s", id.Key()),
			})
			continue
		}
		if len(candidates) > 1 {
			log.Printf("contrailgrid: date=%s granule=%s: %d geolocation files share acquisition %s; using %s",
				dateKey, name, len(candidates), id.Key(), filepath.Base(candidates[0]))
		}
		records = append(records, GranuleRecord{
			ID:                 id,
			GeolocationPath:    candidates[0],
			ClassificationPath: filepath.Join(m.ClassificationDir, name),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ClassificationPath < records[j].ClassificationPath
	})
	return records, skipped, nil
}

// geolocationIndex lists the geolocation directory once, keyed by
// acquisition key, with each candidate list in lexical order. Files
// that do not follow the granule name grammar are ignored; the
// directory may hold unrelated artifacts.
func (m *Matcher) geolocationIndex() (map[string][]string, error) {
	entries, err := ioutil.ReadDir(m.GeolocationDir)
	if err != nil {
		return nil, fmt.Errorf("contrailgrid: reading geolocation directory: %v", err)
	}
	index := make(map[string][]string)
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		id, err := ParseGranuleID(fi.Name())
		if err != nil {
			continue
		}
		index[id.Key()] = append(index[id.Key()], filepath.Join(m.GeolocationDir, fi.Name()))
	}
	for _, paths := range index {
		sort.Strings(paths)
	}
	return index, nil
}
