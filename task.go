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
	"strconv"
)

// A TaskRangeError reports a cluster array task index that does not
// correspond to any day of the given year. It is a deliberate no-op
// condition rather than a processing failure: job arrays are sized
// generously and excess indices must exit cleanly.
type TaskRangeError struct {
	Year, Index int
}

func (e *TaskRangeError) Error() string {
	return fmt.Sprintf("contrailgrid: task index %d out of range for year %d (%d days)",
		e.Index, e.Year, DaysInYear(e.Year))
}

// IsLeapYear reports whether year is a leap year in the Gregorian
// calendar: divisible by 4 and either not divisible by 100 or
// divisible by 400.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// TaskDay maps a zero-based cluster array task index to the 1-based
// day of year it is responsible for. A *TaskRangeError is returned
// when index is not in [0, DaysInYear(year)-1].
func TaskDay(year, index int) (int, error) {
	if index < 0 || index >= DaysInYear(year) {
		return 0, &TaskRangeError{Year: year, Index: index}
	}
	return index + 1, nil
}

// DateKey formats a year and day of year as the canonical 7-character
// YYYYDDD key embedded in granule file names and output file names.
func DateKey(year, doy int) string {
	return fmt.Sprintf("%04d%03d", year, doy)
}

// ParseDateKey splits a canonical YYYYDDD date key into year and day
// of year, validating the day against the year's length.
func ParseDateKey(key string) (year, doy int, err error) {
	if len(key) != 7 {
		return 0, 0, fmt.Errorf("contrailgrid: date key %q: expected 7 characters", key)
	}
	year, err = strconv.Atoi(key[0:4])
	if err != nil {
		return 0, 0, fmt.Errorf("contrailgrid: date key %q: invalid year: %v", key, err)
	}
	doy, err = strconv.Atoi(key[4:7])
	if err != nil {
		return 0, 0, fmt.Errorf("contrailgrid: date key %q: invalid day of year: %v", key, err)
	}
	if doy < 1 || doy > DaysInYear(year) {
		return 0, 0, fmt.Errorf("contrailgrid: date key %q: day %d out of range for year %d",
			key, doy, year)
	}
	return year, doy, nil
}
