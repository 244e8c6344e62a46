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

// Package contrailgrid aggregates daily satellite swath classifications
// of contrail occurrence onto a global equal-angle latitude/longitude
// grid. Each day of a year is an independent unit of work: the granules
// (geolocation file + binary classification image pairs) acquired on
// that day are matched by their embedded acquisition codes, accumulated
// into per-granule counter grids by a bounded worker pool, merged into
// a single day grid, and persisted as georeferenced rasters of
// background counts, contrail counts, and the per-cell contrail ratio.
package contrailgrid

// Version gives the version number of this version of ContrailGrid.
const Version = "1.2.0"
