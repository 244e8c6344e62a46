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

// Command contrailgrid is the command-line interface for the
// ContrailGrid swath aggregation system. Each invocation is one
// cluster job-array task; a nonzero exit status marks a day left
// incompletely processed.
package main

import (
	"fmt"
	"os"

	"github.com/spatialstat/contrailgrid/contrailutil"
)

func main() {
	if err := contrailutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
