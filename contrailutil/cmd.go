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

// Package contrailutil wires the ContrailGrid core to its command-line
// interface and configuration.
package contrailutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialstat/contrailgrid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to ContrailGrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies a file to additionally write log
              messages to. Messages always go to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Year",
			usage: `
              Year specifies the calendar year the job array covers.`,
			shorthand:  "y",
			defaultVal: 2013,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TaskIndex",
			usage: `
              TaskIndex is the zero-based index of this task within the
              cluster job array; it selects the day of year to process.
              An index beyond the year's day count exits cleanly without
              doing anything, so job arrays may be sized generously.
              Typically set from the scheduler environment, e.g.
              CONTRAILGRID_TASKINDEX=$SLURM_ARRAY_TASK_ID.`,
			shorthand:  "t",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Date",
			usage: `
              Date processes one specific day given as a 7-character
              YYYYDDD key, bypassing Year/TaskIndex resolution.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ClassificationDir",
			usage: `
              ClassificationDir is the directory holding the binary
              classification images (PNG masks).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GeolocationDir",
			usage: `
              GeolocationDir is the directory holding the geolocation
              granule files with per-pixel Latitude/Longitude.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the root directory for output rasters and
              cell exports.`,
			shorthand:  "o",
			defaultVal: "output",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Resolution",
			usage: `
              Resolution is the grid cell edge length in degrees. It
              must divide 180 and 360 evenly.`,
			shorthand:  "r",
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers bounds how many granules are processed
              concurrently within the day.`,
			shorthand:  "w",
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), slimCmd.Flags()},
		},
		{
			name: "Prebinarized",
			usage: `
              Prebinarized marks the classification images as already
              thresholded upstream: any nonzero pixel counts as
              contrail. When false, Threshold is applied to the
              normalized gray level.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Threshold",
			usage: `
              Threshold is the binarization cutoff in [0,1] applied
              when Prebinarized is false.`,
			defaultVal: 0.35,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RatioOnly",
			usage: `
              RatioOnly suppresses the background and contrail count
              rasters, persisting only the ratio raster.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ExportCells",
			usage: `
              ExportCells additionally writes per-cell CSV and
              shapefile exports alongside the rasters.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Slim.InputDir",
			usage: `
              Slim.InputDir is the directory of geolocation granule
              files to slim down to coordinates only.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{slimCmd.Flags()},
		},
		{
			name: "Slim.OutputDir",
			usage: `
              Slim.OutputDir is where slimmed granule files are
              written, keeping their original names.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{slimCmd.Flags()},
		},
		{
			name: "Annual.RatioDir",
			usage: `
              Annual.RatioDir is the directory holding daily ratio
              rasters named ratio_YYYYDDD.nc.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{annualCmd.Flags()},
		},
		{
			name: "Annual.OutputDir",
			usage: `
              Annual.OutputDir is where annual average rasters are
              written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{annualCmd.Flags()},
		},
		{
			name: "Annual.FirstYear",
			usage: `
              Annual.FirstYear is the first year (inclusive) to
              average.`,
			defaultVal: 2013,
			flagsets:   []*pflag.FlagSet{annualCmd.Flags()},
		},
		{
			name: "Annual.LastYear",
			usage: `
              Annual.LastYear is the last year (inclusive) to
              average.`,
			defaultVal: 2022,
			flagsets:   []*pflag.FlagSet{annualCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CONTRAILGRID")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(slimCmd)
	Root.AddCommand(annualCmd)
}

// setConfig reads the configuration file if one was given.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("contrailgrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "contrailgrid",
	Short: "Aggregate satellite contrail classifications onto a global grid.",
	Long: `ContrailGrid bins daily satellite swath classifications of contrail
occurrence into a global equal-angle latitude/longitude grid and writes
per-day georeferenced rasters of background counts, contrail counts,
and the per-cell contrail ratio.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format
'CONTRAILGRID_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ContrailGrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ContrailGrid v%s\n", contrailgrid.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd processes the single day selected by the task index (or an
// explicit date key).
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one day of granules into grid rasters.",
	Long: `run resolves this job-array task to a day of year, matches that day's
classification images with their geolocation files, accumulates every
granule onto the grid with a bounded worker pool, and writes the day's
output rasters. A task index beyond the year's day count is a clean
no-op so generously sized job arrays succeed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunDay()
	},
	DisableAutoGenTag: true,
}

// slimCmd strips geolocation granule archives down to coordinates.
var slimCmd = &cobra.Command{
	Use:   "slim",
	Short: "Strip geolocation granule files down to their coordinates.",
	Long: `slim copies every geolocation granule file in Slim.InputDir to
Slim.OutputDir keeping only the Latitude and Longitude variables,
reducing archive volume without affecting grid processing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSlim()
	},
	DisableAutoGenTag: true,
}

// annualCmd averages daily ratio rasters into per-year rasters.
var annualCmd = &cobra.Command{
	Use:   "annual",
	Short: "Average daily ratio rasters into annual rasters.",
	Long: `annual scans Annual.RatioDir for daily ratio rasters, averages each
year's days per cell (ignoring no-data cells), and writes one
ratio_<year>_avg.nc raster per year to Annual.OutputDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunAnnual()
	},
	DisableAutoGenTag: true,
}
