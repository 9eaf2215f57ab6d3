package main

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/athan/internal/aladhan"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

var (
	// location flags shared by every subcommand
	city     string
	country  string
	lat      float64
	lon      float64
	method   int
	timezone string
	baseURL  string
)

var rootCmd = &cobra.Command{
	Use:   "athan",
	Short: "Daily prayer times and reminders",
	Long: `athan shows today's five prayer times for a location and can keep a
live countdown to the next prayer with a reminder shortly before it begins.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&city, "city", "", "city name, e.g. \"New York\"")
	pf.StringVar(&country, "country", "", "country name or code")
	pf.Float64Var(&lat, "lat", 0, "latitude (overrides city/country together with --lon)")
	pf.Float64Var(&lon, "lon", 0, "longitude")
	pf.IntVar(&method, "method", aladhan.DefaultMethod, "calculation method id")
	pf.StringVar(&timezone, "tz", "", "IANA timezone for the location (default: local)")
	pf.StringVar(&baseURL, "api", aladhan.DefaultBaseURL, "prayer times API base URL")

	rootCmd.AddCommand(timesCmd, watchCmd)
}

// location builds the lookup location from flags.
func location(cmd *cobra.Command) (model.Location, error) {
	loc := model.Location{City: city, Country: country, Method: method, Timezone: timezone}
	flags := cmd.Flags()
	if flags.Changed("lat") != flags.Changed("lon") {
		return loc, fmt.Errorf("--lat and --lon must be given together")
	}
	if flags.Changed("lat") {
		la, lo := lat, lon
		loc.Latitude, loc.Longitude = &la, &lo
	}
	if !loc.Valid() {
		return loc, fmt.Errorf("give --city and --country, or --lat and --lon")
	}
	if loc.Timezone != "" {
		if _, err := time.LoadLocation(loc.Timezone); err != nil {
			return loc, fmt.Errorf("unknown timezone %q", loc.Timezone)
		}
	}
	return loc, nil
}

func placeName(loc model.Location) string {
	if loc.City != "" && loc.Country != "" {
		return loc.City + ", " + loc.Country
	}
	if loc.HasCoordinates() {
		return fmt.Sprintf("%.4f, %.4f", *loc.Latitude, *loc.Longitude)
	}
	return loc.City
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
