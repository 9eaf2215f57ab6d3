package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/athan/internal/aladhan"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

var timesCmd = &cobra.Command{
	Use:   "times",
	Short: "Print today's prayer times once",
	Example: `  athan times --city "New York" --country USA
  athan times --lat 41.8781 --lon -87.6298 --tz America/Chicago`,
	RunE: runTimes,
}

var (
	nextRow = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	pastRow = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func runTimes(cmd *cobra.Command, args []string) error {
	loc, err := location(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	client := aladhan.NewClient(baseURL)
	now := time.Now().In(loc.TimeLocation())
	tt, err := client.FetchPrayerTimes(ctx, loc, now)
	if err != nil {
		return err
	}
	if tz, ok := tt.Zone(); ok && loc.Timezone == "" {
		local := now.In(tz)
		if local.YearDay() != now.YearDay() {
			if tt, err = client.FetchPrayerTimes(ctx, loc, local); err != nil {
				return err
			}
		}
		now = local
	}

	out := cmd.OutOrStdout()
	d := prayer.Derive(tt.Slots, now)
	fmt.Fprintf(out, "%s · %s\n\n", placeName(loc), now.Format("Monday, January 2"))
	for _, s := range d.Slots {
		line := fmt.Sprintf("%-8s %s", s.Name, s.Time)
		switch s.Status {
		case model.StatusNext:
			line = nextRow.Render(line + "  next")
		case model.StatusCompleted:
			line = pastRow.Render(line)
		}
		fmt.Fprintln(out, line)
	}
	if d.Next != nil {
		fmt.Fprintf(out, "\n%s in %s\n", d.Next.Name, prayer.FormatCountdown(d.Countdown))
	}
	return nil
}
