package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/athan/internal/aladhan"
	"github.com/Nixie-Tech-LLC/athan/internal/config"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/notify"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
	"github.com/Nixie-Tech-LLC/athan/internal/tui"
)

var (
	lead       time.Duration
	noRemind   bool
	quietStart string
	quietEnd   string
	logFile    string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live countdown and remind before each prayer",
	Long: `watch keeps today's prayer statuses and the countdown to the next prayer
on screen, refreshing after midnight, and shows a reminder shortly before the
next prayer begins. Press q to quit.`,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.DurationVar(&lead, "lead", prayer.DefaultLead, "how long before a prayer to remind")
	f.BoolVar(&noRemind, "no-remind", false, "show the countdown without reminders")
	f.StringVar(&quietStart, "quiet-start", "", "start of daily quiet hours (HH:MM)")
	f.StringVar(&quietEnd, "quiet-end", "", "end of daily quiet hours (HH:MM)")
	f.StringVar(&logFile, "log-file", "athan.log", "where reminders and diagnostics are logged")
}

func runWatch(cmd *cobra.Command, args []string) error {
	loc, err := location(cmd)
	if err != nil {
		return err
	}
	quiet, err := quietHours()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	logger := config.ConfigureLogging(f, "production", "info")

	notifier := &tui.Notifier{Next: notify.LogNotifier{Logger: logger}}
	timer := prayer.NewTimer(prayer.SystemClock, aladhan.NewClient(baseURL), notifier, loc, prayer.Options{
		Lead:                 lead,
		Quiet:                quiet,
		NotificationsEnabled: !noRemind,
		// the terminal can always show reminders
		Permission: model.PermissionGranted,
		Logger:     &logger,
	})

	views, unsubscribe := timer.Subscribe()
	defer unsubscribe()
	program := tea.NewProgram(tui.New(placeName(loc), views), tea.WithContext(cmd.Context()))
	notifier.Attach(program)

	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan error, 1)
	go func() { done <- timer.Run(ctx) }()

	_, runErr := program.Run()
	cancel()
	if err := <-done; err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}

func quietHours() (*model.QuietHours, error) {
	if quietStart == "" && quietEnd == "" {
		return nil, nil
	}
	if quietStart == "" || quietEnd == "" {
		return nil, fmt.Errorf("--quiet-start and --quiet-end must be given together")
	}
	s, err := model.ParseClockTime(quietStart)
	if err != nil {
		return nil, err
	}
	e, err := model.ParseClockTime(quietEnd)
	if err != nil {
		return nil, err
	}
	return &model.QuietHours{Start: s, End: e}, nil
}
