package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bassamadnan/tripmail/dispatch"
	"github.com/bassamadnan/tripmail/tui"
)

const (
	uiTview = "tview"
	uiTea   = "tea"
	uiNone  = "none"

	// initialDelay gives the dashboard time to draw before the first cycle.
	initialDelay = time.Second
)

var uiMode string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the sheet forever, dispatching emails every interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch uiMode {
		case uiTview, uiTea, uiNone:
		default:
			return fmt.Errorf("unknown --ui %q (want %s, %s or %s)", uiMode, uiTview, uiTea, uiNone)
		}
		return runScheduler(cmd.Context(), uiMode)
	},
}

func init() {
	runCmd.Flags().StringVar(&uiMode, "ui", uiTview, "dashboard: tview, tea or none")
}

func runScheduler(parent context.Context, ui string) error {
	if parent == nil {
		parent = context.Background()
	}
	st, err := loadSettings()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(parent)
	defer cancel()

	// Authorization may prompt on the terminal, so it runs before any
	// dashboard takes the screen over.
	svc, err := newServices(ctx, st)
	if err != nil {
		return err
	}
	defer svc.Close()

	interval := time.Duration(st.PollIntervalSeconds) * time.Second
	if ui == uiNone {
		log.Printf("Dispatching every %v. Press Ctrl+C to stop.", interval)
		dispatch.NewScheduler(interval, 0, nil, svc.jobs()...).Run(ctx)
		return nil
	}

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	defer log.SetOutput(os.Stderr)
	log.Println("Application starting...")

	summaries := make(chan dispatch.Summary, 16)
	scheduler := dispatch.NewScheduler(interval, initialDelay, summaries, svc.jobs()...)
	go func() {
		scheduler.Run(ctx)
		close(summaries)
	}()

	switch ui {
	case uiTea:
		_, err = tea.NewProgram(tui.NewInitialModel(summaries, interval), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	default:
		app := tui.NewApp(summaries, interval)
		go func() {
			<-ctx.Done()
			app.Stop()
		}()
		err = app.Run()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	log.Println("Dashboard stopped. Exiting.")
	return nil
}
