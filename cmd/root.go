package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/tripmail/config"
)

const (
	defaultSettingsPath = "config/settings.json"
	defaultEnvPath      = ".env"
	logFilePath         = "tripmail.log"
)

var (
	settingsPath string
	envPath      string
)

var rootCmd = &cobra.Command{
	Use:   "tripmail",
	Short: "Match travel enquiries to suppliers and email them from a Google Sheet",
	Long: `tripmail polls a Google Sheet of customer enquiries, finds the supplier
covering each enquiry's country and destination, emails them and marks the row
as sent. Follow-up emails and check-in reminders run on the same schedule.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", defaultSettingsPath, "settings file, created with defaults when missing")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", defaultEnvPath, "dotenv file with sheet IDs and secrets")

	rootCmd.AddCommand(runCmd, onceCmd, remindCmd, previewCmd)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings applies the dotenv file, loads the settings file and overlays
// the environment. Invalid settings are a fatal setup error.
func loadSettings() (config.Settings, error) {
	if err := config.LoadEnv(envPath); err != nil {
		return config.Settings{}, err
	}
	m, err := config.NewManager(settingsPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	s := m.GetSettings()
	config.ApplyEnv(&s)
	if err := s.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("invalid settings in %s: %w", settingsPath, err)
	}
	return s, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Println("Shutdown signal received, cancelling context...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
