package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/tripmail/dispatch"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run every enabled stream once and print the summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadSettings()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		svc, err := newServices(ctx, st)
		if err != nil {
			return err
		}
		defer svc.Close()

		sums := dispatch.NewScheduler(0, 0, nil, svc.jobs()...).RunOnce(ctx)
		if err := printSummaries(cmd.OutOrStdout(), sums); err != nil {
			return err
		}
		return ctx.Err()
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send today's check-in reminders once",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadSettings()
		if err != nil {
			return err
		}
		if st.Reminders.Recipient == "" {
			return errors.New("reminder recipient not configured (set REMINDER_RECIPIENT)")
		}
		st.Reminders.Enabled = true
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		svc, err := newServices(ctx, st)
		if err != nil {
			return err
		}
		defer svc.Close()

		return runAndPrint(ctx, cmd.OutOrStdout(), svc.reminder.Run)
	},
}

var previewRow int

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compose the email for one sheet row without sending it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if previewRow <= 1 {
			return fmt.Errorf("--row must be a data row (2 or more), got %d", previewRow)
		}
		st, err := loadSettings()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		svc, err := newServices(ctx, st)
		if err != nil {
			return err
		}
		defer svc.Close()

		o, err := svc.dispatcher.Preview(ctx, previewRow)
		if err != nil {
			return err
		}
		printPreview(cmd.OutOrStdout(), o)
		return nil
	},
}

func init() {
	previewCmd.Flags().IntVar(&previewRow, "row", 0, "1-based sheet row of the enquiry")
	_ = previewCmd.MarkFlagRequired("row")
}

// runAndPrint runs job once and prints its summary. The cycle error wins;
// otherwise the job's own error, such as a cancellation, is returned.
func runAndPrint(ctx context.Context, w io.Writer, job dispatch.Job) error {
	sum, err := job(ctx)
	if perr := printSummaries(w, []dispatch.Summary{sum}); perr != nil {
		return perr
	}
	return err
}

// printSummaries writes one line per summary plus one per listed outcome and
// returns the first cycle error.
func printSummaries(w io.Writer, sums []dispatch.Summary) error {
	var first error
	for _, sum := range sums {
		fmt.Fprintf(w, "%s (%s)\n", sum, sum.Finished.Sub(sum.Started).Round(time.Millisecond))
		for _, o := range sum.Outcomes {
			if o.Kind != dispatch.KindAlreadySent {
				fmt.Fprintf(w, "  %s\n", o)
			}
		}
		if sum.Err != nil && first == nil {
			first = sum.Err
		}
	}
	return first
}

func printPreview(w io.Writer, o dispatch.Outcome) {
	if o.Kind == dispatch.KindSkipped || o.Kind == dispatch.KindFailed {
		fmt.Fprintln(w, o)
		return
	}
	fmt.Fprintf(w, "Row:      %d\nSupplier: %s\nTo:       %s\n", o.SheetRow, o.Supplier, o.Message.To)
	if len(o.Message.Cc) > 0 {
		fmt.Fprintf(w, "Cc:       %v\n", o.Message.Cc)
	}
	fmt.Fprintf(w, "Subject:  %s\n\n%s\n", o.Message.Subject, o.Message.Body)
}
