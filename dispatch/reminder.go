package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/bassamadnan/tripmail/compose"
	"github.com/bassamadnan/tripmail/mailer"
	"github.com/bassamadnan/tripmail/sheets"
	"github.com/bassamadnan/tripmail/table"
)

// ReminderConfig addresses the reminder sheet.
type ReminderConfig struct {
	Range          string
	Recipient      string
	From           string
	DaysBefore     []int
	DoneMarker     string
	NameColumn     string
	DestColumn     string
	CheckinColumn  string
	StatusColumn   string
	LastSentColumn string
	CheckinLayout  string
}

// Reminder sends check-in countdown reminders to the agent.
type Reminder struct {
	sheet  Sheet
	sender mailer.Sender
	cfg    ReminderConfig
	now    func() time.Time
}

func NewReminder(sheet Sheet, sender mailer.Sender, cfg ReminderConfig, now func() time.Time) *Reminder {
	if cfg.CheckinLayout == "" {
		cfg.CheckinLayout = "2006-01-02"
	}
	if now == nil {
		now = time.Now
	}
	return &Reminder{sheet: sheet, sender: sender, cfg: cfg, now: now}
}

// Run sends one reminder per row whose check-in is a configured number of
// days away, unless the booking is done or a reminder already went out today.
func (r *Reminder) Run(ctx context.Context) (sum Summary, err error) {
	sum = Summary{Stream: StreamReminders, Started: r.now()}
	defer func() { sum.Finished = r.now() }()

	if r.cfg.Recipient == "" {
		sum.Err = errors.New("reminder recipient not configured")
		return sum, sum.Err
	}
	grid, err := r.sheet.ReadRange(ctx, r.cfg.Range)
	if err != nil {
		sum.Err = fmt.Errorf("read reminders: %w", err)
		return sum, sum.Err
	}
	t, ok := table.Normalize(grid)
	if !ok {
		log.Printf("Reminder: no data found in %s", r.cfg.Range)
		return sum, nil
	}
	lastIdx := t.Column(r.cfg.LastSentColumn)
	if r.cfg.LastSentColumn == "" || lastIdx < 0 {
		sum.Err = fmt.Errorf("last reminder column %q: %w", r.cfg.LastSentColumn, ErrColumnMissing)
		return sum, sum.Err
	}

	now := r.now()
	today := now.Format("2006-01-02")
	sheet := sheets.SheetName(r.cfg.Range)
	for _, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if r.cfg.DoneMarker != "" && strings.EqualFold(row.Get(r.cfg.StatusColumn), r.cfg.DoneMarker) {
			sum.add(Outcome{SheetRow: row.SheetRow, Kind: KindAlreadySent})
			continue
		}
		name, dest, checkin := row.Get(r.cfg.NameColumn), row.Get(r.cfg.DestColumn), row.Get(r.cfg.CheckinColumn)
		if checkin == "" {
			sum.NotDue++
			continue
		}
		date, err := time.ParseInLocation(r.cfg.CheckinLayout, checkin, now.Location())
		if err != nil {
			log.Printf("Reminder: row %d skipped: %s %q", row.SheetRow, ReasonBadDate, checkin)
			sum.add(Outcome{SheetRow: row.SheetRow, Kind: KindSkipped, Reason: ReasonBadDate})
			continue
		}
		if !slices.Contains(r.cfg.DaysBefore, daysUntil(now, date)) {
			sum.NotDue++
			continue
		}
		if strings.HasPrefix(row.Get(r.cfg.LastSentColumn), today) {
			sum.add(Outcome{SheetRow: row.SheetRow, Kind: KindAlreadySent})
			continue
		}

		content := compose.Reminder(name, dest, checkin)
		o := Outcome{
			SheetRow:  row.SheetRow,
			Supplier:  name,
			Recipient: r.cfg.Recipient,
			Message: mailer.Message{
				From:    r.cfg.From,
				To:      r.cfg.Recipient,
				Subject: content.Subject,
				Body:    content.Body,
			},
		}
		if err := r.sender.Send(ctx, o.Message); err != nil {
			log.Printf("Reminder: row %d failed: %v", row.SheetRow, err)
			o.Kind, o.Err = KindFailed, err
			sum.add(o)
			continue
		}
		o.Kind = KindSent
		err = r.sheet.WriteCells(ctx, []sheets.CellUpdate{{
			Range: sheets.Cell(sheet, lastIdx, row.SheetRow),
			Value: r.now().Format(TimestampLayout),
		}})
		if err != nil {
			log.Printf("Reminder: row %d sent but not recorded: %v", row.SheetRow, err)
			o.Kind, o.Err = KindFailed, err
		} else {
			log.Printf("Reminder: sent for %s (row %d)", name, row.SheetRow)
		}
		sum.add(o)
	}

	log.Printf("Reminder: %s", sum)
	return sum, nil
}

// daysUntil counts calendar days from now to date.
func daysUntil(now, date time.Time) int {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = date.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
