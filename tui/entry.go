package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bassamadnan/tripmail/dispatch"
)

// Entry is one row outcome shown in the activity list.
type Entry struct {
	Stream  string
	At      time.Time
	Outcome dispatch.Outcome
}

// entriesFrom lists the outcomes worth showing. Rows that were already sent
// before the cycle are counted but not listed.
func entriesFrom(sum dispatch.Summary) []Entry {
	var out []Entry
	for _, o := range sum.Outcomes {
		if o.Kind == dispatch.KindAlreadySent {
			continue
		}
		out = append(out, Entry{Stream: sum.Stream, At: sum.Finished, Outcome: o})
	}
	return out
}

// Title is the one-line label of an entry.
func (e Entry) Title() string {
	o := e.Outcome
	switch o.Kind {
	case dispatch.KindSent, dispatch.KindFailed:
		if o.Message.Subject != "" {
			return o.Message.Subject
		}
	case dispatch.KindSkipped:
		return fmt.Sprintf("Row %d: %s", o.SheetRow, o.Reason)
	}
	return fmt.Sprintf("Row %d", o.SheetRow)
}

// Secondary is the "kind · recipient" line under the title.
func (e Entry) Secondary() string {
	who := e.Outcome.Recipient
	if who == "" {
		who = e.Stream
	}
	return fmt.Sprintf("%s · %s", e.Outcome.Kind, who)
}

// Detail renders the full entry as plain text lines.
func (e Entry) Detail() string {
	o := e.Outcome
	var b strings.Builder
	fmt.Fprintf(&b, "Stream:   %s\n", e.Stream)
	fmt.Fprintf(&b, "Row:      %d\n", o.SheetRow)
	fmt.Fprintf(&b, "Result:   %s\n", o.Kind)
	if o.Reason != "" {
		fmt.Fprintf(&b, "Reason:   %s\n", o.Reason)
	}
	if o.Err != nil {
		fmt.Fprintf(&b, "Error:    %v\n", o.Err)
	}
	if o.Supplier != "" {
		fmt.Fprintf(&b, "Supplier: %s\n", o.Supplier)
	}
	if o.Message.To != "" {
		fmt.Fprintf(&b, "To:       %s\n", o.Message.To)
	}
	if len(o.Message.Cc) > 0 {
		fmt.Fprintf(&b, "Cc:       %s\n", strings.Join(o.Message.Cc, ", "))
	}
	if !e.At.IsZero() {
		fmt.Fprintf(&b, "At:       %s\n", e.At.Local().Format(time.RFC1123))
	}
	if o.Message.Subject != "" {
		fmt.Fprintf(&b, "Subject:  %s\n", o.Message.Subject)
	}
	if o.Message.Body != "" {
		b.WriteString("\n")
		b.WriteString(strings.ReplaceAll(o.Message.Body, "\r\n", "\n"))
	}
	return b.String()
}

// Totals accumulates counts across cycles for the status bar.
type Totals struct {
	Sent, Skipped, Failed int
	Cycles                int
	LastCycle             time.Time
	LastErr               error
}

func (t *Totals) Add(sum dispatch.Summary) {
	t.Cycles++
	t.LastCycle = sum.Finished
	t.LastErr = sum.Err
	t.Sent += sum.Sent()
	t.Skipped += sum.Skipped()
	t.Failed += sum.Failed()
}

func (t Totals) String() string {
	return fmt.Sprintf("%d sent, %d skipped, %d failed", t.Sent, t.Skipped, t.Failed)
}
