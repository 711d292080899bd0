package dispatch

import (
	"fmt"
	"time"

	"github.com/bassamadnan/tripmail/mailer"
)

// Kind classifies what happened to one row during a cycle.
type Kind int

const (
	KindSent Kind = iota
	KindSkipped
	KindFailed
	KindAlreadySent
	// KindComposed is a message built but not sent, as returned by Preview.
	KindComposed
)

func (k Kind) String() string {
	switch k {
	case KindSent:
		return "sent"
	case KindSkipped:
		return "skipped"
	case KindFailed:
		return "failed"
	case KindAlreadySent:
		return "already sent"
	case KindComposed:
		return "composed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// SkipReason explains a data-quality skip. The row stays pending.
type SkipReason string

const (
	ReasonMissingField SkipReason = "missing country or destination"
	ReasonNoSupplier   SkipReason = "no matching supplier"
	ReasonNoEmail      SkipReason = "supplier has no email"
	ReasonBadDate      SkipReason = "unreadable date"
)

// Outcome is the result of processing one row.
type Outcome struct {
	SheetRow  int
	Kind      Kind
	Reason    SkipReason
	Err       error
	Supplier  string
	Recipient string
	Message   mailer.Message
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSent:
		return fmt.Sprintf("row %d: sent to %s (%s)", o.SheetRow, o.Recipient, o.Supplier)
	case KindSkipped:
		return fmt.Sprintf("row %d: skipped, %s", o.SheetRow, o.Reason)
	case KindFailed:
		return fmt.Sprintf("row %d: failed, %v", o.SheetRow, o.Err)
	}
	return fmt.Sprintf("row %d: %s", o.SheetRow, o.Kind)
}

// Stream names.
const (
	StreamEnquiries = "enquiries"
	StreamFollowUps = "follow-ups"
	StreamReminders = "reminders"
)

// Summary aggregates one pass of one stream.
type Summary struct {
	Stream   string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
	// NotDue counts rows of date-triggered streams whose date is not today.
	NotDue int
	// Err is set when the cycle aborted before processing rows.
	Err error
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Count returns the number of outcomes of kind k.
func (s Summary) Count(k Kind) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

func (s Summary) Sent() int        { return s.Count(KindSent) }
func (s Summary) Skipped() int     { return s.Count(KindSkipped) }
func (s Summary) Failed() int      { return s.Count(KindFailed) }
func (s Summary) AlreadySent() int { return s.Count(KindAlreadySent) }

func (s Summary) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: aborted: %v", s.Stream, s.Err)
	}
	return fmt.Sprintf("%s: %d sent, %d skipped, %d failed, %d already sent",
		s.Stream, s.Sent(), s.Skipped(), s.Failed(), s.AlreadySent())
}
