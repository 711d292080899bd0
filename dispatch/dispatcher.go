package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/bassamadnan/tripmail/compose"
	"github.com/bassamadnan/tripmail/mailer"
	"github.com/bassamadnan/tripmail/sheets"
	"github.com/bassamadnan/tripmail/supplier"
	"github.com/bassamadnan/tripmail/table"
)

// TimestampLayout is used for every timestamp written back to a sheet.
const TimestampLayout = "2006-01-02 15:04:05"

// Sheet is the spreadsheet collaborator. *sheets.Client implements it.
type Sheet interface {
	ReadRange(ctx context.Context, a1 string) ([][]string, error)
	WriteCells(ctx context.Context, updates []sheets.CellUpdate) error
}

// Composer builds the first email to a supplier. *compose.Composer implements it.
type Composer interface {
	Compose(ctx context.Context, supplierName string, trip compose.Trip) (compose.Message, error)
}

// ErrColumnMissing is returned when a configured status column is not in the header.
var ErrColumnMissing = errors.New("column missing from header")

// Config addresses the sheets and columns a Dispatcher works on.
type Config struct {
	EnquiryRange    string
	SupplierRange   string
	SupplierColumns supplier.Columns
	StatusColumn    string
	TimestampColumn string
	SentMarker      string

	FollowUp FollowUpConfig

	From        string
	Cc          []string
	Attachments []string
	Company     compose.Company
}

// FollowUpConfig configures the scheduled-date stream.
type FollowUpConfig struct {
	StatusColumn    string
	TimestampColumn string
	DateColumn      string
	DateLayout      string
}

// Dispatcher runs dispatch cycles over the enquiry sheet.
type Dispatcher struct {
	enquiries Sheet
	suppliers Sheet
	composer  Composer
	sender    mailer.Sender
	cfg       Config
	limiter   *rate.Limiter
	now       func() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithSendInterval paces sends to at most one per interval. Zero disables pacing.
func WithSendInterval(d time.Duration) Option {
	return func(di *Dispatcher) {
		di.limiter = newLimiter(d)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func New(enquiries, suppliers Sheet, composer Composer, sender mailer.Sender, cfg Config, opts ...Option) *Dispatcher {
	if cfg.FollowUp.DateLayout == "" {
		cfg.FollowUp.DateLayout = "2006-01-02"
	}
	d := &Dispatcher{
		enquiries: enquiries,
		suppliers: suppliers,
		composer:  composer,
		sender:    sender,
		cfg:       cfg,
		limiter:   newLimiter(time.Second),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// stream describes one independently-stateful pass over the enquiry table.
type stream struct {
	name         string
	statusCol    string
	timestampCol string
	// due filters rows before matching. ok=false with an empty reason means
	// the row is simply not scheduled for today.
	due     func(row table.Row) (ok bool, reason SkipReason)
	message func(ctx context.Context, s supplier.Supplier, trip compose.Trip) (compose.Message, error)
}

// RunCycle performs one pass of the enquiry stream: every pending row with a
// matching supplier is emailed once and marked sent.
func (d *Dispatcher) RunCycle(ctx context.Context) (Summary, error) {
	return d.run(ctx, d.enquiryStream())
}

func (d *Dispatcher) enquiryStream() stream {
	return stream{
		name:         StreamEnquiries,
		statusCol:    d.cfg.StatusColumn,
		timestampCol: d.cfg.TimestampColumn,
		due:          func(table.Row) (bool, SkipReason) { return true, "" },
		message: func(ctx context.Context, s supplier.Supplier, trip compose.Trip) (compose.Message, error) {
			return d.composer.Compose(ctx, s.Name, trip)
		},
	}
}

// RunFollowUps performs one pass of the follow-up stream. A row fires only
// when its scheduled date is today; earlier dates are never caught up.
func (d *Dispatcher) RunFollowUps(ctx context.Context) (Summary, error) {
	fu := d.cfg.FollowUp
	return d.run(ctx, stream{
		name:         StreamFollowUps,
		statusCol:    fu.StatusColumn,
		timestampCol: fu.TimestampColumn,
		due: func(row table.Row) (bool, SkipReason) {
			raw := row.Get(fu.DateColumn)
			if raw == "" {
				return false, ""
			}
			date, err := time.ParseInLocation(fu.DateLayout, raw, d.now().Location())
			if err != nil {
				return false, ReasonBadDate
			}
			return sameDay(date, d.now()), ""
		},
		message: func(_ context.Context, s supplier.Supplier, trip compose.Trip) (compose.Message, error) {
			return compose.FollowUp(s.Name, d.cfg.Company, trip), nil
		},
	})
}

func (d *Dispatcher) run(ctx context.Context, st stream) (sum Summary, err error) {
	sum = Summary{Stream: st.name, Started: d.now()}
	defer func() { sum.Finished = d.now() }()

	grid, err := d.enquiries.ReadRange(ctx, d.cfg.EnquiryRange)
	if err != nil {
		sum.Err = fmt.Errorf("read enquiries: %w", err)
		return sum, sum.Err
	}
	enquiries, ok := table.Normalize(grid)
	if !ok {
		log.Printf("Dispatch: no enquiry data found in %s", d.cfg.EnquiryRange)
		return sum, nil
	}

	statusIdx := -1
	if st.statusCol != "" {
		statusIdx = enquiries.Column(st.statusCol)
	}
	if statusIdx < 0 {
		sum.Err = fmt.Errorf("%s status column %q: %w", st.name, st.statusCol, ErrColumnMissing)
		return sum, sum.Err
	}
	timestampIdx := -1
	if st.timestampCol != "" {
		timestampIdx = enquiries.Column(st.timestampCol)
	}

	suppliers, err := d.loadSuppliers(ctx)
	if err != nil {
		sum.Err = err
		return sum, err
	}
	if suppliers.Len() == 0 {
		log.Printf("Dispatch: no suppliers found in %s", d.cfg.SupplierRange)
	}

	sheet := sheets.SheetName(d.cfg.EnquiryRange)
	for _, row := range enquiries.Rows {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if ParseStatus(row.Get(st.statusCol), d.cfg.SentMarker) == Sent {
			sum.add(Outcome{SheetRow: row.SheetRow, Kind: KindAlreadySent})
			continue
		}
		due, reason := st.due(row)
		if !due {
			if reason == "" {
				sum.NotDue++
				continue
			}
			log.Printf("Dispatch: %s row %d skipped: %s", st.name, row.SheetRow, reason)
			sum.add(Outcome{SheetRow: row.SheetRow, Kind: KindSkipped, Reason: reason})
			continue
		}

		o, ready := d.prepare(ctx, st, row, suppliers)
		if ready {
			o = d.send(ctx, st, o)
		}
		if o.Kind == KindSent {
			d.markSent(ctx, &o, sheet, row.SheetRow, statusIdx, timestampIdx)
		}
		sum.add(o)
	}

	log.Printf("Dispatch: %s", sum)
	return sum, nil
}

// prepare matches and composes one row. ready is false when o is already final.
func (d *Dispatcher) prepare(ctx context.Context, st stream, row table.Row, suppliers *supplier.Index) (o Outcome, ready bool) {
	o = Outcome{SheetRow: row.SheetRow}
	trip := compose.TripFromRow(row)

	if trip.Country == "" || trip.Destination == "" {
		log.Printf("Dispatch: row %d skipped: %s", row.SheetRow, ReasonMissingField)
		o.Kind, o.Reason = KindSkipped, ReasonMissingField
		return o, false
	}
	s, ok := suppliers.Find(trip.Country, trip.Destination)
	if !ok {
		log.Printf("Dispatch: row %d skipped: no supplier for %s / %s", row.SheetRow, trip.Country, trip.Destination)
		o.Kind, o.Reason = KindSkipped, ReasonNoSupplier
		return o, false
	}
	o.Supplier = s.Name
	if s.Email == "" {
		log.Printf("Dispatch: row %d skipped: supplier %q has no email", row.SheetRow, s.Name)
		o.Kind, o.Reason = KindSkipped, ReasonNoEmail
		return o, false
	}
	o.Recipient = s.Email

	content, err := st.message(ctx, s, trip)
	if err != nil {
		return d.fail(o, fmt.Errorf("compose: %w", err)), false
	}
	o.Message = mailer.Message{
		From:        d.cfg.From,
		To:          s.Email,
		Cc:          d.cfg.Cc,
		Subject:     content.Subject,
		Body:        content.Body,
		HTML:        content.HTML,
		Attachments: d.cfg.Attachments,
	}
	o.Kind = KindComposed
	return o, true
}

func (d *Dispatcher) send(ctx context.Context, st stream, o Outcome) Outcome {
	if err := d.limiter.Wait(ctx); err != nil {
		return d.fail(o, err)
	}
	if err := d.sender.Send(ctx, o.Message); err != nil {
		return d.fail(o, fmt.Errorf("send: %w", err))
	}
	log.Printf("Dispatch: %s row %d sent to %s (%s)", st.name, o.SheetRow, o.Recipient, o.Supplier)
	o.Kind = KindSent
	return o
}

// markSent writes the marker and timestamp. A failed write is reported on
// the outcome; the email has already gone out and may be resent next cycle.
func (d *Dispatcher) markSent(ctx context.Context, o *Outcome, sheet string, sheetRow, statusIdx, timestampIdx int) {
	updates := []sheets.CellUpdate{{Range: sheets.Cell(sheet, statusIdx, sheetRow), Value: d.cfg.SentMarker}}
	if timestampIdx >= 0 {
		updates = append(updates, sheets.CellUpdate{
			Range: sheets.Cell(sheet, timestampIdx, sheetRow),
			Value: d.now().Format(TimestampLayout),
		})
	}
	if err := d.enquiries.WriteCells(ctx, updates); err != nil {
		*o = d.fail(*o, fmt.Errorf("mark sent: %w", err))
	}
}

func (d *Dispatcher) fail(o Outcome, err error) Outcome {
	log.Printf("Dispatch: row %d failed: %v", o.SheetRow, err)
	o.Kind, o.Err = KindFailed, err
	return o
}

// loadSuppliers reads the supplier sheet. Suppliers are never cached across cycles.
func (d *Dispatcher) loadSuppliers(ctx context.Context) (*supplier.Index, error) {
	grid, err := d.suppliers.ReadRange(ctx, d.cfg.SupplierRange)
	if err != nil {
		return nil, fmt.Errorf("read suppliers: %w", err)
	}
	t, ok := table.Normalize(grid)
	if !ok {
		return supplier.New(), nil
	}
	return supplier.FromTable(t, d.cfg.SupplierColumns), nil
}

// ErrRowNotFound is returned by Preview for a row that is not in the table.
var ErrRowNotFound = errors.New("row not found")

// Preview matches and composes the enquiry at sheetRow without sending or
// writing anything. The returned outcome carries the message when the row
// could be composed, otherwise the skip or failure.
func (d *Dispatcher) Preview(ctx context.Context, sheetRow int) (Outcome, error) {
	grid, err := d.enquiries.ReadRange(ctx, d.cfg.EnquiryRange)
	if err != nil {
		return Outcome{}, fmt.Errorf("read enquiries: %w", err)
	}
	enquiries, _ := table.Normalize(grid)
	suppliers, err := d.loadSuppliers(ctx)
	if err != nil {
		return Outcome{}, err
	}

	for _, row := range enquiries.Rows {
		if row.SheetRow != sheetRow {
			continue
		}
		o, _ := d.prepare(ctx, d.enquiryStream(), row, suppliers)
		return o, nil
	}
	return Outcome{}, fmt.Errorf("sheet row %d: %w", sheetRow, ErrRowNotFound)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
