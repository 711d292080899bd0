package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bassamadnan/tripmail/compose"
	"github.com/bassamadnan/tripmail/mailer"
	"github.com/bassamadnan/tripmail/supplier"
)

var testNow = time.Date(2025, 6, 10, 10, 0, 0, 0, time.Local)

var enquiryHeader = []string{
	"Sent to Supplier", "Email Sent Timestamp", "Country", "Destination",
	"Lead Passenger Name", "Adults", "Scheduled Date", "Follow-up Status", "Follow-up Timestamp",
}

var supplierHeader = []string{"Supplier Name", "Email", "Country", "Destination"}

func testConfig() Config {
	return Config{
		EnquiryRange:    "CustomerEnquiry!A1:N1000",
		SupplierRange:   "Supplier!A1:E",
		SupplierColumns: supplier.DefaultColumns,
		StatusColumn:    "Sent to Supplier",
		TimestampColumn: "Email Sent Timestamp",
		SentMarker:      "Email Sent",
		FollowUp: FollowUpConfig{
			StatusColumn:    "Follow-up Status",
			TimestampColumn: "Follow-up Timestamp",
			DateColumn:      "Scheduled Date",
			DateLayout:      "2006-01-02",
		},
		From:    "agent@often.club",
		Company: compose.Company{Name: "often.club", Agent: "Priya"},
	}
}

func templateComposer(t *testing.T) *compose.Composer {
	t.Helper()
	c, err := compose.New(compose.ModeTemplate, nil, compose.Company{Name: "often.club"}, "")
	require.NoError(t, err)
	return c
}

type fixture struct {
	enquiries *fakeSheet
	suppliers *fakeSheet
	sender    *recordingSender
	d         *Dispatcher
}

func newFixture(t *testing.T, enquiryRows [][]string, supplierRows [][]string) *fixture {
	t.Helper()
	f := &fixture{
		enquiries: newFakeSheet(append([][]string{enquiryHeader}, enquiryRows...)...),
		suppliers: newFakeSheet(append([][]string{supplierHeader}, supplierRows...)...),
		sender:    &recordingSender{},
	}
	f.d = New(f.enquiries, f.suppliers, templateComposer(t), f.sender, testConfig(),
		WithSendInterval(0), WithClock(fixedClock(testNow)))
	return f
}

var dubaiCo = []string{"DubaiCo", "x@y.com", "UAE", "Dubai, Abu Dhabi"}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestRunCycleSendsAndMarks(t *testing.T) {
	f := newFixture(t,
		[][]string{{"", "", "UAE", "Dubai", "Ana Perez", "2"}},
		[][]string{dubaiCo},
	)

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, f.sender.count())
	msg := f.sender.sent[0]
	assert.Equal(t, "x@y.com", msg.To)
	assert.Equal(t, "agent@often.club", msg.From)
	assert.NotEmpty(t, msg.Subject)
	assert.NotEmpty(t, msg.Body)

	assert.Equal(t, map[string]string{
		"CustomerEnquiry!A2": "Email Sent",
		"CustomerEnquiry!B2": "2025-06-10 10:00:00",
	}, f.enquiries.written())

	assert.Equal(t, 1, sum.Sent())
	require.Len(t, sum.Outcomes, 1)
	assert.Equal(t, "DubaiCo", sum.Outcomes[0].Supplier)
	assert.Equal(t, StreamEnquiries, sum.Stream)
}

func TestRunCycleIsIdempotent(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"", "", "UAE", "Dubai"},
			{"", "", "uae", "abu dhabi"},
		},
		[][]string{dubaiCo},
	)

	first, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Sent())

	second, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent())
	assert.Equal(t, 2, second.AlreadySent())
	assert.Equal(t, 2, f.sender.count())
}

func TestRunCycleMarksWhenOneTransportDelivers(t *testing.T) {
	f := newFixture(t, [][]string{{"", "", "UAE", "Dubai"}}, [][]string{dubaiCo})
	outbox := &recordingSender{failFor: map[string]error{"x@y.com": errors.New("redis down")}}
	f.d.sender = mailer.NewCompositeSender(f.sender, outbox)

	first, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent())
	assert.Equal(t, "Email Sent", f.enquiries.written()["CustomerEnquiry!A2"])

	second, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent())
	assert.Equal(t, 1, second.AlreadySent())
	assert.Equal(t, 1, f.sender.count())
}

func TestRunCycleSkipsAlreadySentInAnyCase(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"Email Sent", "", "UAE", "Dubai"},
			{"EMAIL SENT", "", "UAE", "Dubai"},
			{"  email sent ", "", "UAE", "Dubai"},
		},
		[][]string{dubaiCo},
	)

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, f.sender.count())
	assert.Equal(t, 3, sum.AlreadySent())
	assert.Empty(t, f.enquiries.written())
}

func TestRunCycleSkipsBlankCountryOrDestination(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"", "", "", "Dubai"},
			{"", "", "UAE", "  "},
			{"", "", "", ""},
		},
		[][]string{dubaiCo},
	)
	// Third data row carries only a lead name.
	f.enquiries.grid[3] = []string{"", "", "", "", "Someone"}

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, f.sender.count())
	assert.Equal(t, 3, sum.Skipped())
	for _, o := range sum.Outcomes {
		assert.Equal(t, ReasonMissingField, o.Reason)
	}
}

func TestRunCycleWarnsWhenNoSupplierMatches(t *testing.T) {
	buf := captureLog(t)
	f := newFixture(t,
		[][]string{{"", "", "India", "Goa"}},
		[][]string{dubaiCo},
	)

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, f.sender.count())
	require.Len(t, sum.Outcomes, 1)
	assert.Equal(t, KindSkipped, sum.Outcomes[0].Kind)
	assert.Equal(t, ReasonNoSupplier, sum.Outcomes[0].Reason)
	assert.Empty(t, f.enquiries.written())
	assert.Contains(t, buf.String(), "row 2 skipped")
}

func TestRunCycleSkipsSupplierWithoutEmail(t *testing.T) {
	f := newFixture(t,
		[][]string{{"", "", "UAE", "Dubai"}},
		[][]string{{"NoMail", "", "UAE", "Dubai"}},
	)

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, f.sender.count())
	assert.Equal(t, ReasonNoEmail, sum.Outcomes[0].Reason)
	assert.Equal(t, "NoMail", sum.Outcomes[0].Supplier)
}

func TestRunCycleFirstMatchingSupplierWins(t *testing.T) {
	f := newFixture(t,
		[][]string{{"", "", "UAE", "Dubai"}},
		[][]string{
			{"First", "first@y.com", "UAE", "Dubai"},
			{"Second", "second@y.com", "UAE", "Dubai"},
		},
	)

	_, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.sender.count())
	assert.Equal(t, "first@y.com", f.sender.sent[0].To)
}

func TestRunCycleContinuesAfterSendFailure(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"", "", "UAE", "Dubai"},
			{"", "", "India", "Goa"},
		},
		[][]string{
			dubaiCo,
			{"GoaCo", "goa@y.com", "India", "Goa"},
		},
	)
	f.sender.failFor = map[string]error{"x@y.com": errors.New("connection reset")}

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed())
	assert.Equal(t, 1, sum.Sent())
	assert.Equal(t, "goa@y.com", f.sender.sent[0].To)

	written := f.enquiries.written()
	assert.NotContains(t, written, "CustomerEnquiry!A2")
	assert.Equal(t, "Email Sent", written["CustomerEnquiry!A3"])
}

func TestRunCycleComposeFailureLeavesRowPending(t *testing.T) {
	f := newFixture(t, [][]string{{"", "", "UAE", "Dubai"}}, [][]string{dubaiCo})
	composer := &mockComposer{}
	composer.On("Compose", mock.Anything, "DubaiCo", mock.Anything).
		Return(compose.Message{}, errors.New("quota exceeded"))
	f.d.composer = composer

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed())
	assert.ErrorContains(t, sum.Outcomes[0].Err, "quota exceeded")
	assert.Equal(t, 0, f.sender.count())
	assert.Empty(t, f.enquiries.written())
	composer.AssertExpectations(t)
}

func TestRunCycleReportsFailedStatusWrite(t *testing.T) {
	f := newFixture(t, [][]string{{"", "", "UAE", "Dubai"}}, [][]string{dubaiCo})
	f.enquiries.writeErr = errors.New("permission denied")

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.sender.count())
	assert.Equal(t, 1, sum.Failed())
	assert.ErrorContains(t, sum.Outcomes[0].Err, "mark sent")
}

func TestRunCycleAddressesRowsAfterDroppedBlankRows(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"", "", "", ""},
			{"", "", "UAE", "Dubai"},
		},
		[][]string{dubaiCo},
	)

	_, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Email Sent", f.enquiries.written()["CustomerEnquiry!A3"])
}

func TestRunCycleWithoutEnquiriesIsNoop(t *testing.T) {
	f := newFixture(t, nil, [][]string{dubaiCo})

	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum.Outcomes)
	assert.Equal(t, 0, f.suppliers.reads)
}

func TestRunCycleAbortsWhenStatusColumnMissing(t *testing.T) {
	f := newFixture(t, nil, [][]string{dubaiCo})
	f.enquiries.grid = [][]string{
		{"Country", "Destination"},
		{"UAE", "Dubai"},
	}

	sum, err := f.d.RunCycle(context.Background())
	require.ErrorIs(t, err, ErrColumnMissing)
	assert.Equal(t, err, sum.Err)
	assert.Equal(t, 0, f.sender.count())
}

func TestRunCycleAbortsOnReadFailure(t *testing.T) {
	f := newFixture(t, [][]string{{"", "", "UAE", "Dubai"}}, [][]string{dubaiCo})
	f.suppliers.readErr = errors.New("quota")

	_, err := f.d.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read suppliers")
	assert.Equal(t, 0, f.sender.count())
}

func TestRunCycleStopsWhenContextCancelled(t *testing.T) {
	f := newFixture(t, [][]string{{"", "", "UAE", "Dubai"}}, [][]string{dubaiCo})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.d.RunCycle(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.sender.count())
}

func TestRunFollowUpsFiresOnlyOnScheduledDate(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"Email Sent", "", "UAE", "Dubai", "Ana", "2", "2025-06-10"},
			{"Email Sent", "", "UAE", "Dubai", "Ben", "2", "2025-06-09"},
			{"Email Sent", "", "UAE", "Dubai", "Cid", "2", "2025-06-11"},
			{"Email Sent", "", "UAE", "Dubai", "Dee", "2", ""},
			{"Email Sent", "", "UAE", "Dubai", "Eve", "2", "next week"},
		},
		[][]string{dubaiCo},
	)

	sum, err := f.d.RunFollowUps(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, f.sender.count())
	assert.Contains(t, f.sender.sent[0].Subject, "Ana")
	assert.Equal(t, 1, sum.Sent())
	assert.Equal(t, 3, sum.NotDue)
	assert.Equal(t, 1, sum.Skipped())
	assert.Equal(t, StreamFollowUps, sum.Stream)

	written := f.enquiries.written()
	assert.Equal(t, "Email Sent", written["CustomerEnquiry!H2"])
	assert.Equal(t, "2025-06-10 10:00:00", written["CustomerEnquiry!I2"])

	again, err := f.d.RunFollowUps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Sent())
	assert.Equal(t, 1, f.sender.count())
}

func TestRunFollowUpsUsesClockLocation(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"Email Sent", "", "UAE", "Dubai", "Ana", "2", "2025-06-10"},
			{"Email Sent", "", "UAE", "Dubai", "Ben", "2", "2025-06-11"},
		},
		[][]string{dubaiCo},
	)
	honolulu := time.FixedZone("HST", -10*60*60)
	f.d.now = fixedClock(time.Date(2025, 6, 10, 23, 30, 0, 0, honolulu))

	sum, err := f.d.RunFollowUps(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, sum.Sent())
	assert.Contains(t, f.sender.sent[0].Subject, "Ana")
	assert.Equal(t, 1, sum.NotDue)
}

func TestFollowUpStatusIsIndependent(t *testing.T) {
	f := newFixture(t,
		[][]string{{"", "", "UAE", "Dubai", "Ana", "2", "2025-06-10"}},
		[][]string{dubaiCo},
	)

	_, err := f.d.RunFollowUps(context.Background())
	require.NoError(t, err)
	sum, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Sent())
	assert.Equal(t, 2, f.sender.count())
}

func TestPreviewDoesNotSend(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"", "", "India", "Goa"},
			{"", "", "UAE", "Dubai", "Ana Perez", "2"},
		},
		[][]string{dubaiCo},
	)

	o, err := f.d.Preview(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, KindComposed, o.Kind)
	assert.Equal(t, "x@y.com", o.Message.To)
	assert.Contains(t, o.Message.Body, "DubaiCo")
	assert.Equal(t, 0, f.sender.count())
	assert.Empty(t, f.enquiries.written())

	o, err = f.d.Preview(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoSupplier, o.Reason)

	_, err = f.d.Preview(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestSendPacing(t *testing.T) {
	f := newFixture(t,
		[][]string{
			{"", "", "UAE", "Dubai"},
			{"", "", "UAE", "Dubai"},
			{"", "", "UAE", "Dubai"},
		},
		[][]string{dubaiCo},
	)
	WithSendInterval(50 * time.Millisecond)(f.d)

	start := time.Now()
	_, err := f.d.RunCycle(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, 3, f.sender.count())
}

type mockComposer struct {
	mock.Mock
}

func (m *mockComposer) Compose(ctx context.Context, supplierName string, trip compose.Trip) (compose.Message, error) {
	args := m.Called(ctx, supplierName, trip)
	return args.Get(0).(compose.Message), args.Error(1)
}
