package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassamadnan/tripmail/dispatch"
	"github.com/bassamadnan/tripmail/mailer"
)

var at = time.Date(2025, 6, 10, 10, 0, 0, 0, time.Local)

func sampleSummary() dispatch.Summary {
	return dispatch.Summary{
		Stream:   dispatch.StreamEnquiries,
		Finished: at,
		Outcomes: []dispatch.Outcome{
			{SheetRow: 2, Kind: dispatch.KindSent, Supplier: "DubaiCo", Recipient: "x@y.com",
				Message: mailer.Message{To: "x@y.com", Subject: "Trip Query for Dubai - 2 PAX", Body: "Dear DubaiCo,\n\nHello"}},
			{SheetRow: 3, Kind: dispatch.KindSkipped, Reason: dispatch.ReasonNoSupplier},
			{SheetRow: 4, Kind: dispatch.KindAlreadySent},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestEntriesFromHidesAlreadySent(t *testing.T) {
	entries := entriesFrom(sampleSummary())
	require.Len(t, entries, 2)
	assert.Equal(t, "Trip Query for Dubai - 2 PAX", entries[0].Title())
	assert.Equal(t, "sent · x@y.com", entries[0].Secondary())
	assert.Equal(t, "Row 3: no matching supplier", entries[1].Title())
	assert.Equal(t, "skipped · enquiries", entries[1].Secondary())
}

func TestEntryDetail(t *testing.T) {
	e := entriesFrom(sampleSummary())[0]
	d := e.Detail()
	assert.Contains(t, d, "Supplier: DubaiCo")
	assert.Contains(t, d, "To:       x@y.com")
	assert.True(t, strings.HasSuffix(d, "Dear DubaiCo,\n\nHello"))

	failed := Entry{Outcome: dispatch.Outcome{SheetRow: 9, Kind: dispatch.KindFailed, Err: errors.New("boom")}}
	assert.Contains(t, failed.Detail(), "Error:    boom")
	assert.Equal(t, "Row 9", failed.Title())
}

func TestModelShowsDashboardAfterFirstSummary(t *testing.T) {
	m := NewInitialModel(nil, 30*time.Second)
	m.now = func() time.Time { return at }
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, viewLoading, m.currentView)

	m = update(t, m, SummaryMsg(sampleSummary()))
	assert.Equal(t, viewDashboard, m.currentView)
	assert.Len(t, m.entries, 2)
	assert.Equal(t, 1, m.totals.Sent)
	assert.Equal(t, 1, m.totals.Skipped)
	assert.True(t, m.statusIsTemp)

	view := m.View()
	assert.Contains(t, view, "Activity")
	assert.Contains(t, view, "DubaiCo")
}

func TestModelKeepsSelectionWhenEntriesArrive(t *testing.T) {
	m := NewInitialModel(nil, time.Minute)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, SummaryMsg(sampleSummary()))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, m.selectedIdx)

	m = update(t, m, SummaryMsg(sampleSummary()))
	assert.Len(t, m.entries, 4)
	assert.Equal(t, 3, m.selectedIdx)
}

func TestModelNavigation(t *testing.T) {
	m := NewInitialModel(nil, time.Minute)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, SummaryMsg(sampleSummary()))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, viewFocused, m.currentView)
	assert.Contains(t, m.View(), "Full View")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewDashboard, m.currentView)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.selectedIdx)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestModelShowsCycleError(t *testing.T) {
	m := NewInitialModel(nil, time.Minute)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, SummaryMsg(dispatch.Summary{Stream: dispatch.StreamEnquiries, Err: errors.New("sheet gone")}))

	assert.True(t, m.statusIsError)
	assert.Contains(t, m.statusBarText, "sheet gone")
	assert.Equal(t, viewDashboard, m.currentView)
}

func TestModelSchedulerStopped(t *testing.T) {
	m := NewInitialModel(nil, time.Minute)
	m = update(t, m, SchedulerStoppedMsg{})
	assert.True(t, m.schedulerDone)
	assert.Contains(t, m.statusBarText, "Stopped")
}

func TestWaitForSummaryCmd(t *testing.T) {
	ch := make(chan dispatch.Summary, 1)
	ch <- dispatch.Summary{Stream: dispatch.StreamReminders}
	msg := waitForSummaryCmd(ch)()
	assert.Equal(t, dispatch.StreamReminders, dispatch.Summary(msg.(SummaryMsg)).Stream)

	close(ch)
	assert.IsType(t, SchedulerStoppedMsg{}, waitForSummaryCmd(ch)())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "he...", truncate("hello world", 5))
	assert.Equal(t, "h", truncate("hello", 1))
	assert.Equal(t, "", truncate("hello", 0))
}

func TestFormatEntryTime(t *testing.T) {
	assert.Equal(t, "10:00", formatEntryTime(at, at.Add(time.Hour)))
	assert.Equal(t, "Jun10", formatEntryTime(at, at.AddDate(0, 0, 2)))
	assert.Equal(t, "???", formatEntryTime(time.Time{}, at))
}
