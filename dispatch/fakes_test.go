package dispatch

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bassamadnan/tripmail/mailer"
	"github.com/bassamadnan/tripmail/sheets"
)

// fakeSheet serves one grid and applies writes back to it, so a second
// cycle sees what the first one wrote.
type fakeSheet struct {
	mu       sync.Mutex
	grid     [][]string
	writes   []sheets.CellUpdate
	readErr  error
	writeErr error
	reads    int
}

func newFakeSheet(rows ...[]string) *fakeSheet {
	return &fakeSheet{grid: rows}
}

func (f *fakeSheet) ReadRange(_ context.Context, _ string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([][]string, len(f.grid))
	for i, row := range f.grid {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (f *fakeSheet) WriteCells(_ context.Context, updates []sheets.CellUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, u := range updates {
		f.writes = append(f.writes, u)
		col, row := parseCell(u.Range)
		for len(f.grid) < row {
			f.grid = append(f.grid, nil)
		}
		r := f.grid[row-1]
		for len(r) <= col {
			r = append(r, "")
		}
		r[col] = u.Value
		f.grid[row-1] = r
	}
	return nil
}

func (f *fakeSheet) written() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.writes))
	for _, u := range f.writes {
		out[u.Range] = u.Value
	}
	return out
}

// parseCell turns "Sheet!B7" into (1, 7).
func parseCell(a1 string) (col, row int) {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	i := 0
	for i < len(a1) && a1[i] >= 'A' && a1[i] <= 'Z' {
		col = col*26 + int(a1[i]-'A'+1)
		i++
	}
	row, _ = strconv.Atoi(a1[i:])
	return col - 1, row
}

// recordingSender records every message and fails for addresses in failFor.
type recordingSender struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor map[string]error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[msg.To]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
