package sheets

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scope grants read/write access to spreadsheets.
const Scope = sheets.SpreadsheetsScope

// RAW keeps written timestamps as plain text, so they read back exactly as written.
const valueInputOption = "RAW"

// CellUpdate writes one value to one A1 address.
type CellUpdate struct {
	Range string
	Value string
}

// Client reads and writes raw cell values of a single spreadsheet.
type Client struct {
	srv           *sheets.Service
	spreadsheetID string
}

func NewClient(ctx context.Context, httpClient *http.Client, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is empty")
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// SpreadsheetID returns the ID this client is bound to.
func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// ReadRange returns the cells of an A1 range as strings. Trailing empty
// cells are omitted by the API, so rows may be ragged.
func (c *Client) ReadRange(ctx context.Context, a1 string) ([][]string, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, a1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", a1, err)
	}
	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = fmt.Sprint(cell)
		}
	}
	return grid, nil
}

// WriteCells writes all updates in one batch request.
func (c *Client) WriteCells(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  u.Range,
			Values: [][]interface{}{{u.Value}},
		})
	}
	_, err := c.srv.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write %d cell(s): %w", len(updates), err)
	}
	log.Printf("Sheets: wrote %d cell(s), first %s", len(updates), updates[0].Range)
	return nil
}
