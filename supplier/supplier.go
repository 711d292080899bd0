package supplier

import (
	"strings"

	"github.com/bassamadnan/tripmail/table"
)

// Columns names the supplier sheet headers.
type Columns struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Destination string `json:"destination"`
}

// DefaultColumns matches the "Supplier!A1:E" layout.
var DefaultColumns = Columns{
	Name:        "Supplier Name",
	Email:       "Email",
	Country:     "Country",
	Destination: "Destination",
}

// Supplier is one vendor row. Country and Destination are filter strings,
// usually comma separated lists such as "India, UAE".
type Supplier struct {
	Name        string
	Email       string
	Country     string
	Destination string
	SheetRow    int
}

// Index holds suppliers in sheet order. It is rebuilt every cycle.
type Index struct {
	suppliers []Supplier
}

// FromTable builds an Index from a normalized supplier table.
func FromTable(t table.Table, cols Columns) *Index {
	idx := &Index{suppliers: make([]Supplier, 0, len(t.Rows))}
	for _, row := range t.Rows {
		idx.suppliers = append(idx.suppliers, Supplier{
			Name:        row.Get(cols.Name),
			Email:       row.Get(cols.Email),
			Country:     row.Get(cols.Country),
			Destination: row.Get(cols.Destination),
			SheetRow:    row.SheetRow,
		})
	}
	return idx
}

// New builds an Index from already parsed suppliers.
func New(suppliers ...Supplier) *Index {
	return &Index{suppliers: suppliers}
}

// Len returns the number of suppliers.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.suppliers)
}

// Find returns the first supplier whose country field contains country and
// whose destination field contains destination, both compared as
// case-insensitive substrings.
func (i *Index) Find(country, destination string) (Supplier, bool) {
	country = strings.ToLower(strings.TrimSpace(country))
	destination = strings.ToLower(strings.TrimSpace(destination))
	if country == "" || destination == "" || i == nil {
		return Supplier{}, false
	}
	for _, s := range i.suppliers {
		if contains(s.Country, country) && contains(s.Destination, destination) {
			return s, true
		}
	}
	return Supplier{}, false
}

// contains expects needle already lower-cased and non-empty.
func contains(field, needle string) bool {
	if strings.TrimSpace(field) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), needle)
}
