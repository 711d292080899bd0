package compose

import (
	"strconv"
	"strings"

	"github.com/bassamadnan/tripmail/table"
)

// NotSpecified is the placeholder rendered for missing optional fields.
const NotSpecified = "N/A"

// Enquiry sheet column names.
const (
	ColCountry       = "Country"
	ColDestination   = "Destination"
	ColLeadName      = "Lead Passenger Name"
	ColAdults        = "Adults"
	ColChildren      = "Children"
	ColChildrenAges  = "Children Ages"
	ColAccommodation = "Accommodation Type"
	ColRooms         = "Room Configuration"
	ColRoomType      = "Room Type"
	ColCheckin       = "Checkin"
	ColCheckout      = "Checkout"
	ColNights        = "Nights"
	ColActivities    = "Activities"
	ColQuery         = "Query"
	ColQuestion      = "Question"
	ColQuestions     = "Questions"
	ColOptions       = "Options"
	ColQuote         = "Quote"
)

// Trip is the structured view of an enquiry row used to render emails.
type Trip struct {
	Country       string
	Destination   string
	LeadName      string
	Adults        int
	Children      int
	ChildrenAges  string
	Accommodation string
	Rooms         string
	RoomType      string
	Checkin       string
	Checkout      string
	Nights        string
	Activities    string
	Query         string
	Question      string
	Questions     string
	Options       string
	WantsQuote    bool
}

// TripFromRow reads a Trip from an enquiry row. Optional text fields fall
// back to NotSpecified.
func TripFromRow(row table.Row) Trip {
	return Trip{
		Country:       row.Get(ColCountry),
		Destination:   row.Get(ColDestination),
		LeadName:      orPlaceholder(row.Get(ColLeadName)),
		Adults:        atoi(row.Get(ColAdults)),
		Children:      atoi(row.Get(ColChildren)),
		ChildrenAges:  row.Get(ColChildrenAges),
		Accommodation: orPlaceholder(row.Get(ColAccommodation)),
		Rooms:         orPlaceholder(row.Get(ColRooms)),
		RoomType:      row.Get(ColRoomType),
		Checkin:       orPlaceholder(row.Get(ColCheckin)),
		Checkout:      orPlaceholder(row.Get(ColCheckout)),
		Nights:        orPlaceholder(row.Get(ColNights)),
		Activities:    orPlaceholder(row.Get(ColActivities)),
		Query:         orPlaceholder(row.Get(ColQuery)),
		Question:      row.Get(ColQuestion),
		Questions:     row.Get(ColQuestions),
		Options:       row.Get(ColOptions),
		WantsQuote:    strings.EqualFold(row.Get(ColQuote), "yes"),
	}
}

// Pax is the total passenger count.
func (t Trip) Pax() int {
	return t.Adults + t.Children
}

// Specified reports whether an optional field carries a real value.
func Specified(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, NotSpecified)
}

// PaxLine renders "3 PAX (2 adults and 1 child)".
func (t Trip) PaxLine() string {
	adults := plural(t.Adults, "adult", "adults")
	if t.Children > 0 {
		return strconv.Itoa(t.Pax()) + " PAX (" + adults + " and " + plural(t.Children, "child", "children") + ")"
	}
	return strconv.Itoa(t.Pax()) + " PAX (" + adults + ")"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}

func orPlaceholder(v string) string {
	if v == "" {
		return NotSpecified
	}
	return v
}

func atoi(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
