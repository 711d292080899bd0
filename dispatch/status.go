package dispatch

import "strings"

// Status is the dispatch state of one row for one stream.
type Status int

const (
	Pending Status = iota
	Sent
)

func (s Status) String() string {
	if s == Sent {
		return "SENT"
	}
	return "PENDING"
}

// ParseStatus maps any cell text to a Status. Only the marker itself
// (trimmed, any case) is Sent.
func ParseStatus(cell, marker string) Status {
	if marker != "" && strings.EqualFold(strings.TrimSpace(cell), strings.TrimSpace(marker)) {
		return Sent
	}
	return Pending
}
