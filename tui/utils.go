package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bassamadnan/tripmail/dispatch"
)

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatEntryTime shows the time for today and the date otherwise.
func formatEntryTime(t, now time.Time) string {
	if t.IsZero() {
		return "???"
	}
	t, now = t.Local(), now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan02")
}

func kindStyle(k dispatch.Kind) lipgloss.Style {
	switch k {
	case dispatch.KindSent:
		return SentStyle
	case dispatch.KindFailed:
		return FailedStyle
	}
	return SkippedStyle
}

// formatEntryItem renders one entry as a 4-line box. textWidth is the width
// of the text inside the box.
func formatEntryItem(e Entry, isSelected bool, textWidth int, now time.Time) string {
	boxStyle, titleStyle, secondaryStyle, blockStyle := NormalBoxCharStyle, NormalSubjectStyle, NormalSecondaryTextStyle, EntryListItemStyle
	if isSelected {
		boxStyle, titleStyle, secondaryStyle, blockStyle = SelectedBoxCharStyle, SelectedSubjectStyle, SelectedSecondaryTextStyle, SelectedEntryListItemStyle
	}

	title := fmt.Sprintf("%-*s", textWidth, truncate(e.Title(), textWidth))

	stamp := formatEntryTime(e.At, now)
	secondary := e.Secondary()
	if maxLen := textWidth - len(stamp) - 1; maxLen < 1 {
		secondary = truncate(stamp, textWidth)
	} else {
		secondary = truncate(secondary, maxLen) + " " + stamp
	}
	secondary = fmt.Sprintf("%-*s", textWidth, secondary)

	bar := strings.Repeat(BoxHorizontal, textWidth+2)
	lines := []string{
		boxStyle.Render(BoxTopLeft) + boxStyle.Render(bar) + boxStyle.Render(BoxTopRight),
		boxStyle.Render(BoxVertical) + " " + titleStyle.Render(title) + " " + boxStyle.Render(BoxVertical),
		boxStyle.Render(BoxVertical) + " " + kindStyle(e.Outcome.Kind).Inherit(secondaryStyle).Render(secondary) + " " + boxStyle.Render(BoxVertical),
		boxStyle.Render(BoxBottomLeft) + boxStyle.Render(bar) + boxStyle.Render(BoxBottomRight),
	}
	return blockStyle.Render(strings.Join(lines, "\n"))
}
