package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bassamadnan/tripmail/dispatch"
)

// waitForSummaryCmd waits for the next summary. The model re-queues it after
// every SummaryMsg.
func waitForSummaryCmd(summaries <-chan dispatch.Summary) tea.Cmd {
	return func() tea.Msg {
		sum, ok := <-summaries
		if !ok {
			return SchedulerStoppedMsg{}
		}
		return SummaryMsg(sum)
	}
}

func statusTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StatusTickMsg{Time: t}
	})
}
