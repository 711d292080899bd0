package tui

import (
	"time"

	"github.com/bassamadnan/tripmail/dispatch"
)

// SummaryMsg carries one finished stream pass.
type SummaryMsg dispatch.Summary

// StatusTickMsg refreshes the status bar clock.
type StatusTickMsg struct{ Time time.Time }

// SchedulerStoppedMsg is sent once the summary channel is closed.
type SchedulerStoppedMsg struct{}

type clearTempStatusMsg struct{}
