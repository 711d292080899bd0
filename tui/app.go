package tui

import (
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/bassamadnan/tripmail/dispatch"
)

// App is the tview dashboard.
type App struct {
	*tview.Application
	rootPages   *tview.Pages
	listView    *EntryListView
	previewPane *PreviewPane
	focusedView *FocusedView
	statusBar   *tview.TextView

	summaries    <-chan dispatch.Summary
	pollInterval time.Duration
	totals       Totals
	flash        string
	flashUntil   time.Time
	stopped      bool
}

func NewApp(summaries <-chan dispatch.Summary, pollInterval time.Duration) *App {
	a := &App{
		Application:  tview.NewApplication(),
		summaries:    summaries,
		pollInterval: pollInterval,
	}

	a.listView = NewEntryListView(a)
	a.previewPane = NewPreviewPane()
	a.focusedView = NewFocusedView()

	dashboard := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.listView.List, 0, 1, true).
		AddItem(a.previewPane, 0, 2, false)
	dashboard.SetBackgroundColor(tcell.ColorDefault)

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetText(fmt.Sprintf(" [::d]Waiting for the first cycle (every %v) | [::b]Q/Ctrl+C[::-]:Quit", pollInterval))
	a.statusBar.SetBackgroundColor(tcell.ColorDefault)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(dashboard, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)
	layout.SetBackgroundColor(tcell.ColorDefault)

	a.rootPages = tview.NewPages().
		AddPage(PageDashboard, layout, true, true).
		AddPage(PageFocused, a.focusedView, true, false)

	a.Application.SetRoot(a.rootPages, true).EnableMouse(true)
	a.setGlobalKeybindings()
	a.previewPane.SetWelcomeMessage()
	return a
}

func (a *App) Run() error {
	go a.processSummaries()
	go a.updateStatusTimer()
	a.Application.SetFocus(a.listView.List)
	return a.Application.Run()
}

func (a *App) setGlobalKeybindings() {
	a.Application.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' || event.Rune() == 'Q' {
			a.Stop()
			return nil
		}
		if page, _ := a.rootPages.GetFrontPage(); page == PageFocused && event.Key() == tcell.KeyEscape {
			a.ShowDashboardView()
			return nil
		}
		return event
	})
}

func (a *App) processSummaries() {
	for sum := range a.summaries {
		sum := sum
		a.QueueUpdateDraw(func() {
			a.totals.Add(sum)
			a.listView.AddEntries(entriesFrom(sum))
			switch {
			case sum.Err != nil:
				a.setFlash(fmt.Sprintf("[red]%s cycle failed: %s[-]", sum.Stream, tview.Escape(sum.Err.Error())))
			case sum.Sent() > 0 || sum.Failed() > 0:
				a.setFlash("[green]" + tview.Escape(sum.String()) + "[-]")
			default:
				a.setStandardStatusMessage()
			}
		})
	}
	a.QueueUpdateDraw(func() {
		a.stopped = true
		a.setStandardStatusMessage()
	})
	log.Println("TUI: summary channel closed.")
}

func (a *App) setFlash(text string) {
	a.flash = text
	a.flashUntil = time.Now().Add(4 * time.Second)
	a.statusBar.SetText(" " + text + " | [::b]Q[::-]:Quit")
}

func (a *App) updateStatusTimer() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		a.QueueUpdateDraw(func() {
			if a.flash != "" && time.Now().Before(a.flashUntil) {
				return
			}
			a.flash = ""
			a.setStandardStatusMessage()
		})
	}
}

func (a *App) setStandardStatusMessage() {
	state := "Dispatching"
	if a.stopped {
		state = "Stopped"
	}
	a.statusBar.SetText(fmt.Sprintf(" [::d]%s (every %v) | %s | %s | [::b]Q/Ctrl+C[::-]:Quit [::b]Ent[::-]:Full [::b]Esc[::-]:Back",
		state, a.pollInterval, time.Now().Format("15:04:05"), a.totals))
}

func (a *App) UpdatePreviewPane(e Entry) {
	a.previewPane.SetEntry(e)
}

func (a *App) ShowWelcomeMessageInPreview() {
	a.previewPane.SetWelcomeMessage()
}

func (a *App) IsPreviewShowingWelcome() bool {
	return a.previewPane.IsShowingWelcome()
}

func (a *App) ShowFocusedView(e Entry) {
	a.focusedView.SetEntry(e)
	a.rootPages.SwitchToPage(PageFocused)
	a.Application.SetFocus(a.focusedView.textView)
}

func (a *App) ShowDashboardView() {
	a.rootPages.SwitchToPage(PageDashboard)
	a.Application.SetFocus(a.listView.List)
}
