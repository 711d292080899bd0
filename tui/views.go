package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/bassamadnan/tripmail/dispatch"
)

const (
	PageDashboard = "dashboard"
	PageFocused   = "focused"
)

// EntryListView lists dispatch outcomes, newest first.
type EntryListView struct {
	*tview.List
	app     *App
	entries []Entry
}

func NewEntryListView(app *App) *EntryListView {
	list := tview.NewList().
		ShowSecondaryText(true).
		SetSecondaryTextColor(tcell.ColorDimGray)
	list.SetBackgroundColor(tcell.ColorDefault)
	list.SetSelectedStyle(tcell.StyleDefault.
		Foreground(tcell.ColorWhite).
		Background(tcell.ColorSteelBlue).
		Attributes(tcell.AttrBold))
	list.SetBorder(true).SetTitle("Activity")

	v := &EntryListView{List: list, app: app}

	list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		if v.app == nil {
			return
		}
		if index >= 0 && index < len(v.entries) {
			v.app.UpdatePreviewPane(v.entries[index])
		} else if v.List.GetItemCount() == 0 {
			v.app.ShowWelcomeMessageInPreview()
		}
	})
	list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if v.app != nil && index >= 0 && index < len(v.entries) {
			v.app.ShowFocusedView(v.entries[index])
		}
	})
	return v
}

// AddEntries prepends entries and keeps the selection on the same item.
func (v *EntryListView) AddEntries(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	current := v.List.GetCurrentItem()
	hadItems := len(v.entries) > 0
	v.entries = append(append([]Entry(nil), entries...), v.entries...)
	if len(v.entries) > maxEntries {
		v.entries = v.entries[:maxEntries]
	}

	v.List.Clear()
	for _, e := range v.entries {
		v.List.AddItem(fmt.Sprintf("[%s]%s", kindColor(e.Outcome.Kind), tview.Escape(truncate(e.Title(), 40))),
			"[::d]"+tview.Escape(e.Secondary()), 0, nil)
	}

	if hadItems && current >= 0 {
		current += len(entries)
	} else {
		current = 0
	}
	if current >= v.List.GetItemCount() {
		current = v.List.GetItemCount() - 1
	}
	v.List.SetCurrentItem(current)
	if v.app != nil && v.app.IsPreviewShowingWelcome() {
		v.app.UpdatePreviewPane(v.entries[current])
	}
}

func kindColor(k dispatch.Kind) string {
	switch k {
	case dispatch.KindSent:
		return "green"
	case dispatch.KindFailed:
		return "red"
	}
	return "yellow"
}

// PreviewPane shows the selected entry.
type PreviewPane struct {
	*tview.TextView
	isWelcome bool
}

func NewPreviewPane() *PreviewPane {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	tv.SetBackgroundColor(tcell.ColorDefault)
	tv.SetBorder(true).SetTitle("Preview")
	return &PreviewPane{TextView: tv, isWelcome: true}
}

func (pp *PreviewPane) SetEntry(e Entry) {
	pp.isWelcome = false
	pp.SetText(tview.Escape(e.Detail())).ScrollToBeginning()
	pp.SetTitle("Preview: " + tview.Escape(truncate(e.Title(), 40)))
}

func (pp *PreviewPane) SetWelcomeMessage() {
	pp.isWelcome = true
	pp.SetText("\n[lightblue::b]tripmail[-::-]\n\nNo dispatch activity yet.\n\n[::d]Navigate with ↑ ↓ keys.\nPress Enter to open in full view.\nPress Q or Ctrl+C to quit.[::-]").
		ScrollToBeginning()
	pp.SetTitle("Home")
}

func (pp *PreviewPane) IsShowingWelcome() bool {
	return pp.isWelcome
}

// FocusedView shows one entry full screen.
type FocusedView struct {
	*tview.Frame
	textView *tview.TextView
}

func NewFocusedView() *FocusedView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	tv.SetBackgroundColor(tcell.ColorDefault)

	frame := tview.NewFrame(tv).
		AddText("Press Esc to go back", false, tview.AlignCenter, tcell.ColorDimGray)
	frame.SetBorder(true).SetBackgroundColor(tcell.ColorDefault)
	return &FocusedView{Frame: frame, textView: tv}
}

func (fv *FocusedView) SetEntry(e Entry) {
	fv.textView.SetText(tview.Escape(e.Detail() + "\n" + strings.Repeat("─", 40))).ScrollToBeginning()
	fv.Frame.Clear().
		AddText(tview.Escape(truncate(e.Title(), 60)), true, tview.AlignCenter, tcell.ColorYellow).
		AddText("Press Esc to go back", false, tview.AlignCenter, tcell.ColorDimGray)
}
