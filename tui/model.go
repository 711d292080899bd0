package tui

import (
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bassamadnan/tripmail/dispatch"
)

type viewState int

const (
	viewLoading viewState = iota
	viewDashboard
	viewFocused
)

const (
	entryItemHeight     = 4
	minListPaneWidth    = 30
	minPreviewPaneWidth = 40
	maxEntries          = 500
)

// Model is the bubbletea dashboard.
type Model struct {
	summaries    <-chan dispatch.Summary
	pollInterval time.Duration
	now          func() time.Time

	entries          []Entry
	totals           Totals
	selectedIdx      int
	viewportTopLine  int
	previewScrollPos int

	currentView viewState

	width, height int
	statusBarText string
	statusIsError bool
	statusIsTemp  bool

	schedulerDone bool
}

func NewInitialModel(summaries <-chan dispatch.Summary, pollInterval time.Duration) Model {
	return Model{
		summaries:     summaries,
		pollInterval:  pollInterval,
		now:           time.Now,
		currentView:   viewLoading,
		statusBarText: "Waiting for the first dispatch cycle...",
	}
}

func (m Model) Init() tea.Cmd {
	log.Println("TUI: model init")
	return tea.Batch(
		waitForSummaryCmd(m.summaries),
		statusTickCmd(time.Second),
	)
}

func (m Model) itemsThatFit() int {
	h := m.height - 1 - lipgloss.Height(EntryListTitleStyle.Render(" "))
	if h < 0 {
		return 0
	}
	return h / entryItemHeight
}

func (m Model) selected() (Entry, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.entries) {
		return Entry{}, false
	}
	return m.entries[m.selectedIdx], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ensureSelectedVisible()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.updateStatusBar("Quitting...")
			return m, tea.Quit
		}
		switch m.currentView {
		case viewDashboard:
			switch msg.String() {
			case "up", "k":
				if m.selectedIdx > 0 {
					m.selectedIdx--
					m.ensureSelectedVisible()
					m.previewScrollPos = 0
				}
			case "down", "j":
				if m.selectedIdx < len(m.entries)-1 {
					m.selectedIdx++
					m.ensureSelectedVisible()
					m.previewScrollPos = 0
				}
			case "enter":
				if _, ok := m.selected(); ok {
					m.currentView = viewFocused
					m.setStandardStatus()
				}
			case "K":
				if m.previewScrollPos > 0 {
					m.previewScrollPos--
				}
			case "J":
				if e, ok := m.selected(); ok && m.previewScrollPos < strings.Count(e.Detail(), "\n") {
					m.previewScrollPos++
				}
			}
		case viewFocused:
			if msg.String() == "esc" {
				m.currentView = viewDashboard
				m.setStandardStatus()
			}
		}

	case SummaryMsg:
		sum := dispatch.Summary(msg)
		m.addSummary(sum)
		if m.currentView == viewLoading {
			m.currentView = viewDashboard
		}
		if sum.Err != nil {
			m.updateStatusError(fmt.Sprintf("%s cycle failed: %v", sum.Stream, sum.Err))
		} else if sum.Sent() > 0 || sum.Failed() > 0 {
			m.showTemporaryStatus(sum.String(), 4*time.Second, &cmds)
		} else {
			m.setStandardStatus()
		}
		cmds = append(cmds, waitForSummaryCmd(m.summaries))

	case SchedulerStoppedMsg:
		m.schedulerDone = true
		if m.currentView == viewLoading {
			m.currentView = viewDashboard
		}
		m.setStandardStatus()
		log.Println("TUI: scheduler stopped.")

	case StatusTickMsg:
		if !m.statusIsTemp && !m.statusIsError && m.currentView != viewLoading {
			m.setStandardStatus()
		}
		cmds = append(cmds, statusTickCmd(time.Second))

	case clearTempStatusMsg:
		if m.statusIsTemp {
			m.statusIsTemp = false
			m.setStandardStatus()
		}
	}

	return m, tea.Batch(cmds...)
}

// addSummary prepends the new entries, keeping the current selection on the
// same entry.
func (m *Model) addSummary(sum dispatch.Summary) {
	m.totals.Add(sum)
	fresh := entriesFrom(sum)
	if len(fresh) == 0 {
		return
	}
	if len(m.entries) > 0 {
		m.selectedIdx += len(fresh)
	}
	m.entries = append(fresh, m.entries...)
	if len(m.entries) > maxEntries {
		m.entries = m.entries[:maxEntries]
	}
	if m.selectedIdx >= len(m.entries) {
		m.selectedIdx = len(m.entries) - 1
	}
	m.ensureSelectedVisible()
}

func (m *Model) showTemporaryStatus(text string, d time.Duration, cmds *[]tea.Cmd) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = true
	*cmds = append(*cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return clearTempStatusMsg{}
	}))
}

func (m *Model) updateStatusBar(text string) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = false
}

func (m *Model) updateStatusError(text string) {
	m.statusBarText = text
	m.statusIsError = true
	m.statusIsTemp = false
}

func (m *Model) setStandardStatus() {
	if m.statusIsTemp {
		return
	}
	state := "Dispatching"
	if m.schedulerDone {
		state = "Stopped"
	}
	text := fmt.Sprintf(" %s (every %v) | %s | %s ", state, m.pollInterval, m.now().Format("15:04:05"), m.totals)

	keys := "[Q/Ctrl+C]:Quit"
	switch m.currentView {
	case viewDashboard:
		keys += " | [↑↓/jk]:Nav | [Enter]:Full | [KJ]:Scroll"
	case viewFocused:
		keys += " | [Esc]:Back"
	}
	m.updateStatusBar(text + "| " + keys)
}

func (m *Model) ensureSelectedVisible() {
	if len(m.entries) == 0 {
		m.viewportTopLine = 0
		return
	}
	fit := m.itemsThatFit()
	if fit <= 0 {
		m.viewportTopLine = m.selectedIdx
		return
	}
	if m.selectedIdx < m.viewportTopLine {
		m.viewportTopLine = m.selectedIdx
	} else if m.selectedIdx >= m.viewportTopLine+fit {
		m.viewportTopLine = m.selectedIdx - fit + 1
	}
	maxTop := len(m.entries) - fit
	if maxTop < 0 {
		maxTop = 0
	}
	if m.viewportTopLine > maxTop {
		m.viewportTopLine = maxTop
	}
	if m.viewportTopLine < 0 {
		m.viewportTopLine = 0
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing terminal size..."
	}

	contentHeight := m.height - 1
	if contentHeight < 0 {
		contentHeight = 0
	}

	var main string
	switch m.currentView {
	case viewLoading:
		main = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, m.statusBarText)
	case viewDashboard:
		listWidth := int(float64(m.width) * 0.35)
		if listWidth < minListPaneWidth {
			listWidth = minListPaneWidth
		}
		if m.width > minPreviewPaneWidth && listWidth > m.width-minPreviewPaneWidth {
			listWidth = m.width - minPreviewPaneWidth
		}
		if listWidth > m.width {
			listWidth = m.width
		}
		main = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderEntryList(listWidth, contentHeight),
			m.renderPreviewPane(m.width-listWidth, contentHeight),
		)
	case viewFocused:
		main = m.renderFocusedView(m.width, contentHeight)
	}

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar()))
}

func (m Model) renderEntryList(width, height int) string {
	title := EntryListTitleStyle.Render("Activity")
	textWidth := width - EntryListItemStyle.GetHorizontalPadding() - 4
	if textWidth < 10 {
		textWidth = 10
	}

	start := m.viewportTopLine
	end := start + m.itemsThatFit()
	if start > len(m.entries) {
		start = len(m.entries)
	}
	if end > len(m.entries) {
		end = len(m.entries)
	}

	now := m.now()
	items := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, formatEntryItem(m.entries[i], i == m.selectedIdx, textWidth, now))
	}
	if len(m.entries) == 0 {
		items = append(items, NormalSecondaryTextStyle.Render("  No activity yet."))
	}

	return EntryListStyle.Width(width).Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")))
}

// boxed renders a titled content box constrained to width x height.
func boxed(title, content string, width, height int) string {
	styledTitle := TitleStyle.Render(title)
	maxHeight := height - lipgloss.Height(styledTitle) - ContentBoxStyle.GetVerticalFrameSize()
	if maxHeight < 0 {
		maxHeight = 0
	}
	content = lipgloss.NewStyle().
		Width(width - ContentBoxStyle.GetHorizontalFrameSize()).
		MaxHeight(maxHeight).
		Render(content)
	return ContentBoxStyle.Width(width).Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Top, styledTitle, content))
}

func (m Model) renderPreviewPane(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	e, ok := m.selected()
	if !ok {
		return boxed("Home", "\ntripmail\n\nNo row selected.", width, height)
	}
	lines := strings.Split(e.Detail(), "\n")
	start := m.previewScrollPos
	if start >= len(lines) {
		start = len(lines) - 1
	}
	if start < 0 {
		start = 0
	}
	return boxed("Preview: "+truncate(e.Title(), width-14), strings.Join(lines[start:], "\n"), width, height)
}

func (m Model) renderFocusedView(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	e, ok := m.selected()
	if !ok {
		return boxed("Error", "No row selected.", width, height)
	}
	return boxed("Full View: "+truncate(e.Title(), width-16), BodyStyle.Render(e.Detail()), width, height)
}

func (m Model) renderStatusBar() string {
	style := StatusBarNormalStyle
	if m.statusIsError {
		style = StatusBarErrorStyle
	} else if m.statusIsTemp {
		style = StatusBarSuccessStyle
	}
	return style.Width(m.width).Render(truncate(m.statusBarText, m.width))
}
