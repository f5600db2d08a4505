// Package app is the Bubble Tea front end, the host-side analog of the
// device touchscreen: the same four screens, driven by key bindings
// instead of touch.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haxorthematrix/BLEPTD/internal/detect"
	"github.com/haxorthematrix/BLEPTD/internal/host"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
	"github.com/haxorthematrix/BLEPTD/internal/txsched"
	"github.com/haxorthematrix/BLEPTD/internal/ui"
)

const refreshInterval = 250 * time.Millisecond

// Screen indices, matching DISPLAY SCREEN on the serial side.
const (
	ScreenScan = iota
	ScreenFilter
	ScreenTx
	ScreenSettings
)

// Model is the root Bubble Tea model. Because Bubble Tea copies models
// by value, all mutable state lives behind the host pointer; the model
// itself only caches the latest snapshots for rendering.
type Model struct {
	host *host.Host

	width  int
	height int
	screen int
	scroll int

	jsonMode func() bool

	// Cached snapshots, refreshed on each tick.
	records   []detect.Record
	sessions  []txsched.Session
	confusion []txsched.ConfusionEntry
	confOn    bool
	mode      string
	filter    sig.Category
	minRSSI   int8
	totalSent uint32
	message   string
}

// New creates the model. jsonMode reports the telemetry format for the
// settings screen.
func New(h *host.Host, jsonMode func() bool) Model {
	return Model{host: h, jsonMode: jsonMode}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.refresh()
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) refresh() {
	m.screen = m.host.Screen()
	m.records = m.host.Detections(sig.CategoryAll)
	m.sessions = m.host.TxSnapshot()
	m.confusion = m.host.ConfusionEntries()
	m.confOn = m.host.ConfusionActive()
	m.mode = m.host.Mode().String()
	m.filter = m.host.Filter()
	m.minRSSI = m.host.RSSIThreshold()
	m.totalSent = m.host.TotalSent()
	m.message = m.host.Message()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "1", "2", "3", "4":
		m.host.SetScreen(int(msg.String()[0] - '1'))

	case "tab":
		m.host.SetScreen((m.screen + 1) % len(ui.ScreenNames))

	case "s":
		m.host.SetScanning(true)
	case "p":
		m.host.SetScanning(false)
	case "c":
		if m.screen == ScreenScan {
			m.host.ClearDetections()
		}

	case "up", "k":
		if m.scroll > 0 {
			m.scroll--
		}
	case "down", "j":
		if m.scroll < len(m.records)-1 {
			m.scroll++
		}

	case "t":
		m.toggleFilter(sig.CategoryTracker)
	case "g":
		m.toggleFilter(sig.CategoryGlasses)
	case "m":
		m.toggleFilter(sig.CategoryMedical)
	case "w":
		m.toggleFilter(sig.CategoryWearable)
	case "a":
		m.toggleFilter(sig.CategoryAudio)

	case "-":
		if m.screen == ScreenFilter && m.minRSSI > -120 {
			m.host.SetRSSIThreshold(m.minRSSI - 5)
		}
	case "+", "=":
		if m.screen == ScreenFilter && m.minRSSI < 0 {
			m.host.SetRSSIThreshold(m.minRSSI + 5)
		}

	case "x":
		if m.screen == ScreenTx {
			m.host.StopAllTx()
		}
	}
	return m, nil
}

func (m *Model) toggleFilter(c sig.Category) {
	if m.screen != ScreenFilter {
		return
	}
	m.host.SetFilter(m.filter ^ c)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	statusBar := ui.RenderStatusBar(m.width, m.mode, len(m.records), m.totalSent)
	navBar := ui.RenderNavBar(m.width, m.screen)
	overlay := ui.RenderMessage(m.width, m.message)

	bodyH := m.height - 2
	if overlay != "" {
		bodyH--
	}

	var body string
	switch m.screen {
	case ScreenFilter:
		body = ui.RenderFilterScreen(m.filter, m.minRSSI)
	case ScreenTx:
		body = ui.RenderTxScreen(m.sessions, m.confusion, m.confOn)
	case ScreenSettings:
		body = ui.RenderSettingsScreen(m.jsonMode())
	default:
		body = ui.RenderScanScreen(m.records, bodyH, m.scroll)
	}

	out := statusBar + "\n"
	if overlay != "" {
		out += overlay + "\n"
	}
	out += padBody(body, bodyH) + navBar
	return out
}

// padBody pins the nav bar to the bottom row.
func padBody(body string, height int) string {
	lines := 1
	for _, r := range body {
		if r == '\n' {
			lines++
		}
	}
	for ; lines < height; lines++ {
		body += "\n"
	}
	return body + "\n"
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
