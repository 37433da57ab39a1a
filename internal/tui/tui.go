// Package tui provides a Bubble Tea terminal user interface for the
// image downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"imagedl/internal/config"
	"imagedl/internal/download"
	"imagedl/internal/extract"
	httpc "imagedl/internal/http"
	ioutils "imagedl/internal/io"
	"imagedl/internal/logger"
	"imagedl/internal/model"
	"imagedl/internal/portal"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateFetching
	StateDownloading
	StateComplete
	StateError
)

// counters is shared between the download goroutine and the polling UI.
type counters struct {
	completed atomic.Int64
	total     atomic.Int64
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings

	// Run context
	ctx    context.Context
	cancel context.CancelFunc

	counters *counters
	refs     []model.ImageReference
	summary  *model.Summary
	err      error

	// Options toggled on the input screen
	rawImage    bool
	noWatermark bool
	parallel    bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "13011948"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 24

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:       StateInput,
		textInput:   ti,
		spinner:     sp,
		progress:    prog,
		settings:    settings,
		ctx:         ctx,
		cancel:      cancel,
		counters:    &counters{},
		rawImage:    settings.RemoveWidthHeight,
		noWatermark: settings.RemoveWatermark,
		parallel:    settings.Parallel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// FetchDoneMsg is sent when the listing page has been fetched and
	// parsed.
	FetchDoneMsg struct {
		Refs []model.ImageReference
		Err  error
	}

	// DownloadDoneMsg is sent when the whole run completes.
	DownloadDoneMsg struct {
		Summary *model.Summary
		Err     error
	}

	// TickMsg drives periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateFetching || m.state == StateDownloading {
				// Stops dispatching; in-flight tasks finish naturally.
				m.cancel()
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateFetching
				return m, tea.Batch(m.fetchListing(), m.spinner.Tick)
			}

		case "w":
			if m.state == StateInput {
				m.rawImage = !m.rawImage
			}

		case "m":
			if m.state == StateInput {
				m.noWatermark = !m.noWatermark
			}

		case "p":
			if m.state == StateInput {
				m.parallel = !m.parallel
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.state = StateInput
				m.refs = nil
				m.summary = nil
				m.err = nil
				m.counters = &counters{}
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case FetchDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.refs = msg.Refs
			m.counters.total.Store(int64(len(msg.Refs)))
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		m.summary = msg.Summary
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.state == StateDownloading {
			percent := 0.0
			if total := m.counters.total.Load(); total > 0 {
				percent = float64(m.counters.completed.Load()) / float64(total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📷 Diakrit Image Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download order images from the portal"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateFetching:
		b.WriteString(m.viewFetching())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter order id:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	check := func(on bool) string {
		if on {
			return "[×]"
		}
		return "[ ]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Raw images, no width/height (w)\n", check(m.rawImage)))
	b.WriteString(fmt.Sprintf("  %s Remove watermark (m)\n", check(m.noWatermark)))
	b.WriteString(fmt.Sprintf("  %s Parallel downloads (p)\n", check(m.parallel)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output: %s | Extensions: %s",
		m.settings.OutputDir, strings.Join(m.settings.Extensions, " "))))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewFetching() string {
	return m.spinner.View() + " " + subtitleStyle.Render("Fetching listing page...") + "\n"
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(successStyle.Render(fmt.Sprintf("Found %d image(s)", len(m.refs))))
	b.WriteString("\n\n")
	b.WriteString(m.progress.View())
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Images: %d/%d",
		m.counters.completed.Load(), m.counters.total.Load())))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewComplete() string {
	s := m.summary
	if s == nil {
		return ""
	}

	status := "✨ Download Complete!"
	if s.Partial() {
		status = "⚠ Partial result"
	}

	return boxStyle.Render(fmt.Sprintf(
		"%s\n\nSucceeded: %d\nFailed: %d\nTotal: %d",
		status, s.Succeeded, s.Failed, s.Total,
	))
}

func (m Model) viewError() string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString("  " + m.err.Error())
	}
	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • w: raw • m: no watermark • p: parallel • esc: quit"
	case StateFetching, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// fetchListing retrieves and parses the listing page in the background.
func (m *Model) fetchListing() tea.Cmd {
	orderID := strings.TrimSpace(m.textInput.Value())
	ctx := m.ctx

	return func() tea.Msg {
		// The alt screen owns the terminal, so console logging is off.
		log, err := logger.NewWithConfig("portal", logger.Config{Quiet: true})
		if err != nil {
			return FetchDoneMsg{Err: err}
		}

		client := httpc.NewClient(m.settings.HTTPOptions())
		pc, err := portal.NewClient(m.settings.BaseURL, client, m.settings.RetryPolicy(), log)
		if err != nil {
			return FetchDoneMsg{Err: err}
		}

		html, err := pc.FetchListing(ctx, orderID)
		if err != nil {
			return FetchDoneMsg{Err: err}
		}

		refs, err := extract.Links(html, pc.Base(), extract.Options{
			Extensions:   m.settings.Extensions,
			PathContains: "/orderfiles/",
		})
		if err != nil {
			return FetchDoneMsg{Err: err}
		}
		if len(refs) == 0 {
			return FetchDoneMsg{Err: fmt.Errorf("no matching images for order %s", orderID)}
		}

		return FetchDoneMsg{Refs: refs}
	}
}

// startDownload runs the scheduler in the background.
func (m *Model) startDownload() tea.Cmd {
	ctx := m.ctx
	refs := m.refs
	counts := m.counters

	settings := *m.settings
	settings.RemoveWidthHeight = m.rawImage
	settings.RemoveWatermark = m.noWatermark
	settings.Parallel = m.parallel

	return func() tea.Msg {
		if err := ioutils.EnsureDir(settings.OutputDir); err != nil {
			return DownloadDoneMsg{Err: err}
		}

		logCfg := logger.Config{Quiet: true}
		if settings.LogEnabled {
			logCfg.FilePath = settings.LogFile
		}
		log, err := logger.NewWithConfig("download", logCfg)
		if err != nil {
			return DownloadDoneMsg{Err: err}
		}
		defer log.Close()

		manager := download.NewManager(download.Options{
			Client:    httpc.NewClient(settings.HTTPOptions()),
			Retry:     settings.RetryPolicy(),
			Transform: settings.TransformConfig(),
			OutputDir: settings.OutputDir,
			Workers:   settings.WorkerCount(),
			OnProgress: func(completed, total int) {
				counts.completed.Store(int64(completed))
			},
			Log: log,
		})

		summary, err := manager.Run(ctx, refs)
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
