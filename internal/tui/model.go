package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdf-viewer-plus/internal/domain"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// toolbar, input line, help line and margins
	chromeHeight = 6
)

// Model is the terminal host of one viewer surface. All state lives in the
// surface service, the model only mirrors the latest snapshot.
type Model struct {
	ctx      context.Context
	svc      domain.SurfaceService
	key      string
	zoomStep int

	snap     *domain.SurfaceSnapshot
	text     string
	textPage int

	styles    *Styles
	pageInput textinput.Model
	inputMode bool
	body      viewport.Model

	width  int
	height int
	status string
	err    error
}

// NewModel creates a model for an already opened surface.
func NewModel(ctx context.Context, svc domain.SurfaceService, snap *domain.SurfaceSnapshot, zoomStep int) *Model {
	ti := textinput.New()
	ti.Placeholder = "page"
	ti.CharLimit = 8
	ti.Prompt = "Go to page: "

	if zoomStep <= 0 {
		zoomStep = domain.DefaultZoomStep
	}

	m := &Model{
		ctx:       ctx,
		svc:       svc,
		key:       snap.Key,
		zoomStep:  zoomStep,
		snap:      snap,
		styles:    NewStyles(),
		pageInput: ti,
		body:      viewport.New(defaultWidth, defaultHeight-chromeHeight),
		width:     defaultWidth,
		height:    defaultHeight,
	}
	m.loadText()
	return m
}

// Snapshot returns the last snapshot received from the service.
func (m *Model) Snapshot() *domain.SurfaceSnapshot {
	return m.snap
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.Width = msg.Width
		m.body.Height = max(1, msg.Height-chromeHeight)
		m.restoreOffset()
		return m, nil

	case tea.KeyMsg:
		if m.inputMode {
			return m.updatePageInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "right":
		m.apply(m.svc.NextPage(m.ctx, m.key))
	case "p", "left":
		m.apply(m.svc.PreviousPage(m.ctx, m.key))
	case "+", "=":
		m.apply(m.svc.ZoomIn(m.ctx, m.key, m.zoomStep))
	case "-":
		m.apply(m.svc.ZoomOut(m.ctx, m.key, m.zoomStep))
	case "0":
		m.apply(m.svc.ResetZoom(m.ctx, m.key))
	case "g":
		m.inputMode = true
		m.pageInput.Reset()
		return m, m.pageInput.Focus()
	case "j", "down":
		m.scrollBy(1)
	case "k", "up":
		m.scrollBy(-1)
	case "pgdown", " ":
		m.scrollBy(m.body.Height)
	case "pgup":
		m.scrollBy(-m.body.Height)
	}
	return m, nil
}

func (m *Model) updatePageInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputMode = false
		m.pageInput.Blur()
		return m, nil
	case "enter":
		m.inputMode = false
		m.pageInput.Blur()
		m.apply(m.svc.GoToPageInput(m.ctx, m.key, m.pageInput.Value()))
		return m, nil
	}

	var cmd tea.Cmd
	m.pageInput, cmd = m.pageInput.Update(msg)
	return m, cmd
}

// apply records the result of a service call. Failed calls keep the previous
// snapshot and show the error in the status line.
func (m *Model) apply(snap *domain.SurfaceSnapshot, err error) {
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.snap = snap
	if !snap.LastInteraction.Changed {
		return
	}
	m.status = fmt.Sprintf("%s (render #%d)", snap.LastInteraction.Kind, renderSeq(snap))
	if snap.State.CurrentPage != m.textPage {
		m.loadText()
		return
	}
	m.restoreOffset()
}

func (m *Model) loadText() {
	m.textPage = m.snap.State.CurrentPage
	text, err := m.svc.PageText(m.ctx, m.key)
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		m.text = m.styles.Dim.Render("text layer disabled")
	case err != nil:
		m.text = ""
		m.err = err
	default:
		m.text = text.Text
	}
	m.body.SetContent(m.text)
	m.restoreOffset()
}

// restoreOffset places the viewport at the surface's scroll anchor.
func (m *Model) restoreOffset() {
	maxOffset := m.maxOffset()
	if maxOffset == 0 {
		m.body.SetYOffset(0)
		return
	}
	m.body.SetYOffset(int(math.Round(m.snap.Anchor.Fraction * float64(maxOffset))))
}

func (m *Model) scrollBy(lines int) {
	maxOffset := m.maxOffset()
	if maxOffset == 0 {
		return
	}
	offset := min(max(m.body.YOffset+lines, 0), maxOffset)
	if offset == m.body.YOffset {
		return
	}
	m.body.SetYOffset(offset)
	m.apply(m.svc.Scroll(m.ctx, m.key, float64(offset)/float64(maxOffset)))
}

func (m *Model) maxOffset() int {
	return max(0, m.body.TotalLineCount()-m.body.Height)
}

// View renders the UI
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.snap.Document.Name))
	b.WriteString("\n")
	b.WriteString(m.styles.Toolbar.Render(m.toolbar()))
	b.WriteString("\n")

	if m.inputMode {
		b.WriteString(m.styles.Input.Render(m.pageInput.View()))
		b.WriteString("\n")
	}

	if notes := m.annotations(); notes != "" {
		b.WriteString(notes)
		b.WriteString("\n")
	}

	b.WriteString(m.styles.TextBox.Render(m.body.View()))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(m.styles.StatusErr.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(m.styles.Dim.Render(m.status))
	}
	b.WriteString(m.styles.Help.Render("n/p page • g go to • +/- zoom • 0 reset • j/k scroll • q quit"))

	return b.String()
}

func (m *Model) toolbar() string {
	c := m.snap.Controls
	st := m.snap.State

	zoom := fmt.Sprintf("%d%%", st.ZoomPercent)
	if !c.ZoomEnabled {
		zoom = "fixed"
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		m.styles.button("◀ prev", c.CanPrevious),
		m.styles.PageLabel.Render(fmt.Sprintf("%d / %d", st.CurrentPage, st.PageCount)),
		m.styles.button("next ▶", c.CanNext),
		"  ",
		m.styles.button("−", c.CanZoomOut),
		m.styles.ZoomLabel.Render(zoom),
		m.styles.button("+", c.CanZoomIn),
	)
}

func (m *Model) annotations() string {
	var lines []string
	for _, a := range m.snap.Options.Annotations {
		if a.Page != m.snap.State.CurrentPage {
			continue
		}
		lines = append(lines, fmt.Sprintf("▮ %.0f,%.0f %.0f×%.0f", a.X, a.Y, a.Width, a.Height))
	}
	if len(lines) == 0 {
		return ""
	}
	return m.styles.Annotation.Render(strings.Join(lines, "\n"))
}

func renderSeq(snap *domain.SurfaceSnapshot) uint64 {
	if snap.LastRender == nil {
		return 0
	}
	return snap.LastRender.Seq
}
