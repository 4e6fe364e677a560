// Package tui is a terminal control panel for a viewer session. It drives
// the same controller as the browser page and shows what the engine holds.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/interact"
	"github.com/msalah0e/pdbview/internal/structure"
	"github.com/msalah0e/pdbview/internal/view"
	"github.com/msalah0e/pdbview/internal/viewer"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff8c00"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("147")).Width(18)
	helperStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#ff8c00")).Padding(0, 1)
	previewStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("244")).Padding(0, 1)
)

// control is one row of the panel.
type control int

const (
	ctlRepresentation control = iota
	ctlFilter
	ctlSize
	ctlRadius
	ctlHighlight
	ctlCustom
)

// prompt is an open text input.
type prompt int

const (
	promptNone prompt = iota
	promptID
	promptCustom
	promptPick
)

type loadDoneMsg struct{ err error }

// Model is the bubbletea model.
type Model struct {
	ctrl    *viewer.Controller
	ctx     context.Context
	focus   control
	prompt  prompt
	input   string
	alert   string
	status  string
	loading bool
	width   int
}

// New returns a panel over ctrl.
func New(ctx context.Context, ctrl *viewer.Controller) Model {
	return Model{ctrl: ctrl, ctx: ctx}
}

// Run starts the panel in the alternate screen and blocks until it quits.
func Run(ctx context.Context, ctrl *viewer.Controller) error {
	_, err := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

// controls returns the rows shown for the current state.
func (m Model) controls() []control {
	v := m.ctrl.Visibility()
	rows := []control{ctlRepresentation, ctlFilter}
	if v.ResizeControls {
		rows = append(rows, ctlSize, ctlRadius, ctlHighlight)
	}
	if v.ShowCustom() {
		rows = append(rows, ctlCustom)
	}
	return rows
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadDoneMsg:
		m.loading = false
		m.report(msg.err)
		if msg.err == nil {
			m.status = "loaded " + m.source()
		}
		return m, nil

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.alert = ""
	rows := m.controls()
	pos := indexOf(rows, m.focus)

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if pos > 0 {
			m.focus = rows[pos-1]
		}
	case "down", "j", "tab":
		if pos < len(rows)-1 {
			m.focus = rows[pos+1]
		}
	case "left", "h":
		m.report(m.step(-1))
	case "right", "l":
		m.report(m.step(1))
	case " ":
		if m.focus == ctlHighlight {
			m.report(m.ctrl.SetHighlight(!m.ctrl.State().Highlight))
		}
	case "enter":
		if m.focus == ctlCustom {
			m.prompt, m.input = promptCustom, m.ctrl.State().CustomExpr
		}
	case "a":
		if m.ctrl.Visibility().ShowCustom() {
			m.report(m.ctrl.ApplyCustom())
		}
	case "o":
		m.prompt, m.input = promptID, ""
	case "p":
		m.prompt, m.input = promptPick, ""
	case "x":
		m.report(m.ctrl.EndSession())
		m.status = "session ended"
	}

	// the focused row can disappear when the representation changes
	if rows = m.controls(); indexOf(rows, m.focus) < 0 {
		m.focus = rows[len(rows)-1]
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt, m.input = promptNone, ""
		return m, nil
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyEnter:
	default:
		return m, nil
	}

	p, input := m.prompt, m.input
	m.prompt, m.input = promptNone, ""
	m.alert = ""
	switch p {
	case promptID:
		m.loading = true
		m.status = "fetching " + strings.TrimSpace(input)
		ctrl, ctx := m.ctrl, m.ctx
		return m, func() tea.Msg { return loadDoneMsg{err: ctrl.LoadID(ctx, input)} }
	case promptCustom:
		if err := m.ctrl.SetCustomExpr(input); err != nil {
			m.report(err)
			return m, nil
		}
		m.report(m.ctrl.ApplyCustom())
	case promptPick:
		serial, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			m.alert = "atom serial must be a number"
			return m, nil
		}
		m.report(m.ctrl.Click(serial))
	}
	return m, nil
}

// step moves the focused control one option or radius step.
func (m Model) step(dir int) error {
	st := m.ctrl.State()
	switch m.focus {
	case ctlRepresentation:
		return m.ctrl.SetRepresentation(cycle(view.Representations, st.Representation, dir))
	case ctlFilter:
		return m.ctrl.SetFilter(cycle(view.Filters, st.Filter, dir))
	case ctlSize:
		return m.ctrl.SetSize(cycle(view.Sizes, st.Size, dir))
	case ctlRadius:
		return m.ctrl.SetRadius(st.SliderValue() + float64(dir)*view.RadiusStep)
	case ctlHighlight:
		return m.ctrl.SetHighlight(!st.Highlight)
	}
	return nil
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	if alert, ok := viewer.AlertOf(err); ok {
		m.alert = alert
		return
	}
	m.alert = "Error: " + err.Error()
}

func (m Model) source() string {
	if name := m.ctrl.FileName(); name != "" {
		return name
	}
	return "structure"
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pdbview") + "  " + helperStyle.Render(m.summary()) + "\n\n")

	st := m.ctrl.State()
	v := st.Visibility()
	for _, c := range m.controls() {
		label, value := m.row(c, st, v)
		line := labelStyle.Render(label) + value
		if c == m.focus {
			line = focusStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	panel := panelStyle.Render(strings.TrimRight(b.String(), "\n"))
	out := panel
	if preview := m.preview(); preview != "" {
		out = lipgloss.JoinHorizontal(lipgloss.Top, panel, " ", previewStyle.Render(preview))
	}
	out += "\n"

	switch m.prompt {
	case promptID:
		out += "PDB ID: " + m.input + "█\n"
	case promptCustom:
		out += "Selection: " + m.input + "█\n"
	case promptPick:
		out += "Click atom serial: " + m.input + "█\n"
	}
	if m.alert != "" {
		out += alertStyle.Render(m.alert) + "\n"
	} else if m.status != "" {
		out += statusStyle.Render(m.status) + "\n"
	}
	out += helperStyle.Render("↑/↓ move · ←/→ change · o open id · p pick atom · a apply custom · x end session · q quit")
	return out
}

func (m Model) row(c control, st view.State, v view.Visibility) (string, string) {
	switch c {
	case ctlRepresentation:
		return "Representation", options(view.Representations, st.Representation)
	case ctlFilter:
		return "Residues", options(view.Filters, st.Filter)
	case ctlSize:
		return "Resize", options(view.Sizes, st.Size)
	case ctlRadius:
		return v.RadiusLabel, fmt.Sprintf("%.2f  %s", st.SliderValue(), bar(st.SliderValue()))
	case ctlHighlight:
		if st.Highlight {
			return "Highlight", "[x]"
		}
		return "Highlight", "[ ]"
	default:
		expr := st.CustomExpr
		if expr == "" {
			expr = helperStyle.Render("(enter to edit)")
		}
		return "Selection", expr
	}
}

func (m Model) summary() string {
	if m.loading {
		return "loading…"
	}
	model := m.ctrl.Model()
	if model == nil {
		return "no structure loaded"
	}
	var protein, water int
	for _, a := range model.Atoms {
		if a.Class() == structure.ClassProtein {
			protein++
		} else {
			water++
		}
	}
	return fmt.Sprintf("%s · %d protein · %d water atoms", m.source(), protein, water)
}

// preview lists the selected atom and how many atoms each style covers.
// The scene is only read while no load is in flight.
func (m Model) preview() string {
	sc, ok := m.ctrl.Engine().(interface{ Styles() []engine.Style })
	if !ok || m.loading || m.ctrl.Model() == nil {
		return ""
	}
	counts := map[string]int{}
	var order []string
	for _, s := range sc.Styles() {
		key := s.String()
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	var lines []string
	for _, k := range order {
		lines = append(lines, fmt.Sprintf("%5d  %s", counts[k], k))
	}
	if a, ok := m.ctrl.Selected(); ok {
		lines = append(lines, "", focusStyle.Render("selected"), strings.ReplaceAll(interact.ClickLabel(a), "\n", " · "))
	}
	return strings.Join(lines, "\n")
}

func options[T ~string](all []T, current T) string {
	parts := make([]string, len(all))
	for i, o := range all {
		if o == current {
			parts[i] = focusStyle.Render(string(o))
		} else {
			parts[i] = helperStyle.Render(string(o))
		}
	}
	return strings.Join(parts, " ")
}

func bar(r float64) string {
	const width = 20
	n := int((r - view.MinRadius) / (view.MaxRadius - view.MinRadius) * width)
	return strings.Repeat("█", n) + helperStyle.Render(strings.Repeat("░", width-n))
}

func cycle[T comparable](all []T, current T, dir int) T {
	i := indexOf(all, current)
	if i < 0 {
		return all[0]
	}
	return all[(i+dir+len(all))%len(all)]
}

func indexOf[T comparable](all []T, v T) int {
	for i, x := range all {
		if x == v {
			return i
		}
	}
	return -1
}
