package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/driver"
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

var presetInfo = map[string]string{
	"default": "2000 particles settling",
	"dense":   "tight cloud, collisions",
	"bouncy":  "elastic, slow damping",
	"orbit":   "planet circles origin",
	"sticky":  "soft clumping",
}

// setupFields are the values editable before starting, in display order.
var setupFields = []string{"particles", "cloud_radius", "inner_radius", "seed", "gravity", "bounce", "friction", "particle_size", "planet_size"}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type model struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	fieldCursor   int
	editing       bool
	editBuf       string
	fps           int
	workers       int
	err           error
	liveModel     Model
}

// NewInteractiveApp starts at the preset menu. workers sizes the compute
// backend of the simulation that gets started.
func NewInteractiveApp(fps, workers int) *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		fps:     fps,
		workers: workers,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.fieldCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.err = m.setField(setupFields[m.fieldCursor], v)
			} else {
				m.err = fmt.Errorf("not a number: %q", m.editBuf)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(setupFields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, strconv.FormatFloat(m.field(setupFields[m.fieldCursor]), 'g', -1, 64)
	case "s":
		cmd := m.start()
		return m, cmd
	}
	return m, nil
}

func (m *model) field(name string) float64 {
	switch name {
	case "particles":
		return float64(m.cfg.Particles)
	case "cloud_radius":
		return m.cfg.Init.CloudRadius
	case "inner_radius":
		return m.cfg.Init.InnerRadius
	case "seed":
		return float64(m.cfg.Init.Seed)
	}
	p := m.cfg.ToParams()
	return p.GetParams()[name]
}

func (m *model) setField(name string, v float64) error {
	switch name {
	case "particles":
		if v < 1 {
			return fmt.Errorf("particles must be positive")
		}
		m.cfg.Particles = int(v)
	case "cloud_radius":
		m.cfg.Init.CloudRadius = v
	case "inner_radius":
		m.cfg.Init.InnerRadius = v
	case "seed":
		m.cfg.Init.Seed = uint32(v)
	default:
		return m.cfg.SetParam(name, v)
	}
	return nil
}

func (m *model) start() tea.Cmd {
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return nil
	}
	if m.workers != 0 {
		m.cfg.Run.Workers = m.workers
	}
	opts, err := driver.OptionsFromConfig(m.cfg)
	if err != nil {
		m.err = err
		return nil
	}
	d, err := driver.New(opts)
	if err != nil {
		m.err = err
		return nil
	}
	m.liveModel = NewModel(d, m.selected, m.fps)
	m.state = stateSim
	return m.liveModel.Init()
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

func keyHelp(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuKey.Render(pairs[i]) + menuIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("PLANETSIM") + "\n    " + menuSub.Render("particle cloud around a planet") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuSelected.Render(fmt.Sprintf("%-10s", name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuIdle.Render(fmt.Sprintf("  %-10s", name)), menuIdle.Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHelp("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(m.selected)) + "\n    " + menuSub.Render(presetInfo[m.selected]) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range setupFields {
		valStr := fmt.Sprintf("%10s", strconv.FormatFloat(m.field(name), 'g', 4, 64))
		if m.editing && i == m.fieldCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuCursor.Render("▸"), menuSelected.Render(fmt.Sprintf("%-14s", name)), menuDesc.Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuIdle.Render(fmt.Sprintf("  %-14s", name)), menuIdle.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + ErrorText.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHelp("j/k", "select", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive shows the preset menu and then the live view.
func RunInteractive(fps, workers int) error {
	_, err := tea.NewProgram(NewInteractiveApp(fps, workers), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
