package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/san-kum/partsim/internal/config"
)

var presetInfo = map[string]string{
	"single":   "one thrown particle",
	"rain":     "grid dropped onto the floor",
	"fountain": "swaying upward jet",
	"pegboard": "stream through fixed pegs",
	"orbit":    "ring under mutual attraction",
	"chaos":    "fast random soup",
}

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuIdleD  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// Picker lets the user choose a preset, tune its parameters and then
// hands over to a live Model.
type Picker struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	notice        string
	logger        *log.Logger
	live          Model
	started       bool
	width, height int
}

func NewPicker(logger *log.Logger) Picker {
	return Picker{
		state:   stateMenu,
		presets: config.ListPresets(),
		logger:  logger,
	}
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			return m.forward(msg)
		}
	default:
		if m.state == stateSim {
			return m.forward(msg)
		}
	}
	return m, nil
}

func (m Picker) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.live.Update(msg)
	m.live = next.(Model)
	return m, cmd
}

func (m Picker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	}
	return m.forward(msg)
}

func (m Picker) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
		m.state, m.paramCursor, m.notice = stateConfig, 0, ""
	}
	return m, nil
}

func (m Picker) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := config.Params[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.set(name, v)
			} else {
				m.notice = fmt.Sprintf("%s: not a number", name)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(config.Params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		v, _ := m.cfg.Param(name)
		m.editing, m.editBuf = true, strconv.FormatFloat(v, 'f', -1, 64)
	case "left", "h":
		m.nudge(name, 0.9)
	case "right", "l":
		m.nudge(name, 1.1)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m *Picker) nudge(name string, factor float64) {
	v, _ := m.cfg.Param(name)
	if v == 0 {
		v = 1 / factor
	}
	m.set(name, v*factor)
}

// set applies v and keeps the previous value if the result is invalid.
func (m *Picker) set(name string, v float64) {
	prev := m.cfg.Clone()
	if err := m.cfg.SetParam(name, v); err != nil {
		m.notice = err.Error()
		return
	}
	if err := m.cfg.Validate(); err != nil {
		m.cfg = prev
		m.notice = err.Error()
		return
	}
	m.notice = ""
}

func (m Picker) start() (tea.Model, tea.Cmd) {
	live, err := NewModel(m.cfg, m.selected, m.logger)
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	if m.width > 0 {
		live.resize(m.width, m.height)
	}
	m.live, m.started = live, true
	m.state = stateSim
	return m, m.live.Init()
}

// Close releases the running experiment, if one was started.
func (m Picker) Close() {
	if m.started {
		m.live.Experiment().Close()
	}
}

func (m Picker) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	}
	return m.live.View()
}

func keyHelp(pairs ...string) string {
	var b strings.Builder
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuKey.Render(pairs[i]) + menuIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String() + "\n"
}

func (m Picker) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("PARTSIM") + "\n    " + menuSub.Render("verlet particle solver") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-12s", name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuIdle.Render(fmt.Sprintf("  %-12s", name)), menuIdleD.Render(desc)))
		}
	}
	b.WriteString(keyHelp("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (m Picker) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(m.selected)) + "\n    " + menuSub.Render(presetInfo[m.selected]) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range config.Params {
		v, _ := m.cfg.Param(name)
		valStr := fmt.Sprintf("%10.3f", v)
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-12s", name)), menuDesc.Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuIdle.Render(fmt.Sprintf("  %-12s", name)), menuIdleD.Render(valStr)))
		}
	}
	if m.notice != "" {
		b.WriteString("\n    " + StatusError.Render(m.notice) + "\n")
	}
	b.WriteString(keyHelp("j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back"))
	return b.String()
}

// RunInteractive opens the preset picker.
func RunInteractive(logger *log.Logger) error {
	final, err := tea.NewProgram(NewPicker(logger), tea.WithAltScreen()).Run()
	if p, ok := final.(Picker); ok {
		p.Close()
	}
	return err
}
