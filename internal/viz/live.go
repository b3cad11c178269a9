package viz

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/spawn"
)

const (
	width           = 80
	height          = 24
	statsWidth      = 44
	historyCapacity = 300
	burstSize       = 20
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps one experiment per tick and draws its particles.
type Model struct {
	cfg    *config.Config
	exp    *experiment.Experiment
	title  string
	logger *log.Logger
	rng    *rand.Rand

	width, height  int
	canvas         *Canvas
	frameCount     int
	energyHistory  []float64
	contactHistory []float64
	bursts         int

	recorder  *Recorder
	recording bool
	notice    string
	showHelp  bool
	err       error
}

// NewModel builds the experiment for cfg. The caller owns the returned
// model's experiment and should Close it after the program exits.
func NewModel(cfg *config.Config, title string, logger *log.Logger) (Model, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return Model{}, err
	}
	return Model{
		cfg:           cfg.Clone(),
		exp:           exp,
		title:         title,
		logger:        logger.WithPrefix("live"),
		rng:           rand.New(rand.NewSource(cfg.Seed + 1)),
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		energyHistory: make([]float64, 0, historyCapacity),
		recorder:      NewRecorder(),
	}, nil
}

func (m Model) Experiment() *experiment.Experiment { return m.exp }

// Err returns the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopRecording()
			return m, tea.Quit
		case " ":
			s := m.exp.Solver()
			if s.Paused() {
				s.Resume()
			} else {
				s.Pause()
			}
		case "n":
			if s := m.exp.Solver(); s.Paused() {
				s.SingleStep()
			}
		case "s":
			m.burst()
		case "r":
			m.reset()
		case "t":
			m.notice = "theme: " + NextTheme().Name
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.notice = "recording"
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.frameCount++
		m.step()
		m.draw()
		if m.recording {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) resize(w, h int) {
	cw := max(w-statsWidth-6, 20)
	ch := max(h-4, 10)
	if cw == m.width && ch == m.height {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

// step advances the experiment by one frame and records its energy.
func (m *Model) step() {
	if m.err != nil {
		return
	}
	s := m.exp.Solver()
	before := s.TotalSteps()
	if err := m.exp.Step(); err != nil {
		m.err = err
		s.Pause()
		m.logger.Error("simulation stopped", "err", err)
		return
	}
	if s.TotalSteps() == before {
		return
	}

	e := metrics.TotalEnergy(m.exp.Snapshot(), s.Gravity())
	m.energyHistory = appendCapped(m.energyHistory, e)
	m.contactHistory = appendCapped(m.contactHistory, float64(m.exp.Profile().Last().Contacts))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// burst drops a small grid of particles near the top of the world.
func (m *Model) burst() {
	s := m.exp.Solver()
	world := s.WorldSize()
	e, err := spawn.New(spawn.Options{
		Pattern:    "grid",
		Count:      burstSize,
		Radius:     m.cfg.Spawn.Radius,
		Elasticity: m.cfg.Spawn.Elasticity,
		Origin:     r2.Vec{X: (m.rng.Float64() - 0.5) * world.X * 0.5, Y: world.Y * 0.3},
		Velocity:   r2.Vec{X: (m.rng.Float64() - 0.5) * m.cfg.Spawn.Speed},
	}, m.rng)
	if err != nil {
		m.notice = err.Error()
		return
	}
	n, err := e.Emit(s, s.TotalTimeElapsed(), m.cfg.Dt)
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.bursts++
	m.notice = fmt.Sprintf("spawned %d", n)
	m.logger.Debug("burst", "particles", n, "total", s.ParticleCount())
}

// reset rebuilds the experiment from the config it started with.
func (m *Model) reset() {
	exp, err := experiment.New(m.cfg, experiment.WithLogger(m.logger))
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.exp.Close()
	m.exp = exp
	m.err = nil
	m.bursts = 0
	m.energyHistory = m.energyHistory[:0]
	m.contactHistory = m.contactHistory[:0]
	m.notice = "reset"
}

func (m *Model) stopRecording() {
	if !m.recording {
		return
	}
	m.recording = false
	path := fmt.Sprintf("partsim_%d.gif", time.Now().Unix())
	frames := m.recorder.Frames()
	if err := m.recorder.Save(path); err != nil {
		m.notice = "gif: " + err.Error()
		m.logger.Error("save gif", "path", path, "err", err)
		return
	}
	m.notice = fmt.Sprintf("saved %s (%d frames)", path, frames)
	m.logger.Info("saved gif", "path", path, "frames", frames)
}

// project maps world coordinates, y up with the origin at the centre, to
// canvas sub-pixels.
func (m *Model) project(p r2.Vec, world r2.Vec) (x, y int, scale float64) {
	cw, ch := float64(m.canvas.SubWidth()), float64(m.canvas.SubHeight())
	scale = math.Min((cw-2)/world.X, (ch-2)/world.Y)
	x = int(math.Round(cw/2 + p.X*scale))
	y = int(math.Round(ch/2 - p.Y*scale))
	return x, y, scale
}

func (m *Model) draw() {
	m.canvas.Clear()
	s := m.exp.Solver()
	world := s.WorldSize()
	theme := CurrentTheme

	x0, y0, _ := m.project(r2.Vec{X: -world.X / 2, Y: world.Y / 2}, world)
	x1, y1, _ := m.project(r2.Vec{X: world.X / 2, Y: -world.Y / 2}, world)
	wall := string(theme.Wall)
	for x := x0; x <= x1; x++ {
		m.canvas.SetColor(x, y0, wall)
		m.canvas.SetColor(x, y1, wall)
	}
	for y := y0; y <= y1; y++ {
		m.canvas.SetColor(x0, y, wall)
		m.canvas.SetColor(x1, y, wall)
	}

	for _, d := range m.exp.Snapshot() {
		if !d.Visible {
			continue
		}
		x, y, scale := m.project(d.Position, world)
		color := spawn.Hex(d.Color)
		if d.Fixed {
			color = string(theme.Peg)
		}
		m.canvas.DrawCircle(x, y, int(d.Radius*scale), color)
	}
}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func (m Model) statsStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(CurrentTheme.Muted).
		Padding(1, 2).
		Width(statsWidth)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusError.Render("✗ FAILED")
	case m.recording:
		return StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Frames()))
	case m.exp.Solver().Paused():
		return StatusPaused.Render("❚❚ PAUSED")
	}
	return StatusRunning.Render(AnimatedSpinner(m.frameCount) + " RUNNING")
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// View renders the TUI interface.
func (m Model) View() string {
	theme := CurrentTheme
	s := m.exp.Solver()
	last := m.exp.Profile().Last()

	var b strings.Builder
	b.WriteString(GradientText(strings.ToUpper(m.title), theme.Primary, theme.Secondary) + "\n")
	b.WriteString(m.status() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory,
			asciigraph.Height(5),
			asciigraph.Width(statsWidth-14),
			asciigraph.Caption("energy"))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(chart) + "\n\n")
	}

	b.WriteString(row("particles", fmt.Sprintf("%d", s.ParticleCount())))
	b.WriteString(row("steps", fmt.Sprintf("%d", s.TotalSteps())))
	b.WriteString(row("time", fmt.Sprintf("%.2fs", s.TotalTimeElapsed())))
	b.WriteString(row("substeps", fmt.Sprintf("%d", s.SubSteps())))
	b.WriteString(row("contacts", fmt.Sprintf("%d", last.Contacts)))
	b.WriteString(labelStyle.Render("") + SparklineChart(m.contactHistory, statsWidth-18) + "\n")
	b.WriteString(row("update", last.Total.Round(time.Microsecond).String()))
	b.WriteString(row("  collide", last.Collide.Round(time.Microsecond).String()))
	b.WriteString(row("  integrate", last.Integrate.Round(time.Microsecond).String()))
	if name := m.exp.Backend(); name != "" {
		b.WriteString(row("backend", name))
	}

	if em := m.exp.Emitter(); m.cfg.Spawn.Count > 0 && !em.Done() {
		frac := float64(em.Emitted()) / float64(m.cfg.Spawn.Count)
		b.WriteString("\n" + labelStyle.Render("spawning") + ProgressBar(frac, 18) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + StatusError.Render(m.err.Error()) + "\n")
	} else if m.notice != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Accent).Render(m.notice) + "\n")
	}

	b.WriteString("\n" + Separator(statsWidth-6) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Muted).Render(
		"SP:Pause N:Step S:Spawn R:Reset\nT:Theme  G:Record ?:Help Q:Quit"))

	canvasView := canvasStyle.Render(m.canvas.Render(theme.Text))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.statsStyle().Render(b.String()))
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  N        - Single step when paused  ║
║  S        - Spawn a particle burst   ║
║  R        - Rebuild from config      ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run shows a live view of cfg until the user quits.
func Run(cfg *config.Config, title string, logger *log.Logger) error {
	m, err := NewModel(cfg, title, logger)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if fm, ok := final.(Model); ok {
		fm.exp.Close()
	} else {
		m.exp.Close()
	}
	return err
}
