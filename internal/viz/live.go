package viz

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/telemetry"
)

const (
	canvasCols      = 80
	canvasRows      = 24
	historyCapacity = 600

	// canvas padding applied by styles.canvas, in terminal cells
	padLeft = 2
	padTop  = 1

	frameBudget = time.Second / 60
)

type TickMsg time.Time

// Model is the live viewer: it steps an engine.Context once per tick and
// draws the scene onto a braille canvas next to a telemetry panel.
type Model struct {
	ctx     *engine.Context
	emitter *engine.Emitter
	frameDt float64
	rng     *rand.Rand

	canvas *Canvas
	proj   Projection
	opts   RenderOptions
	theme  Theme
	st     styles

	running   bool
	showHelp  bool
	last      telemetry.TickStats
	energy    []float64
	stretch   []float64
	recording bool
	recorder  *Recorder
	gifPath   string
	message   string
}

// NewModel builds a viewer over c. The emitter may be nil.
func NewModel(c *engine.Context, em *engine.Emitter, frameDt float64, theme string) Model {
	if em == nil {
		em = engine.NewEmitter(c.Config().Spawn.EmitterInterval)
	}
	t := GetTheme(theme)
	m := Model{
		ctx:      c,
		emitter:  em,
		frameDt:  frameDt,
		rng:      rand.New(rand.NewSource(c.Config().Seed)),
		canvas:   NewCanvas(canvasCols, canvasRows),
		opts:     DefaultRenderOptions(),
		theme:    t,
		st:       newStyles(t),
		running:  true,
		energy:   make([]float64, 0, historyCapacity),
		stretch:  make([]float64, 0, historyCapacity),
		recorder: NewRecorder(),
		gifPath:  "pbdsim.gif",
	}
	m.redraw()
	return m
}

// SetGIFPath changes where recordings are written.
func (m *Model) SetGIFPath(path string) { m.gifPath = path }

func tick() tea.Cmd {
	return tea.Tick(frameBudget, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "b":
			m.ctx.AddUserBody(m.randomTop())
		case "c":
			m.ctx.SpawnCluster(m.randomTop())
		case "s":
			w, h := m.ctx.SceneSize()
			m.ctx.CreateSoftBody(r2.Vec{X: w * 0.5, Y: h * 0.15}, m.ctx.Config().Spawn.SoftBody)
		case "e":
			if m.emitter.Running() {
				m.emitter.Stop()
			} else {
				m.emitter.Start(m.ctx)
			}
		case "[":
			m.resize(0.9)
		case "]":
			m.resize(1 / 0.9)
		case "l":
			m.opts.Springs = !m.opts.Springs
		case "o":
			m.opts.Constraints = !m.opts.Constraints
		case "g":
			m.opts.Grid = !m.opts.Grid
		case "r":
			m.toggleRecording()
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
		m.redraw()
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			break
		}
		pos, ok := m.scenePoint(msg.X, msg.Y)
		if !ok {
			break
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.ctx.AddUserBody(pos)
		case tea.MouseButtonRight:
			m.ctx.SpawnCluster(pos)
		}
		m.redraw()
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the scene one frame and records telemetry.
func (m *Model) step() {
	t0 := time.Now()
	m.ctx.Step(m.frameDt)
	elapsed := time.Since(t0)
	if dt, ok := m.ctx.Config().Solver.FrameDt(m.frameDt); ok {
		m.emitter.Advance(m.ctx, dt)
	}

	f := m.ctx.Snapshot()
	m.last = telemetry.Collect(&f, elapsed)
	m.energy = appendCapped(m.energy, m.last.KineticEnergy)
	m.stretch = appendCapped(m.stretch, m.last.SpringMean)

	m.proj = DrawFrame(m.canvas, &f, m.opts)
	if m.recording {
		m.recorder.Capture(m.canvas)
	}
}

func (m *Model) redraw() {
	f := m.ctx.Snapshot()
	m.proj = DrawFrame(m.canvas, &f, m.opts)
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m *Model) randomTop() r2.Vec {
	w, h := m.ctx.SceneSize()
	return r2.Vec{X: w * (0.1 + 0.8*m.rng.Float64()), Y: h * 0.1}
}

func (m *Model) resize(factor float64) {
	w, h := m.ctx.SceneSize()
	cfg := m.ctx.Config()
	nw := min(max(w*factor, cfg.CellSize), cfg.Width*2)
	m.ctx.ResizeScene(nw, h)
	m.message = fmt.Sprintf("scene %.0fx%.0f", nw, h)
}

// scenePoint maps a terminal cell to scene coordinates.
func (m *Model) scenePoint(x, y int) (r2.Vec, bool) {
	col, row := x-padLeft, y-padTop
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return r2.Vec{}, false
	}
	p := m.proj.Unproject(col*2+1, row*4+2)
	w, h := m.ctx.SceneSize()
	if p.X < 0 || p.Y < 0 || p.X > w || p.Y > h {
		return r2.Vec{}, false
	}
	return p, true
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.recorder.Reset()
		m.message = "recording"
		return
	}
	m.recording = false
	if m.recorder.Len() == 0 {
		m.message = "nothing recorded"
		return
	}
	f, err := os.Create(m.gifPath)
	if err != nil {
		m.message = err.Error()
		return
	}
	defer f.Close()
	if err := m.recorder.Encode(f); err != nil {
		m.message = err.Error()
		return
	}
	m.message = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), m.gifPath)
	m.recorder.Reset()
}

func (m Model) status() string {
	switch {
	case m.recording:
		return m.st.record.Render("● REC")
	case !m.running:
		return m.st.paused.Render("PAUSED")
	}
	return m.st.running.Render("RUNNING")
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

// View renders the TUI interface.
func (m Model) View() string {
	canvasView := m.st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.st.header.Render("PBD SANDBOX") + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(m.st.graph.Render(chart) + "\n\n")
	}

	cols, rows := m.ctx.GridDims()
	s.WriteString(m.row("Time", fmt.Sprintf("%.2fs", m.ctx.Time())))
	s.WriteString(m.row("Tick", fmt.Sprintf("%d", m.ctx.Ticks())))
	s.WriteString(m.row("Bodies", fmt.Sprintf("%d", m.ctx.BodyCount())))
	s.WriteString(m.row("Clusters", fmt.Sprintf("%d", m.ctx.ClusterCount())))
	s.WriteString(m.row("Grid", fmt.Sprintf("%dx%d", cols, rows)))
	s.WriteString(m.row("Overlap", fmt.Sprintf("%.3f", m.last.MaxOverlap)))
	s.WriteString(m.row("Stretch", m.st.Sparkline(m.stretch, 20)))
	load := float64(m.last.StepMicros) / float64(frameBudget.Microseconds())
	s.WriteString(m.row("Step", m.st.ProgressBar(load, 12)+fmt.Sprintf(" %dµs", m.last.StepMicros)))
	emitter := "off"
	if m.emitter.Running() {
		emitter = "on"
	}
	s.WriteString(m.row("Emitter", emitter))
	if m.message != "" {
		s.WriteString("\n" + m.st.value.Render(m.message) + "\n")
	}

	s.WriteString(m.st.help.Render("─────────────────────\nSP:Pause Q:Quit ?:Help\nB:Body C:Cluster S:Soft E:Emit"))
	statsView := m.st.stats.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return mainView + "\n" + m.st.help.Render(helpText)
	}
	return mainView
}

const helpText = `Space   pause / resume      N  single step while paused
B       drop a body         C  drop a spring cluster
S       drop a soft body    E  toggle the center emitter
[ ]     shrink / grow the scene width
L O G   toggle springs / constraints / grid lines
R       start / stop GIF recording
T       cycle themes        Q  quit
Mouse   left: body  right: cluster`
