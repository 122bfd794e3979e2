package viz

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/tecsim/internal/analysis"
	"github.com/san-kum/tecsim/internal/optim"
	"github.com/san-kum/tecsim/internal/perf"
	"github.com/san-kum/tecsim/internal/tec"
)

const (
	plotWidth       = 48
	plotHeight      = 10
	historyCapacity = 120
	sweepPoints     = 61
)

type sweepMsg struct {
	model  string
	points []analysis.Point
	err    error
}

type optimizedMsg struct {
	model  string
	target optim.Target
	result optim.Result
	err    error
}

// Explorer is an interactive view of one device across output voltages
// and models.
type Explorer struct {
	base     *tec.Device
	models   []tec.Model
	modelIdx int

	device  *tec.Device
	voltage float64
	step    float64

	snap    perf.Snapshot
	err     error
	history []float64

	sweep    []analysis.Point
	sweepErr error
	status   string

	width, height int
	showHelp      bool
}

func NewExplorer(d *tec.Device) Explorer {
	models := []tec.Model{tec.BaseModel{}, tec.BaseModel{CollectorEmission: true}, tec.LangmuirModel{}}
	idx := 0
	for i, m := range models {
		if m.Name() == d.Model().Name() {
			idx = i
			models[i] = d.Model()
		}
	}
	e := Explorer{
		base:     d,
		models:   models,
		modelIdx: idx,
		voltage:  d.OutputVoltage(),
		step:     0.05,
		history:  make([]float64, 0, historyCapacity),
		width:    100,
		height:   40,
	}
	e.evaluate()
	return e
}

func (e Explorer) Init() tea.Cmd {
	return e.sweepCmd()
}

// Voltage is the current output voltage.
func (e Explorer) Voltage() float64 { return e.voltage }

func (e Explorer) Snapshot() perf.Snapshot { return e.snap }

func (e Explorer) Model() tec.Model { return e.models[e.modelIdx] }

func (e *Explorer) evaluate() {
	d, err := e.base.WithModel(e.Model())
	if err == nil {
		d, err = d.WithOutputVoltage(e.voltage)
	}
	if err != nil {
		e.err = err
		return
	}
	e.device = d
	e.snap, e.err = perf.Evaluate(d)
	if e.err != nil {
		return
	}
	if len(e.history) == historyCapacity {
		e.history = e.history[1:]
	}
	e.history = append(e.history, e.snap.OutputPower)
}

func (e Explorer) domain() (lo, hi float64) {
	ve := e.base.Emitter().Voltage()
	span := e.base.Emitter().Barrier() + e.base.Collector().Barrier()
	return ve - 0.25*span, ve + 1.25*span
}

func (e Explorer) sweepCmd() tea.Cmd {
	d, err := e.base.WithModel(e.Model())
	name := e.Model().Name()
	lo, hi := e.domain()
	return func() tea.Msg {
		if err != nil {
			return sweepMsg{model: name, err: err}
		}
		points, err := analysis.Sweep(context.Background(), d, analysis.SweepConfig{Start: lo, Stop: hi, Points: sweepPoints})
		return sweepMsg{model: name, points: points, err: err}
	}
}

func (e Explorer) optimizeCmd(target optim.Target) tea.Cmd {
	d := e.device
	name := e.Model().Name()
	return func() tea.Msg {
		if d == nil {
			return optimizedMsg{model: name, target: target, err: fmt.Errorf("no device")}
		}
		res, err := optim.New(optim.Config{Target: target}).Maximize(context.Background(), d)
		return optimizedMsg{model: name, target: target, result: res, err: err}
	}
}

func (e Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width, e.height = msg.Width, msg.Height
	case sweepMsg:
		if msg.model == e.Model().Name() {
			e.sweep, e.sweepErr = msg.points, msg.err
		}
	case optimizedMsg:
		if msg.model != e.Model().Name() {
			return e, nil
		}
		if msg.err != nil {
			e.status = "optimize: " + msg.err.Error()
			return e, nil
		}
		e.voltage = msg.result.Voltage
		e.status = fmt.Sprintf("optimum %s at %.4f V after %d trials", msg.target, msg.result.Voltage, msg.result.Trials)
		e.evaluate()
	case tea.KeyMsg:
		return e.handleKey(msg)
	}
	return e, nil
}

func (e Explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return e, tea.Quit
	case "right", "l":
		e.voltage += e.step
		e.evaluate()
	case "left", "h":
		e.voltage -= e.step
		e.evaluate()
	case "up", "k":
		e.step = math.Min(e.step*10, 1)
	case "down", "j":
		e.step = math.Max(e.step/10, 1e-4)
	case "0":
		e.voltage = e.base.Emitter().Voltage()
		e.evaluate()
	case "m":
		e.modelIdx = (e.modelIdx + 1) % len(e.models)
		e.sweep, e.sweepErr, e.status = nil, nil, ""
		e.evaluate()
		return e, e.sweepCmd()
	case "p":
		e.status = "optimizing power..."
		return e, e.optimizeCmd(optim.Power)
	case "e":
		e.status = "optimizing efficiency..."
		return e, e.optimizeCmd(optim.Efficiency)
	case "t":
		NextTheme()
	case "?":
		e.showHelp = !e.showHelp
	}
	return e, nil
}

func (e Explorer) View() string {
	var left strings.Builder
	left.WriteString(Title(strings.ToUpper(e.Model().Name())) + "  " + Hint(e.base.String()) + "\n\n")
	if e.err != nil {
		left.WriteString(regimeStyle("retarding").Render("error: "+e.err.Error()) + "\n")
	} else if plot, err := MotivePlot(e.snap.Profile, plotWidth, plotHeight); err == nil {
		left.WriteString(plot + "\n")
	}
	left.WriteString("\n")
	switch {
	case e.sweepErr != nil:
		left.WriteString(Hint("sweep: "+e.sweepErr.Error()) + "\n")
	case e.sweep == nil:
		left.WriteString(Hint("sweeping...") + "\n")
	default:
		left.WriteString(SweepPlot(e.sweep, columns["current"], plotWidth, plotHeight) + "\n")
	}

	stats := panelStyle().Render(e.viewStats())
	main := lipgloss.JoinHorizontal(lipgloss.Top, left.String(), "  ", stats)

	footer := Keys("h/l", "voltage", "j/k", "step", "m", "model", "p/e", "optimize", "t", "theme", "?", "help", "q", "quit")
	if e.status != "" {
		footer = Hint(e.status) + "\n" + footer
	}
	if e.showHelp {
		return e.viewHelp() + "\n\n" + main + "\n" + footer
	}
	return main + "\n" + footer
}

func (e Explorer) viewStats() string {
	var b strings.Builder
	b.WriteString(Title("OPERATING POINT") + "\n\n")
	b.WriteString(KeyValue("voltage", fmt.Sprintf("%.4f V", e.voltage)) + "\n")
	b.WriteString(KeyValue("step", fmt.Sprintf("%g V", e.step)) + "\n")
	if e.err != nil {
		return b.String()
	}
	s := e.snap
	b.WriteString(KeyValue("regime", Regime(s.Regime)) + "\n")
	b.WriteString(KeyValue("contact pot.", fmt.Sprintf("%.4f V", s.ContactPotential)) + "\n")
	b.WriteString(KeyValue("max motive", fmt.Sprintf("%.4f eV", s.MaxMotive)) + "\n")
	b.WriteString(KeyValue("max at", fmt.Sprintf("%.4g um", s.MaxPosition)) + "\n\n")

	b.WriteString(KeyValue("J sat", FormatSI(s.SaturationCurrent, "A/cm2")) + "\n")
	b.WriteString(KeyValue("J forward", FormatSI(s.ForwardCurrent, "A/cm2")) + "\n")
	b.WriteString(KeyValue("J back", FormatSI(s.BackCurrent, "A/cm2")) + "\n")
	b.WriteString(KeyValue("J out", FormatSI(s.OutputCurrent, "A/cm2")) + "\n")
	b.WriteString(KeyValue("P out", FormatSI(s.OutputPower, "W/cm2")) + "\n")
	b.WriteString(KeyValue("Q electron", FormatSI(s.ElectronCooling, "W/cm2")) + "\n")
	b.WriteString(KeyValue("Q radiation", FormatSI(s.RadiationLoss, "W/cm2")) + "\n\n")

	b.WriteString(KeyValue("efficiency", FormatSI(s.TotalEfficiency, "")) + "\n")
	b.WriteString(labelStyle().Render("") + Bar(s.TotalEfficiency/s.CarnotEfficiency, 20) + "\n")
	b.WriteString(KeyValue("carnot", FormatSI(s.CarnotEfficiency, "")) + "\n\n")
	b.WriteString(KeyValue("P history", Sparkline(e.history, 24)) + "\n")
	return b.String()
}

func (e Explorer) viewHelp() string {
	rows := []string{
		"h / l     lower / raise the output voltage",
		"j / k     shrink / grow the voltage step",
		"0         return to the emitter voltage",
		"m         cycle base, base-back and langmuir",
		"p / e     jump to maximum power / efficiency",
		"t         cycle themes",
		"q         quit",
	}
	return panelStyle().Render(Title("KEYS") + "\n" + strings.Join(rows, "\n"))
}

// RunExplorer opens the explorer on the alternate screen.
func RunExplorer(d *tec.Device) error {
	_, err := tea.NewProgram(NewExplorer(d), tea.WithAltScreen()).Run()
	return err
}
