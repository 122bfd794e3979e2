package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecsim/internal/analysis"
	"github.com/san-kum/tecsim/internal/codec"
	"github.com/san-kum/tecsim/internal/config"
	"github.com/san-kum/tecsim/internal/export"
	"github.com/san-kum/tecsim/internal/optim"
	"github.com/san-kum/tecsim/internal/perf"
	"github.com/san-kum/tecsim/internal/storage"
	"github.com/san-kum/tecsim/internal/tec"
	"github.com/san-kum/tecsim/internal/units"
	"github.com/san-kum/tecsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	deviceFile string
	preset     string
	modelName  string
	verbose    bool

	// output voltage in V, applied after the electrodes
	voltage float64

	jsonOut   bool
	save      bool
	noSave    bool
	runName   string
	deviceOut string

	sweepParam  string
	sweepStart  float64
	sweepStop   float64
	sweepPoints int
	workers     int
	column      string

	target     string
	minVoltage float64
	maxVoltage float64
	tolerance  float64
	maxTrials  int
	gridPoints int

	outFile string
	motive  bool

	runKind  string
	runLimit int
)

// --emitter-<field> and --collector-<field>, shared by all device commands
var electrodeFlags = map[string]*string{}

var cache = tec.NewMotiveCache(1024)

var fieldExamples = map[string]string{
	tec.FieldTemperature: "2000 K",
	tec.FieldBarrier:     "2 eV",
	tec.FieldRichardson:  "120 A/(cm2 K2)",
	tec.FieldEmissivity:  "0.5",
	tec.FieldVoltage:     "0 V",
	tec.FieldPosition:    "10 um",
}

// main registers the commands and runs the explorer when no subcommand is
// given. It exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "tecsim",
		Short: "vacuum thermionic energy converter simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(0)
			log.SetPrefix("tecsim: ")
			if !verbose {
				log.SetOutput(io.Discard)
			}
		},
		RunE:          runExplore,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addDeviceFlags(rootCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultRunsDir, "runs directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&deviceFile, "device", "", "device file path (yaml or json)")
	pf.StringVar(&preset, "preset", "", "preset name, optionally as model/name")
	pf.StringVar(&modelName, "model", config.DefaultModel, fmt.Sprintf("motive model %v", tec.ModelNames()))
	pf.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "evaluate the device at one output voltage",
		Args:  cobra.NoArgs,
		RunE:  runSolve,
	}
	addDeviceFlags(solveCmd)
	solveCmd.Flags().BoolVar(&jsonOut, "json", false, "print json")
	solveCmd.Flags().BoolVar(&save, "save", false, "save the run")
	solveCmd.Flags().StringVar(&runName, "name", "", "run name")
	solveCmd.Flags().StringVar(&deviceOut, "write-device", "", "write the device to a yaml or json file")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one device parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addDeviceFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "voltage", fmt.Sprintf("swept parameter %v", analysis.Params()))
	sweepCmd.Flags().Float64Var(&sweepStart, "start", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepStop, "stop", 3, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 61, "number of points")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	sweepCmd.Flags().StringVar(&column, "column", "power", fmt.Sprintf("plotted column %v", viz.ColumnNames()))
	sweepCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run")
	sweepCmd.Flags().StringVar(&runName, "name", "", "run name")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "find the output voltage of maximum power or efficiency",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	addDeviceFlags(optimizeCmd)
	optimizeCmd.Flags().StringVar(&target, "target", "power", "power or efficiency")
	optimizeCmd.Flags().Float64Var(&minVoltage, "min", 0, "lower collector voltage bound (0: emitter voltage)")
	optimizeCmd.Flags().Float64Var(&maxVoltage, "max", 0, "upper collector voltage bound (0: emitter voltage plus both barriers)")
	optimizeCmd.Flags().Float64Var(&tolerance, "tolerance", 1e-6, "voltage tolerance")
	optimizeCmd.Flags().IntVar(&maxTrials, "max-trials", 500, "evaluation budget")
	optimizeCmd.Flags().IntVar(&gridPoints, "grid", 16, "bracketing grid size (negative disables)")
	optimizeCmd.Flags().IntVar(&workers, "workers", 0, "parallel grid workers")
	optimizeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run")
	optimizeCmd.Flags().StringVar(&runName, "name", "", "run name")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved sweep, or the configured device",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlot,
	}
	addDeviceFlags(plotCmd)
	plotCmd.Flags().StringVar(&column, "column", "power", fmt.Sprintf("plotted column %v", viz.ColumnNames()))
	plotCmd.Flags().BoolVar(&motive, "motive", false, "plot the motive profile instead of a sweep")
	plotCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the chart to a png, svg, pdf, eps or jpg file")

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "interactive explorer",
		Args:  cobra.NoArgs,
		RunE:  runExplore,
	}
	addDeviceFlags(exploreCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "print or write the effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	addDeviceFlags(configCmd)

	rootCmd.AddCommand(solveCmd, sweepCmd, optimizeCmd, plotCmd, exploreCmd, presetsCmd, configCmd, runsCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addDeviceFlags(cmd *cobra.Command) {
	for _, side := range []string{"emitter", "collector"} {
		for _, field := range tec.FieldNames {
			name := side + "-" + field
			p, ok := electrodeFlags[name]
			if !ok {
				p = new(string)
				electrodeFlags[name] = p
			}
			cmd.Flags().StringVar(p, name, "", fmt.Sprintf("%s %s, e.g. %q", side, field, fieldExamples[field]))
		}
	}
	cmd.Flags().Float64Var(&voltage, "voltage", 0, "output voltage in V")
}

// loadConfig layers defaults, preset, config file, device file and flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		model, name := config.DefaultModel, preset
		if m, p, ok := strings.Cut(preset, "/"); ok {
			model, name = m, p
		} else if cmd.Flags().Changed("model") {
			model = modelName
		}
		cfg = config.GetPreset(model, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", name, model, config.ListPresets(model))
		}
		log.Printf("preset %s/%s", model, name)
	}

	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		log.Printf("config %s", configFile)
	}

	if deviceFile != "" {
		fields, err := readFields(deviceFile)
		if err != nil {
			return nil, err
		}
		cfg.Model, cfg.Emitter, cfg.Collector = fields.Model, fields.Emitter, fields.Collector
		log.Printf("device %s", deviceFile)
	}

	if cmd.Flags().Changed("model") {
		cfg.Model = modelName
	}
	if cmd.Flags().Changed("data") || cfg.RunsDir == "" {
		cfg.RunsDir = dataDir
	}
	if cfg.Emitter == nil {
		cfg.Emitter = tec.FieldMap{}
	}
	if cfg.Collector == nil {
		cfg.Collector = tec.FieldMap{}
	}
	for name, p := range electrodeFlags {
		if !cmd.Flags().Changed(name) {
			continue
		}
		side, field, _ := strings.Cut(name, "-")
		q, err := units.Parse(*p)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		if side == "emitter" {
			cfg.Emitter[field] = q
		} else {
			cfg.Collector[field] = q
		}
	}
	return cfg, nil
}

func readFields(path string) (*tec.DeviceFields, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fields, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read device %s: %w", path, err)
	}
	return fields, nil
}

func loadDevice(cmd *cobra.Command) (*config.Config, *tec.Device, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	d, err := cfg.Device(tec.WithCache(cache))
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("voltage") {
		if d, err = d.WithOutputVoltage(voltage); err != nil {
			return nil, nil, err
		}
	}
	log.Printf("device %s", d)
	return cfg, d, nil
}

// evaluateMetrics returns every defined metric of d.
func evaluateMetrics(d *tec.Device) map[string]float64 {
	out := make(map[string]float64)
	for _, name := range perf.MetricNames() {
		m, err := perf.MetricByName(name)
		if err != nil {
			continue
		}
		v, err := m.Value(d)
		if err != nil {
			log.Printf("%s: %v", name, err)
			continue
		}
		out[name] = v
	}
	return out
}

func printMetrics(w io.Writer, metrics map[string]float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE\tUNIT")
	for _, name := range perf.MetricNames() {
		v, ok := metrics[name]
		if !ok {
			fmt.Fprintf(tw, "%s\t%s\t\n", name, "undefined")
			continue
		}
		m, _ := perf.MetricByName(name)
		fmt.Fprintf(tw, "%s\t%.6g\t%s\n", name, v, m.Unit)
	}
	return tw.Flush()
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, d, err := loadDevice(cmd)
	if err != nil {
		return err
	}
	s, err := perf.Evaluate(d)
	if err != nil {
		return err
	}
	metrics := evaluateMetrics(d)

	if deviceOut != "" {
		if err := writeDevice(deviceOut, d); err != nil {
			return err
		}
	}
	if save {
		runID, err := saveRun(cmd.Context(), cfg, storage.Run{
			Name:    runName,
			Kind:    "solve",
			Device:  d,
			Target:  optim.Power.String(),
			Voltage: s.OutputVoltage,
			Value:   s.OutputPower,
			Metrics: metrics,
		})
		if err != nil {
			return err
		}
		log.Printf("saved %s", runID)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Device  tec.DeviceFields   `json:"device"`
			Regime  string             `json:"regime"`
			Metrics map[string]float64 `json:"metrics"`
		}{d.Fields(), s.Regime, metrics})
	}

	fmt.Println(viz.Title(strings.ToUpper(s.Model)) + "  " + viz.Hint(d.String()))
	fmt.Println()
	if graph, err := viz.MotivePlot(s.Profile, 70, 12); err == nil {
		fmt.Println(graph)
		fmt.Println()
	}
	fmt.Println(viz.KeyValue("regime", viz.Regime(s.Regime)))
	fmt.Println(viz.KeyValue("max motive", fmt.Sprintf("%.4f eV at %.4g um", s.MaxMotive, s.MaxPosition)))
	fmt.Println()
	return printMetrics(os.Stdout, metrics)
}

func writeDevice(path string, d *tec.Device) error {
	c, err := codec.ForPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := codec.WriteDevice(c, d, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sweepConfig(cmd *cobra.Command, cfg *config.Config) analysis.SweepConfig {
	sc := cfg.Sweep
	if cmd.Flags().Changed("param") {
		sc.Param = sweepParam
	}
	if cmd.Flags().Changed("start") {
		sc.Start = sweepStart
	}
	if cmd.Flags().Changed("stop") {
		sc.Stop = sweepStop
	}
	if cmd.Flags().Changed("points") {
		sc.Points = sweepPoints
	}
	if cmd.Flags().Changed("workers") {
		sc.Workers = workers
	}
	return sc
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, d, err := loadDevice(cmd)
	if err != nil {
		return err
	}
	col, err := viz.ColumnByName(column)
	if err != nil {
		return err
	}
	sc := sweepConfig(cmd, cfg)
	points, err := analysis.Sweep(cmd.Context(), d, sc)
	if err != nil {
		return err
	}
	param := sc.Param
	if param == "" {
		param = "voltage"
	}
	log.Printf("swept %s over %d points", param, len(points))

	fmt.Println(viz.Title(fmt.Sprintf("%s vs %s", col.Label, param)) + "  " + viz.Hint(d.String()))
	fmt.Println()
	fmt.Println(viz.SweepPlot(points, col, 70, 12))
	fmt.Println()

	peak, ok := analysis.Peak(points)
	if ok {
		fmt.Println(viz.KeyValue("peak power", fmt.Sprintf("%s at %s = %.4g", viz.FormatSI(peak.OutputPower, "W/cm2"), param, peak.Param)))
	}
	for _, i := range analysis.Transitions(points) {
		fmt.Println(viz.KeyValue("regime change", fmt.Sprintf("%s -> %s between %.4g and %.4g",
			points[i-1].Regime, points[i].Regime, points[i-1].Param, points[i].Param)))
	}
	if b, err := analysis.RegimeBoundaries(d); err == nil && param == "voltage" {
		fmt.Println(viz.KeyValue("saturation", fmt.Sprintf("%.4f V", b.Saturation.Voltage)))
		fmt.Println(viz.KeyValue("critical", fmt.Sprintf("%.4f V", b.Critical.Voltage)))
	}

	if noSave {
		return nil
	}
	run := storage.Run{Name: runName, Kind: "sweep", Device: d, Target: param, Points: points}
	if ok {
		run.Voltage, run.Value = peak.OutputVoltage, peak.OutputPower
	}
	runID, err := saveRun(cmd.Context(), cfg, run)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun saved: %s\n", runID)
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, d, err := loadDevice(cmd)
	if err != nil {
		return err
	}
	oc := &cfg.Optimize
	if cmd.Flags().Changed("target") {
		oc.Target = target
	}
	if cmd.Flags().Changed("min") {
		oc.MinVoltage = minVoltage
	}
	if cmd.Flags().Changed("max") {
		oc.MaxVoltage = maxVoltage
	}
	if cmd.Flags().Changed("tolerance") {
		oc.Tolerance = tolerance
	}
	if cmd.Flags().Changed("max-trials") {
		oc.MaxTrials = maxTrials
	}
	if cmd.Flags().Changed("grid") {
		oc.GridPoints = gridPoints
	}
	if cmd.Flags().Changed("workers") {
		oc.Workers = workers
	}

	opt, err := cfg.Optimizer()
	if err != nil {
		return err
	}
	lo, hi := opt.Domain(d)
	log.Printf("maximizing %s over [%g, %g] V", opt.Config().Target, lo, hi)

	res, err := opt.Maximize(cmd.Context(), d)
	if err != nil {
		return err
	}
	best, err := d.WithCollectorVoltage(res.Voltage)
	if err != nil {
		return err
	}
	s, err := perf.Evaluate(best)
	if err != nil {
		return err
	}
	hits, solves := cache.Stats()
	log.Printf("%d trials, motive cache %d hits / %d solves", res.Trials, hits, solves)

	fmt.Println(viz.Title("OPTIMUM "+strings.ToUpper(res.Target.String())) + "  " + viz.Hint(d.String()))
	fmt.Println()
	fmt.Println(viz.KeyValue("voltage", fmt.Sprintf("%.6f V", s.OutputVoltage)))
	fmt.Println(viz.KeyValue("value", fmt.Sprintf("%.6g", res.Value)))
	fmt.Println(viz.KeyValue("regime", viz.Regime(s.Regime)))
	fmt.Println(viz.KeyValue("trials", fmt.Sprint(res.Trials)))
	fmt.Println()
	metrics := evaluateMetrics(best)
	if err := printMetrics(os.Stdout, metrics); err != nil {
		return err
	}

	if noSave {
		return nil
	}
	runID, err := saveRun(cmd.Context(), cfg, storage.Run{
		Name:    runName,
		Kind:    "optimize",
		Device:  best,
		Target:  res.Target.String(),
		Voltage: s.OutputVoltage,
		Value:   res.Value,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\nrun saved: %s\n", runID)
	return nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	_, d, err := loadDevice(cmd)
	if err != nil {
		return err
	}
	return viz.RunExplorer(d)
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := tec.ModelNames()
	if len(args) == 1 {
		if _, ok := config.Presets[args[0]]; !ok {
			return fmt.Errorf("no presets for model %q", args[0])
		}
		models = args
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPRESET\tDEVICE")
	for _, model := range models {
		for _, name := range config.ListPresets(model) {
			desc := "invalid"
			if d, err := config.GetPreset(model, name).Device(); err == nil {
				desc = d.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", model, name, desc)
		}
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := cfg.Device(); err != nil {
		return fmt.Errorf("configuration does not describe a valid device: %w", err)
	}
	if len(args) == 1 {
		return config.Save(args[0], cfg)
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// runPlot plots a saved sweep when a run ID is given, otherwise the
// configured device.
func runPlot(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return plotRun(cmd, args[0])
	}
	cfg, d, err := loadDevice(cmd)
	if err != nil {
		return err
	}
	if motive {
		return plotMotive(d)
	}

	col, err := viz.ColumnByName(column)
	if err != nil {
		return err
	}
	sc := cfg.Sweep
	points, err := analysis.Sweep(cmd.Context(), d, sc)
	if err != nil {
		return err
	}
	param := sc.Param
	if param == "" {
		param = "voltage"
	}
	if outFile == "" {
		fmt.Println(viz.SweepPlot(points, col, 70, 12))
		return nil
	}

	chart := export.SweepChart(points, param, axisLabel(col.Label, col.Unit), col.Value)
	if b, err := analysis.RegimeBoundaries(d); err == nil && param == "voltage" {
		chart.Marks = map[string]float64{
			"saturation": b.Saturation.Voltage,
			"critical":   b.Critical.Voltage,
		}
	} else if err != nil && !errors.Is(err, tec.ErrDomain) {
		return err
	}
	return saveChart(chart)
}

func plotMotive(d *tec.Device) error {
	if outFile == "" {
		p, err := d.Motive()
		if err != nil {
			return err
		}
		graph, err := viz.MotivePlot(p, 70, 14)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		return nil
	}

	profiles := make(map[string]*tec.Profile)
	var names []string
	add := func(name string, dv *tec.Device) error {
		p, err := dv.Motive()
		if err != nil {
			return err
		}
		profiles[name] = p
		names = append(names, name)
		return nil
	}
	if err := add(fmt.Sprintf("%.3g V", d.OutputVoltage()), d); err != nil {
		return err
	}
	// space-charge devices also show their regime boundaries
	if b, err := analysis.RegimeBoundaries(d); err == nil {
		for _, pt := range []struct {
			name string
			v    float64
		}{{"saturation", b.Saturation.Voltage}, {"critical", b.Critical.Voltage}} {
			dv, err := d.WithOutputVoltage(pt.v)
			if err != nil {
				return err
			}
			if err := add(fmt.Sprintf("%s %.3g V", pt.name, pt.v), dv); err != nil {
				return err
			}
		}
	}
	chart, err := export.MotiveChart(profiles, names, 200)
	if err != nil {
		return err
	}
	chart.Title = fmt.Sprintf("motive, %s model", d.Model().Name())
	return saveChart(chart)
}

func saveChart(chart export.Chart) error {
	if err := chart.Save(outFile, export.DefaultWidth, export.DefaultHeight); err != nil {
		return err
	}
	fmt.Printf("chart written to %s\n", outFile)
	return nil
}

func axisLabel(label, unit string) string {
	if unit == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, unit)
}
