package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/tecsim/internal/codec"
	"github.com/san-kum/tecsim/internal/config"
	"github.com/san-kum/tecsim/internal/export"
	"github.com/san-kum/tecsim/internal/storage"
	"github.com/san-kum/tecsim/internal/store"
	"github.com/san-kum/tecsim/internal/viz"
)

const indexFile = "index.db"

// sweep.csv column for each plot column name
var sweepColumns = map[string]string{
	"current":    "output_current_density",
	"power":      "output_power_density",
	"efficiency": "total_efficiency",
	"heat":       "heat_supply",
	"motive":     "max_motive",
}

func runsCommand() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "manage saved runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&runKind, "kind", "", "only runs of this kind (solve, sweep, optimize)")
	listCmd.Flags().IntVar(&runLimit, "limit", 0, "maximum number of runs")
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "print json")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [path]",
		Short: "export the run index as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRuns,
	}

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the run index from the run directories",
		Args:  cobra.NoArgs,
		RunE:  reindexRuns,
	}

	runsCmd.AddCommand(listCmd, showCmd, deleteCmd, exportCmd, reindexCmd)
	return runsCmd
}

func openRuns(cmd *cobra.Command) (*storage.Store, *store.Index, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return openStores(cfg)
}

func openStores(cfg *config.Config) (*storage.Store, *store.Index, error) {
	st := storage.New(cfg.RunsDir)
	if err := st.Init(); err != nil {
		return nil, nil, err
	}
	idx, err := store.Open(filepath.Join(cfg.RunsDir, indexFile))
	if err != nil {
		return nil, nil, err
	}
	return st, idx, nil
}

// saveRun writes the run directory and indexes it.
func saveRun(ctx context.Context, cfg *config.Config, run storage.Run) (string, error) {
	st, idx, err := openStores(cfg)
	if err != nil {
		return "", err
	}
	defer idx.Close()

	runID, err := st.Save(run)
	if err != nil {
		return "", err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return "", err
	}
	if err := idx.Record(ctx, entryFor(meta)); err != nil {
		return "", err
	}
	return runID, nil
}

func entryFor(meta *storage.RunMetadata) store.Entry {
	return store.Entry{
		ID:      meta.ID,
		Name:    meta.Name,
		Model:   meta.Model,
		Kind:    meta.Kind,
		Target:  meta.Target,
		Voltage: meta.Voltage,
		Value:   meta.Value,
		Created: meta.Timestamp,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	_, idx, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	opts := store.ListOptions{Kind: runKind, Limit: runLimit}
	if cmd.Flags().Changed("model") {
		opts.Model = modelName
	}
	entries, err := idx.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if jsonOut {
		return store.WriteJSON(os.Stdout, entries)
	}

	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tMODEL\tTARGET\tVOLTAGE\tVALUE\tTIME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%.6g\t%s\n",
			e.ID,
			e.Kind,
			e.Model,
			e.Target,
			e.Voltage,
			e.Value,
			e.Created.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st, idx, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if _, err := idx.Get(cmd.Context(), runID); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (run 'runs reindex')\n", err)
	}
	d, err := st.LoadDevice(runID)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title(meta.ID))
	fmt.Println(viz.KeyValue("kind", meta.Kind))
	fmt.Println(viz.KeyValue("model", meta.Model))
	fmt.Println(viz.KeyValue("time", meta.Timestamp.Format("2006-01-02 15:04:05")))
	if meta.Target != "" {
		fmt.Println(viz.KeyValue("target", meta.Target))
	}
	fmt.Println(viz.KeyValue("voltage", fmt.Sprintf("%.6f V", meta.Voltage)))
	fmt.Println(viz.KeyValue("value", fmt.Sprintf("%.6g", meta.Value)))
	if meta.Points > 0 {
		fmt.Println(viz.KeyValue("points", fmt.Sprint(meta.Points)))
	}
	fmt.Println()
	if err := codec.WriteDevice(codec.NewYAMLCodec(), d, os.Stdout); err != nil {
		return err
	}

	if len(meta.Metrics) == 0 {
		return nil
	}
	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6g\n", name, meta.Metrics[name])
	}
	return w.Flush()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if runID != filepath.Base(runID) || runID == "." || runID == ".." {
		return fmt.Errorf("invalid run id %q", runID)
	}
	st, idx, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	if _, err := st.Load(runID); err != nil {
		return err
	}
	if err := idx.Delete(cmd.Context(), runID); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if err := os.RemoveAll(st.Dir(runID)); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", runID)
	return nil
}

func exportRuns(cmd *cobra.Command, args []string) error {
	_, idx, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	entries, err := idx.List(cmd.Context(), store.ListOptions{})
	if err != nil {
		return err
	}
	if err := store.ExportJSON(args[0], entries); err != nil {
		return err
	}
	fmt.Printf("exported %d runs to %s\n", len(entries), args[0])
	return nil
}

func reindexRuns(cmd *cobra.Command, args []string) error {
	st, idx, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	for i := range runs {
		if err := idx.Record(cmd.Context(), entryFor(&runs[i])); err != nil {
			return err
		}
	}
	fmt.Printf("indexed %d runs\n", len(runs))
	return nil
}

// plotRun plots a column of a saved sweep.
func plotRun(cmd *cobra.Command, runID string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.RunsDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	header, rows, err := st.LoadSweep(runID)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("not enough points to plot")
	}

	col, err := viz.ColumnByName(column)
	if err != nil {
		return err
	}
	j := -1
	for i, h := range header {
		if h == sweepColumns[col.Name] {
			j = i
		}
	}
	if j < 0 {
		return fmt.Errorf("run %s has no %s column", runID, col.Name)
	}
	xs := make([]float64, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for _, row := range rows {
		if math.IsNaN(row[j]) || math.IsInf(row[j], 0) {
			continue
		}
		xs = append(xs, row[0])
		ys = append(ys, row[j])
	}

	param := meta.Target
	if param == "" {
		param = header[0]
	}
	if outFile != "" {
		chart := export.Chart{
			Title:  fmt.Sprintf("%s, %s model", meta.ID, meta.Model),
			XLabel: param,
			YLabel: axisLabel(col.Label, col.Unit),
			Series: []export.Series{{Name: col.Label, X: xs, Y: ys}},
		}
		return saveChart(chart)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("points: %d\n\n", len(rows))
	if len(ys) == 0 {
		return fmt.Errorf("%s is undefined at every point", col.Label)
	}
	graph := asciigraph.Plot(ys,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("%s vs %s, %.4g to %.4g", col.Label, param, xs[0], xs[len(xs)-1])),
	)
	fmt.Println(graph)
	return nil
}
