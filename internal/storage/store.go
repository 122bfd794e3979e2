package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/tecsim/internal/analysis"
	"github.com/san-kum/tecsim/internal/codec"
	"github.com/san-kum/tecsim/internal/tec"
)

const (
	metadataFile = "metadata.json"
	deviceFile   = "device.yaml"
	sweepFile    = "sweep.csv"
)

var ErrNoSweep = errors.New("storage: run has no sweep")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	// Voltage and Value describe the reported operating point. Target
	// names the optimized metric, or the swept parameter of a sweep whose
	// Value is its peak power.
	Voltage float64            `json:"voltage"`
	Target  string             `json:"target,omitempty"`
	Value   float64            `json:"value"`
	Points  int                `json:"points,omitempty"`
	Metrics map[string]float64 `json:"metrics"`
}

// Run is what a command hands over for saving.
type Run struct {
	Name    string
	Kind    string
	Device  *tec.Device
	Target  string
	Voltage float64
	Value   float64
	Metrics map[string]float64
	Points  []analysis.Point
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Save writes a run directory <base>/<timestamp>_<name>/ and returns its ID.
func (s *Store) Save(run Run) (string, error) {
	if run.Device == nil {
		return "", errors.New("storage: run has no device")
	}
	if err := s.Init(); err != nil {
		return "", err
	}
	now := time.Now()
	name := unsafeName.ReplaceAllString(run.Name, "-")
	if name == "" {
		name = run.Kind
	}

	runID, err := s.mkdir(now.UTC().Format("20060102T150405") + "_" + name)
	if err != nil {
		return "", err
	}
	runDir := s.Dir(runID)

	meta := RunMetadata{
		ID:        runID,
		Name:      run.Name,
		Kind:      run.Kind,
		Model:     run.Device.Model().Name(),
		Timestamp: now,
		Voltage:   finite(run.Voltage),
		Target:    run.Target,
		Value:     finite(run.Value),
		Points:    len(run.Points),
		Metrics:   make(map[string]float64, len(run.Metrics)),
	}
	// JSON has no NaN; undefined metrics are left out
	for k, v := range run.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}

	if err := writeRun(runDir, meta, run); err != nil {
		// a partial directory would show up in List
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, run Run) error {
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := writeDevice(filepath.Join(runDir, deviceFile), run.Device); err != nil {
		return err
	}
	if len(run.Points) > 0 {
		return writeSweep(filepath.Join(runDir, sweepFile), run.Points)
	}
	return nil
}

func (s *Store) mkdir(base string) (string, error) {
	id := base
	for i := 2; ; i++ {
		err := os.Mkdir(s.Dir(id), 0755)
		if err == nil {
			return id, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

var createFile = os.Create

func writeJSON(path string, v any) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeDevice(path string, d *tec.Device) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return codec.WriteDevice(codec.NewYAMLCodec(), d, f)
}

var sweepHeader = []string{
	"param", "output_voltage", "regime", "forward_current_density", "back_current_density",
	"output_current_density", "output_power_density", "heat_supply", "total_efficiency", "max_motive",
}

func writeSweep(path string, points []analysis.Point) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sweepHeader); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, p := range points {
		row := []string{
			format(p.Param), format(p.OutputVoltage), p.Regime,
			format(p.ForwardCurrent), format(p.BackCurrent), format(p.OutputCurrent),
			format(p.OutputPower), format(p.HeatSupply), format(p.TotalEfficiency), format(p.MaxMotive),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadDevice(runID string) (*tec.Device, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), deviceFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return codec.ReadDevice(codec.NewYAMLCodec(), f)
}

// LoadSweep returns the CSV header and rows of a sweep run. The regime
// column is returned as NaN in rows.
func (s *Store) LoadSweep(runID string) ([]string, [][]float64, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), sweepFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoSweep, runID)
		}
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoSweep, runID)
	}

	rows := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				v = math.NaN()
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return records[0], rows, nil
}
