package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/tecsim/internal/config"
	"github.com/san-kum/tecsim/internal/storage"
	"github.com/san-kum/tecsim/internal/tec"
)

// newTestCommand mirrors the flag layout of the device commands.
func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	preset, configFile, deviceFile, modelName = "", "", "", config.DefaultModel
	dataDir = config.DefaultRunsDir
	for _, p := range electrodeFlags {
		*p = ""
	}

	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addDeviceFlags(cmd)
	cmd.Flags().StringVar(&dataDir, "data", config.DefaultRunsDir, "")
	cmd.Flags().StringVar(&configFile, "config", "", "")
	cmd.Flags().StringVar(&deviceFile, "device", "", "")
	cmd.Flags().StringVar(&preset, "preset", "", "")
	cmd.Flags().StringVar(&modelName, "model", config.DefaultModel, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte("emitter:\n  temperature: 2200 K\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newTestCommand(t,
		"--preset", "langmuir/narrow-gap",
		"--config", path,
		"--collector-position", "2 um",
		"--voltage", "0.5",
	)
	cfg, d, err := loadDevice(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "langmuir" {
		t.Errorf("expected preset model, got %s", cfg.Model)
	}
	if d.Emitter().Temperature() != 2200 {
		t.Errorf("expected config file temperature 2200, got %v", d.Emitter().Temperature())
	}
	if d.Gap() != 2 {
		t.Errorf("expected flag gap 2 um, got %v", d.Gap())
	}
	if d.OutputVoltage() != 0.5 {
		t.Errorf("expected output voltage 0.5, got %v", d.OutputVoltage())
	}
}

func TestLoadConfigDeviceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.json")
	a := tec.DefaultArgs()
	a.EmitterTemperature, a.EmitterBarrier = 1800, 1.9
	a.CollectorTemperature, a.CollectorBarrier = 350, 0.9
	d, err := tec.FromArgs(a, tec.BaseModel{CollectorEmission: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writeDevice(path, d); err != nil {
		t.Fatalf("write device: %v", err)
	}

	cmd := newTestCommand(t, "--device", path)
	_, got, err := loadDevice(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(d) {
		t.Errorf("expected %v, got %v", d, got)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "base/missing"}},
		{"bad unit", []string{"--emitter-temperature", "2000 furlongs"}},
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "none.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestCommand(t, tt.args...)
			if _, err := loadConfig(cmd); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSaveRunIndexes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RunsDir = t.TempDir()
	d, err := cfg.Device()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	runID, err := saveRun(ctx, cfg, storage.Run{Kind: "solve", Device: d, Target: "output_power_density"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, idx, err := openStores(cfg)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer idx.Close()
	e, err := idx.Get(ctx, runID)
	if err != nil {
		t.Fatalf("expected indexed run, got %v", err)
	}
	if e.Kind != "solve" || e.Model != "base" {
		t.Errorf("unexpected entry %+v", e)
	}
}
