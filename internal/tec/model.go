package tec

import (
	"fmt"
	"sort"

	"github.com/san-kum/tecsim/internal/langmuir"
)

// Model is a motive computation strategy. The set of models is closed:
// BaseModel and LangmuirModel are the only implementations.
type Model interface {
	Name() string
	// BackEmission reports whether the collector emits toward the emitter.
	BackEmission() bool
	solve(d *Device) (*Profile, error)
}

// BaseModel ignores space charge; the motive is linear between the two
// vacuum levels.
type BaseModel struct {
	CollectorEmission bool
}

func (m BaseModel) Name() string {
	if m.CollectorEmission {
		return "base-back"
	}
	return "base"
}

func (m BaseModel) BackEmission() bool { return m.CollectorEmission }

func (m BaseModel) solve(d *Device) (*Profile, error) {
	return linearProfile(m.Name(), d.emitter, d.collector), nil
}

// LangmuirModel accounts for electron space charge and ignores back
// emission. A nil Table selects langmuir.DefaultTable.
type LangmuirModel struct {
	Table *langmuir.Table
}

func (m LangmuirModel) Name() string      { return "langmuir" }
func (m LangmuirModel) BackEmission() bool { return false }

func (m LangmuirModel) table() (*langmuir.Table, error) {
	if m.Table != nil {
		return m.Table, nil
	}
	return langmuir.DefaultTable()
}

var models = map[string]func() Model{
	"base":      func() Model { return BaseModel{} },
	"base-back": func() Model { return BaseModel{CollectorEmission: true} },
	"langmuir":  func() Model { return LangmuirModel{} },
}

// ModelByName resolves "base", "base-back" or "langmuir". An empty name
// selects the base model.
func ModelByName(name string) (Model, error) {
	if name == "" {
		name = "base"
	}
	factory, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return factory(), nil
}

func ModelNames() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
