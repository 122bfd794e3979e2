package units

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownUnit  = errors.New("units: unknown unit")
	ErrIncompatible = errors.New("units: incompatible dimensions")
	ErrMalformed    = errors.New("units: malformed quantity")
)

type Dimension int

const (
	Dimensionless Dimension = iota
	Temperature
	Energy
	Voltage
	Length
	Richardson
	CurrentDensity
	PowerDensity
)

var dimensionNames = map[Dimension]string{
	Dimensionless:  "dimensionless",
	Temperature:    "temperature",
	Energy:         "energy",
	Voltage:        "voltage",
	Length:         "length",
	Richardson:     "richardson constant",
	CurrentDensity: "current density",
	PowerDensity:   "power density",
}

func (d Dimension) String() string {
	if name, ok := dimensionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// Unit converts to the canonical unit of its dimension as
// canonical = value*Scale + Offset.
type Unit struct {
	Symbol    string
	Dimension Dimension
	Scale     float64
	Offset    float64
}

var (
	Kelvin  = Unit{"K", Temperature, 1, 0}
	Celsius = Unit{"degC", Temperature, 1, 273.15}

	ElectronVolt  = Unit{"eV", Energy, 1, 0}
	MilliElectron = Unit{"meV", Energy, 1e-3, 0}
	Joule         = Unit{"J", Energy, 1 / 1.602176634e-19, 0}

	RichardsonCGS = Unit{"A/(cm2 K2)", Richardson, 1, 0}
	RichardsonSI  = Unit{"A/(m2 K2)", Richardson, 1e-4, 0}

	One = Unit{"1", Dimensionless, 1, 0}

	Volt      = Unit{"V", Voltage, 1, 0}
	MilliVolt = Unit{"mV", Voltage, 1e-3, 0}
	KiloVolt  = Unit{"kV", Voltage, 1e3, 0}

	Micrometer = Unit{"um", Length, 1, 0}
	Nanometer  = Unit{"nm", Length, 1e-3, 0}
	Millimeter = Unit{"mm", Length, 1e3, 0}
	Centimeter = Unit{"cm", Length, 1e4, 0}
	Meter      = Unit{"m", Length, 1e6, 0}

	AmpPerCm2      = Unit{"A/cm2", CurrentDensity, 1, 0}
	AmpPerM2       = Unit{"A/m2", CurrentDensity, 1e-4, 0}
	MilliAmpPerCm2 = Unit{"mA/cm2", CurrentDensity, 1e-3, 0}

	WattPerCm2 = Unit{"W/cm2", PowerDensity, 1, 0}
	WattPerM2  = Unit{"W/m2", PowerDensity, 1e-4, 0}
)

var canonical = map[Dimension]Unit{
	Dimensionless:  One,
	Temperature:    Kelvin,
	Energy:         ElectronVolt,
	Voltage:        Volt,
	Length:         Micrometer,
	Richardson:     RichardsonCGS,
	CurrentDensity: AmpPerCm2,
	PowerDensity:   WattPerCm2,
}

var registry = map[string]Unit{}

func init() {
	for _, u := range []Unit{
		Kelvin, Celsius, ElectronVolt, MilliElectron, Joule,
		RichardsonCGS, RichardsonSI, One, Volt, MilliVolt, KiloVolt,
		Micrometer, Nanometer, Millimeter, Centimeter, Meter,
		AmpPerCm2, AmpPerM2, MilliAmpPerCm2, WattPerCm2, WattPerM2,
	} {
		registry[u.Symbol] = u
	}
	registry[""] = One
	registry["µm"] = Micrometer
	registry["A/cm^2"] = AmpPerCm2
	registry["A cm-2"] = AmpPerCm2
	registry["W/cm^2"] = WattPerCm2
	registry["A/(cm^2 K^2)"] = RichardsonCGS
	registry["A cm-2 K-2"] = RichardsonCGS
	registry["A/(m^2 K^2)"] = RichardsonSI
}

// Canonical returns the unit every quantity of dimension d is stored in.
func Canonical(d Dimension) Unit {
	return canonical[d]
}

// Lookup resolves a unit symbol.
func Lookup(symbol string) (Unit, error) {
	u, ok := registry[strings.TrimSpace(symbol)]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, symbol)
	}
	return u, nil
}

// Symbols lists the registered unit symbols in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		if s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

type Quantity struct {
	Value float64
	Unit  Unit
}

func New(value float64, u Unit) Quantity {
	return Quantity{Value: value, Unit: u}
}

// In converts q to u.
func (q Quantity) In(u Unit) (Quantity, error) {
	if q.Unit.Dimension != u.Dimension {
		return Quantity{}, fmt.Errorf("%w: cannot convert %s (%s) to %s (%s)",
			ErrIncompatible, q.Unit.Symbol, q.Unit.Dimension, u.Symbol, u.Dimension)
	}
	if q.Unit == u {
		return q, nil
	}
	base := q.Value*q.Unit.Scale + q.Unit.Offset
	return Quantity{Value: (base - u.Offset) / u.Scale, Unit: u}, nil
}

func (q Quantity) Canonical() Quantity {
	c, _ := q.In(canonical[q.Unit.Dimension])
	return c
}

// As returns the value of q in the canonical unit of d, failing when q
// has a different dimension.
func (q Quantity) As(d Dimension) (float64, error) {
	c, err := q.In(canonical[d])
	if err != nil {
		return math.NaN(), err
	}
	return c.Value, nil
}

func (q Quantity) String() string {
	if q.Unit.Symbol == "" || q.Unit.Symbol == "1" {
		return strconv.FormatFloat(q.Value, 'g', -1, 64)
	}
	return strconv.FormatFloat(q.Value, 'g', -1, 64) + " " + q.Unit.Symbol
}

// Parse reads "2 eV", "10um" or a bare number. A bare number is
// dimensionless; callers that expect a dimension apply it with WithDefault.
func Parse(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, fmt.Errorf("%w: empty string", ErrMalformed)
	}
	i := numericPrefix(s)
	if i == 0 {
		return Quantity{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	u, err := Lookup(s[i:])
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: v, Unit: u}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Quantity {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

// WithDefault reinterprets a dimensionless quantity in unit u.
func (q Quantity) WithDefault(u Unit) Quantity {
	if q.Unit.Dimension == Dimensionless && u.Dimension != Dimensionless {
		return Quantity{Value: q.Value, Unit: u}
	}
	return q
}

func numericPrefix(s string) int {
	end := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '+', r == '-':
			end = i + 1
		case r == 'e' || r == 'E':
			// exponent only when followed by a digit or sign; "eV" is a unit
			if i+1 < len(s) && (s[i+1] == '-' || s[i+1] == '+' || (s[i+1] >= '0' && s[i+1] <= '9')) && end > 0 {
				end = i + 1
				continue
			}
			return end
		default:
			return end
		}
	}
	return end
}
