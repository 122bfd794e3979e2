// Package tec models vacuum thermionic energy converters.
//
// A [Device] pairs an emitter and a collector [Electrode] across a vacuum
// gap and computes its motive (electron potential energy) profile with a
// [Model]:
//
//   - [BaseModel]: linear motive between the two vacuum levels, no space
//     charge; optional back emission from the collector
//   - [LangmuirModel]: space-charge-limited transport following Langmuir's
//     dimensionless solution, no back emission
//
// Electrodes and devices are immutable. Changing a parameter means
// building a new value:
//
//	em, _ := tec.ElectrodeFromArgs(tec.ElectrodeArgs{Temperature: 2000, Barrier: 2, Richardson: 120, Emissivity: 1})
//	co, _ := tec.ElectrodeFromArgs(tec.ElectrodeArgs{Temperature: 300, Barrier: 0.8, Richardson: 120, Emissivity: 1, Position: 10})
//	dev, _ := tec.NewDevice(em, co, tec.LangmuirModel{})
//	p, _ := dev.Motive()
//	fmt.Println(p.MaxMotive, p.Regime)
//
// # Units
//
// Values are stored in K, eV, A/(cm² K²), V and µm. Current densities
// are A/cm². Constructors taking [units.Quantity] convert into these.
//
// # Caching
//
// The motive of a device is computed once per instance and shared across
// equal devices through a [MotiveCache]. Concurrent first accesses to the
// same device value run the solver once.
package tec
