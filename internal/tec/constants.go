package tec

import "math"

// CODATA 2018 values.
const (
	BoltzmannEV        = 8.617333262e-5   // eV/K
	Boltzmann          = 1.380649e-23     // J/K
	ElementaryCharge   = 1.602176634e-19  // C
	ElectronMass       = 9.1093837015e-31 // kg
	VacuumPermittivity = 8.8541878128e-12 // F/m
	StefanBoltzmann    = 5.670374419e-12  // W/(cm² K⁴)

	// FreeElectronRichardson is the theoretical Richardson constant,
	// 4πmek²/h³, rounded as is customary.
	FreeElectronRichardson = 120.0 // A/(cm² K²)
)

// lengthScale is (ε0²k³/(2π m e²))^(1/4) in m·A^(1/2)/K^(3/4).
var lengthScale = math.Pow(
	VacuumPermittivity*VacuumPermittivity*Boltzmann*Boltzmann*Boltzmann/
		(2*math.Pi*ElectronMass*ElementaryCharge*ElementaryCharge), 0.25)

// NormalizationLength is the Langmuir length x0 in µm for emitter
// temperature T (K) and current density J (A/cm²). Positions divided by
// it give the dimensionless coordinate ξ.
func NormalizationLength(temperature, currentDensity float64) float64 {
	jSI := currentDensity * 1e4
	return lengthScale * math.Pow(temperature, 0.75) / math.Sqrt(jSI) * 1e6
}

// RichardsonDushman returns the saturation current density in A/cm².
func RichardsonDushman(richardson, temperature, barrier float64) float64 {
	if temperature == 0 || richardson == 0 {
		return 0
	}
	return richardson * temperature * temperature * math.Exp(-barrier/(BoltzmannEV*temperature))
}
