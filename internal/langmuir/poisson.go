package langmuir

import "math"

var sqrtPi = math.Sqrt(math.Pi)

// seriesCoef[m] = 1/Γ(m/2 + 2). F(s²)/s² = Σ (±s)^m · seriesCoef[m].
var seriesCoef = func() [40]float64 {
	var c [40]float64
	for m := range c {
		c[m] = 1 / math.Gamma(float64(m)/2+2)
	}
	return c
}()

// erfcx is exp(x²)·erfc(x) for x >= 0.
func erfcx(x float64) float64 {
	if x < 10 {
		return math.Exp(x*x) * math.Erfc(x)
	}
	t := x * x
	return (1 - 1/(2*t) + 3/(4*t*t) - 15/(8*t*t*t) + 105/(16*t*t*t*t)) / (x * sqrtPi)
}

// FirstIntegral returns F(γ) = (dγ/dξ)² for the given branch of the
// dimensionless Poisson equation γ'' = ½·e^γ·(1 ∓ erf √γ). It overflows
// to +Inf on the LHS branch for γ beyond roughly 700.
func FirstIntegral(gamma float64, b Branch) float64 {
	if gamma <= 0 {
		return 0
	}
	s := math.Sqrt(gamma)
	if s < 1 {
		return gamma * seriesRatio(s, b)
	}
	if b == RHS {
		return erfcx(s) - 1 + 2*s/sqrtPi
	}
	return math.Exp(gamma)*(1+math.Erf(s)) - 1 - 2*s/sqrtPi
}

// Rhs is the right-hand side γ'' of the dimensionless Poisson equation.
func Rhs(gamma float64, b Branch) float64 {
	if gamma < 0 {
		gamma = 0
	}
	s := math.Sqrt(gamma)
	if b == RHS {
		return 0.5 * erfcx(s)
	}
	return 0.5 * math.Exp(gamma) * (1 + math.Erf(s))
}

func seriesRatio(s float64, b Branch) float64 {
	x := s
	if b == RHS {
		x = -s
	}
	acc, p := 0.0, 1.0
	for _, c := range seriesCoef {
		acc += c * p
		p *= x
	}
	return acc
}

// slope is |dξ/du| with u = √γ, i.e. 2u/√F(u²). It tends to 2 at u = 0.
func slope(u float64, b Branch) float64 {
	if u < 1 {
		return 2 / math.Sqrt(seriesRatio(u, b))
	}
	t := u * u
	if b == RHS {
		return 2 * u / math.Sqrt(erfcx(u)-1+2*u/sqrtPi)
	}
	g := 1 + math.Erf(u) - math.Exp(-t)*(1+2*u/sqrtPi)
	return 2 * u * math.Exp(-t/2) / math.Sqrt(g)
}
