package numeric

import "math"

var goldenMean = 0.5 * (3 - math.Sqrt(5))

type Extremum struct {
	X           float64
	F           float64
	Evaluations int
}

// Maximize searches [lo, hi] for a maximum of f with Brent's bounded
// method (golden-section steps with parabolic interpolation). f is
// assumed unimodal on the interval; otherwise the result is a local
// maximum. Values of -Inf are treated as infeasible points.
func Maximize(f func(float64) float64, lo, hi float64, xtol float64, maxEval int) (Extremum, error) {
	res, err := Minimize(func(x float64) float64 { return -f(x) }, lo, hi, xtol, maxEval)
	res.F = -res.F
	return res, err
}

// Minimize is the bounded Brent minimizer, terminating when the bracket
// around the best point shrinks below xtol (absolute) plus sqrt(eps)
// relative to it.
func Minimize(f func(float64) float64, lo, hi float64, xtol float64, maxEval int) (Extremum, error) {
	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Extremum{}, ErrInterval
	}
	if xtol <= 0 {
		xtol = 1e-5
	}
	if maxEval <= 0 {
		maxEval = 500
	}
	sqrtEps := math.Sqrt(eps)

	a, b := lo, hi
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	var rat, e float64
	fx := f(xf)
	if math.IsNaN(fx) {
		return Extremum{X: xf, F: fx, Evaluations: 1}, ErrNaN
	}
	num := 1
	ffulc, fnfc := fx, fx
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xtol/3
	tol2 := 2 * tol1

	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		golden := true
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x := xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}
		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x := xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu := f(x)
		num++
		if math.IsNaN(fu) {
			return Extremum{X: xf, F: fx, Evaluations: num}, ErrNaN
		}

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xtol/3
		tol2 = 2 * tol1

		if num >= maxEval {
			return Extremum{X: xf, F: fx, Evaluations: num}, ErrMaxIter
		}
	}

	return Extremum{X: xf, F: fx, Evaluations: num}, nil
}

func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
