package numeric

import (
	"errors"
	"math"
)

var (
	ErrNoBracket = errors.New("numeric: root not bracketed")
	ErrMaxIter   = errors.New("numeric: iteration limit reached")
	ErrNaN       = errors.New("numeric: function returned NaN")
	ErrInterval  = errors.New("numeric: invalid interval")
)

const eps = 2.220446049250313e-16

// Tolerance controls termination of the scalar solvers. The accepted
// error is XTol + RTol*|x|.
type Tolerance struct {
	XTol    float64
	RTol    float64
	MaxIter int
}

func DefaultTolerance() Tolerance {
	return Tolerance{XTol: 2e-12, RTol: 4 * eps, MaxIter: 100}
}

func (t Tolerance) withDefaults() Tolerance {
	d := DefaultTolerance()
	if t.XTol <= 0 {
		t.XTol = d.XTol
	}
	if t.RTol < 4*eps {
		t.RTol = d.RTol
	}
	if t.MaxIter <= 0 {
		t.MaxIter = d.MaxIter
	}
	return t
}

type Root struct {
	X          float64
	F          float64
	Iterations int
}

// Brent finds a root of f in [a, b] using inverse quadratic interpolation
// with bisection fallback. f(a) and f(b) must have opposite signs.
func Brent(f func(float64) float64, a, b float64, tol Tolerance) (Root, error) {
	tol = tol.withDefaults()
	if !(a < b) && !(b < a) {
		return Root{}, ErrInterval
	}

	fa, fb := f(a), f(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return Root{}, ErrNaN
	}
	if fa == 0 {
		return Root{X: a, F: 0}, nil
	}
	if fb == 0 {
		return Root{X: b, F: 0}, nil
	}
	if math.Signbit(fa) == math.Signbit(fb) {
		return Root{}, ErrNoBracket
	}

	c, fc := b, fb
	var d, e float64
	for iter := 1; iter <= tol.MaxIter; iter++ {
		if math.Signbit(fb) == math.Signbit(fc) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*eps*math.Abs(b) + 0.5*(tol.XTol+tol.RTol*math.Abs(b))
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return Root{X: b, F: fb, Iterations: iter}, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
		if math.IsNaN(fb) {
			return Root{X: b, F: fb, Iterations: iter}, ErrNaN
		}
	}

	return Root{X: b, F: fb, Iterations: tol.MaxIter}, ErrMaxIter
}
