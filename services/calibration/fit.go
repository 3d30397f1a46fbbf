package calibration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Polynomial holds coefficients c0 + c1·x + c2·x² + …
type Polynomial []float64

// Eval evaluates the polynomial at x (Horner).
func (p Polynomial) Eval(x float64) float64 {
	v := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}

// MoistureSurface models a moisture probe whose raw output drifts with
// temperature: c0 + c1·m + c2·T + c3·m·T.
type MoistureSurface [4]float64

func (s MoistureSurface) Eval(m, t float64) float64 {
	return s[0] + s[1]*m + s[2]*t + s[3]*m*t
}

// FitStats describes how well a fitted model reproduces its points.
type FitStats struct {
	N        int
	RSquared float64
	RMSE     float64
}

// FitPolynomial fits reference = p(raw) by least squares.
func FitPolynomial(raw, ref []float64, degree int) (Polynomial, FitStats, error) {
	n := len(raw)
	if n != len(ref) {
		return nil, FitStats{}, fmt.Errorf("fit: %d raw values but %d references", n, len(ref))
	}
	if degree < 1 {
		return nil, FitStats{}, fmt.Errorf("fit: degree must be at least 1, got %d", degree)
	}
	if n <= degree {
		return nil, FitStats{}, fmt.Errorf("fit: %d points cannot determine a degree %d polynomial", n, degree)
	}

	var p Polynomial
	if degree == 1 {
		alpha, beta := stat.LinearRegression(raw, ref, nil, false)
		p = Polynomial{alpha, beta}
	} else {
		// Vandermonde least squares
		X := mat.NewDense(n, degree+1, nil)
		for i := 0; i < n; i++ {
			for j := 0; j <= degree; j++ {
				X.Set(i, j, math.Pow(raw[i], float64(j)))
			}
		}
		var c mat.VecDense
		if err := c.SolveVec(X, mat.NewVecDense(n, append([]float64(nil), ref...))); err != nil {
			return nil, FitStats{}, fmt.Errorf("fit: solve degree %d: %w", degree, err)
		}
		p = make(Polynomial, degree+1)
		for j := range p {
			p[j] = c.AtVec(j)
		}
	}

	pred := make([]float64, n)
	for i, x := range raw {
		pred[i] = p.Eval(x)
	}
	return p, fitStats(ref, pred), nil
}

// FitMoistureSurface fits reference = s(raw, temperature) by least squares.
func FitMoistureSurface(temp, raw, ref []float64) (MoistureSurface, FitStats, error) {
	n := len(raw)
	if len(temp) != n || len(ref) != n {
		return MoistureSurface{}, FitStats{}, errors.New("fit: temperature, raw and reference columns differ in length")
	}
	if n < 4 {
		return MoistureSurface{}, FitStats{}, fmt.Errorf("fit: %d points cannot determine a moisture surface", n)
	}

	X := mat.NewDense(n, 4, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		X.Set(i, 1, raw[i])
		X.Set(i, 2, temp[i])
		X.Set(i, 3, raw[i]*temp[i])
	}
	var c mat.VecDense
	if err := c.SolveVec(X, mat.NewVecDense(n, append([]float64(nil), ref...))); err != nil {
		return MoistureSurface{}, FitStats{}, fmt.Errorf("fit: solve moisture surface: %w", err)
	}
	s := MoistureSurface{c.AtVec(0), c.AtVec(1), c.AtVec(2), c.AtVec(3)}

	pred := make([]float64, n)
	for i := range raw {
		pred[i] = s.Eval(raw[i], temp[i])
	}
	return s, fitStats(ref, pred), nil
}

func fitStats(y, pred []float64) FitStats {
	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range y {
		r := y[i] - pred[i]
		ssRes += r * r
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	r2 := 0.0
	switch {
	case ssTot > 0:
		r2 = 1 - ssRes/ssTot
	case ssRes == 0:
		r2 = 1
	}
	return FitStats{N: len(y), RSquared: r2, RMSE: math.Sqrt(ssRes / float64(len(y)))}
}
