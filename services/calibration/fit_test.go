package calibration

import (
	"math"
	"testing"
)

func TestFitPolynomial_Linear(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 3, 5, 7, 9}
	p, st, err := FitPolynomial(x, y, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !near(p[0], 1) || !near(p[1], 2) {
		t.Errorf("p = %v, want [1 2]", p)
	}
	if !near(st.RSquared, 1) || st.RMSE > 1e-9 || st.N != 5 {
		t.Errorf("stats = %+v", st)
	}
}

func TestFitPolynomial_Cubic(t *testing.T) {
	want := Polynomial{0.5, -1, 0.25, 0.01}
	var x, y []float64
	for i := -5; i <= 5; i++ {
		x = append(x, float64(i))
		y = append(y, want.Eval(float64(i)))
	}
	p, _, err := FitPolynomial(x, y, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if !near(p[i], want[i]) {
			t.Errorf("c%d = %v, want %v", i, p[i], want[i])
		}
	}
}

func TestFitPolynomial_Rejects(t *testing.T) {
	if _, _, err := FitPolynomial([]float64{1, 2}, []float64{1}, 1); err == nil {
		t.Error("length mismatch accepted")
	}
	if _, _, err := FitPolynomial([]float64{1, 2}, []float64{1, 2}, 2); err == nil {
		t.Error("underdetermined fit accepted")
	}
	if _, _, err := FitPolynomial([]float64{1, 2}, []float64{1, 2}, 0); err == nil {
		t.Error("degree 0 accepted")
	}
}

func TestFitStats_NoisyLine(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0.1, 0.9, 2.1, 2.9}
	_, st, err := FitPolynomial(x, y, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.RSquared <= 0.95 || st.RSquared >= 1 {
		t.Errorf("R² = %v", st.RSquared)
	}
	if st.RMSE <= 0 || math.IsNaN(st.RMSE) {
		t.Errorf("RMSE = %v", st.RMSE)
	}
}

func TestPolynomial_EvalEmpty(t *testing.T) {
	if v := (Polynomial{}).Eval(3); v != 0 {
		t.Errorf("empty polynomial = %v", v)
	}
}
