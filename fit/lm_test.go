package fit

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosenbrock() Objective {
	return Objective{
		M: 2,
		F: func(dst, x []float64) {
			dst[0] = 10 * (x[1] - x[0]*x[0])
			dst[1] = 1 - x[0]
		},
	}
}

func TestRosenbrock(t *testing.T) {
	res := NewLevenbergMarquardt().Minimize(rosenbrock(), []float64{-1.2, 1})

	require.True(t, res.Converged, res.Summary())
	assert.InDelta(t, 1.0, res.X[0], 1e-6)
	assert.InDelta(t, 1.0, res.X[1], 1e-6)
	assert.Less(t, res.Cost, 1e-12)
	assert.Greater(t, res.InitialCost, res.Cost)
	assert.True(t, res.Termination.Converged())
}

func TestLinearFit(t *testing.T) {
	ts := []float64{0, 1, 2, 3, 4, 5}
	ys := []float64{1.1, 2.9, 5.2, 7.1, 8.8, 11.2}

	obj := Objective{
		M: len(ts),
		F: func(dst, x []float64) {
			for i := range ts {
				dst[i] = x[0] + x[1]*ts[i] - ys[i]
			}
		},
	}
	res := NewLevenbergMarquardt().Minimize(obj, []float64{0, 0})
	require.True(t, res.Converged, res.Summary())

	// 闭式最小二乘解
	var st, sy, stt, sty float64
	for i := range ts {
		st += ts[i]
		sy += ys[i]
		stt += ts[i] * ts[i]
		sty += ts[i] * ys[i]
	}
	n := float64(len(ts))
	b := (n*sty - st*sy) / (n*stt - st*st)
	a := (sy - b*st) / n

	assert.InDelta(t, a, res.X[0], 1e-8)
	assert.InDelta(t, b, res.X[1], 1e-8)
}

func TestAlreadyOptimal(t *testing.T) {
	obj := Objective{M: 1, F: func(dst, x []float64) { dst[0] = x[0] - 3 }}
	res := NewLevenbergMarquardt().Minimize(obj, []float64{3})
	assert.True(t, res.Converged)
	assert.Equal(t, GradientTolerance, res.Termination)
	assert.Equal(t, []float64{3}, res.X)
}

func TestNonFinite(t *testing.T) {
	obj := Objective{M: 1, F: func(dst, x []float64) { dst[0] = math.NaN() }}
	res := NewLevenbergMarquardt().Minimize(obj, []float64{1, 2})
	assert.False(t, res.Converged)
	assert.Equal(t, NonFinite, res.Termination)
	assert.Equal(t, []float64{1, 2}, res.X)
}

func TestMaxIterations(t *testing.T) {
	lm := NewLevenbergMarquardt()
	lm.MaxIterations = 1

	res := lm.Minimize(rosenbrock(), []float64{-1.2, 1})
	assert.False(t, res.Converged)
	assert.Equal(t, MaxIterations, res.Termination)
	assert.Equal(t, 1, res.Iterations)
}

func TestProgressAndSummary(t *testing.T) {
	var seen []Iteration
	lm := NewLevenbergMarquardt()
	lm.Progress = func(it Iteration) { seen = append(seen, it) }

	res := lm.Minimize(rosenbrock(), []float64{-1.2, 1})
	require.NotEmpty(t, seen)
	assert.Equal(t, 1, seen[0].Index)
	assert.LessOrEqual(t, len(seen), res.Iterations)

	s := res.Summary()
	assert.True(t, strings.HasPrefix(s, "Solver Summary"))
	assert.Contains(t, s, "CONVERGENCE")
	assert.Contains(t, seen[0].String(), "lambda")
}
