package fit

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// 阻尼对角线的取值范围
const (
	minDiagonal = 1e-6
	maxDiagonal = 1e32
	maxLambda   = 1e32
)

// LevenbergMarquardt 带 Marquardt 对角缩放的 LM 求解器
// 雅可比矩阵用中心差分计算
type LevenbergMarquardt struct {
	MaxIterations      int
	FunctionTolerance  float64
	ParameterTolerance float64
	GradientTolerance  float64
	InitialLambda      float64

	// Progress 非 nil 时每次迭代后调用
	Progress func(Iteration)
}

// NewLevenbergMarquardt 默认参数
func NewLevenbergMarquardt() *LevenbergMarquardt {
	return &LevenbergMarquardt{
		MaxIterations:      300,
		FunctionTolerance:  1e-15,
		ParameterTolerance: 1e-15,
		GradientTolerance:  1e-10,
		InitialLambda:      1e-4,
	}
}

func (lm *LevenbergMarquardt) Minimize(obj Objective, x0 []float64) Result {
	n := len(x0)
	m := obj.M

	x := make([]float64, n)
	copy(x, x0)

	res := Result{Residuals: m, Parameters: n}

	c, r := obj.Cost(x)
	res.Evaluations++
	res.InitialCost = c
	res.Cost = c
	res.X = x
	if !finite(c) {
		res.Termination = NonFinite
		return res
	}

	jac := mat.NewDense(m, n, nil)
	jtj := mat.NewSymDense(n, nil)
	aug := mat.NewSymDense(n, nil)
	grad := mat.NewVecDense(n, nil)
	negGrad := mat.NewVecDense(n, nil)
	jtjStep := mat.NewVecDense(n, nil)
	var step mat.VecDense
	var chol mat.Cholesky

	lambda := lm.InitialLambda
	nu := 2.0
	settings := &fd.JacobianSettings{Formula: fd.Central}

	for res.Iterations < lm.MaxIterations {
		res.Iterations++

		fd.Jacobian(jac, obj.F, x, settings)
		res.Evaluations += 2 * n
		if !matFinite(jac) {
			res.Termination = NonFinite
			return res
		}

		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), mat.NewVecDense(m, r))

		gnorm := floats.Norm(grad.RawVector().Data, math.Inf(1))
		if gnorm <= lm.GradientTolerance {
			res.Termination = GradientTolerance
			break
		}

		aug.CopySym(jtj)
		for i := 0; i < n; i++ {
			d := math.Min(math.Max(jtj.At(i, i), minDiagonal), maxDiagonal)
			aug.SetSym(i, i, jtj.At(i, i)+lambda*d)
		}
		negGrad.ScaleVec(-1, grad)

		it := Iteration{Index: res.Iterations, Cost: c, GradientNorm: gnorm, Lambda: lambda}

		if !chol.Factorize(aug) || chol.SolveVecTo(&step, negGrad) != nil {
			lambda *= nu
			nu *= 2
			if lambda > maxLambda {
				res.Termination = DampingExhausted
				break
			}
			lm.report(it)
			continue
		}

		delta := step.RawVector().Data
		it.StepNorm = floats.Norm(delta, 2)
		if it.StepNorm <= lm.ParameterTolerance*(floats.Norm(x, 2)+lm.ParameterTolerance) {
			res.Termination = ParameterTolerance
			lm.report(it)
			break
		}

		candidate := make([]float64, n)
		floats.AddTo(candidate, x, delta)
		newCost, newR := obj.Cost(candidate)
		res.Evaluations++

		jtjStep.MulVec(jtj, &step)
		predicted := -(mat.Dot(grad, &step) + 0.5*mat.Dot(&step, jtjStep))
		actual := c - newCost

		if finite(newCost) && predicted > 0 && actual > 0 {
			rho := actual / predicted
			it.Accepted = true
			it.CostChange = actual

			copy(x, candidate)
			r = newR
			prev := c
			c = newCost
			res.Cost = c

			lambda *= math.Max(1.0/3.0, 1-math.Pow(2*rho-1, 3))
			nu = 2
			lm.report(it)

			if actual <= lm.FunctionTolerance*prev {
				res.Termination = FunctionTolerance
				break
			}
			continue
		}

		lambda *= nu
		nu *= 2
		lm.report(it)
		if lambda > maxLambda {
			res.Termination = DampingExhausted
			break
		}
	}

	if res.Termination == NotStarted {
		res.Termination = MaxIterations
	}
	res.X = x
	res.Converged = res.Termination.Converged() && finite(res.Cost)
	return res
}

func (lm *LevenbergMarquardt) report(it Iteration) {
	if lm.Progress != nil {
		lm.Progress(it)
	}
}

func matFinite(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !finite(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}
