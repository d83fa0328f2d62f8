// Package fit 非线性最小二乘求解
package fit

import (
	"fmt"
	"math"
	"strings"
)

// Objective 残差函数，F 把 x 处的 M 个残差写入 dst
type Objective struct {
	M int
	F func(dst, x []float64)
}

// Cost 0.5·Σr²
func (o Objective) Cost(x []float64) (float64, []float64) {
	r := make([]float64, o.M)
	o.F(r, x)
	return cost(r), r
}

func cost(r []float64) float64 {
	s := 0.0
	for _, v := range r {
		s += v * v
	}
	return 0.5 * s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Termination 终止原因
type Termination int

const (
	NotStarted Termination = iota
	FunctionTolerance
	ParameterTolerance
	GradientTolerance
	DampingExhausted
	MaxIterations
	NonFinite
)

func (t Termination) String() string {
	switch t {
	case NotStarted:
		return "NOT_STARTED"
	case FunctionTolerance:
		return "CONVERGENCE (function tolerance reached)"
	case ParameterTolerance:
		return "CONVERGENCE (parameter tolerance reached)"
	case GradientTolerance:
		return "CONVERGENCE (gradient tolerance reached)"
	case DampingExhausted:
		return "CONVERGENCE (no further decrease possible)"
	case MaxIterations:
		return "NO_CONVERGENCE (maximum number of iterations reached)"
	case NonFinite:
		return "FAILURE (residual evaluation returned non-finite values)"
	}
	return fmt.Sprintf("Termination(%d)", int(t))
}

// Converged 结果是否可用
func (t Termination) Converged() bool {
	switch t {
	case FunctionTolerance, ParameterTolerance, GradientTolerance, DampingExhausted:
		return true
	}
	return false
}

// Iteration 单次迭代的进度
type Iteration struct {
	Index        int
	Cost         float64
	CostChange   float64
	GradientNorm float64
	StepNorm     float64
	Lambda       float64
	Accepted     bool
}

func (it Iteration) String() string {
	return fmt.Sprintf("% 4d: f:% 8e d:% 3.2e g:% 3.2e h:% 3.2e lambda:% 3.2e accepted:%t",
		it.Index, it.Cost, it.CostChange, it.GradientNorm, it.StepNorm, it.Lambda, it.Accepted)
}

// Result 求解结果
type Result struct {
	Converged   bool
	X           []float64
	InitialCost float64
	Cost        float64
	Iterations  int
	Evaluations int
	Termination Termination
	Residuals   int
	Parameters  int
}

// Summary 求解摘要
func (r Result) Summary() string {
	var b strings.Builder
	b.WriteString("Solver Summary\n\n")
	fmt.Fprintf(&b, "%-24s %d\n", "Parameters", r.Parameters)
	fmt.Fprintf(&b, "%-24s %d\n", "Residuals", r.Residuals)
	fmt.Fprintf(&b, "%-24s %s\n", "Minimizer", "LEVENBERG_MARQUARDT")
	fmt.Fprintf(&b, "%-24s %e\n", "Initial cost", r.InitialCost)
	fmt.Fprintf(&b, "%-24s %e\n", "Final cost", r.Cost)
	fmt.Fprintf(&b, "%-24s %d\n", "Iterations", r.Iterations)
	fmt.Fprintf(&b, "%-24s %d\n", "Residual evaluations", r.Evaluations)
	fmt.Fprintf(&b, "%-24s %s\n", "Termination", r.Termination)
	return b.String()
}

// Minimizer 最小化 0.5·Σr² 的求解器
type Minimizer interface {
	Minimize(obj Objective, x0 []float64) Result
}
