// Package spectral 光谱数据集的加载、重采样与标准光源生成
package spectral

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Shape 等间隔波长网格 (nm)
type Shape struct {
	First float64
	Last  float64
	Step  float64
}

// DefaultShape 380..780nm, 步长 5nm, 共 81 个采样
var DefaultShape = Shape{First: 380, Last: 780, Step: 5}

// Len 采样点数
func (s Shape) Len() int {
	if s.Step <= 0 || s.Last < s.First {
		return 0
	}
	return int(math.Round((s.Last-s.First)/s.Step)) + 1
}

// Wavelength 第 i 个采样的波长
func (s Shape) Wavelength(i int) float64 {
	return s.First + float64(i)*s.Step
}

// Wavelengths 所有采样波长
func (s Shape) Wavelengths() []float64 {
	w := make([]float64, s.Len())
	for i := range w {
		w[i] = s.Wavelength(i)
	}
	return w
}

// Spectrum 定义在等间隔网格上的单通道光谱
type Spectrum struct {
	Shape  Shape
	Values []float64
}

// NewSpectrum 在 shape 上创建全零光谱
func NewSpectrum(shape Shape) Spectrum {
	return Spectrum{Shape: shape, Values: make([]float64, shape.Len())}
}

// Interpolate 由任意排列的 (波长, 值) 采样线性插值到 shape
// 源范围之外的波长取 0
func Interpolate(wavelengths, values []float64, shape Shape) Spectrum {
	idx := make([]int, len(wavelengths))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return wavelengths[idx[a]] < wavelengths[idx[b]] })

	xs := make([]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = wavelengths[j]
		ys[i] = values[j]
	}

	out := NewSpectrum(shape)
	if len(xs) == 0 {
		return out
	}

	for i := range out.Values {
		w := shape.Wavelength(i)
		k := sort.SearchFloat64s(xs, w)
		switch {
		case k < len(xs) && xs[k] == w:
			out.Values[i] = ys[k]
		case k == 0 || k == len(xs):
			out.Values[i] = 0
		default:
			t := (w - xs[k-1]) / (xs[k] - xs[k-1])
			out.Values[i] = ys[k-1] + t*(ys[k]-ys[k-1])
		}
	}
	return out
}

// Resample 重采样到另一个网格
func (s Spectrum) Resample(shape Shape) Spectrum {
	if s.Shape == shape {
		return s.Clone()
	}
	return Interpolate(s.Shape.Wavelengths(), s.Values, shape)
}

// Clone 深拷贝
func (s Spectrum) Clone() Spectrum {
	v := make([]float64, len(s.Values))
	copy(v, s.Values)
	return Spectrum{Shape: s.Shape, Values: v}
}

// Scale 逐点乘以常数
func (s Spectrum) Scale(f float64) Spectrum {
	out := s.Clone()
	floats.Scale(f, out.Values)
	return out
}

// Mul 逐点相乘，两者必须在同一网格上
func (s Spectrum) Mul(other Spectrum) Spectrum {
	out := s.Clone()
	floats.Mul(out.Values, other.Values)
	return out
}

// Integrate 离散求和
func (s Spectrum) Integrate() float64 {
	return floats.Sum(s.Values)
}

// Dot 两条光谱的离散积分 Σ a·b
func Dot(a, b Spectrum) float64 {
	return floats.Dot(a.Values, b.Values)
}

// IsFinite 所有采样都不是 NaN/Inf
func (s Spectrum) IsFinite() bool {
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
