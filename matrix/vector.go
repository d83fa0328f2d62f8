package matrix

import "math"

// Scale 缩放向量
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v[0] * s, v[1] * s, v[2] * s}
}

// Add 向量加法
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{v[0] + other[0], v[1] + other[1], v[2] + other[2]}
}

// Sub 向量减法
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{v[0] - other[0], v[1] - other[1], v[2] - other[2]}
}

// ComponentMul 逐分量乘法
func (v Vector3) ComponentMul(other Vector3) Vector3 {
	return Vector3{v[0] * other[0], v[1] * other[1], v[2] * other[2]}
}

// Invert 逐分量求倒数
func (v Vector3) Invert() Vector3 {
	return Vector3{
		1.0 / v[0],
		1.0 / v[1],
		1.0 / v[2],
	}
}

// Sum 分量之和
func (v Vector3) Sum() float64 {
	return v[0] + v[1] + v[2]
}

// Min 最小分量
func (v Vector3) Min() float64 {
	return math.Min(v[0], math.Min(v[1], v[2]))
}

// Max 最大分量
func (v Vector3) Max() float64 {
	return math.Max(v[0], math.Max(v[1], v[2]))
}

// NormalizeY 缩放使第二个分量 (Y) 为 1
func (v Vector3) NormalizeY() Vector3 {
	return v.Scale(1.0 / v[1])
}

// VectorFromSlice 取切片前三个值，不足时补 0
func VectorFromSlice(s []float64) Vector3 {
	var v Vector3
	copy(v[:], s)
	return v
}
