package matrix

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix3x3 表示 3x3 矩阵（行优先存储）
type Matrix3x3 [9]float64

// Vector3 表示 3 维向量
type Vector3 [3]float64

// Multiply 矩阵乘法 (m * other)
func (m Matrix3x3) Multiply(other Matrix3x3) Matrix3x3 {
	var result Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += m[i*3+k] * other[k*3+j]
			}
			result[i*3+j] = sum
		}
	}
	return result
}

// Apply 应用矩阵到向量 (matrix * vector)
func (m Matrix3x3) Apply(v Vector3) Vector3 {
	return Vector3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Determinant 行列式
func (m Matrix3x3) Determinant() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse 计算矩阵的逆，奇异矩阵返回错误
func (m Matrix3x3) Inverse() (Matrix3x3, error) {
	det := m.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Identity3x3(), fmt.Errorf("matrix: singular matrix (det=%g)", det)
	}

	invDet := 1.0 / det
	var inv Matrix3x3
	inv[0] = (m[4]*m[8] - m[5]*m[7]) * invDet
	inv[1] = (m[2]*m[7] - m[1]*m[8]) * invDet
	inv[2] = (m[1]*m[5] - m[2]*m[4]) * invDet
	inv[3] = (m[5]*m[6] - m[3]*m[8]) * invDet
	inv[4] = (m[0]*m[8] - m[2]*m[6]) * invDet
	inv[5] = (m[2]*m[3] - m[0]*m[5]) * invDet
	inv[6] = (m[3]*m[7] - m[4]*m[6]) * invDet
	inv[7] = (m[1]*m[6] - m[0]*m[7]) * invDet
	inv[8] = (m[0]*m[4] - m[1]*m[3]) * invDet
	return inv, nil
}

// Transpose 转置矩阵
func (m Matrix3x3) Transpose() Matrix3x3 {
	return Matrix3x3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Scale 缩放矩阵的所有元素
func (m Matrix3x3) Scale(s float64) Matrix3x3 {
	var result Matrix3x3
	for i := range m {
		result[i] = m[i] * s
	}
	return result
}

// Add 逐元素相加
func (m Matrix3x3) Add(other Matrix3x3) Matrix3x3 {
	var result Matrix3x3
	for i := range m {
		result[i] = m[i] + other[i]
	}
	return result
}

// Sub 逐元素相减 (m - other)
func (m Matrix3x3) Sub(other Matrix3x3) Matrix3x3 {
	var result Matrix3x3
	for i := range m {
		result[i] = m[i] - other[i]
	}
	return result
}

// Sum 所有元素之和
func (m Matrix3x3) Sum() float64 {
	sum := 0.0
	for _, v := range m {
		sum += v
	}
	return sum
}

// Row 返回第 i 行
func (m Matrix3x3) Row(i int) Vector3 {
	return Vector3{m[i*3], m[i*3+1], m[i*3+2]}
}

// Rows 转换为 [3][3] 形式
func (m Matrix3x3) Rows() [3][3]float64 {
	return [3][3]float64{
		{m[0], m[1], m[2]},
		{m[3], m[4], m[5]},
		{m[6], m[7], m[8]},
	}
}

// IsFinite 所有元素都不是 NaN/Inf
func (m Matrix3x3) IsFinite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Dense 返回 gonum 矩阵（拷贝）
func (m Matrix3x3) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, m[:])
	return mat.NewDense(3, 3, data)
}

func (m Matrix3x3) String() string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%.6f %.6f %.6f", m[i*3], m[i*3+1], m[i*3+2])
	}
	return b.String()
}

// FromRows 从 [3][3] 创建矩阵
func FromRows(rows [3][3]float64) Matrix3x3 {
	return Matrix3x3{
		rows[0][0], rows[0][1], rows[0][2],
		rows[1][0], rows[1][1], rows[1][2],
		rows[2][0], rows[2][1], rows[2][2],
	}
}

// FromSlice 从长度为 9 的切片创建矩阵
func FromSlice(s []float64) (Matrix3x3, error) {
	var m Matrix3x3
	if len(s) != 9 {
		return m, fmt.Errorf("matrix: need 9 values, got %d", len(s))
	}
	copy(m[:], s)
	return m, nil
}

// FromDense 从 gonum 3x3 矩阵创建
func FromDense(d mat.Matrix) Matrix3x3 {
	var m Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i*3+j] = d.At(i, j)
		}
	}
	return m
}

// Identity3x3 返回 3x3 单位矩阵
func Identity3x3() Matrix3x3 {
	return Matrix3x3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Diagonal3x3 从向量创建对角矩阵
func Diagonal3x3(v Vector3) Matrix3x3 {
	return Matrix3x3{
		v[0], 0, 0,
		0, v[1], 0,
		0, 0, v[2],
	}
}
