package colorspace

import (
	"math"

	"github.com/weaming/idt-go/matrix"
)

// CIE Lab 常量
const (
	labEpsilon = 216.0 / 24389.0
	labKappa   = 24389.0 / 27.0
)

// CalculateCAT 计算从 src 白点到 dst 白点的 CAT02 色适应矩阵 (von Kries)
func CalculateCAT(src, dst matrix.Vector3) matrix.Matrix3x3 {
	srcLMS := CAT02.Apply(src)
	dstLMS := CAT02.Apply(dst)

	gain := matrix.Diagonal3x3(matrix.Vector3{
		dstLMS[0] / srcLMS[0],
		dstLMS[1] / srcLMS[1],
		dstLMS[2] / srcLMS[2],
	})

	return mustInverse(CAT02).Multiply(gain).Multiply(CAT02)
}

// labF CIE Lab 的分段函数
func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16.0) / 116.0
}

// XYZToLab 将 XYZ 转换为相对于 white 的 CIE L*a*b*
func XYZToLab(xyz, white matrix.Vector3) matrix.Vector3 {
	fx := labF(xyz[0] / white[0])
	fy := labF(xyz[1] / white[1])
	fz := labF(xyz[2] / white[2])

	return matrix.Vector3{
		116.0*fy - 16.0,
		500.0 * (fx - fy),
		200.0 * (fy - fz),
	}
}
