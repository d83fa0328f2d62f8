package colorspace

import (
	"fmt"

	"github.com/weaming/idt-go/matrix"
	"gonum.org/v1/gonum/mat"
)

// 标准色彩空间定义

// Chromaticities 三原色与白点的 xy 色度坐标
type Chromaticities struct {
	Red   [2]float64
	Green [2]float64
	Blue  [2]float64
	White [2]float64
}

// ACES AP0 原色 (ACES2065-1)
var ACES = Chromaticities{
	Red:   [2]float64{0.73470, 0.26530},
	Green: [2]float64{0.00000, 1.00000},
	Blue:  [2]float64{0.00010, -0.07700},
	White: [2]float64{0.32168, 0.33767},
}

// CAT02 色适应矩阵 (CIECAM02)
var CAT02 = matrix.Matrix3x3{
	0.7328, 0.4296, -0.1624,
	-0.7036, 1.6975, 0.0061,
	0.0030, 0.0136, 0.9834,
}

// XYZD65ToACES XYZ (D65) 到 ACES2065-1 的参考转换矩阵，内含 D65 → ACES 白点适应
var XYZD65ToACES = matrix.Matrix3x3{
	1.0634731317028, 0.00639793641966071, -0.0157891874629212,
	-0.492082784686793, 1.36823709310019, 0.0913444629573544,
	-0.0028137154424595, 0.00463991165243123, 0.91649468506889,
}

var (
	// ACESToXYZ ACES RGB → XYZ
	ACESToXYZ = mustRGBToXYZ(ACES)
	// XYZToACES XYZ → ACES RGB
	XYZToACES = mustInverse(ACESToXYZ)
	// ACESWhiteXYZ ACES 白点 (Y = 1)
	ACESWhiteXYZ = ACESToXYZ.Apply(matrix.Vector3{1, 1, 1})
)

// xyToXYZ 色度坐标转为 Y = 1 的 XYZ
func xyToXYZ(xy [2]float64) matrix.Vector3 {
	return matrix.Vector3{xy[0] / xy[1], 1.0, (1.0 - xy[0] - xy[1]) / xy[1]}
}

// RGBToXYZ 由原色和白点色度构建 RGB → XYZ 矩阵
// 每列为原色的 XYZ，按白点缩放使 RGB(1,1,1) 映射到白点
func RGBToXYZ(c Chromaticities) (matrix.Matrix3x3, error) {
	r, g, b := xyToXYZ(c.Red), xyToXYZ(c.Green), xyToXYZ(c.Blue)
	w := xyToXYZ(c.White)

	primaries := mat.NewDense(3, 3, []float64{
		r[0], g[0], b[0],
		r[1], g[1], b[1],
		r[2], g[2], b[2],
	})

	var scale mat.VecDense
	if err := scale.SolveVec(primaries, mat.NewVecDense(3, w[:])); err != nil {
		return matrix.Identity3x3(), fmt.Errorf("colorspace: degenerate primaries: %w", err)
	}

	var result matrix.Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			result[i*3+j] = primaries.At(i, j) * scale.AtVec(j)
		}
	}
	return result, nil
}

func mustRGBToXYZ(c Chromaticities) matrix.Matrix3x3 {
	m, err := RGBToXYZ(c)
	if err != nil {
		panic(err)
	}
	return m
}

func mustInverse(m matrix.Matrix3x3) matrix.Matrix3x3 {
	inv, err := m.Inverse()
	if err != nil {
		panic(err)
	}
	return inv
}
