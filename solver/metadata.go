package solver

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/weaming/idt-go/cct"
	"github.com/weaming/idt-go/colorspace"
	"github.com/weaming/idt-go/logx"
	"github.com/weaming/idt-go/matrix"
)

// 诊断信息
const (
	msgNoCalibration = "No calibration illuminants were found."
	msgNoNeutral     = "No neutral RGB values were found."
)

// Calibration DNG 中的一组标定数据
type Calibration struct {
	// Illuminant EXIF LightSource 标签，>= 32768 时编码色温
	Illuminant              uint16    `toml:"illuminant"`
	CameraCalibrationMatrix []float64 `toml:"camera_calibration_matrix"`
	XYZToRGBMatrix          []float64 `toml:"xyz_to_rgb_matrix"`
}

// Metadata 双光源标定元数据
type Metadata struct {
	Calibration      [2]Calibration `toml:"calibration"`
	NeutralRGB       []float64      `toml:"neutral_rgb"`
	BaselineExposure float64        `toml:"baseline_exposure"`
}

// Equal 逐字段比较
func (m Metadata) Equal(other Metadata) bool {
	if m.BaselineExposure != other.BaselineExposure || !slices.Equal(m.NeutralRGB, other.NeutralRGB) {
		return false
	}
	for i := range m.Calibration {
		a, b := m.Calibration[i], other.Calibration[i]
		if a.Illuminant != b.Illuminant ||
			!slices.Equal(a.CameraCalibrationMatrix, b.CameraCalibrationMatrix) ||
			!slices.Equal(a.XYZToRGBMatrix, b.XYZToRGBMatrix) {
			return false
		}
	}
	return true
}

// Clone 深拷贝，用作缓存键时与调用方的切片分离
func (m Metadata) Clone() Metadata {
	out := m
	out.NeutralRGB = slices.Clone(m.NeutralRGB)
	for i := range out.Calibration {
		out.Calibration[i].CameraCalibrationMatrix = slices.Clone(m.Calibration[i].CameraCalibrationMatrix)
		out.Calibration[i].XYZToRGBMatrix = slices.Clone(m.Calibration[i].XYZToRGBMatrix)
	}
	return out
}

func (m Metadata) String() string {
	return "<Metadata>"
}

// Describe 详细的诊断输出
func (m Metadata) Describe() string {
	var b strings.Builder
	for i, c := range m.Calibration {
		fmt.Fprintf(&b, "calibration[%d]: illuminant=%d camera_calibration=%v xyz_to_rgb=%v\n",
			i, c.Illuminant, c.CameraCalibrationMatrix, c.XYZToRGBMatrix)
	}
	fmt.Fprintf(&b, "neutral_rgb=%v baseline_exposure=%g", m.NeutralRGB, m.BaselineExposure)
	return b.String()
}

// XYZToCamera 标定的 XYZ → 相机矩阵 (CameraCalibration · ColorMatrix)
// 缺失的矩阵视为单位矩阵
func (c Calibration) XYZToCamera() matrix.Matrix3x3 {
	cm, err := matrix.FromSlice(c.XYZToRGBMatrix)
	if err != nil {
		cm = matrix.Identity3x3()
	}
	cc, err := matrix.FromSlice(c.CameraCalibrationMatrix)
	if err != nil {
		return cm
	}
	return cc.Multiply(cm)
}

func orDefault(l *logx.Logger) *logx.Logger {
	if l == nil {
		return logx.Default(0)
	}
	return l
}

// XYZToCameraWeightedMatrix 在 mired 空间内按目标位置混合两组标定矩阵
func XYZToCameraWeightedMatrix(mired0, mired1, mired2 float64, m1, m2 matrix.Matrix3x3) matrix.Matrix3x3 {
	if mired1 == mired2 {
		return m1
	}
	w := (mired1 - mired0) / (mired1 - mired2)
	w = math.Max(0, math.Min(1, w))
	return m1.Add(m2.Sub(m1).Scale(w))
}

// FindXYZToCameraMatrix 搜索使中性色自洽的色温，返回该色温下的 XYZ → 相机矩阵
func FindXYZToCameraMatrix(md Metadata, neutralRGB []float64, logger *logx.Logger) matrix.Matrix3x3 {
	logger = orDefault(logger)

	cal0, cal1 := md.Calibration[0], md.Calibration[1]
	m0, m1 := cal0.XYZToCamera(), cal1.XYZToCamera()

	if cal0.Illuminant == 0 || cal1.Illuminant == 0 {
		logger.Warn(msgNoCalibration)
		return m0
	}
	if len(neutralRGB) == 0 {
		logger.Warn(msgNoNeutral)
		return m0
	}

	neutral := matrix.VectorFromSlice(neutralRGB)
	mired1 := cct.CCTToMired(cct.LightSourceToColorTemp(cal0.Illuminant))
	mired2 := cct.CCTToMired(cct.LightSourceToColorTemp(cal1.Illuminant))

	lo := math.Max(math.Min(mired1, mired2), cct.CCTToMired(cct.MaxCCT))
	hi := math.Min(math.Max(mired1, mired2), cct.CCTToMired(cct.MinCCT))
	step := math.Max(5.0, (hi-lo)/50.0)

	estimate := lo
	var smallest, lastErr, lastMired float64

	for mired := lo; mired < hi; mired += step {
		weighted := XYZToCameraWeightedMatrix(mired, mired1, mired2, m0, m1)
		inv, err := weighted.Inverse()
		if err != nil {
			continue
		}
		xyz := inv.Apply(neutral)
		diff := mired - cct.CCTToMired(cct.XYZToColorTemperature(xyz))

		if math.Abs(diff) <= 1e-9 {
			estimate = mired
			break
		}
		if mired != lo && diff*lastErr <= 0 {
			estimate = mired + diff/(diff-lastErr)*(mired-lastMired)
			break
		}
		if mired == lo || math.Abs(diff) < math.Abs(smallest) {
			estimate = mired
			smallest = diff
		}
		lastErr = diff
		lastMired = mired
	}

	return XYZToCameraWeightedMatrix(estimate, mired1, mired2, m0, m1)
}

// CameraXYZMatrixAndWhitePoint 相机 → XYZ 矩阵与相机白点 (Y = 1)
func CameraXYZMatrixAndWhitePoint(md Metadata, logger *logx.Logger) (matrix.Matrix3x3, matrix.Vector3) {
	logger = orDefault(logger)

	xyzToCamera := FindXYZToCameraMatrix(md, md.NeutralRGB, logger)
	cameraToXYZ, err := xyzToCamera.Inverse()
	if err != nil {
		logger.Warnf("XYZ to camera matrix is singular: %v", err)
		cameraToXYZ = matrix.Identity3x3()
	}
	cameraToXYZ = cameraToXYZ.Scale(math.Pow(2.0, md.BaselineExposure))

	var white matrix.Vector3
	if len(md.NeutralRGB) > 0 {
		white = cameraToXYZ.Apply(matrix.VectorFromSlice(md.NeutralRGB))
	} else {
		white = matrix.Vector3(cct.ColorTemperatureToXYZ(
			cct.LightSourceToColorTemp(md.Calibration[0].Illuminant)))
	}

	return cameraToXYZ, white.NormalizeY()
}

// MetadataSolver 由 DNG 元数据代数推导 CAT 与 IDT，不会失败
type MetadataSolver struct {
	Metadata Metadata
	Logger   *logx.Logger
}

// NewMetadataSolver 创建元数据求解器
func NewMetadataSolver(md Metadata, opts ...Option) *MetadataSolver {
	o := applyOptions(opts)
	return &MetadataSolver{Metadata: md, Logger: o.logger}
}

// CalculateCATMatrix 相机白点 → ACES 白点的 CAT02 适应矩阵
func (s *MetadataSolver) CalculateCATMatrix() matrix.Matrix3x3 {
	_, white := CameraXYZMatrixAndWhitePoint(s.Metadata, s.Logger)
	return colorspace.CalculateCAT(white, colorspace.ACESWhiteXYZ)
}

// CalculateIDTMatrix 参考 XYZ → ACES 矩阵与 CAT 的组合
func (s *MetadataSolver) CalculateIDTMatrix() matrix.Matrix3x3 {
	return colorspace.XYZD65ToACES.Multiply(s.CalculateCATMatrix())
}
