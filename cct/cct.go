// Package cct 相关色温 (CCT) 计算，基于 Robertson 等温线表
package cct

import "math"

// 色温范围
const (
	MinCCT = 2000.0
	MaxCCT = 50000.0
)

// robertsonMired 各等温线对应的 mired 值
var robertsonMired = [...]float64{
	1.0e-10, 10.0, 20.0, 30.0, 40.0, 50.0, 60.0, 70.0, 80.0, 90.0,
	100.0, 125.0, 150.0, 175.0, 200.0, 225.0, 250.0, 275.0, 300.0, 325.0,
	350.0, 375.0, 400.0, 425.0, 450.0, 475.0, 500.0, 525.0, 550.0, 575.0,
	600.0,
}

// robertsonUVT 等温线 (u, v, 斜率 t)
var robertsonUVT = [...][3]float64{
	{0.18006, 0.26352, -0.24341},
	{0.18066, 0.26589, -0.25479},
	{0.18133, 0.26846, -0.26876},
	{0.18208, 0.27119, -0.28539},
	{0.18293, 0.27407, -0.30470},
	{0.18388, 0.27709, -0.32675},
	{0.18494, 0.28021, -0.35156},
	{0.18611, 0.28342, -0.37915},
	{0.18740, 0.28668, -0.40955},
	{0.18880, 0.28997, -0.44278},
	{0.19032, 0.29326, -0.47888},
	{0.19462, 0.30141, -0.58204},
	{0.19962, 0.30921, -0.70471},
	{0.20525, 0.31647, -0.84901},
	{0.21142, 0.32312, -1.0182},
	{0.21807, 0.32909, -1.2168},
	{0.22511, 0.33439, -1.4512},
	{0.23247, 0.33904, -1.7298},
	{0.24010, 0.34308, -2.0637},
	{0.24792, 0.34655, -2.4681},
	{0.25591, 0.34951, -2.9641},
	{0.26400, 0.35200, -3.5814},
	{0.27218, 0.35407, -4.3633},
	{0.28039, 0.35577, -5.3762},
	{0.28863, 0.35714, -6.7262},
	{0.29685, 0.35823, -8.5955},
	{0.30505, 0.35907, -11.324},
	{0.31320, 0.35968, -15.628},
	{0.32129, 0.36011, -23.325},
	{0.32931, 0.36038, -40.770},
	{0.33724, 0.36051, -116.45},
}

// lightSources EXIF LightSource 标签到色温的映射
var lightSources = map[uint16]float64{
	0:  5500, // Unknown
	1:  5500, // Daylight
	2:  3500, // Fluorescent
	3:  3400, // Tungsten
	10: 5550, // Cloudy
	17: 2856, // Standard light A
	18: 4874, // Standard light B
	19: 6774, // Standard light C
	20: 5500, // D55
	21: 6500, // D65
	22: 7500, // D75
}

// CCTToMired 色温转 mired
func CCTToMired(cct float64) float64 {
	return 1.0e6 / cct
}

// RobertsonLength 计算 uv 到等温线的有符号距离
func RobertsonLength(uv [2]float64, uvt [3]float64) float64 {
	t := uvt[2]
	sign := 1.0
	if t < 0 {
		sign = -1.0
	} else if t == 0 {
		sign = 0
	}

	slope0 := -sign / math.Sqrt(1+t*t)
	slope1 := t * slope0

	return slope0*(uv[1]-uvt[1]) - slope1*(uv[0]-uvt[0])
}

// LightSourceToColorTemp EXIF LightSource 标签转色温
// 标签 >= 32768 时直接编码色温 (tag - 32768)
func LightSourceToColorTemp(tag uint16) float64 {
	if tag >= 32768 {
		return float64(tag) - 32768.0
	}
	if t, ok := lightSources[tag]; ok {
		return t
	}
	return 5500.0
}

// XYZToUV XYZ 转 CIE 1960 uv
func XYZToUV(xyz [3]float64) [2]float64 {
	d := xyz[0] + 15.0*xyz[1] + 3.0*xyz[2]
	return [2]float64{4.0 * xyz[0] / d, 6.0 * xyz[1] / d}
}

// UVToXYZ CIE 1960 uv 转色度三元组 (x, y, 1-x-y)
func UVToXYZ(uv [2]float64) [3]float64 {
	d := 2.0*uv[0] - 8.0*uv[1] + 4.0
	x := 3.0 * uv[0] / d
	y := 2.0 * uv[1] / d
	return [3]float64{x, y, 1.0 - x - y}
}

// XYZToColorTemperature Robertson 方法估计 XYZ 的相关色温
// 结果限制在 [MinCCT, MaxCCT]
func XYZToColorTemperature(xyz [3]float64) float64 {
	uv := XYZToUV(xyz)

	n := len(robertsonUVT)
	prev, this := 0.0, 0.0
	i := 0
	for ; i < n; i++ {
		this = RobertsonLength(uv, robertsonUVT[i])
		if this <= 0.0 {
			break
		}
		prev = this
	}

	var mired float64
	switch {
	case i == 0:
		mired = robertsonMired[0]
	case i >= n:
		mired = robertsonMired[n-1]
	default:
		mired = robertsonMired[i-1] +
			prev*(robertsonMired[i]-robertsonMired[i-1])/(prev-this)
	}

	cct := 1.0e6 / mired
	return math.Max(MinCCT, math.Min(MaxCCT, cct))
}

// ColorTemperatureToXYZ 色温转色度三元组，超出表范围时取端点
func ColorTemperatureToXYZ(cct float64) [3]float64 {
	mired := CCTToMired(cct)
	n := len(robertsonMired)

	i := 0
	for i < n && robertsonMired[i] < mired {
		i++
	}

	var uv [2]float64
	switch {
	case i == 0:
		uv = [2]float64{robertsonUVT[0][0], robertsonUVT[0][1]}
	case i >= n:
		uv = [2]float64{robertsonUVT[n-1][0], robertsonUVT[n-1][1]}
	default:
		w := (mired - robertsonMired[i-1]) / (robertsonMired[i] - robertsonMired[i-1])
		uv = [2]float64{
			w*robertsonUVT[i][0] + (1-w)*robertsonUVT[i-1][0],
			w*robertsonUVT[i][1] + (1-w)*robertsonUVT[i-1][1],
		}
	}

	return UVToXYZ(uv)
}
