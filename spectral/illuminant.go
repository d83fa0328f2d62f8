package spectral

import (
	"fmt"
	"math"
)

// 普朗克辐射常量
const (
	planck    = 6.62606957e-34
	lightC    = 2.99792458e8
	boltzmann = 1.3806488e-23
)

// daylightComponents CIE 日光基函数 S0, S1, S2 (300..830nm, 步长 10nm)
var daylightComponents = [...][4]float64{
	{300, 0.04, 0.02, 0.0},
	{310, 6.0, 4.5, 2.0},
	{320, 29.6, 22.4, 4.0},
	{330, 55.3, 42.0, 8.5},
	{340, 57.3, 40.6, 7.8},
	{350, 61.8, 41.6, 6.7},
	{360, 61.5, 38.0, 5.3},
	{370, 68.8, 42.4, 6.1},
	{380, 63.4, 38.5, 3.0},
	{390, 65.8, 35.0, 1.2},
	{400, 94.8, 43.4, -1.1},
	{410, 104.8, 46.3, -0.5},
	{420, 105.9, 43.9, -0.7},
	{430, 96.8, 37.1, -1.2},
	{440, 113.9, 36.7, -2.6},
	{450, 125.6, 35.9, -2.9},
	{460, 125.5, 32.6, -2.8},
	{470, 121.3, 27.9, -2.6},
	{480, 121.3, 24.3, -2.6},
	{490, 113.5, 20.1, -1.8},
	{500, 113.1, 16.2, -1.5},
	{510, 110.8, 13.2, -1.3},
	{520, 106.5, 8.6, -1.2},
	{530, 108.8, 6.1, -1.0},
	{540, 105.3, 4.2, -0.5},
	{550, 104.4, 1.9, -0.3},
	{560, 100.0, 0.0, 0.0},
	{570, 96.0, -1.6, 0.2},
	{580, 95.1, -3.5, 0.5},
	{590, 89.1, -3.5, 2.1},
	{600, 90.5, -5.8, 3.2},
	{610, 90.3, -7.2, 4.1},
	{620, 88.4, -8.6, 4.7},
	{630, 84.0, -9.5, 5.1},
	{640, 85.1, -10.9, 6.7},
	{650, 81.9, -10.7, 7.3},
	{660, 82.6, -12.0, 8.6},
	{670, 84.9, -14.0, 9.8},
	{680, 81.3, -13.6, 10.2},
	{690, 71.9, -12.0, 8.3},
	{700, 74.3, -13.3, 9.6},
	{710, 76.4, -12.9, 8.5},
	{720, 63.3, -10.6, 7.0},
	{730, 71.7, -11.6, 7.6},
	{740, 77.0, -12.2, 8.0},
	{750, 65.2, -10.2, 6.7},
	{760, 47.7, -7.8, 5.2},
	{770, 68.6, -11.2, 7.4},
	{780, 65.0, -10.4, 6.8},
	{790, 66.0, -10.6, 7.0},
	{800, 61.0, -9.7, 6.4},
	{810, 53.3, -8.3, 5.5},
	{820, 58.9, -9.3, 6.1},
	{830, 61.9, -9.8, 6.5},
}

// 日光与黑体色温的合法范围
const (
	DaylightMin   = 4000
	DaylightMax   = 25000
	BlackbodyMin  = 1500
	BlackbodyMax  = 3999
	daylightScale = 1.4387752 / 1.438
)

var (
	ErrDaylightRange  = fmt.Errorf("The range of Correlated Color Temperature for Day Light should be from %d to %d.", DaylightMin, DaylightMax)
	ErrBlackbodyRange = fmt.Errorf("The range of Color Temperature for BlackBody should be from %d to %d.", BlackbodyMin, BlackbodyMax)
)

// DaylightCCT 日光标签数值转色温
// 40..250 按 CIE 惯例视为百开尔文 (D65 → 6504K)，4000..25000 直接视为开尔文
func DaylightCCT(n int) (float64, error) {
	switch {
	case n >= DaylightMin/100 && n <= DaylightMax/100:
		return float64(n) * 100.0 * daylightScale, nil
	case n >= DaylightMin && n <= DaylightMax:
		return float64(n), nil
	default:
		return 0, ErrDaylightRange
	}
}

// ValidateBlackbody 黑体色温范围检查
func ValidateBlackbody(cct int) error {
	if cct < BlackbodyMin || cct > BlackbodyMax {
		return ErrBlackbodyRange
	}
	return nil
}

// Blackbody 普朗克黑体辐射光谱
func Blackbody(cct float64, shape Shape) Spectrum {
	out := NewSpectrum(shape)
	c1 := 2.0 * planck * lightC * lightC
	for i := range out.Values {
		lambda := shape.Wavelength(i) * 1e-9
		c2 := planck * lightC / (boltzmann * lambda * cct)
		out.Values[i] = c1 * math.Pi / (math.Pow(lambda, 5) * (math.Exp(c2) - 1.0))
	}
	return out
}

// daylightChromaticity CIE 日光轨迹上的 xy
func daylightChromaticity(cct float64) (float64, float64) {
	t := cct
	var xd float64
	if t >= 4002.15 && t <= 7003.77 {
		xd = 0.244063 + 99.11/t + 2.9678e6/(t*t) - 4.6070e9/(t*t*t)
	} else {
		xd = 0.237040 + 247.48/t + 1.9018e6/(t*t) - 2.0064e9/(t*t*t)
	}
	yd := -3.0*xd*xd + 2.87*xd - 0.275
	return xd, yd
}

// Daylight CIE 标准日光光谱 S0 + M1·S1 + M2·S2
func Daylight(cct float64, shape Shape) Spectrum {
	xd, yd := daylightChromaticity(cct)
	den := 0.0241 + 0.2562*xd - 0.7341*yd
	m1 := (-1.3515 - 1.7703*xd + 5.9114*yd) / den
	m2 := (0.03 - 31.4424*xd + 30.0717*yd) / den

	n := len(daylightComponents)
	wl := make([]float64, n)
	power := make([]float64, n)
	for i, row := range daylightComponents {
		wl[i] = row[0]
		power[i] = row[1] + m1*row[2] + m2*row[3]
	}
	return Interpolate(wl, power, shape)
}

// DaylightData 日光光源数据集，label 如 "d65"
func DaylightData(label string, cct float64) *Data {
	return FromSpectrum(label, Daylight(cct, DefaultShape))
}

// BlackbodyData 黑体光源数据集，label 如 "3200k"
func BlackbodyData(label string, cct float64) *Data {
	return FromSpectrum(label, Blackbody(cct, DefaultShape))
}
