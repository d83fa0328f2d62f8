package spectral

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	assert.Equal(t, 81, DefaultShape.Len())
	assert.Equal(t, 380.0, DefaultShape.Wavelength(0))
	assert.Equal(t, 780.0, DefaultShape.Wavelength(80))
	assert.Equal(t, 0, Shape{First: 10, Last: 0, Step: 1}.Len())
}

func TestInterpolate(t *testing.T) {
	shape := Shape{First: 400, Last: 420, Step: 5}
	s := Interpolate([]float64{420, 400, 410}, []float64{3, 1, 2}, shape)

	assert.Equal(t, []float64{1, 1.5, 2, 2.5, 3}, s.Values)

	// 源范围之外为 0
	wide := Interpolate([]float64{400, 410}, []float64{1, 1}, Shape{First: 390, Last: 420, Step: 10})
	assert.Equal(t, []float64{0, 1, 1, 0}, wide.Values)
}

func TestSpectrumOps(t *testing.T) {
	shape := Shape{First: 400, Last: 410, Step: 5}
	a := Spectrum{Shape: shape, Values: []float64{1, 2, 3}}
	b := Spectrum{Shape: shape, Values: []float64{2, 2, 2}}

	assert.Equal(t, []float64{2, 4, 6}, a.Mul(b).Values)
	assert.Equal(t, []float64{0.5, 1, 1.5}, a.Scale(0.5).Values)
	assert.Equal(t, 6.0, a.Integrate())
	assert.Equal(t, 12.0, Dot(a, b))

	// 原值不变
	assert.Equal(t, []float64{1, 2, 3}, a.Values)

	r := a.Resample(Shape{First: 400, Last: 410, Step: 2.5})
	assert.Equal(t, []float64{1, 1.5, 2, 2.5, 3}, r.Values)
	assert.True(t, r.IsFinite())
}

const sampleJSON = `{
    "header": {
        "manufacturer": "Canon",
        "model": "EOS R",
        "schema_version": 1,
        "license": "CC0"
    },
    "spectral_data": {
        "units": "relative",
        "index": {"main": ["R", "G", "B"]},
        "data": {"main": {
            "380": [0.1, 0.2, 0.3],
            "580": [0.5, 0.6, 0.7],
            "780": [0.9, 1.0, 1.1]
        }}
    }
}`

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, "Canon", d.Header.Manufacturer)
	assert.Equal(t, "EOS R", d.Header.Model)
	assert.Equal(t, "1", d.Header.SchemaVersion)
	assert.Equal(t, "CC0", d.Header.Extra["license"])
	assert.Equal(t, "relative", d.Units)
	assert.Equal(t, []string{"R", "G", "B"}, d.Index)
	require.NoError(t, d.Expect(3))
	assert.Error(t, d.Expect(1))

	g, ok := d.Channel("g")
	require.True(t, ok)
	require.Len(t, g.Values, 81)
	assert.InDelta(t, 0.2, g.Values[0], 1e-12)
	assert.InDelta(t, 0.6, g.Values[40], 1e-12)
	assert.InDelta(t, 0.4, g.Values[20], 1e-12)
	assert.InDelta(t, 1.0, g.Values[80], 1e-12)

	_, ok = d.Channel("X")
	assert.False(t, ok)
	assert.True(t, d.IsFinite())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "no channels",
			doc:  `{"spectral_data": {"index": {"main": []}, "data": {"main": {"380": []}}}}`,
			want: ErrNoChannels,
		},
		{
			name: "no samples",
			doc:  `{"spectral_data": {"index": {"main": ["power"]}, "data": {}}}`,
			want: ErrNoSamples,
		},
		{
			name: "channel count",
			doc:  `{"spectral_data": {"index": {"main": ["power"]}, "data": {"main": {"380": [1, 2]}}}}`,
			want: ErrChannelCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Parse(strings.NewReader(`{"spectral_data": {"index": {"main": ["p"]}, "data": {"main": {"abc": [1]}}}}`))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestDaylightCCT(t *testing.T) {
	v, err := DaylightCCT(65)
	require.NoError(t, err)
	assert.InDelta(t, 6503.504, v, 1e-3)

	v, err = DaylightCCT(4000)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, v)

	v, err = DaylightCCT(250)
	require.NoError(t, err)
	assert.InDelta(t, 25013.477, v, 1e-3)

	for _, n := range []int{39, 251, 3999, 25001} {
		_, err := DaylightCCT(n)
		assert.ErrorIs(t, err, ErrDaylightRange, "n=%d", n)
	}
}

func TestValidateBlackbody(t *testing.T) {
	assert.NoError(t, ValidateBlackbody(1500))
	assert.NoError(t, ValidateBlackbody(3999))
	assert.ErrorIs(t, ValidateBlackbody(1499), ErrBlackbodyRange)
	assert.ErrorIs(t, ValidateBlackbody(4000), ErrBlackbodyRange)
	assert.Equal(t, "The range of Color Temperature for BlackBody should be from 1500 to 3999.", ErrBlackbodyRange.Error())
	assert.Equal(t, "The range of Correlated Color Temperature for Day Light should be from 4000 to 25000.", ErrDaylightRange.Error())
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func TestBlackbody(t *testing.T) {
	s := Blackbody(5000, DefaultShape)
	require.Len(t, s.Values, 81)
	assert.True(t, s.IsFinite())

	// 维恩位移定律：峰值约 579.6nm
	assert.InDelta(t, 580.0, DefaultShape.Wavelength(argmax(s.Values)), 5)

	// 低色温在可见光范围内单调递增
	low := Blackbody(2000, DefaultShape)
	for i := 1; i < len(low.Values); i++ {
		assert.Greater(t, low.Values[i], low.Values[i-1])
	}
}

func TestDaylight(t *testing.T) {
	for _, temp := range []float64{4000, 5003, 6504, 10000, 25000} {
		s := Daylight(temp, DefaultShape)
		require.Len(t, s.Values, 81)
		// 560nm 处 S1 = S2 = 0
		assert.InDelta(t, 100.0, s.Values[36], 1e-9, "cct %v", temp)
	}

	d65 := Daylight(6504, DefaultShape)
	assert.InDelta(t, 109.35, d65.Values[24], 0.1) // 500nm

	data := DaylightData("d65", 6504)
	assert.Equal(t, "d65", data.Header.Type)
	require.NoError(t, data.Expect(1))
}
