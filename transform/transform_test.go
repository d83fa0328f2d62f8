package transform

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaming/idt-go/logx"
	"github.com/weaming/idt-go/solver"
	"github.com/weaming/idt-go/spectral"
	"github.com/weaming/idt-go/spectral/spectraltest"
)

func quiet(fx *spectraltest.Fixture) Settings {
	return Settings{DatabaseDirs: fx.Dirs(), Logger: logx.Discard()}
}

func verbose(fx *spectraltest.Fixture) (Settings, *bytes.Buffer) {
	var buf bytes.Buffer
	return Settings{DatabaseDirs: fx.Dirs(), Verbosity: 1, Logger: logx.New(&buf, 1)}, &buf
}

func TestKeyStrings(t *testing.T) {
	assert.Equal(t, "Canon, EOS R, d55", CameraIlluminantKey{"Canon", "EOS R", "d55"}.String())
	assert.Equal(t, "Canon, EOS R, (1.5, 1, 1.25)", CameraWBKey{"Canon", "EOS R", [3]float64{1.5, 1, 1.25}}.String())
}

func TestCacheSet(t *testing.T) {
	cs := NewCacheSet()
	assert.Equal(t, "WB from illuminant", cs.WBFromIlluminant.Name)
	assert.Equal(t, "illuminant from WB", cs.IlluminantFromWB.Name)
	assert.Equal(t, "matrix from illuminant", cs.MatrixFromIlluminant.Name)
	assert.Equal(t, "matrix from DNG metadata", cs.MatrixFromMetadata.Name)

	cs.SetCapacity(3)
	assert.Equal(t, 3, cs.MatrixFromMetadata.Capacity)
	cs.SetCapacity(0)
	assert.Equal(t, 3, cs.WBFromIlluminant.Capacity)
	assert.Contains(t, cs.String(), "matrix from illuminant: 0")
}

func TestMatrixFromIlluminantMatchesDirect(t *testing.T) {
	fx := spectraltest.New(t).Standard("Test", "Camera")
	cs := NewCacheSet()

	idt, err := MatrixFromIlluminant(cs, quiet(fx), "Test", "Camera", "d65")
	require.NoError(t, err)

	s := solver.NewSpectralSolver(fx.Dirs(), solver.WithLogger(logx.Discard()))
	require.True(t, s.FindCamera("Test", "Camera"))
	require.True(t, s.LoadTrainingData(spectral.TrainingFile))
	require.True(t, s.LoadObserver(spectral.ObserverFile))
	require.True(t, s.FindIlluminant("d65"))
	require.True(t, s.CalculateWB())
	require.True(t, s.CalculateIDTMatrix())
	assert.Equal(t, s.IDTMatrix(), idt)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, idt.Row(i).Sum(), 0.1)
	}

	cached, err := MatrixFromIlluminant(cs, quiet(fx), "Test", "Camera", "d65")
	require.NoError(t, err)
	assert.Equal(t, idt, cached)
	assert.Equal(t, 1, cs.MatrixFromIlluminant.Len())

	settings := quiet(fx)
	settings.DisableCache = true
	uncached, err := MatrixFromIlluminant(cs, settings, "Test", "Camera", "d65")
	require.NoError(t, err)
	assert.Equal(t, idt, uncached)
	assert.Equal(t, 0, cs.MatrixFromIlluminant.Len())
}

func TestMultipliersFromIlluminant(t *testing.T) {
	fx := spectraltest.New(t).WithCamera("Test", "Camera")
	cs := NewCacheSet()
	settings, buf := verbose(fx)

	wb, err := MultipliersFromIlluminant(cs, settings, "Test", "Camera", "d65")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, wb[1], 1e-15)
	assert.InDelta(t, 1.2922, wb[0], 1e-3)
	assert.Contains(t, buf.String(), "Cache (WB from illuminant): searching for an entry [Test, Camera, d65].")
	assert.Contains(t, buf.String(), "Cache (WB from illuminant): not found. Calculating a new entry.")
	assert.Contains(t, buf.String(), "White balance coefficients:")

	buf.Reset()
	again, err := MultipliersFromIlluminant(cs, settings, "Test", "Camera", "d65")
	require.NoError(t, err)
	assert.Equal(t, wb, again)
	assert.Contains(t, buf.String(), "Cache (WB from illuminant): found in cache!")
}

func TestIlluminantFromMultipliers(t *testing.T) {
	fx := spectraltest.New(t).WithCamera("Test", "Camera")
	cs := NewCacheSet()

	wb, err := MultipliersFromIlluminant(cs, quiet(fx), "Test", "Camera", "3500k")
	require.NoError(t, err)

	settings, buf := verbose(fx)
	name, err := IlluminantFromMultipliers(cs, settings, "Test", "Camera", wb)
	require.NoError(t, err)
	assert.Equal(t, "3500k", name)
	assert.Contains(t, buf.String(), "Found illuminant: '3500k'.")
	assert.Equal(t, 1, cs.IlluminantFromWB.Len())
}

func TestCachedFailureReplaysGenericError(t *testing.T) {
	fx := spectraltest.New(t)
	cs := NewCacheSet()

	_, err := MultipliersFromIlluminant(cs, quiet(fx), "Missing", "Camera", "d65")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCameraNotFound))
	assert.Equal(t, "Failed to find spectral data for camera make: 'Missing', model: 'Camera'. "+
		"Please check the database search path in RAWTOACES_DATABASE_PATH", err.Error())

	// 失败被缓存，第二次不再求解
	_, err = MultipliersFromIlluminant(cs, quiet(fx), "Missing", "Camera", "d65")
	assert.True(t, errors.Is(err, ErrWBFailed))
	assert.Equal(t, "Failed to calculate white balance multipliers", err.Error())
	assert.Equal(t, 1, cs.WBFromIlluminant.Len())

	_, err = IlluminantFromMultipliers(cs, quiet(fx), "Missing", "Camera", [3]float64{1.5, 1, 1.2})
	assert.True(t, errors.Is(err, ErrCameraNotFound))
	_, err = IlluminantFromMultipliers(cs, quiet(fx), "Missing", "Camera", [3]float64{1.5, 1, 1.2})
	assert.Equal(t, "Failed to find illuminant from white balance multipliers", err.Error())

	_, err = MatrixFromIlluminant(cs, quiet(fx), "Missing", "Camera", "d65")
	assert.True(t, errors.Is(err, ErrCameraNotFound))
	_, err = MatrixFromIlluminant(cs, quiet(fx), "Missing", "Camera", "d65")
	assert.Equal(t, "Failed to calculate IDT matrix from illuminant", err.Error())
}

func TestDisabledCacheKeepsSpecificError(t *testing.T) {
	fx := spectraltest.New(t).WithCamera("Test", "Camera")
	cs := NewCacheSet()
	settings := quiet(fx)
	settings.DisableCache = true

	for i := 0; i < 2; i++ {
		_, err := MultipliersFromIlluminant(cs, settings, "Test", "Camera", "nowhere")
		assert.True(t, errors.Is(err, ErrIlluminantNotFound))
		assert.Equal(t, "Failed to find illuminant type 'nowhere'. "+
			"Please check the database search path in RAWTOACES_DATABASE_PATH", err.Error())
	}
	assert.Equal(t, 0, cs.WBFromIlluminant.Len())
}

func TestMatrixFromIlluminantMissingData(t *testing.T) {
	cs := NewCacheSet()

	fx := spectraltest.New(t).WithCamera("Test", "Camera")
	_, err := MatrixFromIlluminant(cs, quiet(fx), "Test", "Camera", "d65")
	assert.True(t, errors.Is(err, ErrTrainingNotFound))
	assert.Equal(t, "Failed to find training data 'training/training_spectral.json'. "+
		"Please check the database search path in RAWTOACES_DATABASE_PATH", err.Error())

	fx = spectraltest.New(t).WithCamera("Test", "Camera").WithTraining()
	cs.Clear()
	_, err = MatrixFromIlluminant(cs, quiet(fx), "Test", "Camera", "d65")
	assert.True(t, errors.Is(err, ErrObserverNotFound))
	assert.Equal(t, "Failed to find observer 'cmf/cmf_1931.json'. "+
		"Please check the database search path in RAWTOACES_DATABASE_PATH", err.Error())
}

func testMetadata() solver.Metadata {
	identity := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	return solver.Metadata{
		Calibration: [2]solver.Calibration{
			{
				Illuminant:              17,
				CameraCalibrationMatrix: identity,
				XYZToRGBMatrix: []float64{
					1.3119699954986572, -0.49678999185562134, 0.011559999547898769,
					-0.41723001003265381, 1.4423700571060181, 0.045279998332262039,
					0.067230001091957092, 0.21709999442100525, 0.72650998830795288,
				},
			},
			{
				Illuminant:              21,
				CameraCalibrationMatrix: identity,
				XYZToRGBMatrix: []float64{
					1.0088499784469604, -0.27351000905036926, -0.082580000162124634,
					-0.48996999859809875, 1.3444099426269531, 0.11174000054597855,
					-0.064060002565383911, 0.32997000217437744, 0.5391700267791748,
				},
			},
		},
		NeutralRGB:       []float64{0.6289999865031245, 1, 0.79040003045288199},
		BaselineExposure: 2.4,
	}
}

func TestMatrixFromMetadata(t *testing.T) {
	cs := NewCacheSet()
	var buf bytes.Buffer
	settings := Settings{Verbosity: 1, Logger: logx.New(&buf, 1)}

	md := testMetadata()
	idt := MatrixFromMetadata(cs, settings, md)
	want := solver.NewMetadataSolver(md, solver.WithLogger(logx.Discard())).CalculateIDTMatrix()
	assert.Equal(t, want, idt)
	assert.InDelta(t, 1.0536466144, idt[0], 1e-9)
	assert.Contains(t, buf.String(), "Cache (matrix from DNG metadata): searching for an entry [<Metadata>].")
	assert.Contains(t, buf.String(), "Input Device Transform (IDT) matrix:")

	// 内容相同的另一份元数据命中缓存
	buf.Reset()
	assert.Equal(t, idt, MatrixFromMetadata(cs, settings, testMetadata()))
	assert.Contains(t, buf.String(), "found in cache!")
	assert.Equal(t, 1, cs.MatrixFromMetadata.Len())

	// 调用方修改原切片不影响缓存键
	md.NeutralRGB[2] = 0.5
	other := MatrixFromMetadata(cs, settings, md)
	assert.NotEqual(t, idt, other)
	assert.Equal(t, 2, cs.MatrixFromMetadata.Len())
}

func TestPrepareSpectral(t *testing.T) {
	fx := spectraltest.New(t).Standard("Test", "Camera")
	cs := NewCacheSet()

	byName, err := PrepareSpectral(cs, quiet(fx), "Test", "Camera", "d55", nil)
	require.NoError(t, err)
	assert.Equal(t, "d55", byName.Illuminant)
	require.NotNil(t, byName.CAT)
	assert.True(t, byName.CAT.IsFinite())
	assert.InDelta(t, 1.0, byName.WB[1], 1e-15)

	byWB, err := PrepareSpectral(cs, quiet(fx), "Test", "Camera", "", byName.WB[:])
	require.NoError(t, err)
	assert.Equal(t, "d55", byWB.Illuminant)
	assert.Equal(t, byName.IDT, byWB.IDT)
	assert.Equal(t, *byName.CAT, *byWB.CAT)

	_, err = PrepareSpectral(cs, quiet(fx), "Test", "Camera", "", []float64{1, 2})
	assert.Error(t, err)

	_, err = PrepareSpectral(cs, quiet(fx), "Test", "Camera", "d3999", nil)
	assert.True(t, errors.Is(err, ErrIlluminantNotFound))
}

func TestPrepareMetadata(t *testing.T) {
	cs := NewCacheSet()
	md := testMetadata()
	st := PrepareMetadata(cs, Settings{Logger: logx.Discard()}, md)

	assert.InDelta(t, 1/0.6289999865031245, st.WB[0], 1e-12)
	assert.InDelta(t, 1.0, st.WB[1], 1e-15)
	assert.InDelta(t, 1/0.79040003045288199, st.WB[2], 1e-12)
	require.NotNil(t, st.CAT)
	assert.InDelta(t, 0.9907763427, st.CAT[0], 1e-9)
	assert.InDelta(t, 1.0536466144, st.IDT[0], 1e-9)

	md.NeutralRGB = nil
	st = PrepareMetadata(cs, Settings{Logger: logx.Discard()}, md)
	assert.Equal(t, [3]float64{1, 1, 1}, st.WB)
}
