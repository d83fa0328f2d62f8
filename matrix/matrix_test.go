package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplyIdentity(t *testing.T) {
	m := Matrix3x3{1, 2, 3, 4, 5, 6, 7, 8, 10}
	assert.Equal(t, m, m.Multiply(Identity3x3()))
	assert.Equal(t, m, Identity3x3().Multiply(m))
}

func TestInverse(t *testing.T) {
	m := Matrix3x3{2, 0, 1, 1, 3, 2, 1, 1, 2}
	require.InDelta(t, 3.0, m.Determinant(), 1e-12)
	inv, err := m.Inverse()
	require.NoError(t, err)

	got := m.Multiply(inv)
	want := Identity3x3()
	for i := range got {
		assert.InDelta(t, want[i], got[i], 1e-12, "element %d", i)
	}
}

func TestInverseSingular(t *testing.T) {
	_, err := Matrix3x3{1, 2, 3, 2, 4, 6, 0, 0, 1}.Inverse()
	assert.Error(t, err)
}

func TestApplyAndTranspose(t *testing.T) {
	m := Matrix3x3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, Vector3{6, 15, 24}, m.Apply(Vector3{1, 1, 1}))
	assert.Equal(t, Matrix3x3{1, 4, 7, 2, 5, 8, 3, 6, 9}, m.Transpose())
	assert.Equal(t, m, FromRows(m.Rows()))
	assert.Equal(t, m, FromDense(m.Dense()))
}

func TestFromSlice(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3})
	assert.Error(t, err)

	m, err := FromSlice([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, Identity3x3(), m)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Identity3x3().IsFinite())
	m := Identity3x3()
	m[4] = math.NaN()
	assert.False(t, m.IsFinite())
}

func TestVectorHelpers(t *testing.T) {
	v := Vector3{2, 4, 8}
	assert.Equal(t, Vector3{0.5, 1, 2}, v.NormalizeY())
	assert.Equal(t, 2.0, v.Min())
	assert.Equal(t, 8.0, v.Max())
	assert.Equal(t, Vector3{0.5, 0.25, 0.125}, v.Invert())
	assert.Equal(t, Vector3{1, 2, 0}, VectorFromSlice([]float64{1, 2}))
}
