package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertMat4(t *testing.T, want, got Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "element %d", i)
	}
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := Compose(Vec3{1, -2, 3}, EulerToQuat(0.3, -0.7, 1.1), Vec3{2, 2, 2})
	assertMat4(t, Mat4Identity(), Mat4Mul(m, m.Inverse()))
}

func TestMat4InverseSingular(t *testing.T) {
	assert.Equal(t, Mat4Identity(), Mat4{}.Inverse())
}

func TestComposeDecompose(t *testing.T) {
	q := EulerToQuat(0, 0, math.Pi/2)
	m := Compose(Vec3{4, 5, 6}, q, Vec3{1, 2, 3})

	scale, rot, trans := m.Decompose()
	assert.InDeltaSlice(t, []float64{1, 2, 3}, scale[:], 1e-9)
	assert.InDeltaSlice(t, []float64{4, 5, 6}, trans[:], 1e-9)
	assert.True(t, rot.Equal(QuatToMat3(q), 1e-9))
}

func TestDecomposeMirror(t *testing.T) {
	m := FromMat3Translation(Mat3Diag(-1, 1, 1), Vec3{})
	scale, _, _ := m.Decompose()
	assert.InDeltaSlice(t, []float64{-1, -1, -1}, scale[:], 1e-9)
}

func TestLookAtDefaultView(t *testing.T) {
	m := LookAt(Vec3{}, Vec3{0, 1, 0}, Vec3{0, 0, -1})
	assert.InDeltaSlice(t, []float64{-1, 0, 0}, []float64{m[0], m[1], m[2]}, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, -1}, []float64{m[8], m[9], m[10]}, 1e-9)
}

func TestLookAtTranslation(t *testing.T) {
	pos := Vec3{0, 0, 10}
	m := LookAt(pos, Vec3{0, 1, 0}, Vec3{0, 0, -1})
	p := m.MulPoint(pos)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, p[:], 1e-9)
}

func TestEulerToQuatIdentity(t *testing.T) {
	q := EulerToQuat(0, 0, 0)
	assert.Equal(t, QuatIdentity(), q)
	assert.True(t, QuatToMat3(q).Equal(Mat3Identity(), 0))
}

func TestEulerMatchesAxisRotations(t *testing.T) {
	q := EulerToQuat(0.4, 0, 0)
	assert.True(t, QuatToMat3(q).Equal(RotX(0.4), 1e-9))
	q = EulerToQuat(0, 0, -1.2)
	assert.True(t, QuatToMat3(q).Equal(RotZ(-1.2), 1e-9))
}

func TestEulerZYXDegMatchesQuat(t *testing.T) {
	m := EulerZYXDeg(30, -45, 120)
	q := EulerToQuat(Deg2Rad(30), Deg2Rad(-45), Deg2Rad(120))
	assert.True(t, m.Equal(QuatToMat3(q), 1e-9))

	v := EulerZYXDeg(0, 90, 0).MulVec3(Vec3{1, 0, 0})
	assert.InDelta(t, -1, v[2], 1e-9)
}

func TestQuatNormalize(t *testing.T) {
	assert.Equal(t, QuatIdentity(), Quat{}.Normalize())
	q := Quat{0, 0, 0, 2}.Normalize()
	assert.Equal(t, QuatIdentity(), q)
}

func TestFloat32Conversions(t *testing.T) {
	m := Compose(Vec3{1, 2, 3}, QuatIdentity(), Vec3{1, 1, 1})
	back := Mat4From32(m.Float32())
	assertMat4(t, m, back)
	assert.Equal(t, [3]float32{1, 2, 3}, Vec3From32([3]float32{1, 2, 3}).Float32())
}

func TestAngleDist(t *testing.T) {
	assert.InDelta(t, 10, AngleDist(355, 5), 1e-9)
	assert.InDelta(t, 180, AngleDist(0, 180), 1e-9)
	assert.InDelta(t, 0, AngleDist(-90, 270), 1e-9)
}

func TestUpAxisMatricesAreRotations(t *testing.T) {
	for _, m := range []Mat3{UpAxisX, UpAxisY, UpAxisZ} {
		assert.InDelta(t, 1, m.Det(), 1e-9)
		assert.True(t, Mat3Mul(m, m.Transpose()).Equal(Mat3Identity(), 1e-9))
	}
	// the viewer cameras include the handedness mirror
	assert.InDelta(t, -1, ViewFallback.Det(), 1e-9)
	assert.InDelta(t, -1, TRSCorrection.Det(), 1e-9)
}
