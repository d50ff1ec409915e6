package rig

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-collada/internal/mathutil"
	"mu-bmd-collada/internal/scene"
	"mu-bmd-collada/internal/trs"
)

func boolPtr(b bool) *bool { return &b }

func TestViewMatrixRouting(t *testing.T) {
	assert.Equal(t, mathutil.ViewFallback, ViewMatrix(nil))

	e := &trs.Entry{Rot: [3]float64{180, 270, 15}}
	assert.Equal(t, mathutil.Mat3Mul(mathutil.TRSCorrection, e.Rotation()), ViewMatrix(e))

	e = &trs.Entry{Rot: [3]float64{0, 100, 0}}
	assert.Equal(t, mathutil.ViewFallback, ViewMatrix(e))

	e = &trs.Entry{Rot: [3]float64{10, 0, 0}}
	assert.Equal(t, mathutil.Mat3Mul(mathutil.NoflipCam, e.Rotation()), ViewMatrix(e))

	e = &trs.Entry{Rot: [3]float64{0, 90, 0}, Camera: CameraNoflip}
	assert.Equal(t, mathutil.Mat3Mul(mathutil.NoflipCam, e.Rotation()), ViewMatrix(e))

	e = &trs.Entry{Camera: CameraFallback}
	assert.Equal(t, mathutil.ViewFallback, ViewMatrix(e))
}

func TestUseBones(t *testing.T) {
	assert.True(t, UseBones(nil))
	assert.False(t, UseBones(&trs.Entry{UseBones: boolPtr(false)}))
	assert.True(t, UseBones(&trs.Entry{Source: trs.SourceCustom}))
	assert.False(t, UseBones(&trs.Entry{Source: trs.SourceBinary, Rot: [3]float64{0, 270, 0}}))
	assert.True(t, UseBones(&trs.Entry{Source: trs.SourceBinary, Rot: [3]float64{0, 80, 0}}))
	assert.False(t, UseBones(&trs.Entry{Source: trs.SourceBinary, Rot: [3]float64{0, 80, 0}, Camera: CameraNoflip}))
}

func TestBounds(t *testing.T) {
	var b Bounds
	assert.True(t, b.Empty())
	assert.Equal(t, 1.0, b.Radius())

	b.Add([3]float32{1, 2, 3})
	b.Add([3]float32{-1, 0, 3})
	assert.False(t, b.Empty())
	assert.Equal(t, mathutil.Vec3{0, 1, 3}, b.Center())
	assert.InDelta(t, math.Sqrt(8)/2, b.Radius(), 1e-9)
}

func cube() Bounds {
	var b Bounds
	b.Add([3]float32{-1, -1, -1})
	b.Add([3]float32{1, 1, 1})
	return b
}

func translation(m scene.Mat4) mathutil.Vec3 {
	return mathutil.Vec3{float64(m[3]), float64(m[7]), float64(m[11])}
}

func TestAddFramesBounds(t *testing.T) {
	sc := scene.New()
	root := sc.AddNode(scene.NoNode, "Model", scene.Identity())
	r := Add(sc, root, cube(), mathutil.Mat3Identity(), 90, DefaultLighting())

	require.Len(t, sc.Cameras, 1)
	require.Len(t, sc.Lights, 3)
	assert.Equal(t, []scene.NodeID{r.Group}, sc.Node(root).Children)
	assert.Len(t, sc.Node(r.Group).Children, 4)

	dist := math.Sqrt(3) / math.Sin(math.Pi/4)
	cam := sc.Node(r.Camera)
	assert.Equal(t, []int{0}, cam.Cameras)
	pos := translation(cam.Transform)
	assert.InDelta(t, 0, pos[0], 1e-5)
	assert.InDelta(t, 0, pos[1], 1e-5)
	assert.InDelta(t, dist, pos[2], 1e-5)
	assert.InDelta(t, math.Pi/2, sc.Cameras[0].HorizontalFOV, 1e-6)
	assert.Equal(t, float32(1), sc.Cameras[0].Aspect)

	key := sc.Node(r.Key)
	m := mathutil.Mat4From32(key.Transform)
	z := m.MulDir(mathutil.Vec3{0, 0, 1})
	want := DefaultLighting().MainDir
	for k := 0; k < 3; k++ {
		assert.InDelta(t, want[k], z[k], 1e-5)
	}
	assert.Equal(t, scene.LightDirectional, sc.Lights[sc.Node(r.Key).Lights[0]].Type)
	assert.InDelta(t, 1.5, sc.Lights[sc.Node(r.Key).Lights[0]].Diffuse.R, 1e-6)
	assert.InDelta(t, 0.6, sc.Lights[sc.Node(r.Rim).Lights[0]].Diffuse.G, 1e-6)
	assert.Equal(t, scene.LightAmbient, sc.Lights[sc.Node(r.Ambient).Lights[0]].Type)
}

func TestAddRotatedView(t *testing.T) {
	sc := scene.New()
	root := sc.AddNode(scene.NoNode, "Model", scene.Identity())
	// View rotated 90° about Y: model +X faces the viewer.
	view := mathutil.RotY(-math.Pi / 2)
	r := Add(sc, root, cube(), view, 60, DefaultLighting())

	pos := translation(sc.Node(r.Camera).Transform)
	assert.Greater(t, pos[0], 1.0)
	assert.InDelta(t, 0, pos[2], 1e-4)
}

func TestAddMirroredViewIsProper(t *testing.T) {
	sc := scene.New()
	root := sc.AddNode(scene.NoNode, "Model", scene.Identity())
	r := Add(sc, root, cube(), mathutil.ViewFallback, 75, DefaultLighting())

	_, rot, _ := mathutil.Mat4From32(sc.Node(r.Camera).Transform).Decompose()
	assert.InDelta(t, 1, rot.Det(), 1e-5)
}

func TestFacingIsRotation(t *testing.T) {
	for _, z := range []mathutil.Vec3{{0, 0, 1}, {0, 1, 0}, {0, -1, 0}, mathutil.Vec3{1, 2, 3}.Normalize()} {
		m := facing(z)
		assert.InDelta(t, 1, m.Det(), 1e-9)
		assert.True(t, mathutil.Mat3Mul(m, m.Transpose()).Equal(mathutil.Mat3Identity(), 1e-9))
		col := mathutil.Vec3{m[2], m[5], m[8]}
		assert.InDelta(t, 1, col.Dot(z), 1e-9)
	}
}
