package rig

import (
	"math"

	"mu-bmd-collada/internal/mathutil"
	"mu-bmd-collada/internal/scene"
)

// Lighting holds the renderer's reference light setup in view space.
type Lighting struct {
	MainDir mathutil.Vec3
	RimDir  mathutil.Vec3
	Ambient float64
	Direct  float64
	Rim     float64
}

// DefaultLighting returns the renderer's standard key, rim and ambient terms.
func DefaultLighting() Lighting {
	return Lighting{
		MainDir: mathutil.Vec3{180, 260, 140}.Normalize(),
		RimDir:  mathutil.Vec3{-160, 130, -210}.Normalize(),
		Ambient: 0.55,
		Direct:  1.50,
		Rim:     0.60,
	}
}

// Bounds is an axis-aligned box.
type Bounds struct {
	Min, Max mathutil.Vec3
	valid    bool
}

// Add grows the box to contain p.
func (b *Bounds) Add(p [3]float32) {
	v := mathutil.Vec3From32(p)
	if !b.valid {
		b.Min, b.Max, b.valid = v, v, true
		return
	}
	for k := 0; k < 3; k++ {
		b.Min[k] = math.Min(b.Min[k], v[k])
		b.Max[k] = math.Max(b.Max[k], v[k])
	}
}

// Empty reports whether no point was added.
func (b Bounds) Empty() bool {
	return !b.valid
}

// Center returns the box center.
func (b Bounds) Center() mathutil.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Radius returns half the box diagonal, at least 1.
func (b Bounds) Radius() float64 {
	return math.Max(b.Max.Sub(b.Min).Len()/2, 1)
}

// Rig lists the nodes added by Add.
type Rig struct {
	Group   scene.NodeID
	Camera  scene.NodeID
	Key     scene.NodeID
	Rim     scene.NodeID
	Ambient scene.NodeID
}

// Add attaches a "Preview" group under parent holding a camera that frames
// b from the view rotation and the renderer's lights. fovDeg is the
// horizontal field of view. A mirrored view is approximated by its
// unmirrored rotation.
func Add(sc *scene.Scene, parent scene.NodeID, b Bounds, view mathutil.Mat3, fovDeg float64, light Lighting) Rig {
	if view.Det() < 0 {
		view = mathutil.Mat3Mul(mathutil.MirrorX, view)
	}
	toModel := view.Transpose()

	center := b.Center()
	radius := b.Radius()
	fov := mathutil.Deg2Rad(fovDeg)
	dist := radius / math.Sin(fov/2)

	r := Rig{Group: sc.AddNode(parent, "Preview", scene.Identity())}

	cam := scene.NewCamera("PreviewCamera")
	cam.HorizontalFOV = float32(fov)
	cam.Aspect = 1
	cam.Near = float32(dist * 0.01)
	cam.Far = float32(dist + radius*4)
	sc.Cameras = append(sc.Cameras, cam)

	camPos := center.Add(toModel.MulVec3(mathutil.Vec3{0, 0, dist}))
	r.Camera = sc.AddNode(r.Group, "PreviewCamera", mathutil.FromMat3Translation(toModel, camPos).Float32())
	sc.Node(r.Camera).Cameras = []int{len(sc.Cameras) - 1}

	r.Key = addDirectional(sc, r.Group, "KeyLight", toModel.MulVec3(light.MainDir), center, dist, light.Direct)
	r.Rim = addDirectional(sc, r.Group, "RimLight", toModel.MulVec3(light.RimDir), center, dist, light.Rim)

	amb := float32(light.Ambient)
	sc.Lights = append(sc.Lights, &scene.Light{
		Name:    "AmbientLight",
		Type:    scene.LightAmbient,
		Diffuse: scene.RGB{R: amb, G: amb, B: amb},
		Ambient: scene.RGB{R: amb, G: amb, B: amb},
	})
	r.Ambient = sc.AddNode(r.Group, "AmbientLight", scene.Identity())
	sc.Node(r.Ambient).Lights = []int{len(sc.Lights) - 1}
	return r
}

// addDirectional places a directional light whose node +Z points at the
// light, so it shines along -Z towards center.
func addDirectional(sc *scene.Scene, parent scene.NodeID, name string, toLight, center mathutil.Vec3, dist, intensity float64) scene.NodeID {
	c := float32(intensity)
	sc.Lights = append(sc.Lights, &scene.Light{
		Name:                name,
		Type:                scene.LightDirectional,
		Diffuse:             scene.RGB{R: c, G: c, B: c},
		AttenuationConstant: 1,
	})
	basis := facing(toLight.Normalize())
	pos := center.Add(toLight.Normalize().Scale(dist))
	id := sc.AddNode(parent, name, mathutil.FromMat3Translation(basis, pos).Float32())
	sc.Node(id).Lights = []int{len(sc.Lights) - 1}
	return id
}

// facing returns a rotation whose third column is z.
func facing(z mathutil.Vec3) mathutil.Mat3 {
	up := mathutil.Vec3{0, 1, 0}
	if math.Abs(z.Dot(up)) > 0.999 {
		up = mathutil.Vec3{1, 0, 0}
	}
	x := up.Cross(z).Normalize()
	y := z.Cross(x)
	return mathutil.Mat3{
		x[0], y[0], z[0],
		x[1], y[1], z[1],
		x[2], y[2], z[2],
	}
}
