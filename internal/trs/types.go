// Package trs reads per-item display transforms from ItemTRSData.bmd and
// custom_trs.json overrides.
package trs

import (
	"mu-bmd-collada/internal/mathutil"
)

// Entry holds per-item transform data from ItemTRSData.bmd + custom overrides.
// Rotations are Euler angles in degrees.
type Entry struct {
	Pos    [3]float64
	Rot    [3]float64
	Scale  float64
	Source string // "binary" or "custom"

	// Optional overrides from custom_trs.json
	UseBones      *bool   // nil = auto, true/false = forced
	Camera        string  // "", "noflip", "correction", "fallback"
	FOV           float64 // preview camera field of view in degrees
	KeepAllMeshes bool    // keep effect meshes in the export
}

// Data maps (section, index) to an Entry.
type Data map[[2]int]*Entry

// Sources of an entry.
const (
	SourceBinary = "binary"
	SourceCustom = "custom"
)

// DefaultFOV is the default field of view.
const DefaultFOV = 75.0

// Lookup returns the entry for an item, or nil.
func (d Data) Lookup(section, index int) *Entry {
	return d[[2]int{section, index}]
}

// Rotation returns Rz·Ry·Rx of the entry's angles.
func (e *Entry) Rotation() mathutil.Mat3 {
	return mathutil.EulerZYXDeg(e.Rot[0], e.Rot[1], e.Rot[2])
}

// Matrix returns the display transform translation × rotation × scale. A
// zero or negative scale counts as 1.
func (e *Entry) Matrix() mathutil.Mat4 {
	s := e.Scale
	if s <= 0 {
		s = 1
	}
	rs := mathutil.Mat3Mul(e.Rotation(), mathutil.Mat3Diag(s, s, s))
	return mathutil.FromMat3Translation(rs, mathutil.Vec3(e.Pos))
}

// FieldOfView returns the configured FOV or the default.
func (e *Entry) FieldOfView() float64 {
	if e == nil || e.FOV <= 0 {
		return DefaultFOV
	}
	return e.FOV
}
