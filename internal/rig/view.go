// Package rig adds a preview camera and lights that reproduce the item
// renderer's reference view.
package rig

import (
	"mu-bmd-collada/internal/mathutil"
	"mu-bmd-collada/internal/trs"
)

// Camera overrides accepted in custom TRS entries.
const (
	CameraNoflip     = "noflip"
	CameraCorrection = "correction"
	CameraFallback   = "fallback"
)

// ViewMatrix builds the model-to-view rotation for a TRS entry, routing by
// rotY: items near 270° go through the client correction, items near 90°
// use the BMD-viewer camera, the rest the unflipped camera. A nil entry
// uses the BMD-viewer camera.
func ViewMatrix(e *trs.Entry) mathutil.Mat3 {
	if e == nil {
		return mathutil.ViewFallback
	}
	trsRot := e.Rotation()

	switch e.Camera {
	case CameraNoflip:
		return mathutil.Mat3Mul(mathutil.NoflipCam, trsRot)
	case CameraCorrection:
		return mathutil.Mat3Mul(mathutil.TRSCorrection, trsRot)
	case CameraFallback:
		return mathutil.ViewFallback
	}

	switch {
	case mathutil.AngleDist(e.Rot[1], 270) <= 45:
		return mathutil.Mat3Mul(mathutil.TRSCorrection, trsRot)
	case mathutil.AngleDist(e.Rot[1], 90) <= 45:
		return mathutil.ViewFallback
	}
	return mathutil.Mat3Mul(mathutil.NoflipCam, trsRot)
}

// IsFallbackPath reports whether e routes to the BMD-viewer camera.
func IsFallbackPath(e *trs.Entry) bool {
	if e == nil || e.Camera == CameraFallback {
		return true
	}
	if e.Camera != "" {
		return false
	}
	return mathutil.AngleDist(e.Rot[1], 90) <= 45 && mathutil.AngleDist(e.Rot[1], 270) > 45
}

// UseBones reports whether bind-pose bone transforms should be applied to
// the vertices. Binary TRS records are calibrated for the raw mesh, except
// the ones that route to the BMD-viewer camera.
func UseBones(e *trs.Entry) bool {
	if e == nil {
		return true
	}
	if e.UseBones != nil {
		return *e.UseBones
	}
	if e.Source == trs.SourceBinary {
		return IsFallbackPath(e)
	}
	return true
}
