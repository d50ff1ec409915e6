package mathutil

import "math"

// Reference orientation matrices shared by the preview rig.
var (
	// ModelFlip converts Z-up (DirectX) to Y-up (OpenGL): Rx(-90°)
	ModelFlip = RotX(math.Pi / -2)

	// MirrorX converts left-handed to right-handed: diag(-1, 1, 1)
	MirrorX = Mat3Diag(-1, 1, 1)

	// ViewFallback is the BMD-viewer reference camera matrix.
	// MIRROR_X @ Rx(-15°) @ Ry(12°) @ MODEL_FLIP
	ViewFallback = Mat3Mul(Mat3Mul(Mat3Mul(MirrorX, RotX(Deg2Rad(-15))), RotY(Deg2Rad(12))), ModelFlip)

	// TRSDefault is the default weapon TRS rotation: Rz(15°) @ Ry(270°) @ Rx(180°)
	TRSDefault = Mat3Mul(Mat3Mul(RotZ(Deg2Rad(15)), RotY(Deg2Rad(270))), RotX(Deg2Rad(180)))

	// TRSCorrection maps game-client TRS rotations to the BMD-viewer view.
	// CORRECTION = VIEW_FALLBACK @ inv(TRS_DEFAULT)
	TRSCorrection = Mat3Mul(ViewFallback, TRSDefault.Inverse())

	// NoflipCam is used for items the correction turns edge-on.
	// MIRROR_X @ Rx(-15°)
	NoflipCam = Mat3Mul(MirrorX, RotX(Deg2Rad(-15)))

	// UpAxisX, UpAxisY and UpAxisZ are the root rotations that map onto the
	// X_UP, Y_UP and Z_UP document conventions.
	UpAxisX = Mat3{0, -1, 0, 1, 0, 0, 0, 0, 1}
	UpAxisY = Mat3Identity()
	UpAxisZ = Mat3{1, 0, 0, 0, 0, 1, 0, -1, 0}
)

// Epsilon is the tolerance used by the approximate comparisons in this package.
const Epsilon = 1e-6

// AngleDist returns the shortest angular distance between two angles in degrees (0–180).
func AngleDist(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d < 0 {
		d += 360
	}
	if d > 180 {
		return 360 - d
	}
	return d
}
