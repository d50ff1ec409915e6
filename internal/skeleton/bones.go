// Package skeleton computes bone matrices from BMD bind poses and keys.
package skeleton

import (
	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/mathutil"
)

// Pose holds per-bone matrices indexed like Model.Bones. Dummy bones keep
// the identity.
type Pose struct {
	Local []mathutil.Mat4
	World []mathutil.Mat4
}

// LocalMatrix builds a bone transform from a position and an Euler XYZ
// rotation in radians.
func LocalMatrix(pos, rot [3]float64) mathutil.Mat4 {
	q := mathutil.EulerToQuat(rot[0], rot[1], rot[2])
	return mathutil.FromMat3Translation(mathutil.QuatToMat3(q), mathutil.Vec3(pos))
}

// BindPose computes the pose of the bind keys (action 0, key 0).
func BindPose(bones []bmd.Bone) Pose {
	return buildPose(bones, func(b *bmd.Bone) mathutil.Mat4 {
		return LocalMatrix(b.BindPosition, b.BindRotation)
	})
}

// KeyPose computes the pose at one key of an action. Bones without that key
// fall back to their bind transform.
func KeyPose(bones []bmd.Bone, action, key int) Pose {
	return buildPose(bones, func(b *bmd.Bone) mathutil.Mat4 {
		if action < 0 || action >= len(b.Actions) {
			return LocalMatrix(b.BindPosition, b.BindRotation)
		}
		keys := b.Actions[action]
		if key < 0 || key >= len(keys.Positions) || key >= len(keys.Rotations) {
			return LocalMatrix(b.BindPosition, b.BindRotation)
		}
		return LocalMatrix(vec64(keys.Positions[key]), vec64(keys.Rotations[key]))
	})
}

func buildPose(bones []bmd.Bone, local func(*bmd.Bone) mathutil.Mat4) Pose {
	p := Pose{
		Local: make([]mathutil.Mat4, len(bones)),
		World: make([]mathutil.Mat4, len(bones)),
	}
	for i := range bones {
		p.Local[i] = mathutil.Mat4Identity()
		p.World[i] = mathutil.Mat4Identity()
	}

	for i := range bones {
		bone := &bones[i]
		if bone.IsDummy {
			continue
		}
		p.Local[i] = local(bone)

		// Parents always precede their children in BMD files.
		if bone.Parent >= 0 && bone.Parent < i {
			p.World[i] = mathutil.Mat4Mul(p.World[bone.Parent], p.Local[i])
		} else {
			p.World[i] = p.Local[i]
		}
	}
	return p
}

// IsIdentity reports whether every world matrix is the identity.
func (p Pose) IsIdentity() bool {
	for _, w := range p.World {
		if !w.IsIdentity() {
			return false
		}
	}
	return true
}

// InverseBind returns the inverse world matrix of bone i, mapping model space
// to bone space.
func (p Pose) InverseBind(i int) mathutil.Mat4 {
	if i < 0 || i >= len(p.World) {
		return mathutil.Mat4Identity()
	}
	return p.World[i].Inverse()
}

// Point moves v from bone i's space to model space. Out-of-range bones leave
// the point unchanged.
func (p Pose) Point(i int, v [3]float32) [3]float32 {
	if i < 0 || i >= len(p.World) {
		return v
	}
	return p.World[i].MulPoint(mathutil.Vec3From32(v)).Float32()
}

// Dir rotates a normal from bone i's space to model space and normalizes it.
func (p Pose) Dir(i int, n [3]float32) [3]float32 {
	d := mathutil.Vec3From32(n)
	if i >= 0 && i < len(p.World) {
		d = p.World[i].MulDir(d)
	}
	return d.Normalize().Float32()
}

// ApplyTransforms moves mesh vertices and normals in place from bone space
// to model space using the bind pose.
func ApplyTransforms(meshes []bmd.Mesh, bones []bmd.Bone) Pose {
	pose := BindPose(bones)
	if pose.IsIdentity() {
		return pose
	}

	for mi := range meshes {
		mesh := &meshes[mi]
		for vi := range mesh.Verts {
			if vi < len(mesh.Nodes) {
				mesh.Verts[vi] = pose.Point(int(mesh.Nodes[vi]), mesh.Verts[vi])
			}
		}
		for ni := range mesh.Normals {
			if ni < len(mesh.NormalNodes) {
				mesh.Normals[ni] = pose.Dir(int(mesh.NormalNodes[ni]), mesh.Normals[ni])
			}
		}
	}
	return pose
}

func vec64(v [3]float32) [3]float64 {
	return [3]float64{float64(v[0]), float64(v[1]), float64(v[2])}
}
