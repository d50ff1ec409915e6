package convert

import (
	"fmt"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/scene"
	"mu-bmd-collada/internal/texture"
)

// corner identifies one unique vertex of the output mesh. BMD faces index
// positions, normals and UVs separately; -1 marks a missing attribute.
type corner struct {
	v, n, t int16
}

// buildMesh unwelds the corners of bm into shared vertices. Faces with an
// out-of-range position index are dropped. UVs are flipped to a bottom-up
// V axis.
func (c *converter) buildMesh(i int, bm *bmd.Mesh) *scene.Mesh {
	m := &scene.Mesh{Name: meshName(i, bm)}
	m.UVComponents[0] = 2

	index := make(map[corner]uint32)
	var boneOf []int

	for _, tri := range bm.Tris {
		n := tri.Corners()
		face := scene.Face{Indices: make([]uint32, 0, n)}
		for k := 0; k < n; k++ {
			key := corner{v: tri.VI[k], n: tri.NI[k], t: tri.TI[k]}
			if int(key.v) < 0 || int(key.v) >= len(bm.Verts) {
				face.Indices = nil
				break
			}
			if int(key.n) < 0 || int(key.n) >= len(bm.Normals) {
				key.n = -1
			}
			if int(key.t) < 0 || int(key.t) >= len(bm.UVs) {
				key.t = -1
			}

			idx, ok := index[key]
			if !ok {
				idx = uint32(len(m.Positions))
				index[key] = idx
				bone := boneIndex(bm.Nodes, int(key.v))
				m.Positions = append(m.Positions, c.position(bone, bm.Verts[key.v]))
				m.Normals = append(m.Normals, c.normal(bm, int(key.n)))
				m.TexCoords[0] = append(m.TexCoords[0], uv(bm, int(key.t)))
				boneOf = append(boneOf, bone)
			}
			face.Indices = append(face.Indices, idx)
		}
		if len(face.Indices) > 0 {
			m.Faces = append(m.Faces, face)
		}
	}

	m.Bones = c.bindBones(boneOf)
	return m
}

func meshName(i int, bm *bmd.Mesh) string {
	if stem := texture.Stem(bm.TexPath); stem != "" {
		return stem
	}
	return fmt.Sprintf("Mesh%02d", i)
}

func boneIndex(nodes []int16, v int) int {
	if v < 0 || v >= len(nodes) {
		return -1
	}
	return int(nodes[v])
}

func (c *converter) position(bone int, v [3]float32) [3]float32 {
	if !c.useBones {
		return v
	}
	return c.pose.Point(bone, v)
}

func (c *converter) normal(bm *bmd.Mesh, n int) [3]float32 {
	if n < 0 {
		return [3]float32{0, 0, 1}
	}
	bone := -1
	if c.useBones {
		bone = boneIndex(bm.NormalNodes, n)
	}
	return c.pose.Dir(bone, bm.Normals[n])
}

func uv(bm *bmd.Mesh, t int) [3]float32 {
	if t < 0 {
		return [3]float32{}
	}
	return [3]float32{bm.UVs[t][0], 1 - bm.UVs[t][1], 0}
}

// bindBones groups vertices by their bone with rigid weights. Bones appear
// in bone index order; vertices of dummy or unknown bones stay unbound.
func (c *converter) bindBones(boneOf []int) []scene.Bone {
	if !c.useBones {
		return nil
	}
	weights := make(map[int][]scene.VertexWeight)
	for v, b := range boneOf {
		if c.boneNode(b) == scene.NoNode {
			continue
		}
		weights[b] = append(weights[b], scene.VertexWeight{Vertex: v, Weight: 1})
	}

	var bones []scene.Bone
	for b := range c.boneNodes {
		w, ok := weights[b]
		if !ok {
			continue
		}
		node := c.boneNodes[b]
		bones = append(bones, scene.Bone{
			Name:    c.sc.Node(node).Name,
			Node:    node,
			Offset:  c.pose.InverseBind(b).Float32(),
			Weights: w,
		})
	}
	return bones
}
