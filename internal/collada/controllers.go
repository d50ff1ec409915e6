package collada

import (
	"strconv"

	"mu-bmd-collada/internal/scene"
)

var identity16 = scene.Identity()

// skinned reports whether mesh i gets a skin controller.
func (p *pass) skinned(i int) bool {
	return p.meshWritable(i) && len(p.scene.Meshes[i].Bones) > 0
}

func (p *pass) controllerID(i int) string {
	return p.reg.DerivedID(p.reg.ObjectID(KindMesh, i), "skin")
}

func (p *pass) writeControllers() error {
	var meshes []int
	for i := range p.scene.Meshes {
		if p.skinned(i) {
			meshes = append(meshes, i)
		}
	}
	if len(meshes) == 0 {
		return nil
	}
	p.w.open("library_controllers")
	for _, i := range meshes {
		if err := p.writeController(i); err != nil {
			return err
		}
	}
	p.w.close("library_controllers")
	return nil
}

// writeController writes the skin of mesh i: joint names, inverse bind
// matrices, weights and the per-vertex influence lists.
func (p *pass) writeController(i int) error {
	m := p.scene.Meshes[i]
	w := p.w
	meshID := p.reg.ObjectID(KindMesh, i)
	id := p.controllerID(i)

	var (
		jointNames []string
		bindPoses  []float32
		weights    []float32
	)
	type influence struct{ joint, weight int }
	perVertex := make([][]influence, len(m.Positions))

	for _, b := range m.Bones {
		if !p.scene.Valid(b.Node) {
			continue
		}
		joint := len(jointNames)
		jointNames = append(jointNames, p.reg.BoneID(b.Node))
		bindPoses = append(bindPoses, b.Offset[:]...)
		for _, vw := range b.Weights {
			if vw.Vertex < 0 || vw.Vertex >= len(m.Positions) {
				continue
			}
			perVertex[vw.Vertex] = append(perVertex[vw.Vertex], influence{joint, len(weights)})
			weights = append(weights, vw.Weight)
		}
	}

	jointsID := p.reg.DerivedID(id, "joints")
	posesID := p.reg.DerivedID(id, "bind_poses")
	weightsID := p.reg.DerivedID(id, "skin-weights")

	w.open("controller", a("id", id), a("name", "skinCluster"+strconv.Itoa(i)))
	w.open("skin", a("source", "#"+meshID))
	w.elementList("bind_shape_matrix", 16, func(dst []byte, k int) []byte {
		return formatFloat(dst, identity16[k])
	})

	p.writeNameArray(jointsID, "JOINT", "Name", jointNames)
	if err := p.writeFloatArray(posesID, FloatMat4x4, bindPoses, len(bindPoses)); err != nil {
		return err
	}
	if err := p.writeFloatArray(weightsID, FloatWeight, weights, len(weights)); err != nil {
		return err
	}

	w.open("joints")
	w.empty("input", a("semantic", "JOINT"), a("source", "#"+jointsID))
	w.empty("input", a("semantic", "INV_BIND_MATRIX"), a("source", "#"+posesID))
	w.close("joints")

	w.open("vertex_weights", a("count", strconv.Itoa(len(perVertex))))
	w.empty("input", a("semantic", "JOINT"), a("source", "#"+jointsID), a("offset", "0"))
	w.empty("input", a("semantic", "WEIGHT"), a("source", "#"+weightsID), a("offset", "1"))
	w.elementList("vcount", len(perVertex), func(dst []byte, k int) []byte {
		return strconv.AppendInt(dst, int64(len(perVertex[k])), 10)
	})
	var pairs []int
	for _, infl := range perVertex {
		for _, in := range infl {
			pairs = append(pairs, in.joint, in.weight)
		}
	}
	w.elementList("v", len(pairs), func(dst []byte, k int) []byte {
		return strconv.AppendInt(dst, int64(pairs[k]), 10)
	})
	w.close("vertex_weights")

	w.close("skin")
	w.close("controller")
	return nil
}
