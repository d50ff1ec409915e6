package collada

import (
	"strconv"

	"mu-bmd-collada/internal/mathutil"
	"mu-bmd-collada/internal/scene"
)

// cameraFlip turns the look-at basis into the COLLADA camera convention,
// which looks down -Z.
var cameraFlip = mathutil.Mat4{
	-1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, -1, 0,
	0, 0, 0, 1,
}

func (p *pass) writeVisualScene() {
	w := p.w
	root := p.scene.Root
	var id, name string
	if p.addRoot {
		id = p.reg.Reserve("Scene")
		name = "Scene"
	} else {
		id = p.reg.NodeID(root)
		name = p.reg.NodeName(root)
	}

	w.open("library_visual_scenes")
	w.open("visual_scene", a("id", id), a("name", name))
	if p.addRoot {
		if p.scene.Valid(root) {
			p.writeNode(root)
		}
	} else {
		for _, c := range p.scene.Node(root).Children {
			if p.scene.Valid(c) {
				p.writeNode(c)
			}
		}
	}
	w.close("visual_scene")
	w.close("library_visual_scenes")

	w.open("scene")
	w.empty("instance_visual_scene", a("url", "#"+id))
	w.close("scene")
}

// nodeMatrix returns the transform written for n. Camera nodes get the
// camera's own placement multiplied in.
func (p *pass) nodeMatrix(n *scene.Node) scene.Mat4 {
	if len(n.Cameras) == 0 {
		return n.Transform
	}
	ci := n.Cameras[0]
	if ci < 0 || ci >= len(p.scene.Cameras) || p.scene.Cameras[ci] == nil {
		return n.Transform
	}
	cam := p.scene.Cameras[ci]
	look := mathutil.LookAt(
		mathutil.Vec3From32(cam.Position),
		mathutil.Vec3From32(cam.Up),
		mathutil.Vec3From32(cam.LookAt),
	)
	m := mathutil.Mat4Mul(mathutil.Mat4From32(n.Transform), mathutil.Mat4Mul(look, cameraFlip))
	return m.Float32()
}

// writeNode writes node h and its subtree.
func (p *pass) writeNode(h scene.NodeID) {
	n := p.scene.Node(h)
	w := p.w
	joint := p.joints[h]

	attrs := []attr{a("id", p.reg.NodeID(h))}
	if joint {
		attrs = append(attrs, a("sid", p.reg.BoneID(h)))
	}
	attrs = append(attrs, a("name", n.Name))
	if joint {
		attrs = append(attrs, a("type", "JOINT"))
	} else {
		attrs = append(attrs, a("type", "NODE"))
	}

	w.block("node", attrs, func() {
		m := p.nodeMatrix(n)
		w.elementList("matrix", 16, func(dst []byte, k int) []byte {
			return formatFloat(dst, m[k])
		}, a("sid", "matrix"))

		for _, mi := range n.Meshes {
			p.writeMeshInstance(mi)
		}
		for _, ci := range n.Cameras {
			if ci >= 0 && ci < len(p.scene.Cameras) {
				w.empty("instance_camera", a("url", "#"+p.reg.ObjectID(KindCamera, ci)))
			}
		}
		for _, li := range n.Lights {
			if li >= 0 && li < len(p.scene.Lights) {
				w.empty("instance_light", a("url", "#"+p.reg.ObjectID(KindLight, li)))
			}
		}
		for _, c := range n.Children {
			if p.scene.Valid(c) {
				p.writeNode(c)
			}
		}
	})
}

func (p *pass) writeMeshInstance(mi int) {
	if !p.meshWritable(mi) {
		return
	}
	w := p.w
	m := p.scene.Meshes[mi]
	tag := "instance_geometry"
	url := "#" + p.reg.ObjectID(KindMesh, mi)
	if p.skinned(mi) {
		tag = "instance_controller"
		url = "#" + p.controllerID(mi)
	}

	w.open(tag, a("url", url))
	if tag == "instance_controller" {
		if id, ok := p.skeletonID(mi); ok {
			w.element("skeleton", "#"+id)
		}
	}
	if mat := p.materialOf(m); mat >= 0 {
		w.open("bind_material")
		w.open("technique_common")
		w.open("instance_material", a("symbol", "defaultMaterial"), a("target", "#"+p.materials[mat].id))
		for set := 0; set < scene.MaxTexCoords; set++ {
			if !m.HasTexCoords(set) {
				continue
			}
			w.empty("bind_vertex_input",
				a("semantic", "CHANNEL"+strconv.Itoa(set)),
				a("input_semantic", "TEXCOORD"),
				a("input_set", strconv.Itoa(set)))
		}
		w.close("instance_material")
		w.close("technique_common")
		w.close("bind_material")
	}
	w.close(tag)
}
