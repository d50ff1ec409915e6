package collada

import (
	"strconv"

	"mu-bmd-collada/internal/scene"
)

func (p *pass) writeGeometries() error {
	var meshes []int
	for i := range p.scene.Meshes {
		if p.meshWritable(i) {
			meshes = append(meshes, i)
		}
	}
	if len(meshes) == 0 {
		return nil
	}
	p.w.open("library_geometries")
	for _, i := range meshes {
		if err := p.writeGeometry(i); err != nil {
			return err
		}
	}
	p.w.close("library_geometries")
	return nil
}

type meshInput struct {
	semantic string
	source   string
	set      int
}

func (p *pass) writeGeometry(i int) error {
	m := p.scene.Meshes[i]
	w := p.w
	id := p.reg.ObjectID(KindMesh, i)
	n := len(m.Positions)

	w.open("geometry", a("id", id), a("name", p.reg.ObjectName(KindMesh, i)))
	w.open("mesh")

	positionsID := p.reg.DerivedID(id, "positions")
	if err := p.writeFloatArray(positionsID, FloatVector, flatten3(m.Positions), n*3); err != nil {
		return err
	}

	var inputs []meshInput
	if m.HasNormals() {
		nid := p.reg.DerivedID(id, "normals")
		if err := p.writeFloatArray(nid, FloatVector, flatten3(m.Normals), n*3); err != nil {
			return err
		}
		inputs = append(inputs, meshInput{"NORMAL", nid, -1})
	}
	for set := 0; set < scene.MaxTexCoords; set++ {
		if !m.HasTexCoords(set) {
			continue
		}
		tid := p.reg.DerivedID(id, "tex"+strconv.Itoa(set))
		var err error
		if m.UVComponents[set] == 3 {
			err = p.writeFloatArray(tid, FloatTexCoord3, flatten3(m.TexCoords[set]), n*3)
		} else {
			err = p.writeFloatArray(tid, FloatTexCoord2, flatten2(m.TexCoords[set]), n*2)
		}
		if err != nil {
			return err
		}
		inputs = append(inputs, meshInput{"TEXCOORD", tid, set})
	}
	for set := 0; set < scene.MaxColorSets; set++ {
		if !m.HasColors(set) {
			continue
		}
		cid := p.reg.DerivedID(id, "color"+strconv.Itoa(set))
		if err := p.writeFloatArray(cid, FloatColor, flatten4(m.Colors[set]), n*4); err != nil {
			return err
		}
		inputs = append(inputs, meshInput{"COLOR", cid, set})
	}

	verticesID := p.reg.DerivedID(id, "vertices")
	w.open("vertices", a("id", verticesID))
	w.empty("input", a("semantic", "POSITION"), a("source", "#"+positionsID))
	w.close("vertices")

	var lines, polys []scene.Face
	for _, f := range m.Faces {
		switch {
		case len(f.Indices) == 2:
			lines = append(lines, f)
		case len(f.Indices) >= 3:
			polys = append(polys, f)
		}
	}
	if len(lines) > 0 {
		w.open("lines", a("count", strconv.Itoa(len(lines))), a("material", "defaultMaterial"))
		p.writePrimitiveInputs(verticesID, inputs)
		p.writeIndices(lines)
		w.close("lines")
	}
	if len(polys) > 0 {
		w.open("polylist", a("count", strconv.Itoa(len(polys))), a("material", "defaultMaterial"))
		p.writePrimitiveInputs(verticesID, inputs)
		w.elementList("vcount", len(polys), func(dst []byte, k int) []byte {
			return strconv.AppendInt(dst, int64(len(polys[k].Indices)), 10)
		})
		p.writeIndices(polys)
		w.close("polylist")
	}

	w.close("mesh")
	w.close("geometry")
	return nil
}

func (p *pass) writePrimitiveInputs(verticesID string, inputs []meshInput) {
	p.w.empty("input", a("semantic", "VERTEX"), a("source", "#"+verticesID), a("offset", "0"))
	for _, in := range inputs {
		attrs := []attr{a("semantic", in.semantic), a("source", "#"+in.source), a("offset", "0")}
		if in.set >= 0 {
			attrs = append(attrs, a("set", strconv.Itoa(in.set)))
		}
		p.w.empty("input", attrs...)
	}
}

func (p *pass) writeIndices(faces []scene.Face) {
	var idx []uint32
	for _, f := range faces {
		idx = append(idx, f.Indices...)
	}
	p.w.elementList("p", len(idx), func(dst []byte, k int) []byte {
		return strconv.AppendUint(dst, uint64(idx[k]), 10)
	})
}
