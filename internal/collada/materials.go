package collada

import "mu-bmd-collada/internal/scene"

// writeImages writes one <image> per distinct texture path.
func (p *pass) writeImages() {
	type pending struct {
		s  Surface
		id string
	}
	var images []pending
	for i := range p.materials {
		m := &p.materials[i]
		for _, ns := range m.surfaces() {
			tex := ns.s.Texture
			if tex == "" {
				continue
			}
			if _, dup := p.imageIDs[tex]; dup {
				continue
			}
			id := p.reg.DerivedID(m.id, ns.name+"-image")
			p.imageIDs[tex] = id
			images = append(images, pending{*ns.s, id})
		}
	}
	if len(images) == 0 {
		return
	}
	p.w.block("library_images", nil, func() {
		for _, img := range images {
			p.writeImageEntry(img.s, img.id)
		}
	})
}

// writeMaterials writes the effects library and the materials library
// referencing it.
func (p *pass) writeMaterials() {
	if len(p.materials) == 0 {
		return
	}
	w := p.w
	effectIDs := make([]string, len(p.materials))

	w.open("library_effects")
	for i := range p.materials {
		m := &p.materials[i]
		effectIDs[i] = p.reg.DerivedID(m.id, "fx")
		p.writeEffect(m, effectIDs[i])
	}
	w.close("library_effects")

	w.open("library_materials")
	for i := range p.materials {
		m := &p.materials[i]
		w.open("material", a("id", m.id), a("name", m.name))
		w.empty("instance_effect", a("url", "#"+effectIDs[i]))
		w.close("material")
	}
	w.close("library_materials")
}

func (p *pass) writeEffect(m *materialSummary, id string) {
	w := p.w
	sampler := func(typeName string) string {
		return m.id + "-" + typeName + "-sampler"
	}

	w.open("effect", a("id", id), a("name", m.name))
	w.open("profile_COMMON")
	for _, ns := range m.surfaces() {
		p.writeTextureParamEntry(*ns.s, ns.name, m.id)
	}

	w.open("technique", a("sid", "standard"))
	w.open(m.shading)
	p.writeTextureColorEntry(m.emissive, "emission", sampler("emission"))
	p.writeTextureColorEntry(m.ambient, "ambient", sampler("ambient"))
	p.writeTextureColorEntry(m.diffuse, "diffuse", sampler("diffuse"))
	p.writeTextureColorEntry(m.specular, "specular", sampler("specular"))
	p.writeFloatEntry(m.shininess, "shininess")
	p.writeTextureColorEntry(m.reflective, "reflective", sampler("reflective"))
	p.writeTextureColorEntry(m.transparent, "transparent", sampler("transparent"))
	p.writeFloatEntry(m.transparency, "transparency")
	p.writeFloatEntry(m.refraction, "index_of_refraction")
	w.close(m.shading)

	if m.normal.Texture != "" {
		w.open("extra")
		w.open("technique", a("profile", "FCOLLADA"))
		p.writeTextureColorEntry(m.normal, "bump", sampler("normal"))
		w.close("technique")
		w.close("extra")
	}
	w.close("technique")
	w.close("profile_COMMON")
	w.close("effect")
}

// materialOf returns the material index a mesh binds, or -1.
func (p *pass) materialOf(m *scene.Mesh) int {
	if m == nil || !p.validMaterial(m.Material) {
		return -1
	}
	return m.Material
}
