package collada

import (
	"strconv"
	"strings"

	"mu-bmd-collada/internal/scene"
)

// Surface is one material channel: a texture, a flat color, or nothing.
// A bound texture wins over the color.
type Surface struct {
	Exists    bool
	Color     scene.RGBA
	Texture   string
	UVChannel int
}

// Property is one scalar material channel.
type Property struct {
	Exists bool
	Value  float32
}

// ReadSurface extracts channel ch of mat, looking at texture slot.
// Embedded references ("*N") resolve through textures, the file names the
// embedded images were handed over as; an unknown index leaves the
// surface absent.
func ReadSurface(mat *scene.Material, ch scene.Channel, slot int, textures map[int]string) Surface {
	var s Surface
	if mat == nil {
		return s
	}
	if ref, ok := mat.Texture(ch, slot); ok {
		path := ref.Path
		if i, embedded := scene.ParseEmbedded(path); embedded {
			name, found := textures[i]
			if !found {
				return s
			}
			path = name
		}
		s.Exists = true
		s.Texture = path
		s.UVChannel = ref.UVChannel
		return s
	}
	if ch == scene.ChannelNormal {
		return s
	}
	if c, ok := mat.Colors[ch]; ok {
		s.Exists = true
		s.Color = c
	}
	return s
}

// ReadProperty extracts scalar sc of mat.
func ReadProperty(mat *scene.Material, sc scene.Scalar) Property {
	if mat == nil {
		return Property{}
	}
	v, ok := mat.Scalars[sc]
	return Property{Exists: ok, Value: v}
}

// materialSummary is a material reduced to what the effect writer needs.
type materialSummary struct {
	id, name string
	shading  string

	ambient, diffuse, specular, emissive Surface
	reflective, transparent, normal      Surface

	shininess, transparency, refraction Property
}

// surfaces lists the texture-capable channels with their markup names, in
// the order images and sampler params are written.
func (m *materialSummary) surfaces() []namedSurface {
	return []namedSurface{
		{"emission", &m.emissive},
		{"ambient", &m.ambient},
		{"diffuse", &m.diffuse},
		{"specular", &m.specular},
		{"reflective", &m.reflective},
		{"transparent", &m.transparent},
		{"normal", &m.normal},
	}
}

type namedSurface struct {
	name string
	s    *Surface
}

func shadingName(s scene.Shading) string {
	switch s {
	case scene.ShadingBlinn:
		return "blinn"
	case scene.ShadingConstant:
		return "constant"
	case scene.ShadingLambert:
		return "lambert"
	}
	return "phong"
}

func (p *pass) summarize(index int) materialSummary {
	mat := p.scene.Materials[index]
	var shading scene.Shading
	if mat != nil {
		shading = mat.Shading
	}
	m := materialSummary{
		id:           p.reg.ObjectID(KindMaterial, index),
		name:         p.reg.ObjectName(KindMaterial, index),
		shading:      shadingName(shading),
		ambient:      ReadSurface(mat, scene.ChannelAmbient, 0, p.textures),
		diffuse:      ReadSurface(mat, scene.ChannelDiffuse, 0, p.textures),
		specular:     ReadSurface(mat, scene.ChannelSpecular, 0, p.textures),
		emissive:     ReadSurface(mat, scene.ChannelEmissive, 0, p.textures),
		reflective:   ReadSurface(mat, scene.ChannelReflective, 0, p.textures),
		transparent:  ReadSurface(mat, scene.ChannelTransparent, 0, p.textures),
		normal:       ReadSurface(mat, scene.ChannelNormal, 0, p.textures),
		shininess:    ReadProperty(mat, scene.ScalarShininess),
		transparency: ReadProperty(mat, scene.ScalarOpacity),
		refraction:   ReadProperty(mat, scene.ScalarRefraction),
	}
	m.restrict()
	return m
}

// restrict drops the channels the shading model's element does not accept:
// <constant> has no ambient, diffuse, specular or shininess, and <lambert>
// has no specular or shininess.
func (m *materialSummary) restrict() {
	switch m.shading {
	case "constant":
		m.ambient, m.diffuse = Surface{}, Surface{}
		fallthrough
	case "lambert":
		m.specular, m.shininess = Surface{}, Property{}
	}
}

// writeImageEntry writes an <image> for a textured surface.
func (p *pass) writeImageEntry(s Surface, imageID string) {
	if s.Texture == "" {
		return
	}
	p.w.open("image", a("id", imageID))
	p.w.element("init_from", encodeImagePath(s.Texture))
	p.w.close("image")
}

// writeTextureParamEntry writes the surface and sampler params an effect
// needs to reference the image of a textured surface.
func (p *pass) writeTextureParamEntry(s Surface, typeName, materialID string) {
	if s.Texture == "" {
		return
	}
	w := p.w
	prefix := materialID + "-" + typeName
	w.open("newparam", a("sid", prefix+"-surface"))
	w.open("surface", a("type", "2D"))
	w.element("init_from", p.imageIDs[s.Texture])
	w.close("surface")
	w.close("newparam")

	w.open("newparam", a("sid", prefix+"-sampler"))
	w.open("sampler2D")
	w.element("source", prefix+"-surface")
	w.close("sampler2D")
	w.close("newparam")
}

// writeTextureColorEntry writes a color-or-texture shading input.
func (p *pass) writeTextureColorEntry(s Surface, typeName, samplerID string) {
	if !s.Exists {
		return
	}
	w := p.w
	w.open(typeName)
	if s.Texture != "" {
		w.empty("texture", a("texture", samplerID), a("texcoord", "CHANNEL"+strconv.Itoa(s.UVChannel)))
	} else {
		c := s.Color
		var buf []byte
		for i, v := range [4]float32{c.R, c.G, c.B, c.A} {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = formatFloat(buf, v)
		}
		w.element("color", string(buf), a("sid", typeName))
	}
	w.close(typeName)
}

// writeFloatEntry writes a scalar shading input.
func (p *pass) writeFloatEntry(prop Property, typeName string) {
	if !prop.Exists {
		return
	}
	p.w.open(typeName)
	p.w.element("float", string(formatFloat(nil, prop.Value)), a("sid", typeName))
	p.w.close(typeName)
}

// encodeImagePath percent-encodes everything outside a conservative
// path alphabet; XML escaping is applied by the writer on top.
func encodeImagePath(path string) string {
	var b strings.Builder
	const hex = "0123456789ABCDEF"
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			strings.IndexByte(":_-./\\", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}
