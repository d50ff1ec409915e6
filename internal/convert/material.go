package convert

import (
	"fmt"
	"strings"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/filter"
	"mu-bmd-collada/internal/scene"
	"mu-bmd-collada/internal/texture"
)

// Surface constants of the item renderer's Blinn-Phong term.
const (
	specularIntensity = 0.45
	specularPower     = 12.0
)

var missingColor = scene.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}

// buildMaterial gives every mesh its own material named after the texture.
// Effect meshes are unlit and blend by their texture; textures with alpha
// also drive transparency.
func (c *converter) buildMaterial(i int, bm *bmd.Mesh, kind filter.Kind) *scene.Material {
	name := texture.Stem(bm.TexPath)
	if name == "" {
		name = fmt.Sprintf("Material%02d", i)
	}
	mat := scene.NewMaterial(name)
	mat.Shading = scene.ShadingPhong
	mat.Colors[scene.ChannelSpecular] = scene.RGBA{R: specularIntensity, G: specularIntensity, B: specularIntensity, A: 1}
	mat.Scalars[scene.ScalarShininess] = specularPower

	path, img := c.texturePath(bm.TexPath)
	if path == "" {
		mat.Colors[scene.ChannelDiffuse] = missingColor
		return mat
	}

	ref := []scene.TextureRef{{Path: path}}
	mat.Textures[scene.ChannelDiffuse] = ref
	if img != nil && img.Pixels != nil {
		r, g, b := texture.AverageColor(img.Pixels)
		mat.Colors[scene.ChannelAmbient] = scene.RGBA{R: r, G: g, B: b, A: 1}
	}

	transparent := img != nil && !img.Opaque()
	if kind == filter.KindEffect {
		mat.Shading = scene.ShadingConstant
		mat.Textures[scene.ChannelEmissive] = ref
		transparent = true
	}
	if transparent {
		mat.Textures[scene.ChannelTransparent] = ref
		mat.Scalars[scene.ScalarOpacity] = 1
	}
	return mat
}

// texturePath returns the material path of a BMD texture reference, or ""
// when it cannot be used. Resolved textures are embedded once per file;
// JPEG payloads are kept as they are and TGA texels are handed to the
// exporter's encoder.
func (c *converter) texturePath(ref string) (string, *texture.Image) {
	if ref == "" {
		return "", nil
	}
	if c.opts.Textures == nil {
		return strings.ReplaceAll(ref, "\\", "/"), nil
	}

	img, err := c.opts.Textures.Resolve(ref)
	if err != nil {
		c.rep.MissingTextures = append(c.rep.MissingTextures, ref)
		return "", nil
	}

	key := img.Path
	if key == "" {
		key = img.Name
	}
	if path, ok := c.embedded[key]; ok {
		return path, img
	}

	tex := &scene.Texture{Name: img.Name}
	if img.Format == "jpg" {
		tex.FormatHint = "jpg"
		tex.Data = img.Payload
	} else {
		tex.Image = img.Pixels
	}
	path := c.sc.AddTexture(tex)
	c.embedded[key] = path
	return path, img
}
