// Package filter classifies BMD meshes by what they draw.
package filter

import (
	"regexp"
	"strings"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/texture"
)

// Kind is the role of a mesh inside an item model.
type Kind int

const (
	// KindSolid is regular item geometry.
	KindSolid Kind = iota
	// KindEffect is an additive glow, aura or trail overlay.
	KindEffect
	// KindBody is a character body, skin or hair underlay.
	KindBody
)

func (k Kind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindBody:
		return "body"
	default:
		return "solid"
	}
}

var gradientEffectRE = regexp.MustCompile(`^(?:mini_|hangul)?gra(?:\d|_|$)`)

var effectPatterns = []string{
	"glow", "flare", "chrome", "effect",
	"aura", "shiny", "spark", "fire", "blur",
	"elec_light", "arrowlight", "lighting_mega", "pin_star",
	"lightmarks", "light_blue", "light_red",
	"energy", "plasma", "shine", "halo", "trail",
	"gradation", "sdblight", "alpha_line", "4x4", "damage",
	"ground_wind", "ground_star", "line_of_big",
	"force", "runeset",
	"shockwave", "swordeff",
	"cursorpin", "empact", "circle_shield",
	"arrowbom", "raypiece",
}

// "flame" only counts at the start of a stem: requitalbox_flame_wood is a
// metal frame.
var effectPrefixPatterns = []string{"flame"}

// bodyTextureRE matches character body/skin/hair stems found in helmet and
// armor models underneath the equipment piece.
var bodyTextureRE = regexp.MustCompile(`(?i)^(?:` +
	`hqskin(?:2)?(?:_)?class\d+` + // HQSkinClass313, HQskin2Class314, HQskin_Class109
	`|skinclass\d+head` + // Skinclass206head_N; not Skinclass206_headhelmet
	`|nude_` +
	`|item\d+_head` + // Item3002_Head, Item3002_headhair
	`|skin_(?:barbarian|warrior|class)` +
	`|level_man\d+` +
	`|(?:hq)?hair_r` +
	`|cobraset_hair` +
	`|tknight_hair` +
	`)`)

// Small overlays up to this size count as effects when their texture name
// says nothing.
const (
	smallMeshVerts = 8
	smallMeshTris  = 4
	smallMeshSpan  = 20
)

// Classify returns the role of m. Body underlays win over effects.
func Classify(m *bmd.Mesh) Kind {
	stem := texture.Stem(m.TexPath)
	if bodyTextureRE.MatchString(stem) {
		return KindBody
	}
	if isEffectStem(stem) || isSmallOverlay(m) {
		return KindEffect
	}
	return KindSolid
}

// IsBodyMesh reports whether m is a character body/skin/hair mesh.
func IsBodyMesh(m *bmd.Mesh) bool {
	return Classify(m) == KindBody
}

// IsEffectMesh reports whether m is an aura/glow/effect overlay.
func IsEffectMesh(m *bmd.Mesh) bool {
	return Classify(m) == KindEffect
}

func isEffectStem(stem string) bool {
	if gradientEffectRE.MatchString(stem) {
		return true
	}
	for _, p := range effectPatterns {
		if strings.Contains(stem, p) {
			return true
		}
	}
	for _, p := range effectPrefixPatterns {
		if strings.HasPrefix(stem, p) {
			return true
		}
	}
	return false
}

// isSmallOverlay keeps large quads such as blade decals out.
func isSmallOverlay(m *bmd.Mesh) bool {
	nv, nt := len(m.Verts), len(m.Tris)
	if nv == 0 || nv > smallMeshVerts || nt > smallMeshTris {
		return false
	}
	lo, hi := m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	var span float32
	for k := 0; k < 3; k++ {
		span = max(span, hi[k]-lo[k])
	}
	return span <= smallMeshSpan
}
