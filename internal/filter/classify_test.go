package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mu-bmd-collada/internal/bmd"
)

func bigMesh(tex string) *bmd.Mesh {
	m := &bmd.Mesh{TexPath: tex}
	for i := 0; i < 12; i++ {
		m.Verts = append(m.Verts, [3]float32{float32(i * 10), 0, 0})
	}
	m.Tris = make([]bmd.Triangle, 10)
	return m
}

func TestClassifyByTexture(t *testing.T) {
	cases := map[string]Kind{
		`Item\Texture\Sword01.jpg`: KindSolid,
		"sword_glow.tga":           KindEffect,
		"gra_01.jpg":               KindEffect,
		"mini_gra2.jpg":            KindEffect,
		"grass.jpg":                KindSolid,
		"flame01.jpg":              KindEffect,
		"requitalbox_flame_wood":   KindSolid,
		"HQSkinClass313.jpg":       KindBody,
		"skinclass206head_N.jpg":   KindBody,
		"skinclass206_headhelmet":  KindSolid,
		"hair_R.tga":               KindBody,
		"level_man01.jpg":          KindBody,
	}
	for tex, want := range cases {
		assert.Equal(t, want, Classify(bigMesh(tex)), tex)
	}
}

func TestSmallOverlayIsEffect(t *testing.T) {
	small := &bmd.Mesh{
		TexPath: "plain.jpg",
		Verts:   [][3]float32{{0, 0, 0}, {5, 0, 0}, {5, 5, 0}, {0, 5, 0}},
		Tris:    []bmd.Triangle{{Polygon: 4}},
	}
	assert.True(t, IsEffectMesh(small))

	decal := &bmd.Mesh{
		TexPath: "plain.jpg",
		Verts:   [][3]float32{{0, 0, 0}, {50, 0, 0}, {50, 5, 0}, {0, 5, 0}},
		Tris:    []bmd.Triangle{{Polygon: 4}},
	}
	assert.False(t, IsEffectMesh(decal))
	assert.False(t, IsEffectMesh(&bmd.Mesh{TexPath: "plain.jpg"}))
}

func TestBodyWinsOverEffect(t *testing.T) {
	m := bigMesh("hqhair_r_glow.tga")
	assert.True(t, IsBodyMesh(m))
	assert.False(t, IsEffectMesh(m))
	assert.Equal(t, "body", Classify(m).String())
}
