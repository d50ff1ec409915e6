package bmd

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-collada/internal/crypto"
)

func sampleModel() *Model {
	return &Model{
		Name: "Sword01",
		Meshes: []Mesh{{
			Verts:       [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
			Nodes:       []int16{0, 0, 1, 1},
			Normals:     [][3]float32{{0, 0, 1}},
			NormalNodes: []int16{0},
			UVs:         [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
			Tris: []Triangle{
				{Polygon: 3, VI: [4]int16{0, 1, 2}, TI: [4]int16{0, 1, 2}},
				{Polygon: 4, VI: [4]int16{0, 1, 3, 2}, TI: [4]int16{0, 1, 3, 2}},
			},
			TexIndex: 2,
			TexPath:  "sword01.jpg",
		}},
		Actions: []Action{
			{Keys: 2},
			{Keys: 1, LockPositions: true, Positions: [][3]float32{{0, 0, 5}}},
		},
		Bones: []Bone{
			{
				Name: "Bip01", Parent: -1,
				Actions: []BoneKeys{
					{Positions: [][3]float32{{1, 2, 3}, {4, 5, 6}}, Rotations: [][3]float32{{0.1, 0.2, 0.3}, {0, 0, 0}}},
					{Positions: [][3]float32{{7, 8, 9}}, Rotations: [][3]float32{{0, 0, 1}}},
				},
			},
			{IsDummy: true, Parent: -1},
			{
				Name: "Blade", Parent: 0,
				Actions: []BoneKeys{
					{Positions: [][3]float32{{0, 10, 0}, {0, 11, 0}}, Rotations: [][3]float32{{}, {}}},
					{Positions: [][3]float32{{0, 12, 0}}, Rotations: [][3]float32{{}}},
				},
			},
		},
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	src := sampleModel()
	m, err := Decode(Encode(src), crypto.DefaultKeys())
	require.NoError(t, err)

	assert.Equal(t, byte(10), m.Version)
	assert.Equal(t, "Sword01", m.Name)
	require.Len(t, m.Meshes, 1)
	mesh := m.Meshes[0]
	assert.Equal(t, src.Meshes[0].Verts, mesh.Verts)
	assert.Equal(t, src.Meshes[0].Nodes, mesh.Nodes)
	assert.Equal(t, src.Meshes[0].UVs, mesh.UVs)
	assert.Equal(t, src.Meshes[0].Tris, mesh.Tris)
	assert.Equal(t, int16(2), mesh.TexIndex)
	assert.Equal(t, "sword01.jpg", mesh.TexPath)
	assert.Equal(t, 4, mesh.Tris[1].Corners())

	require.Len(t, m.Actions, 2)
	assert.Equal(t, 2, m.Actions[0].Keys)
	assert.True(t, m.Actions[1].LockPositions)
	assert.Equal(t, [][3]float32{{0, 0, 5}}, m.Actions[1].Positions)

	require.Len(t, m.Bones, 3)
	assert.Equal(t, "Bip01", m.Bones[0].Name)
	assert.Equal(t, [3]float64{1, 2, 3}, m.Bones[0].BindPosition)
	assert.InDelta(t, 0.3, m.Bones[0].BindRotation[2], 1e-6)
	assert.True(t, m.Bones[1].IsDummy)
	assert.Equal(t, 0, m.Bones[2].Parent)
	assert.Equal(t, [3]float32{0, 12, 0}, m.Bones[2].Actions[1].Positions[0])
}

func TestDecodeBackslashTexturePath(t *testing.T) {
	src := sampleModel()
	src.Meshes[0].TexPath = `Item\sword01.jpg`
	m, err := Decode(Encode(src), crypto.DefaultKeys())
	require.NoError(t, err)
	assert.Equal(t, "Item/sword01.jpg", m.Meshes[0].TexPath)
}

func encryptXOR(plain []byte, key [16]byte) []byte {
	out := make([]byte, len(plain))
	chain := byte(0x5E)
	for i, p := range plain {
		out[i] = (p + chain) ^ key[i&15]
		chain = out[i] + 0x3D
	}
	return out
}

func wrap(version byte, payload []byte) []byte {
	out := []byte{'B', 'M', 'D', version}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

func TestDecodeV12(t *testing.T) {
	plain := Encode(sampleModel())[4:]
	raw := wrap(12, encryptXOR(plain, crypto.DefaultXORKey))

	m, err := Decode(raw, crypto.DefaultKeys())
	require.NoError(t, err)
	assert.Equal(t, byte(12), m.Version)
	assert.Equal(t, "Sword01", m.Name)
	assert.Len(t, m.Bones, 3)
}

func TestDecodeV15NeedsKey(t *testing.T) {
	raw := wrap(15, make([]byte, 32))
	_, err := Decode(raw, crypto.DefaultKeys())
	assert.ErrorIs(t, err, ErrNoLEAKey)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("XYZ"), crypto.DefaultKeys())
	assert.Error(t, err)

	_, err = Decode([]byte{'B', 'M', 'D', 12, 0xff, 0, 0, 0}, crypto.DefaultKeys())
	assert.Error(t, err)

	huge := Encode(&Model{Name: "x"})
	binary.LittleEndian.PutUint16(huge[4+32:], 500)
	_, err = Decode(huge, crypto.DefaultKeys())
	assert.Error(t, err)
}

func TestDecodeTruncatedIsTolerated(t *testing.T) {
	full := Encode(sampleModel())
	m, err := Decode(full[:len(full)-40], crypto.DefaultKeys())
	require.NoError(t, err)
	assert.Len(t, m.Meshes, 1)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Sword01.bmd")
	require.NoError(t, os.WriteFile(path, Encode(sampleModel()), 0644))

	m, err := Parse(path, crypto.DefaultKeys())
	require.NoError(t, err)
	assert.Equal(t, "Sword01", m.Name)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.bmd"), crypto.DefaultKeys())
	assert.Error(t, err)
}
