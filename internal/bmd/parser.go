package bmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"mu-bmd-collada/internal/crypto"
)

// ErrNoLEAKey is returned for v15 files when no LEA key was configured.
var ErrNoLEAKey = errors.New("bmd: v15 file needs an LEA key")

// maxMeshes bounds the mesh count; larger values mean a corrupt or
// wrongly decrypted header.
const maxMeshes = 100

// Parse reads a BMD file.
// Supports versions 10 (unencrypted), 12 (XOR), and 15 (LEA-256 ECB).
func Parse(path string, keys crypto.Keys) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", path, err)
	}
	m, err := Decode(raw, keys)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, filepath.Base(path))
	}
	return m, nil
}

// Decode parses BMD bytes.
func Decode(raw []byte, keys crypto.Keys) (*Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, fmt.Errorf("bmd: invalid header")
	}

	version := raw[3]
	var data []byte

	switch version {
	case 15, 12:
		if len(raw) < 8 {
			return nil, fmt.Errorf("bmd: truncated v%d header", version)
		}
		size := binary.LittleEndian.Uint32(raw[4:8])
		if 8+int(size) > len(raw) {
			return nil, fmt.Errorf("bmd: truncated v%d data", version)
		}
		payload := raw[8 : 8+size]
		if version == 12 {
			data = crypto.DecryptXOR(payload, keys.XOR)
			break
		}
		if keys.LEA == nil {
			return nil, ErrNoLEAKey
		}
		data = crypto.DecryptLEA(payload, *keys.LEA)
	default:
		data = raw[4:]
	}

	r := &reader{data: data}
	m, err := r.parse()
	if err != nil {
		return nil, err
	}
	m.Version = version
	return m, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) readStr(n int) string {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		return ""
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	// Find null terminator
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

func (r *reader) readI16() int16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := int16(binary.LittleEndian.Uint16(r.data[r.off:]))
	r.off += 2
	return v
}

func (r *reader) readU16() uint16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) readF32() float32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

func (r *reader) readVec3() [3]float32 {
	return [3]float32{r.readF32(), r.readF32(), r.readF32()}
}

func (r *reader) readByte() byte {
	if r.off >= len(r.data) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) count() int {
	n := int(r.readI16())
	if n < 0 {
		return 0
	}
	return n
}

func (r *reader) parse() (*Model, error) {
	m := &Model{Name: r.readStr(32)}
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	actionCount := int(r.readU16())

	if meshCount > maxMeshes {
		return nil, fmt.Errorf("bmd: invalid mesh count %d", meshCount)
	}

	m.Meshes = make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		nv := r.count()
		nn := r.count()
		ntc := r.count()
		nt := r.count()
		texIndex := r.readI16()

		// Vertices: 16 bytes each (node:i16, pad:i16, x:f32, y:f32, z:f32)
		verts := make([][3]float32, nv)
		nodes := make([]int16, nv)
		for j := 0; j < nv; j++ {
			nodes[j] = r.readI16()
			_ = r.readI16() // padding
			verts[j] = r.readVec3()
		}

		// Normals: 20 bytes each (node:i16, pad:i16, nx:f32, ny:f32, nz:f32, bind:i16, pad:i16)
		normals := make([][3]float32, nn)
		normalNodes := make([]int16, nn)
		for j := 0; j < nn; j++ {
			normalNodes[j] = r.readI16()
			_ = r.readI16() // padding
			normals[j] = r.readVec3()
			_ = r.readI16() // bindVertex
			_ = r.readI16() // padding
		}

		// TexCoords: 8 bytes each (u:f32, v:f32)
		uvs := make([][2]float32, ntc)
		for j := 0; j < ntc; j++ {
			uvs[j][0] = r.readF32()
			uvs[j][1] = r.readF32()
		}

		// Triangles: 64 bytes each
		tris := make([]Triangle, 0, nt)
		for j := 0; j < nt; j++ {
			base := r.off
			if base+64 > len(r.data) {
				r.off = len(r.data)
				break
			}
			poly := int(r.data[base])
			var vi, ni, ti [4]int16
			for k := 0; k < 4; k++ {
				vi[k] = int16(binary.LittleEndian.Uint16(r.data[base+2+k*2:]))
			}
			for k := 0; k < 4; k++ {
				ni[k] = int16(binary.LittleEndian.Uint16(r.data[base+10+k*2:]))
			}
			for k := 0; k < 4; k++ {
				ti[k] = int16(binary.LittleEndian.Uint16(r.data[base+18+k*2:]))
			}
			tris = append(tris, Triangle{Polygon: poly, VI: vi, NI: ni, TI: ti})
			r.off += 64
		}

		texPath := r.readStr(32)
		// Normalize backslashes
		texPath = strings.ReplaceAll(texPath, "\\", "/")

		m.Meshes = append(m.Meshes, Mesh{
			Verts:       verts,
			Nodes:       nodes,
			Normals:     normals,
			NormalNodes: normalNodes,
			UVs:         uvs,
			Tris:        tris,
			TexIndex:    texIndex,
			TexPath:     texPath,
		})
	}

	m.Actions = make([]Action, actionCount)
	for a := range m.Actions {
		act := &m.Actions[a]
		act.Keys = r.count()
		act.LockPositions = r.readByte() > 0
		if act.LockPositions {
			act.Positions = make([][3]float32, act.Keys)
			for k := range act.Positions {
				act.Positions[k] = r.readVec3()
			}
		}
	}

	m.Bones = make([]Bone, 0, boneCount)
	for b := 0; b < boneCount; b++ {
		isDummy := r.readByte() > 0
		if isDummy {
			m.Bones = append(m.Bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		bone := Bone{
			Name:    r.readStr(32),
			Parent:  int(r.readI16()),
			Actions: make([]BoneKeys, actionCount),
		}
		for a, act := range m.Actions {
			if act.Keys == 0 {
				continue
			}
			keys := BoneKeys{
				Positions: make([][3]float32, act.Keys),
				Rotations: make([][3]float32, act.Keys),
			}
			// Positions: numKeys × (x, y, z) float32
			for k := range keys.Positions {
				keys.Positions[k] = r.readVec3()
			}
			// Rotations: numKeys × (rx, ry, rz) float32
			for k := range keys.Rotations {
				keys.Rotations[k] = r.readVec3()
			}
			bone.Actions[a] = keys
		}
		if len(bone.Actions) > 0 && len(bone.Actions[0].Positions) > 0 {
			p, rot := bone.Actions[0].Positions[0], bone.Actions[0].Rotations[0]
			bone.BindPosition = [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
			bone.BindRotation = [3]float64{float64(rot[0]), float64(rot[1]), float64(rot[2])}
		}
		m.Bones = append(m.Bones, bone)
	}

	return m, nil
}
