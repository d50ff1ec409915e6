package bmd

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encode writes m as an unencrypted v10 file, the layout Decode reads
// after decryption.
func Encode(m *Model) []byte {
	var w bytes.Buffer
	w.WriteString("BMD")
	w.WriteByte(10)

	le := binary.LittleEndian
	i16 := func(v int) { w.Write(le.AppendUint16(nil, uint16(int16(v)))) }
	f32 := func(v float32) { w.Write(le.AppendUint32(nil, math.Float32bits(v))) }
	vec := func(v [3]float32) {
		f32(v[0])
		f32(v[1])
		f32(v[2])
	}
	str := func(s string, n int) {
		b := make([]byte, n)
		copy(b, s)
		w.Write(b)
	}

	str(m.Name, 32)
	i16(len(m.Meshes))
	i16(len(m.Bones))
	i16(len(m.Actions))

	for _, mesh := range m.Meshes {
		i16(len(mesh.Verts))
		i16(len(mesh.Normals))
		i16(len(mesh.UVs))
		i16(len(mesh.Tris))
		i16(int(mesh.TexIndex))
		for j, v := range mesh.Verts {
			node := 0
			if j < len(mesh.Nodes) {
				node = int(mesh.Nodes[j])
			}
			i16(node)
			i16(0)
			vec(v)
		}
		for j, n := range mesh.Normals {
			node := 0
			if j < len(mesh.NormalNodes) {
				node = int(mesh.NormalNodes[j])
			}
			i16(node)
			i16(0)
			vec(n)
			i16(0)
			i16(0)
		}
		for _, uv := range mesh.UVs {
			f32(uv[0])
			f32(uv[1])
		}
		for _, t := range mesh.Tris {
			rec := make([]byte, 64)
			rec[0] = byte(t.Polygon)
			for k := 0; k < 4; k++ {
				le.PutUint16(rec[2+k*2:], uint16(t.VI[k]))
				le.PutUint16(rec[10+k*2:], uint16(t.NI[k]))
				le.PutUint16(rec[18+k*2:], uint16(t.TI[k]))
			}
			w.Write(rec)
		}
		str(mesh.TexPath, 32)
	}

	for _, act := range m.Actions {
		i16(act.Keys)
		if act.LockPositions {
			w.WriteByte(1)
			for k := 0; k < act.Keys; k++ {
				var p [3]float32
				if k < len(act.Positions) {
					p = act.Positions[k]
				}
				vec(p)
			}
		} else {
			w.WriteByte(0)
		}
	}

	for _, b := range m.Bones {
		if b.IsDummy {
			w.WriteByte(1)
			continue
		}
		w.WriteByte(0)
		str(b.Name, 32)
		i16(b.Parent)
		for a, act := range m.Actions {
			if act.Keys == 0 {
				continue
			}
			var keys BoneKeys
			if a < len(b.Actions) {
				keys = b.Actions[a]
			}
			for k := 0; k < act.Keys; k++ {
				var p [3]float32
				if k < len(keys.Positions) {
					p = keys.Positions[k]
				}
				vec(p)
			}
			for k := 0; k < act.Keys; k++ {
				var r [3]float32
				if k < len(keys.Rotations) {
					r = keys.Rotations[k]
				}
				vec(r)
			}
		}
	}
	return w.Bytes()
}
