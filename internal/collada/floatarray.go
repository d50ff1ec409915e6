package collada

import (
	"errors"
	"fmt"
	"strconv"
)

// FloatKind fixes the stride and accessor params of a float source.
type FloatKind int

const (
	FloatVector FloatKind = iota
	FloatTexCoord2
	FloatTexCoord3
	FloatColor
	FloatMat4x4
	FloatWeight
	FloatTime
)

// ErrArrayShape is returned when a buffer does not hold whole elements.
var ErrArrayShape = errors.New("collada: float array count does not match stride")

type param struct {
	name, typ string
}

var floatParams = map[FloatKind][]param{
	FloatVector:    {{"X", "float"}, {"Y", "float"}, {"Z", "float"}},
	FloatTexCoord2: {{"S", "float"}, {"T", "float"}},
	FloatTexCoord3: {{"S", "float"}, {"T", "float"}, {"P", "float"}},
	FloatColor:     {{"R", "float"}, {"G", "float"}, {"B", "float"}, {"A", "float"}},
	FloatMat4x4:    {{"TRANSFORM", "float4x4"}},
	FloatWeight:    {{"WEIGHT", "float"}},
	FloatTime:      {{"TIME", "float"}},
}

// Stride returns the number of scalars per element.
func (k FloatKind) Stride() int {
	switch k {
	case FloatVector, FloatTexCoord3:
		return 3
	case FloatTexCoord2:
		return 2
	case FloatColor:
		return 4
	case FloatMat4x4:
		return 16
	case FloatWeight, FloatTime:
		return 1
	}
	return 0
}

// formatFloat appends v in the shortest form that parses back to the same
// float32.
func formatFloat(dst []byte, v float32) []byte {
	return strconv.AppendFloat(dst, float64(v), 'g', -1, 32)
}

// writeFloatArray writes a <source> holding the first count scalars of
// data, with an accessor declaring count/stride elements of kind.
func (p *pass) writeFloatArray(id string, kind FloatKind, data []float32, count int) error {
	stride := kind.Stride()
	if stride == 0 {
		return fmt.Errorf("collada: unknown float kind %d for %s", kind, id)
	}
	if count < 0 || count > len(data) || count%stride != 0 {
		return fmt.Errorf("%w: %s has %d scalars, stride %d", ErrArrayShape, id, count, stride)
	}
	arrayID := p.reg.DerivedID(id, "array")
	w := p.w

	w.open("source", a("id", id), a("name", id))
	w.elementList("float_array", count, func(dst []byte, i int) []byte {
		return formatFloat(dst, data[i])
	}, a("id", arrayID), a("count", strconv.Itoa(count)))

	w.open("technique_common")
	w.open("accessor",
		a("count", strconv.Itoa(count/stride)),
		a("offset", "0"),
		a("source", "#"+arrayID),
		a("stride", strconv.Itoa(stride)))
	for _, pr := range floatParams[kind] {
		w.empty("param", a("name", pr.name), a("type", pr.typ))
	}
	w.close("accessor")
	w.close("technique_common")
	w.close("source")
	return nil
}

// writeNameArray writes a <source> of names with a single param.
func (p *pass) writeNameArray(id, paramName, paramType string, names []string) {
	arrayID := p.reg.DerivedID(id, "array")
	w := p.w
	w.open("source", a("id", id), a("name", id))
	w.elementList("Name_array", len(names), func(dst []byte, i int) []byte {
		return append(dst, names[i]...)
	}, a("id", arrayID), a("count", strconv.Itoa(len(names))))
	w.open("technique_common")
	w.open("accessor",
		a("source", "#"+arrayID),
		a("count", strconv.Itoa(len(names))),
		a("stride", "1"))
	w.empty("param", a("name", paramName), a("type", paramType))
	w.close("accessor")
	w.close("technique_common")
	w.close("source")
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, e := range v {
		out = append(out, e[0], e[1], e[2])
	}
	return out
}

func flatten2(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*2)
	for _, e := range v {
		out = append(out, e[0], e[1])
	}
	return out
}

func flatten4(v [][4]float32) []float32 {
	out := make([]float32, 0, len(v)*4)
	for _, e := range v {
		out = append(out, e[0], e[1], e[2], e[3])
	}
	return out
}
