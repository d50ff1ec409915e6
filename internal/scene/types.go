package scene

import (
	"image"
	"strconv"
	"strings"
)

// Mat4 is a row-major 4×4 matrix.
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RGBA is a linear color with alpha.
type RGBA struct {
	R, G, B, A float32
}

// RGB is a light color.
type RGB struct {
	R, G, B float32
}

// MaxTexCoords and MaxColorSets bound the per-vertex channel sets of a mesh.
const (
	MaxTexCoords = 8
	MaxColorSets = 8
)

// Face is a polygon (or a line when it has two indices) over mesh vertices.
type Face struct {
	Indices []uint32
}

// VertexWeight is one bone influence.
type VertexWeight struct {
	Vertex int
	Weight float32
}

// Bone binds mesh vertices to a joint node.
type Bone struct {
	Name string

	// Node is the joint node this bone deforms with.
	Node NodeID

	// Offset is the inverse bind matrix: model space to bone space.
	Offset Mat4

	Weights []VertexWeight
}

// Mesh is an indexed polygon mesh. All per-vertex arrays that are present
// have len(Positions) entries.
type Mesh struct {
	Name string

	Positions [][3]float32
	Normals   [][3]float32

	// TexCoords holds up to MaxTexCoords sets; UVComponents gives 2 or 3
	// meaningful components per set.
	TexCoords    [MaxTexCoords][][3]float32
	UVComponents [MaxTexCoords]int

	Colors [MaxColorSets][][4]float32

	Faces []Face
	Bones []Bone

	// Material indexes Scene.Materials.
	Material int
}

// HasNormals reports whether every vertex has a normal.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Positions)
}

// HasTexCoords reports whether UV set i covers every vertex.
func (m *Mesh) HasTexCoords(i int) bool {
	return i >= 0 && i < MaxTexCoords && len(m.TexCoords[i]) > 0 && len(m.TexCoords[i]) == len(m.Positions)
}

// HasColors reports whether color set i covers every vertex.
func (m *Mesh) HasColors(i int) bool {
	return i >= 0 && i < MaxColorSets && len(m.Colors[i]) > 0 && len(m.Colors[i]) == len(m.Positions)
}

// Channel names one material surface channel.
type Channel int

const (
	ChannelAmbient Channel = iota
	ChannelDiffuse
	ChannelSpecular
	ChannelEmissive
	ChannelReflective
	ChannelTransparent
	ChannelNormal
)

// Scalar names one scalar material property.
type Scalar int

const (
	ScalarShininess Scalar = iota
	ScalarOpacity
	ScalarRefraction
)

// Shading is the lighting model of a material.
type Shading int

const (
	ShadingUnset Shading = iota
	ShadingPhong
	ShadingBlinn
	ShadingConstant
	ShadingLambert
)

// TextureRef is a texture bound to a material channel. Path is either a
// file reference or an embedded reference produced by EmbeddedPath.
type TextureRef struct {
	Path      string
	UVChannel int
}

// Material holds textures, flat colors and scalars per channel.
type Material struct {
	Name    string
	Shading Shading

	// Textures lists the texture slots of each channel.
	Textures map[Channel][]TextureRef
	Colors   map[Channel]RGBA
	Scalars  map[Scalar]float32
}

// NewMaterial returns a material with initialised maps.
func NewMaterial(name string) *Material {
	return &Material{
		Name:     name,
		Textures: make(map[Channel][]TextureRef),
		Colors:   make(map[Channel]RGBA),
		Scalars:  make(map[Scalar]float32),
	}
}

// Texture returns slot i of channel ch.
func (m *Material) Texture(ch Channel, i int) (TextureRef, bool) {
	slots := m.Textures[ch]
	if i < 0 || i >= len(slots) || slots[i].Path == "" {
		return TextureRef{}, false
	}
	return slots[i], true
}

// LightType selects the light model.
type LightType int

const (
	LightUndefined LightType = iota
	LightDirectional
	LightPoint
	LightSpot
	LightAmbient
	LightArea
)

// Light is a light source; it is positioned by the nodes that reference it.
type Light struct {
	Name string
	Type LightType

	Diffuse RGB
	Ambient RGB

	AttenuationConstant  float32
	AttenuationLinear    float32
	AttenuationQuadratic float32

	// Cone angles in radians, spot lights only.
	InnerCone float32
	OuterCone float32
}

// Camera is a perspective camera. Position, Up and LookAt are in the space
// of the node that references it.
type Camera struct {
	Name string

	// HorizontalFOV is in radians.
	HorizontalFOV float32
	Aspect        float32
	Near, Far     float32

	Position [3]float32
	Up       [3]float32
	LookAt   [3]float32
}

// NewCamera returns a camera looking down -Z with a 45° field of view.
func NewCamera(name string) *Camera {
	return &Camera{
		Name:          name,
		HorizontalFOV: 0.785398,
		Near:          0.1,
		Far:           1000,
		Up:            [3]float32{0, 1, 0},
		LookAt:        [3]float32{0, 0, -1},
	}
}

// Behaviour controls how an animation channel extrapolates.
type Behaviour int

const (
	BehaviourDefault Behaviour = iota
	BehaviourConstant
	BehaviourLinear
	BehaviourRepeat
)

// VectorKey is a timed position or scale.
type VectorKey struct {
	Time  float64
	Value [3]float32
}

// QuatKey is a timed rotation (x, y, z, w).
type QuatKey struct {
	Time  float64
	Value [4]float32
}

// NodeAnim animates the transform of one node.
type NodeAnim struct {
	Node NodeID

	Positions []VectorKey
	Rotations []QuatKey
	Scalings  []VectorKey

	PreState  Behaviour
	PostState Behaviour
}

// Animation is a named clip. Key times are in ticks.
type Animation struct {
	Name           string
	Duration       float64
	TicksPerSecond float64
	Channels       []NodeAnim
}

// Texture is an embedded image. Compressed payloads (Data, with a format
// hint such as "jpg") are stored as-is; decoded texels live in Image.
type Texture struct {
	Name       string
	FormatHint string
	Data       []byte
	Image      *image.NRGBA
}

// Compressed reports whether the texture carries an encoded file payload.
func (t *Texture) Compressed() bool {
	return t.Image == nil && len(t.Data) > 0
}

// EmbeddedPath returns the material path for embedded texture i.
func EmbeddedPath(i int) string {
	return "*" + strconv.Itoa(i)
}

// ParseEmbedded extracts the texture index from an embedded path.
func ParseEmbedded(path string) (int, bool) {
	rest, ok := strings.CutPrefix(path, "*")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
