package bmd

// Triangle holds polygon type and index tuples into vertex/normal/texcoord arrays.
// Polygon == 4 means quad (two triangles: 0-1-2 and 0-2-3).
type Triangle struct {
	Polygon int
	VI      [4]int16
	NI      [4]int16
	TI      [4]int16
}

// Corners returns the number of used index slots: 4 for quads, else 3.
func (t Triangle) Corners() int {
	if t.Polygon == 4 {
		return 4
	}
	return 3
}

// Mesh holds parsed geometry for one sub-mesh within a BMD file.
type Mesh struct {
	Verts       [][3]float32 // vertex positions, mutable for bone transforms
	Nodes       []int16      // bone index per vertex
	Normals     [][3]float32
	NormalNodes []int16 // bone index per normal
	UVs         [][2]float32
	Tris        []Triangle
	TexIndex    int16
	TexPath     string // texture reference from BMD (e.g. "sword04.jpg")
}

// Action is one animation clip: a key count shared by every bone.
type Action struct {
	Keys int

	// LockPositions marks clips whose root motion is stored separately;
	// Positions then holds one offset per key.
	LockPositions bool
	Positions     [][3]float32
}

// BoneKeys holds one bone's keys for one action.
type BoneKeys struct {
	Positions [][3]float32
	Rotations [][3]float32 // Euler XYZ radians
}

// Bone holds bind-pose and animation data for one bone in the skeleton hierarchy.
type Bone struct {
	Name         string
	Parent       int
	IsDummy      bool
	BindPosition [3]float64
	BindRotation [3]float64 // Euler XYZ radians

	// Actions is indexed like Model.Actions.
	Actions []BoneKeys
}

// Model is a parsed BMD file.
type Model struct {
	Name    string
	Version byte
	Meshes  []Mesh
	Actions []Action
	Bones   []Bone
}
