package scene

// NodeID is the handle of a node inside a Scene's arena.
type NodeID int

// NoNode marks an absent node reference.
const NoNode NodeID = -1

// Metadata keys understood by the exporter header.
const (
	MetaAuthor     = "Author"
	MetaGenerator  = "SourceGenerator"
	MetaComments   = "Comments"
	MetaCopyright  = "Copyright"
	MetaSourceData = "SourceData"
	MetaCreated    = "Created"
	MetaTitle      = "Title"
	MetaSubject    = "Subject"
	MetaKeywords   = "Keywords"
	MetaRevision   = "Revision"
)

// Node is one element of the transform hierarchy.
type Node struct {
	Name string

	// DocID is an optional preferred document id; Name is used when empty.
	DocID string

	// Transform is the local transform, row-major.
	Transform Mat4

	Parent   NodeID
	Children []NodeID

	// Attached instances, as indices into the scene pools.
	Meshes  []int
	Cameras []int
	Lights  []int
}

// Scene is a complete model: a node tree and the pools it references.
type Scene struct {
	Root NodeID

	nodes []Node

	Meshes     []*Mesh
	Materials  []*Material
	Lights     []*Light
	Cameras    []*Camera
	Animations []*Animation
	Textures   []*Texture

	Metadata map[string]string
}

// New returns an empty scene without a root node.
func New() *Scene {
	return &Scene{Root: NoNode, Metadata: make(map[string]string)}
}

// AddNode appends a node under parent and returns its handle. Passing
// NoNode as parent makes the node the scene root when none is set yet;
// otherwise it becomes a detached node that is only reachable by handle.
func (s *Scene) AddNode(parent NodeID, name string, transform Mat4) NodeID {
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, Node{
		Name:      name,
		Transform: transform,
		Parent:    NoNode,
	})
	switch {
	case s.Valid(parent):
		s.nodes[id].Parent = parent
		s.nodes[parent].Children = append(s.nodes[parent].Children, id)
	case s.Root == NoNode:
		s.Root = id
	}
	return id
}

// Valid reports whether id refers to a node of this scene.
func (s *Scene) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes)
}

// Node returns the node for id, or nil when the handle is out of range.
func (s *Scene) Node(id NodeID) *Node {
	if !s.Valid(id) {
		return nil
	}
	return &s.nodes[id]
}

// NumNodes returns the arena size.
func (s *Scene) NumNodes() int {
	return len(s.nodes)
}

// Walk visits the tree below the root in pre-order. Returning false from
// fn skips the children of that node.
func (s *Scene) Walk(fn func(id NodeID, depth int) bool) {
	if !s.Valid(s.Root) {
		return
	}
	s.walk(s.Root, 0, fn)
}

func (s *Scene) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, c := range s.nodes[id].Children {
		if s.Valid(c) {
			s.walk(c, depth+1, fn)
		}
	}
}

// FindNode returns the first node in tree order with the given name.
func (s *Scene) FindNode(name string) NodeID {
	found := NoNode
	s.Walk(func(id NodeID, _ int) bool {
		if found != NoNode {
			return false
		}
		if s.nodes[id].Name == name {
			found = id
			return false
		}
		return true
	})
	return found
}

// AddMesh appends m and returns its index.
func (s *Scene) AddMesh(m *Mesh) int {
	s.Meshes = append(s.Meshes, m)
	return len(s.Meshes) - 1
}

// AddMaterial appends m and returns its index.
func (s *Scene) AddMaterial(m *Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddTexture appends an embedded texture and returns the material path
// that references it.
func (s *Scene) AddTexture(t *Texture) string {
	s.Textures = append(s.Textures, t)
	return EmbeddedPath(len(s.Textures) - 1)
}
