package collada

import (
	"strconv"

	"mu-bmd-collada/internal/scene"
)

// ObjectKind names one of the indexed scene pools.
type ObjectKind int

const (
	KindMesh ObjectKind = iota
	KindMaterial
	KindAnimation
	KindLight
	KindCamera
)

func (k ObjectKind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindMaterial:
		return "material"
	case KindAnimation:
		return "animation"
	case KindLight:
		return "light"
	case KindCamera:
		return "camera"
	}
	return "object"
}

// idPostfix keeps light and camera ids apart from geometry ids that were
// derived from the same node name.
func (k ObjectKind) idPostfix() string {
	switch k {
	case KindLight:
		return "-light"
	case KindCamera:
		return "-camera"
	}
	return ""
}

const bonePrefix = "bone_"

type objectKey struct {
	kind  ObjectKind
	index int
}

type derivedKey struct {
	base, suffix string
}

// Registry mints document ids and display names for one export pass.
// Ids and names live in separate pools: a clash in one never forces a
// suffix in the other. Every lookup is cached, so asking twice for the
// same handle or (kind, index) pair returns the same string.
type Registry struct {
	scene *scene.Scene

	ids   map[string]struct{}
	names map[string]struct{}

	nodeIDs     map[scene.NodeID]string
	boneIDs     map[scene.NodeID]string
	objectIDs   map[objectKey]string
	objectNames map[objectKey]string
	derived     map[derivedKey]string
}

// NewRegistry returns an empty registry for sc.
func NewRegistry(sc *scene.Scene) *Registry {
	return &Registry{
		scene:       sc,
		ids:         make(map[string]struct{}),
		names:       make(map[string]struct{}),
		nodeIDs:     make(map[scene.NodeID]string),
		boneIDs:     make(map[scene.NodeID]string),
		objectIDs:   make(map[objectKey]string),
		objectNames: make(map[objectKey]string),
		derived:     make(map[derivedKey]string),
	}
}

// NodeID returns the document id of node h.
func (r *Registry) NodeID(h scene.NodeID) string {
	if id, ok := r.nodeIDs[h]; ok {
		return id
	}
	candidate := ""
	if n := r.scene.Node(h); n != nil {
		candidate = n.DocID
		if candidate == "" {
			candidate = n.Name
		}
	}
	if candidate == "" {
		candidate = "node"
	} else {
		candidate = SanitizeID(candidate)
	}
	id := r.claim(candidate, "")
	r.nodeIDs[h] = id
	return id
}

// NodeName returns the display name of node h.
func (r *Registry) NodeName(h scene.NodeID) string {
	if n := r.scene.Node(h); n != nil {
		return n.Name
	}
	return ""
}

// BoneID returns the joint id for the bone bound to node h. Bone ids carry
// a prefix so they never equal a node id derived from the same name.
func (r *Registry) BoneID(h scene.NodeID) string {
	if id, ok := r.boneIDs[h]; ok {
		return id
	}
	name := ""
	if n := r.scene.Node(h); n != nil {
		name = n.Name
	}
	if name == "" {
		name = strconv.Itoa(int(h))
	}
	id := r.claim(bonePrefix+sanitizeChars(name), "")
	r.boneIDs[h] = id
	return id
}

// ObjectID returns the document id of pool entry (kind, index).
func (r *Registry) ObjectID(kind ObjectKind, index int) string {
	key := objectKey{kind, index}
	if id, ok := r.objectIDs[key]; ok {
		return id
	}
	r.addObject(key)
	return r.objectIDs[key]
}

// ObjectName returns the display name of pool entry (kind, index).
func (r *Registry) ObjectName(kind ObjectKind, index int) string {
	key := objectKey{kind, index}
	if name, ok := r.objectNames[key]; ok {
		return name
	}
	r.addObject(key)
	return r.objectNames[key]
}

// DerivedID returns the id of a sub-element of base, such as the
// positions source of a geometry. The result is registered like any other
// id, so it cannot shadow an object whose name happens to look derived.
func (r *Registry) DerivedID(base, suffix string) string {
	key := derivedKey{base, suffix}
	if id, ok := r.derived[key]; ok {
		return id
	}
	id := r.claim(SanitizeID(base+"-"+suffix), "")
	r.derived[key] = id
	return id
}

// Reserve claims a fresh id built from candidate.
func (r *Registry) Reserve(candidate string) string {
	return r.claim(SanitizeID(candidate), "")
}

func (r *Registry) addObject(key objectKey) {
	name := r.sourceName(key)
	var id string
	if name == "" {
		id = key.kind.String() + "_" + strconv.Itoa(key.index)
		name = key.kind.String() + "-" + strconv.Itoa(key.index)
	} else {
		id = SanitizeID(name)
	}
	r.objectIDs[key] = r.claim(id, key.kind.idPostfix())
	r.objectNames[key] = r.claimName(name)
}

func (r *Registry) sourceName(key objectKey) string {
	sc := r.scene
	i := key.index
	switch key.kind {
	case KindMesh:
		if i >= 0 && i < len(sc.Meshes) && sc.Meshes[i] != nil {
			return sc.Meshes[i].Name
		}
	case KindMaterial:
		if i >= 0 && i < len(sc.Materials) && sc.Materials[i] != nil {
			return sc.Materials[i].Name
		}
	case KindAnimation:
		if i >= 0 && i < len(sc.Animations) && sc.Animations[i] != nil {
			return sc.Animations[i].Name
		}
	case KindLight:
		if i >= 0 && i < len(sc.Lights) && sc.Lights[i] != nil {
			return sc.Lights[i].Name
		}
	case KindCamera:
		if i >= 0 && i < len(sc.Cameras) && sc.Cameras[i] != nil {
			return sc.Cameras[i].Name
		}
	}
	return ""
}

// claim returns prefix+postfix, or prefix_N+postfix for the first free N,
// and marks it used.
func (r *Registry) claim(prefix, postfix string) string {
	id := uniqueIn(r.ids, prefix, postfix)
	r.ids[id] = struct{}{}
	return id
}

func (r *Registry) claimName(name string) string {
	n := uniqueIn(r.names, name, "")
	r.names[n] = struct{}{}
	return n
}

func uniqueIn(used map[string]struct{}, prefix, postfix string) string {
	candidate := prefix + postfix
	if _, taken := used[candidate]; !taken {
		return candidate
	}
	for n := 1; ; n++ {
		candidate = prefix + "_" + strconv.Itoa(n) + postfix
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

const idChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-."

// SanitizeID maps s onto the xsd:ID alphabet. Invalid bytes are replaced
// by a character picked from the byte value, which keeps distinct inputs
// mostly distinct. The result starts with a letter or underscore.
func SanitizeID(s string) string {
	if s == "" {
		return s
	}
	out := sanitizeChars(s)
	c := out[0]
	if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_') {
		out = "_" + out
	}
	return out
}

func sanitizeChars(s string) string {
	b := []byte(s)
	for i, c := range b {
		if !isIDChar(c) {
			b[i] = idChars[int(c)%len(idChars)]
		}
	}
	return string(b)
}

func isIDChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '.'
}
