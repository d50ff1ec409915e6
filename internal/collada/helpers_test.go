package collada

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mu-bmd-collada/internal/scene"
)

// elem is a parsed document element.
type elem struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*elem
	Parent   *elem
}

func (e *elem) Attr(k string) string { return e.Attrs[k] }

// All returns every descendant named name, in document order.
func (e *elem) All(name string) []*elem {
	var out []*elem
	var walk func(*elem)
	walk = func(x *elem) {
		for _, c := range x.Children {
			if c.Name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// First returns the first descendant named name, or nil.
func (e *elem) First(name string) *elem {
	if all := e.All(name); len(all) > 0 {
		return all[0]
	}
	return nil
}

// Direct returns the direct children named name.
func (e *elem) Direct(name string) []*elem {
	var out []*elem
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ByID returns the element whose id attribute is id.
func (e *elem) ByID(id string) *elem {
	var found *elem
	var walk func(*elem)
	walk = func(x *elem) {
		for _, c := range x.Children {
			if found != nil {
				return
			}
			if c.Attrs["id"] == id {
				found = c
				return
			}
			walk(c)
		}
	}
	walk(e)
	return found
}

// parseDoc decodes doc and fails the test when it is not well formed.
func parseDoc(t *testing.T, doc []byte) *elem {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(doc))
	root := &elem{Name: "#document"}
	cur := root
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch tk := tok.(type) {
		case xml.StartElement:
			e := &elem{Name: tk.Name.Local, Attrs: make(map[string]string), Parent: cur}
			for _, at := range tk.Attr {
				e.Attrs[at.Name.Local] = at.Value
			}
			cur.Children = append(cur.Children, e)
			cur = e
		case xml.EndElement:
			cur = cur.Parent
		case xml.CharData:
			cur.Text += strings.TrimSpace(string(tk))
		}
	}
	require.Same(t, root, cur, "unbalanced document")
	return root
}

var fixedNow = func() time.Time {
	return time.Date(2024, 3, 9, 10, 11, 12, 0, time.UTC)
}

func build(t *testing.T, sc *scene.Scene) (*elem, []byte) {
	t.Helper()
	out, err := New(sc, Options{Now: fixedNow}).Build("model")
	require.NoError(t, err)
	return parseDoc(t, out.Document), out.Document
}

// newPass returns a pass over sc with an empty writer, for testing the
// library writers in isolation.
func newPass(sc *scene.Scene) *pass {
	opts := Options{Now: fixedNow}
	opts.fill()
	return &pass{
		w:        &writer{},
		reg:      NewRegistry(sc),
		scene:    sc,
		opts:     opts,
		textures: map[int]string{},
		imageIDs: map[string]string{},
	}
}

// skinnedScene builds root -> {Armature -> Hips -> Spine, Body(mesh 0)}
// with a two-bone mesh.
func skinnedScene() (*scene.Scene, map[string]scene.NodeID) {
	sc := scene.New()
	ids := map[string]scene.NodeID{}
	ids["Root"] = sc.AddNode(scene.NoNode, "Root", scene.Identity())
	ids["Armature"] = sc.AddNode(ids["Root"], "Armature", scene.Identity())
	ids["Hips"] = sc.AddNode(ids["Armature"], "Hips", scene.Identity())
	ids["Spine"] = sc.AddNode(ids["Hips"], "Spine", scene.Identity())
	ids["Body"] = sc.AddNode(ids["Root"], "Body", scene.Identity())

	mesh := &scene.Mesh{
		Name:      "Body",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:     []scene.Face{{Indices: []uint32{0, 1, 2}}},
		Bones: []scene.Bone{
			{Name: "Hips", Node: ids["Hips"], Offset: scene.Identity(),
				Weights: []scene.VertexWeight{{Vertex: 0, Weight: 1}, {Vertex: 1, Weight: 0.5}}},
			{Name: "Spine", Node: ids["Spine"], Offset: scene.Identity(),
				Weights: []scene.VertexWeight{{Vertex: 1, Weight: 0.5}, {Vertex: 2, Weight: 1}}},
		},
	}
	sc.AddMesh(mesh)
	sc.Node(ids["Body"]).Meshes = []int{0}
	return sc, ids
}
