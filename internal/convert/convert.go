// Package convert builds a scene from a parsed BMD model.
package convert

import (
	"errors"
	"fmt"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/filter"
	"mu-bmd-collada/internal/rig"
	"mu-bmd-collada/internal/scene"
	"mu-bmd-collada/internal/skeleton"
	"mu-bmd-collada/internal/texture"
	"mu-bmd-collada/internal/trs"
)

// DefaultFrameRate is the playback rate of BMD actions in keys per second.
const DefaultFrameRate = 25.0

// ErrNilModel is returned when no model is given.
var ErrNilModel = errors.New("convert: nil model")

// Options controls the conversion.
type Options struct {
	// Name names the root node; the model name is used when empty.
	Name string

	// Source is recorded as the document's source data.
	Source string

	// Author is recorded in the document header when set.
	Author string

	// Textures resolves texture names. Without it textures are referenced
	// by their file name.
	Textures texture.Resolver

	// FrameRate converts action keys to seconds. Zero uses DefaultFrameRate.
	FrameRate float64

	DropBodyMeshes   bool
	DropEffectMeshes bool

	// TRS is the item's display transform. It selects bone usage and the
	// preview view; ApplyTRS also places the model under a "Display" node
	// carrying it.
	TRS      *trs.Entry
	ApplyTRS bool

	// Preview adds a camera and lights framing the model.
	Preview bool
}

// Report summarises what a conversion kept and dropped.
type Report struct {
	Meshes          int
	DroppedMeshes   int
	EffectMeshes    int
	Bones           int
	Animations      int
	MissingTextures []string
}

type converter struct {
	model *bmd.Model
	opts  Options
	sc    *scene.Scene
	rep   Report

	useBones  bool
	pose      skeleton.Pose
	boneNodes []scene.NodeID

	// embedded maps a texture file path to its material path.
	embedded map[string]string
}

// Model converts m into a scene. The node tree is
// root → [Display →] Skeleton, one node per mesh and the optional Preview
// group.
func Model(m *bmd.Model, opts Options) (*scene.Scene, Report, error) {
	if m == nil {
		return nil, Report{}, ErrNilModel
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	c := &converter{
		model:    m,
		opts:     opts,
		sc:       scene.New(),
		useBones: rig.UseBones(opts.TRS),
		embedded: make(map[string]string),
	}
	c.run()
	return c.sc, c.rep, nil
}

func (c *converter) run() {
	c.meta()

	name := c.opts.Name
	if name == "" {
		name = c.model.Name
	}
	if name == "" {
		name = "Model"
	}
	root := c.sc.AddNode(scene.NoNode, name, scene.Identity())

	content := root
	if c.opts.ApplyTRS && c.opts.TRS != nil {
		content = c.sc.AddNode(root, "Display", c.opts.TRS.Matrix().Float32())
	}

	c.pose = skeleton.BindPose(c.model.Bones)
	c.buildSkeleton(content)

	var bounds rig.Bounds
	keepEffects := c.opts.TRS != nil && c.opts.TRS.KeepAllMeshes
	for i := range c.model.Meshes {
		bm := &c.model.Meshes[i]
		kind := filter.Classify(bm)
		switch {
		case kind == filter.KindBody && c.opts.DropBodyMeshes,
			kind == filter.KindEffect && c.opts.DropEffectMeshes && !keepEffects:
			c.rep.DroppedMeshes++
			continue
		}

		mesh := c.buildMesh(i, bm)
		if len(mesh.Faces) == 0 {
			c.rep.DroppedMeshes++
			continue
		}
		for _, p := range mesh.Positions {
			bounds.Add(p)
		}
		if kind == filter.KindEffect {
			c.rep.EffectMeshes++
		}

		mesh.Material = c.sc.AddMaterial(c.buildMaterial(i, bm, kind))
		node := c.sc.AddNode(content, mesh.Name, scene.Identity())
		c.sc.Node(node).Meshes = []int{c.sc.AddMesh(mesh)}
		c.rep.Meshes++
	}

	c.buildAnimations()

	if c.opts.Preview {
		rig.Add(c.sc, content, bounds, rig.ViewMatrix(c.opts.TRS), c.opts.TRS.FieldOfView(), rig.DefaultLighting())
	}
}

func (c *converter) meta() {
	md := c.sc.Metadata
	md[scene.MetaTitle] = c.model.Name
	md[scene.MetaComments] = fmt.Sprintf("BMD version %d", c.model.Version)
	if c.opts.Source != "" {
		md[scene.MetaSourceData] = c.opts.Source
	}
	if c.opts.Author != "" {
		md[scene.MetaAuthor] = c.opts.Author
	}
}

// buildSkeleton mirrors the bone hierarchy under a "Skeleton" node. Dummy
// bones get no node. Without bone transforms the vertices stay in bone
// space, so no skeleton is built at all.
func (c *converter) buildSkeleton(parent scene.NodeID) {
	bones := c.model.Bones
	c.boneNodes = make([]scene.NodeID, len(bones))
	for i := range c.boneNodes {
		c.boneNodes[i] = scene.NoNode
	}
	if !c.useBones || !hasBones(bones) {
		return
	}

	skel := c.sc.AddNode(parent, "Skeleton", scene.Identity())
	for i := range bones {
		b := &bones[i]
		if b.IsDummy {
			continue
		}
		p := skel
		if b.Parent >= 0 && b.Parent < i && c.boneNodes[b.Parent] != scene.NoNode {
			p = c.boneNodes[b.Parent]
		}
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("Bone%02d", i)
		}
		c.boneNodes[i] = c.sc.AddNode(p, name, c.pose.Local[i].Float32())
		c.rep.Bones++
	}
}

func hasBones(bones []bmd.Bone) bool {
	for i := range bones {
		if !bones[i].IsDummy {
			return true
		}
	}
	return false
}

// boneNode returns the joint node of bone i, or NoNode.
func (c *converter) boneNode(i int) scene.NodeID {
	if i < 0 || i >= len(c.boneNodes) {
		return scene.NoNode
	}
	return c.boneNodes[i]
}
