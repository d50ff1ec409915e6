package collada

import (
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"time"

	"mu-bmd-collada/internal/mathutil"
	"mu-bmd-collada/internal/scene"
)

const (
	defaultAuthor   = "mu-bmd-collada"
	defaultTool     = "mu-bmd-collada exporter"
	defaultExt      = ".dae"
	timestampLayout = "2006-01-02T15:04:05"
)

// TextureEncoder turns an embedded texture into file bytes.
type TextureEncoder interface {
	Encode(tex *scene.Texture) (data []byte, ext string, err error)
}

// Storage persists the finished files.
type Storage interface {
	Create(path string) (io.WriteCloser, error)
}

// Options tunes an export.
type Options struct {
	// Author and AuthoringTool fill the asset contributor when the scene
	// metadata does not.
	Author        string
	AuthoringTool string

	// Now stamps created/modified; defaults to time.Now.
	Now func() time.Time

	// Encoder converts embedded textures. Without one, compressed
	// payloads are written as-is and raw texels are an error.
	Encoder TextureEncoder

	// Extension of the document file, ".dae" by default.
	Extension string
}

func (o *Options) fill() {
	if o.Author == "" {
		o.Author = defaultAuthor
	}
	if o.AuthoringTool == "" {
		o.AuthoringTool = defaultTool
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Extension == "" {
		o.Extension = defaultExt
	}
}

// TextureFile is an embedded texture ready to be stored next to the
// document.
type TextureFile struct {
	Name string
	Data []byte
}

// Output is the result of one export pass.
type Output struct {
	Document []byte
	Textures []TextureFile
}

// Exporter writes one scene as a COLLADA 1.4.1 document. An Exporter is
// not safe for concurrent use; independent exporters may run in parallel.
type Exporter struct {
	scene *scene.Scene
	opts  Options
}

// New returns an exporter for sc. A nil scene is a programming error.
func New(sc *scene.Scene, opts Options) *Exporter {
	if sc == nil {
		panic("collada: nil scene")
	}
	opts.fill()
	return &Exporter{scene: sc, opts: opts}
}

// Build runs a full pass. file is the base name (no extension) used for
// texture file names.
func (e *Exporter) Build(file string) (*Output, error) {
	out := &Output{}
	textures, err := e.encodeTextures(file, out)
	if err != nil {
		return nil, err
	}

	p := &pass{
		w:        &writer{},
		reg:      NewRegistry(e.scene),
		scene:    e.scene,
		opts:     e.opts,
		textures: textures,
		imageIDs: make(map[string]string),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	out.Document = p.w.bytes()
	return out, nil
}

// Export builds the document and stores it as <dir>/<file><ext>, with the
// embedded textures alongside. It returns the stored paths, document first.
func (e *Exporter) Export(st Storage, dir, file string) ([]string, error) {
	out, err := e.Build(file)
	if err != nil {
		return nil, err
	}
	doc := path.Join(dir, file+e.opts.Extension)
	if err := store(st, doc, out.Document); err != nil {
		return nil, err
	}
	written := []string{doc}
	for _, t := range out.Textures {
		name := path.Join(dir, t.Name)
		if err := store(st, name, t.Data); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

func store(st Storage, name string, data []byte) error {
	wc, err := st.Create(name)
	if err != nil {
		return fmt.Errorf("collada: create %s: %w", name, err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("collada: write %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("collada: close %s: %w", name, err)
	}
	return nil
}

func (e *Exporter) encodeTextures(file string, out *Output) (map[int]string, error) {
	names := make(map[int]string, len(e.scene.Textures))
	for i, tex := range e.scene.Textures {
		if tex == nil {
			continue
		}
		var (
			data []byte
			ext  string
			err  error
		)
		switch {
		case e.opts.Encoder != nil:
			data, ext, err = e.opts.Encoder.Encode(tex)
		case tex.Compressed():
			data, ext = tex.Data, tex.FormatHint
		default:
			err = fmt.Errorf("no encoder for raw texels")
		}
		if err != nil {
			return nil, fmt.Errorf("collada: encode texture %d: %w", i, err)
		}
		if ext == "" {
			ext = "bin"
		}
		name := fmt.Sprintf("%s_texture_%04d.%s", file, i+1, ext)
		names[i] = name
		out.Textures = append(out.Textures, TextureFile{Name: name, Data: data})
	}
	return names, nil
}

// pass carries the state of one document construction.
type pass struct {
	w     *writer
	reg   *Registry
	scene *scene.Scene
	opts  Options

	// textures maps embedded texture indices to their file names.
	textures map[int]string
	// imageIDs maps texture paths to the id of their <image> entry.
	imageIDs map[string]string

	materials []materialSummary

	joints       map[scene.NodeID]bool
	meshSkeleton map[int]scene.NodeID

	addRoot bool
	unit    float64
	upAxis  string
}

func (p *pass) run() error {
	p.prescan()

	w := p.w
	w.raw(`<?xml version="1.0" encoding="UTF-8" standalone="no" ?>`)
	w.open("COLLADA", a("xmlns", "http://www.collada.org/2005/11/COLLADASchema"), a("version", "1.4.1"))
	p.writeHeader()
	p.writeImages()
	p.writeMaterials()
	p.writeCameras()
	p.writeLights()
	if err := p.writeControllers(); err != nil {
		return err
	}
	if err := p.writeGeometries(); err != nil {
		return err
	}
	if err := p.writeAnimations(); err != nil {
		return err
	}
	p.writeVisualScene()
	w.close("COLLADA")

	if d := w.depth(); d != 0 {
		return fmt.Errorf("collada: document left open at depth %d", d)
	}
	return nil
}

// prescan claims node and bone ids in tree order and resolves the
// skeleton roots, so every library written before the visual scene can
// reference them.
func (p *pass) prescan() {
	sc := p.scene
	sc.Walk(func(id scene.NodeID, _ int) bool {
		p.reg.NodeID(id)
		return true
	})

	p.joints = make(map[scene.NodeID]bool)
	for _, m := range sc.Meshes {
		if m == nil {
			continue
		}
		for _, b := range m.Bones {
			if sc.Valid(b.Node) {
				p.joints[b.Node] = true
			}
		}
	}
	sc.Walk(func(id scene.NodeID, _ int) bool {
		if p.joints[id] {
			p.reg.BoneID(id)
		}
		return true
	})

	p.meshSkeleton = make(map[int]scene.NodeID)
	for i, m := range sc.Meshes {
		if m == nil || len(m.Bones) == 0 {
			continue
		}
		if root := p.findSkeletonRoot(m); root != scene.NoNode {
			p.meshSkeleton[i] = root
		}
	}

	p.decideRoot()

	p.materials = make([]materialSummary, len(sc.Materials))
	for i := range sc.Materials {
		p.materials[i] = p.summarize(i)
	}
}

// findSkeletonRoot climbs from every bone of m to the topmost joint above
// it. A single top is the root; with several, the parent of the first top
// that has one joins them.
func (p *pass) findSkeletonRoot(m *scene.Mesh) scene.NodeID {
	var tops []scene.NodeID
	seen := make(map[scene.NodeID]bool)
	for _, b := range m.Bones {
		n := b.Node
		if !p.scene.Valid(n) {
			continue
		}
		for {
			parent := p.scene.Node(n).Parent
			if !p.joints[parent] {
				break
			}
			n = parent
		}
		if !seen[n] {
			seen[n] = true
			tops = append(tops, n)
		}
	}
	switch len(tops) {
	case 0:
		return p.sceneSkeleton()
	case 1:
		return tops[0]
	}
	for _, t := range tops {
		if parent := p.scene.Node(t).Parent; p.scene.Valid(parent) {
			return parent
		}
	}
	return tops[0]
}

// sceneSkeleton returns the first joint in tree order whose parent is not
// a joint.
func (p *pass) sceneSkeleton() scene.NodeID {
	found := scene.NoNode
	p.scene.Walk(func(id scene.NodeID, _ int) bool {
		if found != scene.NoNode {
			return false
		}
		if p.joints[id] && !p.joints[p.scene.Node(id).Parent] {
			found = id
			return false
		}
		return true
	})
	return found
}

// skeletonID returns the id referenced by the skin instance of mesh i. It
// is false when the tree holds no joint at all.
func (p *pass) skeletonID(mesh int) (string, bool) {
	root, ok := p.meshSkeleton[mesh]
	if !ok {
		return "", false
	}
	return p.reg.NodeID(root), true
}

// decideRoot folds the root transform into the unit and up axis when it
// is a pure uniform scale plus an axis convention. Anything else keeps the
// root as a real node, and so does an animation channel on the root.
func (p *pass) decideRoot() {
	p.unit = 1
	p.upAxis = "Y_UP"
	root := p.scene.Node(p.scene.Root)
	if root == nil || len(root.Children) == 0 ||
		len(root.Meshes)+len(root.Cameras)+len(root.Lights) > 0 ||
		p.rootAnimated() {
		p.addRoot = true
		return
	}
	scale, rot, trans := mathutil.Mat4From32(root.Transform).Decompose()
	uniform := math.Abs(scale[0]-scale[1]) < mathutil.Epsilon && math.Abs(scale[0]-scale[2]) < mathutil.Epsilon
	if !uniform || scale[0] <= 0 || !trans.IsZero() {
		p.addRoot = true
		return
	}
	switch {
	case rot.Equal(mathutil.UpAxisY, mathutil.Epsilon):
		p.upAxis = "Y_UP"
	case rot.Equal(mathutil.UpAxisZ, mathutil.Epsilon):
		p.upAxis = "Z_UP"
	case rot.Equal(mathutil.UpAxisX, mathutil.Epsilon):
		p.upAxis = "X_UP"
	default:
		p.addRoot = true
		return
	}
	p.unit = scale[0]
}

func (p *pass) rootAnimated() bool {
	for _, anim := range p.scene.Animations {
		if anim == nil {
			continue
		}
		for _, ch := range anim.Channels {
			if ch.Node == p.scene.Root {
				return true
			}
		}
	}
	return false
}

func (p *pass) meta(key string) string {
	return p.scene.Metadata[key]
}

func (p *pass) writeHeader() {
	w := p.w
	now := p.opts.Now().UTC().Format(timestampLayout)

	author := p.meta(scene.MetaAuthor)
	if author == "" {
		author = p.opts.Author
	}
	tool := p.meta(scene.MetaGenerator)
	if tool == "" {
		tool = p.opts.AuthoringTool
	}
	created := p.meta(scene.MetaCreated)
	if created == "" {
		created = now
	}

	w.open("asset")
	w.open("contributor")
	w.element("author", author)
	w.element("authoring_tool", tool)
	for _, f := range []struct{ key, tag string }{
		{scene.MetaComments, "comments"},
		{scene.MetaCopyright, "copyright"},
		{scene.MetaSourceData, "source_data"},
	} {
		if v := p.meta(f.key); v != "" {
			w.element(f.tag, v)
		}
	}
	w.close("contributor")
	w.element("created", created)
	w.element("modified", now)
	for _, f := range []struct{ key, tag string }{
		{scene.MetaTitle, "title"},
		{scene.MetaSubject, "subject"},
		{scene.MetaKeywords, "keywords"},
		{scene.MetaRevision, "revision"},
	} {
		if v := p.meta(f.key); v != "" {
			w.element(f.tag, v)
		}
	}
	w.empty("unit", a("name", "meter"), a("meter", strconv.FormatFloat(p.unit, 'g', -1, 32)))
	w.element("up_axis", p.upAxis)
	w.close("asset")
}

// meshWritable reports whether mesh i gets a geometry entry.
func (p *pass) meshWritable(i int) bool {
	if i < 0 || i >= len(p.scene.Meshes) {
		return false
	}
	m := p.scene.Meshes[i]
	return m != nil && len(m.Positions) > 0 && len(m.Faces) > 0
}

func (p *pass) validMaterial(i int) bool {
	return i >= 0 && i < len(p.materials)
}
