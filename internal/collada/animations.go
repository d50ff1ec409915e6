package collada

import (
	"mu-bmd-collada/internal/mathutil"
	"mu-bmd-collada/internal/scene"
)

// animChannel is a node channel with its keys baked into matrices.
type animChannel struct {
	nodeID   string
	times    []float32
	matrices []float32
	interp   string

	inputID, outputID, interpID, samplerID string
}

// bakeChannel validates ch and composes one T·R·S matrix per key. Channels
// whose node is unknown or whose key lists disagree in length are skipped.
func (p *pass) bakeChannel(anim *scene.Animation, ch *scene.NodeAnim) (animChannel, bool) {
	n := len(ch.Positions)
	if !p.scene.Valid(ch.Node) || n == 0 || len(ch.Rotations) != n || len(ch.Scalings) != n {
		return animChannel{}, false
	}
	c := animChannel{
		nodeID:   p.reg.NodeID(ch.Node),
		times:    make([]float32, n),
		matrices: make([]float32, 0, n*16),
		interp:   "LINEAR",
	}
	if ch.PreState == scene.BehaviourConstant || ch.PostState == scene.BehaviourConstant {
		c.interp = "STEP"
	}
	for k := 0; k < n; k++ {
		t := ch.Positions[k].Time
		if anim.TicksPerSecond > 0 {
			t /= anim.TicksPerSecond
		}
		c.times[k] = float32(t)

		r := ch.Rotations[k].Value
		q := mathutil.Quat{float64(r[0]), float64(r[1]), float64(r[2]), float64(r[3])}
		m := mathutil.Compose(
			mathutil.Vec3From32(ch.Positions[k].Value),
			q.Normalize(),
			mathutil.Vec3From32(ch.Scalings[k].Value),
		).Float32()
		c.matrices = append(c.matrices, m[:]...)
	}
	return c, true
}

func (p *pass) writeAnimations() error {
	type clip struct {
		index    int
		channels []animChannel
	}
	var clips []clip
	for i, anim := range p.scene.Animations {
		if anim == nil {
			continue
		}
		var chans []animChannel
		for k := range anim.Channels {
			if c, ok := p.bakeChannel(anim, &anim.Channels[k]); ok {
				chans = append(chans, c)
			}
		}
		if len(chans) > 0 {
			clips = append(clips, clip{i, chans})
		}
	}
	if len(clips) == 0 {
		return nil
	}

	p.w.open("library_animations")
	for _, cl := range clips {
		if err := p.writeAnimation(cl.index, cl.channels); err != nil {
			return err
		}
	}
	p.w.close("library_animations")
	return nil
}

func (p *pass) writeAnimation(i int, chans []animChannel) error {
	w := p.w
	id := p.reg.ObjectID(KindAnimation, i)
	w.open("animation", a("id", id), a("name", p.reg.ObjectName(KindAnimation, i)))

	for k := range chans {
		c := &chans[k]
		// two channels may drive the same node, so these are reserved
		// rather than derived
		base := id + "-" + c.nodeID + "_matrix"
		c.inputID = p.reg.Reserve(base + "-input")
		c.outputID = p.reg.Reserve(base + "-output")
		c.interpID = p.reg.Reserve(base + "-interpolation")
		c.samplerID = p.reg.Reserve(base + "-sampler")

		if err := p.writeFloatArray(c.inputID, FloatTime, c.times, len(c.times)); err != nil {
			return err
		}
		if err := p.writeFloatArray(c.outputID, FloatMat4x4, c.matrices, len(c.matrices)); err != nil {
			return err
		}
		interp := make([]string, len(c.times))
		for j := range interp {
			interp[j] = c.interp
		}
		p.writeNameArray(c.interpID, "INTERPOLATION", "name", interp)
	}

	for _, c := range chans {
		w.open("sampler", a("id", c.samplerID))
		w.empty("input", a("semantic", "INPUT"), a("source", "#"+c.inputID))
		w.empty("input", a("semantic", "OUTPUT"), a("source", "#"+c.outputID))
		w.empty("input", a("semantic", "INTERPOLATION"), a("source", "#"+c.interpID))
		w.close("sampler")
	}
	for _, c := range chans {
		w.empty("channel", a("source", "#"+c.samplerID), a("target", c.nodeID+"/matrix"))
	}

	w.close("animation")
	return nil
}
