package convert

import (
	"fmt"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/mathutil"
	"mu-bmd-collada/internal/scene"
)

// buildAnimations turns each action into a clip with one channel per bone.
// Key k plays at k / FrameRate seconds. Locked actions keep root bones at
// their first key's X/Y so the clip plays in place.
func (c *converter) buildAnimations() {
	for a, act := range c.model.Actions {
		if act.Keys <= 0 {
			continue
		}
		anim := &scene.Animation{
			Name:           fmt.Sprintf("Action%02d", a),
			Duration:       float64(act.Keys - 1),
			TicksPerSecond: c.opts.FrameRate,
		}
		for b := range c.model.Bones {
			if ch, ok := c.channel(b, a, act); ok {
				anim.Channels = append(anim.Channels, ch)
			}
		}
		if len(anim.Channels) > 0 {
			c.sc.Animations = append(c.sc.Animations, anim)
			c.rep.Animations++
		}
	}
}

func (c *converter) channel(b, a int, act bmd.Action) (scene.NodeAnim, bool) {
	node := c.boneNode(b)
	bone := &c.model.Bones[b]
	if node == scene.NoNode || a >= len(bone.Actions) {
		return scene.NodeAnim{}, false
	}
	keys := bone.Actions[a]
	n := min(len(keys.Positions), len(keys.Rotations), act.Keys)
	if n == 0 {
		return scene.NodeAnim{}, false
	}

	ch := scene.NodeAnim{
		Node:      node,
		Positions: make([]scene.VectorKey, n),
		Rotations: make([]scene.QuatKey, n),
		Scalings:  make([]scene.VectorKey, n),
	}
	lock := act.LockPositions && bone.Parent < 0
	for k := 0; k < n; k++ {
		t := float64(k)
		pos := keys.Positions[k]
		if lock {
			pos[0], pos[1] = keys.Positions[0][0], keys.Positions[0][1]
		}
		r := keys.Rotations[k]
		q := mathutil.EulerToQuat(float64(r[0]), float64(r[1]), float64(r[2]))

		ch.Positions[k] = scene.VectorKey{Time: t, Value: pos}
		ch.Rotations[k] = scene.QuatKey{Time: t, Value: [4]float32{float32(q[0]), float32(q[1]), float32(q[2]), float32(q[3])}}
		ch.Scalings[k] = scene.VectorKey{Time: t, Value: [3]float32{1, 1, 1}}
	}
	return ch, true
}
