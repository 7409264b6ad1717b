// Package anim implements the per-frame animation core: keyframe sampling,
// cross-fade blending, and the playback controller that drives every loaded
// model's pose once per frame.
package anim

import (
	"github.com/godsgame/engine/internal/engine/skeleton"
	"github.com/godsgame/engine/pkg/math"
)

// SamplePose evaluates every channel of clip at the given time and writes
// the interpolated values into local. Properties without a channel are left
// untouched, so the caller decides the fallback (normally the rest pose).
//
// Looping is the caller's concern: time must already be wrapped into
// [0, duration]. Outside the keyframe range the nearest keyframe is used,
// never extrapolated.
func SamplePose(clip *skeleton.Clip, time float32, local []skeleton.JointTransform) {
	for ci := range clip.Channels {
		ch := &clip.Channels[ci]
		if len(ch.Keyframes) == 0 || ch.Joint < 0 || ch.Joint >= len(local) {
			continue
		}

		k0, k1, t := bracket(ch.Keyframes, time)
		v0 := &ch.Keyframes[k0].Value
		v1 := &ch.Keyframes[k1].Value

		jt := &local[ch.Joint]
		switch ch.Property {
		case skeleton.Translation:
			jt.Translation = math.LerpVec3(
				[3]float32{v0[0], v0[1], v0[2]},
				[3]float32{v1[0], v1[1], v1[2]}, t)
		case skeleton.Rotation:
			q0 := math.Quat{X: v0[0], Y: v0[1], Z: v0[2], W: v0[3]}
			q1 := math.Quat{X: v1[0], Y: v1[1], Z: v1[2], W: v1[3]}
			jt.Rotation = q0.Slerp(q1, t)
		case skeleton.Scale:
			jt.Scale = math.LerpVec3(
				[3]float32{v0[0], v0[1], v0[2]},
				[3]float32{v1[0], v1[1], v1[2]}, t)
		}
	}
}

// bracket finds the keyframe pair surrounding time and the interpolation
// factor between them. Before the first keyframe or at/after the last it
// clamps to that single keyframe with factor 0.
func bracket(keys []skeleton.Keyframe, time float32) (k0, k1 int, t float32) {
	last := len(keys) - 1
	if time <= keys[0].Time {
		return 0, 0, 0
	}
	if time >= keys[last].Time {
		return last, last, 0
	}
	for i := 0; i < last; i++ {
		if time >= keys[i].Time && time < keys[i+1].Time {
			span := keys[i+1].Time - keys[i].Time
			if span <= 0 {
				return i, i, 0
			}
			return i, i + 1, (time - keys[i].Time) / span
		}
	}
	return last, last, 0
}
