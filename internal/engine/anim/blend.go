package anim

import (
	"github.com/godsgame/engine/internal/engine/skeleton"
	"github.com/godsgame/engine/pkg/math"
)

// blendState tracks one in-progress cross-fade for a model. At most one
// exists per model; starting a new blend replaces it.
type blendState struct {
	from int
	to   int
	// duration is the requested fade length in seconds, always > 0.
	duration float32
	// progress runs 0..1; at 1 the target clip takes over.
	progress float32
	// toTime is the target clip's own clock, advancing alongside the
	// model's clock so the fade lands mid-motion rather than on a frozen
	// first frame.
	toTime float32

	// Scratch poses so per-frame blending does not allocate.
	fromPose []skeleton.JointTransform
	toPose   []skeleton.JointTransform
}

func newBlendState(from, to int, duration float32, joints int) *blendState {
	return &blendState{
		from:     from,
		to:       to,
		duration: duration,
		fromPose: make([]skeleton.JointTransform, joints),
		toPose:   make([]skeleton.JointTransform, joints),
	}
}

// mixPoses interpolates two local-transform sets into out: translation and
// scale lerp, rotation slerp.
func mixPoses(from, to []skeleton.JointTransform, t float32, out []skeleton.JointTransform) {
	for i := range out {
		out[i] = skeleton.JointTransform{
			Translation: math.LerpVec3(from[i].Translation, to[i].Translation, t),
			Rotation:    from[i].Rotation.Slerp(to[i].Rotation, t),
			Scale:       math.LerpVec3(from[i].Scale, to[i].Scale, t),
		}
	}
}
