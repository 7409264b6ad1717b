package skeleton

import "github.com/godsgame/engine/pkg/math"

// Pose is the mutable per-instance animation state for one skeleton: local
// joint transforms written by the sampler, plus scratch global matrices and
// the final skinning-matrix buffer consumed by the renderer.
type Pose struct {
	// Local holds one transform per joint, relative to the joint's parent.
	Local []JointTransform

	global []math.Mat4
	// bones is the flat joint-count*16 skinning buffer, column-major.
	bones []float32
}

// NewPose allocates a pose for sk, initialized to the rest pose with
// identity skinning matrices.
func NewPose(sk *Skeleton) *Pose {
	n := sk.Len()
	p := &Pose{
		Local:  make([]JointTransform, n),
		global: make([]math.Mat4, n),
		bones:  make([]float32, n*16),
	}
	p.Reset(sk)
	for i := 0; i < n; i++ {
		ident := math.Identity()
		copy(p.bones[i*16:], ident[:])
	}
	return p
}

// Reset copies the skeleton's rest transforms into the local pose. The
// sampler overwrites only the properties a clip actually animates, so
// unanimated properties fall back to rest.
func (p *Pose) Reset(sk *Skeleton) {
	sk.CopyRest(p.Local)
}

// Compose converts the local pose into final skinning matrices: a single
// forward pass over the joints (parents precede children, so a parent's
// global matrix is ready when its child needs it), then inverse-bind
// compensation. The bone buffer is fully rewritten on every call.
func (p *Pose) Compose(sk *Skeleton) {
	for i := range sk.Joints {
		local := p.Local[i].Matrix()
		if parent := sk.Joints[i].Parent; parent >= 0 {
			p.global[i] = p.global[parent].Mul(local)
		} else {
			p.global[i] = local
		}
	}
	for i := range sk.Joints {
		bone := p.global[i].Mul(sk.Joints[i].InverseBind)
		copy(p.bones[i*16:], bone[:])
	}
}

// Bones returns the flat skinning-matrix buffer (16 floats per joint).
// Valid and fully rewritten after each Compose call.
func (p *Pose) Bones() []float32 {
	return p.bones
}

// Global returns the model-space matrix of one joint from the last Compose.
func (p *Pose) Global(i int) math.Mat4 {
	return p.global[i]
}
