// Package skeleton holds the immutable rig data shared by model instances:
// the joint hierarchy, inverse-bind matrices, rest transforms, and animation
// clips. Per-frame pose state lives in Pose so several instances can animate
// one skeleton independently.
package skeleton

import (
	"fmt"

	"github.com/godsgame/engine/pkg/math"
)

// JointTransform is a decomposed local transform: translation, rotation,
// scale relative to the parent joint.
type JointTransform struct {
	Translation [3]float32
	Rotation    math.Quat
	Scale       [3]float32
}

// RestTransform returns the no-op transform: zero translation, identity
// rotation, unit scale.
func RestTransform() JointTransform {
	return JointTransform{
		Rotation: math.QuatIdentity(),
		Scale:    [3]float32{1, 1, 1},
	}
}

// Matrix builds the column-major local matrix translate * rotate * scale.
func (jt JointTransform) Matrix() math.Mat4 {
	return math.ComposeTRS(jt.Translation, jt.Rotation, jt.Scale)
}

// Joint is one node of the rig hierarchy.
type Joint struct {
	Name string
	// Parent is the index of the parent joint, or -1 for a root. Parents
	// always precede their children in the joint slice.
	Parent int
	// InverseBind moves a vertex from model space into this joint's bind
	// space. Constant for the skeleton's lifetime.
	InverseBind math.Mat4
	// Rest is the joint's transform when no channel animates it.
	Rest JointTransform
}

// Skeleton is an immutable, topologically ordered joint hierarchy.
type Skeleton struct {
	Joints []Joint

	byName map[string]int
}

// New builds a skeleton from an ordered joint slice and validates it.
func New(joints []Joint) (*Skeleton, error) {
	sk := &Skeleton{
		Joints: joints,
		byName: make(map[string]int, len(joints)),
	}
	for i, j := range joints {
		sk.byName[j.Name] = i
	}
	if err := sk.Validate(); err != nil {
		return nil, err
	}
	return sk, nil
}

// Validate checks the structural invariant: every parent index is either -1
// or a strictly smaller joint index. A violation means the importer produced
// a broken hierarchy and sampling would silently corrupt poses.
func (sk *Skeleton) Validate() error {
	for i, j := range sk.Joints {
		if j.Parent < -1 || j.Parent >= len(sk.Joints) {
			return fmt.Errorf("joint %d (%s): parent index %d out of range", i, j.Name, j.Parent)
		}
		if j.Parent >= i {
			return fmt.Errorf("joint %d (%s): parent index %d does not precede joint", i, j.Name, j.Parent)
		}
	}
	return nil
}

// CopyRest fills dst with the joints' rest transforms. dst length must not
// exceed the joint count.
func (sk *Skeleton) CopyRest(dst []JointTransform) {
	for i := range dst {
		dst[i] = sk.Joints[i].Rest
	}
}

// JointIndex returns the index of the named joint, or -1 if unknown.
func (sk *Skeleton) JointIndex(name string) int {
	if i, ok := sk.byName[name]; ok {
		return i
	}
	return -1
}

// Len returns the joint count.
func (sk *Skeleton) Len() int {
	return len(sk.Joints)
}
