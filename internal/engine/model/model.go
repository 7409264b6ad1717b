// Package model defines a loaded character model instance: skinned mesh
// data, the shared skeleton and clips, and the mutable playback state
// advanced by the animation system.
package model

import (
	"github.com/godsgame/engine/internal/engine/skeleton"
	"github.com/godsgame/engine/pkg/math"
)

// SkinnedVertex is one mesh vertex with up to four joint influences.
type SkinnedVertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Joints   [4]uint8
	Weights  [4]float32
}

// Mesh holds one primitive's vertex and index data ready for GPU upload.
type Mesh struct {
	Vertices []SkinnedVertex
	Indices  []uint32
}

// Transform is the model's placement in the world: position, Y-axis
// rotation in radians, and uniform scale.
type Transform struct {
	Position [3]float32
	Rotation float32
	Scale    float32
}

// Matrix builds the world matrix: translate, rotate about Y, uniform scale.
func (t Transform) Matrix() math.Mat4 {
	r := math.QuatFromAxisAngle([3]float32{0, 1, 0}, t.Rotation)
	return math.ComposeTRS(t.Position, r, [3]float32{t.Scale, t.Scale, t.Scale})
}

// Model is one loaded character instance. Skeleton and Clips are immutable
// and may be shared between instances; everything else is per-instance.
type Model struct {
	ID   uint32
	Name string

	Meshes   []Mesh
	Skeleton *skeleton.Skeleton
	Clips    []*skeleton.Clip

	Transform Transform

	// Playback state, owned by the animation system.
	Current int
	Time    float32
	Looping bool
	Pose    *skeleton.Pose

	clipIndex map[string]int
}

// New assembles a model instance around an imported skeleton and clip set.
// The skeleton must already be validated.
func New(name string, meshes []Mesh, sk *skeleton.Skeleton, clips []*skeleton.Clip) *Model {
	m := &Model{
		Name:      name,
		Meshes:    meshes,
		Skeleton:  sk,
		Clips:     clips,
		Transform: Transform{Scale: 1},
		Looping:   true,
		Pose:      skeleton.NewPose(sk),
		clipIndex: make(map[string]int, len(clips)),
	}
	for i, c := range clips {
		m.clipIndex[c.Name] = i
	}
	return m
}

// ClipIndex looks up a clip by name.
func (m *Model) ClipIndex(name string) (int, bool) {
	i, ok := m.clipIndex[name]
	return i, ok
}

// HasClips reports whether the model has any animation data.
func (m *Model) HasClips() bool {
	return len(m.Clips) > 0
}

// CurrentClip returns the active clip, or nil if the model has none.
func (m *Model) CurrentClip() *skeleton.Clip {
	if m.Current < 0 || m.Current >= len(m.Clips) {
		return nil
	}
	return m.Clips[m.Current]
}

// BoneMatrices returns the skinning-matrix buffer (16 floats per joint).
func (m *Model) BoneMatrices() []float32 {
	return m.Pose.Bones()
}
