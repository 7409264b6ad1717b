// Package assets imports glTF 2.0 character models: skinned meshes, the
// joint hierarchy with inverse-bind matrices, and animation clips.
package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/godsgame/engine/internal/engine/model"
	"github.com/godsgame/engine/internal/engine/skeleton"
	"github.com/godsgame/engine/internal/logger"
	"github.com/godsgame/engine/pkg/math"
)

// LoadModel reads a .gltf or .glb file and builds a model instance.
func LoadModel(path string) (*model.Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return BuildModel(doc, name)
}

// BuildModel converts a parsed glTF document into engine data. The first
// skin in the document defines the skeleton; documents without a skin
// produce a static model with an empty rig.
func BuildModel(doc *gltf.Document, name string) (*model.Model, error) {
	sk, nodeToJoint, jointRemap, err := buildSkeleton(doc)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	clips, err := buildClips(doc, nodeToJoint)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	meshes, err := buildMeshes(doc, jointRemap)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	m := model.New(name, meshes, sk, clips)
	logger.Info("model loaded",
		zap.String("name", name),
		zap.Int("meshes", len(meshes)),
		zap.Int("joints", sk.Len()),
		zap.Int("clips", len(clips)))
	return m, nil
}

// buildSkeleton extracts the joint hierarchy from the document's first skin.
// Joints are reordered parent-before-child when the skin lists them in a
// different order. The returned map translates node indices into final joint
// indices for animation channel targeting, and the remap slice translates
// skin-order joint indices (as stored in JOINTS_0 vertex attributes) into
// final indices.
func buildSkeleton(doc *gltf.Document) (*skeleton.Skeleton, map[uint32]int, []int, error) {
	if len(doc.Skins) == 0 {
		sk, err := skeleton.New(nil)
		return sk, map[uint32]int{}, nil, err
	}
	skin := doc.Skins[0]
	n := len(skin.Joints)

	for _, nodeIdx := range skin.Joints {
		if int(nodeIdx) >= len(doc.Nodes) {
			return nil, nil, nil, fmt.Errorf("skin references node %d out of range", nodeIdx)
		}
	}

	// Skin-order index of each joint node.
	skinIndex := make(map[uint32]int, n)
	for i, nodeIdx := range skin.Joints {
		skinIndex[nodeIdx] = i
	}

	// Parent of each joint in skin order: the joint whose node lists it as
	// a child. Nodes parented outside the skin become roots.
	parents := make([]int, n)
	for i := range parents {
		parents[i] = -1
	}
	for i, nodeIdx := range skin.Joints {
		for _, child := range doc.Nodes[nodeIdx].Children {
			if j, ok := skinIndex[child]; ok {
				parents[j] = i
			}
		}
	}

	order, err := topoOrder(parents)
	if err != nil {
		return nil, nil, nil, err
	}

	var ibms []float32
	if skin.InverseBindMatrices != nil {
		ibms, err = readFloats(doc, *skin.InverseBindMatrices, 16)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("inverse bind matrices: %w", err)
		}
		if len(ibms) != n*16 {
			return nil, nil, nil, fmt.Errorf("inverse bind matrices: expected %d, got %d", n, len(ibms)/16)
		}
	}

	// newIndex[skin order] = final joint index.
	newIndex := make([]int, n)
	for final, old := range order {
		newIndex[old] = final
	}

	joints := make([]skeleton.Joint, n)
	for final, old := range order {
		nodeIdx := skin.Joints[old]
		node := doc.Nodes[nodeIdx]

		jName := node.Name
		if jName == "" {
			jName = fmt.Sprintf("joint_%d", final)
		}

		parent := -1
		if parents[old] >= 0 {
			parent = newIndex[parents[old]]
		}

		j := skeleton.Joint{
			Name:        jName,
			Parent:      parent,
			InverseBind: math.Identity(),
			Rest: skeleton.JointTransform{
				Translation: node.Translation,
				Rotation: math.Quat{
					X: node.Rotation[0],
					Y: node.Rotation[1],
					Z: node.Rotation[2],
					W: node.Rotation[3],
				},
				Scale: node.Scale,
			},
		}
		if j.Rest.Rotation == (math.Quat{}) {
			j.Rest.Rotation = math.QuatIdentity()
		}
		if j.Rest.Scale == ([3]float32{}) {
			j.Rest.Scale = [3]float32{1, 1, 1}
		}
		if ibms != nil {
			copy(j.InverseBind[:], ibms[old*16:old*16+16])
		}
		joints[final] = j
	}

	sk, err := skeleton.New(joints)
	if err != nil {
		return nil, nil, nil, err
	}

	nodeToJoint := make(map[uint32]int, n)
	for old, nodeIdx := range skin.Joints {
		nodeToJoint[nodeIdx] = newIndex[old]
	}
	return sk, nodeToJoint, newIndex, nil
}

// topoOrder returns skin-order joint indices arranged parent-before-child.
func topoOrder(parents []int) ([]int, error) {
	n := len(parents)
	order := make([]int, 0, n)
	placed := make([]bool, n)
	for len(order) < n {
		progressed := false
		for i := 0; i < n; i++ {
			if placed[i] {
				continue
			}
			if p := parents[i]; p < 0 || placed[p] {
				order = append(order, i)
				placed[i] = true
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("joint hierarchy contains a cycle")
		}
	}
	return order, nil
}

// buildClips converts document animations into engine clips. Channels that
// target nodes outside the skeleton (cameras, props) are skipped.
func buildClips(doc *gltf.Document, nodeToJoint map[uint32]int) ([]*skeleton.Clip, error) {
	clips := make([]*skeleton.Clip, 0, len(doc.Animations))
	for ai, anim := range doc.Animations {
		clip := &skeleton.Clip{Name: anim.Name}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("animation_%d", ai)
		}

		for _, ch := range anim.Channels {
			if ch.Sampler == nil || ch.Target.Node == nil {
				continue
			}
			joint, ok := nodeToJoint[*ch.Target.Node]
			if !ok {
				logger.Debug("skipping non-joint animation channel",
					zap.String("clip", clip.Name),
					zap.Uint32("node", *ch.Target.Node))
				continue
			}

			var prop skeleton.Property
			var components int
			switch ch.Target.Path {
			case gltf.TRSTranslation:
				prop, components = skeleton.Translation, 3
			case gltf.TRSRotation:
				prop, components = skeleton.Rotation, 4
			case gltf.TRSScale:
				prop, components = skeleton.Scale, 3
			default:
				continue
			}

			if int(*ch.Sampler) >= len(anim.Samplers) {
				return nil, fmt.Errorf("clip %s: sampler %d out of range", clip.Name, *ch.Sampler)
			}
			smp := anim.Samplers[*ch.Sampler]
			if smp.Input == nil || smp.Output == nil {
				continue
			}
			if smp.Interpolation != gltf.InterpolationLinear {
				logger.Debug("treating non-linear sampler as linear",
					zap.String("clip", clip.Name),
					zap.Int("joint", joint))
			}

			times, err := readFloats(doc, *smp.Input, 1)
			if err != nil {
				return nil, fmt.Errorf("clip %s: keyframe times: %w", clip.Name, err)
			}
			values, err := readFloats(doc, *smp.Output, components)
			if err != nil {
				return nil, fmt.Errorf("clip %s: keyframe values: %w", clip.Name, err)
			}
			if len(values) < len(times)*components {
				return nil, fmt.Errorf("clip %s: %d keyframes but %d values", clip.Name, len(times), len(values)/components)
			}

			keys := make([]skeleton.Keyframe, len(times))
			for i, t := range times {
				k := skeleton.Keyframe{Time: t}
				copy(k.Value[:components], values[i*components:(i+1)*components])
				keys[i] = k
			}
			clip.Channels = append(clip.Channels, skeleton.Channel{
				Joint:     joint,
				Property:  prop,
				Keyframes: keys,
			})
		}

		clip.ComputeDuration()
		clips = append(clips, clip)
	}
	return clips, nil
}

// buildMeshes reads skinned vertex data from every mesh primitive.
// jointRemap translates skin-order joint indices into final joint indices;
// nil means no skin (static model).
func buildMeshes(doc *gltf.Document, jointRemap []int) ([]model.Mesh, error) {
	var meshes []model.Mesh
	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			mesh, err := buildPrimitive(doc, prim, jointRemap)
			if err != nil {
				return nil, fmt.Errorf("mesh %s: %w", gm.Name, err)
			}
			meshes = append(meshes, mesh)
		}
	}
	return meshes, nil
}

func buildPrimitive(doc *gltf.Document, prim *gltf.Primitive, jointRemap []int) (model.Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return model.Mesh{}, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := readFloats(doc, posIdx, 3)
	if err != nil {
		return model.Mesh{}, fmt.Errorf("positions: %w", err)
	}
	count := len(positions) / 3

	vertices := make([]model.SkinnedVertex, count)
	for i := range vertices {
		copy(vertices[i].Position[:], positions[i*3:i*3+3])
		vertices[i].Weights = [4]float32{1, 0, 0, 0}
	}

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := readFloats(doc, idx, 3)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("normals: %w", err)
		}
		for i := 0; i < count && i*3+3 <= len(normals); i++ {
			copy(vertices[i].Normal[:], normals[i*3:i*3+3])
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := readFloats(doc, idx, 2)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("texcoords: %w", err)
		}
		for i := 0; i < count && i*2+2 <= len(uvs); i++ {
			copy(vertices[i].TexCoord[:], uvs[i*2:i*2+2])
		}
	}
	if idx, ok := prim.Attributes["JOINTS_0"]; ok {
		joints, err := readUints(doc, idx, 4)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("joints: %w", err)
		}
		for i := 0; i < count && i*4+4 <= len(joints); i++ {
			for c := 0; c < 4; c++ {
				j := joints[i*4+c]
				if int(j) < len(jointRemap) {
					j = uint32(jointRemap[j])
				}
				vertices[i].Joints[c] = uint8(j)
			}
		}
	}
	if idx, ok := prim.Attributes["WEIGHTS_0"]; ok {
		weights, err := readFloats(doc, idx, 4)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("weights: %w", err)
		}
		for i := 0; i < count && i*4+4 <= len(weights); i++ {
			copy(vertices[i].Weights[:], weights[i*4:i*4+4])
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = readUints(doc, *prim.Indices, 1)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("indices: %w", err)
		}
	}

	return model.Mesh{Vertices: vertices, Indices: indices}, nil
}
