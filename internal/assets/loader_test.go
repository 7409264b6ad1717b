package assets

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/qmuntal/gltf"
)

// docBuilder assembles an in-memory glTF document with a single buffer.
type docBuilder struct {
	doc *gltf.Document
	buf []byte
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: &gltf.Document{}}
}

func (b *docBuilder) addView(data []byte) uint32 {
	offset := uint32(len(b.buf))
	b.buf = append(b.buf, data...)
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: uint32(len(data)),
	})
	return uint32(len(b.doc.BufferViews) - 1)
}

func (b *docBuilder) addFloats(vals []float32, typ gltf.AccessorType, comps int) uint32 {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[i*4:], stdmath.Float32bits(v))
	}
	view := b.addView(data)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(view),
		ComponentType: gltf.ComponentFloat,
		Count:         uint32(len(vals) / comps),
		Type:          typ,
	})
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *docBuilder) addUshorts(vals []uint16, typ gltf.AccessorType, comps int) uint32 {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	view := b.addView(data)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(view),
		ComponentType: gltf.ComponentUshort,
		Count:         uint32(len(vals) / comps),
		Type:          typ,
	})
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *docBuilder) finish() *gltf.Document {
	b.doc.Buffers = []*gltf.Buffer{{
		ByteLength: uint32(len(b.buf)),
		Data:       b.buf,
	}}
	return b.doc
}

// twoJointDoc builds a document whose skin lists the child joint before the
// root, so the importer must reorder. Node 0 is the child, node 1 the root.
func twoJointDoc() *docBuilder {
	b := newDocBuilder()
	b.doc.Nodes = []*gltf.Node{
		{
			Name:        "hand",
			Translation: [3]float32{0, 1, 0},
			Rotation:    [4]float32{0, 0, 0, 1},
			Scale:       [3]float32{1, 1, 1},
		},
		{
			Name:     "root",
			Children: []uint32{0},
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
		},
	}

	// Inverse bind matrices in skin order: child gets -1 Y translation,
	// root identity.
	ibm := make([]float32, 32)
	child := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, -1, 0, 1,
	}
	ident := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	copy(ibm[0:16], child[:])
	copy(ibm[16:32], ident[:])
	ibmAcc := b.addFloats(ibm, gltf.AccessorMat4, 16)

	b.doc.Skins = []*gltf.Skin{{
		Joints:              []uint32{0, 1}, // child first
		InverseBindMatrices: gltf.Index(ibmAcc),
	}}
	return b
}

func TestBuildSkeletonReorders(t *testing.T) {
	doc := twoJointDoc().finish()

	sk, nodeToJoint, remap, err := buildSkeleton(doc)
	if err != nil {
		t.Fatalf("buildSkeleton: %v", err)
	}
	if sk.Len() != 2 {
		t.Fatalf("expected 2 joints, got %d", sk.Len())
	}

	if sk.Joints[0].Name != "root" || sk.Joints[0].Parent != -1 {
		t.Errorf("joint 0: got %s parent %d, want root parent -1", sk.Joints[0].Name, sk.Joints[0].Parent)
	}
	if sk.Joints[1].Name != "hand" || sk.Joints[1].Parent != 0 {
		t.Errorf("joint 1: got %s parent %d, want hand parent 0", sk.Joints[1].Name, sk.Joints[1].Parent)
	}

	if err := sk.Validate(); err != nil {
		t.Errorf("reordered skeleton fails validation: %v", err)
	}

	// Node 1 (root) must map to joint 0, node 0 (hand) to joint 1.
	if nodeToJoint[1] != 0 || nodeToJoint[0] != 1 {
		t.Errorf("node map wrong: %v", nodeToJoint)
	}
	// Skin order [child, root] remaps to [1, 0].
	if remap[0] != 1 || remap[1] != 0 {
		t.Errorf("joint remap wrong: %v", remap)
	}

	// Rest pose follows the reorder.
	if sk.Joints[1].Rest.Translation != [3]float32{0, 1, 0} {
		t.Errorf("hand rest translation: %v", sk.Joints[1].Rest.Translation)
	}
	// Inverse bind matrices follow too: hand's has -1 in element 13.
	if sk.Joints[1].InverseBind[13] != -1 {
		t.Errorf("hand inverse bind not remapped: %v", sk.Joints[1].InverseBind)
	}
	if sk.Joints[0].InverseBind[13] != 0 {
		t.Errorf("root inverse bind not identity: %v", sk.Joints[0].InverseBind)
	}
}

func TestBuildSkeletonDefaultsRest(t *testing.T) {
	b := newDocBuilder()
	// Zero-valued node: importer must default rotation to identity and
	// scale to one, not zero.
	b.doc.Nodes = []*gltf.Node{{Name: "only"}}
	b.doc.Skins = []*gltf.Skin{{Joints: []uint32{0}}}
	doc := b.finish()

	sk, _, _, err := buildSkeleton(doc)
	if err != nil {
		t.Fatalf("buildSkeleton: %v", err)
	}
	rest := sk.Joints[0].Rest
	if rest.Rotation.W != 1 {
		t.Errorf("expected identity rest rotation, got %+v", rest.Rotation)
	}
	if rest.Scale != [3]float32{1, 1, 1} {
		t.Errorf("expected unit rest scale, got %v", rest.Scale)
	}
}

func TestBuildClips(t *testing.T) {
	b := twoJointDoc()

	s := float32(stdmath.Sqrt(0.5))
	times := b.addFloats([]float32{0, 1}, gltf.AccessorScalar, 1)
	rots := b.addFloats([]float32{
		0, 0, 0, 1,
		0, 0, s, s,
	}, gltf.AccessorVec4, 4)

	b.doc.Animations = []*gltf.Animation{{
		Name: "wave",
		Samplers: []*gltf.AnimationSampler{{
			Input:         gltf.Index(times),
			Output:        gltf.Index(rots),
			Interpolation: gltf.InterpolationLinear,
		}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(0), // hand node
				Path: gltf.TRSRotation,
			},
		}},
	}}
	doc := b.finish()

	_, nodeToJoint, _, err := buildSkeleton(doc)
	if err != nil {
		t.Fatalf("buildSkeleton: %v", err)
	}
	clips, err := buildClips(doc, nodeToJoint)
	if err != nil {
		t.Fatalf("buildClips: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(clips))
	}

	clip := clips[0]
	if clip.Name != "wave" {
		t.Errorf("clip name: %s", clip.Name)
	}
	if clip.Duration != 1 {
		t.Errorf("clip duration: %f", clip.Duration)
	}
	if len(clip.Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(clip.Channels))
	}

	ch := clip.Channels[0]
	if ch.Joint != 1 {
		t.Errorf("channel joint: got %d, want 1 (hand after reorder)", ch.Joint)
	}
	if len(ch.Keyframes) != 2 {
		t.Fatalf("expected 2 keyframes, got %d", len(ch.Keyframes))
	}
	if ch.Keyframes[1].Time != 1 {
		t.Errorf("keyframe time: %f", ch.Keyframes[1].Time)
	}
	if got := ch.Keyframes[1].Value; got[2] != s || got[3] != s {
		t.Errorf("keyframe value: %v", got)
	}
}

func TestBuildClipsSkipsNonJointChannels(t *testing.T) {
	b := twoJointDoc()
	// A camera node outside the skin.
	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{Name: "camera"})

	times := b.addFloats([]float32{0, 1}, gltf.AccessorScalar, 1)
	vals := b.addFloats([]float32{0, 0, 0, 1, 1, 1}, gltf.AccessorVec3, 3)

	b.doc.Animations = []*gltf.Animation{{
		Name: "dolly",
		Samplers: []*gltf.AnimationSampler{{
			Input:         gltf.Index(times),
			Output:        gltf.Index(vals),
			Interpolation: gltf.InterpolationLinear,
		}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(2),
				Path: gltf.TRSTranslation,
			},
		}},
	}}
	doc := b.finish()

	_, nodeToJoint, _, err := buildSkeleton(doc)
	if err != nil {
		t.Fatalf("buildSkeleton: %v", err)
	}
	clips, err := buildClips(doc, nodeToJoint)
	if err != nil {
		t.Fatalf("buildClips: %v", err)
	}
	if len(clips) != 1 || len(clips[0].Channels) != 0 {
		t.Errorf("expected clip with no channels, got %+v", clips)
	}
}

func TestBuildModelRemapsVertexJoints(t *testing.T) {
	b := twoJointDoc()

	positions := b.addFloats([]float32{
		0, 0, 0,
		0, 1, 0,
		1, 1, 0,
	}, gltf.AccessorVec3, 3)
	// All vertices weighted fully to skin-order joint 0 (the hand).
	jointsAcc := b.addUshorts([]uint16{
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}, gltf.AccessorVec4, 4)
	weights := b.addFloats([]float32{
		1, 0, 0, 0,
		1, 0, 0, 0,
		1, 0, 0, 0,
	}, gltf.AccessorVec4, 4)
	indices := b.addUshorts([]uint16{0, 1, 2}, gltf.AccessorScalar, 1)

	b.doc.Meshes = []*gltf.Mesh{{
		Name: "body",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{
				"POSITION":  positions,
				"JOINTS_0":  jointsAcc,
				"WEIGHTS_0": weights,
			},
			Indices: gltf.Index(indices),
		}},
	}}
	doc := b.finish()

	m, err := BuildModel(doc, "rig")
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	if len(m.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(m.Meshes))
	}

	mesh := m.Meshes[0]
	if len(mesh.Vertices) != 3 || len(mesh.Indices) != 3 {
		t.Fatalf("vertices %d indices %d", len(mesh.Vertices), len(mesh.Indices))
	}
	// Skin-order joint 0 is the hand, which landed at final index 1.
	if mesh.Vertices[0].Joints[0] != 1 {
		t.Errorf("vertex joint not remapped: %v", mesh.Vertices[0].Joints)
	}
	if mesh.Vertices[0].Weights[0] != 1 {
		t.Errorf("vertex weights: %v", mesh.Vertices[0].Weights)
	}
	if mesh.Vertices[1].Position != [3]float32{0, 1, 0} {
		t.Errorf("vertex position: %v", mesh.Vertices[1].Position)
	}
}

func TestBuildModelNoSkin(t *testing.T) {
	b := newDocBuilder()
	positions := b.addFloats([]float32{0, 0, 0}, gltf.AccessorVec3, 3)
	b.doc.Meshes = []*gltf.Mesh{{
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{"POSITION": positions},
		}},
	}}
	doc := b.finish()

	m, err := BuildModel(doc, "prop")
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	if m.Skeleton.Len() != 0 {
		t.Errorf("expected empty skeleton, got %d joints", m.Skeleton.Len())
	}
	if m.HasClips() {
		t.Error("expected no clips")
	}
	// Unskinned vertices still carry a default full weight.
	if m.Meshes[0].Vertices[0].Weights[0] != 1 {
		t.Errorf("default weight: %v", m.Meshes[0].Vertices[0].Weights)
	}
}

func TestBuildPrimitiveMissingPosition(t *testing.T) {
	b := newDocBuilder()
	b.doc.Meshes = []*gltf.Mesh{{
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{},
		}},
	}}
	doc := b.finish()

	if _, err := BuildModel(doc, "bad"); err == nil {
		t.Error("expected error for primitive without POSITION")
	}
}

func TestTopoOrderCycle(t *testing.T) {
	if _, err := topoOrder([]int{1, 0}); err == nil {
		t.Error("expected cycle error")
	}
}

func TestTopoOrderAlreadySorted(t *testing.T) {
	order, err := topoOrder([]int{-1, 0, 1, 0})
	if err != nil {
		t.Fatalf("topoOrder: %v", err)
	}
	for i, o := range order {
		if o != i {
			t.Errorf("sorted input should keep order, got %v", order)
			break
		}
	}
}

func TestReadFloatsStride(t *testing.T) {
	// Interleaved buffer: position (12 bytes) + padding (4 bytes), stride 16.
	b := newDocBuilder()
	data := make([]byte, 32)
	for i, v := range []float32{1, 2, 3} {
		binary.LittleEndian.PutUint32(data[i*4:], stdmath.Float32bits(v))
	}
	for i, v := range []float32{4, 5, 6} {
		binary.LittleEndian.PutUint32(data[16+i*4:], stdmath.Float32bits(v))
	}
	view := b.addView(data)
	b.doc.BufferViews[view].ByteStride = 16
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(view),
		ComponentType: gltf.ComponentFloat,
		Count:         2,
		Type:          gltf.AccessorVec3,
	})
	doc := b.finish()

	vals, err := readFloats(doc, 0, 3)
	if err != nil {
		t.Fatalf("readFloats: %v", err)
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("value %d: got %f, want %f", i, vals[i], want[i])
		}
	}
}

func TestReadFloatsOutOfRange(t *testing.T) {
	b := newDocBuilder()
	view := b.addView(make([]byte, 8))
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(view),
		ComponentType: gltf.ComponentFloat,
		Count:         4, // 16 bytes needed, only 8 present
		Type:          gltf.AccessorScalar,
	})
	doc := b.finish()

	if _, err := readFloats(doc, 0, 1); err == nil {
		t.Error("expected out of range error")
	}
}
