package assets

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/qmuntal/gltf"
)

// componentSize returns the byte size of a single accessor component.
func componentSize(ct gltf.ComponentType) (int, error) {
	switch ct {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1, nil
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2, nil
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4, nil
	}
	return 0, fmt.Errorf("unsupported component type %d", ct)
}

// accessorElement resolves the byte offset of element i of an accessor,
// honoring the buffer view's byte stride when present.
func accessorElement(doc *gltf.Document, acc *gltf.Accessor, elemSize, i int) ([]byte, error) {
	if acc.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}
	viewIdx := int(*acc.BufferView)
	if viewIdx >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", viewIdx)
	}
	view := doc.BufferViews[viewIdx]
	if int(view.Buffer) >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data

	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	offset := int(view.ByteOffset) + int(acc.ByteOffset) + i*stride
	if offset+elemSize > len(data) {
		return nil, fmt.Errorf("accessor element %d exceeds buffer size", i)
	}
	return data[offset : offset+elemSize], nil
}

// readFloats reads an accessor holding float components, returning a flat
// slice of count*components values.
func readFloats(doc *gltf.Document, accIdx uint32, components int) ([]float32, error) {
	if int(accIdx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accIdx)
	}
	acc := doc.Accessors[accIdx]
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("accessor %d: expected float components, got %d", accIdx, acc.ComponentType)
	}

	elemSize := 4 * components
	out := make([]float32, 0, int(acc.Count)*components)
	for i := 0; i < int(acc.Count); i++ {
		raw, err := accessorElement(doc, acc, elemSize, i)
		if err != nil {
			return nil, fmt.Errorf("accessor %d: %w", accIdx, err)
		}
		for c := 0; c < components; c++ {
			bits := binary.LittleEndian.Uint32(raw[c*4:])
			out = append(out, stdmath.Float32frombits(bits))
		}
	}
	return out, nil
}

// readUints reads an accessor holding unsigned integer components of any
// width, widening everything to uint32.
func readUints(doc *gltf.Document, accIdx uint32, components int) ([]uint32, error) {
	if int(accIdx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accIdx)
	}
	acc := doc.Accessors[accIdx]

	compSize, err := componentSize(acc.ComponentType)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", accIdx, err)
	}
	switch acc.ComponentType {
	case gltf.ComponentUbyte, gltf.ComponentUshort, gltf.ComponentUint:
	default:
		return nil, fmt.Errorf("accessor %d: expected unsigned components, got %d", accIdx, acc.ComponentType)
	}

	elemSize := compSize * components
	out := make([]uint32, 0, int(acc.Count)*components)
	for i := 0; i < int(acc.Count); i++ {
		raw, err := accessorElement(doc, acc, elemSize, i)
		if err != nil {
			return nil, fmt.Errorf("accessor %d: %w", accIdx, err)
		}
		for c := 0; c < components; c++ {
			switch compSize {
			case 1:
				out = append(out, uint32(raw[c]))
			case 2:
				out = append(out, uint32(binary.LittleEndian.Uint16(raw[c*2:])))
			case 4:
				out = append(out, binary.LittleEndian.Uint32(raw[c*4:]))
			}
		}
	}
	return out, nil
}
