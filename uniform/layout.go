package uniform

import "fmt"

// FieldLayout is the computed placement of one schema field.
type FieldLayout struct {
	Name string
	Type FieldType

	// ByteOffset is a multiple of the type's natural alignment.
	ByteOffset int
	// ByteSize covers the field's own data, excluding trailing padding.
	ByteSize int

	FloatOffset int
	// FloatCount is the number of data floats (3 for vec3, not 4).
	FloatCount int
	// PadFloats is the number of padding floats between the end of this
	// field's data and the next field (or the end of the struct).
	PadFloats int

	// Array fields only.
	ElemStride int // bytes, always a multiple of 16
	ElemFloats int
	Len        int

	// Sub is the recursive layout for nested-struct fields and for the
	// element of array-of-struct fields.
	Sub *StructLayout
}

// StructLayout is the full placement of a schema: field layouts in
// declaration order plus the padded totals.
type StructLayout struct {
	Fields      []FieldLayout
	TotalSize   int // bytes, always a multiple of 16
	TotalFloats int // TotalSize / 4
}

// Natural alignment rules of the WGSL uniform address space, restricted to
// the types the schema can express.
func primInfo(p Primitive) (size, align, floats int) {
	switch p {
	case PrimF32, PrimU32, PrimI32:
		return 4, 4, 1
	case PrimVec2:
		return 8, 8, 2
	case PrimVec3:
		return 12, 16, 3
	case PrimVec4:
		return 16, 16, 4
	}
	panic(fmt.Sprintf("uniform: unknown primitive %d", uint8(p)))
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// Compile computes the byte-exact layout of schema. It is a pure function:
// equal schemas always produce identical layouts. Malformed schemas (array
// fields without a struct or primitive element, non-positive array lengths)
// are programmer errors and panic.
func Compile(schema Schema) *StructLayout {
	layout := &StructLayout{Fields: make([]FieldLayout, 0, len(schema))}
	cursor := 0 // bytes

	for _, f := range schema {
		fl := FieldLayout{Name: f.Name, Type: f.Type}
		var align int

		switch f.Type.Kind {
		case KindPrimitive:
			fl.ByteSize, align, fl.FloatCount = primInfo(f.Type.Prim)

		case KindStruct:
			fl.Sub = Compile(f.Type.Fields)
			fl.ByteSize = fl.Sub.TotalSize
			fl.FloatCount = fl.Sub.TotalFloats
			align = 16

		case KindArray:
			if f.Type.Elem == nil {
				panic(fmt.Sprintf("uniform: array field %q needs a struct or primitive element type", f.Name))
			}
			if f.Type.Len <= 0 {
				panic(fmt.Sprintf("uniform: array field %q has invalid length %d", f.Name, f.Type.Len))
			}
			switch f.Type.Elem.Kind {
			case KindPrimitive:
				elemSize, _, _ := primInfo(f.Type.Elem.Prim)
				fl.ElemStride = alignUp(elemSize, 16)
			case KindStruct:
				fl.Sub = Compile(f.Type.Elem.Fields)
				fl.ElemStride = fl.Sub.TotalSize
			default:
				panic(fmt.Sprintf("uniform: array field %q needs a struct or primitive element type", f.Name))
			}
			fl.ElemFloats = fl.ElemStride / 4
			fl.Len = f.Type.Len
			fl.ByteSize = fl.ElemStride * fl.Len
			fl.FloatCount = fl.ByteSize / 4
			align = 16

		default:
			panic(fmt.Sprintf("uniform: field %q has unknown type kind %d", f.Name, f.Type.Kind))
		}

		// Alignment padding before this field belongs to the previous
		// field's trailing pad.
		aligned := alignUp(cursor, align)
		if pad := aligned - cursor; pad > 0 {
			layout.Fields[len(layout.Fields)-1].PadFloats += pad / 4
		}

		fl.ByteOffset = aligned
		fl.FloatOffset = aligned / 4
		cursor = aligned + fl.ByteSize

		// A lone vec3 is always followed by one padding float, even when
		// the next field's own alignment would not require it.
		if f.Type.Kind == KindPrimitive && f.Type.Prim == PrimVec3 {
			fl.PadFloats = 1
			cursor += 4
		}

		layout.Fields = append(layout.Fields, fl)
	}

	total := alignUp(cursor, 16)
	if tail := total - cursor; tail > 0 && len(layout.Fields) > 0 {
		layout.Fields[len(layout.Fields)-1].PadFloats += tail / 4
	}
	layout.TotalSize = total
	layout.TotalFloats = total / 4
	return layout
}

// FieldByName returns the layout of the named top-level field.
func (l *StructLayout) FieldByName(name string) (FieldLayout, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldLayout{}, false
}
