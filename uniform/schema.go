// Package uniform computes GPU uniform-buffer layouts for declarative field
// schemas and serializes per-frame values into them. The same schema drives
// the WGSL struct generation in package wgsl, so the packed bytes and the
// shader-side declaration always agree.
package uniform

import "fmt"

// Primitive is one of the fixed scalar/vector field tags.
type Primitive uint8

const (
	PrimF32 Primitive = iota
	PrimU32
	PrimI32
	PrimVec2
	PrimVec3
	PrimVec4
)

func (p Primitive) String() string {
	switch p {
	case PrimF32:
		return "f32"
	case PrimU32:
		return "u32"
	case PrimI32:
		return "i32"
	case PrimVec2:
		return "vec2"
	case PrimVec3:
		return "vec3"
	case PrimVec4:
		return "vec4"
	}
	return fmt.Sprintf("primitive(%d)", uint8(p))
}

// TypeKind discriminates the FieldType union.
type TypeKind uint8

const (
	KindPrimitive TypeKind = iota
	KindStruct
	KindArray
)

// FieldType describes the type of a single schema field: a primitive tag,
// a nested struct, or a fixed-length array of a struct or primitive.
type FieldType struct {
	Kind TypeKind

	// Prim is set when Kind == KindPrimitive.
	Prim Primitive

	// Fields is set when Kind == KindStruct.
	Fields Schema

	// Elem and Len are set when Kind == KindArray. Elem must itself be a
	// primitive or a struct; arrays of arrays are not representable.
	Elem *FieldType
	Len  int
}

// Field is one named entry of a schema. Declaration order is significant.
type Field struct {
	Name string
	Type FieldType
}

// Schema is an ordered list of fields describing one uniform block.
type Schema []Field

func F32() FieldType  { return FieldType{Kind: KindPrimitive, Prim: PrimF32} }
func U32() FieldType  { return FieldType{Kind: KindPrimitive, Prim: PrimU32} }
func I32() FieldType  { return FieldType{Kind: KindPrimitive, Prim: PrimI32} }
func Vec2() FieldType { return FieldType{Kind: KindPrimitive, Prim: PrimVec2} }
func Vec3() FieldType { return FieldType{Kind: KindPrimitive, Prim: PrimVec3} }
func Vec4() FieldType { return FieldType{Kind: KindPrimitive, Prim: PrimVec4} }

// StructOf declares a nested struct field type.
func StructOf(fields Schema) FieldType {
	return FieldType{Kind: KindStruct, Fields: fields}
}

// ArrayOf declares a fixed-length array of elem, which must be a primitive
// or struct type.
func ArrayOf(elem FieldType, length int) FieldType {
	return FieldType{Kind: KindArray, Elem: &elem, Len: length}
}
