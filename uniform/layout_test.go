package uniform

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileScalarVec3Scalar(t *testing.T) {
	// {a:f32, b:vec3, c:f32}: pad before b to reach 16 bytes, one mandatory
	// pad float after b, tail pad to the 16-byte total.
	layout := Compile(Schema{
		{Name: "a", Type: F32()},
		{Name: "b", Type: Vec3()},
		{Name: "c", Type: F32()},
	})

	require.Len(t, layout.Fields, 3)
	assert.Equal(t, 0, layout.Fields[0].FloatOffset)
	assert.Equal(t, 4, layout.Fields[1].FloatOffset)
	assert.Equal(t, 8, layout.Fields[2].FloatOffset)
	assert.Equal(t, 3, layout.Fields[0].PadFloats)
	assert.Equal(t, 1, layout.Fields[1].PadFloats)
	assert.Equal(t, 3, layout.Fields[2].PadFloats)
	assert.Equal(t, 48, layout.TotalSize)
	assert.Equal(t, 12, layout.TotalFloats)
}

func TestCompileVec3MandatoryPad(t *testing.T) {
	// The float after a vec3 is always padding, even when the next field's
	// own alignment would already be satisfied.
	layout := Compile(Schema{
		{Name: "v", Type: Vec3()},
		{Name: "s", Type: F32()},
	})

	require.Len(t, layout.Fields, 2)
	assert.Equal(t, 0, layout.Fields[0].FloatOffset)
	assert.Equal(t, 1, layout.Fields[0].PadFloats)
	assert.Equal(t, 4, layout.Fields[1].FloatOffset)
	assert.Equal(t, 32, layout.TotalSize)
}

func TestCompilePrimitiveArrayStride(t *testing.T) {
	// array<f32, 3> in uniform space: each element occupies a full 16-byte
	// stride despite f32's natural 4-byte size.
	layout := Compile(Schema{
		{Name: "arr", Type: ArrayOf(F32(), 3)},
	})

	require.Len(t, layout.Fields, 1)
	fl := layout.Fields[0]
	assert.Equal(t, 16, fl.ElemStride)
	assert.Equal(t, 4, fl.ElemFloats)
	assert.Equal(t, 12, fl.FloatCount)
	assert.Equal(t, 48, layout.TotalSize)
}

func TestCompileNestedStruct(t *testing.T) {
	layout := Compile(Schema{
		{Name: "t", Type: F32()},
		{Name: "camera", Type: StructOf(Schema{
			{Name: "position", Type: Vec3()},
			{Name: "fov", Type: F32()},
		})},
		{Name: "after", Type: F32()},
	})

	require.Len(t, layout.Fields, 3)
	cam := layout.Fields[1]
	assert.Equal(t, 16, cam.ByteOffset, "struct fields align to 16")
	require.NotNil(t, cam.Sub)
	assert.Equal(t, 32, cam.ByteSize, "vec3 + pad + f32 rounds to 32")
	assert.Equal(t, 0, cam.Sub.Fields[0].FloatOffset)
	assert.Equal(t, 4, cam.Sub.Fields[1].FloatOffset)
	assert.Equal(t, 48, layout.Fields[2].ByteOffset)
	assert.Equal(t, 64, layout.TotalSize)
}

func TestCompileArrayOfStructs(t *testing.T) {
	layout := Compile(Schema{
		{Name: "lights", Type: ArrayOf(StructOf(Schema{
			{Name: "position", Type: Vec3()},
			{Name: "intensity", Type: F32()},
		}), 4)},
	})

	// position spans floats 0-2, its mandatory pad is float 3, intensity
	// lands at float 4, and the element rounds up to 32 bytes.
	fl := layout.Fields[0]
	assert.Equal(t, 32, fl.ElemStride)
	assert.Equal(t, 8, fl.ElemFloats)
	assert.Equal(t, 128, fl.ByteSize)
	assert.Equal(t, 128, layout.TotalSize)
	require.NotNil(t, fl.Sub)
	assert.Equal(t, 32, fl.Sub.TotalSize)
	assert.Equal(t, 4, fl.Sub.Fields[1].FloatOffset)
}

func TestCompileInvariants(t *testing.T) {
	schemas := map[string]Schema{
		"scalars": {
			{Name: "a", Type: F32()},
			{Name: "b", Type: U32()},
			{Name: "c", Type: I32()},
		},
		"vectors": {
			{Name: "a", Type: Vec2()},
			{Name: "b", Type: Vec4()},
			{Name: "c", Type: Vec3()},
		},
		"mixed": {
			{Name: "flags", Type: U32()},
			{Name: "dir", Type: Vec3()},
			{Name: "colors", Type: ArrayOf(Vec4(), 3)},
			{Name: "nested", Type: StructOf(Schema{
				{Name: "uv", Type: Vec2()},
				{Name: "n", Type: I32()},
			})},
		},
	}

	for name, schema := range schemas {
		t.Run(name, func(t *testing.T) {
			layout := Compile(schema)
			assert.Zero(t, layout.TotalSize%16)
			assert.Equal(t, layout.TotalSize/4, layout.TotalFloats)
			for _, f := range layout.Fields {
				align := 16
				if f.Type.Kind == KindPrimitive {
					switch f.Type.Prim {
					case PrimF32, PrimU32, PrimI32:
						align = 4
					case PrimVec2:
						align = 8
					}
				}
				assert.Zerof(t, f.ByteOffset%align, "field %s at %d not %d-aligned", f.Name, f.ByteOffset, align)
				assert.Equal(t, f.ByteOffset/4, f.FloatOffset)
			}
			// Fields plus their pads tile the struct without gaps.
			floats := 0
			for _, f := range layout.Fields {
				assert.Equal(t, floats, f.FloatOffset, "field %s", f.Name)
				floats = f.FloatOffset + f.FloatCount + f.PadFloats
			}
			assert.Equal(t, layout.TotalFloats, floats)
		})
	}
}

func TestCompileDeterministic(t *testing.T) {
	schema := Schema{
		{Name: "a", Type: Vec3()},
		{Name: "b", Type: ArrayOf(StructOf(Schema{{Name: "x", Type: F32()}}), 2)},
	}
	first := Compile(schema)
	second := Compile(schema)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestCompilePanicsOnMalformedSchema(t *testing.T) {
	assert.Panics(t, func() {
		Compile(Schema{{Name: "bad", Type: FieldType{Kind: KindArray, Len: 3}}})
	}, "array without an element type")

	assert.Panics(t, func() {
		nested := FieldType{Kind: KindArray, Elem: &FieldType{Kind: KindPrimitive, Prim: PrimF32}, Len: 2}
		Compile(Schema{{Name: "bad", Type: ArrayOf(nested, 3)}})
	}, "array of arrays")

	assert.Panics(t, func() {
		Compile(Schema{{Name: "bad", Type: ArrayOf(F32(), 0)}})
	}, "zero-length array")

	assert.Panics(t, func() {
		Compile(Schema{{Name: "bad", Type: FieldType{Kind: TypeKind(9)}}})
	}, "unknown type kind")
}
