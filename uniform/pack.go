package uniform

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ResolutionField is the reserved top-level field name whose value is
// synthesized from the FrameContext instead of the caller's value tree. It
// must be declared as vec2 and must not appear in the packed Values.
const ResolutionField = "resolution"

// FrameContext carries the ambient per-frame state injected into the
// reserved fields.
type FrameContext struct {
	Width  uint32
	Height uint32
}

// Pack serializes values into buf, which the caller allocates once at
// exactly TotalSize bytes and reuses every frame. Every byte of buf is
// well-defined after a successful call: padding, unsupplied array tails and
// the trailing region are all zeroed, so identical inputs produce
// byte-identical output.
//
// The value tree must mirror the schema: a missing field, an unknown field,
// a kind mismatch or an over-length vector/array is reported as an error
// rather than packed as silent zeroes.
func (l *StructLayout) Pack(values Values, buf []byte, ctx FrameContext) error {
	if len(buf) != l.TotalSize {
		return fmt.Errorf("uniform: buffer is %d bytes, layout needs %d", len(buf), l.TotalSize)
	}
	clear(buf)
	return l.packStruct(values, buf, ctx, true, "")
}

func (l *StructLayout) packStruct(values Values, buf []byte, ctx FrameContext, root bool, path string) error {
	for _, fl := range l.Fields {
		if root && fl.Name == ResolutionField {
			if err := packResolution(fl, buf, ctx); err != nil {
				return err
			}
			continue
		}
		v, ok := values[fl.Name]
		if !ok {
			return fmt.Errorf("uniform: missing value for field %q", path+fl.Name)
		}
		if err := packField(fl, v, buf, ctx, path); err != nil {
			return err
		}
	}
	// Reject values that name no schema field: silent shape drift is how
	// buffers and shaders fall out of agreement.
	for name := range values {
		if _, ok := l.FieldByName(name); !ok {
			return fmt.Errorf("uniform: value %q matches no schema field", path+name)
		}
		if root && name == ResolutionField {
			return fmt.Errorf("uniform: %q is reserved and synthesized from the frame context", ResolutionField)
		}
	}
	return nil
}

func packField(fl FieldLayout, v Value, buf []byte, ctx FrameContext, path string) error {
	dst := buf[fl.ByteOffset:]

	switch fl.Type.Kind {
	case KindPrimitive:
		return packPrimitive(fl.Type.Prim, fl, v, dst, path)

	case KindStruct:
		if v.kind != valueStruct {
			return fmt.Errorf("uniform: field %q is a struct, got %s value", path+fl.Name, v.kind)
		}
		return fl.Sub.packStruct(v.fields, dst[:fl.ByteSize], ctx, false, path+fl.Name+".")

	case KindArray:
		if v.kind != valueArray {
			return fmt.Errorf("uniform: field %q is an array, got %s value", path+fl.Name, v.kind)
		}
		if len(v.elems) > fl.Len {
			return fmt.Errorf("uniform: field %q holds %d elements, declared length is %d",
				path+fl.Name, len(v.elems), fl.Len)
		}
		for i, elem := range v.elems {
			elemDst := dst[i*fl.ElemStride : (i+1)*fl.ElemStride]
			elemPath := fmt.Sprintf("%s%s[%d]", path, fl.Name, i)
			switch fl.Type.Elem.Kind {
			case KindPrimitive:
				elemLayout := FieldLayout{Name: elemPath, Type: *fl.Type.Elem}
				_, _, elemLayout.FloatCount = primInfo(fl.Type.Elem.Prim)
				if err := packPrimitive(fl.Type.Elem.Prim, elemLayout, elem, elemDst, ""); err != nil {
					return err
				}
			case KindStruct:
				if elem.kind != valueStruct {
					return fmt.Errorf("uniform: element %q is a struct, got %s value", elemPath, elem.kind)
				}
				if err := fl.Sub.packStruct(elem.fields, elemDst, ctx, false, elemPath+"."); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return nil
}

func packPrimitive(p Primitive, fl FieldLayout, v Value, dst []byte, path string) error {
	switch p {
	case PrimF32:
		if v.kind != valueFloat {
			return fmt.Errorf("uniform: field %q is f32, got %s value", path+fl.Name, v.kind)
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v.f))

	case PrimU32:
		if v.kind != valueUint {
			return fmt.Errorf("uniform: field %q is u32, got %s value", path+fl.Name, v.kind)
		}
		binary.LittleEndian.PutUint32(dst, v.u)

	case PrimI32:
		if v.kind != valueInt {
			return fmt.Errorf("uniform: field %q is i32, got %s value", path+fl.Name, v.kind)
		}
		binary.LittleEndian.PutUint32(dst, uint32(v.i))

	case PrimVec2, PrimVec3, PrimVec4:
		if v.kind != valueVec {
			return fmt.Errorf("uniform: field %q is %s, got %s value", path+fl.Name, p, v.kind)
		}
		if len(v.vec) != fl.FloatCount {
			return fmt.Errorf("uniform: field %q is %s, got %d components", path+fl.Name, p, len(v.vec))
		}
		for i, c := range v.vec {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(c))
		}
	}
	return nil
}

func packResolution(fl FieldLayout, buf []byte, ctx FrameContext) error {
	if fl.Type.Kind != KindPrimitive || fl.Type.Prim != PrimVec2 {
		return fmt.Errorf("uniform: reserved field %q must be vec2", ResolutionField)
	}
	dst := buf[fl.ByteOffset:]
	binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(ctx.Width)))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(float32(ctx.Height)))
	return nil
}
