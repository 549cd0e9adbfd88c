package uniform

// valueKind discriminates the Value union.
type valueKind uint8

const (
	valueFloat valueKind = iota
	valueUint
	valueInt
	valueVec
	valueStruct
	valueArray
)

func (k valueKind) String() string {
	switch k {
	case valueFloat:
		return "f32"
	case valueUint:
		return "u32"
	case valueInt:
		return "i32"
	case valueVec:
		return "vec"
	case valueStruct:
		return "struct"
	case valueArray:
		return "array"
	}
	return "invalid"
}

// Value is one node of a per-frame value tree. Its shape must mirror the
// schema it is packed against; Pack reports any mismatch as an error.
type Value struct {
	kind   valueKind
	f      float32
	u      uint32
	i      int32
	vec    []float32
	fields Values
	elems  []Value
}

// Values is the field map of a struct node (and of the tree root).
type Values map[string]Value

// Float wraps an f32 scalar.
func Float(v float32) Value { return Value{kind: valueFloat, f: v} }

// Uint wraps a u32 scalar. It is stored bit-exact, never through a float.
func Uint(v uint32) Value { return Value{kind: valueUint, u: v} }

// Int wraps an i32 scalar. It is stored bit-exact, never through a float.
func Int(v int32) Value { return Value{kind: valueInt, i: v} }

// Vec wraps a vec2/vec3/vec4; the component count must match the field.
func Vec(v ...float32) Value { return Value{kind: valueVec, vec: v} }

// Struct wraps a nested struct node.
func Struct(fields Values) Value { return Value{kind: valueStruct, fields: fields} }

// Array wraps array elements. Fewer elements than the declared length is
// legal; the unsupplied tail packs as zeroes.
func Array(elems ...Value) Value { return Value{kind: valueArray, elems: elems} }
