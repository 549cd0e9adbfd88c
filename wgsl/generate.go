// Package wgsl generates shader-side struct and binding declarations from a
// uniform schema. The emitted struct layout is byte-identical to the layout
// package uniform packs against; the schema is the single source of truth
// for both sides.
package wgsl

import (
	"fmt"
	"strings"

	"github.com/entmonk/globe-viz/uniform"
)

// Options controls code generation.
type Options struct {
	// StructName is the name of the top-level parameter struct.
	// Defaults to "Params", bound as the uniform variable "params".
	StructName string

	// TextureSlots adds one texture_2d binding per slot, a shared sampler,
	// and the sample_slot dispatch helper. Zero emits no texture bindings.
	TextureSlots int
}

// Generate emits, in dependency order: one struct declaration per nested
// struct and per padded array element, the main parameter struct with
// explicit padding members filling every layout gap, and the fixed resource
// bindings (binding 0 the uniform block, binding 1 the output image, then
// sampler and texture slots when requested).
func Generate(schema uniform.Schema, opts Options) string {
	name := opts.StructName
	if name == "" {
		name = "Params"
	}

	g := &generator{}
	g.emitStruct(name, "", uniform.Compile(schema))

	g.b.WriteString(fmt.Sprintf("@group(0) @binding(0) var<uniform> params: %s;\n", name))
	g.b.WriteString("@group(0) @binding(1) var output: texture_storage_2d<rgba8unorm, write>;\n")

	if opts.TextureSlots > 0 {
		g.b.WriteString("@group(0) @binding(2) var tex_sampler: sampler;\n")
		for i := 0; i < opts.TextureSlots; i++ {
			g.b.WriteString(fmt.Sprintf("@group(0) @binding(%d) var tex%d: texture_2d<f32>;\n", 3+i, i))
		}
		g.b.WriteString("\nfn sample_slot(slot: u32, uv: vec2<f32>) -> vec4<f32> {\n")
		g.b.WriteString("    switch slot {\n")
		for i := 0; i < opts.TextureSlots; i++ {
			g.b.WriteString(fmt.Sprintf("        case %du: { return textureSampleLevel(tex%d, tex_sampler, uv, 0.0); }\n", i, i))
		}
		g.b.WriteString("        default: { return vec4<f32>(0.0); }\n")
		g.b.WriteString("    }\n}\n")
	}

	return g.b.String()
}

type generator struct {
	b strings.Builder
}

// emitStruct writes the declarations a struct depends on, then the struct
// itself. prefix namespaces nested type names (camera.lens -> CameraLens).
func (g *generator) emitStruct(name, prefix string, layout *uniform.StructLayout) {
	type member struct {
		name, typ string
		pads      int
	}
	members := make([]member, 0, len(layout.Fields))

	for _, fl := range layout.Fields {
		m := member{name: fl.Name, pads: fl.PadFloats}

		switch fl.Type.Kind {
		case uniform.KindPrimitive:
			m.typ = primType(fl.Type.Prim)

		case uniform.KindStruct:
			m.typ = prefix + exportName(fl.Name)
			g.emitStruct(m.typ, m.typ, fl.Sub)

		case uniform.KindArray:
			elemType := g.emitArrayElem(prefix, fl)
			m.typ = fmt.Sprintf("array<%s, %d>", elemType, fl.Len)
		}
		members = append(members, m)
	}

	g.b.WriteString(fmt.Sprintf("struct %s {\n", name))
	pad := 0
	for _, m := range members {
		g.b.WriteString(fmt.Sprintf("    %s: %s,\n", m.name, m.typ))
		for i := 0; i < m.pads; i++ {
			g.b.WriteString(fmt.Sprintf("    _pad_%d: f32,\n", pad))
			pad++
		}
	}
	g.b.WriteString("}\n\n")
}

// emitArrayElem returns the WGSL element type of an array field, declaring a
// wrapper element struct first when the raw element is narrower than the
// mandatory 16-byte stride.
func (g *generator) emitArrayElem(prefix string, fl uniform.FieldLayout) string {
	elem := *fl.Type.Elem

	if elem.Kind == uniform.KindStruct {
		name := prefix + exportName(fl.Name) + "Elem"
		g.emitStruct(name, name, fl.Sub)
		return name
	}

	raw := primType(elem.Prim)
	rawFloats := primFloats(elem.Prim)
	if rawFloats == fl.ElemFloats {
		return raw
	}

	// f32/vec2/vec3 elements need explicit padding up to the stride.
	name := prefix + exportName(fl.Name) + "Elem"
	g.b.WriteString(fmt.Sprintf("struct %s {\n    v: %s,\n", name, raw))
	for i := 0; i < fl.ElemFloats-rawFloats; i++ {
		g.b.WriteString(fmt.Sprintf("    _pad_%d: f32,\n", i))
	}
	g.b.WriteString("}\n\n")
	return name
}

func primType(p uniform.Primitive) string {
	switch p {
	case uniform.PrimF32:
		return "f32"
	case uniform.PrimU32:
		return "u32"
	case uniform.PrimI32:
		return "i32"
	case uniform.PrimVec2:
		return "vec2<f32>"
	case uniform.PrimVec3:
		return "vec3<f32>"
	case uniform.PrimVec4:
		return "vec4<f32>"
	}
	panic(fmt.Sprintf("wgsl: unknown primitive %d", uint8(p)))
}

func primFloats(p uniform.Primitive) int {
	switch p {
	case uniform.PrimVec2:
		return 2
	case uniform.PrimVec3:
		return 3
	case uniform.PrimVec4:
		return 4
	}
	return 1
}

// exportName turns a schema field name into a WGSL struct type name:
// "spin_speed" -> "SpinSpeed".
func exportName(field string) string {
	var b strings.Builder
	upper := true
	for _, r := range field {
		if r == '_' || r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
