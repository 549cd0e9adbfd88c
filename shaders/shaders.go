// Package shaders embeds the WGSL sources shipped with globe-viz: the fixed
// fullscreen blit program and the demo globe compute body. Compute bodies do
// not declare their own bindings; package wgsl generates those from the
// schema and the renderer prepends them.
package shaders

import (
	_ "embed"
)

//go:embed blit.wgsl
var BlitWGSL string

//go:embed globe.wgsl
var GlobeWGSL string
