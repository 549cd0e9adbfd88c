package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/entmonk/globe-viz/viz"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	width := flag.Int("width", 1280, "Window width")
	height := flag.Int("height", 720, "Window height")
	texture := flag.String("texture", "", "Surface texture (file path or http(s) URL)")
	preset := flag.String("preset", "", "Preset JSON to load on startup")
	debug := flag.Bool("debug", false, "Enable debug logging and FPS output")
	flag.Parse()

	err := viz.Run(viz.RunOptions{
		Width:      *width,
		Height:     *height,
		Title:      "Globe",
		TextureURL: *texture,
		PresetPath: *preset,
		Debug:      *debug,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
