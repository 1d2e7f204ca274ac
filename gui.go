package main

import (
	"fmt"
	"io"
)

// LaunchGUI explains how to start the desktop build, which lives in its own binary
// so the scan command stays free of the fyne/OpenGL toolchain requirements.
func LaunchGUI(w io.Writer) {
	fmt.Fprintln(w, "To launch the GUI version, build the GUI from cmd/gui:")
	fmt.Fprintln(w, "  go build -o clutter-finder-gui ./cmd/gui")
	fmt.Fprintln(w, "Then run: ./clutter-finder-gui")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The GUI needs a C compiler and the OpenGL development headers.")
}
