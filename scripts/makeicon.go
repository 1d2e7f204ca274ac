//go:build ignore

// makeicon draws the application icon: a folder outline with a broom sweeping under it.
package main

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
)

const size = 512

func main() {
	out := "Icon.png"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))

	background := color.RGBA{17, 24, 39, 255}
	folder := color.RGBA{245, 158, 11, 255}
	handle := color.RGBA{180, 120, 70, 255}
	bristles := color.RGBA{234, 179, 8, 255}

	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	// folder tab and body, drawn as outlines
	outline(img, image.Rect(80, 110, 220, 150), 14, folder)
	outline(img, image.Rect(80, 140, 432, 340), 18, folder)

	// broom handle runs diagonally from the upper right
	for i := 0; i < 230; i++ {
		for j := -9; j < 9; j++ {
			set(img, 400-i+j, 200+i, handle)
		}
	}

	// bristles fan out below the handle end
	for y := 420; y < 480; y++ {
		spread := (y - 420) / 2
		for x := 140 - spread; x < 220+spread; x++ {
			if (x+y)%9 < 6 {
				set(img, x, y, bristles)
			}
		}
	}

	f, err := os.Create(out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		log.Fatal(err)
	}
}

func outline(img *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if x-r.Min.X < thickness || r.Max.X-x <= thickness || y-r.Min.Y < thickness || r.Max.Y-y <= thickness {
				img.Set(x, y, c)
			}
		}
	}
}

func set(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}
