//go:build ignore

// Generates a small tree with every kind of clutter the finders report.
//
//	go run testdata/generate_test_files.go ./sample
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

func main() {
	baseDir := "sample"
	if len(os.Args) > 1 {
		baseDir = os.Args[1]
	}

	fmt.Println("📁 Creating sample files in", baseDir)

	createEmptyFiles(baseDir)
	createEmptyFolders(baseDir)
	createImages(baseDir)

	fmt.Println("✅ Done. Try:")
	fmt.Printf("   clutter-finder scan -tool similar-images -dir %s -reference-dir %s\n",
		filepath.Join(baseDir, "photos"), filepath.Join(baseDir, "photos", "originals"))
}

func createEmptyFiles(baseDir string) {
	for _, name := range []string{"notes/todo.txt", "notes/old/draft.md", "downloads/partial.part", ".cache/lock"} {
		path := filepath.Join(baseDir, name)
		must(os.MkdirAll(filepath.Dir(path), 0o755))
		must(os.WriteFile(path, nil, 0o644))
		fmt.Println("  ✓", name)
	}
	// not empty, must never be reported
	must(os.WriteFile(filepath.Join(baseDir, "notes", "keep.txt"), []byte("keep me\n"), 0o644))
}

func createEmptyFolders(baseDir string) {
	for _, name := range []string{"projects/abandoned/src/internal", "projects/abandoned/docs", "tmp/a/b/c", "music/unsorted"} {
		must(os.MkdirAll(filepath.Join(baseDir, name), 0o755))
		fmt.Println("  ✓", name+"/")
	}
}

func createImages(baseDir string) {
	photos := filepath.Join(baseDir, "photos")
	original := landscape(640, 480)

	writePNG(filepath.Join(photos, "originals", "sunset.png"), original)
	writePNG(filepath.Join(photos, "sunset_copy.png"), original)
	writeJPEG(filepath.Join(photos, "sunset_small.jpg"), scale(original, 160, 120))
	writeJPEG(filepath.Join(photos, "edited", "sunset_bright.jpg"), brighten(original, 25))

	// nothing else looks like this one
	writePNG(filepath.Join(photos, "checkers.png"), checkers(320, 320))
}

// landscape draws a sky gradient above a dark ground with a sun
func landscape(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{uint8(255 * y / h), uint8(120 * y / h), 80, 255}
			if y > h*2/3 {
				c = color.RGBA{30, 40, 20, 255}
			}
			dx, dy := x-w*3/4, y-h/3
			if dx*dx+dy*dy < (h/8)*(h/8) {
				c = color.RGBA{255, 230, 120, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func checkers(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/40+y/40)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func brighten(src *image.RGBA, by uint8) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	for i, v := range src.Pix {
		switch {
		case i%4 == 3:
			dst.Pix[i] = v
		case int(v)+int(by) > 255:
			dst.Pix[i] = 255
		default:
			dst.Pix[i] = v + by
		}
	}
	return dst
}

func writePNG(path string, img image.Image) {
	f := create(path)
	defer f.Close()
	must(png.Encode(f, img))
	fmt.Println("  ✓", path)
}

func writeJPEG(path string, img image.Image) {
	f := create(path)
	defer f.Close()
	must(jpeg.Encode(f, img, &jpeg.Options{Quality: 80}))
	fmt.Println("  ✓", path)
}

func create(path string) *os.File {
	must(os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	must(err)
	return f
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
