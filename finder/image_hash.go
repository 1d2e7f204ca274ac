package finder

import (
	"image"
	"math"
	"math/bits"
	"sort"

	"golang.org/x/image/draw"
)

// FilterType selects the resampling filter used before hashing
type FilterType int

const (
	FilterLanczos3 FilterType = iota
	FilterGaussian
	FilterCatmullRom
	FilterTriangle
	FilterNearest
)

func (f FilterType) String() string {
	switch f {
	case FilterLanczos3:
		return "lanczos3"
	case FilterGaussian:
		return "gaussian"
	case FilterCatmullRom:
		return "catmullrom"
	case FilterTriangle:
		return "triangle"
	case FilterNearest:
		return "nearest"
	default:
		return "unknown"
	}
}

var (
	lanczos3Kernel = &draw.Kernel{Support: 3, At: lanczos3}
	gaussianKernel = &draw.Kernel{Support: 3, At: func(t float64) float64 {
		return math.Exp(-2 * t * t)
	}}
)

func lanczos3(t float64) float64 {
	if t == 0 {
		return 1
	}
	if t >= 3 {
		return 0
	}
	return sinc(t) * sinc(t/3)
}

func sinc(t float64) float64 {
	t *= math.Pi
	return math.Sin(t) / t
}

func (f FilterType) interpolator() draw.Interpolator {
	switch f {
	case FilterGaussian:
		return gaussianKernel
	case FilterCatmullRom:
		return draw.CatmullRom
	case FilterTriangle:
		return draw.BiLinear
	case FilterNearest:
		return draw.NearestNeighbor
	default:
		return lanczos3Kernel
	}
}

// HashAlg selects the perceptual hash algorithm
type HashAlg int

const (
	HashMean HashAlg = iota
	HashGradient
	HashBlockhash
	HashVertGradient
	HashDoubleGradient
)

func (h HashAlg) String() string {
	switch h {
	case HashMean:
		return "mean"
	case HashGradient:
		return "gradient"
	case HashBlockhash:
		return "blockhash"
	case HashVertGradient:
		return "vertgradient"
	case HashDoubleGradient:
		return "doublegradient"
	default:
		return "unknown"
	}
}

// ComputeHash returns a hashSize*hashSize bit perceptual hash of img
func ComputeHash(img image.Image, hashSize uint8, alg HashAlg, filter FilterType) []byte {
	n := int(hashSize)
	bitsOut := newBitWriter(n * n)

	switch alg {
	case HashMean:
		g := resizeGray(img, n, n, filter)
		var sum int
		for _, p := range g.Pix {
			sum += int(p)
		}
		mean := sum / len(g.Pix)
		for _, p := range g.Pix {
			bitsOut.push(int(p) > mean)
		}

	case HashGradient:
		rowGradients(resizeGray(img, n+1, n, filter), bitsOut)

	case HashVertGradient:
		columnGradients(resizeGray(img, n, n+1, filter), bitsOut)

	case HashDoubleGradient:
		half := n / 2
		rowGradients(resizeGray(img, n+1, half, filter), bitsOut)
		columnGradients(resizeGray(img, half, n+1, filter), bitsOut)

	case HashBlockhash:
		const block = 4
		g := resizeGray(img, n*block, n*block, filter)
		sums := make([]int, n*n)
		for y := 0; y < n*block; y++ {
			for x := 0; x < n*block; x++ {
				sums[(y/block)*n+x/block] += int(g.GrayAt(x, y).Y)
			}
		}
		median := medianOf(sums)
		for _, s := range sums {
			bitsOut.push(s > median)
		}
	}

	return bitsOut.bytes()
}

// HammingDistance counts differing bits; hashes of different length never match
func HammingDistance(a, b []byte) uint32 {
	if len(a) != len(b) {
		return math.MaxUint32
	}
	var d int
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return uint32(d)
}

func resizeGray(img image.Image, w, h int, filter FilterType) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	filter.interpolator().Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func rowGradients(g *image.Gray, out *bitWriter) {
	b := g.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx()-1; x++ {
			out.push(g.GrayAt(x, y).Y < g.GrayAt(x+1, y).Y)
		}
	}
}

func columnGradients(g *image.Gray, out *bitWriter) {
	b := g.Bounds()
	for y := 0; y < b.Dy()-1; y++ {
		for x := 0; x < b.Dx(); x++ {
			out.push(g.GrayAt(x, y).Y < g.GrayAt(x, y+1).Y)
		}
	}
}

func medianOf(values []int) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

type bitWriter struct {
	buf []byte
	pos int
}

func newBitWriter(nbits int) *bitWriter {
	return &bitWriter{buf: make([]byte, (nbits+7)/8)}
}

func (bw *bitWriter) push(bit bool) {
	if bw.pos/8 >= len(bw.buf) {
		return
	}
	if bit {
		bw.buf[bw.pos/8] |= 1 << (7 - uint(bw.pos%8))
	}
	bw.pos++
}

func (bw *bitWriter) bytes() []byte {
	return bw.buf
}
