package dither

import (
	"math"
	"sort"

	"labelpress/internal/raster"
)

// Dither converts an intensity grid into a boolean ink matrix of identical
// dimensions using the algorithm selected by p.Method. Every algorithm is a
// pure function of (g, p); re-running with the same inputs is bit-identical.
func Dither(g *Grayscale, p Params) (*raster.Bitmap, error) {
	if g == nil || g.Width <= 0 || g.Height <= 0 {
		return nil, ErrInvalidInput
	}
	p = p.Clamped()

	var bm *raster.Bitmap
	switch p.Method {
	case MethodThreshold:
		bm = ditherThreshold(g, p.Threshold)
	case MethodFloydSteinberg:
		bm = ditherFloydSteinberg(g, p.Threshold)
	case MethodAtkinson:
		bm = ditherAtkinson(g, p.Threshold)
	case MethodBayer:
		bm = ditherBayer(g, p.BayerSize)
	case MethodHalftone:
		bm = ditherHalftone(g, p.CellSize)
	default:
		bm = ditherThreshold(g, p.Threshold)
	}

	if p.Invert {
		bm.Invert()
	}
	return bm, nil
}

func ditherThreshold(g *Grayscale, threshold int) *raster.Bitmap {
	bm := raster.New(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if int(g.At(x, y)) < threshold {
				bm.Set(x, y, true)
			}
		}
	}
	return bm
}

// ditherFloydSteinberg scans rows left-to-right, top-to-bottom (no
// serpentine; the scan order is part of the determinism contract) and
// spreads each pixel's quantization error 7/16 right, 3/16 below-left,
// 5/16 below, 1/16 below-right. Error leaving the grid is discarded.
func ditherFloydSteinberg(g *Grayscale, threshold int) *raster.Bitmap {
	bm := raster.New(g.Width, g.Height)
	buf := floatCopy(g)
	w, h := g.Width, g.Height

	diffuse := func(x, y int, e float64) {
		if x >= 0 && x < w && y >= 0 && y < h {
			buf[y*w+x] += e
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := buf[y*w+x]
			var quantized float64
			if old < float64(threshold) {
				bm.Set(x, y, true)
				quantized = 0
			} else {
				quantized = 255
			}
			err := old - quantized
			diffuse(x+1, y, err*7/16)
			diffuse(x-1, y+1, err*3/16)
			diffuse(x, y+1, err*5/16)
			diffuse(x+1, y+1, err*1/16)
		}
	}
	return bm
}

// ditherAtkinson uses the same scan order but propagates only 6/8 of the
// error, 1/8 each to six neighbours (two to the right, three on the next
// row, one two rows down). The dropped 2/8 raises local contrast.
func ditherAtkinson(g *Grayscale, threshold int) *raster.Bitmap {
	bm := raster.New(g.Width, g.Height)
	buf := floatCopy(g)
	w, h := g.Width, g.Height

	diffuse := func(x, y int, e float64) {
		if x >= 0 && x < w && y >= 0 && y < h {
			buf[y*w+x] += e
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := buf[y*w+x]
			var quantized float64
			if old < float64(threshold) {
				bm.Set(x, y, true)
				quantized = 0
			} else {
				quantized = 255
			}
			share := (old - quantized) / 8
			diffuse(x+1, y, share)
			diffuse(x+2, y, share)
			diffuse(x-1, y+1, share)
			diffuse(x, y+1, share)
			diffuse(x+1, y+1, share)
			diffuse(x, y+2, share)
		}
	}
	return bm
}

func ditherBayer(g *Grayscale, size int) *raster.Bitmap {
	matrix := bayerMatrix(size)
	bm := raster.New(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		row := matrix[y%size]
		for x := 0; x < g.Width; x++ {
			if int(g.At(x, y)) < row[x%size] {
				bm.Set(x, y, true)
			}
		}
	}
	return bm
}

// bayerMatrix builds an n x n ordered-dither threshold matrix with values
// spread over [0,255]. Even sizes double recursively from the classic 2x2
// cell; the odd base cells reached by halving (3, 5, 7) use a modular
// permutation so every rank in [0, n^2) appears exactly once.
func bayerMatrix(n int) [][]int {
	ranks := bayerRanks(n)
	cells := n * n
	matrix := make([][]int, n)
	for y := 0; y < n; y++ {
		matrix[y] = make([]int, n)
		for x := 0; x < n; x++ {
			matrix[y][x] = ranks[y][x] * 255 / (cells - 1)
		}
	}
	return matrix
}

func bayerRanks(n int) [][]int {
	if n <= 1 {
		return [][]int{{0}}
	}
	if n%2 == 0 {
		half := bayerRanks(n / 2)
		m := make([][]int, n)
		for y := 0; y < n; y++ {
			m[y] = make([]int, n)
			for x := 0; x < n; x++ {
				base := 4 * half[y%(n/2)][x%(n/2)]
				switch {
				case y < n/2 && x < n/2:
					m[y][x] = base
				case y < n/2:
					m[y][x] = base + 2
				case x < n/2:
					m[y][x] = base + 3
				default:
					m[y][x] = base + 1
				}
			}
		}
		return m
	}
	// Odd base: rank(x,y) = ((x+2y) mod n)*n + ((x+y) mod n). The
	// coordinate map has determinant -1, so it is a bijection for any n.
	m := make([][]int, n)
	for y := 0; y < n; y++ {
		m[y] = make([]int, n)
		for x := 0; x < n; x++ {
			m[y][x] = ((x+2*y)%n)*n + (x+y)%n
		}
	}
	return m
}

// ditherHalftone partitions the grid into cell x cell blocks and renders
// each block as a clustered dot: the block's mean intensity picks how many
// pixels get ink, and ink fills outward from the block centre.
func ditherHalftone(g *Grayscale, cell int) *raster.Bitmap {
	bm := raster.New(g.Width, g.Height)
	order := cellFillOrder(cell)

	for by := 0; by < g.Height; by += cell {
		for bx := 0; bx < g.Width; bx += cell {
			var sum, count int
			for dy := 0; dy < cell && by+dy < g.Height; dy++ {
				for dx := 0; dx < cell && bx+dx < g.Width; dx++ {
					sum += int(g.At(bx+dx, by+dy))
					count++
				}
			}
			if count == 0 {
				continue
			}
			mean := float64(sum) / float64(count)
			fill := 1 - mean/255
			inkCount := int(math.Round(fill * float64(count)))

			placed := 0
			for _, off := range order {
				if placed >= inkCount {
					break
				}
				x, y := bx+off.dx, by+off.dy
				if x < g.Width && y < g.Height {
					bm.Set(x, y, true)
					placed++
				}
			}
		}
	}
	return bm
}

type cellOffset struct {
	dx, dy int
}

// cellFillOrder returns the cell positions sorted by distance from the cell
// centre, with a fixed scan-order tie break so dot shapes are deterministic.
func cellFillOrder(cell int) []cellOffset {
	center := float64(cell-1) / 2
	offsets := make([]cellOffset, 0, cell*cell)
	for dy := 0; dy < cell; dy++ {
		for dx := 0; dx < cell; dx++ {
			offsets = append(offsets, cellOffset{dx: dx, dy: dy})
		}
	}
	sort.SliceStable(offsets, func(i, j int) bool {
		di := sqDist(offsets[i], center)
		dj := sqDist(offsets[j], center)
		if di != dj {
			return di < dj
		}
		if offsets[i].dy != offsets[j].dy {
			return offsets[i].dy < offsets[j].dy
		}
		return offsets[i].dx < offsets[j].dx
	})
	return offsets
}

func sqDist(o cellOffset, center float64) float64 {
	dx := float64(o.dx) - center
	dy := float64(o.dy) - center
	return dx*dx + dy*dy
}

func floatCopy(g *Grayscale) []float64 {
	buf := make([]float64, len(g.Pix))
	for i, v := range g.Pix {
		buf[i] = float64(v)
	}
	return buf
}
