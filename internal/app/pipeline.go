package app

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/disintegration/imaging"

	"labelpress/internal/dither"
	"labelpress/internal/layer"
	"labelpress/internal/raster"
)

// ErrDecode is returned when a source image cannot be decoded. The failed
// layer keeps its previous bitmap, if it had one.
var ErrDecode = errors.New("app: source image decode failed")

// RenderImage runs the full reprocessing pipeline for one image layer:
// continuous-tone Lanczos scale of the immutable source to the target
// size, grayscale preprocessing, dithering, and exact-size correction.
// Pure: same inputs, bit-identical output.
func RenderImage(src image.Image, p dither.Params, width, height int) (*raster.Bitmap, error) {
	if src == nil || width < 1 || height < 1 {
		return nil, dither.ErrInvalidInput
	}

	// Smoothing is fine here: the image is still continuous-tone until
	// the ditherer quantizes it.
	scaled := imaging.Resize(src, width, height, imaging.Lanczos)

	gray, err := dither.Preprocess(scaled, p.Brightness, p.Contrast)
	if err != nil {
		return nil, err
	}
	bm, err := dither.Dither(gray, p)
	if err != nil {
		return nil, err
	}
	if bm.Width() != width || bm.Height() != height {
		// Corrected silently; the dimension contract always holds for
		// the caller.
		log.Printf("app: dither output %dx%d != target %dx%d, resampling",
			bm.Width(), bm.Height(), width, height)
		bm = bm.Resample(width, height)
	}
	return bm, nil
}

// adjustedGray rebuilds an image layer's grayscale at its current
// brightness and contrast, snapshotting the parameters under the store
// lock.
func (s *State) adjustedGray(id layer.ID) (*dither.Grayscale, error) {
	img, ok := s.Store.Image(id)
	if !ok {
		return nil, fmt.Errorf("image layer %d not found", id)
	}
	p, _ := s.Store.Params(id)
	w, h := img.PixelSize()
	if w < 1 || h < 1 {
		return nil, dither.ErrInvalidInput
	}
	scaled := imaging.Resize(img.Source, w, h, imaging.Lanczos)
	return dither.Preprocess(scaled, p.Brightness, p.Contrast)
}

// SuggestThreshold computes Otsu's threshold for an image layer from its
// adjusted grayscale.
func (s *State) SuggestThreshold(id layer.ID) (int, error) {
	gray, err := s.adjustedGray(id)
	if err != nil {
		return 0, err
	}
	return dither.SuggestThreshold(gray), nil
}

// GrayStats reports the mean and standard deviation of an image layer's
// adjusted grayscale, for the adjustment panel's readout.
func (s *State) GrayStats(id layer.ID) (mean, std float64, err error) {
	gray, err := s.adjustedGray(id)
	if err != nil {
		return 0, 0, err
	}
	mean, std = dither.MeanStdDev(gray)
	return mean, std, nil
}
