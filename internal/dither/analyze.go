package dither

import (
	"gonum.org/v1/gonum/stat"
)

// Histogram counts adjusted intensities into 256 bins.
func Histogram(g *Grayscale) [256]float64 {
	var hist [256]float64
	for _, v := range g.Pix {
		hist[v]++
	}
	return hist
}

var intensityLevels = func() []float64 {
	levels := make([]float64, 256)
	for i := range levels {
		levels[i] = float64(i)
	}
	return levels
}()

// MeanStdDev returns the weighted mean and standard deviation of the grid's
// intensities, used by the adjustment panel's readout.
func MeanStdDev(g *Grayscale) (mean, std float64) {
	hist := Histogram(g)
	mean, std = stat.MeanStdDev(intensityLevels, hist[:])
	return mean, std
}

// SuggestThreshold computes Otsu's threshold for the grid: the cut that
// maximises between-class variance of the intensity histogram. Backs the
// "Auto" button next to the threshold slider.
func SuggestThreshold(g *Grayscale) int {
	hist := Histogram(g)
	total := float64(len(g.Pix))
	if total == 0 {
		return 128
	}
	globalMean := stat.Mean(intensityLevels, hist[:])

	best := 128
	bestVariance := -1.0
	var weightBg, sumBg float64
	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t) * hist[t]
		meanBg := sumBg / weightBg
		meanFg := (globalMean*total - sumBg) / weightFg
		variance := weightBg * weightFg * (meanBg - meanFg) * (meanBg - meanFg)
		if variance > bestVariance {
			bestVariance = variance
			best = t + 1 // ink rule is strict less-than, so cut above the bin
		}
	}
	return clampInt(best, MinThreshold, MaxThreshold)
}
