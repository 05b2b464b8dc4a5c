package convert

import "slices"

// opus only accepts these input rates
var opusRates = []int{8000, 12000, 16000, 24000, 48000}

// IsFrameSizeValid reports whether frameSize samples per channel is a legal
// Opus frame (2.5, 5, 10, 20, 40 or 60 ms) at sampleRate.
func IsFrameSizeValid(sampleRate, frameSize int) bool {
	if !slices.Contains(opusRates, sampleRate) {
		return false
	}
	ms25 := sampleRate / 400
	valid := []int{ms25, ms25 * 2, ms25 * 4, ms25 * 8, ms25 * 16, ms25 * 24}
	return slices.Contains(valid, frameSize)
}
