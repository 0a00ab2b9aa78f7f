package tts

import "sitzbot/backend/internal/audio"

// chunkSize mirrors the source's FFT resampler chunk size. Resample
// processes its whole input in one pass and does not use it.
const chunkSize = 1024

// Resample converts mono s16 PCM at fromRate to stereo s16 PCM at
// toRate using linear interpolation. The ecosystem's FFT resampler has
// no Go equivalent available in this build's dependency set, so this
// stays on the standard library; see the design notes for why no
// third-party resampler could take its place.
func Resample(input []int16, fromRate, toRate int) []audio.Sample {
	if len(input) == 0 || fromRate <= 0 || toRate <= 0 {
		return nil
	}
	if fromRate == toRate {
		out := make([]audio.Sample, len(input))
		for i, s := range input {
			out[i] = audio.Sample{Left: s, Right: s}
		}
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(input)) / ratio)
	out := make([]audio.Sample, 0, outLen)

	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)

		var sample float64
		if idx+1 < len(input) {
			sample = float64(input[idx])*(1-frac) + float64(input[idx+1])*frac
		} else {
			sample = float64(input[len(input)-1])
		}

		s := clampToInt16(sample)
		out = append(out, audio.Sample{Left: s, Right: s})
	}

	return out
}

func clampToInt16(v float64) int16 {
	const maxI16 = 1<<15 - 1
	const minI16 = -1 << 15
	if v > maxI16 {
		return maxI16
	}
	if v < minI16 {
		return minI16
	}
	return int16(v)
}
