package monitor

import "math"

// silenceDB is reported for buffers with no measurable energy
const silenceDB = -100

// Level calculates RMS and dB level
func Level(samples []float32) (rms, db float32) {
	if len(samples) == 0 {
		return 0, silenceDB
	}

	sumSquares := float32(0)
	for _, sample := range samples {
		sumSquares += sample * sample
	}

	rms = float32(math.Sqrt(float64(sumSquares / float32(len(samples)))))

	// Avoid log(0)
	if rms > 0.0000001 {
		db = 20 * float32(math.Log10(float64(rms)))
	} else {
		db = silenceDB
	}

	return rms, db
}
