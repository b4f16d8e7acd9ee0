package monitor

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Note represents a musical note
type Note struct {
	Name      string  // e.g., "A", "A#", "B"
	Octave    int     // e.g., 4 for middle C (C4)
	Frequency float64 // Frequency in Hz
	Cents     float64 // Cents deviation from perfect pitch (-50 to +50)
}

// All note names in chromatic order
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Detector finds the dominant pitch of a mono buffer using an FFT
type Detector struct {
	minFrequency    float64 // Lowest frequency to detect (Hz)
	maxFrequency    float64 // Highest frequency to detect (Hz)
	volumeThreshold float64 // Minimum RMS volume level for note detection
}

// NewDetector creates a detector tuned for instruments fed into a looper
func NewDetector() *Detector {
	return &Detector{
		minFrequency:    60.0,   // below low B on a 5-string bass
		maxFrequency:    1500.0, // well above the top fret of a guitar
		volumeThreshold: 0.005,
	}
}

// Detect analyzes samples recorded at sampleRate and returns the detected note
func (d *Detector) Detect(samples []float32, sampleRate int) (*Note, error) {
	if len(samples) < 2 || sampleRate <= 0 {
		return nil, ErrEmptyBuffer
	}

	rms, db := Level(samples)
	if float64(rms) < d.volumeThreshold || db < -50.0 {
		return nil, ErrVolumeThreshold
	}

	hann := window.Hann(len(samples))
	windowed := make([]float64, len(samples))
	for i, sample := range samples {
		windowed[i] = float64(sample) * hann[i]
	}

	spectrum := fft.FFTReal(windowed)

	freq, ok := d.peakFrequency(spectrum, sampleRate)
	if !ok {
		return nil, ErrNoPitch
	}

	return frequencyToNote(freq), nil
}

// peakFrequency returns the frequency of the strongest bin inside the
// detection range, refined by quadratic interpolation
func (d *Detector) peakFrequency(spectrum []complex128, sampleRate int) (float64, bool) {
	// Only the first half is meaningful for a real input
	half := spectrum[:len(spectrum)/2]
	binSizeHz := float64(sampleRate) / float64(len(spectrum))

	minBin := max(int(d.minFrequency/binSizeHz), 1)
	maxBin := min(int(d.maxFrequency/binSizeHz), len(half)-2)
	if minBin >= maxBin {
		return 0, false
	}

	peak := -1
	peakMag := 0.0
	for i := minBin; i <= maxBin; i++ {
		if mag := cmplx.Abs(half[i]); mag > peakMag {
			peak = i
			peakMag = mag
		}
	}
	if peak < 0 {
		return 0, false
	}

	// x = 0.5 * (R[k-1] - R[k+1]) / (R[k-1] - 2*R[k] + R[k+1]) + k
	prev := cmplx.Abs(half[peak-1])
	next := cmplx.Abs(half[peak+1])
	delta := 0.0
	if denom := prev - 2*peakMag + next; denom != 0 {
		delta = 0.5 * (prev - next) / denom
	}

	return (float64(peak) + delta) * binSizeHz, true
}

// frequencyToNote converts a frequency to a musical note
func frequencyToNote(frequency float64) *Note {
	// A4 = 440Hz, calculate semitones from A4
	semitones := 12 * math.Log2(frequency/440.0)
	roundedSemitones := math.Round(semitones)
	cents := 100 * (semitones - roundedSemitones)

	// A4 is 9 semitones above C4
	noteIndex := int(math.Mod(roundedSemitones+9, 12))
	if noteIndex < 0 {
		noteIndex += 12
	}
	octave := 4 + int(math.Floor((roundedSemitones+9)/12))

	return &Note{
		Name:      noteNames[noteIndex],
		Octave:    octave,
		Frequency: frequency,
		Cents:     cents,
	}
}
