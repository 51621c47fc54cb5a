package audio

import "math"

type SilenceMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// Measure computes peak and RMS levels in dBFS over all interleaved samples.
func Measure(clip Clip) SilenceMetrics {
	var peak float64
	var sumSquares float64

	for _, s := range clip.Samples {
		value := float64(s)
		abs := math.Abs(value)
		if abs > peak {
			peak = abs
		}
		sumSquares += value * value
	}

	samples := int64(len(clip.Samples))
	if samples == 0 {
		return SilenceMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1), Samples: 0}
	}

	rms := math.Sqrt(sumSquares / float64(samples))
	return SilenceMetrics{
		RMSdBFS:  amplitudeToDBFS(rms),
		PeakdBFS: amplitudeToDBFS(peak),
		Samples:  samples,
	}
}

// IsSilentWAV reports whether the WAV file at path carries no usable signal.
// The peak gate sits 6 dB above the RMS threshold so short clicks on an
// otherwise silent track still count as silence.
func IsSilentWAV(path string, thresholdDBFS float64) (bool, SilenceMetrics, error) {
	clip, err := Decode(path)
	if err != nil {
		return false, SilenceMetrics{}, err
	}

	metrics := Measure(clip)
	if metrics.Samples == 0 {
		return true, metrics, nil
	}

	if math.IsInf(metrics.RMSdBFS, -1) && math.IsInf(metrics.PeakdBFS, -1) {
		return true, metrics, nil
	}

	peakGate := thresholdDBFS + 6
	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= peakGate, metrics, nil
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}
