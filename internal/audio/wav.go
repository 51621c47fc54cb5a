// Package audio decodes WAV files into samples for the in-process engine
// and measures signal levels for the silence gate.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

// Clip holds decoded, interleaved samples normalized to [-1, 1].
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of per-channel sample frames.
func (c Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames()) / float64(c.SampleRate) * float64(time.Second))
}

// Mono downmixes interleaved channels by averaging each frame.
func (c Clip) Mono() []float32 {
	if c.Channels <= 1 {
		return c.Samples
	}

	frames := c.Frames()
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < c.Channels; ch++ {
			sum += c.Samples[i*c.Channels+ch]
		}
		mono[i] = sum / float32(c.Channels)
	}
	return mono
}

// Decode reads a RIFF/WAVE file. PCM (8/16/24/32 bit) and IEEE float
// (32/64 bit) data chunks are supported.
func Decode(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Clip{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Clip{}, fmt.Errorf("read wav header: %w", err)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Clip{}, ErrInvalidWAV
	}

	var (
		audioFormat   uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		data          []byte
		hasFmt        bool
		hasData       bool
	)

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(f, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Clip{}, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		padded := int64(chunkSize)
		if chunkSize%2 != 0 {
			padded++
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Clip{}, ErrInvalidWAV
			}

			buf := make([]byte, padded)
			if _, err := io.ReadFull(f, buf); err != nil {
				return Clip{}, fmt.Errorf("read wav fmt chunk: %w", err)
			}

			audioFormat = binary.LittleEndian.Uint16(buf[0:2])
			channels = binary.LittleEndian.Uint16(buf[2:4])
			sampleRate = binary.LittleEndian.Uint32(buf[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(buf[14:16])
			hasFmt = true
		case "data":
			data = make([]byte, chunkSize)
			if _, err := io.ReadFull(f, data); err != nil {
				return Clip{}, fmt.Errorf("read wav data: %w", err)
			}
			if chunkSize%2 != 0 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return Clip{}, fmt.Errorf("seek wav data padding: %w", err)
				}
			}
			hasData = true
		default:
			if _, err := f.Seek(padded, io.SeekCurrent); err != nil {
				return Clip{}, fmt.Errorf("seek wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !hasFmt || !hasData {
		return Clip{}, ErrInvalidWAV
	}

	if err := validateFormat(audioFormat, bitsPerSample); err != nil {
		return Clip{}, err
	}
	if channels == 0 {
		return Clip{}, ErrInvalidWAV
	}

	samples, err := decodeSamples(data, audioFormat, bitsPerSample)
	if err != nil {
		return Clip{}, err
	}

	return Clip{
		SampleRate: int(sampleRate),
		Channels:   int(channels),
		Samples:    samples,
	}, nil
}

func validateFormat(audioFormat, bitsPerSample uint16) error {
	switch audioFormat {
	case 1:
		switch bitsPerSample {
		case 8, 16, 24, 32:
			return nil
		}
	case 3:
		switch bitsPerSample {
		case 32, 64:
			return nil
		}
	}
	return ErrUnsupportedWAV
}

func decodeSamples(data []byte, audioFormat, bitsPerSample uint16) ([]float32, error) {
	bytesPerSample := int(bitsPerSample / 8)
	if bytesPerSample <= 0 {
		return nil, ErrUnsupportedWAV
	}

	samples := make([]float32, 0, len(data)/bytesPerSample)
	for i := 0; i+bytesPerSample <= len(data); i += bytesPerSample {
		value, err := decodeSample(data[i:i+bytesPerSample], audioFormat, bitsPerSample)
		if err != nil {
			return nil, err
		}
		samples = append(samples, float32(value))
	}

	return samples, nil
}

func decodeSample(sample []byte, audioFormat, bitsPerSample uint16) (float64, error) {
	if audioFormat == 3 {
		switch bitsPerSample {
		case 32:
			bits := binary.LittleEndian.Uint32(sample)
			return float64(math.Float32frombits(bits)), nil
		case 64:
			bits := binary.LittleEndian.Uint64(sample)
			return math.Float64frombits(bits), nil
		default:
			return 0, ErrUnsupportedWAV
		}
	}

	switch bitsPerSample {
	case 8:
		u := float64(sample[0])
		return (u - 128.0) / 128.0, nil
	case 16:
		v := int16(binary.LittleEndian.Uint16(sample))
		return float64(v) / 32768.0, nil
	case 24:
		v := int32(sample[0]) | int32(sample[1])<<8 | int32(sample[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608.0, nil
	case 32:
		v := int32(binary.LittleEndian.Uint32(sample))
		return float64(v) / 2147483648.0, nil
	default:
		return 0, ErrUnsupportedWAV
	}
}
