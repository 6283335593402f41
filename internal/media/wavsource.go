package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// wavData is a decoded PCM stream, downmixed to mono float32.
type wavData struct {
	samples    []float32
	sampleRate int
}

// decodeWAV reads a RIFF/WAVE file containing 16-bit PCM. Multi-channel
// audio is averaged down to mono.
func decodeWAV(path string) (*wavData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return nil, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%s is not a RIFF/WAVE file", path)
	}

	var (
		channels   int
		sampleRate int
		bitDepth   int
		haveFormat bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(f, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%s has no data chunk", path)
			}
			return nil, err
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			raw := make([]byte, size)
			if _, err := io.ReadFull(f, raw); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(raw[0:2])
			if format != 1 {
				return nil, fmt.Errorf("%s: unsupported audio format %d, want PCM", path, format)
			}
			channels = int(binary.LittleEndian.Uint16(raw[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(raw[4:8]))
			bitDepth = int(binary.LittleEndian.Uint16(raw[14:16]))
			if channels < 1 || sampleRate < 1 {
				return nil, fmt.Errorf("%s: malformed fmt chunk", path)
			}
			if bitDepth != 16 {
				return nil, fmt.Errorf("%s: unsupported bit depth %d, want 16", path, bitDepth)
			}
			haveFormat = true
		case "data":
			if !haveFormat {
				return nil, fmt.Errorf("%s: data chunk before fmt chunk", path)
			}
			raw := make([]byte, size)
			if _, err := io.ReadFull(f, raw); err != nil {
				return nil, fmt.Errorf("read data chunk: %w", err)
			}
			frames := len(raw) / (2 * channels)
			samples := make([]float32, frames)
			for i := 0; i < frames; i++ {
				var sum float64
				for ch := 0; ch < channels; ch++ {
					offset := (i*channels + ch) * 2
					sum += float64(int16(binary.LittleEndian.Uint16(raw[offset : offset+2])))
				}
				samples[i] = float32(sum / float64(channels) / math.MaxInt16)
			}
			return &wavData{samples: samples, sampleRate: sampleRate}, nil
		default:
			if _, err := f.Seek(size+size&1, io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}
}

// wavSource streams decoded samples at the element's playback rate using
// linear interpolation, pacing reads to roughly real time so the pump does
// not spin.
type wavSource struct {
	data     *wavData
	position float64
	rate     func() float64
	onDrain  func()
	drained  bool
	closed   chan struct{}
}

func newWAVSource(data *wavData, rate func() float64, onDrain func()) *wavSource {
	return &wavSource{data: data, rate: rate, onDrain: onDrain, closed: make(chan struct{})}
}

func (s *wavSource) ReadBlock(dst []float32) (int, error) {
	select {
	case <-s.closed:
		return 0, io.EOF
	default:
	}
	if s.drained {
		return 0, io.EOF
	}

	rate := s.rate()
	if rate <= 0 {
		rate = 1
	}

	n := 0
	for n < len(dst) {
		idx := int(s.position)
		if idx >= len(s.data.samples)-1 {
			break
		}
		frac := float32(s.position - float64(idx))
		dst[n] = s.data.samples[idx]*(1-frac) + s.data.samples[idx+1]*frac
		s.position += rate
		n++
	}

	if n < len(dst) {
		s.drained = true
		if s.onDrain != nil {
			s.onDrain()
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, io.EOF
	}

	// Pace to real time so downstream consumers see a steady stream.
	select {
	case <-time.After(time.Duration(n) * time.Second / time.Duration(s.data.sampleRate)):
	case <-s.closed:
	}
	return n, nil
}

func (s *wavSource) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}
