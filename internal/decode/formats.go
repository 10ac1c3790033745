package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

var (
	ErrNotWAV         = errors.New("not a WAV file")
	ErrNotAIFF        = errors.New("not an AIFF file")
	ErrUnsupportedPCM = errors.New("unsupported PCM encoding")
)

// pcmReader is the part of the go-audio wav and aiff decoders we use.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// intSource adapts a go-audio integer PCM reader to Stream.
type intSource struct {
	dec        pcmReader
	format     *goaudio.Format
	bitDepth   int
	unsigned8  bool
	sampleRate int
	channels   int
	intBuf     *goaudio.IntBuffer
}

func (s *intSource) SampleRate() int { return s.sampleRate }
func (s *intSource) Channels() int   { return s.channels }

func (s *intSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{Data: make([]int, len(dst)), Format: s.format}
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		return 0, io.EOF
	}
	scale := float32(int64(1) << (s.bitDepth - 1))
	for i := 0; i < n; i++ {
		v := s.intBuf.Data[i]
		if s.unsigned8 {
			v -= 128
		}
		dst[i] = float32(v) / scale
	}
	return n, err
}

func checkBitDepth(bits int) error {
	switch bits {
	case 8, 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedPCM, bits)
	}
}

type wavDecoder struct{}

func (wavDecoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedPCM, dec.WavAudioFormat)
	}
	bits := int(dec.BitDepth)
	if err := checkBitDepth(bits); err != nil {
		return nil, err
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return &intSource{
		dec:        dec,
		format:     dec.Format(),
		bitDepth:   bits,
		unsigned8:  bits == 8,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
	}, nil
}

type aiffDecoder struct{}

func (aiffDecoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAIFF
	}
	dec.ReadInfo()
	bits := int(dec.BitDepth)
	if err := checkBitDepth(bits); err != nil {
		return nil, err
	}
	format := dec.Format()
	if format == nil {
		return nil, ErrNotAIFF
	}
	return &intSource{
		dec:        dec,
		format:     format,
		bitDepth:   bits,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
	}, nil
}

// mp3Source converts go-mp3's 16-bit little-endian stereo output.
type mp3Source struct {
	dec        *gomp3.Decoder
	sampleRate int
	buf        []byte
}

func (s *mp3Source) SampleRate() int { return s.sampleRate }
func (s *mp3Source) Channels() int   { return 2 }

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]
	n, err := s.dec.Read(s.buf)
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}
	if samples == 0 && err == nil {
		return 0, io.EOF
	}
	return samples, err
}

type mp3Decoder struct{}

func (mp3Decoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &mp3Source{dec: dec, sampleRate: dec.SampleRate()}, nil
}

type oggSource struct {
	dec *oggvorbis.Reader
}

func (s *oggSource) SampleRate() int { return s.dec.SampleRate() }
func (s *oggSource) Channels() int   { return s.dec.Channels() }

// ReadSamples relies on oggvorbis returning whole frames of values.
func (s *oggSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	return s.dec.Read(dst)
}

type oggDecoder struct{}

func (oggDecoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ogg: %w", err)
	}
	return &oggSource{dec: dec}, nil
}
