// Package decode turns audio files into in-memory stereo float32 buffers at
// the output sample rate.
package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrUnsupportedFile = errors.New("not an audio file")
	ErrUnknownFormat   = errors.New("no decoder for audio format")
	ErrEmptyAudio      = errors.New("audio file contains no samples")
)

// Stream is a decoded PCM stream of interleaved float32 samples in [-1, 1].
type Stream interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst and returns the number of values written. It
	// returns io.EOF once the stream is exhausted.
	ReadSamples(dst []float32) (int, error)
}

// Decoder constructs a Stream from encoded input.
type Decoder interface {
	Decode(r io.ReadSeeker) (Stream, error)
}

// Registry maps canonical MIME types to decoders.
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry knows wav, mp3, ogg vorbis and aiff.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("audio/wav", wavDecoder{})
	r.Register("audio/mpeg", mp3Decoder{})
	r.Register("audio/ogg", oggDecoder{})
	r.Register("audio/aiff", aiffDecoder{})
	return r
}

func (r *Registry) Register(mimeType string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[canonicalMIME(mimeType)] = d
}

func (r *Registry) Get(mimeType string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[canonicalMIME(mimeType)]
	return d, ok
}

// Buffer holds interleaved stereo samples.
type Buffer struct {
	SampleRate int
	Samples    []float32
}

func (b *Buffer) Frames() int { return len(b.Samples) / 2 }

func (b *Buffer) DurationSec() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

var extMIME = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
}

var mimeAliases = map[string]string{
	"audio/x-wav":     "audio/wav",
	"audio/wave":      "audio/wav",
	"audio/vnd.wave":  "audio/wav",
	"audio/mp3":       "audio/mpeg",
	"audio/x-mpeg":    "audio/mpeg",
	"application/ogg": "audio/ogg",
	"audio/vorbis":    "audio/ogg",
	"audio/x-ogg":     "audio/ogg",
	"audio/x-aiff":    "audio/aiff",
}

func canonicalMIME(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		t = mt
	}
	t = strings.ToLower(t)
	if alias, ok := mimeAliases[t]; ok {
		return alias
	}
	return t
}

// DetectMIME guesses the media type from the file name, falling back to the
// first bytes of the content.
func DetectMIME(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extMIME[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return canonicalMIME(t)
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	return canonicalMIME(http.DetectContentType(head))
}

// IsAudio reports whether the media type names audio.
func IsAudio(mimeType string) bool {
	return strings.HasPrefix(mimeType, "audio/")
}

// Check validates that name/head describe an audio file without decoding it.
func Check(name string, head []byte) (string, error) {
	t := DetectMIME(name, head)
	if !IsAudio(t) {
		return t, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFile, filepath.Base(name), t)
	}
	return t, nil
}

// File reads and decodes path. See Bytes.
func File(ctx context.Context, path string, sampleRate int) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Bytes(ctx, path, data, sampleRate)
}

// Bytes decodes an encoded file held in memory with the default registry.
func Bytes(ctx context.Context, name string, data []byte, sampleRate int) (*Buffer, error) {
	return DefaultRegistry().Bytes(ctx, name, data, sampleRate)
}

// Bytes decodes data into a stereo buffer resampled to sampleRate. ctx is
// checked between chunks so a superseded decode stops early.
func (r *Registry) Bytes(ctx context.Context, name string, data []byte, sampleRate int) (*Buffer, error) {
	mimeType, err := Check(name, data)
	if err != nil {
		return nil, err
	}
	d, ok := r.Get(mimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, mimeType)
	}
	stream, err := d.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(name), err)
	}
	samples, err := readAll(ctx, stream)
	if err != nil {
		return nil, err
	}
	stereo := ToStereo(samples, stream.Channels())
	if len(stereo) == 0 {
		return nil, ErrEmptyAudio
	}
	if stream.SampleRate() != sampleRate {
		stereo = Resample(stereo, 2, stream.SampleRate(), sampleRate)
	}
	return &Buffer{SampleRate: sampleRate, Samples: stereo}, nil
}

const readChunk = 16384

func readAll(ctx context.Context, s Stream) ([]float32, error) {
	ch := s.Channels()
	if ch <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", ch)
	}
	chunk := make([]float32, readChunk-readChunk%ch)
	var out []float32
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.ReadSamples(chunk)
		out = append(out, chunk[:n]...)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
	}
}
