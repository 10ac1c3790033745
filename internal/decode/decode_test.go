package decode

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func sine(frames, rate int, freq float64) []float32 {
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		out[2*i] = v
		out[2*i+1] = -v
	}
	return out
}

func writeStereoWAV(t *testing.T, name string, samples []float32, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := EncodeWAV(f, samples, rate); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func writeMonoWAV(t *testing.T, values []int, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mono.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           values,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	in := sine(4800, 48000, 440)
	path := writeStereoWAV(t, "tone.wav", in, 48000)

	buf, err := File(context.Background(), path, 48000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.Frames() != 4800 {
		t.Fatalf("frames = %d, want 4800", buf.Frames())
	}
	if math.Abs(buf.DurationSec()-0.1) > 1e-9 {
		t.Fatalf("duration = %f, want 0.1", buf.DurationSec())
	}
	for i := range in {
		if math.Abs(float64(buf.Samples[i]-in[i])) > 2.0/32767 {
			t.Fatalf("sample %d: got %f want %f", i, buf.Samples[i], in[i])
		}
	}
}

func TestMonoIsDuplicatedAndResampled(t *testing.T) {
	values := make([]int, 2400)
	for i := range values {
		values[i] = 8000
	}
	path := writeMonoWAV(t, values, 24000)

	buf, err := File(context.Background(), path, 48000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.SampleRate != 48000 {
		t.Fatalf("sample rate = %d", buf.SampleRate)
	}
	if buf.Frames() != 4800 {
		t.Fatalf("frames = %d, want 4800", buf.Frames())
	}
	want := float32(8000) / 32768
	for i := 0; i < buf.Frames(); i++ {
		l, r := buf.Samples[2*i], buf.Samples[2*i+1]
		if l != r {
			t.Fatalf("frame %d not duplicated: %f/%f", i, l, r)
		}
		if math.Abs(float64(l-want)) > 1e-4 {
			t.Fatalf("frame %d = %f, want %f", i, l, want)
		}
	}
}

func TestDetectMIME(t *testing.T) {
	riff := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00")
	cases := []struct {
		name string
		head []byte
		want string
	}{
		{"song.mp3", nil, "audio/mpeg"},
		{"SONG.WAV", nil, "audio/wav"},
		{"take.ogg", nil, "audio/ogg"},
		{"loop.aiff", nil, "audio/aiff"},
		{"lossless.flac", nil, "audio/flac"},
		{"noext", riff, "audio/wav"},
		{"notes.unknownext", []byte("hello, plain text"), "text/plain"},
		{"empty", nil, "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectMIME(tc.name, tc.head)
			if len(got) < len(tc.want) || got[:len(tc.want)] != tc.want {
				t.Fatalf("DetectMIME(%q) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestNonAudioIsRejected(t *testing.T) {
	_, err := Bytes(context.Background(), "readme.unknownext", []byte("just some text"), 48000)
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("err = %v, want ErrUnsupportedFile", err)
	}
}

func TestAudioWithoutDecoder(t *testing.T) {
	_, err := Bytes(context.Background(), "track.flac", []byte("fLaC"), 48000)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestCorruptFilesFailToDecode(t *testing.T) {
	for _, name := range []string{"bad.wav", "bad.mp3", "bad.ogg", "bad.aiff"} {
		t.Run(name, func(t *testing.T) {
			_, err := Bytes(context.Background(), name, []byte("this is not audio data"), 48000)
			if err == nil {
				t.Fatal("expected decode error")
			}
			if errors.Is(err, ErrUnsupportedFile) {
				t.Fatal("audio extension must not be reported as unsupported")
			}
		})
	}
}

func TestCancelledDecode(t *testing.T) {
	path := writeStereoWAV(t, "tone.wav", sine(48000, 48000, 220), 48000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := File(ctx, path, 48000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestEmptyWAV(t *testing.T) {
	path := writeStereoWAV(t, "empty.wav", nil, 48000)
	_, err := File(context.Background(), path, 48000)
	if err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestResampleLength(t *testing.T) {
	in := sine(1000, 44100, 100)
	out := Resample(in, 2, 44100, 48000)
	ratio := 44100.0 / 48000.0
	want := int(1000 / ratio)
	if len(out)/2 != want {
		t.Fatalf("frames = %d, want %d", len(out)/2, want)
	}
	if same := Resample(in, 2, 48000, 48000); len(same) != len(in) {
		t.Fatal("same rate should return input")
	}
}

func TestToStereo(t *testing.T) {
	got := ToStereo([]float32{1, 2, 3, 4, 5, 6}, 3)
	want := []float32{1, 2, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRegistryCanonicalisesAliases(t *testing.T) {
	r := DefaultRegistry()
	for _, alias := range []string{"audio/x-wav", "audio/wave", "audio/mp3", "application/ogg", "audio/x-aiff"} {
		if _, ok := r.Get(alias); !ok {
			t.Errorf("no decoder for alias %q", alias)
		}
	}
}
