package retrovinyl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cbegin/retrovinyl-go/internal/decode"
)

// sniffLen is how much of a file DetectMIME may look at.
const sniffLen = 512

// LoadResult is the outcome of a background decode started by Open or
// OpenBytes. Pass it to Load on the thread that owns the player.
type LoadResult struct {
	Name   string
	Buffer *decode.Buffer
	Err    error
	seq    uint64
}

// Open checks that path is audio and decodes it in the background. The
// returned channel yields exactly one result. A later Open or OpenBytes
// cancels this decode and makes its result stale.
func (p *Player) Open(path string) (<-chan LoadResult, error) {
	head, err := readHead(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	if _, err := decode.Check(path, head); err != nil {
		return nil, err
	}
	return p.startLoad(filepath.Base(path), func(ctx context.Context) (*decode.Buffer, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return p.registry.Bytes(ctx, path, data, p.sampleRate)
	}), nil
}

// OpenBytes is Open for a file already held in memory, such as a dropped
// file.
func (p *Player) OpenBytes(name string, data []byte) (<-chan LoadResult, error) {
	if _, err := decode.Check(name, data[:min(len(data), sniffLen)]); err != nil {
		return nil, err
	}
	return p.startLoad(filepath.Base(name), func(ctx context.Context) (*decode.Buffer, error) {
		return p.registry.Bytes(ctx, name, data, p.sampleRate)
	}), nil
}

func (p *Player) startLoad(name string, decodeFn func(context.Context) (*decode.Buffer, error)) <-chan LoadResult {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	if p.cancelLoad != nil {
		p.cancelLoad()
	}
	p.loadSeq++
	seq := p.loadSeq
	p.cancelLoad = cancel
	p.mu.Unlock()

	ch := make(chan LoadResult, 1)
	go func() {
		defer close(ch)
		buf, err := decodeFn(ctx)
		ch <- LoadResult{Name: name, Buffer: buf, Err: err, seq: seq}
	}()
	return ch
}

// Load installs a decoded track and starts playing it from the beginning.
// A failed decode returns an error wrapping ErrDecodeFailure and leaves the
// current track untouched; a result replaced by a newer Open returns
// ErrSuperseded.
func (p *Player) Load(res LoadResult) error {
	p.mu.Lock()
	if res.seq != p.loadSeq {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSuperseded, res.Name)
	}
	if p.cancelLoad != nil {
		p.cancelLoad()
		p.cancelLoad = nil
	}
	err := res.Err
	if err == nil && (res.Buffer == nil || res.Buffer.Frames() == 0) {
		err = decode.ErrEmptyAudio
	}
	if err != nil {
		p.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %s", ErrSuperseded, res.Name)
		}
		err = fmt.Errorf("%w: %s: %w", ErrDecodeFailure, res.Name, err)
		p.sendEvent(PlaybackEvent{Kind: EventLoadFailed, Name: res.Name, Err: err})
		return err
	}

	out, err := p.newOutput(p.sampleRate, p.graph)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("open audio output: %w", err)
	}
	if p.out != nil {
		_ = p.out.Stop()
	}
	p.out = out
	p.graph.SetSource(res.Buffer)
	p.routing.LoadSource()
	p.state = PlaybackState{
		Loaded:      true,
		Playing:     true,
		DurationSec: res.Buffer.DurationSec(),
	}
	p.name = res.Name
	out.Play()
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventLoaded, Name: res.Name})
	return nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}
