package retrovinyl

import (
	"io"

	"github.com/cbegin/retrovinyl-go/internal/decode"
	"github.com/cbegin/retrovinyl-go/internal/graph"
	"github.com/cbegin/retrovinyl-go/internal/routing"
)

const renderBlockFrames = 1024

// RenderSettings configures an offline render.
type RenderSettings struct {
	Chain  routing.ChainState
	Rate   float64
	Volume float64
	// TailSec is extra time rendered after the source ends so the reverb
	// can ring out. Negative means the reverb room size when reverb is on.
	TailSec float64
}

func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		Chain:   routing.DefaultChainState(),
		Rate:    1,
		Volume:  1,
		TailSec: -1,
	}
}

// RenderSamples plays buf through the same chain the Player uses, faster
// than real time, and returns the interleaved stereo output.
func RenderSamples(buf *decode.Buffer, s RenderSettings) []float32 {
	if buf == nil || buf.Frames() == 0 {
		return nil
	}
	g := graph.New(buf.SampleRate, 0)
	g.SetSource(buf)
	g.SetRate(s.Rate)
	g.SetGain(s.Volume)
	ctl := routing.NewController(g, s.Chain)
	ctl.LoadSource()

	tail := s.TailSec
	if tail < 0 {
		tail = 0
		if st := ctl.State(); st.ReverbEnabled {
			tail = st.ReverbRoomSize
		}
	}
	tailFrames := int(tail * float64(buf.SampleRate))

	block := make([]float32, renderBlockFrames*2)
	out := make([]float32, 0, int(float64(len(buf.Samples))/g.Rate())+tailFrames*2)
	for !g.Ended() {
		g.Process(block)
		out = append(out, block...)
	}
	// The last block ran past the end of the source. Its padding already
	// carries the start of the tail.
	played := int(float64(buf.Frames())/g.Rate() + 0.5)
	if want := (played + tailFrames) * 2; want <= len(out) {
		return out[:want]
	}
	tailFrames -= len(out)/2 - played
	for tailFrames > 0 {
		n := min(tailFrames, renderBlockFrames)
		g.Process(block[:n*2])
		out = append(out, block[:n*2]...)
		tailFrames -= n
	}
	return out
}

// Render writes the offline render of buf to w as 16-bit WAV.
func Render(buf *decode.Buffer, s RenderSettings, w io.WriteSeeker) error {
	samples := RenderSamples(buf, s)
	if samples == nil {
		return decode.ErrEmptyAudio
	}
	return decode.EncodeWAV(w, samples, buf.SampleRate)
}
