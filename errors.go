package retrovinyl

import (
	"errors"

	"github.com/cbegin/retrovinyl-go/internal/decode"
)

var (
	// ErrUnsupportedFile rejects files whose media type is not audio. The
	// player state is left untouched.
	ErrUnsupportedFile = decode.ErrUnsupportedFile
	// ErrDecodeFailure wraps any failure to read or decode an audio file.
	ErrDecodeFailure = errors.New("decode failed")
	// ErrNoSource is returned by transport calls while nothing is loaded.
	ErrNoSource = errors.New("no audio loaded")
	// ErrSuperseded is returned by Load for a result that a newer Open
	// replaced.
	ErrSuperseded = errors.New("load superseded by a newer file")
)
