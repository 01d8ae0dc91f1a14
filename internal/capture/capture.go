// Package capture provides the frame sources and result displays used by the
// recognition loop.
package capture

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-index/internal/extractor"
)

// ErrFrameUnreadable marks a failure confined to one frame. The source stays
// usable and the next call to Next moves on to the following frame.
var ErrFrameUnreadable = errors.New("frame unreadable")

// Frame is one captured image.
type Frame struct {
	Index int    // position in the capture sequence, starting at 0
	Name  string // source-specific name, a file path for directory sources
	Data  []byte // encoded image
}

// Source yields frames until it returns io.EOF. Errors wrapping
// ErrFrameUnreadable affect only the current frame; any other error means the
// source itself failed.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Detection is one classified face on a frame.
type Detection struct {
	Label    string        `json:"label"`
	Distance float64       `json:"distance"`
	Known    bool          `json:"known"`
	Box      extractor.Box `json:"box"`
}

// Display receives the classification results for each frame.
type Display interface {
	Show(frame Frame, detections []Detection) error
}
