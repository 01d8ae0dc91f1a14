// Package recognition runs the capture, extract and classify cycle against the
// periodically refreshed identity snapshot.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kozaktomas/face-index/internal/capture"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/matcher"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/rs/zerolog/log"
)

// Stats counts what a loop has processed.
type Stats struct {
	Frames  int
	Skipped int
	Faces   int
	Known   int
}

// Loop classifies every face on every frame of a source.
type Loop struct {
	source     capture.Source
	extractor  extractor.Extractor
	cache      *snapshot.Cache
	matcher    *matcher.Matcher
	display    capture.Display
	frameScale float64
	now        func() time.Time

	stats Stats
}

// Option configures a Loop.
type Option func(*Loop)

// WithFrameScale downscales frames by f before extraction. Boxes are mapped
// back to the original frame size.
func WithFrameScale(f float64) Option {
	return func(l *Loop) { l.frameScale = f }
}

// WithClock replaces time.Now for refresh decisions.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// NewLoop creates a loop. Frames are passed to the extractor unscaled unless
// WithFrameScale is given.
func NewLoop(src capture.Source, ex extractor.Extractor, cache *snapshot.Cache, m *matcher.Matcher, display capture.Display, opts ...Option) *Loop {
	l := &Loop{
		source:     src,
		extractor:  ex,
		cache:      cache,
		matcher:    m,
		display:    display,
		frameScale: 1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stats returns the counters collected so far. It must not be called while Run is active.
func (l *Loop) Stats() Stats {
	return l.stats
}

// Run processes frames until ctx is cancelled or the source is exhausted.
// Both end the loop without error. The source is closed on return.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.source.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close frame source")
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := l.source.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF) || ctx.Err() != nil:
			return nil
		case errors.Is(err, capture.ErrFrameUnreadable):
			l.stats.Frames++
			l.stats.Skipped++
			log.Warn().Err(err).Msg("skipping unreadable frame")
			continue
		default:
			return fmt.Errorf("failed to capture frame: %w", err)
		}
		l.stats.Frames++

		detections, err := l.process(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.stats.Skipped++
			log.Warn().Err(err).Int("frame", frame.Index).Msg("skipping frame")
			continue
		}

		if err := l.display.Show(frame, detections); err != nil {
			return fmt.Errorf("failed to display frame %d: %w", frame.Index, err)
		}
	}
}

func (l *Loop) process(ctx context.Context, frame capture.Frame) ([]capture.Detection, error) {
	data, factor, err := capture.Downscale(frame.Data, l.frameScale)
	if err != nil {
		log.Debug().Err(err).Int("frame", frame.Index).Msg("using frame at full size")
	}

	faces, err := l.extractor.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract faces: %w", err)
	}

	detections := make([]capture.Detection, 0, len(faces))
	for _, f := range faces {
		if _, err := l.cache.RefreshIfDue(ctx, l.now()); err != nil {
			log.Error().Err(err).Msg("failed to refresh identities, keeping previous snapshot")
		}

		m := l.matcher.Classify(f.Embedding, l.cache.Current())
		l.stats.Faces++
		if m.Known {
			l.stats.Known++
		}
		detections = append(detections, capture.Detection{
			Label:    m.Label,
			Distance: m.Distance,
			Known:    m.Known,
			Box:      f.Box.Scale(1 / factor),
		})
	}
	return detections, nil
}
