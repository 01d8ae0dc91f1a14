package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LogDisplay writes each detection as a structured log line.
type LogDisplay struct{}

// Show logs the detections of frame.
func (LogDisplay) Show(frame Frame, detections []Detection) error {
	if len(detections) == 0 {
		log.Debug().Int("frame", frame.Index).Str("name", frame.Name).Msg("no faces")
		return nil
	}
	for _, d := range detections {
		log.Info().
			Int("frame", frame.Index).
			Str("name", frame.Name).
			Str("label", d.Label).
			Bool("known", d.Known).
			Float64("distance", d.Distance).
			Floats64("box", []float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2}).
			Msg("face")
	}
	return nil
}

// JSONDisplay writes one JSON object per frame to w.
type JSONDisplay struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewJSONDisplay creates a display writing JSON lines to w.
func NewJSONDisplay(w io.Writer) *JSONDisplay {
	return &JSONDisplay{enc: json.NewEncoder(w), now: time.Now}
}

type frameRecord struct {
	Frame      int         `json:"frame"`
	Name       string      `json:"name"`
	Time       time.Time   `json:"time"`
	Detections []Detection `json:"detections"`
}

// Show writes the record for frame.
func (d *JSONDisplay) Show(frame Frame, detections []Detection) error {
	if detections == nil {
		detections = []Detection{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enc.Encode(frameRecord{
		Frame:      frame.Index,
		Name:       frame.Name,
		Time:       d.now().UTC(),
		Detections: detections,
	}); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", frame.Index, err)
	}
	return nil
}
