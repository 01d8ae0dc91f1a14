package capture

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var frameExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true}

// DirSource replays the image files of a directory tree in lexical order.
type DirSource struct {
	dir   string
	files []string
	loop  bool

	mu     sync.Mutex
	next   int
	count  int
	closed bool
}

// NewDirSource lists the images under dir. With loop set the sequence restarts
// after the last file instead of ending with io.EOF.
func NewDirSource(dir string, loop bool) (*DirSource, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && frameExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open frame source %s: %w", dir, err)
	}
	if loop && len(files) == 0 {
		return nil, fmt.Errorf("frame source %s has no images to loop over", dir)
	}
	return &DirSource{dir: dir, files: files, loop: loop}, nil
}

// Len returns the number of files in one pass.
func (s *DirSource) Len() int {
	return len(s.files)
}

// Next returns the next frame or io.EOF once every file was returned.
func (s *DirSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Frame{}, io.EOF
	}
	if s.next >= len(s.files) {
		if !s.loop {
			return Frame{}, io.EOF
		}
		s.next = 0
	}

	path := s.files[s.next]
	s.next++

	data, err := os.ReadFile(path) //nolint:gosec // path comes from walking dir
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %s: %w", ErrFrameUnreadable, path, err)
	}

	frame := Frame{Index: s.count, Name: path, Data: data}
	s.count++
	return frame, nil
}

// Close ends the sequence.
func (s *DirSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
