package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kozaktomas/face-index/internal/constants"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// DefaultBatchSize is the number of entries buffered before each store append
// during a bootstrap pass.
const DefaultBatchSize = constants.BootstrapBatchSize

// imageExtensions are the files picked up by a bootstrap walk.
var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// BootstrapOptions tunes a bulk-encode pass.
type BootstrapOptions struct {
	Concurrency int  // parallel extractions, at least 1
	BatchSize   int  // entries per store append, DefaultBatchSize when 0
	Progress    bool // render a progress bar on stderr
}

// BootstrapReport summarizes a bulk-encode pass.
type BootstrapReport struct {
	Scanned int
	Added   int
	NoFace  int
	Failed  int
}

// FindImages returns image files under dir in lexical order, relative to dir.
func FindImages(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return files, nil
}

// Bootstrap encodes every image under a state/county/city/person.jpg tree and
// appends the results in batches. Each image's label is its path relative to
// dir without the extension. Per-image failures are counted and skipped; only
// a failed store append aborts the pass.
func (w *Writer) Bootstrap(ctx context.Context, dir string, opts BootstrapOptions) (BootstrapReport, error) {
	var report BootstrapReport

	files, err := FindImages(dir)
	if err != nil {
		return report, err
	}
	report.Scanned = len(files)
	if len(files) == 0 {
		return report, nil
	}

	concurrency := max(opts.Concurrency, 1)
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Encoding faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan identity.Entry)
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, rel := range files {
		wg.Add(1)
		go func(rel string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if bar != nil {
				defer bar.Add(1) //nolint:errcheck // progress output only
			}

			entry, err := w.encodeFile(ctx, dir, rel)
			if err != nil {
				mu.Lock()
				if errors.Is(err, ErrNoFace) {
					report.NoFace++
					log.Warn().Str("file", rel).Msg("no face found")
				} else if ctx.Err() == nil {
					report.Failed++
					log.Error().Err(err).Str("file", rel).Msg("failed to encode image")
				}
				mu.Unlock()
				return
			}

			select {
			case entries <- entry:
			case <-ctx.Done():
			}
		}(rel)
	}

	go func() {
		wg.Wait()
		close(entries)
	}()

	batch := make([]identity.Entry, 0, batchSize)
	var appendErr error
	flush := func() {
		if len(batch) == 0 || appendErr != nil {
			return
		}
		if err := w.store.AppendAll(ctx, batch); err != nil {
			appendErr = fmt.Errorf("failed to store batch: %w", err)
			cancel()
			return
		}
		mu.Lock()
		report.Added += len(batch)
		mu.Unlock()
		batch = batch[:0]
	}

	for entry := range entries {
		if appendErr != nil {
			continue
		}
		batch = append(batch, entry)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	if bar != nil {
		_ = bar.Finish()
	}

	mu.Lock()
	defer mu.Unlock()
	if appendErr != nil {
		return report, appendErr
	}
	return report, ctx.Err()
}

func (w *Writer) encodeFile(ctx context.Context, dir, rel string) (identity.Entry, error) {
	label, err := identity.LabelFromPath(rel)
	if err != nil {
		return identity.Entry{}, fmt.Errorf("invalid label for %s: %w", rel, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, rel)) //nolint:gosec // path comes from walking dir
	if err != nil {
		return identity.Entry{}, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	entry, _, err := w.extract(ctx, label, data)
	return entry, err
}
