package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/face-index/internal/capture"
	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/ingest"
	"github.com/kozaktomas/face-index/internal/matcher"
	"github.com/kozaktomas/face-index/internal/recognition"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/kozaktomas/face-index/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Classify the faces on a stream of frames",
	Long: `Reads frames from a directory in lexical order, extracts face embeddings and
classifies each face against the identity store. The store is reloaded every
REFRESH_INTERVAL so identities ingested meanwhile are picked up.

With --dataset, an empty store is first filled from a state/county/city/person
image tree, as the bootstrap command would.

Stops at the end of the frames (unless --loop is set) or on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("frames", "", "Directory of frame images (required)")
	recognizeCmd.Flags().String("dataset", "", "Labeled image tree to bootstrap from when the store is empty")
	recognizeCmd.Flags().Bool("loop", false, "Replay the frames until stopped")
	recognizeCmd.Flags().Bool("json", false, "Write one JSON object per frame to stdout")
	recognizeCmd.Flags().Float64("scale", 0, "Frame downscale factor (default FRAME_SCALE)")
	recognizeCmd.Flags().Float64("tolerance", 0, "Match tolerance (default MATCH_TOLERANCE)")
	_ = recognizeCmd.MarkFlagRequired("frames")
}

// newMatcher builds the matcher from config, letting a positive flag value override the tolerance.
func newMatcher(cfg *config.Config, tolerance float64) *matcher.Matcher {
	if tolerance <= 0 {
		tolerance = cfg.Recognition.Tolerance
	}
	return matcher.New(tolerance, cfg.Recognition.HNSWMinEntries)
}

// bootstrapIfEmpty fills an empty store from dataset and reloads the cache.
// It reports whether a bootstrap pass ran.
func bootstrapIfEmpty(ctx context.Context, s store.Store, ex extractor.Extractor, cache *snapshot.Cache,
	dataset string, opts ingest.BootstrapOptions,
) (bool, error) {
	if dataset == "" || cache.Current().Len() > 0 {
		return false, nil
	}

	log.Info().Str("dataset", dataset).Msg("identity store is empty, bootstrapping")
	report, err := ingest.NewWriter(s, ex).Bootstrap(ctx, dataset, opts)
	if err != nil {
		return true, fmt.Errorf("failed to bootstrap from %s: %w", dataset, err)
	}
	log.Info().
		Int("scanned", report.Scanned).
		Int("added", report.Added).
		Int("no_face", report.NoFace).
		Int("failed", report.Failed).
		Msg("bootstrap finished")

	return true, cache.Refresh(ctx, time.Now())
}

func runRecognize(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := config.Load()
	scale := mustGetFloat64(cmd, "scale")
	if scale <= 0 || scale > 1 {
		scale = cfg.Recognition.FrameScale
	}

	source, err := capture.NewDirSource(mustGetString(cmd, "frames"), mustGetBool(cmd, "loop"))
	if err != nil {
		return err
	}

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		source.Close()
		return err
	}
	defer closeStore()

	cache, err := snapshot.NewCache(ctx, s, cfg.Recognition.RefreshInterval, time.Now())
	if err != nil {
		source.Close()
		return err
	}

	ex := extractor.NewClient(cfg.Embedding.URL)
	if _, err := bootstrapIfEmpty(ctx, s, ex, cache, mustGetString(cmd, "dataset"), ingest.BootstrapOptions{
		Concurrency: cfg.Ingest.Concurrency,
		Progress:    true,
	}); err != nil {
		source.Close()
		return err
	}

	var display capture.Display = capture.LogDisplay{}
	if mustGetBool(cmd, "json") {
		display = capture.NewJSONDisplay(os.Stdout)
	}

	m := newMatcher(cfg, mustGetFloat64(cmd, "tolerance"))
	log.Info().
		Int("frames", source.Len()).
		Int("identities", cache.Current().Len()).
		Float64("tolerance", m.Tolerance()).
		Float64("scale", scale).
		Dur("refresh", cache.Interval()).
		Msg("starting recognition")

	loop := recognition.NewLoop(source, ex, cache, m, display,
		recognition.WithFrameScale(scale))
	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("recognition stopped: %w", err)
	}

	stats := loop.Stats()
	log.Info().
		Int("frames", stats.Frames).
		Int("skipped", stats.Skipped).
		Int("faces", stats.Faces).
		Int("known", stats.Known).
		Msg("recognition finished")
	return nil
}
