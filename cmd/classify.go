package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/face-index/internal/capture"
	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Identify the faces on a single image",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Bool("json", false, "Output as JSON")
	classifyCmd.Flags().Float64("tolerance", 0, "Match tolerance (default MATCH_TOLERANCE)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	cfg := config.Load()
	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load identities: %w", err)
	}
	snap := snapshot.New(entries, time.Now())

	faces, err := extractor.NewClient(cfg.Embedding.URL).Extract(ctx, data)
	if err != nil {
		return err
	}

	m := newMatcher(cfg, mustGetFloat64(cmd, "tolerance"))
	detections := make([]capture.Detection, 0, len(faces))
	for _, f := range faces {
		match := m.Classify(f.Embedding, snap)
		detections = append(detections, capture.Detection{
			Label:    match.Label,
			Distance: match.Distance,
			Known:    match.Known,
			Box:      f.Box,
		})
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detections)
	}

	fmt.Printf("Faces: %d (against %d identities)\n", len(detections), snap.Len())
	for i, d := range detections {
		if d.Known {
			fmt.Printf("  #%d  %s  (distance %.3f)\n", i+1, d.Label, d.Distance)
		} else {
			fmt.Printf("  #%d  %s\n", i+1, d.Label)
		}
	}
	return nil
}
