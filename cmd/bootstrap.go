package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/ingest"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap <dir>",
	Short: "Encode every image of a labeled directory tree into the store",
	Long: `Walks a directory laid out as state/county/city/person.jpg, extracts one face
embedding per image and appends it to the identity store under the image's
relative path without extension (e.g. "Texas/Harris/Houston/John Doe").

Images without a face are skipped with a warning. Existing store entries are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)

	bootstrapCmd.Flags().Int("concurrency", 0, "Parallel extractions (default INGEST_CONCURRENCY)")
	bootstrapCmd.Flags().Int("batch-size", ingest.DefaultBatchSize, "Embeddings per store append")
	bootstrapCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := config.Load()
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Ingest.Concurrency
	}

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	writer := ingest.NewWriter(s, extractor.NewClient(cfg.Embedding.URL))

	fmt.Printf("Encoding images under %s with %d workers...\n", args[0], concurrency)
	report, err := writer.Bootstrap(ctx, args[0], ingest.BootstrapOptions{
		Concurrency: concurrency,
		BatchSize:   mustGetInt(cmd, "batch-size"),
		Progress:    !mustGetBool(cmd, "no-progress"),
	})

	fmt.Printf("\nScanned: %d\n", report.Scanned)
	fmt.Printf("Added:   %d\n", report.Added)
	fmt.Printf("No face: %d\n", report.NoFace)
	fmt.Printf("Failed:  %d\n", report.Failed)

	if err != nil {
		return fmt.Errorf("bootstrap interrupted: %w", err)
	}
	return nil
}
