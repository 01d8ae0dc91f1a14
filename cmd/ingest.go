package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/ingest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <image>...",
	Short: "Add labeled images to the identity store",
	Long: `Extracts the first face of each image and appends it to the identity store.

The label is either given whole with --label ("state/county/city/person") or
built from --state, --county, --city and --person. Blank segments become "NA".
Images without a face are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("label", "", "Full label, segments separated by /")
	ingestCmd.Flags().String("state", "", "State segment")
	ingestCmd.Flags().String("county", "", "County segment")
	ingestCmd.Flags().String("city", "", "City segment")
	ingestCmd.Flags().String("person", "", "Person name")
}

// ingestLabel resolves the label flags.
func ingestLabel(cmd *cobra.Command) (string, error) {
	if raw := strings.TrimSpace(mustGetString(cmd, "label")); raw != "" {
		return identity.BuildLabel(strings.Split(raw, identity.LabelSeparator)...)
	}
	person := mustGetString(cmd, "person")
	if strings.TrimSpace(person) == "" {
		return "", errors.New("either --label or --person is required")
	}
	return identity.BuildLabel(
		mustGetString(cmd, "state"),
		mustGetString(cmd, "county"),
		mustGetString(cmd, "city"),
		person,
	)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	label, err := ingestLabel(cmd)
	if err != nil {
		return err
	}

	cfg := config.Load()
	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	writer := ingest.NewWriter(s, extractor.NewClient(cfg.Embedding.URL))

	var added, failed int
	for _, path := range args {
		data, err := os.ReadFile(path) //nolint:gosec // user-provided path
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		res, err := writer.Ingest(ctx, label, data)
		switch {
		case errors.Is(err, ingest.ErrNoFace):
			log.Warn().Str("file", path).Msg("no face found, skipping")
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Str("file", path).Msg("failed to ingest image")
			failed++
			continue
		}

		added++
		fmt.Printf("%s  %s  (%d faces found)\n", res.ID, res.Label, res.FacesFound)
	}

	fmt.Printf("\nAdded %d of %d images as %s\n", added, len(args), label)
	if failed > 0 {
		return fmt.Errorf("%d images failed", failed)
	}
	return nil
}
