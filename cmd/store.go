package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/kozaktomas/face-index/internal/store"
	"github.com/kozaktomas/face-index/internal/store/postgres"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the identity store",
}

var storeCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the number of stored identity embeddings",
	Args:  cobra.NoArgs,
	RunE:  runStoreCount,
}

var storeLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List stored labels with their embedding counts",
	Args:  cobra.NoArgs,
	RunE:  runStoreLabels,
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeCountCmd)
	storeCmd.AddCommand(storeLabelsCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore opens the PostgreSQL store when DATABASE_URL is set and the file
// store otherwise. The returned function releases it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database.URL != "" {
		repo, err := postgres.Open(ctx, &cfg.Database, cfg.Embedding.Dim)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open PostgreSQL store: %w", err)
		}
		log.Debug().Msg("using PostgreSQL identity store")
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close database")
			}
		}, nil
	}

	log.Debug().Str("path", cfg.Store.Path).Msg("using file identity store")
	return store.NewFileStore(cfg.Store.Path, cfg.Embedding.Dim), func() {}, nil
}

func runStoreCount(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := config.Load()
	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := s.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count identities: %w", err)
	}
	fmt.Printf("Identities: %d\n", n)
	return nil
}

func runStoreLabels(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

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

	counts := snapshot.New(entries, time.Now()).Labels()
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	for _, label := range labels {
		fmt.Printf("%4d  %s\n", counts[label], label)
	}
	fmt.Printf("\n%d labels, %d embeddings\n", len(labels), len(entries))
	return nil
}
