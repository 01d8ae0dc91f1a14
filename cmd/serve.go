package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/kozaktomas/face-index/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the face-index HTTP API.

  POST /api/v1/identities  ingest a labeled image (multipart: file + label or state/county/city/person)
  POST /api/v1/classify    identify the faces on an image (multipart: file)
  GET  /api/v1/stats       store and snapshot sizes
  GET  /api/v1/health      liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := config.Load()
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, err := snapshot.NewCache(ctx, s, cfg.Recognition.RefreshInterval, time.Now())
	if err != nil {
		return err
	}

	server := web.NewServer(cfg.Web, web.Deps{
		Store:     s,
		Extractor: extractor.NewClient(cfg.Embedding.URL),
		Cache:     cache,
		Matcher:   newMatcher(cfg, 0),
	})

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Serving %d identities on http://%s:%d\n", cache.Current().Len(), cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
