package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-index",
	Short: "Index labeled face embeddings and recognize faces against them",
	Long: `face-index maintains a growing store of labeled face embeddings produced by
an external embedding server and classifies faces seen on captured frames
against a periodically refreshed snapshot of that store.

Images are ingested from a state/county/city/person directory tree or
one at a time from a crawler, via the CLI or the HTTP API.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	logger.Init(config.Load().LogLevel)
}
