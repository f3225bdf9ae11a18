// Package cli provides the command-line interface for adapted.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/app"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/client"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/config"
)

// remoteAnnotation marks commands that talk to a running server instead of
// assembling the pipeline locally.
const remoteAnnotation = "remote"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config and pipeline
	cfg         config.Config
	logger      *slog.Logger
	closeLogger func() error
	pipeline    *app.App
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "adapted",
	Short: "Adaptive learning content pipeline",
	Long: `Adapted generates grounded learning roadmaps and quizzes.

Resources, questions and projects are embedded into per-collection vector
indexes. Each request retrieves the closest records, optionally ranks them
from introductory to advanced, and asks a completion model for a result that
must pass structural validation.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip pipeline setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLogger = config.SetupLogger(cfg.LogFile, level)

		if cmd.Annotations[remoteAnnotation] == "true" {
			return nil
		}

		var err error
		pipeline, err = app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize pipeline: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pipeline != nil {
			if err := pipeline.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close pipeline: %v\n", err)
			}
		}
		if closeLogger != nil {
			_ = closeLogger()
		}
	},
}

// remoteClient returns a client for the server named by --server or the environment.
func remoteClient() *client.Client {
	return client.New(serverURL)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL for remote commands (default $ADAPTED_SERVER_URL)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(roadmapCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(projectsCmd)
}
