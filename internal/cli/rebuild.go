package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [collection...]",
	Short: "Rebuild vector indexes",
	Long: `Re-embed collections from the record store and swap the new indexes in.

A failed rebuild leaves the previous index and ledger untouched.

Examples:
  adapted rebuild
  adapted rebuild resources questions`,
	ValidArgs: []string{"resources", "questions", "projects"},
	RunE:      runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	collections, err := parseCollections(args)
	if err != nil {
		return err
	}

	if isTerminal(os.Stdout) {
		return RunRebuildProgress(cmd.Context(), pipeline.Index, collections)
	}
	return RunRebuildPlain(cmd.Context(), cmd.OutOrStdout(), pipeline.Index, collections)
}

// parseCollections maps arguments onto collections; no arguments means all.
func parseCollections(args []string) ([]models.Collection, error) {
	if len(args) == 0 {
		return models.AllCollections(), nil
	}
	out := make([]models.Collection, 0, len(args))
	for _, a := range args {
		c, err := models.ParseCollection(a)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
