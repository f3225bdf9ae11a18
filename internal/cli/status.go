package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status per collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		printIndexStatus(cmd.OutOrStdout(), pipeline.Index.Status(), isTerminal(os.Stdout))
		return nil
	},
}

var statusHeaders = []string{"COLLECTION", "LOADED", "DOCUMENTS", "MODEL", "LAST UPDATE", "STALE"}

func statusRows(status []index.CollectionStatus) [][]string {
	rows := make([][]string, 0, len(status))
	for _, s := range status {
		updated := "never"
		if s.LastUpdate != nil {
			updated = s.LastUpdate.Local().Format(time.DateTime)
		}
		model := s.Model
		if model == "" {
			model = "-"
		}
		rows = append(rows, []string{
			s.Collection.String(),
			strconv.FormatBool(s.Loaded),
			strconv.Itoa(s.Documents),
			model,
			updated,
			strconv.FormatBool(s.Stale),
		})
	}
	return rows
}

// printIndexStatus renders a styled table on a terminal and aligned plain
// text otherwise.
func printIndexStatus(w io.Writer, status []index.CollectionStatus, styled bool) {
	rows := statusRows(status)
	if !styled {
		fmt.Fprintf(w, "%-12s %-7s %-10s %-24s %-20s %s\n",
			statusHeaders[0], statusHeaders[1], statusHeaders[2], statusHeaders[3], statusHeaders[4], statusHeaders[5])
		for _, r := range rows {
			fmt.Fprintf(w, "%-12s %-7s %-10s %-24s %-20s %s\n", r[0], r[1], r[2], r[3], r[4], r[5])
		}
		return
	}

	theme := defaultTheme
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.Status).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	stale := cell.Foreground(theme.Error)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Hint)).
		Headers(statusHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == len(statusHeaders)-1 && rows[row][col] == "true":
				return stale
			}
			return cell
		})
	fmt.Fprintln(w, t.Render())
}
