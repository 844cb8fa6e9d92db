package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ytget/playlist-manager/internal/dedupe"
)

var dedupeThreshold float64

// dedupeCmd represents the dedupe command
var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Detect duplicate downloads by content hash and title",
	Long: `Dedupe scans all downloaded videos, flags files with identical
content hashes and near-identical titles, and records the detected
relationships in the catalog.`,
	RunE: runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
	dedupeCmd.Flags().Float64VarP(&dedupeThreshold, "threshold", "t", dedupe.DefaultTitleThreshold, "title similarity threshold (0..1]")
}

func runDedupe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	matches, err := dedupe.NewAnalyzer(a.store, dedupeThreshold, a.logger).Run()
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		printf("no duplicates found\n")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Original", "Duplicate", "Method", "Score")
	for _, m := range matches {
		table.Append(m.Original.Title, m.Duplicate.Title, m.Method, fmt.Sprintf("%.2f", m.Score))
	}
	table.Render()
	printf("\n%d duplicate pair(s) recorded\n", len(matches))
	return nil
}
