package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ytget/playlist-manager/internal/tool"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the external tools are installed",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := tool.DependencyStatus()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Tool", "Found", "Path", "Version")
	table.Append(tool.YTDLPCommand, foundMark(report.YTDLPFound), report.YTDLPPath, report.YTDLPVersion)
	table.Append(tool.FFmpegCommand, foundMark(report.FFmpegFound), report.FFmpegPath, report.FFmpegVersion)
	table.Render()

	if !report.YTDLPFound || !report.FFmpegFound {
		return fmt.Errorf("missing external tools; install them and re-run")
	}
	printf("\nall external tools available\n")
	return nil
}

func foundMark(found bool) string {
	if found {
		return "yes"
	}
	return "no"
}
