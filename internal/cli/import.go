package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <playlist-url>",
	Short: "Import a playlist into the local catalog",
	Long: `Import fetches the playlist metadata through yt-dlp and stores the
playlist and its videos locally. Re-importing the same playlist picks up
new videos without touching download state.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	playlist, err := a.bridge.ImportPlaylist(args[0])
	if err != nil {
		return err
	}

	printf("imported playlist %s\n\n", playlist.Title)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("ID", playlist.ID)
	table.Append("Title", playlist.Title)
	table.Append("Videos", fmt.Sprintf("%d", playlist.TotalVideos))
	table.Append("Status", string(playlist.Status))
	table.Render()
	return nil
}
