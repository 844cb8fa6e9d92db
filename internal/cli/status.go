package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show imported playlists and their download progress",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	playlists, err := a.bridge.ListPlaylists()
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		printf("no playlists imported yet\n")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Title", "Videos", "Downloaded", "Status")
	for _, summary := range playlists {
		// ListPlaylists returns summaries; fetch counters per playlist.
		p, err := a.bridge.GetPlaylist(summary.ID)
		if err != nil {
			return err
		}
		table.Append(
			p.ID,
			p.Title,
			fmt.Sprintf("%d", p.TotalVideos),
			fmt.Sprintf("%d (%.0f%%)", p.Downloaded, p.GetDownloadProgress()),
			string(p.Status),
		)
	}
	table.Render()
	return nil
}
