package commands

import (
	"os"

	"github.com/spf13/cobra"

	"ccr-registry-scraper/internal/viewer"
)

var (
	viewDir   string
	viewLimit int
)

func init() {
	viewCmd.Flags().StringVarP(&viewDir, "dir", "d", ".", "Directory holding the saved files.")
	viewCmd.Flags().IntVarP(&viewLimit, "limit", "n", 20, "Rows to print, 0 for all.")
	rootCmd.AddCommand(viewCmd)
}

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Prints a saved file as a table. Without a file, the newest one in --dir is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			latest, err := viewer.Latest(viewDir)
			if err != nil {
				return err
			}
			path = latest
		}
		return viewer.Render(os.Stdout, path, viewLimit)
	},
}
