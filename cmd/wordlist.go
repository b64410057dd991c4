package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wavecrack/wavecrackd/coordstate"
	"github.com/wavecrack/wavecrackd/lib/wordlist"
)

// fetchWordlistCmd downloads a dictionary into the configured wordlist
// directory.
var fetchWordlistCmd = &cobra.Command{
	Use:   "fetch-wordlist <url>",
	Short: "Download a wordlist",
	Long:  "Download a wordlist into the configured wordlist directory so local cracking can use it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dest := viper.GetString("wordlist_dir")

		path, err := wordlist.Fetch(cmd.Context(), args[0], dest)
		if err != nil {
			coordstate.Logger.Fatal("Wordlist download failed", "error", err)
		}

		coordstate.Logger.Info("Wordlist downloaded", "path", path)
	},
}
