// Package cmd /*
package cmd

import (
	"errors"
	"net/url"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wavecrack/wavecrackd/coordstate"
)

// initCmd represents the Init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the coordinator",
	Long:  "Initialize the coordinator.\nThis command should be run only once, unless you want to reset the coordinator configuration.",
	Run:   initializePrompts(),
}

// initializePrompts prompts for the API key and optional GPU worker URL and
// writes the configuration file.
func initializePrompts() func(cmd *cobra.Command, args []string) {
	return func(_ *cobra.Command, _ []string) {
		if err := promptForAPIKey(); err != nil {
			return
		}

		if err := promptForWorkerURL(); err != nil {
			return
		}

		if err := viper.WriteConfig(); err != nil {
			coordstate.Logger.Error("Error writing config file", "error", err)

			return
		}

		coordstate.Logger.Info("Configuration written", "config_file", viper.ConfigFileUsed())
	}
}

// promptForAPIKey prompts for the pre-shared key clients must present.
func promptForAPIKey() error {
	keyPrompt := promptui.Prompt{
		Label: "Enter the API key clients will authenticate with",
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("API key must not be empty")
			}

			return nil
		},
	}

	key, err := keyPrompt.Run()
	if err != nil {
		return err
	}

	viper.Set("api_key", key)

	return nil
}

// promptForWorkerURL prompts for the GPU worker base URL. Leaving it empty
// keeps cracking local.
func promptForWorkerURL() error {
	urlPrompt := promptui.Prompt{
		Label: "Enter the GPU worker URL (empty for local cracking)",
		Validate: func(input string) error {
			if len(input) == 0 {
				return nil
			}

			_, err := url.Parse(input)

			return err
		},
	}

	workerURL, err := urlPrompt.Run()
	if err != nil {
		return err
	}

	if workerURL != "" {
		viper.Set("gpu.enabled", true)
		viper.Set("gpu.worker_url", workerURL)
	}

	return nil
}
