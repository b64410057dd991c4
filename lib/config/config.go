// Package config provides configuration management for the WaveCrack coordinator.
package config

import (
	"os"
	"path"
	"time"

	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wavecrack/wavecrackd/coordstate"
)

const (
	// Default configuration values.
	defaultListenAddr    = ":8080"
	defaultRateLimit     = 200 // Generous so embedded displays can poll every second
	defaultAttackTimeout = 10 * time.Minute
	defaultDeauthRounds  = 3
	defaultDeauthCount   = 10
)

var scope = gap.NewScope(gap.User, "WaveCrack") //nolint:gochecknoglobals // Configuration scope

// InitConfig initializes the configuration from various sources.
func InitConfig(cfgFile string) {
	coordstate.ErrorLogger.SetReportCaller(true)

	home, err := os.UserConfigDir()
	cobra.CheckErr(err)

	cwd, err := os.Getwd()
	cobra.CheckErr(err)
	viper.AddConfigPath(cwd)

	configDirs, err := scope.ConfigDirs()
	cobra.CheckErr(err)

	for _, dir := range configDirs {
		viper.AddConfigPath(dir)
	}

	viper.AddConfigPath(home)
	viper.SetConfigType("yaml")
	viper.SetConfigName("wavecrackd")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		coordstate.Logger.Info("Using config file", "config_file", viper.ConfigFileUsed())
	} else {
		coordstate.Logger.Warn("No config file found, attempting to write a new one")

		if err := viper.SafeWriteConfig(); err != nil && err.Error() != "config file already exists" {
			coordstate.Logger.Error("Error writing config file", "error", err)
		}
	}
}

// SetupSharedState configures the shared state from configuration values.
func SetupSharedState() {
	coordstate.State.ListenAddr = viper.GetString("listen_addr")
	coordstate.State.APIKey = viper.GetString("api_key")
	coordstate.State.RateLimit = viper.GetInt("rate_limit")
	coordstate.State.ScanIface = viper.GetString("scan_iface")
	coordstate.State.MonIface = viper.GetString("mon_iface")
	coordstate.State.CaptureDir = viper.GetString("capture_dir")
	coordstate.State.WordlistDir = viper.GetString("wordlist_dir")
	coordstate.State.HistoryPath = viper.GetString("history_path")
	coordstate.State.AttackTimeout = viper.GetDuration("attack_timeout")
	coordstate.State.DeauthRounds = viper.GetInt("deauth_rounds")
	coordstate.State.DeauthCount = viper.GetInt("deauth_count")
	coordstate.State.GPUEnabled = viper.GetBool("gpu.enabled")
	coordstate.State.GPUWorkerURL = viper.GetString("gpu.worker_url")
	coordstate.State.GPUStagingDir = viper.GetString("gpu.staging_dir")
	coordstate.State.Debug = viper.GetBool("debug")
	coordstate.State.ExtraDebugging = viper.GetBool("extra_debugging")
}

// SetDefaultConfigValues sets default configuration values.
func SetDefaultConfigValues() {
	cwd, err := os.Getwd()
	cobra.CheckErr(err)

	viper.SetDefault("listen_addr", defaultListenAddr)
	viper.SetDefault("rate_limit", defaultRateLimit)
	viper.SetDefault("scan_iface", "wlan0")
	viper.SetDefault("mon_iface", "wlan1")
	viper.SetDefault("capture_dir", path.Join(cwd, "captures"))
	viper.SetDefault("wordlist_dir", "/usr/share/wordlists")
	viper.SetDefault("history_path", path.Join(cwd, "history.db"))
	viper.SetDefault("attack_timeout", defaultAttackTimeout)
	viper.SetDefault("deauth_rounds", defaultDeauthRounds)
	viper.SetDefault("deauth_count", defaultDeauthCount)
	viper.SetDefault("gpu.enabled", false)
	viper.SetDefault("gpu.worker_url", "")
	viper.SetDefault("gpu.staging_dir", path.Join(cwd, "gpu_staging"))
	viper.SetDefault("extra_debugging", false)
}
