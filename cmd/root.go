// Package cmd
package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wavecrack/wavecrackd/coordstate"
	"github.com/wavecrack/wavecrackd/lib/attackstate"
	"github.com/wavecrack/wavecrackd/lib/capture"
	"github.com/wavecrack/wavecrackd/lib/config"
	"github.com/wavecrack/wavecrackd/lib/display"
	"github.com/wavecrack/wavecrackd/lib/engine"
	"github.com/wavecrack/wavecrackd/lib/history"
	"github.com/wavecrack/wavecrackd/lib/server"
	"github.com/wavecrack/wavecrackd/lib/wifi"
	"github.com/wavecrack/wavecrackd/lib/wordlist"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var (
	cfgFile     string
	enableDebug bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "wavecrackd",
	Version: coordstate.Version,
	Short:   "WaveCrack coordinator",
	Long:    "WaveCrack coordinator drives WiFi security assessments: scanning, handshake capture, and password recovery, controlled over a small HTTP API.",
	Run:     startCoordinator,
}

// Root returns the root command for embedding in the program entrypoint.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is wavecrackd.yaml in the config dir)")
	rootCmd.PersistentFlags().BoolVar(&enableDebug, "debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	cobra.CheckErr(err)

	config.SetDefaultConfigValues()

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fetchWordlistCmd)
}

// startCoordinator wires the adapter, engine, and HTTP server, then blocks
// until a termination signal arrives.
func startCoordinator(_ *cobra.Command, _ []string) {
	if viper.GetString("api_key") == "" {
		coordstate.Logger.Fatal("API key not set, run 'wavecrackd init' or set api_key in the config")
	}

	config.SetupSharedState()
	initLogger()
	display.Startup()

	signChan := make(chan os.Signal, 1)
	signal.Notify(signChan, os.Interrupt, syscall.SIGTERM)

	adapter := wifi.NewToolAdapter(coordstate.State.CaptureDir)

	if missing := wifi.CheckTools(); len(missing) > 0 {
		display.ToolsMissing(missing)
		coordstate.State.SetToolsAvailable(false)
	} else {
		coordstate.State.SetToolsAvailable(true)
	}

	probeCtx, probeCancel := context.WithTimeout(context.Background(), readHeaderTimeout)
	ifaces, err := adapter.DetectInterfaces(probeCtx)

	probeCancel()

	if err != nil {
		coordstate.Logger.Warn("Interface detection failed", "error", err)
	}

	coordstate.State.SetInterfaces(ifaces)
	selectInterfaces(ifaces)
	display.InterfacesDetected(ifaces, coordstate.State.ScanIface, coordstate.State.MonIface)

	captures, err := capture.NewStore(coordstate.State.CaptureDir)
	if err != nil {
		coordstate.Logger.Fatal("Error creating capture store", "error", err)
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	go func() {
		if watchErr := captures.Watch(watchCtx); watchErr != nil {
			coordstate.Logger.Warn("Capture directory watch failed", "error", watchErr)
		}
	}()

	if lists, listErr := wordlist.Discover(coordstate.State.WordlistDir); listErr != nil {
		coordstate.Logger.Warn("Wordlist discovery failed", "dir", coordstate.State.WordlistDir, "error", listErr)
	} else {
		display.WordlistsFound(lists)
	}

	hist, err := history.Open(coordstate.State.HistoryPath)
	if err != nil {
		coordstate.Logger.Warn("History database unavailable", "error", err)

		hist = nil
	}

	var notifier *engine.Notifier
	if coordstate.State.GPUEnabled && coordstate.State.GPUWorkerURL != "" {
		notifier = engine.NewNotifier(coordstate.State.GPUWorkerURL, coordstate.State.APIKey)
	}

	state := attackstate.NewStore(coordstate.State.GPUEnabled)
	eng := engine.New(adapter, state, captures, hist, notifier, engine.Config{
		ScanIface:     coordstate.State.ScanIface,
		MonIface:      coordstate.State.MonIface,
		WordlistDir:   coordstate.State.WordlistDir,
		AttackTimeout: coordstate.State.AttackTimeout,
		DeauthRounds:  coordstate.State.DeauthRounds,
		DeauthCount:   coordstate.State.DeauthCount,
		GPUEnabled:    coordstate.State.GPUEnabled,
		GPUStagingDir: coordstate.State.GPUStagingDir,
	})

	srv := server.New(eng, state, captures, hist, server.Config{
		APIKey:      coordstate.State.APIKey,
		RateLimit:   coordstate.State.RateLimit,
		WordlistDir: coordstate.State.WordlistDir,
	})

	httpSrv := &http.Server{
		Addr:              coordstate.State.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		display.Listening(httpSrv.Addr)

		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			coordstate.Logger.Fatal("HTTP server failed", "error", serveErr)
		}
	}()

	sig := <-signChan
	coordstate.Logger.Debug("Received signal", "signal", sig)

	eng.Cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		coordstate.Logger.Warn("HTTP shutdown incomplete", "error", err)
	}

	if hist != nil {
		if err := hist.Close(); err != nil {
			coordstate.Logger.Warn("History close failed", "error", err)
		}
	}

	display.ShuttingDown()
}

// selectInterfaces reconciles the configured interfaces with what the kernel
// actually reports. A configured name that was not detected falls back to the
// first (scan) and last (monitor) detected interfaces.
func selectInterfaces(detected []string) {
	if len(detected) == 0 {
		return
	}

	if !slices.Contains(detected, coordstate.State.ScanIface) {
		coordstate.Logger.Warn("Configured scan interface not found, using detected",
			"configured", coordstate.State.ScanIface, "detected", detected[0])
		coordstate.State.ScanIface = detected[0]
	}

	if !slices.Contains(detected, coordstate.State.MonIface) {
		fallback := detected[len(detected)-1]
		coordstate.Logger.Warn("Configured monitor interface not found, using detected",
			"configured", coordstate.State.MonIface, "detected", fallback)
		coordstate.State.MonIface = fallback
	}
}

// initLogger initializes the logging configuration based on the current debug state.
func initLogger() {
	if coordstate.State.Debug {
		coordstate.Logger.SetLevel(log.DebugLevel)
		coordstate.Logger.SetReportCaller(true)
	} else {
		coordstate.Logger.SetLevel(log.InfoLevel)
	}
}
