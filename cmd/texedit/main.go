// Package main provides the texedit CLI application entry point.
// texedit is the command-line surface of the TexEdit orchestration engine:
// it talks to a local text-processing backend, monitors its health, and
// executes named commands against it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"texedit/internal/backend"
	"texedit/internal/client"
	"texedit/internal/config"
	"texedit/internal/connectivity"
	"texedit/internal/dispatch"
	"texedit/internal/logger"
	"texedit/internal/registry"
	"texedit/internal/suggest"
	"texedit/pkg/textypes"
)

var (
	logLevel   string
	logFile    string
	serverURL  string
	inputFile  string
	backendCmd string
	version    = "0.2.0" // set at build time
)

var rootCmd = &cobra.Command{
	Use:   "texedit",
	Short: "TexEdit - command orchestration client for a text-processing backend",
	Long: `texedit issues named commands (summarise, tone, keywords, ...) against a
local AI text-processing backend, monitoring its availability and validating
arguments before anything goes over the wire.`,
}

var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Execute one command against the backend",
	Long: `Execute one command, e.g. 'texedit exec "summarise 50" --input doc.txt'.
Local commands (help, clear) run without the backend; everything else waits
for connectivity first.`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <partial>",
	Short: "Show completion suggestions for partial input",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the backend once and report its health",
	RunE:  runStatus,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Spawn the backend process and monitor it until interrupted",
	RunE:  runRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("texedit v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Backend base URL [default: http://127.0.0.1:5000]")

	for _, flag := range []string{"log-level", "log-file", "server-url"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	execCmd.Flags().StringVar(&inputFile, "input", "", "File holding the input text ('-' for stdin)")
	runCmd.Flags().StringVar(&backendCmd, "backend", "", "Command line used to spawn the backend process")
	_ = runCmd.MarkFlagRequired("backend")

	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration and applies CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExec(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	body, err := readInput()
	if err != nil {
		return err
	}

	reg := registry.MustNew()
	cli := client.New(cfg)
	monitor := connectivity.NewMonitor(cli, cfg)
	dispatcher := dispatch.New(reg, cli, monitor)

	// Only backend-dependent commands need connectivity; parse first to
	// avoid probing for local ones.
	parsed, parseErr := dispatcher.Parse(args[0])
	needsRemote := false
	if parseErr == nil {
		if desc, ok := reg.Descriptor(parsed.Base); ok {
			needsRemote = desc.RequiresRemote
		}
	}

	if needsRemote {
		monitor.StartMonitoring()
		defer monitor.StopMonitoring()
		if err := waitForReady(monitor, cfg); err != nil {
			return err
		}
	}

	result := dispatcher.Execute(context.Background(), args[0], body)
	fmt.Println(result.Message)
	if result.Outcome != textypes.OutcomeSuccess {
		return fmt.Errorf("command failed: %s", result.Outcome)
	}
	return nil
}

func runSuggest(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := registry.MustNew()
	engine := suggest.New(reg, nil, nil, cfg.SuggestionLimit)

	for _, item := range engine.Suggest(args[0]) {
		fmt.Println(item)
	}
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cli := client.New(cfg)
	ctx := context.Background()

	if err := cli.Health(ctx); err != nil {
		fmt.Printf("backend at %s: unreachable (%v)\n", cfg.ServerURL, err)
		return err
	}

	fmt.Printf("backend at %s: healthy\n", cfg.ServerURL)

	info, err := cli.Info(ctx)
	if err != nil {
		return nil // health passed; the info endpoint is optional
	}
	fmt.Printf("name: %s, version: %s\n", info.Name, info.Version)
	if err := info.CheckMinVersion(cfg.MinBackendVersion); err != nil {
		fmt.Printf("version check failed: %v\n", err)
		return err
	}
	return nil
}

func runRun(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	proc, err := backend.NewProcess(backendCmd, 5*time.Second)
	if err != nil {
		return err
	}
	if err := proc.Start(context.Background()); err != nil {
		return err
	}
	defer func() { _ = proc.Stop() }()

	cli := client.New(cfg)
	monitor := connectivity.NewMonitor(cli, cfg)
	monitor.SubscribeReady(func() {
		logger.Info("Backend is ready")
	})
	monitor.Subscribe(func(state textypes.ConnectionState) {
		logger.Info("Connectivity changed", "state", state.String())
	})
	monitor.StartMonitoring()
	defer monitor.StopMonitoring()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	logger.Info("Interrupted, shutting down")
	return nil
}

// waitForReady blocks until the monitor reports connected, or fails once
// the monitor escalates to the error state.
func waitForReady(monitor *connectivity.Monitor, cfg *config.Config) error {
	changes := make(chan textypes.ConnectionState, 8)
	id := monitor.Subscribe(func(state textypes.ConnectionState) {
		changes <- state
	})
	defer monitor.Unsubscribe(id)

	if monitor.IsReady() {
		return nil
	}

	deadline := time.After(time.Duration(cfg.MaxRetries+2) * cfg.PollInterval)
	for {
		select {
		case state := <-changes:
			switch state {
			case textypes.StateConnected:
				return nil
			case textypes.StateError:
				return fmt.Errorf("%w: backend unreachable after %d attempts", textypes.ErrRemoteUnavailable, cfg.MaxRetries)
			}
		case <-deadline:
			return fmt.Errorf("%w: timed out waiting for the backend", textypes.ErrRemoteUnavailable)
		}
	}
}

// readInput loads the command input body from the --input flag.
func readInput() (string, error) {
	switch inputFile {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
}
