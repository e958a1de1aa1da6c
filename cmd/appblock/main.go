// Package main is the CLI entry point for appblock.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/config"
	"github.com/eliteGoblin/focusd/app_block/internal/daemon"
	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/policy"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "appblock",
	Short: "Foreground app monitor - interrupts distracting apps",
	Long: `appblock watches which application is in the foreground and shows a
blocking notice whenever you switch to a blocked app such as Steam or Dota 2.

Monitoring survives logouts and reboots until you disable it.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn monitoring on and start the background daemon",
	Long: `Persists the monitoring toggle, installs the binary and a login autostart
entry, and starts the daemon (or tells a running one to re-arm).`,
	RunE: runEnable,
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn monitoring off and stop the daemon",
	RunE:  runDisable,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitoring state",
	Long:  `Shows the persisted toggle, whether the daemon is running, and whether foreground activity can be read.`,
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List blocked applications",
	RunE:  runList,
}

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Restart trigger: start the daemon if monitoring is enabled",
	Long:  `Run by the login autostart entry. Starts the daemon only if monitoring was enabled and no daemon is alive.`,
	RunE:  runBoot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor in the foreground",
	Long:  `Runs the monitor loop attached to the terminal until interrupted. Useful under a service manager or for debugging.`,
	RunE:  runForeground,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

// Hidden daemon command - used for self-exec when spawning the daemon
var daemonCmd = &cobra.Command{
	Use:    "daemon",
	Hidden: true,
	RunE:   runDaemon,
}

var (
	configPath  string
	verbose     bool
	jsonOutput  bool
	enableOnRun bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $APPBLOCK_CONFIG or <data_dir>/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging to stderr")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	runCmd.Flags().BoolVar(&enableOnRun, "enable", false, "Persist monitoring as enabled before starting")

	rootCmd.AddCommand(enableCmd, disableCmd, statusCmd, listCmd, bootCmd, runCmd, versionCmd, daemonCmd)
}

// cliEnv is what every one-shot command needs.
type cliEnv struct {
	cfg      *config.Config
	logger   *zap.Logger
	settings *infra.EncryptedSettings
	pm       domain.ProcessManager
	registry domain.DaemonRegistry
}

func openCLI() (*cliEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	settings, err := infra.OpenSettings(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	pm := infra.NewProcessManager()
	return &cliEnv{
		cfg:      cfg,
		logger:   infra.NewCLILogger(verbose),
		settings: settings,
		pm:       pm,
		registry: infra.NewFileRegistry(pm),
	}, nil
}

func (e *cliEnv) close() {
	_ = e.settings.Close()
	_ = e.logger.Sync()
}

// supervisor spawns execPath, or the installed binary when execPath is empty.
func (e *cliEnv) supervisor(execPath string) *daemon.Supervisor {
	spawn := func() error { return daemon.StartDaemon(configPath) }
	if execPath != "" {
		spawn = func() error { return daemon.StartDaemonWithPath(execPath, configPath) }
	}
	return daemon.NewSupervisor(e.settings, e.registry, e.pm, spawn, e.logger)
}

func runEnable(cmd *cobra.Command, args []string) error {
	env, err := openCLI()
	if err != nil {
		return err
	}
	defer env.close()

	execMode := infra.DetectExecMode()
	binaryPath := installBinary(execMode)

	autostart := infra.NewAutostartManager(execMode)
	switch {
	case !autostart.IsInstalled():
		if err := autostart.Install(binaryPath); err != nil {
			fmt.Printf("Warning: could not install autostart entry: %v\n", err)
			fmt.Println("         (monitoring will run, but won't resume after login)")
		} else {
			fmt.Printf("Installed autostart entry %s\n", autostart.GetPath())
		}
	case autostart.NeedsUpdate(binaryPath):
		if err := autostart.Update(binaryPath); err != nil {
			fmt.Printf("Warning: could not update autostart entry: %v\n", err)
		}
	}

	res, err := env.supervisor(binaryPath).Enable()
	if err != nil {
		return err
	}

	switch res {
	case domain.StartResultStarted:
		waitForDaemon(env.registry, 2*time.Second)
		fmt.Println("Monitoring enabled, daemon started.")
	case domain.StartResultAlreadyRunning:
		fmt.Println("Monitoring enabled, daemon already running.")
	}
	return nil
}

// installBinary copies the running executable to the install path and
// returns the path the daemon and autostart should use.
func installBinary(execMode *infra.ExecModeConfig) string {
	current, err := os.Executable()
	if err != nil {
		return execMode.BinaryPath
	}
	if current == execMode.BinaryPath {
		return current
	}
	if err := os.MkdirAll(filepath.Dir(execMode.BinaryPath), 0755); err != nil {
		fmt.Printf("Warning: could not create %s: %v\n", filepath.Dir(execMode.BinaryPath), err)
		return current
	}
	if err := copyBinary(current, execMode.BinaryPath); err != nil {
		fmt.Printf("Warning: could not copy binary to %s: %v\n", execMode.BinaryPath, err)
		return current
	}
	fmt.Printf("Installed binary to %s\n", execMode.BinaryPath)
	return execMode.BinaryPath
}

// copyBinary copies the binary file to destination using atomic write pattern.
func copyBinary(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".appblock-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmpFile, sourceFile); err != nil {
		tmpFile.Close()
		return err
	}
	if err = tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err = os.Chmod(tmpPath, 0755); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, dst); err != nil {
		return err
	}
	success = true
	return nil
}

func waitForDaemon(registry domain.DaemonRegistry, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if alive, _ := registry.IsAlive(); alive {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func runDisable(cmd *cobra.Command, args []string) error {
	env, err := openCLI()
	if err != nil {
		return err
	}
	defer env.close()

	if err := env.supervisor("").Disable(); err != nil {
		return err
	}
	fmt.Println("Monitoring disabled.")
	return nil
}

func runBoot(cmd *cobra.Command, args []string) error {
	env, err := openCLI()
	if err != nil {
		return err
	}
	defer env.close()

	res, err := env.supervisor("").Boot()
	if err != nil {
		return err
	}
	fmt.Printf("boot: %s\n", res)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := openCLI()
	if err != nil {
		return err
	}
	defer env.close()

	fmt.Println("\n=== appblock Status ===")

	enabled, err := env.settings.MonitoringEnabled()
	if err != nil {
		return err
	}
	if enabled {
		fmt.Println("Monitoring: ENABLED")
	} else {
		fmt.Println("Monitoring: DISABLED")
	}

	entry, _ := env.registry.Get()
	alive, _ := env.registry.IsAlive()
	switch {
	case alive && entry != nil:
		fmt.Println("Daemon: RUNNING")
		fmt.Printf("Started: %s\n", time.Unix(entry.StartedAt, 0).Format(time.RFC3339))
		if entry.LastHeartbeat > 0 {
			fmt.Printf("Last heartbeat: %s ago\n", time.Since(time.Unix(entry.LastHeartbeat, 0)).Round(time.Second))
		}
		if entry.AppVersion != "" && entry.AppVersion != Version {
			fmt.Printf("Daemon version %s differs from CLI %s; run 'appblock enable' to replace it\n", entry.AppVersion, Version)
		}
	case enabled:
		fmt.Println("Daemon: NOT RUNNING (run 'appblock boot' to start it)")
	default:
		fmt.Println("Daemon: NOT RUNNING")
	}

	autostart := infra.NewAutostartManager(infra.DetectExecMode())
	if autostart.IsInstalled() {
		fmt.Printf("Autostart: installed (%s)\n", autostart.GetPath())
	} else {
		fmt.Println("Autostart: not installed")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()
	if app, err := infra.NewFrontmostProvider(env.logger).Frontmost(ctx); err != nil {
		fmt.Printf("Foreground access: UNAVAILABLE (%v)\n", err)
	} else {
		fmt.Printf("Foreground access: OK (frontmost: %q)\n", app)
	}

	registry, err := policy.NewRegistryFromConfig(env.cfg.Monitor.Policies, env.cfg.Monitor.Targets)
	if err != nil {
		return err
	}
	fmt.Printf("\nBlocked applications (%d identifiers):\n", registry.TargetSet().Len())
	for _, p := range registry.GetAll() {
		fmt.Printf("  - %s\n", p.Name())
	}

	var running []string
	for _, app := range registry.TargetSet().List() {
		if pids, _ := env.pm.FindByName(string(app)); len(pids) > 0 {
			running = append(running, fmt.Sprintf("%s (%d)", app, len(pids)))
		}
	}
	if len(running) > 0 {
		fmt.Println("\nBlocked apps running now:")
		for _, r := range running {
			fmt.Printf("  - %s\n", r)
		}
	}
	fmt.Println("=======================")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	registry, err := policy.NewRegistryFromConfig(cfg.Monitor.Policies, cfg.Monitor.Targets)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Blocked Applications ===")
	for _, p := range registry.GetAll() {
		fmt.Printf("\n[%s] %s\n", p.ID(), p.Name())
		for _, id := range p.ApplicationIDs() {
			fmt.Printf("    - %s\n", id)
		}
	}
	fmt.Printf("\nCooldown: %s, window: %s, poll: %s\n",
		cfg.Monitor.Cooldown, cfg.Monitor.ObservationWindow, cfg.Monitor.PollInterval)
	fmt.Println("============================")
	return nil
}

func runForeground(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := infra.NewCLILogger(true)
	defer func() { _ = logger.Sync() }()

	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(pm)
	if alive, _ := registry.IsAlive(); alive {
		if entry, _ := registry.Get(); entry != nil {
			return fmt.Errorf("monitor already running (pid %d); run 'appblock disable' first", entry.PID)
		}
	}

	mon, err := buildMonitor(cfg, logger)
	if err != nil {
		return err
	}
	defer mon.close()

	if enableOnRun {
		if err := mon.settings.SetMonitoringEnabled(true); err != nil {
			return fmt.Errorf("failed to enable monitoring: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	restarts := make(chan os.Signal, 1)
	signal.Notify(restarts, syscall.SIGHUP)
	defer signal.Stop(restarts)

	// Registered like the daemon so boot/enable see it, but without
	// autostart self-heal.
	guardian := daemon.NewGuardian(
		daemon.DefaultGuardianConfig(),
		mon.controller,
		registry,
		nil,
		"",
		restarts,
		domain.Daemon{PID: pm.GetCurrentPID(), StartedAt: time.Now(), AppVersion: Version},
		logger,
	)
	err = guardian.Run(ctx)
	switch {
	case err == nil:
		fmt.Println("Monitoring is disabled. Use --enable or 'appblock enable'.")
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := infra.NewDaemonLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	mon, err := buildMonitor(cfg, logger)
	if err != nil {
		logger.Error("failed to build monitor", zap.Error(err))
		return err
	}
	defer mon.close()

	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(pm)
	execMode := infra.DetectExecMode()

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	restarts := make(chan os.Signal, 1)
	signal.Notify(restarts, syscall.SIGHUP)

	stopMetrics := serveMetrics(ctx, cfg.MetricsAddr, logger)
	defer stopMetrics()

	guardian := daemon.NewGuardian(
		daemon.DefaultGuardianConfig(),
		mon.controller,
		registry,
		infra.NewAutostartManager(execMode),
		execPath,
		restarts,
		domain.Daemon{PID: pm.GetCurrentPID(), StartedAt: time.Now(), AppVersion: Version},
		logger,
	)
	if err := guardian.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		out, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Println(string(out))
		return
	}
	fmt.Printf("appblock %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
}
