// ============================================================================
// Audit Service CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Provides user-friendly command line interface based on Cobra framework
//
// Command Structure:
//   auditd                          # Root command
//   ├── run                         # Start the ingestion engine
//   │   └── --config, -c           # Specify config file
//   ├── sweep                       # Run one retention sweep and exit
//   ├── replay-wal                  # Replay the WAL and report what would recover
//   ├── status                     # View system status
//   ├── --version                  # Display version information
//   └── --help                     # Display help information
//
// run Command:
//   Starts the complete audit ingestion engine:
//   1. Load config file
//   2. Open the reference Postgres AuditStore
//   3. Start the Prometheus metrics HTTP server (if enabled)
//   4. Start the engine (WAL replay, flusher, sweeper, executor)
//   5. Listen for SIGINT/SIGTERM and shut down gracefully
//
// sweep Command:
//   Runs a single retention sweep against the configured store and exits,
//   useful for invoking from an external scheduler instead of the engine's
//   own cron loop.
//
// replay-wal Command:
//   Opens the configured WAL file, replays it, and reports the number of
//   records recovered and lines skipped, without starting the engine.
//
// status Command:
//   Display a summary of the resolved configuration. It does not contact
//   a running engine, so no live buffer, flush or WAL state is shown.
//
// ============================================================================

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mosip/audit-manager/internal/config"
	"github.com/mosip/audit-manager/internal/datastore"
	"github.com/mosip/audit-manager/internal/logging"
	"github.com/mosip/audit-manager/internal/metrics"
	"github.com/mosip/audit-manager/pkg/audit"
)

var configFile string

// BuildCLI assembles the auditd root command and its subcommands.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "auditd",
		Short: "auditd: a crash-recoverable audit event ingestion service",
		Long: `auditd ingests, buffers, and durably persists audit events with:
- Write-ahead-log durability and crash recovery
- Bounded caller-runs ingestion under load
- Cron-scheduled retention sweeps
- Prometheus metrics`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildSweepCommand())
	rootCmd.AddCommand(buildReplayWALCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the audit ingestion engine",
		Long:  "Load config, open the audit store, start the engine, and serve metrics until a shutdown signal arrives",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(configFile)
		},
	}
	return cmd
}

func runEngine(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.Logging)
	log.Info("starting audit engine", "config", path)

	store, err := datastore.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	var collector *metrics.Collector
	var rec audit.MetricsRecorder
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		rec = collector
		if err := collector.StartServer(cfg.Metrics.Port); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		log.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	engineCfg := audit.Config{
		BufferSize:             cfg.Engine.BufferSize,
		FlushInterval:          cfg.Engine.FlushInterval(),
		WALFilePath:            cfg.Engine.WALFilePath,
		WALFsyncOnAppend:       cfg.Engine.WALFsyncOnAppend,
		RetentionPeriod:        cfg.Engine.RetentionPeriod(),
		ClearCron:              cfg.Engine.ClearCron,
		ExecutorCorePoolSize:   cfg.Engine.ExecutorCorePoolSize,
		ExecutorMaxPoolSize:    cfg.Engine.ExecutorMaxPoolSize,
		ExecutorQueueCapacity:  cfg.Engine.ExecutorQueueCapacity,
		ExecutorKeepAlive:      cfg.Engine.KeepAlive(),
		ExecutorAwaitTerminate: cfg.Engine.AwaitTermination(),
	}

	engine := audit.NewEngine(engineCfg, store, rec, log)
	if err := engine.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	log.Info("audit engine started", "buffer_size", engine.BufferSize())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("received shutdown signal, stopping gracefully")
	engine.Stop()

	if collector != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := collector.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown error", "error", err)
		}
	}

	log.Info("audit engine stopped")
	return nil
}

func buildSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a single retention sweep and exit",
		Long:  "Delete audit records older than the configured retention period, then exit, without starting the full engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweepOnce(configFile)
		},
	}
	return cmd
}

func runSweepOnce(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.Logging)

	store, err := datastore.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	sweeper := audit.NewSweeper(store, audit.NoopMetrics(), log, cfg.Engine.RetentionPeriod())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sweeper.Sweep(ctx)

	fmt.Println("retention sweep complete")
	return nil
}

func buildReplayWALCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay-wal",
		Short: "Replay the write-ahead log and report recoverable records",
		Long:  "Open the configured WAL file, replay it, and print how many records would be recovered and how many lines were skipped as malformed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayWAL(configFile)
		},
	}
	return cmd
}

func replayWAL(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	wal, err := audit.NewWAL(cfg.Engine.WALFilePath, cfg.Engine.WALFsyncOnAppend)
	if err != nil {
		return fmt.Errorf("open wal: %w", err)
	}
	defer wal.Close()

	result, err := wal.Replay()
	if err != nil {
		return fmt.Errorf("replay wal: %w", err)
	}

	fmt.Printf("wal file:         %s\n", cfg.Engine.WALFilePath)
	fmt.Printf("records recovered: %d\n", len(result.Records))
	fmt.Printf("lines skipped:     %d\n", len(result.Skipped))
	return nil
}

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the resolved configuration status",
		Long:  "Display the resolved configuration for the given config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus()
		},
	}
	return cmd
}

func showStatus() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println()
	fmt.Println("audit service status")
	fmt.Println("=====================")
	fmt.Printf("config file:          %s\n", configFile)
	fmt.Println()

	fmt.Println("engine:")
	fmt.Printf("  buffer size:              %d\n", cfg.Engine.BufferSize)
	fmt.Printf("  flush interval:           %s\n", cfg.Engine.FlushInterval())
	fmt.Printf("  wal file:                 %s\n", cfg.Engine.WALFilePath)
	fmt.Printf("  wal fsync on append:      %t\n", cfg.Engine.WALFsyncOnAppend)
	fmt.Printf("  retention period:         %s\n", cfg.Engine.RetentionPeriod())
	fmt.Printf("  clear cron:               %s\n", cfg.Engine.ClearCron)
	fmt.Printf("  executor core pool size:  %d\n", cfg.Engine.ExecutorCorePoolSize)
	fmt.Printf("  executor max pool size:   %d\n", cfg.Engine.ExecutorMaxPoolSize)
	fmt.Printf("  executor queue capacity:  %d\n", cfg.Engine.ExecutorQueueCapacity)
	fmt.Println()

	fmt.Println("database:")
	fmt.Printf("  dsn configured: %t\n", cfg.Database.DSN != "")
	fmt.Println()

	fmt.Println("metrics:")
	if cfg.Metrics.Enabled {
		fmt.Printf("  status: enabled on http://localhost:%d/metrics\n", cfg.Metrics.Port)
	} else {
		fmt.Println("  status: disabled")
	}
	fmt.Println()

	return nil
}
