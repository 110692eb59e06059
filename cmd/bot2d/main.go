// Bot2 Daemon - runs the affective engine with its HTTP and WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ASaxcs/bot2/internal/api"
	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/engine"
	"github.com/ASaxcs/bot2/internal/logging"
	"github.com/ASaxcs/bot2/internal/scheduler"
	"github.com/ASaxcs/bot2/internal/storage"
)

var (
	configPath string
	dataDir    string
	port       int
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bot2d",
		Short: "Bot2 Daemon - the affective state engine service",
		RunE:  runDaemon,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".bot2")

	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file path (JSON)")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir, "Data directory")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	fmt.Println("🚀 Starting Bot2 Daemon...")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Open database
	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Create the engine and restore persisted state
	eng := engine.New(engine.Config{
		Settings: cfg,
		DB:       db,
	})
	if err := eng.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	view := eng.Snapshot()
	fmt.Printf("🧠 Engine running (mood: %s, intensity: %.2f)\n",
		view.State.PrimaryEmotion, view.State.Intensity)

	// Background maintenance: decay ticks and coalesced saves
	sched := scheduler.New()
	eng.RegisterMaintenance(sched)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Create the API server
	server := api.New(api.Config{
		Settings:  cfg,
		Engine:    eng,
		Scheduler: sched,
	})

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\n🛑 Shutting down...")
		server.Stop(context.Background())
		sched.Stop()
		eng.Stop()
	}()

	// Start server (blocks)
	fmt.Printf("🌐 API listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	return server.Start()
}

// loadConfig reads the config file when given, then lets explicit
// flags override whatever the file or the defaults said.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if configPath == "" || cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}
