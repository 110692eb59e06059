// Bot2 CLI - inspect and interact with the affective engine from the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/engine"
	"github.com/ASaxcs/bot2/internal/logging"
	"github.com/ASaxcs/bot2/internal/storage"
)

var (
	dataDir string

	version = "0.2.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bot2",
		Short: "Bot2 - an emotional state engine for conversational agents",
		Long: `Bot2 tracks a bounded emotional state that reacts to dialogue,
decays over time, and shapes how an agent should respond.

All state lives in your local data directory.`,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".bot2")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "data directory")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// statusCmd shows the persisted engine state without starting the engine.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current engine state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := localConfig()

			snapStore := storage.NewSnapshotStore(cfg.SnapshotPath())
			if !snapStore.Exists() {
				fmt.Println("❌ No saved state yet.")
				fmt.Println("   Run 'bot2 chat' or start bot2d to create one.")
				return nil
			}

			snap, err := snapStore.Load()
			if err != nil {
				return err
			}

			fmt.Println("📊 Bot2 Status")
			fmt.Println()
			fmt.Printf("   Mood: %s (intensity %.2f)\n",
				snap.EmotionalState.PrimaryEmotion, snap.EmotionalState.Intensity)
			fmt.Printf("   Energy: %.2f | Stability: %.2f\n",
				snap.EmotionalState.EnergyLevel, snap.EmotionalState.Stability)
			fmt.Println()
			for _, name := range core.AllTraits {
				if ts, ok := snap.Personality[name]; ok {
					fmt.Printf("   %s: %.2f\n", name, ts.CurrentLevel)
				}
			}
			fmt.Println()
			fmt.Printf("   Saved: %s\n", snap.SavedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("   Data: %s\n", cfg.DataDir)

			db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
			if err == nil {
				defer db.Close()
				if count, err := storage.NewExperienceStore(db).Count(); err == nil {
					fmt.Printf("   Experiences: %d recorded\n", count)
				}
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show bot2 version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bot2 %s\n", version)
		},
	}
}

// chatCmd runs a local dialogue loop against the engine. Each line is
// processed as user input and the resulting state and response style
// are printed. State is saved on exit.
func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the engine interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, db, err := startLocalEngine()
			if err != nil {
				return err
			}
			defer db.Close()
			defer eng.Stop()

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			if interactive {
				view := eng.Snapshot()
				fmt.Printf("🧠 Engine ready (mood: %s). Type a message, /state /personality /reset, or /quit.\n\n",
					view.State.PrimaryEmotion)
			}

			scanner := bufio.NewScanner(os.Stdin)
			for {
				if interactive {
					fmt.Print("> ")
				}
				if !scanner.Scan() {
					break
				}
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				if strings.HasPrefix(text, "/") {
					if quit := runChatCommand(eng, text); quit {
						break
					}
					continue
				}

				res, err := eng.ProcessDialogue(text)
				if err != nil {
					fmt.Printf("   error: %v\n", err)
					continue
				}

				fmt.Printf("   mood: %s (%.2f) | trigger: %s\n",
					res.State.PrimaryEmotion, res.State.Intensity, res.Signal.Category)
				fmt.Printf("   style: %s (%s) | enthusiasm %.2f | empathy %.2f\n\n",
					res.Influence.Style, res.Influence.LengthPreference,
					res.Influence.Enthusiasm, res.Influence.EmpathyModifier)
			}

			if interactive {
				fmt.Println("\n💾 State saved.")
			}
			return scanner.Err()
		},
	}
}

// runChatCommand handles REPL slash commands. Returns true on /quit.
func runChatCommand(eng *engine.Engine, text string) bool {
	switch text {
	case "/quit", "/exit":
		return true
	case "/state":
		s := eng.GetState()
		fmt.Printf("   mood: %s (%.2f) | energy %.2f | stability %.2f\n\n",
			s.PrimaryEmotion, s.Intensity, s.EnergyLevel, s.Stability)
	case "/personality":
		p := eng.GetPersonality()
		fmt.Printf("   assertiveness %.2f | empathy %.2f | curiosity %.2f\n\n",
			p.Assertiveness, p.Empathy, p.Curiosity)
	case "/reset":
		if err := eng.Reset(); err != nil {
			fmt.Printf("   error: %v\n\n", err)
		} else {
			fmt.Println("   state reset to neutral baseline")
			fmt.Println()
		}
	default:
		fmt.Println("   commands: /state /personality /reset /quit")
		fmt.Println()
	}
	return false
}

// historyCmd lists recent state changes from the log.
func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent state changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cfg := localConfig()

			db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(); err != nil {
				return err
			}

			entries, err := storage.NewStateLog(db).Recent(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No state changes recorded yet.")
				return nil
			}

			fmt.Printf("📝 Recent State Changes (%d)\n\n", len(entries))
			for _, e := range entries {
				fmt.Printf("   #%d %s  %s (%.2f)  energy %.2f  stability %.2f\n",
					e.Seq, e.LoggedAt.Format("2006-01-02 15:04:05"),
					e.Emotion, e.Intensity, e.EnergyLevel, e.Stability)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Max entries")
	return cmd
}

// resetCmd returns the engine to its neutral baseline.
func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset emotional state and personality to baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if !force && term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Print("This discards the current emotional state and learned trait levels. Continue? [y/N] ")
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			eng, db, err := startLocalEngine()
			if err != nil {
				return err
			}
			defer db.Close()
			defer eng.Stop()

			if err := eng.Reset(); err != nil {
				return err
			}
			if err := eng.Save(); err != nil {
				return err
			}

			fmt.Println("✅ State reset to neutral baseline.")
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Skip confirmation")
	return cmd
}

// startLocalEngine opens the local database and starts an engine over it.
func startLocalEngine() (*engine.Engine, *storage.DB, error) {
	cfg := localConfig()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	eng := engine.New(engine.Config{Settings: cfg, DB: db})
	if err := eng.Start(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	return eng, db, nil
}

func localConfig() *config.Config {
	cfg := config.Default()
	cfg.DataDir = dataDir
	logging.SetLevel(logging.ParseLevel("warn"))
	return cfg
}
