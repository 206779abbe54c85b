// Switchyard routes prompts to models: it classifies task type and
// complexity, applies context adjustments and file overrides, and resolves
// the result against a Strategy × TaskType × ComplexityTier matrix.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/normanking/switchyard/internal/config"
	"github.com/normanking/switchyard/internal/engine"
	"github.com/normanking/switchyard/internal/journal"
	"github.com/normanking/switchyard/internal/logging"
	"github.com/normanking/switchyard/internal/policy"
	"github.com/normanking/switchyard/internal/server"
)

var version = "0.3.0"

var (
	cfgPath    string
	policyPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "switchyard",
		Short: "Switchyard - deterministic model routing for AI hosts",
		Long: `Switchyard decides which model should handle a prompt.

It classifies the task type and complexity from the prompt text, adjusts
for session context, applies file-pattern overrides, and resolves the
result against a configurable strategy matrix.

Route a prompt:     switchyard route "fix typo in readme"
Run the API:        switchyard serve
Configuration:      switchyard config show`,
		PersistentPreRunE: initLogging,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.switchyard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "policy document path (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Switchyard v%s\n", version)
		},
	})

	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(journalCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogging(cmd *cobra.Command, args []string) error {
	level, format := "info", "console"
	if cfg, err := loadConfig(); err == nil {
		level, format = cfg.Logging.Level, cfg.Logging.Format
	}
	if verbose {
		level = "debug"
	}
	logging.Setup(level, format)
	return nil
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFromPath(cfgPath)
	}
	return config.Load()
}

func openPolicies(cfg *config.Config) (*policy.Store, error) {
	path := policyPath
	if path == "" {
		path = cfg.Policy.Path
	}
	return policy.Open(path)
}

// ═══════════════════════════════════════════════════════════════════════════════
// ROUTE COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func routeCmd() *cobra.Command {
	var (
		strategy      string
		agent         string
		contextTokens int
		touchedFiles  []string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "route [prompt]",
		Short: "Decide which model should handle a prompt",
		Long: `Route classifies the prompt and prints the selected model chain.

Examples:
  switchyard route "fix typo in readme" --strategy cost-optimized
  switchyard route "implement step 1 from the plan" --context-tokens 120000
  switchyard route "harden the login flow" --file app/security/login.ts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openPolicies(cfg)
			if err != nil {
				return err
			}

			if strategy == "" && agent != "" {
				strategy = store.Active().StrategyForAgent(agent)
			}

			eng := engine.New(store)
			decision := eng.SelectModel(engine.Request{
				Prompt:               strings.Join(args, " "),
				Strategy:             strategy,
				SessionContextTokens: contextTokens,
				TouchedFiles:         touchedFiles,
			})

			if asJSON {
				data, err := json.MarshalIndent(decision, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Print(renderDecision(decision))
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "routing strategy (default from policy)")
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "agent name mapped to a strategy")
	cmd.Flags().IntVar(&contextTokens, "context-tokens", 0, "session context size in tokens")
	cmd.Flags().StringSliceVarP(&touchedFiles, "file", "f", nil, "files the task touches (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decision as JSON")
	return cmd
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(12)
	modelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

func renderDecision(d engine.Decision) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Routing decision") + "\n")
	b.WriteString(labelStyle.Render("model") + modelStyle.Render(d.PrimaryModel.String()) + "\n")
	if len(d.FallbackModels) > 0 {
		fallbacks := make([]string, 0, len(d.FallbackModels))
		for _, m := range d.FallbackModels {
			fallbacks = append(fallbacks, m.String())
		}
		b.WriteString(labelStyle.Render("fallbacks") + strings.Join(fallbacks, ", ") + "\n")
	}
	b.WriteString(labelStyle.Render("strategy") + d.Strategy + "\n")
	b.WriteString(labelStyle.Render("task type") + d.TaskType + "\n")
	complexity := string(d.FinalComplexity)
	if d.FinalComplexity != d.BaseComplexity {
		complexity = fmt.Sprintf("%s (base %s)", d.FinalComplexity, d.BaseComplexity)
	}
	b.WriteString(labelStyle.Render("complexity") + complexity + "\n")

	if len(d.Adjustments) > 0 {
		b.WriteString("\n" + titleStyle.Render("Adjustments") + "\n")
		for _, a := range d.Adjustments {
			b.WriteString(faintStyle.Render("  • "+a) + "\n")
		}
	}
	if len(d.Reasoning) > 0 {
		b.WriteString("\n" + titleStyle.Render("Reasoning") + "\n")
		for _, r := range d.Reasoning {
			b.WriteString(faintStyle.Render("  • "+r) + "\n")
		}
	}
	return b.String()
}

// ═══════════════════════════════════════════════════════════════════════════════
// SERVE COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the routing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			store, err := openPolicies(cfg)
			if err != nil {
				return err
			}

			var jnl *journal.Store
			if cfg.Journal.Enabled {
				jnl, err = journal.Open(cfg.Journal.DBPath)
				if err != nil {
					return err
				}
				defer jnl.Close()
			}

			srv := server.New(cfg.Server, engine.New(store), store, jnl)

			// SIGHUP reloads the policy document; SIGINT/SIGTERM stop.
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				for sig := range sigs {
					if sig == syscall.SIGHUP {
						if err := store.Reload(); err != nil {
							zlog.Warn().Err(err).Msg("policy reload rejected")
						} else {
							zlog.Info().Msg("policy reloaded")
						}
						continue
					}
					zlog.Info().Str("signal", sig.String()).Msg("shutting down")
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					srv.Shutdown(ctx)
					cancel()
					return
				}
			}()

			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIG COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Println("Switchyard Configuration:")
			fmt.Println("─────────────────────────")
			fmt.Printf("Server Addr:     %s\n", cfg.Server.Addr())
			fmt.Printf("Policy Path:     %s\n", cfg.Policy.Path)
			fmt.Printf("Journal Enabled: %t\n", cfg.Journal.Enabled)
			fmt.Printf("Journal Path:    %s\n", cfg.Journal.DBPath)
			fmt.Printf("Log Level:       %s\n", cfg.Logging.Level)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Configuration ready (policy: %s)\n", cfg.Policy.Path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and policy document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			store, err := openPolicies(cfg)
			if err != nil {
				return fmt.Errorf("policy invalid: %w", err)
			}
			p := store.Active()
			fmt.Printf("OK: %d strategies, %d task types, %d overrides\n",
				len(p.Strategies), len(p.TaskTypes), len(p.Overrides))
			return nil
		},
	})

	return cmd
}

// ═══════════════════════════════════════════════════════════════════════════════
// JOURNAL COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the decision journal",
	}

	openJournal := func() (*journal.Store, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return journal.Open(cfg.Journal.DBPath)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show decision counts per model",
		RunE: func(cmd *cobra.Command, args []string) error {
			jnl, err := openJournal()
			if err != nil {
				return err
			}
			defer jnl.Close()

			stats, err := jnl.StatsByModel()
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("No decisions recorded yet.")
				return nil
			}
			for _, st := range stats {
				fmt.Printf("%6d  %s\n", st.Count, st.Model)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "recent",
		Short: "Show the most recent decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			jnl, err := openJournal()
			if err != nil {
				return err
			}
			defer jnl.Close()

			entries, err := jnl.Recent(20)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No decisions recorded yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %-22s %-14s %-8s %s\n",
					e.CreatedAt.Format(time.RFC3339), e.TaskType, e.Strategy,
					e.FinalComplexity, e.PrimaryModel)
			}
			return nil
		},
	})

	return cmd
}
