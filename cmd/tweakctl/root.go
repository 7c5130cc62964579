package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/tweakctl/internal/config"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	simulate   bool
	msrBackend string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tweakctl",
	Short: "Apply and revert Windows performance tweaks",
	Long: `tweakctl applies and reverts system tweaks: power schemes, processor
model-specific registers on every core, services, display mode and shell
processes. Every change is verified where the system allows it and recorded
in a local journal.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&simulate, "simulate", false, "Run against in-memory system interfaces")
	flags.StringVar(&msrBackend, "msr-backend", "", "Register access backend (auto, winring0, devmsr, memory)")
}

func execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(
		config.WithConfigFile(configFile),
		config.WithFlags(cmd.Flags()),
	)
	if err != nil {
		return err
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	if !cfg.Debug && !cfg.Verbose {
		level, err := logger.ParseLevel(cfg.LogLevel.String())
		if err != nil {
			return err
		}
		logger.SetLogLevel(level)
	}

	logger.Debug().
		Bool("simulate", cfg.Simulate).
		Str("msr_backend", string(cfg.MSR.Backend)).
		Bool("journal", cfg.Journal.Enabled).
		Msg("Config loaded")

	return nil
}

// printFormatted writes v as JSON or YAML; text is handled by the caller.
func printFormatted(format string, v any) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case formatYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q, expected text, json or yaml", format)
	}
}
