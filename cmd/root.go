package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nconklindev/planilha/internal/config"
	"github.com/nconklindev/planilha/internal/logging"
	"github.com/nconklindev/planilha/internal/ui"
)

var (
	configFile string
	logLevel   string
	logFile    string

	// cfg is loaded before any command runs.
	cfg *config.Config

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "planilha",
	Short: "Match a charges spreadsheet with a CPF spreadsheet",
	Long: `Planilha reads a charges spreadsheet and a spreadsheet of names and CPFs,
inserts the CPF of each student next to the ALUNO column and writes a
formatted workbook where rows without a CPF are highlighted.

Run without a command to pick both files in the terminal UI, or use
"planilha merge" to process them from scripts.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runUI,
}

// Execute runs the root command. It exits the process on failure.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if _, reported := err.(exitError); !reported {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}

// exitError signals that the command already told the user what went wrong.
type exitError struct{ err error }

func (e exitError) Error() string { return e.err.Error() }

func (e exitError) Unwrap() error { return e.err }

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultFile, "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file (overrides the config file)")
}

// setup loads the config file and applies the global flag overrides.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		loaded.LogFile = logFile
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = loaded
	return nil
}

// level returns the configured level; cfg is validated by setup.
func level() zerolog.Level {
	l, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func runUI(cmd *cobra.Command, _ []string) error {
	// The UI owns the terminal, so logs only go to a file.
	logger, closer, err := logging.Open(cfg.LogFile, level())
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := logging.WithLogger(cmd.Context(), &logger)
	logger.Info().Str("version", Version).Msg("Starting terminal UI")

	p := tea.NewProgram(ui.InitialModel(ctx, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
