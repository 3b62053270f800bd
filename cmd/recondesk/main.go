package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/api"
	"github.com/jask/recondesk/internal/logging"
	"github.com/jask/recondesk/internal/tui"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags override the matching config keys when set.
type globalFlags struct {
	configPath  string
	apiURL      string
	logLevel    string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "recondesk",
		Short: "Operator console for the reconciliation API",
		Long: `recondesk manages merchants, accounts and recon rules, uploads statement
files into staging and watches the recon engine match them against the ledger.

Run without a subcommand to open the interactive console.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), flags)
		},
	}
	api.Version = version

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $RECONDESK_CONFIG or ~/.config/recondesk/config.toml)")
	pf.StringVar(&flags.apiURL, "api", "", "reconciliation API base URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	root.AddCommand(
		newMerchantsCmd(flags),
		newAccountsCmd(flags),
		newRulesCmd(flags),
		newUploadCmd(flags),
		newUploadsCmd(flags),
		newReconCmd(flags),
		newTransactionsCmd(flags),
		newEntriesCmd(flags),
		newSampleCmd(),
		newConfigCmd(flags),
	)
	return root
}

// runConsole opens the TUI. Logs go to the configured file since the
// terminal belongs to the program.
func runConsole(ctx context.Context, flags *globalFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log, closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	rt, err := newRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	store, err := rt.Store(ctx)
	if err != nil {
		return err
	}
	app := tui.New(ctx, cfg, rt.services(), store.prefs, log)
	defer app.Close()

	log.Info().Str("api", rt.client.BaseURL()).Msg("console started")
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
