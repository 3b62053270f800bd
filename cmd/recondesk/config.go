package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/config"
	"github.com/jask/recondesk/internal/logging"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings and stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "KEY", "VALUE")
			row(w, "api.base_url", cfg.API.BaseURL)
			row(w, "api.timeout", cfg.API.Timeout.String())
			row(w, "api.trigger_timeout", cfg.API.TriggerTimeout.String())
			row(w, "api.rate_limit", fmt.Sprint(cfg.API.RateLimit))
			row(w, "api.burst", fmt.Sprint(cfg.API.Burst))
			row(w, "api.breaker_failures", fmt.Sprint(cfg.API.BreakerFailures))
			row(w, "api.breaker_cooldown", cfg.API.BreakerCooldown.String())
			row(w, "poll.interval", cfg.Poll.Interval.String())
			row(w, "database.path", cfg.Database.Path)
			row(w, "ui.theme", cfg.UI.Theme)
			row(w, "ui.date_format", cfg.UI.DateFormat)
			row(w, "log.level", cfg.Log.Level)
			row(w, "log.path", cfg.Log.Path)
			row(w, "metrics.addr", cfg.Metrics.Addr)
			if err := w.Flush(); err != nil {
				return err
			}

			// stored preferences only exist once the console has run
			if _, err := os.Stat(cfg.Database.Path); err != nil {
				return nil
			}
			rt, err := newRuntime(cfg, logging.Console(cfg.Log.Level))
			if err != nil {
				return err
			}
			defer rt.Close()
			store, err := rt.Store(cmd.Context())
			if err != nil {
				return err
			}
			prefs, err := store.prefs.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(prefs) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nStored preferences")
			w = newTable(cmd.OutOrStdout())
			row(w, "KEY", "VALUE", "UPDATED")
			for _, p := range prefs {
				row(w, p.Key, p.Value, p.UpdatedAt.Local().Format(cfg.UI.DateFormat))
			}
			return w.Flush()
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if path == "" {
				path = config.Path()
			}
			exists := false
			if _, err := os.Stat(path); err == nil {
				if !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				exists = true
			}
			// a new file starts from the defaults plus flag overrides
			load := *flags
			if !exists {
				load.configPath = ""
			}
			cfg, err := loadConfig(&load)
			if err != nil {
				return err
			}
			if path == config.Path() {
				err = config.Save(cfg)
			} else {
				err = config.SaveFile(path, cfg)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
