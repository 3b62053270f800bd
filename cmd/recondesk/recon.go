package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/service"
)

func newReconCmd(flags *globalFlags) *cobra.Command {
	var merchant string
	cmd := &cobra.Command{
		Use:   "recon",
		Short: "Drive the recon engine",
	}
	merchantFlag(cmd, &merchant)

	cmd.AddCommand(&cobra.Command{
		Use:   "trigger",
		Short: "Run one matching batch and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			m, err := rt.useMerchant(cmd.Context(), merchant)
			if err != nil {
				return err
			}
			rec := &service.Reconciler{Backend: rt.client}
			res, err := rec.Trigger(cmd.Context(), m.ID)
			notice := service.TriggerNotice(res, err)
			if err != nil {
				printNotice(cmd.ErrOrStderr(), notice)
				return err
			}
			printNotice(cmd.OutOrStdout(), notice)
			return nil
		},
	})
	return cmd
}

func newTransactionsCmd(flags *globalFlags) *cobra.Command {
	var merchant string
	var versions bool
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Inspect a merchant's transactions",
	}
	merchantFlag(cmd, &merchant)

	list := &cobra.Command{
		Use:   "list",
		Short: "List logical transactions, optionally with every version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			m, err := rt.useMerchant(cmd.Context(), merchant)
			if err != nil {
				return err
			}
			browser := &service.TransactionBrowser{Backend: rt.client}
			txs, err := browser.List(cmd.Context(), m.ID)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			row(w, "ID", "FROM", "TO", "AMOUNT", "STATUS", "VERSION")
			for _, tx := range txs {
				row(w, tx.LogicalTransactionID, tx.FromName(), tx.ToName(),
					tx.Amount.StringFixed(2)+" "+tx.Currency, domain.StatusLabel(tx.Status),
					fmt.Sprintf("v%d", tx.CurrentVersion))
				if !versions {
					continue
				}
				for _, v := range tx.SortedVersions() {
					row(w, fmt.Sprintf("  v%d", v.Version), "", "", v.Amount.StringFixed(2)+" "+v.Currency,
						domain.StatusLabel(v.Status), domain.FormatTime(v.CreatedAt, rt.cfg.UI.DateFormat))
					for _, e := range v.Entries {
						row(w, "    "+string(e.EntryType), e.AccountID, e.EffectiveDate,
							e.Amount.StringFixed(2)+" "+e.Currency, domain.StatusLabel(e.Status), "")
					}
				}
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&versions, "versions", false, "include every version with its entries")

	show := &cobra.Command{
		Use:   "show <logical-id>",
		Short: "Show every version of one transaction with its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			m, err := rt.useMerchant(cmd.Context(), merchant)
			if err != nil {
				return err
			}
			browser := &service.TransactionBrowser{Backend: rt.client}
			txs, err := browser.List(cmd.Context(), m.ID)
			if err != nil {
				return err
			}
			tx, ok := service.Find(txs, args[0])
			if !ok {
				return fmt.Errorf("no transaction %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s -> %s  %s %s  %s\n", tx.LogicalTransactionID, tx.FromName(), tx.ToName(),
				tx.Amount.StringFixed(2), tx.Currency, domain.StatusLabel(tx.Status))
			for _, v := range tx.SortedVersions() {
				fmt.Fprintf(out, "\nv%d  %s  %s\n", v.Version, domain.StatusLabel(v.Status),
					domain.FormatTime(v.CreatedAt, rt.cfg.UI.DateFormat))
				w := newTable(out)
				row(w, "ENTRY", "TYPE", "ACCOUNT", "AMOUNT", "STATUS", "EFFECTIVE")
				for _, e := range v.Entries {
					row(w, e.ID, string(e.EntryType), e.AccountID, e.Amount.StringFixed(2)+" "+e.Currency,
						domain.StatusLabel(e.Status), e.EffectiveDate)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
