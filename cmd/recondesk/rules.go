package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/domain"
)

func newRulesCmd(flags *globalFlags) *cobra.Command {
	var merchant string
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "List and manage recon rules",
	}
	merchantFlag(cmd, &merchant)

	list := &cobra.Command{
		Use:   "list",
		Short: "List the merchant's recon rules",
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
			rules, err := rt.rules.Load(cmd.Context(), m.ID)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "ID", "ACCOUNT ONE", "ACCOUNT TWO", "CREATED")
			for _, r := range rules {
				row(w, r.ID, ruleSide(r.AccountOne, r.AccountOneID), ruleSide(r.AccountTwo, r.AccountTwoID),
					domain.FormatTime(r.CreatedAt, rt.cfg.UI.DateFormat))
			}
			return w.Flush()
		},
	}

	create := &cobra.Command{
		Use:   "create <account> <account>",
		Short: "Link two accounts for reconciliation",
		Args:  cobra.ExactArgs(2),
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
			accounts, err := rt.dir.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			one, err := findAccount(accounts, args[0])
			if err != nil {
				return err
			}
			two, err := findAccount(accounts, args[1])
			if err != nil {
				return err
			}
			// the duplicate check needs the current rules in the cache
			if _, err := rt.rules.Load(cmd.Context(), m.ID); err != nil {
				return err
			}
			rule, err := rt.rules.Create(cmd.Context(), m.ID, one.ID, two.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule Created: %s <-> %s (%s)\n", one.Name, two.Name, rule.ID)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a recon rule",
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
			if err := rt.rules.Delete(cmd.Context(), m.ID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule Deleted: %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func ruleSide(details domain.AccountDetails, id string) string {
	if details.Name != "" {
		return details.Name
	}
	return id
}
