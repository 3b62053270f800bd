package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/domain"
)

// merchantFlag adds the --merchant flag shared by every merchant-scoped command.
func merchantFlag(cmd *cobra.Command, ref *string) {
	cmd.PersistentFlags().StringVarP(ref, "merchant", "m", "", "merchant id or name")
	_ = cmd.MarkPersistentFlagRequired("merchant")
}

func parseAccountType(s string) (domain.AccountType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBIT", "DEBIT_NORMAL":
		return domain.DebitNormal, nil
	case "CREDIT", "CREDIT_NORMAL":
		return domain.CreditNormal, nil
	}
	return "", fmt.Errorf("unknown account type %q (want debit or credit)", s)
}

func newAccountsCmd(flags *globalFlags) *cobra.Command {
	var merchant string
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "List and manage a merchant's accounts",
	}
	merchantFlag(cmd, &merchant)

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.useMerchant(cmd.Context(), merchant); err != nil {
				return err
			}
			accounts, err := rt.dir.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "ID", "NAME", "TYPE", "CURRENCY", "POSTED", "PENDING", "AVAILABLE")
			for _, a := range accounts {
				row(w, a.ID, a.Name, a.Type.Label(), a.Currency,
					a.PostedBalance.StringFixed(2), a.PendingBalance.StringFixed(2), a.AvailableBalance.StringFixed(2))
			}
			return w.Flush()
		},
	}

	var kind, currency, balance string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountType, err := parseAccountType(kind)
			if err != nil {
				return err
			}
			in := domain.AccountInput{Name: args[0], Type: accountType, Currency: currency}
			if strings.TrimSpace(balance) != "" {
				b, err := domain.ParseBalance(balance)
				if err != nil {
					return err
				}
				in.InitialBalance = &b
			}

			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.useMerchant(cmd.Context(), merchant); err != nil {
				return err
			}
			acct, err := rt.dir.CreateAccount(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account Created: %s (%s)\n", acct.Name, acct.ID)
			return nil
		},
	}
	create.Flags().StringVar(&kind, "type", "debit", "account type: debit or credit")
	create.Flags().StringVar(&currency, "currency", "USD", "3-letter currency code")
	create.Flags().StringVar(&balance, "balance", "", "initial balance")

	rename := &cobra.Command{
		Use:   "rename <id|name> <new-name>",
		Short: "Rename an account",
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
			acct, err := findAccount(accounts, args[0])
			if err != nil {
				return err
			}
			updated, err := rt.dir.UpdateAccount(cmd.Context(), m.ID, acct.ID, domain.AccountUpdate{Name: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account Updated: %s\n", updated.Name)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete an account and its local upload history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.useMerchant(cmd.Context(), merchant); err != nil {
				return err
			}
			accounts, err := rt.dir.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := findAccount(accounts, args[0])
			if err != nil {
				return err
			}
			if err := rt.dir.DeleteAccount(cmd.Context(), acct.ID); err != nil {
				return err
			}
			store, err := rt.Store(cmd.Context())
			if err != nil {
				return err
			}
			if n, err := store.uploads.DeleteForAccount(cmd.Context(), acct.ID); err != nil {
				rt.log.Warn().Err(err).Str("account_id", acct.ID).Msg("drop upload history")
			} else if n > 0 {
				rt.log.Debug().Int64("rows", n).Str("account_id", acct.ID).Msg("dropped upload history")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account Deleted: %s\n", acct.Name)
			return nil
		},
	}

	cmd.AddCommand(list, create, rename, del)
	return cmd
}
