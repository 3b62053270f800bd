package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/service"
)

func newUploadCmd(flags *globalFlags) *cobra.Command {
	var merchant, account, mode string
	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV statement into an account's staging area",
		Long: `Upload sends a CSV file to the staging area of one account.

CONFIRMATION mode matches the rows against expected ledger entries;
TRANSACTION mode books each row as a new transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processing, ok := domain.ParseProcessingMode(mode)
			if !ok {
				return fmt.Errorf("unknown processing mode %q", mode)
			}
			if err := service.CheckFile(args[0]); err != nil {
				return errors.New(service.InlineMessage(err))
			}

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
			acct, err := findAccount(accounts, account)
			if err != nil {
				return err
			}
			if _, err := rt.Store(cmd.Context()); err != nil {
				return err
			}

			outcome, err := rt.uploader().UploadPath(cmd.Context(), service.UploadRequest{
				MerchantID:  m.ID,
				AccountID:   acct.ID,
				AccountName: acct.Name,
				Mode:        processing,
				FileName:    args[0],
			})
			if err != nil {
				if service.IsInline(err) {
					return errors.New(service.InlineMessage(err))
				}
				printNotice(cmd.ErrOrStderr(), service.UploadFailedNotice(err))
				return err
			}

			out := cmd.OutOrStdout()
			printNotice(out, outcome.Notice())
			if len(outcome.Response.Errors) == 0 {
				return nil
			}
			w := newTable(out)
			row(w, "ROW", "ERROR", "DATA")
			for _, e := range outcome.Response.Errors {
				row(w, strconv.Itoa(e.RowNumber), e.ErrorDetails, e.DataText())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&merchant, "merchant", "m", "", "merchant id or name")
	cmd.Flags().StringVarP(&account, "account", "a", "", "account id or name")
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeConfirmation), "processing mode: CONFIRMATION or TRANSACTION")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newUploadsCmd(flags *globalFlags) *cobra.Command {
	var merchant string
	var limit int
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Show the local upload history of a merchant",
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
			if _, err := rt.Store(cmd.Context()); err != nil {
				return err
			}
			history, err := rt.uploader().Recent(cmd.Context(), m.ID, limit)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "WHEN", "FILE", "ACCOUNT", "MODE", "OK", "FAILED", "ERROR")
			for _, u := range history {
				row(w, u.UploadedAt.Local().Format(rt.cfg.UI.DateFormat), u.FileName, u.AccountName,
					domain.StatusLabel(u.ProcessingMode), strconv.Itoa(u.Successful), strconv.Itoa(u.Failed), u.Error)
			}
			return w.Flush()
		},
	}
	merchantFlag(cmd, &merchant)
	cmd.Flags().IntVar(&limit, "limit", 20, "number of uploads to show")
	return cmd
}
