package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/domain"
)

func newMerchantsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "merchants",
		Aliases: []string{"merchant"},
		Short:   "List and manage merchants",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List merchants",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := cliRuntime(cmd, flags)
				if err != nil {
					return err
				}
				defer rt.Close()

				list, err := rt.dir.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout())
				row(w, "ID", "NAME", "CODE", "STATUS", "CREATED")
				for _, m := range list {
					row(w, m.ID, m.Name, m.Code, domain.StatusLabel(string(m.Status)),
						domain.FormatTime(m.CreatedAt, rt.cfg.UI.DateFormat))
				}
				return w.Flush()
			},
		},
		newMerchantCreateCmd(flags),
		newMerchantRenameCmd(flags),
		&cobra.Command{
			Use:   "delete <id|name>",
			Short: "Delete a merchant",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := cliRuntime(cmd, flags)
				if err != nil {
					return err
				}
				defer rt.Close()

				m, err := rt.useMerchant(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := rt.dir.DeleteMerchant(cmd.Context(), m.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Merchant Deleted: %s\n", m.Name)
				return nil
			},
		},
	)
	return cmd
}

func newMerchantCreateCmd(flags *globalFlags) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a merchant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			m, err := rt.dir.CreateMerchant(cmd.Context(), domain.MerchantInput{Name: args[0], Code: code})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merchant Created: %s (%s)\n", m.Name, m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "optional merchant code")
	return cmd
}

func newMerchantRenameCmd(flags *globalFlags) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "rename <id|name> <new-name>",
		Short: "Rename a merchant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			m, err := rt.useMerchant(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("code") {
				code = m.Code
			}
			updated, err := rt.dir.UpdateMerchant(cmd.Context(), m.ID, domain.MerchantInput{Name: args[1], Code: code})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merchant Updated: %s\n", updated.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "new merchant code (default keeps the current one)")
	return cmd
}
