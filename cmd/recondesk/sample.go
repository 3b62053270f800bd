package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/sample"
	"github.com/jask/recondesk/internal/service"
)

func newSampleCmd() *cobra.Command {
	var opts sample.Options
	var output string
	cmd := &cobra.Command{
		Use:   "sample-csv",
		Short: "Write a sample statement CSV for trying out uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.Seed = uint64(time.Now().UnixNano())
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				if err := service.CheckFile(output); err != nil {
					return fmt.Errorf("%s: %s", output, service.InlineMessage(err))
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return sample.Statement(w, opts)
		},
	}
	cmd.Flags().IntVar(&opts.Rows, "rows", 20, "number of data rows")
	cmd.Flags().StringVar(&opts.Currency, "currency", "USD", "currency code for every row")
	cmd.Flags().IntVar(&opts.Days, "days", 10, "spread effective dates over this many days")
	cmd.Flags().IntVar(&opts.Invalid, "invalid", 0, "number of rows with an unparseable amount")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this .csv file instead of stdout")
	return cmd
}
