package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/poller"
)

func newEntriesCmd(flags *globalFlags) *cobra.Command {
	var merchant string
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Follow an account's staging and ledger entries",
	}
	merchantFlag(cmd, &merchant)

	var account string
	var interval time.Duration
	var once bool
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Poll an account and print a line whenever its entries change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cliRuntime(cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			m, err := rt.useMerchant(ctx, merchant)
			if err != nil {
				return err
			}
			accounts, err := rt.dir.Accounts(ctx)
			if err != nil {
				return err
			}
			acct, err := findAccount(accounts, account)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = rt.cfg.Poll.Interval
			}

			sync := poller.New(rt.client, poller.Options{Interval: interval, Logger: rt.log, Metrics: rt.poll})
			defer sync.Stop()
			sync.Select(m.ID, acct.ID)
			rt.log.Debug().Str("account", acct.Name).Dur("interval", interval).Msg("watching entries")

			out := cmd.OutOrStdout()
			last := ""
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-sync.Changes():
				}
				snap := sync.Snapshot()
				if !snap.StagingLoaded || !snap.EntriesLoaded {
					continue
				}
				if once {
					return printEntries(out, snap, rt.cfg.UI.DateFormat)
				}
				line := entrySummary(snap)
				if line == last {
					continue
				}
				last = line
				fmt.Fprintf(out, "%s  %s\n", snap.UpdatedAt.Local().Format(time.TimeOnly), line)
			}
		},
	}
	watch.Flags().StringVarP(&account, "account", "a", "", "account id or name")
	watch.Flags().DurationVar(&interval, "interval", 0, "poll interval (default poll.interval)")
	watch.Flags().BoolVar(&once, "once", false, "print both entry tables after the first load and exit")
	_ = watch.MarkFlagRequired("account")

	cmd.AddCommand(watch)
	return cmd
}

func entrySummary(snap poller.Snapshot) string {
	staging := make([]string, len(snap.Staging))
	for i, e := range snap.Staging {
		staging[i] = e.Status
	}
	ledger := make([]string, len(snap.Entries))
	for i, e := range snap.Entries {
		ledger[i] = e.Status
	}
	return fmt.Sprintf("staging %d [%s]  ledger %d [%s]",
		len(staging), statusCounts(staging), len(ledger), statusCounts(ledger))
}

// statusCounts renders "Label n" pairs in status order.
func statusCounts(statuses []string) string {
	counts := map[string]int{}
	for _, s := range statuses {
		counts[s]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", domain.StatusLabel(k), counts[k])
	}
	return strings.Join(parts, ", ")
}

func printEntries(out io.Writer, snap poller.Snapshot, layout string) error {
	fmt.Fprintln(out, "Staging")
	w := newTable(out)
	row(w, "ID", "TYPE", "AMOUNT", "STATUS", "EFFECTIVE", "CREATED")
	for _, e := range snap.Staging {
		row(w, e.ID, string(e.EntryType), e.Amount.StringFixed(2)+" "+e.Currency,
			domain.StatusLabel(e.Status), e.EffectiveDate, domain.FormatTime(e.CreatedAt, layout))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nLedger")
	w = newTable(out)
	row(w, "ID", "TYPE", "AMOUNT", "STATUS", "RECON", "ORDER", "CREATED")
	for _, e := range snap.Entries {
		row(w, e.ID, string(e.EntryType), e.Amount.StringFixed(2)+" "+e.Currency,
			domain.StatusLabel(e.Status), domain.StatusLabel(e.ReconStatus()), e.Metadata.OrderID(),
			domain.FormatTime(e.CreatedAt, layout))
	}
	return w.Flush()
}
