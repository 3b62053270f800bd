package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/recondesk/internal/domain"
)

// Header is the column layout of a generated statement.
var Header = []string{"order_id", "entry_type", "amount", "currency", "effective_date", "description"}

var descriptions = []string{"CARD SETTLEMENT", "PAYOUT", "REFUND", "CHARGEBACK", "TRANSFER", "FEE ADJUSTMENT"}

// Options configures Statement.
type Options struct {
	Rows     int
	Currency string
	Days     int // effective dates fall within the last Days days
	Seed     uint64
	Now      time.Time
	// Invalid rows get an unparseable amount, for exercising partial uploads.
	Invalid int
}

// Statement writes a sample bank statement CSV. The same seed produces the
// same file, apart from the order ids.
func Statement(w io.Writer, opts Options) error {
	if opts.Rows <= 0 {
		opts.Rows = 20
	}
	if opts.Days <= 0 {
		opts.Days = 10
	}
	opts.Currency = strings.ToUpper(strings.TrimSpace(opts.Currency))
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < opts.Rows; i++ {
		kind := domain.Debit
		if rng.IntN(3) == 0 {
			kind = domain.Credit
		}
		amount := decimal.New(int64(rng.IntN(20000)+500), -2).StringFixed(2)
		if i < opts.Invalid {
			amount = "n/a"
		}
		date := opts.Now.AddDate(0, 0, -rng.IntN(opts.Days)).Format(time.DateOnly)
		rec := []string{
			"ord_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
			string(kind),
			amount,
			opts.Currency,
			date,
			descriptions[rng.IntN(len(descriptions))],
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
