package service

import (
	"context"
	"fmt"

	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
)

type TransactionBackend interface {
	ListTransactions(ctx context.Context, merchantID string) ([]domain.Transaction, error)
}

// TransactionBrowser lists a merchant's logical transactions with their
// versions ordered newest first.
type TransactionBrowser struct {
	Backend TransactionBackend
}

func (b *TransactionBrowser) List(ctx context.Context, merchantID string) ([]domain.Transaction, error) {
	if merchantID == "" {
		return nil, directory.ErrNoMerchantSelected
	}
	txs, err := b.Backend.ListTransactions(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	for i := range txs {
		txs[i].Versions = txs[i].SortedVersions()
	}
	return txs, nil
}

// Find returns the transaction with the given logical id.
func Find(txs []domain.Transaction, logicalID string) (domain.Transaction, bool) {
	for _, tx := range txs {
		if tx.LogicalTransactionID == logicalID {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}
