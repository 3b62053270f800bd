package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
)

var (
	ErrMissingAccount = errors.New("both accounts are required")
	ErrSameAccount    = errors.New("source and target accounts must differ")
	ErrDuplicateRule  = errors.New("rule for this account pair already exists")
)

// RuleBackend is the rule slice of the API.
type RuleBackend interface {
	ListRules(ctx context.Context, merchantID string) ([]domain.ReconRule, error)
	CreateRule(ctx context.Context, merchantID string, in domain.RuleInput) (domain.ReconRule, error)
	DeleteRule(ctx context.Context, merchantID, ruleID string) error
}

// RuleBook caches the rules of one merchant. The duplicate check runs
// against this cache, so the server stays the authority on uniqueness.
type RuleBook struct {
	backend RuleBackend

	mu         sync.RWMutex
	merchantID string
	rules      []domain.ReconRule
}

func NewRuleBook(backend RuleBackend) *RuleBook {
	return &RuleBook{backend: backend}
}

// Load replaces the cache with the merchant's rules.
func (b *RuleBook) Load(ctx context.Context, merchantID string) ([]domain.ReconRule, error) {
	if merchantID == "" {
		b.Reset()
		return nil, directory.ErrNoMerchantSelected
	}
	rules, err := b.backend.ListRules(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	b.mu.Lock()
	b.merchantID = merchantID
	b.rules = append([]domain.ReconRule(nil), rules...)
	b.mu.Unlock()
	return rules, nil
}

// Reset drops the cache, e.g. after the merchant changed.
func (b *RuleBook) Reset() {
	b.mu.Lock()
	b.merchantID, b.rules = "", nil
	b.mu.Unlock()
}

func (b *RuleBook) Rules() []domain.ReconRule {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.ReconRule(nil), b.rules...)
}

// Check validates a prospective rule without touching the network.
func (b *RuleBook) Check(merchantID, one, two string) error {
	one, two = strings.TrimSpace(one), strings.TrimSpace(two)
	if merchantID == "" {
		return directory.ErrNoMerchantSelected
	}
	if one == "" || two == "" {
		return ErrMissingAccount
	}
	if one == two {
		return ErrSameAccount
	}
	key := domain.PairKey(one, two)
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.merchantID != merchantID {
		return nil
	}
	for _, r := range b.rules {
		if r.PairKey() == key {
			return ErrDuplicateRule
		}
	}
	return nil
}

// Create checks the pair, then creates the rule and appends it to the cache.
func (b *RuleBook) Create(ctx context.Context, merchantID, one, two string) (domain.ReconRule, error) {
	if err := b.Check(merchantID, one, two); err != nil {
		return domain.ReconRule{}, err
	}
	in := domain.RuleInput{AccountOneID: strings.TrimSpace(one), AccountTwoID: strings.TrimSpace(two)}
	rule, err := b.backend.CreateRule(ctx, merchantID, in)
	if err != nil {
		return domain.ReconRule{}, fmt.Errorf("create rule: %w", err)
	}
	if rule.AccountOneID == "" && rule.AccountTwoID == "" {
		rule.AccountOneID, rule.AccountTwoID = in.AccountOneID, in.AccountTwoID
	}

	b.mu.Lock()
	if b.merchantID == merchantID {
		b.rules = append(b.rules, rule)
	}
	b.mu.Unlock()
	return rule, nil
}

// Delete removes the rule on the server, then from the cache.
func (b *RuleBook) Delete(ctx context.Context, merchantID, ruleID string) error {
	if merchantID == "" {
		return directory.ErrNoMerchantSelected
	}
	if err := b.backend.DeleteRule(ctx, merchantID, ruleID); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	b.mu.Lock()
	kept := b.rules[:0]
	for _, r := range b.rules {
		if r.ID != ruleID {
			kept = append(kept, r)
		}
	}
	b.rules = kept
	b.mu.Unlock()
	return nil
}
