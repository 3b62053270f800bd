package api

import (
	"context"
	"net/http"

	"github.com/jask/recondesk/internal/domain"
)

// -----------------------------------------------------------------------------
// Merchants
// -----------------------------------------------------------------------------

func (c *Client) ListMerchants(ctx context.Context) ([]domain.Merchant, error) {
	var out []domain.Merchant
	if err := c.doJSON(ctx, "list merchants", http.MethodGet, c.endpoint("merchants"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMerchant(ctx context.Context, in domain.MerchantInput) (domain.Merchant, error) {
	var out domain.Merchant
	err := c.doJSON(ctx, "create merchant", http.MethodPost, c.endpoint("merchants"), in, &out)
	return out, err
}

func (c *Client) UpdateMerchant(ctx context.Context, id string, in domain.MerchantInput) (domain.Merchant, error) {
	var out domain.Merchant
	err := c.doJSON(ctx, "update merchant", http.MethodPut, c.endpoint("merchants", id), in, &out)
	return out, err
}

func (c *Client) DeleteMerchant(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete merchant", http.MethodDelete, c.endpoint("merchants", id), nil, nil)
}

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

func (c *Client) ListAccounts(ctx context.Context, merchantID string) ([]domain.Account, error) {
	var out []domain.Account
	if err := c.doJSON(ctx, "list accounts", http.MethodGet, c.endpoint("merchants", merchantID, "accounts"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, merchantID string, in domain.AccountInput) (domain.Account, error) {
	var out domain.Account
	err := c.doJSON(ctx, "create account", http.MethodPost, c.endpoint("merchants", merchantID, "accounts"), in, &out)
	return out, err
}

func (c *Client) UpdateAccount(ctx context.Context, merchantID, accountID string, in domain.AccountUpdate) (domain.Account, error) {
	var out domain.Account
	err := c.doJSON(ctx, "update account", http.MethodPut, c.endpoint("merchants", merchantID, "accounts", accountID), in, &out)
	return out, err
}

func (c *Client) DeleteAccount(ctx context.Context, merchantID, accountID string) error {
	return c.doJSON(ctx, "delete account", http.MethodDelete, c.endpoint("merchants", merchantID, "accounts", accountID), nil, nil)
}
