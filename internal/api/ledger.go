package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jask/recondesk/internal/domain"
)

// -----------------------------------------------------------------------------
// Recon rules
// -----------------------------------------------------------------------------

func (c *Client) ListRules(ctx context.Context, merchantID string) ([]domain.ReconRule, error) {
	var out []domain.ReconRule
	if err := c.doJSON(ctx, "list rules", http.MethodGet, c.endpoint("merchants", merchantID, "recon-rules"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRule(ctx context.Context, merchantID string, in domain.RuleInput) (domain.ReconRule, error) {
	var out domain.ReconRule
	err := c.doJSON(ctx, "create rule", http.MethodPost, c.endpoint("merchants", merchantID, "recon-rules"), in, &out)
	return out, err
}

func (c *Client) DeleteRule(ctx context.Context, merchantID, ruleID string) error {
	return c.doJSON(ctx, "delete rule", http.MethodDelete, c.endpoint("merchants", merchantID, "recon-rules", ruleID), nil, nil)
}

// -----------------------------------------------------------------------------
// Entries
// -----------------------------------------------------------------------------

func (c *Client) ListStagingEntries(ctx context.Context, accountID string) ([]domain.StagingEntry, error) {
	var out []domain.StagingEntry
	if err := c.doJSON(ctx, "list staging entries", http.MethodGet, c.endpoint("accounts", accountID, "staging-entries"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAccountEntries(ctx context.Context, accountID string) ([]domain.AccountEntry, error) {
	var out []domain.AccountEntry
	if err := c.doJSON(ctx, "list entries", http.MethodGet, c.endpoint("accounts", accountID, "entries"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadFile posts a CSV as multipart form data with fields file and processing_mode.
func (c *Client) UploadFile(ctx context.Context, accountID string, mode domain.ProcessingMode, fileName string, r io.Reader) (domain.UploadResponse, error) {
	const op = "upload file"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return domain.UploadResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.UploadResponse{}, fmt.Errorf("%s: read file: %w", op, err)
	}
	if err := mw.WriteField("processing_mode", string(mode)); err != nil {
		return domain.UploadResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return domain.UploadResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var out domain.UploadResponse
	path := c.endpoint("accounts", accountID, "staging-entries", "files")
	if err := c.send(ctx, op, http.MethodPost, path, mw.FormDataContentType(), &buf, &out); err != nil {
		return domain.UploadResponse{}, err
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Recon engine & transactions
// -----------------------------------------------------------------------------

// TriggerRecon runs the server-side batch under the long trigger budget, which
// is also passed to the server as timeoutMs.
func (c *Client) TriggerRecon(ctx context.Context) (domain.TriggerResult, error) {
	budget := c.opts.TriggerTimeout
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	body := struct {
		TimeoutMs int64 `json:"timeoutMs"`
	}{TimeoutMs: budget.Milliseconds()}

	var out domain.TriggerResult
	buf, err := jsonBody(body)
	if err != nil {
		return out, fmt.Errorf("trigger recon: %w", err)
	}
	err = c.send(ctx, "trigger recon", http.MethodPost, c.endpoint("recon-engine", "trigger"), "application/json", buf, &out)
	return out, err
}

func (c *Client) ListTransactions(ctx context.Context, merchantID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	if err := c.doJSON(ctx, "list transactions", http.MethodGet, c.endpoint("merchants", merchantID, "transactions"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
