package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
)

// ErrEngine marks a trigger call that returned 2xx with an error in its body.
var ErrEngine = errors.New("recon engine error")

// EngineError carries the engine's own error text.
type EngineError struct {
	Message string
	Result  domain.TriggerResult
}

func (e *EngineError) Error() string { return "recon engine: " + e.Message }
func (e *EngineError) Unwrap() error { return ErrEngine }

type TriggerBackend interface {
	TriggerRecon(ctx context.Context) (domain.TriggerResult, error)
}

// Reconciler runs the server-side matching batch.
type Reconciler struct {
	Backend TriggerBackend
}

// Trigger requires a selected merchant, although the batch itself is global.
func (r *Reconciler) Trigger(ctx context.Context, merchantID string) (domain.TriggerResult, error) {
	if merchantID == "" {
		return domain.TriggerResult{}, directory.ErrNoMerchantSelected
	}
	res, err := r.Backend.TriggerRecon(ctx)
	if err != nil {
		return domain.TriggerResult{}, fmt.Errorf("trigger recon: %w", err)
	}
	if res.Error != "" {
		return res, &EngineError{Message: res.Error, Result: res}
	}
	return res, nil
}

// TriggerNotice is the notification for a trigger attempt.
func TriggerNotice(res domain.TriggerResult, err error) Notice {
	var engErr *EngineError
	switch {
	case err == nil:
		return Notice{
			Level: Success,
			Title: "Recon Engine Completed",
			Detail: fmt.Sprintf("Processed: %d, Succeeded: %d, Failed: %d, Duration: %dms",
				res.Processed, res.Succeeded, res.Failed, res.Duration),
		}
	case errors.As(err, &engErr):
		return Notice{Level: Failure, Title: "Recon Engine Error", Detail: engErr.Message}
	case errors.Is(err, directory.ErrNoMerchantSelected):
		return Notice{Level: Failure, Title: "Error", Detail: "Please select a merchant first"}
	default:
		return FailureNotice("Error", err)
	}
}
