package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/recondesk/internal/api"
	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
)

type fakeTrigger struct {
	calls int
	res   domain.TriggerResult
	err   error
}

func (f *fakeTrigger) TriggerRecon(ctx context.Context) (domain.TriggerResult, error) {
	f.calls++
	return f.res, f.err
}

func TestTriggerRequiresMerchant(t *testing.T) {
	t.Parallel()

	backend := &fakeTrigger{}
	r := &Reconciler{Backend: backend}
	_, err := r.Trigger(context.Background(), "")
	require.ErrorIs(t, err, directory.ErrNoMerchantSelected)
	require.Zero(t, backend.calls)
	require.Equal(t, "Please select a merchant first", TriggerNotice(domain.TriggerResult{}, err).Detail)
}

func TestTriggerNotices(t *testing.T) {
	t.Parallel()

	r := &Reconciler{Backend: &fakeTrigger{res: domain.TriggerResult{Processed: 10, Succeeded: 8, Failed: 2, Duration: 1500}}}
	res, err := r.Trigger(context.Background(), "m1")
	require.NoError(t, err)
	n := TriggerNotice(res, err)
	require.Equal(t, "Recon Engine Completed", n.Title)
	require.Equal(t, "Processed: 10, Succeeded: 8, Failed: 2, Duration: 1500ms", n.Detail)

	r = &Reconciler{Backend: &fakeTrigger{res: domain.TriggerResult{Error: "lock held"}}}
	res, err = r.Trigger(context.Background(), "m1")
	require.ErrorIs(t, err, ErrEngine)
	n = TriggerNotice(res, err)
	require.Equal(t, "Recon Engine Error", n.Title)
	require.Equal(t, "lock held", n.Detail)

	r = &Reconciler{Backend: &fakeTrigger{err: &api.Error{StatusCode: 500, Message: "engine crashed"}}}
	_, err = r.Trigger(context.Background(), "m1")
	n = TriggerNotice(domain.TriggerResult{}, err)
	require.Equal(t, Failure, n.Level)
	require.Equal(t, "engine crashed", n.Detail)
	require.False(t, errors.Is(err, ErrEngine))
}
