package poller

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jask/recondesk/internal/domain"
)

// DefaultInterval is the refresh period of both feeds.
const DefaultInterval = time.Second

// Fetcher reads the two entry feeds of an account. *api.Client satisfies it.
type Fetcher interface {
	ListStagingEntries(ctx context.Context, accountID string) ([]domain.StagingEntry, error)
	ListAccountEntries(ctx context.Context, accountID string) ([]domain.AccountEntry, error)
}

type feed string

const (
	feedStaging feed = "staging"
	feedLedger  feed = "ledger"
)

// Metrics counts poll ticks. One instance can be shared by many synchronizers.
type Metrics struct {
	ticks *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{ticks: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recondesk_poll_ticks_total",
			Help: "Entry poll ticks by feed and result",
		},
		[]string{"feed", "result"},
	)}
	if reg != nil {
		reg.MustRegister(m.ticks)
	}
	return m
}

func (m *Metrics) tick(f feed, result string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(string(f), result).Inc()
}

type Options struct {
	Interval time.Duration
	Logger   zerolog.Logger
	Metrics  *Metrics
}

// Snapshot is a consistent copy of the synchronizer state.
type Snapshot struct {
	MerchantID string
	AccountID  string
	Staging    []domain.StagingEntry
	Entries    []domain.AccountEntry
	// Loaded reports whether each feed has applied a response for the current account.
	StagingLoaded bool
	EntriesLoaded bool
	UpdatedAt     time.Time
}

// Synchronizer keeps the staging and ledger entries of one selected account
// fresh. Each feed has its own loop: an immediate fetch, then one per
// interval. A response is applied only while its account is still selected.
type Synchronizer struct {
	fetch    Fetcher
	interval time.Duration
	log      zerolog.Logger
	metrics  *Metrics

	mu            sync.Mutex
	gen           uint64
	merchantID    string
	accountID     string
	staging       []domain.StagingEntry
	entries       []domain.AccountEntry
	stagingLoaded bool
	entriesLoaded bool
	updatedAt     time.Time
	cancel        context.CancelFunc
	stopped       bool

	wg      sync.WaitGroup
	changes chan struct{}
}

func New(fetch Fetcher, opts Options) *Synchronizer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Synchronizer{
		fetch:    fetch,
		interval: opts.Interval,
		log:      opts.Logger.With().Str("component", "poller").Logger(),
		metrics:  opts.Metrics,
		changes:  make(chan struct{}, 1),
	}
}

// Changes delivers a signal after each state change. Signals coalesce: a
// reader that falls behind sees one pending signal, not a backlog.
func (s *Synchronizer) Changes() <-chan struct{} { return s.changes }

func (s *Synchronizer) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Select switches to an account. Both collections are cleared before it
// returns; loops for the previous account are cancelled and, when both ids
// are set, new loops start.
func (s *Synchronizer) Select(merchantID, accountID string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if merchantID == s.merchantID && accountID == s.accountID && (s.cancel != nil || accountID == "" || merchantID == "") {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.merchantID, s.accountID = merchantID, accountID
	s.staging, s.entries = nil, nil
	s.stagingLoaded, s.entriesLoaded = false, false
	s.updatedAt = time.Time{}

	if merchantID != "" && accountID != "" {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.wg.Add(2)
		go s.loop(ctx, gen, accountID, feedStaging)
		go s.loop(ctx, gen, accountID, feedLedger)
	}
	s.mu.Unlock()

	s.log.Debug().Str("merchant_id", merchantID).Str("account_id", accountID).Uint64("generation", gen).Msg("selection changed")
	s.signal()
}

// FollowMerchant resets the account when the merchant changes. It is meant
// to be registered with the merchant directory's Watch.
func (s *Synchronizer) FollowMerchant(merchantID string) {
	s.mu.Lock()
	same := s.merchantID == merchantID
	s.mu.Unlock()
	if same {
		return
	}
	s.Select(merchantID, "")
}

// Refresh fetches both feeds once, outside the ticker cadence.
func (s *Synchronizer) Refresh(ctx context.Context) {
	s.mu.Lock()
	gen, accountID, active := s.gen, s.accountID, s.cancel != nil
	s.mu.Unlock()
	if !active {
		return
	}
	s.tick(ctx, gen, accountID, feedStaging)
	s.tick(ctx, gen, accountID, feedLedger)
}

// Stop cancels any loops and waits for them to exit. The synchronizer is
// unusable afterwards.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Synchronizer) loop(ctx context.Context, gen uint64, accountID string, f feed) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		s.tick(ctx, gen, accountID, f)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Synchronizer) tick(ctx context.Context, gen uint64, accountID string, f feed) {
	if !s.current(gen) {
		return
	}
	var (
		staging []domain.StagingEntry
		entries []domain.AccountEntry
		err     error
	)
	switch f {
	case feedStaging:
		staging, err = s.fetch.ListStagingEntries(ctx, accountID)
	case feedLedger:
		entries, err = s.fetch.ListAccountEntries(ctx, accountID)
	}
	if err != nil {
		if ctx.Err() != nil {
			s.metrics.tick(f, "cancelled")
			return
		}
		s.metrics.tick(f, "error")
		s.log.Warn().Err(err).Str("feed", string(f)).Str("account_id", accountID).Msg("poll failed")
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.metrics.tick(f, "stale")
		return
	}
	switch f {
	case feedStaging:
		s.staging, s.stagingLoaded = staging, true
	case feedLedger:
		s.entries, s.entriesLoaded = entries, true
	}
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.metrics.tick(f, "ok")
	s.signal()
}

func (s *Synchronizer) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

func (s *Synchronizer) Selection() (merchantID, accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merchantID, s.accountID
}

// Active reports whether loops are running.
func (s *Synchronizer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Synchronizer) Staging() []domain.StagingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StagingEntry(nil), s.staging...)
}

func (s *Synchronizer) Entries() []domain.AccountEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AccountEntry(nil), s.entries...)
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		MerchantID:    s.merchantID,
		AccountID:     s.accountID,
		Staging:       append([]domain.StagingEntry(nil), s.staging...),
		Entries:       append([]domain.AccountEntry(nil), s.entries...),
		StagingLoaded: s.stagingLoaded,
		EntriesLoaded: s.entriesLoaded,
		UpdatedAt:     s.updatedAt,
	}
}
