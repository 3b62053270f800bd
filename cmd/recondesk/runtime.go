package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jask/recondesk/internal/api"
	"github.com/jask/recondesk/internal/config"
	"github.com/jask/recondesk/internal/database"
	"github.com/jask/recondesk/internal/database/repository"
	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/logging"
	"github.com/jask/recondesk/internal/poller"
	"github.com/jask/recondesk/internal/service"
	"github.com/jask/recondesk/internal/tui"
)

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.LoadFile(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.apiURL != "" {
		cfg.API.BaseURL = flags.apiURL
	}
	if flags.logLevel != "" {
		if _, err := logging.ParseLevel(flags.logLevel); err != nil {
			return config.Config{}, err
		}
		cfg.Log.Level = flags.logLevel
	}
	if flags.metricsAddr != "" {
		cfg.Metrics.Addr = flags.metricsAddr
	}
	return cfg, cfg.Validate()
}

// runtime holds what every command shares: the API client, the merchant
// directory, the metrics registry and, once opened, the local store.
type runtime struct {
	cfg     config.Config
	log     zerolog.Logger
	reg     *prometheus.Registry
	client  *api.Client
	dir     *directory.Directory
	rules   *service.RuleBook
	poll    *poller.Metrics
	store   *store
	metrics *http.Server
}

type store struct {
	db      *sql.DB
	prefs   *repository.PreferenceRepo
	uploads *repository.UploadRepo
}

func newRuntime(cfg config.Config, log zerolog.Logger) (*runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := api.OptionsFromConfig(cfg.API)
	opts.Logger = log
	opts.Registerer = reg
	client, err := api.New(opts)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:    cfg,
		log:    log,
		reg:    reg,
		client: client,
		dir:    directory.New(client, log),
		rules:  service.NewRuleBook(client),
		poll:   poller.NewMetrics(reg),
	}
	if cfg.Metrics.Addr != "" {
		rt.serveMetrics(cfg.Metrics.Addr)
	}
	return rt, nil
}

func (rt *runtime) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.reg, promhttp.HandlerOpts{Registry: rt.reg}))
	rt.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := rt.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	rt.log.Info().Str("addr", addr).Msg("serving metrics")
}

// Store opens the local sqlite store on first use.
func (rt *runtime) Store(ctx context.Context) (*store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	db, err := database.OpenMigrated(rt.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.SeedDefaults(ctx, db, rt.cfg.UI.Theme); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	rt.store = &store{
		db:      db,
		prefs:   repository.NewPreferenceRepo(db),
		uploads: repository.NewUploadRepo(db),
	}
	return rt.store, nil
}

func (rt *runtime) uploader() *service.Uploader {
	u := &service.Uploader{Backend: rt.client, Log: rt.log}
	if rt.store != nil {
		u.History = rt.store.uploads
	}
	return u
}

func (rt *runtime) services() tui.Services {
	s := tui.Services{
		Directory:    rt.dir,
		Rules:        rt.rules,
		Uploader:     rt.uploader(),
		Reconciler:   &service.Reconciler{Backend: rt.client},
		Transactions: &service.TransactionBrowser{Backend: rt.client},
		Entries:      rt.client,
		PollMetrics:  rt.poll,
	}
	if rt.store != nil {
		s.Uploads = rt.store.uploads
	}
	return s
}

func (rt *runtime) Close() {
	if rt.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rt.metrics.Shutdown(ctx)
	}
	if rt.store != nil {
		_ = rt.store.db.Close()
	}
}

// -----------------------------------------------------------------------------
// Subcommand helpers
// -----------------------------------------------------------------------------

// cliRuntime builds the runtime for a scripted subcommand, logging to stderr.
func cliRuntime(cmd *cobra.Command, flags *globalFlags) (*runtime, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg, logging.Console(cfg.Log.Level))
}

// useMerchant refreshes the directory and selects the merchant named by ref,
// which may be an ID or a name.
func (rt *runtime) useMerchant(ctx context.Context, ref string) (domain.Merchant, error) {
	list, err := rt.dir.Refresh(ctx)
	if err != nil {
		return domain.Merchant{}, err
	}
	m, err := findMerchant(list, ref)
	if err != nil {
		return domain.Merchant{}, err
	}
	rt.dir.Select(m.ID)
	return m, nil
}

func findMerchant(list []domain.Merchant, ref string) (domain.Merchant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Merchant{}, errors.New("a merchant is required (--merchant)")
	}
	for _, m := range list {
		if m.ID == ref {
			return m, nil
		}
	}
	var found []domain.Merchant
	for _, m := range list {
		if strings.EqualFold(m.Name, ref) || (m.Code != "" && strings.EqualFold(m.Code, ref)) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return domain.Merchant{}, fmt.Errorf("no merchant %q", ref)
	default:
		return domain.Merchant{}, fmt.Errorf("merchant name %q is ambiguous, use the id", ref)
	}
}

func findAccount(list []domain.Account, ref string) (domain.Account, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Account{}, errors.New("an account is required")
	}
	for _, a := range list {
		if a.ID == ref {
			return a, nil
		}
	}
	var found []domain.Account
	for _, a := range list {
		if strings.EqualFold(a.Name, ref) {
			found = append(found, a)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return domain.Account{}, fmt.Errorf("no account %q", ref)
	default:
		return domain.Account{}, fmt.Errorf("account name %q is ambiguous, use the id", ref)
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func row(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func printNotice(w io.Writer, n service.Notice) {
	if n.Detail == "" {
		fmt.Fprintln(w, n.Title)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", n.Title, n.Detail)
}
