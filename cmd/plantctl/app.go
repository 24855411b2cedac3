package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/agrinos/plantclassifier/api"
	"github.com/agrinos/plantclassifier/auth"
	"github.com/agrinos/plantclassifier/internal/config"
	"github.com/agrinos/plantclassifier/internal/logging"
	"github.com/agrinos/plantclassifier/session"
	"github.com/agrinos/plantclassifier/session/filestore"
	"github.com/agrinos/plantclassifier/session/redisstore"
	"github.com/agrinos/plantclassifier/session/storefake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app bundles the client side wiring every command needs.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	client   *api.Client
	service  *auth.Service
	registry *prometheus.Registry
	closeFn  func() error
}

func (a *app) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

// commonFlags are accepted by every command.
type commonFlags struct {
	apiURL  string
	metrics bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.apiURL, "api", "", "API base URL (defaults to API_URL)")
	fs.BoolVar(&cf.metrics, "metrics", false, "Print client request and refresh counters to stderr on exit")
	return cf
}

func newApp(apiOverride string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(os.Stderr, cfg.IsDev(), cfg.GetLogLevel())

	baseURL := api.ResolveBaseURL(firstNonEmpty(apiOverride, cfg.GetAPIURL()))
	store, closeFn, err := openStore(cfg, baseURL, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	client, err := api.New(baseURL, store,
		api.WithTimeout(cfg.GetHTTPTimeout()),
		api.WithLogger(logger),
		api.WithMetrics(api.NewMetrics(registry)),
	)
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, err
	}

	service := auth.NewService(client, store,
		auth.WithLogger(logger),
		auth.WithDevFallback(cfg.IsDev() && cfg.GetDevFallback()),
	)
	return &app{cfg: cfg, log: logger, client: client, service: service, registry: registry, closeFn: closeFn}, nil
}

// writeMetrics dumps the client counters in the Prometheus text format.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// openStore picks the session backend named in the configuration. The
// returned close function is nil when the backend holds no resources.
func openStore(cfg config.SessionConfig, baseURL string, logger zerolog.Logger) (session.Store, func() error, error) {
	switch cfg.GetSessionBackend() {
	case config.SessionBackendMemory:
		return storefake.NewFakeStore(), nil, nil
	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.GetSessionRedisAddr(),
			Password: cfg.GetSessionRedisPassword(),
			DB:       cfg.GetSessionRedisDB(),
		})
		store := redisstore.New(rdb, baseURL,
			redisstore.WithTTL(cfg.GetSessionTTL()),
			redisstore.WithLogger(logger),
		)
		return store, rdb.Close, nil
	default:
		dir := firstNonEmpty(cfg.GetSessionDir(), filestore.DefaultDir())
		store, err := filestore.New(dir, baseURL, filestore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// callbackQuery extracts the query of an OAuth redirect. It accepts a full
// redirect URL or a bare query string.
func callbackQuery(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("redirect URL is required")
	}
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redirect query: %w", err)
	}
	return values, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func withApp(flags *commonFlags, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(flags.apiURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Debug().Err(err).Msg("close session backend")
		}
	}()

	err = fn(context.Background(), a)
	if flags.metrics {
		if mErr := writeMetrics(os.Stderr, a.registry); mErr != nil {
			a.log.Warn().Err(mErr).Msg("failed to print metrics")
		}
	}
	return err
}
