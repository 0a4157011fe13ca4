package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec/sources"
	"github.com/dd0wney/cluso-anatomy/pkg/config"
	"github.com/dd0wney/cluso-anatomy/pkg/graphql"
	"github.com/dd0wney/cluso-anatomy/pkg/health"
	"github.com/dd0wney/cluso-anatomy/pkg/logging"
	"github.com/dd0wney/cluso-anatomy/pkg/metrics"
	"github.com/dd0wney/cluso-anatomy/pkg/templates"
	anatomytls "github.com/dd0wney/cluso-anatomy/pkg/tls"
)

const shutdownTimeout = 30 * time.Second

func runServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (ANATOMY_* variables override it)")
	listen := fs.String("listen", "", "Override the listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	level, err := logging.ParseLevelStrict(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)
	logging.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.close()

	return srv.run(ctx)
}

// server wires the template source, cache and HTTP surface together.
type server struct {
	cfg     *config.Config
	logger  logging.Logger
	source  sources.Source
	cache   *templates.Cache
	metrics *metrics.Registry
	health  *health.HealthChecker
	http    *http.Server
	started time.Time

	warmDone   atomic.Bool
	warmFailed atomic.Int32
}

func newServer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*server, error) {
	tlsConfig, err := anatomytls.LoadTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}

	src, err := sources.Open(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}
	logger.Info("template source opened", logging.String("driver", string(cfg.Source.Driver)))

	registry := metrics.DefaultRegistry()
	cache := templates.New(templates.SourceBuilder(src),
		templates.WithMaxEntries(cfg.Cache.MaxEntries),
		templates.WithMaxAge(cfg.Cache.MaxAge),
		templates.WithErrorTTL(cfg.Cache.ErrorTTL),
		templates.WithLogger(logger),
		templates.WithMetrics(registry),
	)

	schema, err := graphql.GenerateSchema(cache)
	if err != nil {
		return nil, err
	}

	s := &server{
		cfg:     cfg,
		logger:  logger,
		source:  src,
		cache:   cache,
		metrics: registry,
		health:  health.NewHealthChecker(),
		started: time.Now(),
	}
	s.registerChecks()

	mux := http.NewServeMux()
	mux.Handle("/graphql", graphql.NewGraphQLHandler(schema,
		graphql.WithMaxDepth(cfg.GraphQL.MaxDepth),
		graphql.WithTimeout(cfg.GraphQL.Timeout),
		graphql.WithLimits(graphql.LimitConfig{
			DefaultHops: graphql.DefaultHops,
			MaxHops:     cfg.GraphQL.MaxHops,
		}),
		graphql.WithMaxBodyBytes(cfg.GraphQL.MaxBodyBytes),
		graphql.WithHandlerLogger(logger),
		graphql.WithHandlerMetrics(registry),
	))
	mux.Handle("/metrics", registry.Handler())
	mux.Handle("/health", s.health.HTTPHandler())
	mux.Handle("/ready", s.health.ReadinessHandler())
	mux.Handle("/live", s.health.LivenessHandler())

	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           instrument(mux, registry),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         tlsConfig,
	}
	return s, nil
}

func (s *server) registerChecks() {
	s.health.RegisterLivenessCheck("process", health.SimpleCheck("process"))
	s.health.RegisterReadinessCheck("warm", health.WarmCheck(func() (bool, int) {
		return s.warmDone.Load(), int(s.warmFailed.Load())
	}))
	s.health.RegisterCheck("template_cache", health.CacheCheck(s.cache.Stats))
	s.health.RegisterCheck("memory", health.MemoryCheck(health.RuntimeMemory))
	if p, ok := s.source.(interface{ Ping(context.Context) error }); ok {
		s.health.RegisterCheck("source", health.SourceCheck(p.Ping))
	}
}

func (s *server) run(ctx context.Context) error {
	go s.warm(ctx)
	go s.reportSystemMetrics(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			logging.String("listen", s.cfg.Listen),
			logging.Bool("tls", s.http.TLSConfig != nil))
		var err error
		if s.http.TLSConfig != nil {
			// Certificates come from TLSConfig
			err = s.http.ListenAndServeTLS("", "")
		} else {
			err = s.http.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exited")
	return nil
}

// warm builds the configured templates and marks the server ready.
func (s *server) warm(ctx context.Context) {
	defer s.warmDone.Store(true)

	keys, all, err := s.cfg.WarmKeys()
	if err != nil {
		s.logger.Error("invalid warm keys", logging.Error(err))
		return
	}
	if all {
		if keys, err = s.source.List(ctx); err != nil {
			s.logger.Error("failed to list templates", logging.Error(err))
			return
		}
	}
	if len(keys) == 0 {
		return
	}

	if err := s.cache.Warm(ctx, keys, s.cfg.Cache.WarmWorkers); err != nil {
		s.warmFailed.Store(int32(countFailed(s.cache, keys)))
		s.logger.Warn("template warm-up incomplete", logging.Error(err))
	}
}

// countFailed counts keys that did not make it into the cache. It reads the
// index through Keys so the check does not register as cache hits.
func countFailed(cache *templates.Cache, keys []anatomyspec.Key) int {
	cached := make(map[anatomyspec.Key]struct{})
	for _, key := range cache.Keys() {
		cached[key] = struct{}{}
	}

	failed := 0
	for _, key := range keys {
		if _, ok := cached[key]; !ok {
			failed++
		}
	}
	return failed
}

func (s *server) reportSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	s.metrics.UpdateSystemMetrics(s.started)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UpdateSystemMetrics(s.started)
		}
	}
}

func (s *server) close() {
	if c, ok := s.source.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("failed to close template source", logging.Error(err))
		}
	}
}
