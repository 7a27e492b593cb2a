package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/logview/internal/config"
	"github.com/therealutkarshpriyadarshi/logview/internal/follow"
	"github.com/therealutkarshpriyadarshi/logview/internal/loader"
	"github.com/therealutkarshpriyadarshi/logview/internal/logging"
	"github.com/therealutkarshpriyadarshi/logview/internal/metrics"
	"github.com/therealutkarshpriyadarshi/logview/internal/order"
	"github.com/therealutkarshpriyadarshi/logview/internal/server"
	"github.com/therealutkarshpriyadarshi/logview/internal/store"
	"github.com/therealutkarshpriyadarshi/logview/internal/tracing"
	"github.com/therealutkarshpriyadarshi/logview/internal/view"
	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	searchText  = flag.String("search", "", "Search terms; prefix a term with ! to exclude it")
	sortBy      = flag.String("sort", "", "Sort key: index, timestamp, level or message")
	descending  = flag.Bool("desc", false, "Sort descending")
	onlyMatches = flag.Bool("only-matches", false, "Hide records that do not match the search")
	levels      = flag.String("levels", "", "Comma-separated levels to show")
	offset      = flag.Int("offset", 0, "First display row to print")
	limit       = flag.Int("limit", 0, "Number of rows to print (0 for all)")
	followFiles = flag.Bool("follow", false, "Keep watching the files and reprint as they grow")
	version     = "0.1.0"
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithField("run_id", uuid.NewString())
	logging.SetGlobal(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params, err := viewParameters(cfg)
	if err != nil {
		return err
	}

	sources := cfg.Sources
	for _, path := range flag.Args() {
		sources = append(sources, config.SourceConfig{Path: path, Format: config.DefaultSourceFormat})
	}
	if len(sources) == 0 {
		return errors.New("no log files given")
	}

	collector := metrics.GetGlobalCollector()
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		srv, err := server.New(server.Config{
			Address:  cfg.Metrics.Address,
			Path:     cfg.Metrics.Path,
			Registry: collector.Registry(),
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Stop(shutdownCtx)
		}()
	}

	var tracingCfg tracing.Config
	if cfg.Tracing != nil {
		tracingCfg = tracing.Config{
			Enabled:    cfg.Tracing.Enabled,
			Endpoint:   cfg.Tracing.Endpoint,
			SampleRate: cfg.Tracing.SampleRate,
		}
	}
	tp, err := tracing.NewProvider(ctx, tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tp.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("version", version).
		Int("sources", len(sources)).
		Msg("Starting log viewer")

	coordinator := view.New(view.Config{
		Sorter:  order.NewForLocale(cfg.View.Locale),
		Logger:  logger,
		Metrics: collector,
		Tracer:  tp.Tracer(),
	})
	session := view.NewSession(coordinator)
	session.Apply(params)

	formatter := view.CellFormatter{
		TimeLayout:    cfg.View.TimeLayout,
		MetaIndicator: cfg.View.MetaIndicator,
	}
	p := newPrinter(os.Stdout, formatter, *offset, *limit)

	if !cfg.Follow.Enabled && !*followFiles {
		src, err := loadAll(ctx, sources, cfg, logger, collector)
		if err != nil {
			return err
		}
		return p.print(session.SetSource(src))
	}

	return followAll(ctx, sources, cfg, session, p, logger, collector)
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// viewParameters starts from the configured view and applies command line
// overrides
func viewParameters(cfg *config.Config) (types.ViewParameters, error) {
	params, err := cfg.View.Parameters()
	if err != nil {
		return types.ViewParameters{}, fmt.Errorf("invalid view configuration: %w", err)
	}

	if *searchText != "" {
		params.Search = *searchText
	}
	if *sortBy != "" {
		if params.SortBy, err = types.ParseSortKey(*sortBy); err != nil {
			return types.ViewParameters{}, err
		}
	}
	if *descending {
		params.SortDirection = types.Descending
	}
	if *onlyMatches {
		params.OnlyShowMatches = true
	}
	if *levels != "" {
		if params.Levels, err = types.ParseLevelFilter(*levels); err != nil {
			return types.ViewParameters{}, err
		}
	}
	return params, nil
}

func loaderConfig(src config.SourceConfig, cfg *config.Config) loader.Config {
	return loader.Config{
		Format:          loader.Format(src.Format),
		LogType:         src.LogType,
		TextPattern:     src.Pattern,
		TimeField:       src.TimeField,
		LevelField:      src.LevelField,
		MessageField:    src.MessageField,
		CollapseRepeats: cfg.View.CollapseRepeats,
		RedactMeta:      cfg.View.RedactMeta,
	}
}

func loadAll(ctx context.Context, sources []config.SourceConfig, cfg *config.Config, logger *logging.Logger, collector *metrics.Collector) (*store.Store, error) {
	stores := make([]*store.Store, 0, len(sources))
	for _, src := range sources {
		ld, err := loader.New(loaderConfig(src, cfg), logger, collector)
		if err != nil {
			return nil, fmt.Errorf("failed to create loader for %s: %w", src.Path, err)
		}
		s, err := ld.LoadFile(ctx, src.Path)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return combine(stores), nil
}

// combine returns the single store as is, or a time-ordered merge of several
func combine(stores []*store.Store) *store.Store {
	if len(stores) == 1 {
		return stores[0]
	}
	names := make([]string, len(stores))
	for i, s := range stores {
		names[i] = s.LogType()
	}
	return store.Merge(strings.Join(names, "+"), stores...)
}

func followAll(ctx context.Context, sources []config.SourceConfig, cfg *config.Config, session *view.Session, p *printer, logger *logging.Logger, collector *metrics.Collector) error {
	followers := make([]*follow.Follower, 0, len(sources))
	defer func() {
		for _, f := range followers {
			f.Stop()
		}
	}()

	var mu sync.Mutex
	current := make([]*store.Store, len(sources))
	for i, src := range sources {
		f, err := follow.New(src.Path, follow.Config{
			MinInterval:  cfg.Follow.MinInterval,
			Burst:        cfg.Follow.Burst,
			PollInterval: cfg.Follow.PollInterval,
			Loader:       loaderConfig(src, cfg),
		}, logger, collector)
		if err != nil {
			return fmt.Errorf("failed to create follower for %s: %w", src.Path, err)
		}
		initial, err := f.Start(ctx)
		if err != nil {
			return err
		}
		followers = append(followers, f)
		current[i] = initial
	}

	if err := p.print(session.SetSource(combine(current))); err != nil {
		return err
	}

	updates := make(chan struct{}, 1)
	for i, f := range followers {
		go func() {
			for s := range f.Updates() {
				mu.Lock()
				current[i] = s
				mu.Unlock()
				select {
				case updates <- struct{}{}:
				default:
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutdown signal received")
			return nil
		case <-updates:
			mu.Lock()
			src := combine(current)
			mu.Unlock()
			if err := p.print(session.SetSource(src)); err != nil {
				return err
			}
		}
	}
}
