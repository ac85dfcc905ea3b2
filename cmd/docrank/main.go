// Command docrank 是文档推荐与搜索服务。
//
//	docrank serve [-config config.yaml]
//	docrank index -file docs.yaml [-config config.yaml] [-reanalyze]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/docrank/analysis"
	"github.com/rushteam/docrank/config"
	"github.com/rushteam/docrank/logging"
	"github.com/rushteam/docrank/search"
	"github.com/rushteam/docrank/server"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "index":
		err = runIndex(ctx, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		logging.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  docrank serve [-config path]")
	fmt.Fprintln(os.Stderr, "  docrank index -file docs.yaml [-config path] [-reanalyze]")
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)
	return cfg, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config.yaml (default $DOCRANK_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	log := logging.Logger()

	b, err := openBackend(ctx, cfg, log.With().Str("component", "store").Logger())
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	if cfg.Store.SeedFile != "" {
		proc := analysis.NewProcessor(cfg.Analysis)
		docs, events, err := seed(ctx, b, cfg.Store.SeedFile, proc, false)
		if err != nil {
			return fmt.Errorf("seed %s: %w", cfg.Store.SeedFile, err)
		}
		log.Info().Str("file", cfg.Store.SeedFile).Int("documents", docs).Int("interactions", events).Msg("catalog seeded")
	}

	eng, err := newEngine(cfg, b, log)
	if err != nil {
		return err
	}
	searcher := search.New(b.catalog, cfg.Search, search.WithLogger(log.With().Str("component", "search").Logger()))

	srv := server.New(eng, searcher, b.health, server.Options{
		Addr:               cfg.Server.Addr,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		ShutdownTimeout:    cfg.Server.ShutdownTimeout,
		RateLimitEnabled:   cfg.Server.RateLimit.Enabled,
		RateLimitRequests:  cfg.Server.RateLimit.Requests,
		RateLimitWindow:    cfg.Server.RateLimit.Window,
		CORSAllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		CORSMaxAge:         cfg.Server.CORS.MaxAge,
	}, log.With().Str("component", "server").Logger())

	log.Info().Str("backend", cfg.Store.Backend).Msg("docrank starting")
	return srv.ListenAndServe(ctx)
}

func runIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config.yaml (default $DOCRANK_CONFIG)")
	file := fs.String("file", "", "seed file with documents and interactions (.yaml, .yml or .json)")
	reanalyze := fs.Bool("reanalyze", false, "recompute analysis for documents that already have one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errors.New("index: -file is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	log := logging.With("index")
	if cfg.Store.Backend == config.BackendMemory {
		log.Warn().Msg("memory backend does not persist; indexed documents are discarded on exit")
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	docs, events, err := seed(ctx, b, *file, analysis.NewProcessor(cfg.Analysis), *reanalyze)
	if err != nil {
		return err
	}
	log.Info().Str("file", *file).Int("documents", docs).Int("interactions", events).Msg("index done")
	return nil
}
