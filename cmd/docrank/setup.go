package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/docrank/analysis"
	"github.com/rushteam/docrank/config"
	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/engine"
	"github.com/rushteam/docrank/filter"
	"github.com/rushteam/docrank/metrics"
	"github.com/rushteam/docrank/pipeline"
	"github.com/rushteam/docrank/server"
	"github.com/rushteam/docrank/store"

	_ "github.com/rushteam/docrank/config/builders"
)

// backend 是按配置打开的存储后端。
type backend struct {
	catalog  core.Catalog
	history  core.History
	writer   store.DocumentWriter
	recorder store.EventRecorder
	kv       core.Store // 屏蔽列表等键值数据；postgres 后端为 nil
	health   server.HealthFunc
	close    func() error
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	var b *backend
	switch cfg.Store.Backend {
	case config.BackendRedis:
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Store.Redis.Addr, err)
		}
		b = kvBackend(rs, cfg.Store.Prefix)
		b.health = rs.Ping
	case config.BackendPostgres:
		db, err := store.OpenPostgres(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Store.Postgres.Migrate {
			if err := store.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		b = pgBackend(db)
	default:
		b = kvBackend(store.NewMemoryStore(), cfg.Store.Prefix)
	}

	if cfg.Breaker.Enabled {
		b.wrapBreakers(cfg.Breaker, log)
	}
	return b, nil
}

func kvBackend(kv core.KeyValueStore, prefix string) *backend {
	catalog := store.NewDocumentCatalog(kv, prefix)
	history := store.NewEventHistory(kv, prefix)
	return &backend{
		catalog:  catalog,
		history:  history,
		writer:   catalog,
		recorder: history,
		kv:       kv,
		close:    kv.Close,
	}
}

func pgBackend(db *sql.DB) *backend {
	catalog := store.NewPostgresCatalog(db)
	history := store.NewPostgresHistory(db)
	return &backend{
		catalog:  catalog,
		history:  history,
		writer:   catalog,
		recorder: history,
		health:   db.PingContext,
		close:    db.Close,
	}
}

func (b *backend) wrapBreakers(cfg config.BreakerConfig, log zerolog.Logger) {
	onChange := func(name string, from, to gobreaker.State) {
		metrics.SetBreakerState(name, int(to))
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
	}
	bc := store.BreakerConfig{
		MaxRequests:      cfg.MaxRequests,
		Interval:         cfg.Interval,
		Timeout:          cfg.Timeout,
		FailureThreshold: cfg.FailureThreshold,
		OnStateChange:    onChange,
	}
	catalogCfg, historyCfg := bc, bc
	catalogCfg.Name = "catalog"
	historyCfg.Name = "history"
	b.catalog = store.NewBreakerCatalog(b.catalog, catalogCfg)
	b.history = store.NewBreakerHistory(b.history, historyCfg)
}

// seed 导入文档与交互事件；没有分析结果（或 reanalyze）的文档先做文本分析。
func seed(ctx context.Context, b *backend, path string, proc *analysis.Processor, reanalyze bool) (int, int, error) {
	s, err := store.LoadSeed(path)
	if err != nil {
		return 0, 0, err
	}
	for i, doc := range s.Documents {
		if doc != nil && (doc.Analysis == nil || reanalyze) {
			s.Documents[i] = proc.AnalyzeDocument(doc)
		}
	}
	if err := s.Apply(ctx, b.writer, b.recorder); err != nil {
		return 0, 0, err
	}
	return len(s.Documents), len(s.Interactions), nil
}

// newEngine 按配置构建推荐引擎：内置 Pipeline + 规则过滤器，或从 Pipeline 文件构建。
func newEngine(cfg *config.Config, b *backend, log zerolog.Logger) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithLogger(log.With().Str("component", "engine").Logger()),
		engine.WithObserver(metrics.ObserveNode),
	}

	if len(cfg.Rules.Blocklist) > 0 || cfg.Rules.BlocklistKey != "" {
		var bs filter.BlocklistStore
		if cfg.Rules.BlocklistKey != "" && b.kv != nil {
			bs = filter.NewStoreAdapter(b.kv)
		}
		opts = append(opts, engine.WithFilters(filter.NewBlocklistFilter(cfg.Rules.Blocklist, bs, cfg.Rules.BlocklistKey)))
	}
	if cfg.Rules.FilterExpr != "" {
		f, err := filter.NewExprFilter(cfg.Rules.FilterExpr)
		if err != nil {
			return nil, fmt.Errorf("rules.filter_expr: %w", err)
		}
		opts = append(opts, engine.WithFilters(f))
	}

	if cfg.Rules.PipelineFile != "" {
		pcfg, err := pipeline.Load(cfg.Rules.PipelineFile)
		if err != nil {
			return nil, err
		}
		pipelines, err := config.BuildPipelines(pcfg, pipeline.Deps{Catalog: b.catalog, Store: b.kv})
		if err != nil {
			return nil, err
		}
		for name, p := range pipelines {
			opts = append(opts, engine.WithPipeline(name, p))
		}
	}
	return engine.New(b.catalog, b.history, cfg.Engine, opts...), nil
}
