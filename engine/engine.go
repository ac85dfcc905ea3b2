// Package engine 编排推荐：基于物品（相似文档）、基于用户（偏好画像）与热门兜底。
//
// 每种模式对应一条 Pipeline：
//
//	item:    recall.similar    -> filter -> rank.similarity -> rerank.topn
//	user:    recall.preference -> filter -> rank.preference -> rerank.topn
//	popular: recall.popular    -> filter -> rank.popularity -> rerank.topn
//
// 三条 Pipeline 都可以通过 WithPipeline 替换（例如从 YAML 构建）。
// Engine 不持有可变状态，可并发使用；协作方（Catalog、History）的错误原样返回，不重试。
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/filter"
	"github.com/rushteam/docrank/metrics"
	"github.com/rushteam/docrank/pipeline"
	"github.com/rushteam/docrank/profile"
	"github.com/rushteam/docrank/rank"
	"github.com/rushteam/docrank/recall"
	"github.com/rushteam/docrank/rerank"
)

// 场景名，同时也是 Pipeline 名称。
const (
	SceneItem    = "item"
	ScenePopular = "popular"
	SceneUser    = "user"
)

// Config 是推荐参数。
type Config struct {
	Window          int                    `koanf:"window" yaml:"window" validate:"min=1"`
	Limits          profile.Limits         `koanf:"limits" yaml:"limits"`
	Candidates      recall.CandidatePolicy `koanf:"candidates" yaml:"candidates"`
	Similarity      rank.SimilarityWeights `koanf:"similarity" yaml:"similarity"`
	Preference      rank.PreferenceWeights `koanf:"preference" yaml:"preference"`
	PopularityScore float64                `koanf:"popularity_score" yaml:"popularity_score" validate:"gte=0,lte=1"`
	DefaultLimit    int                    `koanf:"default_limit" yaml:"default_limit" validate:"min=1"`
	MaxLimit        int                    `koanf:"max_limit" yaml:"max_limit" validate:"min=1,gtefield=DefaultLimit"`
}

func DefaultConfig() Config {
	return Config{
		Window:          profile.DefaultWindow,
		Limits:          profile.DefaultLimits(),
		Candidates:      recall.DefaultCandidatePolicy(),
		Similarity:      rank.DefaultSimilarityWeights(),
		Preference:      rank.DefaultPreferenceWeights(),
		PopularityScore: rank.DefaultPopularityScore,
		DefaultLimit:    5,
		MaxLimit:        50,
	}
}

// Engine 是推荐入口。
type Engine struct {
	catalog  core.Catalog
	history  core.History
	profiler *profile.Profiler
	cfg      Config

	pipelines map[string]*pipeline.Pipeline
	filters   []filter.Filter
	observer  pipeline.Observer
	logger    zerolog.Logger
}

// Option 配置 Engine。
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver 为所有未设置 Observer 的 Pipeline 设置节点观察者。
func WithObserver(o pipeline.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithFilters 在默认 Pipeline 的 ExcludeFilter 之后追加过滤器（黑名单、表达式等）。
// 对通过 WithPipeline 替换的 Pipeline 无效。
func WithFilters(filters ...filter.Filter) Option {
	return func(e *Engine) { e.filters = append(e.filters, filters...) }
}

// WithPipeline 替换某个场景的 Pipeline；nil 表示保留默认。
func WithPipeline(scene string, p *pipeline.Pipeline) Option {
	return func(e *Engine) {
		if p != nil {
			e.pipelines[scene] = p
		}
	}
}

func New(catalog core.Catalog, history core.History, cfg Config, opts ...Option) *Engine {
	cfg = withDefaults(cfg)
	e := &Engine{
		catalog:   catalog,
		history:   history,
		profiler:  profile.New(cfg.Window, cfg.Limits),
		cfg:       cfg,
		pipelines: make(map[string]*pipeline.Pipeline, 3),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	defaults := e.defaultPipelines()
	for scene, p := range defaults {
		if _, ok := e.pipelines[scene]; !ok {
			e.pipelines[scene] = p
		}
	}
	// 调用方传入的 Pipeline 可能被多个 Engine 共享，只修改副本
	for scene, p := range e.pipelines {
		if p.Observer == nil && e.observer != nil {
			cp := *p
			cp.Observer = e.observer
			e.pipelines[scene] = &cp
		}
	}
	return e
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Limits == (profile.Limits{}) {
		cfg.Limits = def.Limits
	}
	if cfg.Candidates.Multiplier <= 0 {
		cfg.Candidates.Multiplier = def.Candidates.Multiplier
	}
	if cfg.Similarity == (rank.SimilarityWeights{}) {
		cfg.Similarity = def.Similarity
	}
	if cfg.Preference == (rank.PreferenceWeights{}) {
		cfg.Preference = def.Preference
	}
	if cfg.PopularityScore <= 0 {
		cfg.PopularityScore = def.PopularityScore
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	return cfg
}

func (e *Engine) defaultPipelines() map[string]*pipeline.Pipeline {
	filterNode := func() *filter.FilterNode {
		fs := make([]filter.Filter, 0, 1+len(e.filters))
		fs = append(fs, &filter.ExcludeFilter{})
		fs = append(fs, e.filters...)
		return &filter.FilterNode{Filters: fs}
	}
	return map[string]*pipeline.Pipeline{
		SceneItem: {
			Name: SceneItem,
			Nodes: []pipeline.Node{
				&recall.Similar{Catalog: e.catalog, Policy: e.cfg.Candidates},
				filterNode(),
				&rank.SimilarityNode{Scorer: rank.NewSimilarityScorer(e.cfg.Similarity)},
				&rerank.TopNNode{},
			},
		},
		SceneUser: {
			Name: SceneUser,
			Nodes: []pipeline.Node{
				&recall.Preference{Catalog: e.catalog, Policy: e.cfg.Candidates},
				filterNode(),
				&rank.PreferenceNode{Scorer: rank.NewPreferenceScorer(e.cfg.Preference)},
				&rerank.TopNNode{},
			},
		},
		ScenePopular: {
			Name: ScenePopular,
			Nodes: []pipeline.Node{
				&recall.Popular{Catalog: e.catalog},
				filterNode(),
				&rank.PopularityNode{Score: e.cfg.PopularityScore},
				&rerank.TopNNode{},
			},
		},
	}
}

// Pipeline 返回某个场景当前使用的 Pipeline。
func (e *Engine) Pipeline(scene string) *pipeline.Pipeline {
	return e.pipelines[scene]
}

// RecommendForItem 返回与 sourceID 相似的文档，按分数降序，至多 limit 个（limit 为 0 时使用默认值）。
//
//   - 源文档不存在：NOT_FOUND
//   - 源文档没有关键词：返回空列表（不回退到热门）
//   - 结果永不包含源文档
func (e *Engine) RecommendForItem(ctx context.Context, sourceID string, limit int) (items []*core.Item, err error) {
	defer func() { metrics.RecordRecommendation(SceneItem, err) }()

	if sourceID == "" {
		return nil, core.InvalidInput(core.ModuleEngine, "engine: document id is required")
	}
	limit, err = e.limit(limit)
	if err != nil {
		return nil, err
	}

	src, err := e.catalog.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !src.HasKeywords() {
		e.degraded(metrics.DegradedNoAnalysis).Str("document_id", sourceID).Msg("source has no keywords")
		return []*core.Item{}, nil
	}

	rctx := &core.RecommendContext{
		Scene:      SceneItem,
		Limit:      limit,
		Source:     src,
		ExcludeIDs: []string{src.ID},
	}
	return e.run(ctx, SceneItem, rctx)
}

// RecommendForUser 基于用户最近的交互历史推荐。
// 历史为空时返回热门文档（统一分数，理由为 "popular document"）。
func (e *Engine) RecommendForUser(ctx context.Context, userID string, limit int) (items []*core.Item, err error) {
	defer func() { metrics.RecordRecommendation(SceneUser, err) }()

	if userID == "" {
		return nil, core.InvalidInput(core.ModuleEngine, "engine: user id is required")
	}
	limit, err = e.limit(limit)
	if err != nil {
		return nil, err
	}

	events, err := e.history.RecentForUser(ctx, userID, e.profiler.Window)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		e.degraded(metrics.DegradedColdStart).Str("user_id", userID).Msg("no history, serving popular")
		return e.run(ctx, ScenePopular, &core.RecommendContext{
			UserID: userID,
			Scene:  ScenePopular,
			Limit:  limit,
		})
	}

	recent := e.profiler.Recent(events)
	ids := profile.ItemIDs(recent)
	docs, err := e.catalog.FindMany(ctx, core.CatalogFilter{IDs: ids}, 0)
	if err != nil {
		return nil, fmt.Errorf("resolve history documents: %w", err)
	}
	byID := make(map[string]*core.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	prof := e.profiler.Build(recent, byID)
	cats, tags, kws := e.profiler.Top(prof)
	e.logger.Debug().
		Str("user_id", userID).
		Int("events", len(recent)).
		Strs("top_categories", cats).
		Int("top_tags", len(tags)).
		Int("top_keywords", len(kws)).
		Msg("profile built")

	rctx := &core.RecommendContext{
		UserID:        userID,
		Scene:         SceneUser,
		Limit:         limit,
		Profile:       prof,
		TopCategories: cats,
		TopTags:       tags,
		TopKeywords:   kws,
		ExcludeIDs:    ids,
	}
	return e.run(ctx, SceneUser, rctx)
}

// TopPopular 返回已发布文档中下载数最高的至多 limit 个（下载数相同按浏览数）。
func (e *Engine) TopPopular(ctx context.Context, limit int) (items []*core.Item, err error) {
	defer func() { metrics.RecordRecommendation(ScenePopular, err) }()

	limit, err = e.limit(limit)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, ScenePopular, &core.RecommendContext{Scene: ScenePopular, Limit: limit})
}

func (e *Engine) run(ctx context.Context, scene string, rctx *core.RecommendContext) ([]*core.Item, error) {
	p, ok := e.pipelines[scene]
	if !ok || p == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			fmt.Sprintf("engine: no pipeline for scene %q", scene))
	}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		e.degraded(metrics.DegradedNoCandidates).Str("scene", scene).Msg("no candidates")
		return []*core.Item{}, nil
	}
	// 自定义 Pipeline 可能没有 TopN 节点
	if len(items) > rctx.Limit {
		items = items[:rctx.Limit]
	}
	e.logger.Debug().Str("scene", scene).Int("limit", rctx.Limit).Int("items", len(items)).Msg("recommend done")
	return items, nil
}

func (e *Engine) limit(limit int) (int, error) {
	if limit == 0 {
		return e.cfg.DefaultLimit, nil
	}
	if limit < 0 || limit > e.cfg.MaxLimit {
		return 0, core.InvalidInput(core.ModuleEngine,
			fmt.Sprintf("engine: limit must be between 1 and %d", e.cfg.MaxLimit))
	}
	return limit, nil
}

func (e *Engine) degraded(reason string) *zerolog.Event {
	metrics.RecordDegraded(reason)
	return e.logger.Debug().Str("degraded", reason)
}
