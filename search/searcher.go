package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/docrank/core"
)

// AllCategories 表示不按分类过滤。
const AllCategories = "all"

// Config 是搜索参数。
type Config struct {
	MinQueryLength int     `koanf:"min_query_length" yaml:"min_query_length" validate:"min=1"`
	DefaultLimit   int     `koanf:"default_limit" yaml:"default_limit" validate:"min=1"`
	MaxLimit       int     `koanf:"max_limit" yaml:"max_limit" validate:"min=1,gtefield=DefaultLimit"`
	MaxSuggestions int     `koanf:"max_suggestions" yaml:"max_suggestions" validate:"min=0"`
	Weights        Weights `koanf:"weights" yaml:"weights"`
}

func DefaultConfig() Config {
	return Config{
		MinQueryLength: 2,
		DefaultLimit:   10,
		MaxLimit:       100,
		MaxSuggestions: 5,
		Weights:        DefaultWeights(),
	}
}

// Query 是一次搜索请求。Page / Limit 为 0 时使用默认值。
type Query struct {
	Text     string
	Category string
	Page     int
	Limit    int
}

// Hit 是一条搜索结果。
type Hit struct {
	Doc             *core.Document
	RelevanceScore  int
	MatchedKeywords []string
}

// Pagination 是分页信息，Pages = ceil(Total / Limit)。
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Result 是搜索结果：当前页按相关性降序（同分保持目录顺序，即标题升序）。
type Result struct {
	Hits        []Hit
	Suggestions []string
	Pagination  Pagination
	Query       string
}

// Searcher 编排搜索：参数校验、目录粗过滤、计数与取页并发执行、打分排序、联想词。
type Searcher struct {
	catalog core.Catalog
	scorer  *Scorer
	cfg     Config
	logger  zerolog.Logger
}

// Option 配置 Searcher。
type Option func(*Searcher)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Searcher) { s.logger = l }
}

func New(catalog core.Catalog, cfg Config, opts ...Option) *Searcher {
	def := DefaultConfig()
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = def.MinQueryLength
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.MaxSuggestions < 0 {
		cfg.MaxSuggestions = 0
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	s := &Searcher{
		catalog: catalog,
		scorer:  NewScorer(cfg.Weights),
		cfg:     cfg,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search 执行搜索。
//
// 错误：
//   - 查询去除首尾空白后短于 MinQueryLength、页码为负、limit 为负或超过 MaxLimit：INVALID_INPUT
//   - 目录读取失败：原样返回
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	text := strings.TrimSpace(q.Text)
	if utf8.RuneCountInString(text) < s.cfg.MinQueryLength {
		return nil, core.InvalidInput(core.ModuleSearch,
			fmt.Sprintf("search: query must be at least %d characters", s.cfg.MinQueryLength))
	}
	page, limit, err := s.paging(q.Page, q.Limit)
	if err != nil {
		return nil, err
	}

	filter := core.CatalogFilter{
		PublishedOnly: true,
		Text:          text,
		Order:         core.SortTitleAsc,
		Offset:        (page - 1) * limit,
	}
	if c := strings.TrimSpace(q.Category); c != "" && c != AllCategories {
		filter.Category = c
	}

	start := time.Now()
	var (
		total int
		docs  []*core.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.catalog.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("search: count: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		found, err := s.catalog.FindMany(gctx, filter, limit)
		if err != nil {
			return fmt.Errorf("search: find: %w", err)
		}
		docs = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(docs))
	for _, doc := range docs {
		score, matched := s.scorer.Score(doc, text)
		hits = append(hits, Hit{Doc: doc, RelevanceScore: score, MatchedKeywords: matched})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].RelevanceScore > hits[j].RelevanceScore
	})

	res := &Result{
		Hits:        hits,
		Suggestions: s.suggestions(docs, text),
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
		Query: text,
	}

	s.logger.Debug().
		Str("query", text).
		Str("category", filter.Category).
		Int("total", total).
		Int("hits", len(hits)).
		Dur("took", time.Since(start)).
		Msg("search done")
	return res, nil
}

func (s *Searcher) paging(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if page < 0 {
		return 0, 0, core.InvalidInput(core.ModuleSearch, "search: page must be positive")
	}
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit < 0 || limit > s.cfg.MaxLimit {
		return 0, 0, core.InvalidInput(core.ModuleSearch,
			fmt.Sprintf("search: limit must be between 1 and %d", s.cfg.MaxLimit))
	}
	// offset = (page-1)*limit 不能溢出
	if page-1 > math.MaxInt/limit {
		return 0, 0, core.InvalidInput(core.ModuleSearch, "search: page out of range")
	}
	return page, limit, nil
}

// suggestions 按目录顺序收集包含查询的关键词，至多 MaxSuggestions 个（可能重复）。
func (s *Searcher) suggestions(docs []*core.Document, query string) []string {
	out := []string{}
	if s.cfg.MaxSuggestions == 0 {
		return out
	}
	q := core.Fold(query)
	for _, doc := range docs {
		for _, kw := range doc.Keywords() {
			if strings.Contains(core.Fold(kw), q) {
				out = append(out, kw)
				if len(out) == s.cfg.MaxSuggestions {
					return out
				}
			}
		}
	}
	return out
}
