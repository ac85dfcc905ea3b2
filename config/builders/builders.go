// Package builders 注册内置 Node 的配置构建器，import 即生效。
//
// 配置示例：
//
//	pipelines:
//	  - name: item
//	    nodes:
//	      - type: recall.similar
//	        config: {candidate_multiplier: 3, max_candidates: 100}
//	      - type: filter
//	        config:
//	          filters:
//	            - type: exclude
//	            - type: blocklist
//	              ids: ["doc-9"]
//	            - type: expr
//	              expr: "item.doc.is_free"
//	      - type: rank.similarity
//	        config: {category: 0.3, tags: 0.25, keywords: 0.35, language: 0.1}
//	      - type: rerank.topn
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/docrank/config"
	"github.com/rushteam/docrank/filter"
	"github.com/rushteam/docrank/pipeline"
	"github.com/rushteam/docrank/pkg/conv"
	"github.com/rushteam/docrank/rank"
	"github.com/rushteam/docrank/recall"
	"github.com/rushteam/docrank/rerank"
)

func init() {
	config.Register("recall.similar", BuildSimilarRecallNode)
	config.Register("recall.preference", BuildPreferenceRecallNode)
	config.Register("recall.popular", BuildPopularRecallNode)
	config.Register("recall.fanout", BuildFanoutRecallNode)
	config.Register("rank.similarity", BuildSimilarityRankNode)
	config.Register("rank.preference", BuildPreferenceRankNode)
	config.Register("rank.popularity", BuildPopularityRankNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("filter", BuildFilterNode)
}

func requireCatalog(nodeType string, deps pipeline.Deps) error {
	if deps.Catalog == nil {
		return fmt.Errorf("%s: catalog dependency is required", nodeType)
	}
	return nil
}

func candidatePolicy(cfg map[string]any) recall.CandidatePolicy {
	def := recall.DefaultCandidatePolicy()
	return recall.CandidatePolicy{
		Multiplier: conv.ConfigGetInt(cfg, "candidate_multiplier", def.Multiplier),
		Max:        conv.ConfigGetInt(cfg, "max_candidates", def.Max),
	}
}

func BuildSimilarRecallNode(cfg map[string]any, deps pipeline.Deps) (pipeline.Node, error) {
	if err := requireCatalog("recall.similar", deps); err != nil {
		return nil, err
	}
	return &recall.Similar{Catalog: deps.Catalog, Policy: candidatePolicy(cfg)}, nil
}

func BuildPreferenceRecallNode(cfg map[string]any, deps pipeline.Deps) (pipeline.Node, error) {
	if err := requireCatalog("recall.preference", deps); err != nil {
		return nil, err
	}
	return &recall.Preference{Catalog: deps.Catalog, Policy: candidatePolicy(cfg)}, nil
}

func BuildPopularRecallNode(cfg map[string]any, deps pipeline.Deps) (pipeline.Node, error) {
	if err := requireCatalog("recall.popular", deps); err != nil {
		return nil, err
	}
	return &recall.Popular{Catalog: deps.Catalog, Limit: conv.ConfigGetInt(cfg, "limit", 0)}, nil
}

// BuildFanoutRecallNode 构建并发多路召回：
//
//	- type: recall.fanout
//	  config:
//	    sources: [preference, popular]
//	    merge: priority
//	    timeout_ms: 200
//	    max_concurrent: 2
func BuildFanoutRecallNode(cfg map[string]any, deps pipeline.Deps) (pipeline.Node, error) {
	if err := requireCatalog("recall.fanout", deps); err != nil {
		return nil, err
	}
	names := conv.SliceAnyToString(cfg["sources"])
	if len(names) == 0 {
		return nil, fmt.Errorf("recall.fanout: sources is required")
	}
	policy := candidatePolicy(cfg)
	sources := make([]recall.Source, 0, len(names))
	for _, name := range names {
		switch name {
		case "similar":
			sources = append(sources, &recall.Similar{Catalog: deps.Catalog, Policy: policy})
		case "preference":
			sources = append(sources, &recall.Preference{Catalog: deps.Catalog, Policy: policy})
		case "popular":
			sources = append(sources, &recall.Popular{Catalog: deps.Catalog, Limit: conv.ConfigGetInt(cfg, "limit", 0)})
		default:
			return nil, fmt.Errorf("recall.fanout: unknown source %q", name)
		}
	}
	merge := conv.ConfigGet(cfg, "merge", recall.MergePriority)
	if merge != recall.MergePriority && merge != recall.MergeUnion {
		return nil, fmt.Errorf("recall.fanout: unknown merge strategy %q", merge)
	}
	return &recall.Fanout{
		Sources:       sources,
		Timeout:       time.Duration(conv.ConfigGetInt(cfg, "timeout_ms", 0)) * time.Millisecond,
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
		MergeStrategy: merge,
	}, nil
}

func BuildSimilarityRankNode(cfg map[string]any, _ pipeline.Deps) (pipeline.Node, error) {
	def := rank.DefaultSimilarityWeights()
	w := rank.SimilarityWeights{
		Category: conv.ConfigGetFloat64(cfg, "category", def.Category),
		Tags:     conv.ConfigGetFloat64(cfg, "tags", def.Tags),
		Keywords: conv.ConfigGetFloat64(cfg, "keywords", def.Keywords),
		Language: conv.ConfigGetFloat64(cfg, "language", def.Language),
	}
	return &rank.SimilarityNode{Scorer: rank.NewSimilarityScorer(w)}, nil
}

func BuildPreferenceRankNode(cfg map[string]any, _ pipeline.Deps) (pipeline.Node, error) {
	def := rank.DefaultPreferenceWeights()
	w := rank.PreferenceWeights{
		Category:   conv.ConfigGetFloat64(cfg, "category", def.Category),
		Tags:       conv.ConfigGetFloat64(cfg, "tags", def.Tags),
		Keywords:   conv.ConfigGetFloat64(cfg, "keywords", def.Keywords),
		Popularity: conv.ConfigGetFloat64(cfg, "popularity", def.Popularity),
		Divisor:    conv.ConfigGetFloat64(cfg, "divisor", def.Divisor),
	}
	if w.Divisor <= 0 {
		return nil, fmt.Errorf("rank.preference: divisor must be positive")
	}
	return &rank.PreferenceNode{Scorer: rank.NewPreferenceScorer(w)}, nil
}

func BuildPopularityRankNode(cfg map[string]any, _ pipeline.Deps) (pipeline.Node, error) {
	return &rank.PopularityNode{
		Score: conv.ConfigGetFloat64(cfg, "score", rank.DefaultPopularityScore),
	}, nil
}

func BuildTopNNode(cfg map[string]any, _ pipeline.Deps) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

// BuildFilterNode 构建 filter 节点；filters 为空时只使用 exclude。
func BuildFilterNode(cfg map[string]any, deps pipeline.Deps) (pipeline.Node, error) {
	specs := conv.ConfigGetMaps(cfg, "filters")
	if len(specs) == 0 {
		specs = []map[string]any{{"type": "exclude"}}
	}

	filters := make([]filter.Filter, 0, len(specs))
	for _, fc := range specs {
		t := conv.ConfigGet(fc, "type", "")
		switch t {
		case "exclude":
			filters = append(filters, &filter.ExcludeFilter{})
		case "blocklist":
			var store filter.BlocklistStore
			key := conv.ConfigGet(fc, "key", "")
			if key != "" && deps.Store != nil {
				store = filter.NewStoreAdapter(deps.Store)
			}
			filters = append(filters, filter.NewBlocklistFilter(conv.SliceAnyToString(fc["ids"]), store, key))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(fc, "expr", ""))
			if err != nil {
				return nil, fmt.Errorf("filter expr: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %q", t)
		}
	}
	return &filter.FilterNode{
		Filters: filters,
		Strict:  conv.ConfigGet(cfg, "strict", false),
	}, nil
}
