package rank

import (
	"context"
	"math"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
	"github.com/rushteam/docrank/pkg/utils"
)

// SimilarityWeights 是两两相似度各信号的权重。
type SimilarityWeights struct {
	Category float64 `koanf:"category" yaml:"category"`
	Tags     float64 `koanf:"tags" yaml:"tags"`
	Keywords float64 `koanf:"keywords" yaml:"keywords"`
	Language float64 `koanf:"language" yaml:"language"`
}

// DefaultSimilarityWeights 返回默认权重：类别 0.30、标签 0.25、关键词 0.35、语言 0.10。
func DefaultSimilarityWeights() SimilarityWeights {
	return SimilarityWeights{
		Category: 0.30,
		Tags:     0.25,
		Keywords: 0.35,
		Language: 0.10,
	}
}

// SimilarityScorer 根据类别/标签/关键词/语言的重合度计算两个文档的相似度。
// 各项独立累加，不做整体归一化；结果对参数顺序对称。
type SimilarityScorer struct {
	Weights SimilarityWeights
}

func NewSimilarityScorer(w SimilarityWeights) *SimilarityScorer {
	return &SimilarityScorer{Weights: w}
}

// Score 返回相似度与按类别、标签、关键词顺序产生的理由。语言匹配只加分不产生理由。
func (s *SimilarityScorer) Score(source, candidate *core.Document) (float64, []core.Reason) {
	if source == nil || candidate == nil {
		return 0, nil
	}
	var (
		score   float64
		reasons []core.Reason
	)

	if candidate.Category == source.Category {
		score += s.Weights.Category
		reasons = append(reasons, core.SameCategory())
	}

	if common, ratio := overlapRatio(source.Tags, candidate.Tags, true); common > 0 {
		score += s.Weights.Tags * ratio
		reasons = append(reasons, core.SharedTags(common))
	}

	if source.HasKeywords() && candidate.HasKeywords() {
		if common, ratio := overlapRatio(source.Keywords(), candidate.Keywords(), false); common > 0 {
			score += s.Weights.Keywords * ratio
			reasons = append(reasons, core.SharedKeywords(common))
		}
	}

	if sl, cl := source.Language(), candidate.Language(); sl != "" && sl == cl {
		score += s.Weights.Language
	}
	return score, reasons
}

// overlapRatio 返回集合交集大小与 交集/max(|a|,|b|)；任一为空时返回 0。
// 标签按集合计数（dedup 为 true），关键词是有序序列，分母按原始长度计。
func overlapRatio(a, b []string, dedup bool) (int, float64) {
	setA, setB := core.StringSet(a), core.StringSet(b)
	denom := math.Max(float64(len(a)), float64(len(b)))
	if dedup {
		denom = math.Max(float64(len(setA)), float64(len(setB)))
	}
	if denom == 0 {
		return 0, 0
	}
	common := core.CountCommon(setA, setB)
	return common, float64(common) / denom
}

// SimilarityNode 是基于物品推荐的排序 Node：用 rctx.Source 与每个候选计算相似度。
//   - 写入 labels：rank_model=similarity
//   - 更新 item.Score / item.Reasons 并按分数稳定降序排序
type SimilarityNode struct {
	Scorer *SimilarityScorer
}

func (n *SimilarityNode) Name() string        { return "rank.similarity" }
func (n *SimilarityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SimilarityNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Source == nil || len(items) == 0 {
		return items, nil
	}
	scorer := n.Scorer
	if scorer == nil {
		scorer = NewSimilarityScorer(DefaultSimilarityWeights())
	}

	for _, it := range items {
		if it == nil || it.Doc == nil {
			continue
		}
		it.Score, it.Reasons = scorer.Score(rctx.Source, it.Doc)
		if len(it.Reasons) == 0 {
			it.Reasons = []core.Reason{core.SimilarContent()}
		}
		it.PutLabel("rank_model", utils.Label{Value: "similarity", Source: "rank"})
	}
	SortByScore(items)
	return items, nil
}
