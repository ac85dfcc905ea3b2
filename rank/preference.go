package rank

import (
	"context"
	"math"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
	"github.com/rushteam/docrank/pkg/utils"
)

// PreferenceWeights 是基于用户画像打分的权重。
type PreferenceWeights struct {
	Category   float64 `koanf:"category" yaml:"category"`
	Tags       float64 `koanf:"tags" yaml:"tags"`
	Keywords   float64 `koanf:"keywords" yaml:"keywords"`
	Popularity float64 `koanf:"popularity" yaml:"popularity"`

	// Divisor 是固定的归一化除数：score = min(raw/Divisor, 1)
	Divisor float64 `koanf:"divisor" yaml:"divisor"`
}

// DefaultPreferenceWeights 返回默认权重：0.4 / 0.3 / 0.2 / 0.1，除数 10。
func DefaultPreferenceWeights() PreferenceWeights {
	return PreferenceWeights{
		Category:   0.4,
		Tags:       0.3,
		Keywords:   0.2,
		Popularity: 0.1,
		Divisor:    10,
	}
}

// PreferenceScorer 根据用户偏好画像给候选文档打分。
type PreferenceScorer struct {
	Weights PreferenceWeights
}

func NewPreferenceScorer(w PreferenceWeights) *PreferenceScorer {
	return &PreferenceScorer{Weights: w}
}

// Raw 返回未归一化的分数与理由：
//
//	0.4*categoryWeight + 0.3*|tags∩topTags| + 0.2*|keywords∩topKeywords| + 0.1*ln(downloads+1)
//
// 没有任何偏好命中时理由为 "popular content"。
func (s *PreferenceScorer) Raw(
	profile *core.PreferenceProfile,
	topTags, topKeywords []string,
	doc *core.Document,
) (float64, []core.Reason) {
	if doc == nil {
		return 0, nil
	}
	var (
		score   float64
		reasons []core.Reason
	)

	if profile != nil {
		if w := profile.Categories.Get(doc.Category); w > 0 {
			score += s.Weights.Category * float64(w)
			reasons = append(reasons, core.BasedOnInterests())
		}
	}
	if n := core.CountCommon(core.StringSet(doc.Tags), core.StringSet(topTags)); n > 0 {
		score += s.Weights.Tags * float64(n)
		reasons = append(reasons, core.SimilarTopics())
	}
	if n := core.CountCommon(core.StringSet(doc.Keywords()), core.StringSet(topKeywords)); n > 0 {
		score += s.Weights.Keywords * float64(n)
		reasons = append(reasons, core.RelatedContent())
	}

	downloads := doc.DownloadCount
	if downloads < 0 {
		downloads = 0
	}
	score += s.Weights.Popularity * math.Log(float64(downloads)+1)

	if len(reasons) == 0 {
		reasons = []core.Reason{core.PopularContent()}
	}
	return score, reasons
}

// Normalize 把原始分数按固定除数压缩到 [0, 1]。
func (s *PreferenceScorer) Normalize(raw float64) float64 {
	divisor := s.Weights.Divisor
	if divisor <= 0 {
		divisor = 10
	}
	return math.Min(raw/divisor, 1)
}

// PreferenceNode 是基于用户推荐的排序 Node：使用 rctx.Profile 与 TopN 列表打分。
//   - 写入 labels：rank_model=preference
//   - item.Meta["raw_score"] 保存未归一化分数
type PreferenceNode struct {
	Scorer *PreferenceScorer
}

func (n *PreferenceNode) Name() string        { return "rank.preference" }
func (n *PreferenceNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PreferenceNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || len(items) == 0 {
		return items, nil
	}
	scorer := n.Scorer
	if scorer == nil {
		scorer = NewPreferenceScorer(DefaultPreferenceWeights())
	}

	for _, it := range items {
		if it == nil || it.Doc == nil {
			continue
		}
		raw, reasons := scorer.Raw(rctx.Profile, rctx.TopTags, rctx.TopKeywords, it.Doc)
		it.Score = scorer.Normalize(raw)
		it.Reasons = reasons
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta["raw_score"] = raw
		it.PutLabel("rank_model", utils.Label{Value: "preference", Source: "rank"})
	}
	SortByScore(items)
	return items, nil
}
