package rank

import (
	"context"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
	"github.com/rushteam/docrank/pkg/utils"
)

// DefaultPopularityScore 是冷启动热门结果的统一分数。
const DefaultPopularityScore = 0.5

// PopularityNode 给热门召回结果赋予统一分数与 "popular document" 理由。
// 不改变顺序：热门顺序由召回（下载数、浏览数降序）决定。
type PopularityNode struct {
	Score float64
}

func (n *PopularityNode) Name() string        { return "rank.popularity" }
func (n *PopularityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PopularityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	score := n.Score
	if score == 0 {
		score = DefaultPopularityScore
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		it.Score = score
		it.Reasons = []core.Reason{core.PopularDocument()}
		it.PutLabel("rank_model", utils.Label{Value: "popularity", Source: "rank"})
	}
	return items, nil
}
