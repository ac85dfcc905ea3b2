package recall

import (
	"context"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pkg/utils"
)

// Source 表示一个可复用的召回源（相似文档 / 偏好 / 热门）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// CandidatePolicy 控制粗过滤候选集的大小：cap = limit * Multiplier，Max > 0 时再取较小值。
type CandidatePolicy struct {
	Multiplier int `koanf:"candidate_multiplier" yaml:"candidate_multiplier" validate:"min=1"`
	Max        int `koanf:"max_candidates" yaml:"max_candidates" validate:"min=0"`
}

// DefaultCandidatePolicy 返回 2 倍 limit、不设上限。
func DefaultCandidatePolicy() CandidatePolicy {
	return CandidatePolicy{Multiplier: 2}
}

// Cap 返回给定 limit 下的候选上限。
func (p CandidatePolicy) Cap(limit int) int {
	if limit <= 0 {
		return 0
	}
	m := p.Multiplier
	if m <= 0 {
		m = 2
	}
	n := limit * m
	if p.Max > 0 && n > p.Max {
		n = p.Max
	}
	return n
}

func fetch(
	ctx context.Context,
	catalog core.Catalog,
	name string,
	filter core.CatalogFilter,
	limit int,
) ([]*core.Item, error) {
	docs, err := catalog.FindMany(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	items := core.NewItems(docs)
	for _, it := range items {
		it.PutLabel("recall_source", utils.Label{Value: name, Source: "recall"})
	}
	return items, nil
}
