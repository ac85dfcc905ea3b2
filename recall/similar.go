package recall

import (
	"context"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
)

// Similar 是基于物品的召回源：从 Catalog 粗过滤出与 rctx.Source 同类别、或标签有交集、
// 或关键词有交集的已发布文档（排除源文档）。
// 候选数由 Policy 决定，超出时保留最近创建的文档。
// Similar 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Similar struct {
	Catalog core.Catalog
	Policy  CandidatePolicy
}

func (r *Similar) Name() string        { return "recall.similar" }
func (r *Similar) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Similar) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Similar) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Source == nil {
		return nil, nil
	}
	src := rctx.Source

	filter := core.CatalogFilter{
		PublishedOnly: true,
		ExcludeIDs:    append([]string{src.ID}, rctx.ExcludeIDs...),
		AnyTags:       src.Tags,
		AnyKeywords:   src.Keywords(),
		Order:         core.SortCreatedDesc,
	}
	if src.Category != "" {
		filter.AnyCategories = []string{src.Category}
	}
	if !filter.HasAny() {
		return nil, nil
	}
	return fetch(ctx, r.Catalog, r.Name(), filter, r.Policy.Cap(rctx.Limit))
}
