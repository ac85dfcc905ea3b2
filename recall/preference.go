package recall

import (
	"context"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
)

// Preference 是基于用户画像的召回源：类别属于 TopCategories、或标签与 TopTags 有交集、
// 或关键词与 TopKeywords 有交集的已发布文档，排除用户已消费的文档（rctx.ExcludeIDs）。
type Preference struct {
	Catalog core.Catalog
	Policy  CandidatePolicy
}

func (r *Preference) Name() string        { return "recall.preference" }
func (r *Preference) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Preference) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Preference) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil {
		return nil, nil
	}
	filter := core.CatalogFilter{
		PublishedOnly: true,
		ExcludeIDs:    rctx.ExcludeIDs,
		AnyCategories: rctx.TopCategories,
		AnyTags:       rctx.TopTags,
		AnyKeywords:   rctx.TopKeywords,
		Order:         core.SortCreatedDesc,
	}
	if !filter.HasAny() {
		return nil, nil
	}
	return fetch(ctx, r.Catalog, r.Name(), filter, r.Policy.Cap(rctx.Limit))
}
