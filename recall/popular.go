package recall

import (
	"context"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
)

// Popular 是热门召回源：已发布文档按下载数降序、浏览数降序取前 limit 个。
// 用作冷启动兜底。Limit 为 0 时使用 rctx.Limit。
type Popular struct {
	Catalog core.Catalog
	Limit   int
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Popular) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	limit := r.Limit
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 {
		return nil, nil
	}
	filter := core.CatalogFilter{
		PublishedOnly: true,
		Order:         core.SortPopularity,
	}
	if rctx != nil {
		filter.ExcludeIDs = rctx.ExcludeIDs
	}
	return fetch(ctx, r.Catalog, r.Name(), filter, limit)
}
