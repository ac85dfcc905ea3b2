package filter

import (
	"context"

	"github.com/rushteam/docrank/core"
)

// ExcludeFilter 过滤掉源文档、请求级排除列表（用户历史）以及未发布的文档。
// Catalog 已经做过同样的粗过滤，这里保证任何后端下结果都不包含源文档。
type ExcludeFilter struct{}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Doc == nil {
		return true, nil
	}
	if !item.Doc.Published {
		return true, nil
	}
	return rctx.Excluded(item.ID), nil
}
