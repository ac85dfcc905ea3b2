package filter

import (
	"context"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式决定是否保留候选：表达式为 true 时保留。
//
// 示例：
//   - `item.doc.is_free` → 只推荐免费文档
//   - `item.doc.language == "vi"` → 只推荐越南语文档
//   - `!(item.doc.category in ["draft", "internal"])`
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式；表达式非法时返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
