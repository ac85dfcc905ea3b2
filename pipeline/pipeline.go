package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/docrank/core"
)

// Observer 在每个 Node 执行后回调，用于打点（耗时、输出数量、错误）。
type Observer func(pipeline string, node Node, took time.Duration, out int, err error)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：Recall → Filter → Rank → ReRank。
type Pipeline struct {
	Name     string
	Nodes    []Node
	Observer Observer
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if p.Observer != nil {
			p.Observer(p.Name, node, time.Since(start), len(next), err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
