package recall

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
	"github.com/rushteam/docrank/pkg/utils"
)

// 合并策略
const (
	MergePriority = "priority" // 按 ID 去重，保留 Sources 中靠前的来源
	MergeUnion    = "union"    // 不去重
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按 Sources 顺序合并结果。
// 例如 preference + popular：画像命中不足时由热门补齐候选。
//
// 任一召回源出错时整个 Node 返回该错误（协作方错误不被吞掉）。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间，0 表示不限制
	MaxConcurrent int           // 最大并发数，0 表示不限制
	MergeStrategy string        // priority（默认）/ union
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个来源写自己的槽位，合并时按 Sources 顺序，结果与调度顺序无关
	results := make([][]*core.Item, len(n.Sources))
	g, gctx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		g.SetLimit(n.MaxConcurrent)
	}
	for i, src := range n.Sources {
		g.Go(func() error {
			recallCtx := gctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(gctx, n.Timeout)
				defer cancel()
			}
			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				return err
			}
			for _, it := range items {
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if n.MergeStrategy == MergeUnion {
		var all []*core.Item
		for _, items := range results {
			all = append(all, items...)
		}
		return all, nil
	}
	return mergeByPriority(results), nil
}

// mergeByPriority 按 ID 去重：保留优先级最高（最靠前）的 Item，后出现的 Label 合并进去。
func mergeByPriority(results [][]*core.Item) []*core.Item {
	seen := make(map[string]*core.Item)
	var out []*core.Item
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if first, ok := seen[it.ID]; ok {
				for k, v := range it.Labels {
					first.PutLabel(k, v)
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out
}
