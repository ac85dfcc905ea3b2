package core

import "github.com/rushteam/docrank/pkg/utils"

// Item 是推荐链路中的统一承载结构：文档、分数、理由、元信息、标签。
// Reasons 用于解释；Score 用于排序决策；Labels 记录链路（召回来源、排序模型、过滤原因）。
type Item struct {
	ID      string
	Score   float64
	Doc     *Document
	Reasons []Reason
	Meta    map[string]any
	Labels  map[string]utils.Label
}

func NewItem(doc *Document) *Item {
	it := &Item{
		Doc:    doc,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
	if doc != nil {
		it.ID = doc.ID
	}
	return it
}

// NewItems 按顺序把文档包装为 Item。
func NewItems(docs []*Document) []*Item {
	out := make([]*Item, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		out = append(out, NewItem(d))
	}
	return out
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Reason 渲染推荐理由，为空时使用 fallback。
func (it *Item) Reason(fallback Reason) string {
	return RenderReasons(it.Reasons, fallback)
}
