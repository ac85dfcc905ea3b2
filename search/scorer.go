// Package search 实现自由文本搜索：目录粗过滤 + 查询相关性打分 + 分页与联想词。
package search

import (
	"strings"

	"github.com/rushteam/docrank/core"
)

// Weights 是各字段命中时的得分。
type Weights struct {
	Title       int `koanf:"title" yaml:"title" validate:"min=0"`
	Keyword     int `koanf:"keyword" yaml:"keyword" validate:"min=0"`
	Tag         int `koanf:"tag" yaml:"tag" validate:"min=0"`
	Description int `koanf:"description" yaml:"description" validate:"min=0"`
	Content     int `koanf:"content" yaml:"content" validate:"min=0"`
}

// DefaultWeights 标题 10、关键词 8、标签 6、描述 5、正文 2。
func DefaultWeights() Weights {
	return Weights{Title: 10, Keyword: 8, Tag: 6, Description: 5, Content: 2}
}

// Scorer 计算文档与查询的相关性，纯函数，可并发使用。
type Scorer struct {
	Weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{Weights: w}
}

// Score 返回相关性得分与命中的关键词（按文档关键词顺序）。
//
// 各字段只计一次：
//   - 标题 / 描述 / 正文包含查询
//   - 任一关键词包含查询或被查询包含（双向）
//   - 任一标签包含查询
func (s *Scorer) Score(doc *core.Document, query string) (int, []string) {
	if doc == nil {
		return 0, nil
	}
	q := core.Fold(query)
	if q == "" {
		return 0, nil
	}

	score := 0
	if strings.Contains(core.Fold(doc.Title), q) {
		score += s.Weights.Title
	}
	if strings.Contains(core.Fold(doc.Description), q) {
		score += s.Weights.Description
	}

	var matched []string
	for _, kw := range doc.Keywords() {
		k := core.Fold(kw)
		if k == "" {
			continue
		}
		if strings.Contains(k, q) || strings.Contains(q, k) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		score += s.Weights.Keyword
	}

	if strings.Contains(core.Fold(doc.Content), q) {
		score += s.Weights.Content
	}
	for _, tag := range doc.Tags {
		if strings.Contains(core.Fold(tag), q) {
			score += s.Weights.Tag
			break
		}
	}
	return score, matched
}
