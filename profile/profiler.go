// Package profile 把用户最近的交互记录聚合为偏好画像（类别/标签/关键词计数）。
package profile

import (
	"sort"

	"github.com/rushteam/docrank/core"
)

// DefaultWindow 是参与画像计算的最近事件数。
const DefaultWindow = 10

// Limits 是画像 TopN 的数量配置。
type Limits struct {
	Categories int `koanf:"categories" yaml:"categories" validate:"min=1"`
	Tags       int `koanf:"tags" yaml:"tags" validate:"min=1"`
	Keywords   int `koanf:"keywords" yaml:"keywords" validate:"min=1"`
}

// DefaultLimits 返回 3 个类别、10 个标签、15 个关键词。
func DefaultLimits() Limits {
	return Limits{Categories: 3, Tags: 10, Keywords: 15}
}

// Profiler 构建偏好画像；无状态，可并发使用。
type Profiler struct {
	Window int
	Limits Limits
}

func New(window int, limits Limits) *Profiler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Profiler{Window: window, Limits: limits}
}

// Build 选取最近 Window 条事件（时间倒序，时间相同保持输入顺序），对事件对应文档的
// 类别、每个标签、每个关键词计数。重复消费会被重复计数；找不到文档的事件被跳过。
// 历史为空时返回空画像。
func (p *Profiler) Build(events []core.InteractionEvent, docs map[string]*core.Document) *core.PreferenceProfile {
	profile := core.NewPreferenceProfile()
	for _, ev := range p.Recent(events) {
		doc, ok := docs[ev.ItemID]
		if !ok || doc == nil {
			continue
		}
		profile.Categories.Inc(doc.Category)
		for _, tag := range doc.Tags {
			profile.Tags.Inc(tag)
		}
		for _, kw := range doc.Keywords() {
			profile.Keywords.Inc(kw)
		}
	}
	return profile
}

// Recent 返回最近的至多 Window 条事件。
func (p *Profiler) Recent(events []core.InteractionEvent) []core.InteractionEvent {
	sorted := make([]core.InteractionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	window := p.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(sorted) > window {
		sorted = sorted[:window]
	}
	return sorted
}

// Top 返回画像的 TopN 类别、标签、关键词。
func (p *Profiler) Top(profile *core.PreferenceProfile) (categories, tags, keywords []string) {
	if profile == nil {
		return nil, nil, nil
	}
	return profile.Categories.TopN(p.Limits.Categories),
		profile.Tags.TopN(p.Limits.Tags),
		profile.Keywords.TopN(p.Limits.Keywords)
}

// ItemIDs 返回事件涉及的文档 ID（去重，保持首次出现顺序）。
func ItemIDs(events []core.InteractionEvent) []string {
	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.ItemID]; ok {
			continue
		}
		seen[ev.ItemID] = struct{}{}
		ids = append(ids, ev.ItemID)
	}
	return ids
}
