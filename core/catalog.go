package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Catalog 是只读的文档目录（外部协作方）。
//
// 实现：
//   - store.DocumentCatalog：基于 KeyValueStore（内存 / Redis）
//   - store.PostgresCatalog：基于 PostgreSQL
//   - store.BreakerCatalog：为任意 Catalog 增加熔断
type Catalog interface {
	// FindByID 读取单个文档；不存在时返回 NOT_FOUND 的 DomainError。
	FindByID(ctx context.Context, id string) (*Document, error)

	// FindMany 按过滤条件读取至多 limit 个文档（limit <= 0 表示不限制），顺序由 filter.Order 决定。
	FindMany(ctx context.Context, filter CatalogFilter, limit int) ([]*Document, error)

	// Count 返回满足过滤条件的文档数。
	Count(ctx context.Context, filter CatalogFilter) (int, error)
}

// InteractionEvent 是一次历史消费记录（同一用户可多次消费同一文档）。
type InteractionEvent struct {
	UserID    string    `json:"userId" yaml:"user_id"`
	ItemID    string    `json:"itemId" yaml:"item_id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// History 是只读的用户交互历史（外部协作方）。
type History interface {
	// RecentForUser 返回用户最近的至多 n 条事件，按时间倒序。
	RecentForUser(ctx context.Context, userID string, n int) ([]InteractionEvent, error)
}

// SortOrder 是 FindMany 的排序方式。
type SortOrder int

const (
	// SortCreatedDesc 最近创建优先，同时间按 ID 升序（候选集截断策略）。
	SortCreatedDesc SortOrder = iota
	// SortPopularity 下载数降序，其次浏览数降序，再按 ID 升序。
	SortPopularity
	// SortTitleAsc 标题升序（搜索默认顺序），同标题按 ID 升序。
	SortTitleAsc
)

func (o SortOrder) String() string {
	switch o {
	case SortPopularity:
		return "popularity"
	case SortTitleAsc:
		return "title_asc"
	default:
		return "created_desc"
	}
}

// CatalogFilter 是粗过滤条件，由 Catalog 执行。
//
// 语义：
//   - PublishedOnly / Category / IDs / ExcludeIDs 之间为 AND
//   - AnyCategories、AnyTags、AnyKeywords 之间为 OR（任一命中即可）；三者都为空时不限制
//   - Text 非空时要求标题/描述/正文/摘要包含 Text（忽略大小写），或标签等于 Text，或关键词等于小写 Text
type CatalogFilter struct {
	PublishedOnly bool
	Category      string
	IDs           []string
	ExcludeIDs    []string

	AnyCategories []string
	AnyTags       []string
	AnyKeywords   []string

	Text string

	Order  SortOrder
	Offset int
}

// HasAny 判断是否配置了 OR 条件。
func (f CatalogFilter) HasAny() bool {
	return len(f.AnyCategories) > 0 || len(f.AnyTags) > 0 || len(f.AnyKeywords) > 0
}

// Match 在内存中判断文档是否满足过滤条件（不含排序与分页）。
// 供内存类 Catalog 实现复用；SQL 实现需保持相同语义。
func (f CatalogFilter) Match(doc *Document) bool {
	if doc == nil {
		return false
	}
	if f.PublishedOnly && !doc.Published {
		return false
	}
	if f.Category != "" && doc.Category != f.Category {
		return false
	}
	if len(f.IDs) > 0 && !contains(f.IDs, doc.ID) {
		return false
	}
	if contains(f.ExcludeIDs, doc.ID) {
		return false
	}
	if f.HasAny() && !f.matchAny(doc) {
		return false
	}
	if f.Text != "" && !matchText(doc, f.Text) {
		return false
	}
	return true
}

func (f CatalogFilter) matchAny(doc *Document) bool {
	if contains(f.AnyCategories, doc.Category) {
		return true
	}
	if overlaps(f.AnyTags, doc.Tags) {
		return true
	}
	return overlaps(f.AnyKeywords, doc.Keywords())
}

func matchText(doc *Document, text string) bool {
	q := Fold(text)
	summary := ""
	if doc.Analysis != nil {
		summary = doc.Analysis.Summary
	}
	for _, field := range []string{doc.Title, doc.Description, doc.Content, summary} {
		if strings.Contains(Fold(field), q) {
			return true
		}
	}
	if contains(doc.Tags, text) {
		return true
	}
	return contains(doc.Keywords(), strings.ToLower(text))
}

// Fold 把文本归一化（NFC）并转为小写，用于忽略大小写的包含判断。
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// SortDocuments 按 SortOrder 原地稳定排序。
func SortDocuments(docs []*Document, order SortOrder) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		switch order {
		case SortPopularity:
			if a.DownloadCount != b.DownloadCount {
				return a.DownloadCount > b.DownloadCount
			}
			if a.ViewCount != b.ViewCount {
				return a.ViewCount > b.ViewCount
			}
		case SortTitleAsc:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

// Page 对已排序的结果做 offset/limit 截取（limit <= 0 表示不限制）。
func Page(docs []*Document, offset, limit int) []*Document {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return nil
	}
	docs = docs[offset:]
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := StringSet(a)
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
