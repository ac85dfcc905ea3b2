package core

import (
	"strconv"
	"strings"
)

// ReasonKind 是推荐理由的类别。
type ReasonKind int

const (
	ReasonSameCategory ReasonKind = iota + 1
	ReasonSharedTags
	ReasonSharedKeywords
	ReasonBasedOnInterests
	ReasonSimilarTopics
	ReasonRelatedContent
	ReasonPopularDocument
	ReasonPopularContent
	ReasonSimilarContent
)

// Reason 是带标签的推荐理由；Count 只对 SharedTags / SharedKeywords 有意义。
// 打分逻辑只产出 Reason，展示文本在边界处由 String / RenderReasons 生成。
type Reason struct {
	Kind  ReasonKind
	Count int
}

func SameCategory() Reason         { return Reason{Kind: ReasonSameCategory} }
func SharedTags(n int) Reason      { return Reason{Kind: ReasonSharedTags, Count: n} }
func SharedKeywords(n int) Reason  { return Reason{Kind: ReasonSharedKeywords, Count: n} }
func BasedOnInterests() Reason     { return Reason{Kind: ReasonBasedOnInterests} }
func SimilarTopics() Reason        { return Reason{Kind: ReasonSimilarTopics} }
func RelatedContent() Reason       { return Reason{Kind: ReasonRelatedContent} }
func PopularDocument() Reason      { return Reason{Kind: ReasonPopularDocument} }
func PopularContent() Reason       { return Reason{Kind: ReasonPopularContent} }
func SimilarContent() Reason       { return Reason{Kind: ReasonSimilarContent} }

func (r Reason) String() string {
	switch r.Kind {
	case ReasonSameCategory:
		return "same category"
	case ReasonSharedTags:
		return strconv.Itoa(r.Count) + " shared tags"
	case ReasonSharedKeywords:
		return strconv.Itoa(r.Count) + " shared keywords"
	case ReasonBasedOnInterests:
		return "based on your interests"
	case ReasonSimilarTopics:
		return "similar topics"
	case ReasonRelatedContent:
		return "related content"
	case ReasonPopularDocument:
		return "popular document"
	case ReasonPopularContent:
		return "popular content"
	case ReasonSimilarContent:
		return "similar content"
	default:
		return ""
	}
}

// ReasonStrings 按顺序渲染理由列表。
func ReasonStrings(reasons []Reason) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if s := r.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RenderReasons 把理由拼接为展示文本（", " 分隔）；为空时使用 fallback。
func RenderReasons(reasons []Reason, fallback Reason) string {
	parts := ReasonStrings(reasons)
	if len(parts) == 0 {
		return fallback.String()
	}
	return strings.Join(parts, ", ")
}
