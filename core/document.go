package core

import "time"

// Document 是目录中的一条内容（文档）。
// 引擎只读取 Document，不会修改。
type Document struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Content     string    `json:"content,omitempty" yaml:"content"`
	Category    string    `json:"category" yaml:"category"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Analysis    *Analysis `json:"analysis,omitempty" yaml:"analysis"`

	Price     float64 `json:"price" yaml:"price"`
	IsFree    bool    `json:"isFree" yaml:"is_free"`
	Published bool    `json:"published" yaml:"published"`

	DownloadCount int64     `json:"downloadCount" yaml:"download_count"`
	ViewCount     int64     `json:"viewCount" yaml:"view_count"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
}

// Analysis 是文本分析结果（关键词、语言、摘要等），可能不存在。
type Analysis struct {
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Language    string   `json:"language,omitempty" yaml:"language"`
	Summary     string   `json:"summary,omitempty" yaml:"summary"`
	WordCount   int      `json:"wordCount,omitempty" yaml:"word_count"`
	ReadingTime int      `json:"readingTime,omitempty" yaml:"reading_time"`
}

// Keywords 返回关键词；没有分析数据时返回 nil。
func (d *Document) Keywords() []string {
	if d == nil || d.Analysis == nil {
		return nil
	}
	return d.Analysis.Keywords
}

// Language 返回语言代码；未知时返回空串。
func (d *Document) Language() string {
	if d == nil || d.Analysis == nil {
		return ""
	}
	return d.Analysis.Language
}

// HasKeywords 判断是否存在可用于相似度计算的关键词。
func (d *Document) HasKeywords() bool {
	return len(d.Keywords()) > 0
}

// StringSet 把切片折叠为集合（去重，忽略顺序）。
func StringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// CountCommon 返回两个集合的交集大小。
func CountCommon(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
