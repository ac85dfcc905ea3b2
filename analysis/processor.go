// Package analysis 对文档正文做轻量文本分析：关键词、语言、摘要、字数与阅读时长。
// 结果写入 core.Analysis，供相似度与搜索使用。
package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rushteam/docrank/core"
)

// Config 是文本分析参数。
type Config struct {
	Stopwords        []string `koanf:"stopwords" yaml:"stopwords"`
	KeywordLimit     int      `koanf:"keyword_limit" yaml:"keyword_limit" validate:"min=1"`
	MinWordLength    int      `koanf:"min_word_length" yaml:"min_word_length" validate:"min=1"`
	WordsPerMinute   int      `koanf:"words_per_minute" yaml:"words_per_minute" validate:"min=1"`
	SummarySentences int      `koanf:"summary_sentences" yaml:"summary_sentences" validate:"min=1"`
}

// DefaultConfig 返回默认参数：英语 + 越南语停用词，10 个关键词，词长 >= 3，每分钟 250 词，3 句摘要。
func DefaultConfig() Config {
	stopwords := make([]string, 0, len(EnglishStopwords)+len(VietnameseStopwords))
	stopwords = append(stopwords, EnglishStopwords...)
	stopwords = append(stopwords, VietnameseStopwords...)
	return Config{
		Stopwords:        stopwords,
		KeywordLimit:     10,
		MinWordLength:    3,
		WordsPerMinute:   250,
		SummarySentences: 3,
	}
}

var (
	EnglishStopwords = []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "he", "in", "is",
		"it", "its", "of", "on", "that", "the", "to", "was", "will", "with",
	}
	VietnameseStopwords = []string{
		"và", "của", "có", "là", "trong", "với", "để", "được", "một", "các", "này", "đó", "như",
		"từ", "cho", "về", "theo", "khi", "đã", "sẽ", "bằng", "những", "tại", "sau", "trước",
		"đến", "đang", "làm", "ra", "nhiều", "hơn", "cũng", "lại", "đây", "đấy", "thì", "vào",
		"mà", "chỉ", "nếu", "phải", "nào", "đều", "rất", "còn", "người", "năm", "thế",
	}
)

const vietnameseLetters = "àáạảãâầấậẩẫăằắặẳẵèéẹẻẽêềếệểễìíịỉĩòóọỏõôồốộổỗơờớợởỡùúụủũưừứựửữỳýỵỷỹđ"

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Processor 是无状态的文本分析器，可并发使用。
type Processor struct {
	cfg       Config
	stopwords map[string]struct{}
}

func NewProcessor(cfg Config) *Processor {
	def := DefaultConfig()
	if cfg.Stopwords == nil {
		cfg.Stopwords = def.Stopwords
	}
	if cfg.KeywordLimit <= 0 {
		cfg.KeywordLimit = def.KeywordLimit
	}
	if cfg.MinWordLength <= 0 {
		cfg.MinWordLength = def.MinWordLength
	}
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = def.WordsPerMinute
	}
	if cfg.SummarySentences <= 0 {
		cfg.SummarySentences = def.SummarySentences
	}
	stop := make(map[string]struct{}, len(cfg.Stopwords))
	for _, w := range cfg.Stopwords {
		stop[core.Fold(w)] = struct{}{}
	}
	return &Processor{cfg: cfg, stopwords: stop}
}

// Process 分析文本。
func (p *Processor) Process(text string) *core.Analysis {
	clean := Clean(text)
	words := len(strings.Fields(clean))
	return &core.Analysis{
		Keywords:    p.Keywords(clean, p.cfg.KeywordLimit),
		Language:    DetectLanguage(clean),
		Summary:     p.Summary(clean),
		WordCount:   words,
		ReadingTime: int(math.Ceil(float64(words) / float64(p.cfg.WordsPerMinute))),
	}
}

// AnalyzeDocument 分析标题、描述与正文，返回带分析结果的文档副本。
func (p *Processor) AnalyzeDocument(doc *core.Document) *core.Document {
	if doc == nil {
		return nil
	}
	out := *doc
	out.Analysis = p.Process(strings.Join([]string{doc.Title, doc.Description, doc.Content}, "\n"))
	return &out
}

// Clean 把连续空白折叠为单个空格。
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Keywords 按词频返回至多 limit 个关键词：小写、去停用词、词长不小于 MinWordLength；
// 词频相同按首次出现顺序。
func (p *Processor) Keywords(text string, limit int) []string {
	freq := core.NewWeightMap()
	for _, w := range p.tokens(text) {
		if utf8.RuneCountInString(w) < p.cfg.MinWordLength {
			continue
		}
		freq.Inc(w)
	}
	return freq.TopN(limit)
}

// Summary 抽取式摘要：按句子中命中 Top20 关键词的次数选出 SummarySentences 句。
// 句子数不超过上限时返回原文。
func (p *Processor) Summary(text string) string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > 10 {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) <= p.cfg.SummarySentences {
		return text
	}

	top := core.StringSet(p.Keywords(text, 20))
	type scored struct {
		sentence string
		score    int
	}
	ranked := make([]scored, 0, len(sentences))
	for _, s := range sentences {
		n := 0
		for _, w := range p.tokens(s) {
			if _, ok := top[w]; ok {
				n++
			}
		}
		ranked = append(ranked, scored{sentence: s, score: n})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]string, 0, p.cfg.SummarySentences)
	for _, r := range ranked[:p.cfg.SummarySentences] {
		out = append(out, r.sentence)
	}
	return strings.Join(out, " ")
}

// tokens 返回小写、去除首尾标点、去停用词后的词。
func (p *Processor) tokens(text string) []string {
	fields := strings.Fields(core.Fold(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) })
		if f == "" {
			continue
		}
		if _, stop := p.stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DetectLanguage 出现越南语字母时返回 "vi"，否则返回 "en"。
func DetectLanguage(text string) string {
	if strings.ContainsAny(core.Fold(text), vietnameseLetters) {
		return "vi"
	}
	return "en"
}
