package analysis

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/docrank/core"
)

func TestProcessor_Keywords(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "frequency then first seen",
			text:  "Visa visa CANADA permit canada visa",
			limit: 10,
			want:  []string{"visa", "canada", "permit"},
		},
		{
			name:  "stopwords and short words removed",
			text:  "the visa is for an ox and the permit",
			limit: 10,
			want:  []string{"visa", "permit"},
		},
		{
			name:  "punctuation trimmed",
			text:  "(visa), visa! \"permit\"",
			limit: 10,
			want:  []string{"visa", "permit"},
		},
		{
			name:  "vietnamese stopwords",
			text:  "hướng dẫn của visa và visa",
			limit: 2,
			want:  []string{"visa", "hướng"},
		},
		{
			name:  "limit",
			text:  "alpha beta gamma alpha",
			limit: 1,
			want:  []string{"alpha"},
		},
		{
			name:  "empty",
			text:  "",
			limit: 10,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Keywords(tt.text, tt.limit); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Keywords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Hướng dẫn du học Canada", "vi"},
		{"ĐẠI HỌC", "vi"},
		{"Study permit guide", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	text := strings.Repeat("word ", 251)

	a := p.Process(text)
	if a.WordCount != 251 {
		t.Errorf("WordCount = %d, want 251", a.WordCount)
	}
	if a.ReadingTime != 2 {
		t.Errorf("ReadingTime = %d, want 2", a.ReadingTime)
	}
	if a.Language != "en" {
		t.Errorf("Language = %q", a.Language)
	}
	if !reflect.DeepEqual(a.Keywords, []string{"word"}) {
		t.Errorf("Keywords = %v", a.Keywords)
	}
	if empty := p.Process(""); empty.ReadingTime != 0 || empty.WordCount != 0 {
		t.Errorf("empty = %+v", empty)
	}
}

func TestProcessor_Summary(t *testing.T) {
	p := NewProcessor(DefaultConfig())

	short := "Canada visa guide. Study permit steps."
	if got := p.Summary(short); got != short {
		t.Errorf("short text should be returned as is, got %q", got)
	}

	text := "Filler sentence here okay. " +
		"Canada visa rules for canada students. " +
		"Another filler line appears. " +
		"Canada visa canada permit canada. " +
		"Random closing words."
	got := p.Summary(text)
	want := "Canada visa rules for canada students Canada visa canada permit canada Filler sentence here okay"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestProcessor_AnalyzeDocument(t *testing.T) {
	p := NewProcessor(Config{})
	src := &core.Document{ID: "d1", Title: "Visa Canada", Description: "Visa guide"}
	out := p.AnalyzeDocument(src)
	if src.Analysis != nil {
		t.Fatal("AnalyzeDocument must not modify its input")
	}
	if out.ID != "d1" || out.Analysis == nil {
		t.Fatalf("out = %+v", out)
	}
	if out.Analysis.Keywords[0] != "visa" {
		t.Errorf("Keywords = %v", out.Analysis.Keywords)
	}
	if p.AnalyzeDocument(nil) != nil {
		t.Error("nil document should stay nil")
	}
}
