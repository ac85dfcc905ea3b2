package search

import (
	"reflect"
	"testing"

	"github.com/rushteam/docrank/core"
)

func TestScorer_Score(t *testing.T) {
	s := NewScorer(DefaultWeights())
	tests := []struct {
		name        string
		doc         *core.Document
		query       string
		want        int
		wantMatched []string
	}{
		{
			name: "title and keyword",
			doc: &core.Document{
				Title:    "Hướng dẫn Canada",
				Analysis: &core.Analysis{Keywords: []string{"canada", "visa"}},
			},
			query:       "canada",
			want:        18,
			wantMatched: []string{"canada"},
		},
		{
			name:  "title only",
			doc:   &core.Document{Title: "Canada guide"},
			query: "canada",
			want:  10,
		},
		{
			name:  "title and tag",
			doc:   &core.Document{Title: "Canada guide", Tags: []string{"canada-visa", "canada"}},
			query: "canada",
			want:  16,
		},
		{
			name: "every field",
			doc: &core.Document{
				Title:       "visa",
				Description: "visa",
				Content:     "visa",
				Tags:        []string{"visa"},
				Analysis:    &core.Analysis{Keywords: []string{"visa"}},
			},
			query:       "VISA",
			want:        31,
			wantMatched: []string{"visa"},
		},
		{
			name:        "keyword contained in query",
			doc:         &core.Document{Analysis: &core.Analysis{Keywords: []string{"visa", "permit"}}},
			query:       "visa canada",
			want:        8,
			wantMatched: []string{"visa"},
		},
		{
			name:  "vietnamese case folding",
			doc:   &core.Document{Description: "HƯỚNG DẪN du học"},
			query: "hướng dẫn",
			want:  5,
		},
		{
			name:  "no match",
			doc:   &core.Document{Title: "Germany"},
			query: "canada",
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := s.Score(tt.doc, tt.query)
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
			if !reflect.DeepEqual(matched, tt.wantMatched) {
				t.Errorf("matched = %v, want %v", matched, tt.wantMatched)
			}
		})
	}
}
