package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/docrank/core"
)

func TestPreferenceScorer_Raw(t *testing.T) {
	scorer := NewPreferenceScorer(DefaultPreferenceWeights())
	profile := core.NewPreferenceProfile()
	profile.Categories.Add("study", 3)
	topTags := []string{"visa", "canada"}
	topKeywords := []string{"permit"}

	tests := []struct {
		name   string
		doc    *core.Document
		want   float64
		reason string
	}{
		{
			name: "all signals",
			doc: &core.Document{
				Category:      "study",
				Tags:          []string{"visa", "canada"},
				Analysis:      &core.Analysis{Keywords: []string{"permit"}},
				DownloadCount: 0,
			},
			want:   0.4*3 + 0.3*2 + 0.2*1,
			reason: "based on your interests, similar topics, related content",
		},
		{
			name:   "downloads only",
			doc:    &core.Document{Category: "work", DownloadCount: 99},
			want:   0.1 * math.Log(100),
			reason: "popular content",
		},
		{
			name:   "negative downloads treated as zero",
			doc:    &core.Document{Category: "work", DownloadCount: -5},
			want:   0,
			reason: "popular content",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reasons := scorer.Raw(profile, topTags, topKeywords, tt.doc)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Raw() = %v, want %v", got, tt.want)
			}
			if r := core.RenderReasons(reasons, core.PopularContent()); r != tt.reason {
				t.Errorf("reasons = %q, want %q", r, tt.reason)
			}
		})
	}
}

func TestPreferenceScorer_Normalize(t *testing.T) {
	scorer := NewPreferenceScorer(DefaultPreferenceWeights())
	tests := []struct {
		raw, want float64
	}{
		{0, 0},
		{2, 0.2},
		{10, 1},
		{25, 1},
	}
	for _, tt := range tests {
		if got := scorer.Normalize(tt.raw); math.Abs(got-tt.want) > epsilon {
			t.Errorf("Normalize(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestPreferenceNode_Process(t *testing.T) {
	profile := core.NewPreferenceProfile()
	profile.Categories.Inc("study")
	rctx := &core.RecommendContext{
		Profile:     profile,
		TopTags:     []string{"visa"},
		TopKeywords: nil,
	}
	items := core.NewItems([]*core.Document{
		{ID: "other", Category: "work"},
		{ID: "match", Category: "study", Tags: []string{"visa"}},
	})

	out, err := (&PreferenceNode{}).Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].ID != "match" {
		t.Fatalf("first = %s, want match", out[0].ID)
	}
	if want := (0.4 + 0.3) / 10; math.Abs(out[0].Score-want) > epsilon {
		t.Errorf("score = %v, want %v", out[0].Score, want)
	}
	if raw, ok := out[0].Meta["raw_score"].(float64); !ok || math.Abs(raw-0.7) > epsilon {
		t.Errorf("raw_score = %v", out[0].Meta["raw_score"])
	}
	if got := out[1].Reason(core.PopularContent()); got != "popular content" {
		t.Errorf("reason = %q, want popular content", got)
	}
	for _, it := range out {
		if it.Score < 0 || it.Score > 1 {
			t.Errorf("score %v out of [0,1]", it.Score)
		}
	}
}
