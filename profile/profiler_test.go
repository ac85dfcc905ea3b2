package profile

import (
	"reflect"
	"testing"
	"time"

	"github.com/rushteam/docrank/core"
)

func events(user string, base time.Time, ids ...string) []core.InteractionEvent {
	out := make([]core.InteractionEvent, len(ids))
	for i, id := range ids {
		out[i] = core.InteractionEvent{UserID: user, ItemID: id, Timestamp: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestProfiler_Recent(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	evs := events("u1", base, "a", "b", "c", "d")

	p := New(2, DefaultLimits())
	got := p.Recent(evs)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ItemID != "d" || got[1].ItemID != "c" {
		t.Errorf("recent = [%s %s], want [d c]", got[0].ItemID, got[1].ItemID)
	}
	if evs[0].ItemID != "a" {
		t.Error("Recent must not reorder its input")
	}
}

func TestProfiler_Build(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	docs := map[string]*core.Document{
		"d1": {ID: "d1", Category: "study", Tags: []string{"visa", "canada"}, Analysis: &core.Analysis{Keywords: []string{"permit"}}},
		"d2": {ID: "d2", Category: "work", Tags: []string{"visa"}},
	}

	tests := []struct {
		name           string
		ids            []string
		wantCategories []string
		wantTags       []string
		wantKeywords   []string
		visaCount      int
	}{
		{
			name:           "repeat consumption counts twice",
			ids:            []string{"d1", "d2", "d1"},
			wantCategories: []string{"study", "work"},
			wantTags:       []string{"visa", "canada"},
			wantKeywords:   []string{"permit"},
			visaCount:      3,
		},
		{
			name:           "missing documents skipped",
			ids:            []string{"gone", "d2"},
			wantCategories: []string{"work"},
			wantTags:       []string{"visa"},
			wantKeywords:   nil,
			visaCount:      1,
		},
		{
			name:      "empty history",
			ids:       nil,
			visaCount: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(0, DefaultLimits())
			profile := p.Build(events("u1", base, tt.ids...), docs)
			cats, tags, kws := p.Top(profile)
			if !reflect.DeepEqual(cats, tt.wantCategories) {
				t.Errorf("categories = %v, want %v", cats, tt.wantCategories)
			}
			if !reflect.DeepEqual(tags, tt.wantTags) {
				t.Errorf("tags = %v, want %v", tags, tt.wantTags)
			}
			if !reflect.DeepEqual(kws, tt.wantKeywords) {
				t.Errorf("keywords = %v, want %v", kws, tt.wantKeywords)
			}
			if got := profile.Tags.Get("visa"); got != tt.visaCount {
				t.Errorf("visa count = %d, want %d", got, tt.visaCount)
			}
		})
	}
}

func TestProfiler_TopLimits(t *testing.T) {
	profile := core.NewPreferenceProfile()
	for _, c := range []string{"a", "b", "c", "d", "a"} {
		profile.Categories.Inc(c)
	}
	cats, _, _ := New(0, DefaultLimits()).Top(profile)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(cats, want) {
		t.Errorf("Top categories = %v, want %v", cats, want)
	}
}

func TestItemIDs(t *testing.T) {
	evs := events("u", time.Now(), "a", "b", "a", "c")
	if got, want := ItemIDs(evs), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ItemIDs = %v, want %v", got, want)
	}
}
