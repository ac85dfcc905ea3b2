package core

import "testing"

func TestReason_String(t *testing.T) {
	tests := []struct {
		reason Reason
		want   string
	}{
		{SameCategory(), "same category"},
		{SharedTags(1), "1 shared tags"},
		{SharedKeywords(3), "3 shared keywords"},
		{BasedOnInterests(), "based on your interests"},
		{SimilarTopics(), "similar topics"},
		{RelatedContent(), "related content"},
		{PopularDocument(), "popular document"},
		{PopularContent(), "popular content"},
		{SimilarContent(), "similar content"},
		{Reason{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.reason.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderReasons(t *testing.T) {
	tests := []struct {
		name     string
		reasons  []Reason
		fallback Reason
		want     string
	}{
		{
			name:     "joined in order",
			reasons:  []Reason{SameCategory(), SharedTags(1), SharedKeywords(1)},
			fallback: SimilarContent(),
			want:     "same category, 1 shared tags, 1 shared keywords",
		},
		{
			name:     "empty uses fallback",
			reasons:  nil,
			fallback: PopularContent(),
			want:     "popular content",
		},
		{
			name:     "unknown kinds skipped",
			reasons:  []Reason{{}, SimilarTopics()},
			fallback: SimilarContent(),
			want:     "similar topics",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderReasons(tt.reasons, tt.fallback); got != tt.want {
				t.Errorf("RenderReasons() = %q, want %q", got, tt.want)
			}
		})
	}
}
