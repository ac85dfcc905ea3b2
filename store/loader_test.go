package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const seedYAML = `
documents:
  - id: d1
    title: Canada study permit
    category: study
    tags: [visa, canada]
    published: true
    download_count: 12
    analysis:
      keywords: [canada, permit]
      language: en
interactions:
  - user_id: u1
    item_id: d1
    timestamp: 2024-03-01T10:00:00Z
`

func TestLoadSeedAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	if len(seed.Documents) != 1 || len(seed.Interactions) != 1 {
		t.Fatalf("seed = %+v", seed)
	}
	if kw := seed.Documents[0].Keywords(); len(kw) != 2 || kw[0] != "canada" {
		t.Errorf("keywords = %v", kw)
	}

	ctx := context.Background()
	kv := NewMemoryStore()
	defer kv.Close()
	catalog := NewDocumentCatalog(kv, "")
	history := NewEventHistory(kv, "")
	if err := seed.Apply(ctx, catalog, history); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	doc, err := catalog.FindByID(ctx, "d1")
	if err != nil || doc.DownloadCount != 12 {
		t.Errorf("FindByID() = %+v, %v", doc, err)
	}
	events, err := history.RecentForUser(ctx, "u1", 10)
	if err != nil || len(events) != 1 {
		t.Errorf("RecentForUser() = %v, %v", events, err)
	}
}

func TestLoadSeed_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	data := `{"documents":[{"id":"d1","title":"T","category":"c","published":true}],"interactions":[]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	if len(seed.Documents) != 1 || !seed.Documents[0].Published {
		t.Errorf("seed = %+v", seed)
	}
}
