package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/docrank/core"
)

// Seed 是导入文件的内容：文档与交互事件。
type Seed struct {
	Documents    []*core.Document        `json:"documents" yaml:"documents"`
	Interactions []core.InteractionEvent `json:"interactions" yaml:"interactions"`
}

// LoadSeed 读取 YAML（.yaml/.yml）或 JSON 导入文件。
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &seed)
	default:
		err = json.Unmarshal(data, &seed)
	}
	if err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return &seed, nil
}

// DocumentWriter 写入文档（DocumentCatalog、PostgresCatalog）。
type DocumentWriter interface {
	Put(ctx context.Context, docs ...*core.Document) error
}

// EventRecorder 写入交互事件（EventHistory、PostgresHistory）。
type EventRecorder interface {
	Record(ctx context.Context, ev core.InteractionEvent) error
}

// Apply 把导入内容写入 Catalog 与 History；history 为 nil 时忽略交互事件。
func (s *Seed) Apply(ctx context.Context, catalog DocumentWriter, history EventRecorder) error {
	if err := catalog.Put(ctx, s.Documents...); err != nil {
		return fmt.Errorf("put documents: %w", err)
	}
	if history == nil {
		return nil
	}
	for _, ev := range s.Interactions {
		if err := history.Record(ctx, ev); err != nil {
			return fmt.Errorf("record interaction %s/%s: %w", ev.UserID, ev.ItemID, err)
		}
	}
	return nil
}
