package store

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/docrank/core"
)

// DocumentCatalog 是基于 KeyValueStore 的 Catalog 实现。
// 文档以 JSON 保存在 Hash {prefix}:docs 中（field = 文档 ID）。
// 过滤、排序、分页在内存中完成，语义与 core.CatalogFilter.Match 一致。
type DocumentCatalog struct {
	kv     core.KeyValueStore
	prefix string
}

func NewDocumentCatalog(kv core.KeyValueStore, prefix string) *DocumentCatalog {
	if prefix == "" {
		prefix = "docrank"
	}
	return &DocumentCatalog{kv: kv, prefix: prefix}
}

func (c *DocumentCatalog) docsKey() string { return c.prefix + ":docs" }

// Put 写入或覆盖文档（索引/导入时使用，引擎本身只读）。
func (c *DocumentCatalog) Put(ctx context.Context, docs ...*core.Document) error {
	for _, doc := range docs {
		if doc == nil || doc.ID == "" {
			return core.InvalidInput(core.ModuleCatalog, "catalog: document id is required")
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
		if err := c.kv.HSet(ctx, c.docsKey(), doc.ID, data); err != nil {
			return fmt.Errorf("put document %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (c *DocumentCatalog) FindByID(ctx context.Context, id string) (*core.Document, error) {
	data, err := c.kv.HGet(ctx, c.docsKey(), id)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
				fmt.Sprintf("catalog: document %q not found", id), err)
		}
		return nil, err
	}
	var doc core.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &doc, nil
}

func (c *DocumentCatalog) FindMany(ctx context.Context, filter core.CatalogFilter, limit int) ([]*core.Document, error) {
	docs, err := c.match(ctx, filter)
	if err != nil {
		return nil, err
	}
	core.SortDocuments(docs, filter.Order)
	return core.Page(docs, filter.Offset, limit), nil
}

func (c *DocumentCatalog) Count(ctx context.Context, filter core.CatalogFilter) (int, error) {
	docs, err := c.match(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (c *DocumentCatalog) match(ctx context.Context, filter core.CatalogFilter) ([]*core.Document, error) {
	raw, err := c.load(ctx, filter.IDs)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Document, 0, len(raw))
	for id, data := range raw {
		var doc core.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		if filter.Match(&doc) {
			out = append(out, &doc)
		}
	}
	return out, nil
}

// load 读取候选文档：指定 ids 时逐个 HGet（不存在的跳过），否则 HGetAll。
func (c *DocumentCatalog) load(ctx context.Context, ids []string) (map[string][]byte, error) {
	if len(ids) == 0 {
		return c.kv.HGetAll(ctx, c.docsKey())
	}
	out := make(map[string][]byte, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		data, err := c.kv.HGet(ctx, c.docsKey(), id)
		if core.IsStoreNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = data
	}
	return out, nil
}

var _ core.Catalog = (*DocumentCatalog)(nil)
