// Package store 提供 core.Store / core.KeyValueStore 的实现（内存、Redis），
// 以及构建在其上的 Catalog / History 协作方实现（KV、PostgreSQL、熔断包装）。
//
// 示例：
//
//	kv := store.NewMemoryStore()
//	catalog := store.NewDocumentCatalog(kv, "docrank")
//	history := store.NewEventHistory(kv, "docrank")
package store
