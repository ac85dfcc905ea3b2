package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/rushteam/docrank/core"
)

// PostgresSchema 是 PostgresCatalog / PostgresHistory 期望的表结构。
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL,
	tags           TEXT[] NOT NULL DEFAULT '{}',
	has_analysis   BOOLEAN NOT NULL DEFAULT FALSE,
	keywords       TEXT[] NOT NULL DEFAULT '{}',
	language       TEXT NOT NULL DEFAULT '',
	summary        TEXT NOT NULL DEFAULT '',
	word_count     INTEGER NOT NULL DEFAULT 0,
	reading_time   INTEGER NOT NULL DEFAULT 0,
	price          DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_free        BOOLEAN NOT NULL DEFAULT FALSE,
	published      BOOLEAN NOT NULL DEFAULT FALSE,
	download_count BIGINT NOT NULL DEFAULT 0,
	view_count     BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS interactions (
	user_id    TEXT NOT NULL,
	item_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS interactions_user_time ON interactions (user_id, created_at DESC);
`

const documentColumns = `id, title, description, content, category, tags, has_analysis, keywords, language,
	summary, word_count, reading_time, price, is_free, published, download_count, view_count, created_at`

// PostgresCatalog 是基于 PostgreSQL 的 Catalog 实现，粗过滤在数据库中执行。
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// OpenPostgres 打开连接并 Ping 校验。
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate 创建表结构（幂等）。
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Put 按 ID upsert 文档。
func (c *PostgresCatalog) Put(ctx context.Context, docs ...*core.Document) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, doc := range docs {
		if doc == nil || doc.ID == "" {
			return core.InvalidInput(core.ModuleCatalog, "catalog: document id is required")
		}
		var analysis core.Analysis
		if doc.Analysis != nil {
			analysis = *doc.Analysis
		}
		tags := doc.Tags
		if tags == nil {
			tags = []string{}
		}
		keywords := analysis.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		_, err := tx.ExecContext(ctx, upsertDocument,
			doc.ID, doc.Title, doc.Description, doc.Content, doc.Category, pq.Array(tags),
			doc.Analysis != nil, pq.Array(keywords), analysis.Language, analysis.Summary,
			analysis.WordCount, analysis.ReadingTime,
			doc.Price, doc.IsFree, doc.Published, doc.DownloadCount, doc.ViewCount, doc.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}
	}
	return tx.Commit()
}

const upsertDocument = `INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title, description = EXCLUDED.description, content = EXCLUDED.content,
	category = EXCLUDED.category, tags = EXCLUDED.tags, has_analysis = EXCLUDED.has_analysis,
	keywords = EXCLUDED.keywords, language = EXCLUDED.language, summary = EXCLUDED.summary,
	word_count = EXCLUDED.word_count, reading_time = EXCLUDED.reading_time, price = EXCLUDED.price,
	is_free = EXCLUDED.is_free, published = EXCLUDED.published,
	download_count = EXCLUDED.download_count, view_count = EXCLUDED.view_count,
	created_at = EXCLUDED.created_at`

func (c *PostgresCatalog) FindByID(ctx context.Context, id string) (*core.Document, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
			fmt.Sprintf("catalog: document %q not found", id), err)
	}
	if err != nil {
		return nil, fmt.Errorf("find document %s: %w", id, err)
	}
	return doc, nil
}

func (c *PostgresCatalog) FindMany(ctx context.Context, filter core.CatalogFilter, limit int) ([]*core.Document, error) {
	query, args := buildFindQuery(filter, limit)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer rows.Close()

	var docs []*core.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (c *PostgresCatalog) Count(ctx context.Context, filter core.CatalogFilter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*core.Document, error) {
	var (
		doc         core.Document
		hasAnalysis bool
		analysis    core.Analysis
	)
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Description, &doc.Content, &doc.Category, pq.Array(&doc.Tags),
		&hasAnalysis, pq.Array(&analysis.Keywords), &analysis.Language, &analysis.Summary,
		&analysis.WordCount, &analysis.ReadingTime,
		&doc.Price, &doc.IsFree, &doc.Published, &doc.DownloadCount, &doc.ViewCount, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hasAnalysis {
		doc.Analysis = &analysis
	}
	return &doc, nil
}

// queryBuilder 维护 $n 占位符与参数。
type queryBuilder struct {
	conds []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// buildWhere 把 CatalogFilter 翻译为 WHERE 子句，语义与 core.CatalogFilter.Match 一致。
func buildWhere(f core.CatalogFilter) (string, []any) {
	b := &queryBuilder{}
	if f.PublishedOnly {
		b.conds = append(b.conds, "published = TRUE")
	}
	if f.Category != "" {
		b.conds = append(b.conds, "category = "+b.arg(f.Category))
	}
	if len(f.IDs) > 0 {
		b.conds = append(b.conds, "id = ANY("+b.arg(pq.Array(f.IDs))+")")
	}
	if len(f.ExcludeIDs) > 0 {
		b.conds = append(b.conds, "NOT (id = ANY("+b.arg(pq.Array(f.ExcludeIDs))+"))")
	}
	if f.HasAny() {
		var ors []string
		if len(f.AnyCategories) > 0 {
			ors = append(ors, "category = ANY("+b.arg(pq.Array(f.AnyCategories))+")")
		}
		if len(f.AnyTags) > 0 {
			ors = append(ors, "tags && "+b.arg(pq.Array(f.AnyTags)))
		}
		if len(f.AnyKeywords) > 0 {
			ors = append(ors, "(has_analysis AND keywords && "+b.arg(pq.Array(f.AnyKeywords))+")")
		}
		b.conds = append(b.conds, "("+strings.Join(ors, " OR ")+")")
	}
	if f.Text != "" {
		pattern := b.arg("%" + escapeLike(f.Text) + "%")
		tag := b.arg(f.Text)
		keyword := b.arg(strings.ToLower(f.Text))
		b.conds = append(b.conds, "(title ILIKE "+pattern+
			" OR description ILIKE "+pattern+
			" OR content ILIKE "+pattern+
			" OR summary ILIKE "+pattern+
			" OR "+tag+" = ANY(tags)"+
			" OR "+keyword+" = ANY(keywords))")
	}
	if len(b.conds) == 0 {
		return "", b.args
	}
	return " WHERE " + strings.Join(b.conds, " AND "), b.args
}

func buildFindQuery(f core.CatalogFilter, limit int) (string, []any) {
	where, args := buildWhere(f)
	var sb strings.Builder
	sb.WriteString("SELECT " + documentColumns + " FROM documents")
	sb.WriteString(where)
	sb.WriteString(" ORDER BY " + orderClause(f.Order))
	if limit > 0 {
		args = append(args, limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return sb.String(), args
}

func orderClause(o core.SortOrder) string {
	switch o {
	case core.SortPopularity:
		return "download_count DESC, view_count DESC, id ASC"
	case core.SortTitleAsc:
		return `title COLLATE "C" ASC, id ASC`
	default:
		return "created_at DESC, id ASC"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PostgresHistory 是基于 interactions 表的 History 实现。
type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(db *sql.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

// Record 追加一条交互事件。
func (h *PostgresHistory) Record(ctx context.Context, ev core.InteractionEvent) error {
	if ev.UserID == "" || ev.ItemID == "" {
		return core.InvalidInput(core.ModuleHistory, "history: user id and item id are required")
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO interactions (user_id, item_id, created_at) VALUES ($1, $2, $3)`,
		ev.UserID, ev.ItemID, ev.Timestamp)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

func (h *PostgresHistory) RecentForUser(ctx context.Context, userID string, n int) ([]core.InteractionEvent, error) {
	if userID == "" {
		return nil, core.InvalidInput(core.ModuleHistory, "history: user id is required")
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT user_id, item_id, created_at FROM interactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, n)
	if err != nil {
		return nil, fmt.Errorf("recent interactions: %w", err)
	}
	defer rows.Close()

	var events []core.InteractionEvent
	for rows.Next() {
		var ev core.InteractionEvent
		if err := rows.Scan(&ev.UserID, &ev.ItemID, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

var (
	_ core.Catalog = (*PostgresCatalog)(nil)
	_ core.History = (*PostgresHistory)(nil)
)
