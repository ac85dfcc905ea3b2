package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/docrank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的 CEL 表达式，线程安全，可复用。
//
// 可用变量：
//   - item.id / item.score / item.doc.{id,title,category,tags,keywords,language,is_free,price,
//     published,download_count,view_count}
//   - label.<key>：label 的 value，例如 label.recall_source == "recall.similar"
//   - rctx.{user_id,scene,limit,params}
//
// 示例：
//   - `item.doc.is_free`
//   - `item.doc.download_count > 10 && item.doc.language == "vi"`
//   - `"visa" in item.doc.tags`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；空表达式恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 执行表达式，返回布尔结果。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil || p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 会报错，应先用 label.key != null 判断
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式，适合一次性判断。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return prg.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	itemMap := map[string]any{
		"id":    "",
		"score": 0.0,
		"doc":   map[string]any{},
	}
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		itemMap["id"] = item.ID
		itemMap["score"] = item.Score
		itemMap["doc"] = docMap(item.Doc)
	}

	rctxMap := map[string]any{
		"user_id": "",
		"scene":   "",
		"limit":   0,
		"params":  map[string]any{},
	}
	if rctx != nil {
		rctxMap["user_id"] = rctx.UserID
		rctxMap["scene"] = rctx.Scene
		rctxMap["limit"] = rctx.Limit
		if rctx.Params != nil {
			rctxMap["params"] = rctx.Params
		}
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}

func docMap(doc *core.Document) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	keywords := doc.Keywords()
	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		"id":             doc.ID,
		"title":          doc.Title,
		"category":       doc.Category,
		"tags":           tags,
		"keywords":       keywords,
		"language":       doc.Language(),
		"is_free":        doc.IsFree,
		"price":          doc.Price,
		"published":      doc.Published,
		"download_count": doc.DownloadCount,
		"view_count":     doc.ViewCount,
	}
}
