package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/docrank/pipeline"
)

// 使用配置驱动时，需在入口处 import _ "github.com/rushteam/docrank/config/builders"
// 以触发内置 Node（recall.similar、rank.similarity、filter、rerank.topn 等）的 init 注册。

// NodeBuilder 与 pipeline.NodeBuilder 一致。
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，通常在 init 中调用。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回已注册的 Node 类型（排序）。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	return supportedLocked()
}

// DefaultFactory 返回包含所有已注册 Node 类型的 NodeFactory，deps 注入到每个构建器。
func DefaultFactory(deps pipeline.Deps) *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory(deps)
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验所有 Pipeline 的 Node 类型均已注册。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, spec := range cfg.Pipelines {
		if spec.Name == "" {
			return fmt.Errorf("pipeline name is required")
		}
		for _, nc := range spec.Nodes {
			if _, ok := defaultBuilders[nc.Type]; !ok {
				return fmt.Errorf("pipeline %s: unsupported node type %q (supported: %v)",
					spec.Name, nc.Type, supportedLocked())
			}
		}
	}
	return nil
}

func supportedLocked() []string {
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// BuildPipelines 校验并构建配置中的所有 Pipeline，按名称返回。
func BuildPipelines(cfg *pipeline.Config, deps pipeline.Deps) (map[string]*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	factory := DefaultFactory(deps)
	out := make(map[string]*pipeline.Pipeline)
	if cfg == nil {
		return out, nil
	}
	for _, spec := range cfg.Pipelines {
		p, err := spec.Build(factory)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", spec.Name, err)
		}
		out[spec.Name] = p
	}
	return out, nil
}
