package store

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/docrank/core"
)

// BreakerConfig 配置 Catalog / History 的熔断行为。
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // 半开状态允许的请求数
	Interval         time.Duration // 关闭状态下清零计数的周期
	Timeout          time.Duration // 打开状态持续时间
	FailureThreshold uint32        // 连续失败次数达到阈值后打开
	OnStateChange    func(name string, from, to gobreaker.State)
}

func (c BreakerConfig) settings() gobreaker.Settings {
	threshold := c.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.Settings{
		Name:        c.Name,
		MaxRequests: c.MaxRequests,
		Interval:    c.Interval,
		Timeout:     c.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: c.OnStateChange,
		// 业务错误（不存在、参数错误）与调用方取消不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil ||
				core.IsNotFound(err) ||
				core.IsInvalidInput(err) ||
				errors.Is(err, context.Canceled)
		},
	}
}

// unavailable 把熔断器自身的拒绝转换为 UNAVAILABLE；其他错误原样返回。
func unavailable(module string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return core.WrapDomainError(module, core.ErrorCodeUnavailable, module+": circuit breaker open", err)
	}
	return err
}

// BreakerCatalog 为任意 Catalog 增加熔断：后端连续失败后快速失败，而不是继续堆积请求。
// 不做重试，也不吞掉错误。
type BreakerCatalog struct {
	next core.Catalog
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerCatalog(next core.Catalog, cfg BreakerConfig) *BreakerCatalog {
	if cfg.Name == "" {
		cfg.Name = "catalog"
	}
	return &BreakerCatalog{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](cfg.settings()),
	}
}

// State 返回熔断器当前状态。
func (c *BreakerCatalog) State() gobreaker.State {
	return c.cb.State()
}

func (c *BreakerCatalog) FindByID(ctx context.Context, id string) (*core.Document, error) {
	v, err := c.cb.Execute(func() (any, error) {
		return c.next.FindByID(ctx, id)
	})
	if err != nil {
		return nil, unavailable(core.ModuleCatalog, err)
	}
	return v.(*core.Document), nil
}

func (c *BreakerCatalog) FindMany(ctx context.Context, filter core.CatalogFilter, limit int) ([]*core.Document, error) {
	v, err := c.cb.Execute(func() (any, error) {
		return c.next.FindMany(ctx, filter, limit)
	})
	if err != nil {
		return nil, unavailable(core.ModuleCatalog, err)
	}
	return v.([]*core.Document), nil
}

func (c *BreakerCatalog) Count(ctx context.Context, filter core.CatalogFilter) (int, error) {
	v, err := c.cb.Execute(func() (any, error) {
		return c.next.Count(ctx, filter)
	})
	if err != nil {
		return 0, unavailable(core.ModuleCatalog, err)
	}
	return v.(int), nil
}

// BreakerHistory 为任意 History 增加熔断。
type BreakerHistory struct {
	next core.History
	cb   *gobreaker.CircuitBreaker[[]core.InteractionEvent]
}

func NewBreakerHistory(next core.History, cfg BreakerConfig) *BreakerHistory {
	if cfg.Name == "" {
		cfg.Name = "history"
	}
	return &BreakerHistory{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]core.InteractionEvent](cfg.settings()),
	}
}

func (h *BreakerHistory) RecentForUser(ctx context.Context, userID string, n int) ([]core.InteractionEvent, error) {
	events, err := h.cb.Execute(func() ([]core.InteractionEvent, error) {
		return h.next.RecentForUser(ctx, userID, n)
	})
	if err != nil {
		return nil, unavailable(core.ModuleHistory, err)
	}
	return events, nil
}

var (
	_ core.Catalog = (*BreakerCatalog)(nil)
	_ core.History = (*BreakerHistory)(nil)
)
