// Package server 是 HTTP 入口：chi 路由、请求 ID、访问日志、限流、CORS、Prometheus 指标。
//
// 路由：
//
//	GET /api/v1/recommendations?documentId=<id>&limit=<n>  基于物品
//	GET /api/v1/recommendations?limit=<n>                  基于用户（X-User-ID 请求头）
//	GET /api/v1/search?q=<q>&category=<c|all>&page=<n>&limit=<n>
//	GET /api/v1/health
//	GET /metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/search"
)

// UserIDHeader 由上游认证网关设置。
const UserIDHeader = "X-User-ID"

// Recommender 是推荐入口（engine.Engine）。
type Recommender interface {
	RecommendForItem(ctx context.Context, sourceID string, limit int) ([]*core.Item, error)
	RecommendForUser(ctx context.Context, userID string, limit int) ([]*core.Item, error)
}

// Searcher 是搜索入口（search.Searcher）。
type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

// HealthFunc 检查后端依赖；返回错误时 health 接口返回 503。
type HealthFunc func(ctx context.Context) error

// Options 是 HTTP 服务参数。
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSAllowedOrigins []string
	CORSMaxAge         int
}

type Server struct {
	recommender Recommender
	searcher    Searcher
	health      HealthFunc
	opts        Options
	logger      zerolog.Logger
	validate    *validator.Validate
	router      chi.Router
}

func New(rec Recommender, s Searcher, health HealthFunc, opts Options, logger zerolog.Logger) *Server {
	srv := &Server{
		recommender: rec,
		searcher:    s,
		health:      health,
		opts:        opts,
		logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
	srv.router = srv.routes()
	return srv
}

// Handler 返回完整的 http.Handler（包含中间件）。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(s.requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.accessLog)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", UserIDHeader, "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         s.opts.CORSMaxAge,
		}))
		if s.opts.RateLimitEnabled && s.opts.RateLimitRequests > 0 {
			r.Use(httprate.Limit(
				s.opts.RateLimitRequests,
				s.opts.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				}),
			))
		}

		r.Get("/health", s.handleHealth)
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/search", s.handleSearch)
	})
	return r
}

// ListenAndServe 启动服务，ctx 取消后优雅退出（等待进行中的请求至多 ShutdownTimeout）。
func (s *Server) ListenAndServe(ctx context.Context) error {
	hs := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("http server listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info().Dur("timeout", timeout).Msg("http server shutting down")
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
