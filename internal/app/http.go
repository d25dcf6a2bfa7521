package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-job-assignment/internal/config"
	"service-job-assignment/internal/http/handlers"
	"service-job-assignment/internal/http/middleware/auth"
	"service-job-assignment/internal/http/middleware/ratelimit"
	"service-job-assignment/internal/http/router"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/metrics"
)

func registerHTTP(container *dig.Container) error {
	return provideAll(container,
		handlers.New,
		handlers.NewOfferUsecase,
		handlers.NewOfferHandler,
		handlers.NewJobUsecases,
		handlers.NewJobHandler,
		handlers.NewProgressUsecase,
		handlers.NewProgressHandler,
		handlers.NewAvailabilityUsecase,
		handlers.NewAvailabilityHandler,
		func(cfg *config.Config, clk clock.Clock) (*auth.Verifier, error) {
			return auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, clk)
		},
		newRateLimiter,
		newRateLimitMiddleware,
		provideRouter,
		provideServer,
	)
}

func newRateLimiter(cfg *config.Config, clk clock.Clock) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.NopLimiter{}
	}
	return ratelimit.NewTokenBucketPerWindow(clk, rl.Limit, rl.Window, rl.TTL, rl.MaxBuckets)
}

type rateLimitIn struct {
	dig.In

	Logger  logx.Logger
	Counter prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter ratelimit.Limiter
}

func newRateLimitMiddleware(in rateLimitIn) *ratelimit.Middleware {
	return ratelimit.New(in.Logger, in.Counter, in.Limiter)
}

type routerIn struct {
	dig.In

	Config       *config.Config
	Logger       logx.Logger
	Metrics      *metrics.HTTP
	Verifier     *auth.Verifier
	RateLimit    *ratelimit.Middleware
	Base         *handlers.Handlers
	Offers       *handlers.OfferHandler
	Jobs         *handlers.JobHandler
	Progress     *handlers.ProgressHandler
	Availability *handlers.AvailabilityHandler
}

func provideRouter(in routerIn) http.Handler {
	return router.New(router.Handlers{
		Base:         in.Base,
		Offers:       in.Offers,
		Jobs:         in.Jobs,
		Progress:     in.Progress,
		Availability: in.Availability,
	}, router.Middlewares{
		Logger:    in.Logger,
		Metrics:   in.Metrics,
		Verifier:  in.Verifier,
		RateLimit: in.RateLimit,
		// leave headroom for the lock wait inside the operation timeout
		Timeout: in.Config.Assignment.OperationTimeout + 2*time.Second,
	})
}

func provideServer(cfg *config.Config, mux http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
