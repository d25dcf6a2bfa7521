package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"service-job-assignment/internal/http/handlers"
	obs "service-job-assignment/internal/http/middleware"
	"service-job-assignment/internal/http/middleware/auth"
	"service-job-assignment/internal/http/middleware/ratelimit"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Handlers groups the endpoint handlers.
type Handlers struct {
	Base         *handlers.Handlers
	Offers       *handlers.OfferHandler
	Jobs         *handlers.JobHandler
	Progress     *handlers.ProgressHandler
	Availability *handlers.AvailabilityHandler
}

// Middlewares groups cross-cutting request handling.
type Middlewares struct {
	Logger    logx.Logger
	Metrics   *metrics.HTTP
	Verifier  *auth.Verifier
	RateLimit *ratelimit.Middleware
	Timeout   time.Duration
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(h Handlers, m Middlewares) http.Handler {
	if m.Logger == nil {
		m.Logger = logx.Nop()
	}
	if m.Timeout <= 0 {
		m.Timeout = defaultTimeout
	}
	if m.RateLimit == nil {
		m.RateLimit = ratelimit.New(m.Logger, nil, nil)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.Observability(m.Logger, m.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(m.Timeout))

	r.Get("/ping", h.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(h.Base.HealthcheckHead))
	r.NotFound(http.HandlerFunc(h.Base.NotFound))
	r.MethodNotAllowed(http.HandlerFunc(h.Base.MethodNotAllowed))

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(m.Verifier, m.Logger))
		r.Use(m.RateLimit.Handler())

		r.With(auth.RequireRole(m.Logger, auth.RoleDispatcher, auth.RoleAdmin)).
			Post("/offers", h.Offers.Create)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(m.Logger, auth.RoleDriver))

			r.Route("/jobs/{jobID}", func(r chi.Router) {
				r.Post("/claim", h.Jobs.Claim)
				r.Post("/accept", h.Jobs.Accept)
				r.Post("/decline", h.Jobs.Decline)
				r.Get("/assignment", h.Jobs.Assignment)
			})
			r.Post("/assignments/{assignmentID}/events", h.Progress.Record)
			r.Get("/assignments/{assignmentID}/events", h.Progress.Timeline)
			r.Put("/drivers/me/availability", h.Availability.SetStatus)
			r.Post("/drivers/me/location", h.Availability.RecordLocation)
		})
	})

	return r
}
