package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/payment-service/internal/middleware"
)

// Throttle ограничивает число платежей, обрабатываемых одновременно.
// Запросы сверх Limit ждут в очереди до Backlog штук не дольше BacklogTimeout,
// остальные получают 429 с заголовком Retry-After.
type Throttle struct {
	Limit          int
	Backlog        int
	BacklogTimeout time.Duration
	RetryAfter     time.Duration
}

// DefaultThrottle используется, если ограничение не задано явно.
var DefaultThrottle = Throttle{
	Limit:          100,
	Backlog:        100,
	BacklogTimeout: 5 * time.Second,
	RetryAfter:     time.Second,
}

func (t Throttle) middleware() func(http.Handler) http.Handler {
	retryAfter := t.RetryAfter
	return chimiddleware.ThrottleWithOpts(chimiddleware.ThrottleOpts{
		Limit:          t.Limit,
		BacklogLimit:   t.Backlog,
		BacklogTimeout: t.BacklogTimeout,
		RetryAfterFn: func(bool) time.Duration {
			return retryAfter
		},
	})
}

// SetupRouter настраивает HTTP-маршруты и middleware платёжного сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.With(h.throttle.middleware()).Post("/payments", h.MakePayment)
		r.Get("/accounts/{number}", h.GetAccount)
	})

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
