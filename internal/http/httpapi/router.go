package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	appmw "server/internal/middleware"
)

// Options carries router wiring that comes from configuration.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   appmw.CountryLookup
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(appmw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(appmw.Logger(opts.Logger))
	r.Use(appmw.CORS(opts.AllowedOrigins))
	if opts.RateLimitPerMin > 0 {
		r.Use(appmw.RateLimit(opts.RateLimitPerMin, time.Minute))
	}
	r.Use(appmw.I18N(opts.DefaultLocale, opts.CountryLookup))

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(appmw.AuthJWT(opts.JWTSecret))

		r.Route("/v1/videos/generations", func(r chi.Router) {
			r.Post("/", app.VideosGenerate)
			r.Get("/", app.VideosList)
			r.Get("/{jobID}", app.VideosGet)
		})
		r.Get("/v1/quota", app.QuotaUsage)
	})

	return r
}
