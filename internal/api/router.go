package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/dynprot/engine/docs"
	"github.com/dynprot/engine/internal/api/handlers"
	mw "github.com/dynprot/engine/internal/api/middleware"
)

type Dependencies struct {
	Verifier          mw.TokenVerifier
	AllowLegacyUserID bool
	HideErrorDetails  bool

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	AuthHandler   *handlers.AuthHandler
	ChatHandler   *handlers.ChatHandler
	MealsHandler  *handlers.MealsHandler
	UsersHandler  *handlers.UsersHandler
	HealthHandler *handlers.HealthHandler
}

func NewRouter(dep Dependencies) http.Handler {
	handlers.HideErrorDetails(dep.HideErrorDetails)
	if dep.HealthHandler == nil {
		dep.HealthHandler = handlers.NewHealthHandler(nil)
	}
	if dep.RateLimitRPS <= 0 {
		dep.RateLimitRPS, dep.RateLimitBurst = 10, 20
	}

	r := chi.NewRouter()

	if dep.TrustProxyHeaders {
		r.Use(chimid.RealIP)
	}
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS(dep.CORSOrigins))
	r.Use(mw.RateLimit(dep.RateLimitRPS, dep.RateLimitBurst))
	r.Use(chimid.Compress(5, "application/json"))

	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api/v1", func(api chi.Router) {
		auth := mw.Auth(dep.Verifier, dep.AllowLegacyUserID)

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)

			ar.Group(func(pr chi.Router) {
				pr.Use(auth)
				pr.Post("/register-profile", dep.AuthHandler.RegisterProfile)
				pr.Get("/profile/{userId}", dep.AuthHandler.Profile)
				pr.Get("/me", dep.AuthHandler.Me)
			})
		})

		api.Group(func(protected chi.Router) {
			protected.Use(auth)

			protected.Route("/chat", func(cr chi.Router) {
				cr.Post("/message", dep.ChatHandler.Message)
				cr.Post("/message/image", dep.ChatHandler.Image)
				cr.Post("/speech", dep.ChatHandler.Speech)
				cr.Get("/history/{userId}", dep.ChatHandler.History)
			})

			protected.Route("/meals", func(mr chi.Router) {
				mr.Get("/progress/weekly/{userId}", dep.MealsHandler.Weekly)
				mr.Get("/progress/{userId}", dep.MealsHandler.Progress)
				mr.Delete("/reset/{userId}", dep.MealsHandler.Reset)
				mr.Get("/{userId}", dep.MealsHandler.List)
				mr.Delete("/{mealId}", dep.MealsHandler.Delete)
			})

			protected.Route("/users", func(ur chi.Router) {
				ur.Put("/goal/{userId}", dep.UsersHandler.Goal)
				ur.Put("/profile/{userId}", dep.UsersHandler.Profile)
			})
		})
	})

	return r
}
