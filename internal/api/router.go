package api

import (
	"net/http"
	"time"

	"ballotbox/internal/api/handler"
	"ballotbox/internal/api/middleware"
	"ballotbox/internal/app/service"
	"ballotbox/internal/common/security"
	"ballotbox/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	candidateService *service.CandidateService,
	voteService *service.VoteService,
	userRepo repository.UserRepository,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies a bearer token when present and puts claims in context. The
	// Authenticator below decides whether a route actually requires one.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	authenticator := middleware.NewAuthenticator(userRepo)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/user", func(ur chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		authHandler.RegisterRoutes(ur)

		userHandler := handler.NewUserHandler(userService)
		ur.Group(func(protected chi.Router) {
			protected.Use(authenticator)
			userHandler.RegisterRoutes(protected)
		})
	})

	r.Route("/candidate", func(cr chi.Router) {
		candidateHandler := handler.NewCandidateHandler(candidateService)
		candidateHandler.RegisterPublicRoutes(cr)

		cr.Group(func(protected chi.Router) {
			protected.Use(authenticator)
			candidateHandler.RegisterAdminRoutes(protected)

			voteHandler := handler.NewVoteHandler(voteService)
			voteHandler.RegisterRoutes(protected)
		})
	})

	return r
}
