package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/zkp-id-api/internal/application/issuance"
	"github.com/zkp-id-api/internal/config"
	"github.com/zkp-id-api/internal/infrastructure/dynamo"
	"github.com/zkp-id-api/internal/infrastructure/prover"
	"github.com/zkp-id-api/internal/pkg/onion"
	"github.com/zkp-id-api/internal/pkg/otp"
	"github.com/zkp-id-api/internal/transport/http/handler"
	appmiddleware "github.com/zkp-id-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	IdentityRepo *dynamo.IdentityRepo
	ProofRepo    *dynamo.ProofRepo
	OTPStore     *otp.Store
	Prover       prover.Backend
	Cipher       *onion.Cipher
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — the proof backend is expensive and the
	// OTP space is small, so the credential endpoints are rate limited.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	issuanceSvc := issuance.NewService(issuance.ServiceDeps{
		Identities: deps.IdentityRepo,
		Proofs:     deps.ProofRepo,
		OTPs:       deps.OTPStore,
		Prover:     deps.Prover,
		Cipher:     deps.Cipher,
	})

	healthH := handler.NewHealthHandler()
	identityH := handler.NewIdentityHandler(issuanceSvc)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Post("/register", identityH.Register)
	r.With(sensitiveRL.Limit).Post("/validate", identityH.Validate)
	r.With(sensitiveRL.Limit).Post("/get_zkp", identityH.GetZKP)

	return r
}
