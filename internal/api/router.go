package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-engine/internal/api/middleware"
	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/redact"
	"github.com/phrazzld/scry-engine/internal/service/auth"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
)

// Pinger reports database reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps are the collaborators the HTTP surface is built from.
type RouterDeps struct {
	Logger      *slog.Logger
	JWT         auth.JWTService
	Generations GenerationService
	Reviews     card_review.CardReviewService
	Tutor       Tutor
	Quiz        QuizSampler
	DB          Pinger

	// RequestTimeout bounds each request; zero disables the limit.
	RequestTimeout time.Duration
}

// NewRouter builds the chi router serving every endpoint.
func NewRouter(deps RouterDeps) http.Handler {
	generations := NewGenerationHandler(deps.Generations, deps.Reviews, deps.Logger)
	cards := NewCardHandler(deps.Reviews, deps.Logger)
	study := NewStudyHandler(deps.Tutor, deps.Quiz, deps.Logger)
	authMiddleware := middleware.NewAuthMiddleware(deps.JWT)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewTraceMiddleware(deps.Logger))
	r.Use(chimw.Recoverer)
	if deps.RequestTimeout > 0 {
		r.Use(chimw.Timeout(deps.RequestTimeout))
	}

	r.Get("/health", healthHandler(deps.DB, deps.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/generations", generations.Generate)
		r.Get("/generations/{id}", generations.GetSession)
		r.Post("/generations/{id}/approve", generations.Approve)

		r.Get("/cards/due", cards.DueCards)
		r.Post("/cards/{id}/review", cards.Review)
		r.Delete("/cards/{id}", cards.DeleteCard)

		r.Post("/tutor", study.Ask)
		r.Post("/progress/analyze", study.AnalyzeProgress)
		r.Get("/quiz", study.Quiz)
	})

	return r
}

func healthHandler(db Pinger, base *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.FromContextOrDefault(r.Context(), base).Error("health check failed",
				slog.String("error", redact.Error(err)))
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
