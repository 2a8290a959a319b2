package api

import (
	"net/http"
	"time"

	"ffarena/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// NewRouter wires every HTTP endpoint to its service
func NewRouter(
	registrations service.RegistrationService,
	lifecycle service.LifecycleService,
	wallets service.WalletService,
	tournaments service.TournamentService,
) *chi.Mux {
	h := &handlers{
		registrations: registrations,
		lifecycle:     lifecycle,
		wallets:       wallets,
		tournaments:   tournaments,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		// Both verbs are accepted so cron providers that only fire GETs
		// can still drive the sweep.
		r.Get("/update-tournament-states", h.updateTournamentStates)
		r.Post("/update-tournament-states", h.updateTournamentStates)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.listTournaments)
			r.Post("/", h.createTournament)
			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.getTournament)
				r.Put("/", h.updateTournament)
				r.Delete("/", h.deleteTournament)
				r.Post("/cancel", h.cancelTournament)
				r.Post("/results", h.recordResults)
				r.Get("/registrations", h.listTournamentRegistrations)
				r.Post("/register", h.registerPlayer)
				r.Delete("/register", h.unregisterPlayer)
			})
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", h.createWallet)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", h.getWallet)
				r.Post("/deposit", h.deposit)
				r.Post("/withdraw", h.withdraw)
				r.Get("/transactions", h.listTransactions)
			})
		})

		r.Get("/users/{userID}/registrations", h.listUserRegistrations)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
			"requestId": chimw.GetReqID(r.Context()),
		}).Info("Handled request")
	})
}
