// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of quizwire: session lifecycle
// endpoints for hosts, the websocket upgrade endpoint, and operational
// endpoints (health, metrics).
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quizwire/quizwire/internal/dispatch"
	"github.com/quizwire/quizwire/internal/game"
	"github.com/quizwire/quizwire/internal/quiz"
	"github.com/quizwire/quizwire/internal/session"
)

// Server wires the session store, quiz store and dispatcher behind a
// chi router.
type Server struct {
	store      *session.Store
	quizzes    quiz.Store
	ctrl       *game.Controller
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger

	rateLimitRPM int
	questionTime int
}

// Options carries the tunables the handlers need from the top-level config.
type Options struct {
	RateLimitRPM int
	QuestionTime int
}

func NewServer(store *session.Store, quizzes quiz.Store, ctrl *game.Controller, d *dispatch.Dispatcher, opts Options, logger zerolog.Logger) *Server {
	return &Server{
		store:        store,
		quizzes:      quizzes,
		ctrl:         ctrl,
		dispatcher:   d,
		logger:       logger.With().Str("component", "api").Logger(),
		rateLimitRPM: opts.RateLimitRPM,
		questionTime: opts.QuestionTime,
	}
}

// Router builds the full route tree with the middleware stack applied.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)

	r.Route("/multiplayer", func(r chi.Router) {
		r.Use(RequestLogger)
		if s.rateLimitRPM > 0 {
			r.Use(httprate.Limit(
				s.rateLimitRPM,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))
		}

		r.Post("/create-session", s.handleCreateSession)
		r.Route("/session/{code}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Get("/participants", s.handleParticipants)
			r.Post("/join", s.handleJoin)
			r.Post("/start", s.handleStart)
			r.Post("/end", s.handleEnd)
			r.Post("/validate", s.handleValidate)
		})
	})

	// Websocket upgrade bypasses the logging wrapper so the hijacker
	// interface stays reachable.
	r.Get("/ws/{code}", s.dispatcher.HandleWS)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
