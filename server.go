package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const (
	EVENTS_DEFAULT_LIMIT = 50
	EVENTS_MAX_LIMIT     = 500
)

func NewRouter() http.Handler {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer) // make sure this is last

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// login
		r.Post("/login", Login)

		r.Group(func(r chi.Router) {
			// Seek, verify and validate JWT tokens
			r.Use(ValidateJWT)

			r.Get("/state", GetState)
			r.Get("/events", GetEvents)
			r.Get("/refresh_token", JWTRefresh)
		})
	})

	r.Route("/ws", func(r chi.Router) {
		if ENV.DEBUG {
			log.Println("Running in debug mode. Authentication disabled.")
		} else {
			r.Use(ValidateJWT)
		}

		r.Get("/state", ENV.Conductor.ServeWS)
	})

	return r
}

// GetState returns the state after the most recent tick of the loop.
func GetState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ENV.Conductor.Latest())
}

// GetEvents lists journal entries newest first, optionally of a single kind.
func GetEvents(w http.ResponseWriter, r *http.Request) {
	limit := EVENTS_DEFAULT_LIMIT
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			render.Render(w, r, ErrInvalidRequest(errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}
	if limit > EVENTS_MAX_LIMIT {
		limit = EVENTS_MAX_LIMIT
	}

	var err error
	var entries interface{}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		entries, err = ENV.Journal.Kind(kind, limit)
	} else {
		entries, err = ENV.Journal.Recent(limit)
	}
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}

	render.JSON(w, r, entries)
}
