package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes возвращает router со всеми маршрутами admin API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, Recovery(h.logger), Logging(h.logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		MethodNotAllowed(w)
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Engine
		r.Get("/engine", h.GetEngine)
		r.Post("/engine/start", h.StartEngine)
		r.Post("/engine/stop", h.StopEngine)

		// Frames
		r.Get("/frames", h.ListFrames)

		// Tweets
		r.Post("/tweets", h.PostTweet)

		// Schedule
		r.Put("/slots", h.SaveSlot)
		r.Get("/slots/{id}", h.GetSlot)
		r.Put("/slots/{id}/favorites", h.UpdateFavorites)
	})

	return r
}
