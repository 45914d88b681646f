package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tour-server/middleware"
	"tour-server/utils/errors"
)

type RouterDeps struct {
	Tour           *TourHandler
	POI            *POIHandler
	WS             *WSHandler
	Health         *HealthHandler
	Gatherer       prometheus.Gatherer
	AudioDir       string
	ImageDir       string
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter wires every route of the service.
func NewRouter(d RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, errors.ErrNotFound.WithDetails(r.URL.Path))
	})
	r.Use(middleware.RecoverMiddleware())
	r.Use(middleware.LoggingMiddleware(d.Log))
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", d.Health.Health).Methods("GET", "OPTIONS")

	// Tour routes
	tour := api.PathPrefix("/tour").Subrouter()
	tour.HandleFunc("/start", d.Tour.StartTour).Methods("POST", "OPTIONS")
	tour.HandleFunc("/end", d.Tour.EndTour).Methods("POST", "OPTIONS")
	tour.HandleFunc("/state", d.Tour.GetState).Methods("GET", "OPTIONS")
	tour.HandleFunc("/advance", d.Tour.Advance).Methods("POST", "OPTIONS")

	// POI routes
	api.HandleFunc("/pois", d.POI.ListPOIs).Methods("GET", "OPTIONS")
	api.HandleFunc("/pois/nearby", d.POI.GetNearbyPOIs).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws", d.WS.HandleWebSocket).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods("GET")

	if d.AudioDir != "" {
		r.PathPrefix("/audio/").Handler(http.StripPrefix("/audio/", http.FileServer(http.Dir(d.AudioDir))))
	}
	if d.ImageDir != "" {
		r.PathPrefix("/images/").Handler(http.StripPrefix("/images/", http.FileServer(http.Dir(d.ImageDir))))
	}
	return r
}
