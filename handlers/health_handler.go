package handlers

import (
	"net/http"

	"tour-server/middleware"
	"tour-server/utils/errors"
)

// TourStatus is read by the health route.
type TourStatus interface {
	PolicyName() string
	Position() int
}

type SubscriberCounter interface {
	Count() int
}

type HealthHandler struct {
	tours    TourStatus
	hub      SubscriberCounter
	poiCount int
}

type HealthResponse struct {
	Status      string `json:"status"`
	Policy      string `json:"policy"`
	Position    int    `json:"position"`
	Subscribers int    `json:"subscribers"`
}

func NewHealthHandler(tours TourStatus, hub SubscriberCounter, poiCount int) *HealthHandler {
	return &HealthHandler{tours: tours, hub: hub, poiCount: poiCount}
}

// Health reports 503 while the catalog has no POIs: the server is up but a
// tour would never trigger anything.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.poiCount == 0 {
		middleware.WriteError(w, errors.ErrUnavailable.WithDetails("catalog has no POIs"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Policy:      h.tours.PolicyName(),
		Position:    h.tours.Position(),
		Subscribers: h.hub.Count(),
	})
}
