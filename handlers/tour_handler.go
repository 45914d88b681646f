package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"tour-server/middleware"
	"tour-server/models"
	"tour-server/services"
	"tour-server/utils/errors"
)

// TourCommands is what the tour routes need from the service layer.
type TourCommands interface {
	Start(ctx context.Context, tourID string) models.TourSnapshot
	End(ctx context.Context) models.TourSnapshot
	State() models.TourSnapshot
	Tick(ctx context.Context) services.TickResult
}

type TourHandler struct {
	tours TourCommands
}

type startTourRequest struct {
	TourID string `json:"tourId"`
}

type AdvanceResponse struct {
	Triggered bool                   `json:"triggered"`
	Event     *models.TriggerMessage `json:"event,omitempty"`
	State     models.TourSnapshot    `json:"state"`
}

func NewTourHandler(tours TourCommands) *TourHandler {
	return &TourHandler{tours: tours}
}

// StartTour starts a tour. The body is optional; without a tourId one is
// generated.
func (h *TourHandler) StartTour(w http.ResponseWriter, r *http.Request) {
	var input startTourRequest
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(&input)
		if err != nil && !stderrors.Is(err, io.EOF) {
			middleware.WriteError(w, errors.ErrInvalidInput.WithDetails(err.Error()))
			return
		}
	}

	snap := h.tours.Start(r.Context(), input.TourID)
	middleware.WriteJSON(w, http.StatusOK, snap)
}

// EndTour stops the running tour. Ending an inactive tour is not an error.
func (h *TourHandler) EndTour(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.tours.End(r.Context()))
}

func (h *TourHandler) GetState(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.tours.State())
}

// Advance runs one trigger evaluation immediately, for drivers stepping the
// tour by hand.
func (h *TourHandler) Advance(w http.ResponseWriter, r *http.Request) {
	res := h.tours.Tick(r.Context())
	resp := AdvanceResponse{State: h.tours.State()}
	if res.Event != nil {
		// manual ticks only ever fire POIs
		msg := res.Event.Message(false)
		resp.Triggered = true
		resp.Event = &msg
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
