package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	appRSVP "github.com/wedlockhq/wedlock/internal/application/rsvp"
	"github.com/wedlockhq/wedlock/internal/domain/guest"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
)

// RSVPHandler implements the guest-facing RSVP endpoints.
type RSVPHandler struct{ rsvpService *appRSVP.Service }

// NewRSVPHandler creates a new RSVP handler with the provided RSVP service.
func NewRSVPHandler(rsvpService *appRSVP.Service) *RSVPHandler {
	return &RSVPHandler{rsvpService: rsvpService}
}

type mealChoiceRequest struct {
	CeremonyID   int64  `json:"ceremony_id"`
	MealOptionID int64  `json:"meal_option_id"`
	Notes        string `json:"notes"`
}

type submitRSVPRequest struct {
	RSVPCode    string              `json:"rsvp_code"`
	Status      string              `json:"status"`
	PlusOneName *string             `json:"plus_one_name"`
	Children    []guest.Child       `json:"children"`
	MealChoices []mealChoiceRequest `json:"meal_choices"`
}

type submitRSVPResponse struct {
	GuestID     int64  `json:"guest_id"`
	Status      string `json:"status"`
	MealChoices int    `json:"meal_choices_recorded"`
}

// Submit handles POST /api/v1/events/{eventID}/rsvp.
func (h *RSVPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	var req submitRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}

	code, err := uuid.Parse(req.RSVPCode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_rsvp_code", "RSVP code must be a valid invitation code")
		return
	}

	choices := make([]appRSVP.MealChoice, 0, len(req.MealChoices))
	for _, c := range req.MealChoices {
		choices = append(choices, appRSVP.MealChoice{
			CeremonyID:   c.CeremonyID,
			MealOptionID: c.MealOptionID,
			Notes:        c.Notes,
		})
	}

	result, err := h.rsvpService.Submit(r.Context(), appRSVP.SubmitParams{
		RSVPCode:    code,
		Status:      guest.RSVPStatus(req.Status),
		PlusOneName: req.PlusOneName,
		Children:    req.Children,
		MealChoices: choices,
	}, eventID)
	if err != nil {
		switch {
		case errors.Is(err, guest.ErrGuestNotFound):
			writeError(w, http.StatusNotFound, "invitation_not_found", "No invitation matches this code for the event")
		case errors.Is(err, scoped.ErrCrossTenant):
			writeError(w, http.StatusUnprocessableEntity, "invalid_meal_choice", "A meal choice references a ceremony or option outside this event")
		default:
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, submitRSVPResponse{
		GuestID:     result.Guest.ID,
		Status:      string(result.Guest.RSVPStatus),
		MealChoices: len(result.Selections),
	})
}

type statisticsResponse struct {
	Total              int64 `json:"total"`
	Confirmed          int64 `json:"confirmed"`
	Declined           int64 `json:"declined"`
	Pending            int64 `json:"pending"`
	WithPlusOne        int64 `json:"with_plus_one"`
	WithChildren       int64 `json:"with_children"`
	NeedsAccommodation int64 `json:"needs_accommodation"`
}

// Statistics handles GET /api/v1/events/{eventID}/guests/statistics.
func (h *RSVPHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	stats, err := h.rsvpService.Statistics(r.Context(), eventID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statisticsResponse{
		Total:              stats.Total,
		Confirmed:          stats.Confirmed,
		Declined:           stats.Declined,
		Pending:            stats.Pending,
		WithPlusOne:        stats.WithPlusOne,
		WithChildren:       stats.WithChildren,
		NeedsAccommodation: stats.NeedsAccommodation,
	})
}
