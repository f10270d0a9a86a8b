// Package httphandler translates HTTP requests into application service
// calls and maps domain errors back to HTTP responses.
package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	appEvent "github.com/wedlockhq/wedlock/internal/application/event"
	"github.com/wedlockhq/wedlock/internal/domain/event"
)

// EventHandler implements the event-related API endpoints.
type EventHandler struct{ eventService *appEvent.Service }

// NewEventHandler creates a new event handler with the provided event service.
func NewEventHandler(eventService *appEvent.Service) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type createEventRequest struct {
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Venue string    `json:"venue"`
	Date  time.Time `json:"date"`
}

type eventResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	Venue     string            `json:"venue"`
	Date      time.Time         `json:"date"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
	Links     map[string]string `json:"_links"`
}

// Create handles POST /api/v1/events.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}

	created, err := h.eventService.Create(r.Context(), appEvent.CreateParams{
		Name:  req.Name,
		Slug:  req.Slug,
		Venue: req.Venue,
		Date:  req.Date,
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventAlreadyExists):
			writeError(w, http.StatusConflict, "event_already_exists", "An event with this slug already exists")
		case errors.Is(err, event.ErrInvalidName):
			writeError(w, http.StatusBadRequest, "invalid_event_name", "Event name must not be empty")
		case errors.Is(err, event.ErrInvalidSlug):
			writeError(w, http.StatusBadRequest, "invalid_event_slug", "Event slug must contain only lowercase letters, numbers, and hyphens")
		case errors.Is(err, event.ErrInvalidDate):
			writeError(w, http.StatusBadRequest, "invalid_event_date", "Event date must be set")
		default:
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapEventResponse(created))
}

// Get handles GET /api/v1/events/{eventID}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	e, err := h.eventService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event_not_found", "The specified event does not exist")
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapEventResponse(e))
}

// List handles GET /api/v1/events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, mapEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// Archive handles POST /api/v1/events/{eventID}/archive.
func (h *EventHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	e, err := h.eventService.Archive(r.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event_not_found", "The specified event does not exist")
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapEventResponse(e))
}

// Delete handles DELETE /api/v1/events/{eventID}. The event's guests,
// ceremonies, accommodations, and templates are removed with it.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.eventService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event_not_found", "The specified event does not exist")
			return
		}
		writeInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func eventIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("eventID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_event_id", "Event id must be a positive integer")
		return 0, false
	}
	return id, true
}

func mapEventResponse(e *event.Event) eventResponse {
	return eventResponse{
		ID:        e.ID,
		Name:      e.Name,
		Slug:      e.Slug,
		Venue:     e.Venue,
		Date:      e.Date,
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		Links: map[string]string{
			"self":       fmt.Sprintf("/api/v1/events/%d", e.ID),
			"statistics": fmt.Sprintf("/api/v1/events/%d/guests/statistics", e.ID),
		},
	}
}
