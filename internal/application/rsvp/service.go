// Package rsvp provides the guest-facing RSVP application service. A guest
// replies with the invitation code from their invite; the service resolves
// the guest, records the reply, and writes one meal choice per ceremony.
package rsvp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/guest"
	"github.com/wedlockhq/wedlock/internal/domain/meal"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

// MealChoice is one ceremony's meal selection inside an RSVP submission.
type MealChoice struct {
	CeremonyID   int64  `validate:"required,gt=0"`
	MealOptionID int64  `validate:"required,gt=0"`
	Notes        string `validate:"max=500"`
}

// SubmitParams contains one guest's complete RSVP reply.
type SubmitParams struct {
	RSVPCode    uuid.UUID        `validate:"required"`
	Status      guest.RSVPStatus `validate:"required,oneof=confirmed declined"`
	PlusOneName *string          `validate:"omitempty,max=200"`
	Children    []guest.Child    `validate:"dive"`
	MealChoices []MealChoice     `validate:"dive"`
}

// SubmitResult reports what the submission changed.
type SubmitResult struct {
	Guest      *guest.Guest
	Selections []*meal.Selection
}

// Metrics records RSVP submission outcomes.
type Metrics interface {
	IncSubmissionSuccess(ctx context.Context, status string)
	IncSubmissionFailure(ctx context.Context, reason string)
	ObserveSubmissionDuration(ctx context.Context, status string, duration time.Duration)
}

// Service handles RSVP submissions and guest-list reporting.
type Service struct {
	guestRepo guest.Repository
	mealRepo  meal.Repository

	validate *validator.Validate
	logger   *logger.Logger
	tracer   trace.Tracer
	metrics  Metrics
}

// NewService creates a new RSVP service with the required repositories.
func NewService(guestRepo guest.Repository, mealRepo meal.Repository, log *logger.Logger, tracer trace.Tracer, metrics Metrics) *Service {
	return &Service{
		guestRepo: guestRepo,
		mealRepo:  mealRepo,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    log.With("component", "rsvp_service"),
		tracer:    tracer,
		metrics:   metrics,
	}
}

// Submit records a guest's RSVP. The guest is resolved by invitation code
// within the event, the reply fields are written, and each meal choice is
// upserted so a guest changing their mind replaces the earlier choice
// rather than stacking a second one.
func (s *Service) Submit(ctx context.Context, params SubmitParams, eventID int64) (*SubmitResult, error) {
	start := time.Now()
	log := logger.NewLoggerContext(s.logger.With(
		"operation_type", "submit",
		"event_id", eventID,
	))
	ctx, span := s.tracer.Start(ctx, "rsvp.Submit", trace.WithAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("status", string(params.Status)),
	))
	defer span.End()

	if err := s.validate.Struct(params); err != nil {
		s.metrics.IncSubmissionFailure(ctx, "invalid_params")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid parameters")
		return nil, fmt.Errorf("invalid rsvp parameters: %w", err)
	}

	g, err := s.guestRepo.FindByRSVPCode(ctx, params.RSVPCode, eventID)
	if err != nil {
		s.metrics.IncSubmissionFailure(ctx, "unknown_code")
		span.RecordError(err)
		span.SetStatus(codes.Error, "error resolving invitation code")
		return nil, err
	}
	log.Add("guest_id", g.ID)
	span.SetAttributes(attribute.Int64("guest_id", g.ID))

	upd := guest.Update{
		RSVPStatus: &params.Status,
		Children:   params.Children,
	}
	if params.PlusOneName != nil {
		plusOne := *params.PlusOneName != ""
		upd.PlusOne = &plusOne
		upd.PlusOneName = params.PlusOneName
	}

	updated, err := s.guestRepo.Update(ctx, g.ID, upd, eventID)
	if err != nil {
		s.metrics.IncSubmissionFailure(ctx, "guest_update")
		span.RecordError(err)
		span.SetStatus(codes.Error, "error updating guest")
		return nil, fmt.Errorf("failed to record rsvp for guest (%d): %w", g.ID, err)
	}

	selections := make([]*meal.Selection, 0, len(params.MealChoices))
	for _, choice := range params.MealChoices {
		sel, err := s.mealRepo.UpsertSelection(
			ctx, g.ID, choice.MealOptionID, choice.CeremonyID, choice.Notes, eventID,
		)
		if err != nil {
			s.metrics.IncSubmissionFailure(ctx, "meal_choice")
			span.RecordError(err)
			span.SetStatus(codes.Error, "error recording meal choice")
			return nil, fmt.Errorf("failed to record meal choice for ceremony (%d): %w", choice.CeremonyID, err)
		}
		selections = append(selections, sel)
	}

	s.metrics.IncSubmissionSuccess(ctx, string(params.Status))
	s.metrics.ObserveSubmissionDuration(ctx, string(params.Status), time.Since(start))

	log.Info(ctx, "rsvp recorded",
		"status", updated.RSVPStatus,
		"meal_choices", len(selections),
	)
	span.SetStatus(codes.Ok, "rsvp recorded")

	return &SubmitResult{Guest: updated, Selections: selections}, nil
}

// Statistics summarizes the event's guest list.
func (s *Service) Statistics(ctx context.Context, eventID int64) (*guest.Statistics, error) {
	stats, err := s.guestRepo.Statistics(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guest statistics: %w", err)
	}
	return stats, nil
}

// SelectionsForGuest returns a guest's meal selections with the option and
// ceremony details a confirmation page needs.
func (s *Service) SelectionsForGuest(ctx context.Context, guestID, eventID int64) ([]*meal.SelectionDetail, error) {
	return s.mealRepo.SelectionsForGuest(ctx, guestID, eventID)
}
