// Package event provides event-related application services. Events are the
// tenancy roots: creating one provisions the namespace every guest,
// ceremony, and accommodation row will live under, and deleting one removes
// all of it.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/event"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

// CreateParams contains parameters for creating a new event.
type CreateParams struct {
	Name  string    `validate:"required,max=200"`
	Slug  string    `validate:"required,max=100"`
	Venue string    `validate:"max=300"`
	Date  time.Time `validate:"required"`
}

// Service provides event lifecycle operations.
type Service struct {
	eventRepo event.Repository

	validate *validator.Validate
	logger   *logger.Logger
	tracer   trace.Tracer
}

// NewService creates a new event service with the required repository.
func NewService(eventRepo event.Repository, log *logger.Logger, tracer trace.Tracer) *Service {
	return &Service{
		eventRepo: eventRepo,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    log.With("component", "event_service"),
		tracer:    tracer,
	}
}

// Create validates the parameters and persists a new event. A slug already
// in use is rejected before the insert so the caller gets the domain error
// rather than a constraint violation.
func (s *Service) Create(ctx context.Context, params CreateParams) (*event.Event, error) {
	log := logger.NewLoggerContext(s.logger.With(
		"operation_type", "create",
		"slug", params.Slug,
	))
	ctx, span := s.tracer.Start(ctx, "event.Create", trace.WithAttributes(
		attribute.String("name", params.Name),
		attribute.String("slug", params.Slug),
	))
	defer span.End()

	if err := s.validate.Struct(params); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid parameters")
		return nil, fmt.Errorf("invalid event parameters: %w", err)
	}

	existing, err := s.eventRepo.FindBySlug(ctx, params.Slug)
	if err != nil && !errors.Is(err, event.ErrEventNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error checking existing event")
		return nil, fmt.Errorf("error checking existing event (%s): %w", params.Slug, err)
	}
	if existing != nil {
		span.RecordError(event.ErrEventAlreadyExists)
		span.SetStatus(codes.Error, "event already exists")
		return nil, event.ErrEventAlreadyExists
	}

	newEvent, err := event.NewEvent(params.Name, params.Slug, params.Venue, params.Date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error constructing event")
		return nil, err
	}

	id, err := s.eventRepo.Create(ctx, newEvent)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error persisting event")
		return nil, fmt.Errorf("failed to persist event (%s): %w", params.Slug, err)
	}
	newEvent.ID = id

	log.Add("event_id", id)
	span.SetAttributes(attribute.Int64("event_id", id))
	log.Info(ctx, "event created")
	span.SetStatus(codes.Ok, "event created")

	return newEvent, nil
}

// Get retrieves an event by id.
func (s *Service) Get(ctx context.Context, id int64) (*event.Event, error) {
	return s.eventRepo.FindByID(ctx, id)
}

// GetBySlug retrieves an event by slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*event.Event, error) {
	return s.eventRepo.FindBySlug(ctx, slug)
}

// List returns all events ordered by date.
func (s *Service) List(ctx context.Context) ([]*event.Event, error) {
	return s.eventRepo.List(ctx)
}

// Activate transitions the event into the active stage.
func (s *Service) Activate(ctx context.Context, id int64) (*event.Event, error) {
	return s.transition(ctx, id, "activate", (*event.Event).Activate)
}

// Archive transitions the event into the archived stage.
func (s *Service) Archive(ctx context.Context, id int64) (*event.Event, error) {
	return s.transition(ctx, id, "archive", (*event.Event).Archive)
}

func (s *Service) transition(ctx context.Context, id int64, name string, apply func(*event.Event)) (*event.Event, error) {
	ctx, span := s.tracer.Start(ctx, "event."+name, trace.WithAttributes(
		attribute.Int64("event_id", id),
	))
	defer span.End()

	e, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error finding event")
		return nil, err
	}

	apply(e)

	if err := s.eventRepo.Update(ctx, e); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error persisting event")
		return nil, fmt.Errorf("failed to persist event (%d): %w", id, err)
	}

	s.logger.Info(ctx, "event status changed", "event_id", id, "status", e.Status)
	span.SetStatus(codes.Ok, "event updated")

	return e, nil
}

// Delete permanently removes an event and everything it owns. The child
// rows go with it through the schema's cascade, so this is the
// whole-wedding teardown.
func (s *Service) Delete(ctx context.Context, id int64) error {
	log := logger.NewLoggerContext(s.logger.With("operation_type", "delete", "event_id", id))
	ctx, span := s.tracer.Start(ctx, "event.Delete", trace.WithAttributes(
		attribute.Int64("event_id", id),
	))
	defer span.End()

	e, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error finding event")
		return err
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error deleting event")
		return fmt.Errorf("failed to delete event (%d): %w", id, err)
	}

	log.Info(ctx, "event deleted with all owned rows", "slug", e.Slug)
	span.SetStatus(codes.Ok, "event deleted")

	return nil
}
