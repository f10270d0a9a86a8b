package rsvp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/wedlockhq/wedlock/internal/application/rsvp"
	"github.com/wedlockhq/wedlock/internal/domain/guest"
	"github.com/wedlockhq/wedlock/internal/domain/meal"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

// MockGuestRepo is a testify mock for guest.Repository.
type MockGuestRepo struct{ mock.Mock }

var _ guest.Repository = (*MockGuestRepo)(nil)

func (m *MockGuestRepo) FindByID(ctx context.Context, id, eventID int64) (*guest.Guest, error) {
	args := m.Called(ctx, id, eventID)
	g, _ := args.Get(0).(*guest.Guest)
	return g, args.Error(1)
}

func (m *MockGuestRepo) FindByEmail(ctx context.Context, email string, eventID int64) (*guest.Guest, error) {
	args := m.Called(ctx, email, eventID)
	g, _ := args.Get(0).(*guest.Guest)
	return g, args.Error(1)
}

func (m *MockGuestRepo) FindByRSVPCode(ctx context.Context, code uuid.UUID, eventID int64) (*guest.Guest, error) {
	args := m.Called(ctx, code, eventID)
	g, _ := args.Get(0).(*guest.Guest)
	return g, args.Error(1)
}

func (m *MockGuestRepo) ListByEvent(ctx context.Context, eventID int64) ([]*guest.Guest, error) {
	args := m.Called(ctx, eventID)
	guests, _ := args.Get(0).([]*guest.Guest)
	return guests, args.Error(1)
}

func (m *MockGuestRepo) Search(ctx context.Context, term string, eventID int64) ([]*guest.Guest, error) {
	args := m.Called(ctx, term, eventID)
	guests, _ := args.Get(0).([]*guest.Guest)
	return guests, args.Error(1)
}

func (m *MockGuestRepo) ListByRSVPStatus(ctx context.Context, status guest.RSVPStatus, eventID int64) ([]*guest.Guest, error) {
	args := m.Called(ctx, status, eventID)
	guests, _ := args.Get(0).([]*guest.Guest)
	return guests, args.Error(1)
}

func (m *MockGuestRepo) ListNeedingAccommodation(ctx context.Context, eventID int64) ([]*guest.Guest, error) {
	args := m.Called(ctx, eventID)
	guests, _ := args.Get(0).([]*guest.Guest)
	return guests, args.Error(1)
}

func (m *MockGuestRepo) Statistics(ctx context.Context, eventID int64) (*guest.Statistics, error) {
	args := m.Called(ctx, eventID)
	stats, _ := args.Get(0).(*guest.Statistics)
	return stats, args.Error(1)
}

func (m *MockGuestRepo) Create(ctx context.Context, in guest.Insert, eventID int64) (*guest.Guest, error) {
	args := m.Called(ctx, in, eventID)
	g, _ := args.Get(0).(*guest.Guest)
	return g, args.Error(1)
}

func (m *MockGuestRepo) CreateBatch(ctx context.Context, in []guest.Insert, eventID int64) ([]*guest.Guest, error) {
	args := m.Called(ctx, in, eventID)
	guests, _ := args.Get(0).([]*guest.Guest)
	return guests, args.Error(1)
}

func (m *MockGuestRepo) Update(ctx context.Context, id int64, upd guest.Update, eventID int64) (*guest.Guest, error) {
	args := m.Called(ctx, id, upd, eventID)
	g, _ := args.Get(0).(*guest.Guest)
	return g, args.Error(1)
}

func (m *MockGuestRepo) Delete(ctx context.Context, id, eventID int64) (bool, error) {
	args := m.Called(ctx, id, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuestRepo) DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMealRepo is a testify mock for meal.Repository.
type MockMealRepo struct{ mock.Mock }

var _ meal.Repository = (*MockMealRepo)(nil)

func (m *MockMealRepo) FindOptionByID(ctx context.Context, id, eventID int64) (*meal.Option, error) {
	args := m.Called(ctx, id, eventID)
	opt, _ := args.Get(0).(*meal.Option)
	return opt, args.Error(1)
}

func (m *MockMealRepo) ListOptionsByEvent(ctx context.Context, eventID int64) ([]*meal.Option, error) {
	args := m.Called(ctx, eventID)
	opts, _ := args.Get(0).([]*meal.Option)
	return opts, args.Error(1)
}

func (m *MockMealRepo) OptionsForCeremony(ctx context.Context, ceremonyID, eventID int64) ([]*meal.Option, error) {
	args := m.Called(ctx, ceremonyID, eventID)
	opts, _ := args.Get(0).([]*meal.Option)
	return opts, args.Error(1)
}

func (m *MockMealRepo) OptionsWithCounts(ctx context.Context, ceremonyID, eventID int64) ([]*meal.OptionWithCount, error) {
	args := m.Called(ctx, ceremonyID, eventID)
	counts, _ := args.Get(0).([]*meal.OptionWithCount)
	return counts, args.Error(1)
}

func (m *MockMealRepo) CreateOption(ctx context.Context, in meal.OptionInsert, eventID int64) (*meal.Option, error) {
	args := m.Called(ctx, in, eventID)
	opt, _ := args.Get(0).(*meal.Option)
	return opt, args.Error(1)
}

func (m *MockMealRepo) UpdateOption(ctx context.Context, id int64, upd meal.OptionUpdate, eventID int64) (*meal.Option, error) {
	args := m.Called(ctx, id, upd, eventID)
	opt, _ := args.Get(0).(*meal.Option)
	return opt, args.Error(1)
}

func (m *MockMealRepo) DeleteOption(ctx context.Context, id, eventID int64) (bool, error) {
	args := m.Called(ctx, id, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMealRepo) DeleteAllOptionsByEvent(ctx context.Context, eventID int64) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMealRepo) SelectionsForGuest(ctx context.Context, guestID, eventID int64) ([]*meal.SelectionDetail, error) {
	args := m.Called(ctx, guestID, eventID)
	details, _ := args.Get(0).([]*meal.SelectionDetail)
	return details, args.Error(1)
}

func (m *MockMealRepo) UpsertSelection(ctx context.Context, guestID, mealOptionID, ceremonyID int64, notes string, eventID int64) (*meal.Selection, error) {
	args := m.Called(ctx, guestID, mealOptionID, ceremonyID, notes, eventID)
	sel, _ := args.Get(0).(*meal.Selection)
	return sel, args.Error(1)
}

func (m *MockMealRepo) DeleteSelection(ctx context.Context, selectionID, eventID int64) (bool, error) {
	args := m.Called(ctx, selectionID, eventID)
	return args.Bool(0), args.Error(1)
}

// MockRSVPMetrics is a no-op rsvp.Metrics implementation for tests.
type MockRSVPMetrics struct{}

var _ rsvp.Metrics = (*MockRSVPMetrics)(nil)

func (m *MockRSVPMetrics) IncSubmissionSuccess(ctx context.Context, status string) {}
func (m *MockRSVPMetrics) IncSubmissionFailure(ctx context.Context, reason string) {}
func (m *MockRSVPMetrics) ObserveSubmissionDuration(ctx context.Context, status string, duration time.Duration) {
}

func newService(guestRepo *MockGuestRepo, mealRepo *MockMealRepo) *rsvp.Service {
	return rsvp.NewService(guestRepo, mealRepo, logger.Noop(), noop.NewTracerProvider().Tracer("test"), new(MockRSVPMetrics))
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()
	code := uuid.New()
	plusOne := "Alan"

	validParams := rsvp.SubmitParams{
		RSVPCode:    code,
		Status:      guest.RSVPConfirmed,
		PlusOneName: &plusOne,
		MealChoices: []rsvp.MealChoice{
			{CeremonyID: 10, MealOptionID: 100, Notes: "no onions"},
			{CeremonyID: 11, MealOptionID: 101},
		},
	}
	resolved := &guest.Guest{ID: 5, EventID: 1, FirstName: "Ada"}

	testCases := []struct {
		desc                string
		mockGuestRepoFn     func(*MockGuestRepo)
		mockMealRepoFn      func(*MockMealRepo)
		inputParams         rsvp.SubmitParams
		expectError         bool
		expectErrorContains string
		expectErrIs         error
		expectSelections    int
	}{
		{
			desc:            "invalid status fails validation",
			mockGuestRepoFn: func(m *MockGuestRepo) {},
			mockMealRepoFn:  func(m *MockMealRepo) {},
			inputParams: rsvp.SubmitParams{
				RSVPCode: code,
				Status:   "maybe",
			},
			expectError:         true,
			expectErrorContains: "invalid rsvp parameters",
		},
		{
			desc: "unknown invitation code",
			mockGuestRepoFn: func(m *MockGuestRepo) {
				m.On("FindByRSVPCode", mock.Anything, code, int64(1)).
					Return((*guest.Guest)(nil), guest.ErrGuestNotFound)
			},
			mockMealRepoFn: func(m *MockMealRepo) {},
			inputParams:    validParams,
			expectError:    true,
			expectErrIs:    guest.ErrGuestNotFound,
		},
		{
			desc: "guest update failure is wrapped",
			mockGuestRepoFn: func(m *MockGuestRepo) {
				m.On("FindByRSVPCode", mock.Anything, code, int64(1)).
					Return(resolved, nil)
				m.On("Update", mock.Anything, int64(5), mock.AnythingOfType("guest.Update"), int64(1)).
					Return((*guest.Guest)(nil), errors.New("DB error"))
			},
			mockMealRepoFn:      func(m *MockMealRepo) {},
			inputParams:         validParams,
			expectError:         true,
			expectErrorContains: "failed to record rsvp",
		},
		{
			desc: "cross-tenant meal choice surfaces the sentinel",
			mockGuestRepoFn: func(m *MockGuestRepo) {
				m.On("FindByRSVPCode", mock.Anything, code, int64(1)).
					Return(resolved, nil)
				m.On("Update", mock.Anything, int64(5), mock.AnythingOfType("guest.Update"), int64(1)).
					Return(resolved, nil)
			},
			mockMealRepoFn: func(m *MockMealRepo) {
				m.On("UpsertSelection", mock.Anything, int64(5), int64(100), int64(10), "no onions", int64(1)).
					Return((*meal.Selection)(nil), &scoped.CrossTenantError{Entity: "meal option", ID: 100, EventID: 1})
			},
			inputParams: validParams,
			expectError: true,
			expectErrIs: scoped.ErrCrossTenant,
		},
		{
			desc: "successful submission records every choice",
			mockGuestRepoFn: func(m *MockGuestRepo) {
				m.On("FindByRSVPCode", mock.Anything, code, int64(1)).
					Return(resolved, nil)
				m.On("Update", mock.Anything, int64(5), mock.MatchedBy(func(upd guest.Update) bool {
					return upd.RSVPStatus != nil && *upd.RSVPStatus == guest.RSVPConfirmed &&
						upd.PlusOne != nil && *upd.PlusOne &&
						upd.PlusOneName != nil && *upd.PlusOneName == "Alan"
				}), int64(1)).
					Return(resolved, nil)
			},
			mockMealRepoFn: func(m *MockMealRepo) {
				m.On("UpsertSelection", mock.Anything, int64(5), int64(100), int64(10), "no onions", int64(1)).
					Return(&meal.Selection{ID: 1, GuestID: 5, MealOptionID: 100, CeremonyID: 10}, nil)
				m.On("UpsertSelection", mock.Anything, int64(5), int64(101), int64(11), "", int64(1)).
					Return(&meal.Selection{ID: 2, GuestID: 5, MealOptionID: 101, CeremonyID: 11}, nil)
			},
			inputParams:      validParams,
			expectSelections: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			mockGuestRepo := new(MockGuestRepo)
			mockMealRepo := new(MockMealRepo)
			tc.mockGuestRepoFn(mockGuestRepo)
			tc.mockMealRepoFn(mockMealRepo)

			res, err := newService(mockGuestRepo, mockMealRepo).Submit(ctx, tc.inputParams, 1)

			if tc.expectError {
				assert.Error(t, err, "expected an error but got none")

				if tc.expectErrorContains != "" {
					assert.Contains(t, err.Error(), tc.expectErrorContains)
				}
				if tc.expectErrIs != nil {
					assert.ErrorIs(t, err, tc.expectErrIs)
				}
				assert.Nil(t, res)
			} else {
				assert.NoError(t, err, "didn't expect an error, but got one")
				assert.NotNil(t, res)
				assert.Len(t, res.Selections, tc.expectSelections)
			}

			mockGuestRepo.AssertExpectations(t)
			mockMealRepo.AssertExpectations(t)
		})
	}
}

func TestServiceStatistics(t *testing.T) {
	ctx := context.Background()

	mockGuestRepo := new(MockGuestRepo)
	mockMealRepo := new(MockMealRepo)
	mockGuestRepo.On("Statistics", mock.Anything, int64(1)).
		Return(&guest.Statistics{Total: 10, Confirmed: 6, Declined: 1, Pending: 3}, nil)

	stats, err := newService(mockGuestRepo, mockMealRepo).Statistics(ctx, 1)
	assert.NoError(t, err)
	assert.EqualValues(t, 10, stats.Total)
	assert.EqualValues(t, 6, stats.Confirmed)

	mockGuestRepo.AssertExpectations(t)
}
