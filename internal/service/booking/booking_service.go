package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	CanCancel(ctx context.Context, booking *domain.Booking) (bool, error)
	Cancel(ctx context.Context, id int64) error
	CancelBooking(ctx context.Context, id int64) (*domain.Booking, error)
}

// DatasetLookup answers whether a dataset is still the valid one.
type DatasetLookup interface {
	ByID(ctx context.Context, id int64) (*domain.Dataset, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	datasets           DatasetLookup
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	now                func() time.Time
}

type CreateBookingInput struct {
	DatasetID  int64  `json:"dataset_id"`
	RouteID    int64  `json:"route_id"`
	ScheduleID int64  `json:"schedule_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	datasets DatasetLookup,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		datasets:     datasets,
		producer:     producer,
		bookingTopic: bookingTopic,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking books a schedule of a dataset that is still valid. The
// booking keeps its own copy of the trip, so it outlives the dataset.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" {
		return nil, domain.ValidationError{Field: "first_name", Msg: "first name is required"}
	}
	if last == "" {
		return nil, domain.ValidationError{Field: "last_name", Msg: "last name is required"}
	}

	ds, err := s.datasets.ByID(ctx, input.DatasetID)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, domain.ErrDatasetUnavailable
	}

	route := ds.Route(input.RouteID)
	if route == nil {
		return nil, fmt.Errorf("route %d: %w", input.RouteID, domain.ErrNotFound)
	}
	schedule := route.Schedule(input.ScheduleID)
	if schedule == nil {
		return nil, fmt.Errorf("schedule %d: %w", input.ScheduleID, domain.ErrNotFound)
	}

	booking := &domain.Booking{
		Reference:          uuid.NewString(),
		DatasetID:          ds.ID,
		PassengerFirstName: first,
		PassengerLastName:  last,
		OriginName:         route.OriginName,
		DestinationName:    route.DestinationName,
		Departs:            schedule.Departs,
		Arrives:            schedule.Arrives,
		Price:              schedule.Price,
		OperatorName:       schedule.OperatorStatus,
	}

	if err := s.bookings.Create(context.WithoutCancel(ctx), booking); err != nil {
		return nil, err
	}
	log.Printf("[BOOKING] action=create booking_id=%d dataset_id=%d reference=%s", booking.ID, booking.DatasetID, booking.Reference)

	if err := s.publish(ctx, domain.EventBookingCreated, booking); err != nil {
		log.Printf("[BOOKING] WARNING: failed to publish %s for booking %s: %v", domain.EventBookingCreated, booking.Reference, err)
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// CanCancel reports whether the booking's dataset has stopped being valid,
// through expiry or eviction.
func (s *BookingService) CanCancel(ctx context.Context, booking *domain.Booking) (bool, error) {
	ds, err := s.datasets.ByID(ctx, booking.DatasetID)
	if err != nil {
		return false, err
	}
	return ds == nil, nil
}

// Cancel deletes the booking without checking eligibility.
func (s *BookingService) Cancel(ctx context.Context, id int64) error {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bookings.Delete(context.WithoutCancel(ctx), id); err != nil {
		return err
	}
	log.Printf("[BOOKING] action=cancel booking_id=%d reference=%s", current.ID, current.Reference)

	if err := s.publish(ctx, domain.EventBookingCancelled, current); err != nil {
		log.Printf("[BOOKING] WARNING: failed to publish %s for booking %s: %v", domain.EventBookingCancelled, current.Reference, err)
	}
	return nil
}

// CancelBooking cancels only when CanCancel allows it and returns the
// removed booking.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanCancel(ctx, current)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotCancellable
	}
	if err := s.Cancel(ctx, id); err != nil {
		// cancelled concurrently
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel booking %d: %w", id, err)
	}
	return current, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := domain.BookingEvent{
		ID:              uuid.NewString(),
		Type:            eventType,
		BookingID:       booking.ID,
		Reference:       booking.Reference,
		DatasetID:       booking.DatasetID,
		FirstName:       booking.PassengerFirstName,
		LastName:        booking.PassengerLastName,
		OriginName:      booking.OriginName,
		DestinationName: booking.DestinationName,
		Departs:         booking.Departs.Value,
		OccurredAt:      s.now().UTC(),
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
