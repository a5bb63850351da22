package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CanCancel(ctx context.Context, b *domain.Booking) (bool, error) {
	args := m.Called(ctx, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func sampleBooking() *domain.Booking {
	return &domain.Booking{
		ID:                 1,
		Reference:          "ref-123",
		DatasetID:          7,
		PassengerFirstName: "Mari",
		PassengerLastName:  "Tamm",
		OriginName:         "London",
		DestinationName:    "Paris",
		Departs:            domain.TimestampSpec{Value: "2024-08-31 08:00:00.000000", TimezoneType: 3, Timezone: "Europe/Tallinn"},
		Price:              50,
		OperatorName:       "NoBus",
	}
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	input := booking.CreateBookingInput{DatasetID: 7, RouteID: 11, ScheduleID: 21, FirstName: "Mari", LastName: "Tamm"}
	body, _ := json.Marshal(input)
	c, w := newTestContext("POST", "/bookings", body)

	mockService.On("CreateBooking", c.Request.Context(), input).Return(sampleBooking(), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ref-123", response.Reference)
	assert.Equal(t, "London", response.OriginName)
	assert.Equal(t, 50.0, response.Price)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "validation", err: domain.ValidationError{Field: "first_name", Msg: "first name is required"}, wantCode: http.StatusBadRequest},
		{name: "dataset unavailable", err: domain.ErrDatasetUnavailable, wantCode: http.StatusNotFound},
		{name: "unknown route", err: errors.Join(errors.New("route 9"), domain.ErrNotFound), wantCode: http.StatusNotFound},
		{name: "storage", err: domain.StorageError{Op: "create booking", Err: errors.New("duplicate")}, wantCode: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService)

			body := []byte(`{"dataset_id":7,"route_id":11,"schedule_id":21,"first_name":"Mari","last_name":"Tamm"}`)
			c, w := newTestContext("POST", "/bookings", body)
			mockService.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, tc.err)

			handler.create(c)

			assert.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestBookingHandler_create_InvalidBody(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext("POST", "/bookings", []byte(`{"first_name":"Mari"}`))

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_get(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext("GET", "/bookings/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	mockService.On("GetBooking", c.Request.Context(), int64(1)).Return(sampleBooking(), nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reference":"ref-123"`)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_get_InvalidAndMissing(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext("GET", "/bookings/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext("GET", "/bookings/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	mockService.On("GetBooking", c.Request.Context(), int64(9)).Return(nil, domain.ErrNotFound)
	handler.get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_ticket(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext("GET", "/bookings/1/ticket", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	mockService.On("GetBooking", c.Request.Context(), int64(1)).Return(sampleBooking(), nil)

	handler.ticket(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ticket-ref-123.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestBookingHandler_cancellable(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext("GET", "/bookings/1/cancellable", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	b := sampleBooking()
	mockService.On("GetBooking", c.Request.Context(), int64(1)).Return(b, nil)
	mockService.On("CanCancel", c.Request.Context(), b).Return(true, nil)

	handler.cancellable(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response cancellableResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, cancellableResponse{BookingID: 1, Cancellable: true}, response)
}

func TestBookingHandler_cancel(t *testing.T) {
	testCases := []struct {
		name     string
		booking  *domain.Booking
		err      error
		wantCode int
	}{
		{name: "cancelled", booking: sampleBooking(), wantCode: http.StatusOK},
		{name: "dataset still valid", err: domain.ErrNotCancellable, wantCode: http.StatusConflict},
		{name: "missing", err: domain.ErrNotFound, wantCode: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService)

			c, w := newTestContext("DELETE", "/bookings/1", nil)
			c.Params = gin.Params{{Key: "id", Value: "1"}}
			if tc.booking != nil {
				mockService.On("CancelBooking", c.Request.Context(), int64(1)).Return(tc.booking, nil)
			} else {
				mockService.On("CancelBooking", c.Request.Context(), int64(1)).Return(nil, tc.err)
			}

			handler.cancel(c)

			assert.Equal(t, tc.wantCode, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
