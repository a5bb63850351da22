package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/ticket"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	DatasetID  int64  `json:"dataset_id" binding:"required"`
	RouteID    int64  `json:"route_id" binding:"required"`
	ScheduleID int64  `json:"schedule_id" binding:"required"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

type bookingResponse struct {
	ID              int64                `json:"id"`
	Reference       string               `json:"reference"`
	DatasetID       int64                `json:"dataset_id"`
	FirstName       string               `json:"first_name"`
	LastName        string               `json:"last_name"`
	OriginName      string               `json:"origin_name"`
	DestinationName string               `json:"destination_name"`
	Departs         domain.TimestampSpec `json:"departs"`
	Arrives         domain.TimestampSpec `json:"arrives"`
	Price           float64              `json:"price"`
	OperatorName    string               `json:"operator_name"`
	CreatedAt       string               `json:"created_at"`
}

type cancellableResponse struct {
	BookingID   int64 `json:"booking_id"`
	Cancellable bool  `json:"cancellable"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.GET("/:id/ticket", h.ticket)
	router.GET("/:id/cancellable", h.cancellable)
	router.DELETE("/:id", h.cancel)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		Reference:       b.Reference,
		DatasetID:       b.DatasetID,
		FirstName:       b.PassengerFirstName,
		LastName:        b.PassengerLastName,
		OriginName:      b.OriginName,
		DestinationName: b.DestinationName,
		Departs:         b.Departs,
		Arrives:         b.Arrives,
		Price:           b.Price,
		OperatorName:    b.OperatorName,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		DatasetID:  req.DatasetID,
		RouteID:    req.RouteID,
		ScheduleID: req.ScheduleID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) ticket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := ticket.Render(&buf, b); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, ticket.Filename(b)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *BookingHandler) cancellable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	can, err := h.service.CanCancel(c.Request.Context(), b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancellableResponse{BookingID: b.ID, Cancellable: can})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}
