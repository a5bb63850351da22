package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	EventDatasetRefreshed = "dataset_refreshed"
	EventDatasetEvicted   = "dataset_evicted"
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
)

type DatasetEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	DatasetIDs []int64   `json:"dataset_ids"`
	Expires    string    `json:"expires,omitempty"`
	Routes     int       `json:"routes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BookingEvent struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	BookingID       int64     `json:"booking_id"`
	Reference       string    `json:"reference"`
	DatasetID       int64     `json:"dataset_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	OriginName      string    `json:"origin_name"`
	DestinationName string    `json:"destination_name"`
	Departs         string    `json:"departs"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ParseBookingEvent decodes a booking event published by this service.
func ParseBookingEvent(data []byte) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return BookingEvent{}, fmt.Errorf("decode booking event: %w", err)
	}
	if event.Type == "" {
		return BookingEvent{}, errors.New("booking event without type")
	}
	return event, nil
}
