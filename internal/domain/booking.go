package domain

import "time"

// Booking is a denormalized copy of the booked route and schedule. It
// survives eviction of the dataset it was made against; DatasetID is only
// kept to decide whether the booking may be cancelled.
type Booking struct {
	ID                 int64         `json:"id"`
	Reference          string        `json:"reference"`
	DatasetID          int64         `json:"dataset_id"`
	PassengerFirstName string        `json:"first_name"`
	PassengerLastName  string        `json:"last_name"`
	OriginName         string        `json:"origin_name"`
	DestinationName    string        `json:"destination_name"`
	Departs            TimestampSpec `json:"departs"`
	Arrives            TimestampSpec `json:"arrives"`
	Price              float64       `json:"price"`
	OperatorName       string        `json:"operator_name"`
	CreatedAt          time.Time     `json:"created_at"`
}
