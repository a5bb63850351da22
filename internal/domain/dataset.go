package domain

import "time"

// Dataset is one snapshot of the provider's schedule data. It owns its
// routes, which own their schedules; the whole tree is written and deleted
// as a unit.
type Dataset struct {
	ID        int64         `json:"id"`
	Expires   TimestampSpec `json:"expires"`
	Routes    []Route       `json:"routes"`
	CreatedAt time.Time     `json:"created_at"`
}

type Route struct {
	ID              int64      `json:"id"`
	DatasetID       int64      `json:"dataset_id"`
	ExternalID      string     `json:"external_id"`
	OriginID        string     `json:"origin_id"`
	OriginName      string     `json:"origin_name"`
	DestinationID   string     `json:"destination_id"`
	DestinationName string     `json:"destination_name"`
	DistanceKm      int        `json:"distance_km"`
	Schedules       []Schedule `json:"schedules"`
}

type Schedule struct {
	ID             int64         `json:"id"`
	RouteID        int64         `json:"route_id"`
	ExternalID     string        `json:"external_id"`
	Price          float64       `json:"price"`
	Departs        TimestampSpec `json:"departs"`
	Arrives        TimestampSpec `json:"arrives"`
	OperatorID     string        `json:"operator_id"`
	OperatorStatus string        `json:"operator_status"`
}

// Route returns the route with the given id, or nil.
func (d *Dataset) Route(id int64) *Route {
	for i := range d.Routes {
		if d.Routes[i].ID == id {
			return &d.Routes[i]
		}
	}
	return nil
}

// Schedule returns the schedule with the given id, or nil.
func (r *Route) Schedule(id int64) *Schedule {
	for i := range r.Schedules {
		if r.Schedules[i].ID == id {
			return &r.Schedules[i]
		}
	}
	return nil
}

// Header returns a copy of the dataset without its routes.
func (d *Dataset) Header() Dataset {
	return Dataset{ID: d.ID, Expires: d.Expires, CreatedAt: d.CreatedAt}
}
