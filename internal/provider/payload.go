package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

var ErrEmptyPayload = errors.New("provider returned an empty payload")

type timestampPayload struct {
	Date         string `json:"date"`
	TimezoneType int    `json:"timezone_type"`
	Timezone     string `json:"timezone"`
}

type placePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type companyPayload struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type schedulePayload struct {
	ID      string           `json:"id"`
	Price   float64          `json:"price"`
	Start   timestampPayload `json:"start"`
	End     timestampPayload `json:"end"`
	Company companyPayload   `json:"company"`
}

type routePayload struct {
	ID       string            `json:"id"`
	From     placePayload      `json:"from"`
	To       placePayload      `json:"to"`
	Distance float64           `json:"distance"`
	Schedule []schedulePayload `json:"schedule"`
}

type datasetPayload struct {
	ID      string            `json:"id"`
	Expires *timestampPayload `json:"expires"`
	Routes  []routePayload    `json:"routes"`
}

// Decode parses a provider response into an unsaved dataset.
func Decode(body []byte) (*domain.Dataset, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}

	var p *datasetPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	if p == nil || p.Expires == nil || p.Expires.Date == "" {
		return nil, ErrEmptyPayload
	}

	ds := &domain.Dataset{
		Expires: p.Expires.spec(),
		Routes:  make([]domain.Route, 0, len(p.Routes)),
	}
	for _, r := range p.Routes {
		route := domain.Route{
			ExternalID:      r.ID,
			OriginID:        r.From.ID,
			OriginName:      r.From.Name,
			DestinationID:   r.To.ID,
			DestinationName: r.To.Name,
			DistanceKm:      int(math.Round(r.Distance)),
			Schedules:       make([]domain.Schedule, 0, len(r.Schedule)),
		}
		for _, s := range r.Schedule {
			route.Schedules = append(route.Schedules, domain.Schedule{
				ExternalID:     s.ID,
				Price:          s.Price,
				Departs:        s.Start.spec(),
				Arrives:        s.End.spec(),
				OperatorID:     s.Company.ID,
				OperatorStatus: s.Company.State,
			})
		}
		ds.Routes = append(ds.Routes, route)
	}
	return ds, nil
}

func (t timestampPayload) spec() domain.TimestampSpec {
	return domain.TimestampSpec{Value: t.Date, TimezoneType: t.TimezoneType, Timezone: t.Timezone}
}
