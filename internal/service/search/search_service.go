package search

import (
	"context"
	"strings"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

type SearchUseCase interface {
	Search(ctx context.Context, origin, destination string) (*Result, error)
}

type DatasetProvider interface {
	Latest(ctx context.Context) (*domain.Dataset, error)
}

// Result is the answer to a search against one dataset. Items is empty,
// never nil, when no route matches.
type Result struct {
	DatasetID int64                `json:"dataset_id"`
	Expires   domain.TimestampSpec `json:"expires"`
	Items     []domain.Route       `json:"items"`
}

type SearchService struct {
	datasets DatasetProvider
}

func NewSearchService(datasets DatasetProvider) *SearchService {
	return &SearchService{datasets: datasets}
}

func (s *SearchService) Search(ctx context.Context, origin, destination string) (*Result, error) {
	if strings.TrimSpace(origin) == "" {
		return nil, domain.ValidationError{Field: "start", Msg: "origin is required"}
	}
	if strings.TrimSpace(destination) == "" {
		return nil, domain.ValidationError{Field: "end", Msg: "destination is required"}
	}

	ds, err := s.datasets.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, domain.ErrDatasetUnavailable
	}

	return &Result{
		DatasetID: ds.ID,
		Expires:   ds.Expires,
		Items:     FilterByEndpoints(ds, origin, destination),
	}, nil
}

// FilterByEndpoints returns the routes of ds running from origin to
// destination, matched exactly, in dataset order.
func FilterByEndpoints(ds *domain.Dataset, origin, destination string) []domain.Route {
	out := []domain.Route{}
	if ds == nil {
		return out
	}
	for _, r := range ds.Routes {
		if r.OriginName == origin && r.DestinationName == destination {
			out = append(out, r)
		}
	}
	return out
}

var _ SearchUseCase = (*SearchService)(nil)
