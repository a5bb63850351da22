package repository

import (
	"context"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// DatasetRepository persists datasets together with their routes and
// schedules. Lookups that find nothing return domain.ErrNotFound.
//
// localNow arguments are wall-clock strings in domain.CompareLayout; a
// dataset is valid while its stored expiry string sorts after localNow.
type DatasetRepository interface {
	// Create stores ds and its nested routes and schedules as one unit and
	// fills in the generated ids.
	Create(ctx context.Context, ds *domain.Dataset) (int64, error)
	// CreateAndEvict runs Create and EvictExcess atomically and returns the
	// evicted ids.
	CreateAndEvict(ctx context.Context, ds *domain.Dataset, keep int) ([]int64, error)
	MostRecent(ctx context.Context) (*domain.Dataset, error)
	ByID(ctx context.Context, id int64) (*domain.Dataset, error)
	ListOrderedByAge(ctx context.Context) ([]domain.Dataset, error)
	DeleteMany(ctx context.Context, ids []int64) error
	EvictExcess(ctx context.Context, keep int) ([]int64, error)
	LatestValid(ctx context.Context, localNow string) (*domain.Dataset, error)
	ValidByID(ctx context.Context, id int64, localNow string) (*domain.Dataset, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) error
}

// excessIDs returns the ids beyond the keep most recent, given ids in
// ascending order.
func excessIDs(ascending []int64, keep int) []int64 {
	if keep < 0 || len(ascending) <= keep {
		return nil
	}
	out := make([]int64, len(ascending)-keep)
	copy(out, ascending[:len(ascending)-keep])
	return out
}
