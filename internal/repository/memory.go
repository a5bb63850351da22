package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// MemoryDatasetRepository keeps datasets in process. Writers hold the lock
// for the whole create-and-evict unit, so readers never see more than the
// retained count.
type MemoryDatasetRepository struct {
	mu             sync.RWMutex
	datasets       []domain.Dataset // ascending by id
	nextID         int64
	nextRouteID    int64
	nextScheduleID int64
	now            func() time.Time
}

func NewMemoryDatasetRepository() *MemoryDatasetRepository {
	return &MemoryDatasetRepository{now: time.Now}
}

func (r *MemoryDatasetRepository) Create(_ context.Context, ds *domain.Dataset) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insert(ds); err != nil {
		return 0, err
	}
	return ds.ID, nil
}

func (r *MemoryDatasetRepository) CreateAndEvict(_ context.Context, ds *domain.Dataset, keep int) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insert(ds); err != nil {
		return nil, err
	}
	return r.evict(keep), nil
}

func (r *MemoryDatasetRepository) EvictExcess(_ context.Context, keep int) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.evict(keep), nil
}

func (r *MemoryDatasetRepository) DeleteMany(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(ids)
	return nil
}

func (r *MemoryDatasetRepository) MostRecent(_ context.Context) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.datasets) == 0 {
		return nil, domain.ErrNotFound
	}
	h := r.datasets[len(r.datasets)-1].Header()
	return &h, nil
}

func (r *MemoryDatasetRepository) LatestValid(_ context.Context, localNow string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *domain.Dataset
	for i := range r.datasets {
		d := &r.datasets[i]
		if d.Expires.Value <= localNow {
			continue
		}
		// ascending ids, so >= prefers the newer one on equal expiry
		if best == nil || d.Expires.Value >= best.Expires.Value {
			best = d
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	h := best.Header()
	return &h, nil
}

func (r *MemoryDatasetRepository) ValidByID(_ context.Context, id int64, localNow string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := r.find(id)
	if d == nil || d.Expires.Value <= localNow {
		return nil, domain.ErrNotFound
	}
	h := d.Header()
	return &h, nil
}

func (r *MemoryDatasetRepository) ByID(_ context.Context, id int64) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := r.find(id)
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return cloneDataset(d), nil
}

func (r *MemoryDatasetRepository) ListOrderedByAge(_ context.Context) ([]domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Dataset, 0, len(r.datasets))
	for i := range r.datasets {
		out = append(out, r.datasets[i].Header())
	}
	return out, nil
}

func (r *MemoryDatasetRepository) insert(ds *domain.Dataset) error {
	seen := make(map[string]bool, len(ds.Routes))
	for _, rt := range ds.Routes {
		if seen[rt.ExternalID] {
			return domain.StorageError{Op: "insert route", Err: errDuplicateExternalID(rt.ExternalID)}
		}
		seen[rt.ExternalID] = true
	}

	r.nextID++
	ds.ID = r.nextID
	ds.CreatedAt = r.now()
	for i := range ds.Routes {
		rt := &ds.Routes[i]
		r.nextRouteID++
		rt.ID = r.nextRouteID
		rt.DatasetID = ds.ID
		for j := range rt.Schedules {
			r.nextScheduleID++
			rt.Schedules[j].ID = r.nextScheduleID
			rt.Schedules[j].RouteID = rt.ID
		}
	}
	r.datasets = append(r.datasets, *cloneDataset(ds))
	return nil
}

func (r *MemoryDatasetRepository) evict(keep int) []int64 {
	ids := make([]int64, 0, len(r.datasets))
	for _, d := range r.datasets {
		ids = append(ids, d.ID)
	}
	evicted := excessIDs(ids, keep)
	r.remove(evicted)
	return evicted
}

func (r *MemoryDatasetRepository) remove(ids []int64) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.datasets[:0]
	for _, d := range r.datasets {
		if !drop[d.ID] {
			kept = append(kept, d)
		}
	}
	r.datasets = kept
}

func (r *MemoryDatasetRepository) find(id int64) *domain.Dataset {
	i := sort.Search(len(r.datasets), func(i int) bool { return r.datasets[i].ID >= id })
	if i < len(r.datasets) && r.datasets[i].ID == id {
		return &r.datasets[i]
	}
	return nil
}

func cloneDataset(d *domain.Dataset) *domain.Dataset {
	out := d.Header()
	out.Routes = make([]domain.Route, len(d.Routes))
	for i, rt := range d.Routes {
		rt.Schedules = append([]domain.Schedule(nil), rt.Schedules...)
		if rt.Schedules == nil {
			rt.Schedules = []domain.Schedule{}
		}
		out.Routes[i] = rt
	}
	return &out
}

type errDuplicateExternalID string

func (e errDuplicateExternalID) Error() string {
	return "duplicate route external id " + string(e)
}

// MemoryBookingRepository keeps bookings in process.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[int64]domain.Booking
	nextID   int64
	now      func() time.Time
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[int64]domain.Booking),
		now:      time.Now,
	}
}

func (r *MemoryBookingRepository) Create(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.Reference == b.Reference {
			return domain.StorageError{Op: "create booking", Err: errDuplicateReference(b.Reference)}
		}
	}
	r.nextID++
	b.ID = r.nextID
	b.CreatedAt = r.now()
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryBookingRepository) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

type errDuplicateReference string

func (e errDuplicateReference) Error() string {
	return "duplicate booking reference " + string(e)
}

var (
	_ DatasetRepository = (*MemoryDatasetRepository)(nil)
	_ BookingRepository = (*MemoryBookingRepository)(nil)
)
