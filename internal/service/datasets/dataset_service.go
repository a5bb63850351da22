package datasets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/timezone"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxRetained is how many datasets survive an eviction pass.
const DefaultMaxRetained = 15

// DatasetUseCase resolves the dataset callers should read from. A nil
// dataset with a nil error means none is available.
type DatasetUseCase interface {
	Latest(ctx context.Context) (*domain.Dataset, error)
	ByID(ctx context.Context, id int64) (*domain.Dataset, error)
	Refresh(ctx context.Context) (*domain.Dataset, error)
}

type Fetcher interface {
	FetchFresh(ctx context.Context) *domain.Dataset
}

// SnapshotCache stores complete datasets by id. GetDataset returns nil, nil
// on a miss.
type SnapshotCache interface {
	GetDataset(ctx context.Context, id int64) (*domain.Dataset, error)
	SetDataset(ctx context.Context, ds *domain.Dataset) error
	DeleteDatasets(ctx context.Context, ids []int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type DatasetService struct {
	repo        repository.DatasetRepository
	fetcher     Fetcher
	snapshots   SnapshotCache
	producer    Producer
	topic       string
	now         func() time.Time
	maxRetained int
	group       singleflight.Group
}

type DatasetServiceOption func(*DatasetService)

func WithClock(now func() time.Time) DatasetServiceOption {
	return func(s *DatasetService) {
		s.now = now
	}
}

func WithMaxRetained(n int) DatasetServiceOption {
	return func(s *DatasetService) {
		if n > 0 {
			s.maxRetained = n
		}
	}
}

func WithSnapshotCache(c SnapshotCache) DatasetServiceOption {
	return func(s *DatasetService) {
		s.snapshots = c
	}
}

func WithEvents(producer Producer, topic string) DatasetServiceOption {
	return func(s *DatasetService) {
		s.producer = producer
		s.topic = topic
	}
}

func NewDatasetService(repo repository.DatasetRepository, fetcher Fetcher, opts ...DatasetServiceOption) *DatasetService {
	s := &DatasetService{
		repo:        repo,
		fetcher:     fetcher,
		now:         time.Now,
		maxRetained: DefaultMaxRetained,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latest returns the stored dataset with the furthest expiry that is still
// valid, fetching a fresh one from the provider when none is.
//
// "Now" is rendered in the timezone of the most recent stored dataset, the
// only record of the provider's zone the service has.
func (s *DatasetService) Latest(ctx context.Context) (*domain.Dataset, error) {
	base, err := s.repo.MostRecent(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return s.fetch(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load most recent dataset: %w", err)
	}

	localNow := timezone.LocalNow(base.Expires, s.now())
	header, err := s.repo.LatestValid(ctx, localNow)
	switch {
	case err == nil:
		ds, err := s.load(ctx, header.ID)
		if err == nil {
			return ds, nil
		}
		// evicted between the two reads
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find valid dataset: %w", err)
	}

	return s.fetch(ctx)
}

// ByID returns dataset id only while it is still valid. It never fetches.
func (s *DatasetService) ByID(ctx context.Context, id int64) (*domain.Dataset, error) {
	base, err := s.repo.MostRecent(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load most recent dataset: %w", err)
	}

	localNow := timezone.LocalNow(base.Expires, s.now())
	if _, err := s.repo.ValidByID(ctx, id, localNow); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find dataset %d: %w", id, err)
	}

	ds, err := s.load(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return ds, err
}

// Refresh makes sure a valid dataset is stored, fetching one if needed.
func (s *DatasetService) Refresh(ctx context.Context) (*domain.Dataset, error) {
	ds, err := s.Latest(ctx)
	if err != nil {
		log.Printf("[DATASETS] action=refresh status=failed err=%v", err)
		return nil, err
	}
	if ds == nil {
		log.Printf("[DATASETS] action=refresh status=unavailable")
		return nil, nil
	}
	log.Printf("[DATASETS] action=refresh status=ok dataset_id=%d expires=%q", ds.ID, ds.Expires.Value)
	return ds, nil
}

func (s *DatasetService) load(ctx context.Context, id int64) (*domain.Dataset, error) {
	if s.snapshots != nil {
		cached, err := s.snapshots.GetDataset(ctx, id)
		if err != nil {
			log.Printf("[DATASETS] action=snapshot_get dataset_id=%d err=%v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	ds, err := s.repo.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load dataset %d: %w", id, err)
	}

	if s.snapshots != nil {
		if err := s.snapshots.SetDataset(context.WithoutCancel(ctx), ds); err != nil {
			log.Printf("[DATASETS] action=snapshot_set dataset_id=%d err=%v", id, err)
		}
	}
	return ds, nil
}

// fetch runs one provider attempt for all concurrent callers and stores the
// result together with its eviction pass.
func (s *DatasetService) fetch(ctx context.Context) (*domain.Dataset, error) {
	v, err, _ := s.group.Do("fetch", func() (interface{}, error) {
		ds := s.fetcher.FetchFresh(ctx)
		if ds == nil {
			return nil, nil
		}

		wctx := context.WithoutCancel(ctx)
		evicted, err := s.repo.CreateAndEvict(wctx, ds, s.maxRetained)
		if err != nil {
			return nil, fmt.Errorf("store dataset: %w", err)
		}
		log.Printf("[DATASETS] action=create dataset_id=%d routes=%d evicted=%v", ds.ID, len(ds.Routes), evicted)

		s.afterCreate(wctx, ds, evicted)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	ds, _ := v.(*domain.Dataset)
	return ds, nil
}

func (s *DatasetService) afterCreate(ctx context.Context, ds *domain.Dataset, evicted []int64) {
	if s.snapshots != nil {
		if err := s.snapshots.SetDataset(ctx, ds); err != nil {
			log.Printf("[DATASETS] action=snapshot_set dataset_id=%d err=%v", ds.ID, err)
		}
		if err := s.snapshots.DeleteDatasets(ctx, evicted); err != nil {
			log.Printf("[DATASETS] action=snapshot_delete ids=%v err=%v", evicted, err)
		}
	}

	s.publish(ctx, domain.DatasetEvent{
		Type:       domain.EventDatasetRefreshed,
		DatasetIDs: []int64{ds.ID},
		Expires:    ds.Expires.Value,
		Routes:     len(ds.Routes),
	})
	if len(evicted) > 0 {
		s.publish(ctx, domain.DatasetEvent{
			Type:       domain.EventDatasetEvicted,
			DatasetIDs: evicted,
		})
	}
}

func (s *DatasetService) publish(ctx context.Context, event domain.DatasetEvent) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.now().UTC()
	if err := s.producer.Publish(ctx, s.topic, event.ID, event); err != nil {
		log.Printf("[DATASETS] action=publish type=%s err=%v", event.Type, err)
	}
}

var _ DatasetUseCase = (*DatasetService)(nil)
