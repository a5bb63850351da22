package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDataset(expires string) *domain.Dataset {
	return &domain.Dataset{
		Expires: domain.TimestampSpec{Value: expires, TimezoneType: domain.TimezoneTypeAbbreviation, Timezone: "Z"},
		Routes: []domain.Route{
			{
				ExternalID:      "route-1",
				OriginName:      "London",
				DestinationName: "Paris",
				DistanceKm:      350,
				Schedules: []domain.Schedule{
					{ExternalID: "schedule-1", Price: 50, OperatorStatus: "NoBus"},
					{ExternalID: "schedule-2", Price: 65, OperatorStatus: "NoBus"},
				},
			},
		},
	}
}

func TestMemoryDatasetRepository_CreateAssignsIDs(t *testing.T) {
	repo := NewMemoryDatasetRepository()
	ctx := context.Background()

	ds := newDataset("2024-08-31 23:59:59.000000")
	id, err := repo.Create(ctx, ds)
	require.NoError(t, err)

	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, ds.Routes[0].DatasetID)
	assert.NotZero(t, ds.Routes[0].ID)
	assert.Equal(t, ds.Routes[0].ID, ds.Routes[0].Schedules[1].RouteID)

	list, err := repo.ListOrderedByAge(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	loaded, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ds.Routes, loaded.Routes)
}

func TestMemoryDatasetRepository_CreateRejectsDuplicateRoutes(t *testing.T) {
	repo := NewMemoryDatasetRepository()
	ds := newDataset("2024-08-31 23:59:59.000000")
	ds.Routes = append(ds.Routes, ds.Routes[0])

	_, err := repo.Create(context.Background(), ds)
	assert.True(t, domain.IsStorage(err))

	list, _ := repo.ListOrderedByAge(context.Background())
	assert.Empty(t, list, "a failed create must not leave a partial dataset")
}

func TestMemoryDatasetRepository_RetainsFifteenMostRecent(t *testing.T) {
	repo := NewMemoryDatasetRepository()
	ctx := context.Background()

	var created []int64
	for i := 0; i < 16; i++ {
		ds := newDataset(fmt.Sprintf("2024-08-%02d 23:59:59.000000", i+1))
		_, err := repo.CreateAndEvict(ctx, ds, 15)
		require.NoError(t, err)
		created = append(created, ds.ID)
	}

	list, err := repo.ListOrderedByAge(ctx)
	require.NoError(t, err)
	require.Len(t, list, 15)

	ids := make([]int64, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, created[1:], ids)

	_, err = repo.ByID(ctx, created[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryDatasetRepository_EvictExcessAndDeleteMany(t *testing.T) {
	repo := NewMemoryDatasetRepository()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, newDataset("2024-08-31 23:59:59.000000"))
		require.NoError(t, err)
	}

	evicted, err := repo.EvictExcess(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, evicted)

	require.NoError(t, repo.DeleteMany(ctx, []int64{4}))
	list, _ := repo.ListOrderedByAge(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(5), list[1].ID)

	recent, err := repo.MostRecent(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), recent.ID)
}

func TestMemoryDatasetRepository_Validity(t *testing.T) {
	repo := NewMemoryDatasetRepository()
	ctx := context.Background()

	_, err := repo.MostRecent(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _ = repo.Create(ctx, newDataset("2024-08-30 12:00:00.000000")) // 1
	_, _ = repo.Create(ctx, newDataset("2024-08-31 23:59:59.000000")) // 2
	_, _ = repo.Create(ctx, newDataset("2024-08-31 06:00:00.000000")) // 3

	latest, err := repo.LatestValid(ctx, "2024-08-30 13:00:00")
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.ID)
	assert.Nil(t, latest.Routes, "validity lookups return headers only")

	// microseconds make the stored value sort after the same second
	latest, err = repo.LatestValid(ctx, "2024-08-31 23:59:59")
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.ID)

	_, err = repo.LatestValid(ctx, "2024-09-01 00:00:00")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	valid, err := repo.ValidByID(ctx, 3, "2024-08-31 05:00:00")
	require.NoError(t, err)
	assert.Equal(t, int64(3), valid.ID)

	_, err = repo.ValidByID(ctx, 1, "2024-08-31 05:00:00")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.ValidByID(ctx, 42, "2024-08-01 00:00:00")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryDatasetRepository_ConcurrentWritersKeepCap(t *testing.T) {
	repo := NewMemoryDatasetRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateAndEvict(ctx, newDataset("2024-08-31 23:59:59.000000"), 15)
			assert.NoError(t, err)
			list, _ := repo.ListOrderedByAge(ctx)
			assert.LessOrEqual(t, len(list), 15)
		}()
	}
	wg.Wait()

	list, _ := repo.ListOrderedByAge(ctx)
	require.Len(t, list, 15)
	assert.Equal(t, int64(26), list[0].ID)
}

func TestMemoryBookingRepository(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()

	b := &domain.Booking{Reference: "ref-1", DatasetID: 7, PassengerFirstName: "Mari", PassengerLastName: "Tamm"}
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, int64(1), b.ID)

	dup := &domain.Booking{Reference: "ref-1"}
	assert.True(t, domain.IsStorage(repo.Create(ctx, dup)))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mari", got.PassengerFirstName)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), domain.ErrNotFound)

	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExcessIDs(t *testing.T) {
	assert.Nil(t, excessIDs([]int64{1, 2, 3}, 3))
	assert.Equal(t, []int64{1}, excessIDs([]int64{1, 2, 3}, 2))
	assert.Equal(t, []int64{1, 2, 3}, excessIDs([]int64{1, 2, 3}, 0))
}
