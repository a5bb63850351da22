package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// datasetWriteLock serializes dataset writers so the retention cap holds
// across concurrent inserts.
const datasetWriteLock int64 = 0x64617461

const datasetColumns = `id, expires_date, expires_timezone_type, expires_timezone, created_at`

type PGDatasetRepository struct {
	db *pgxpool.Pool
}

func NewDatasetRepository(db *pgxpool.Pool) DatasetRepository {
	return &PGDatasetRepository{db: db}
}

func (r *PGDatasetRepository) Create(ctx context.Context, ds *domain.Dataset) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, datasetWriteLock); err != nil {
		return 0, err
	}
	if err := insertDataset(ctx, tx, ds); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, storageError("create dataset", err)
	}
	return ds.ID, nil
}

func (r *PGDatasetRepository) CreateAndEvict(ctx context.Context, ds *domain.Dataset, keep int) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, datasetWriteLock); err != nil {
		return nil, err
	}
	if err := insertDataset(ctx, tx, ds); err != nil {
		return nil, err
	}
	evicted, err := evictExcess(ctx, tx, keep)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("create dataset", err)
	}
	return evicted, nil
}

func (r *PGDatasetRepository) EvictExcess(ctx context.Context, keep int) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, datasetWriteLock); err != nil {
		return nil, err
	}
	evicted, err := evictExcess(ctx, tx, keep)
	if err != nil {
		return nil, err
	}
	return evicted, tx.Commit(ctx)
}

func (r *PGDatasetRepository) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := deleteDatasets(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGDatasetRepository) MostRecent(ctx context.Context) (*domain.Dataset, error) {
	row := r.db.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY id DESC LIMIT 1`)
	return scanDataset(row)
}

func (r *PGDatasetRepository) LatestValid(ctx context.Context, localNow string) (*domain.Dataset, error) {
	row := r.db.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets
		WHERE expires_date > $1
		ORDER BY expires_date DESC, id DESC
		LIMIT 1`, localNow)
	return scanDataset(row)
}

func (r *PGDatasetRepository) ValidByID(ctx context.Context, id int64, localNow string) (*domain.Dataset, error) {
	row := r.db.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id=$1 AND expires_date > $2`, id, localNow)
	return scanDataset(row)
}

func (r *PGDatasetRepository) ListOrderedByAge(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.db.Query(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datasets := make([]domain.Dataset, 0)
	for rows.Next() {
		var d domain.Dataset
		if err := rows.Scan(&d.ID, &d.Expires.Value, &d.Expires.TimezoneType, &d.Expires.Timezone, &d.CreatedAt); err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

// ByID loads the dataset with all routes and schedules from one snapshot.
func (r *PGDatasetRepository) ByID(ctx context.Context, id int64) (*domain.Dataset, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ds, err := scanDataset(tx.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT id, dataset_id, external_id, from_id, from_name, to_id, to_name, distance
		FROM routes WHERE dataset_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	ds.Routes = make([]domain.Route, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(&rt.ID, &rt.DatasetID, &rt.ExternalID, &rt.OriginID, &rt.OriginName, &rt.DestinationID, &rt.DestinationName, &rt.DistanceKm); err != nil {
			rows.Close()
			return nil, err
		}
		rt.Schedules = make([]domain.Schedule, 0)
		index[rt.ID] = len(ds.Routes)
		ds.Routes = append(ds.Routes, rt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `SELECT s.id, s.route_id, s.external_id, s.price,
			s.start_date, s.start_timezone_type, s.start_timezone,
			s.end_date, s.end_timezone_type, s.end_timezone,
			s.company_id, s.company_state
		FROM schedules s JOIN routes r ON r.id = s.route_id
		WHERE r.dataset_id=$1 ORDER BY s.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s domain.Schedule
		if err := rows.Scan(&s.ID, &s.RouteID, &s.ExternalID, &s.Price,
			&s.Departs.Value, &s.Departs.TimezoneType, &s.Departs.Timezone,
			&s.Arrives.Value, &s.Arrives.TimezoneType, &s.Arrives.Timezone,
			&s.OperatorID, &s.OperatorStatus); err != nil {
			return nil, err
		}
		if i, ok := index[s.RouteID]; ok {
			ds.Routes[i].Schedules = append(ds.Routes[i].Schedules, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ds, nil
}

func insertDataset(ctx context.Context, tx pgx.Tx, ds *domain.Dataset) error {
	if err := tx.QueryRow(ctx, `INSERT INTO datasets (expires_date, expires_timezone_type, expires_timezone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, ds.Expires.Value, ds.Expires.TimezoneType, ds.Expires.Timezone).
		Scan(&ds.ID, &ds.CreatedAt); err != nil {
		return storageError("insert dataset", err)
	}

	for i := range ds.Routes {
		rt := &ds.Routes[i]
		rt.DatasetID = ds.ID
		if err := tx.QueryRow(ctx, `INSERT INTO routes (dataset_id, external_id, from_id, from_name, to_id, to_name, distance)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`, rt.DatasetID, rt.ExternalID, rt.OriginID, rt.OriginName, rt.DestinationID, rt.DestinationName, rt.DistanceKm).
			Scan(&rt.ID); err != nil {
			return storageError("insert route", err)
		}

		for j := range rt.Schedules {
			s := &rt.Schedules[j]
			s.RouteID = rt.ID
			if err := tx.QueryRow(ctx, `INSERT INTO schedules (route_id, external_id, price,
					start_date, start_timezone_type, start_timezone,
					end_date, end_timezone_type, end_timezone,
					company_id, company_state)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				RETURNING id`, s.RouteID, s.ExternalID, s.Price,
				s.Departs.Value, s.Departs.TimezoneType, s.Departs.Timezone,
				s.Arrives.Value, s.Arrives.TimezoneType, s.Arrives.Timezone,
				s.OperatorID, s.OperatorStatus).
				Scan(&s.ID); err != nil {
				return storageError("insert schedule", err)
			}
		}
	}
	return nil
}

func evictExcess(ctx context.Context, tx pgx.Tx, keep int) ([]int64, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM datasets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}

	evicted := excessIDs(ids, keep)
	if len(evicted) == 0 {
		return nil, nil
	}
	if err := deleteDatasets(ctx, tx, evicted); err != nil {
		return nil, err
	}
	return evicted, nil
}

// deleteDatasets removes the whole tree explicitly; the FK cascade is a
// second line only.
func deleteDatasets(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM schedules WHERE route_id IN (SELECT id FROM routes WHERE dataset_id = ANY($1))`, ids); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM routes WHERE dataset_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete routes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM datasets WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete datasets: %w", err)
	}
	return nil
}

func scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var d domain.Dataset
	if err := row.Scan(&d.ID, &d.Expires.Value, &d.Expires.TimezoneType, &d.Expires.Timezone, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// storageError marks integrity violations (SQLSTATE class 23) as
// domain.StorageError.
func storageError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return domain.StorageError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ DatasetRepository = (*PGDatasetRepository)(nil)
