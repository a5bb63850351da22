package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, reference, dataset_id, first_name, last_name, from_name, to_name,
	start_date, start_timezone_type, start_timezone,
	end_date, end_timezone_type, end_timezone,
	price, operator_name, created_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if err := r.db.QueryRow(ctx, `INSERT INTO bookings (reference, dataset_id, first_name, last_name, from_name, to_name,
			start_date, start_timezone_type, start_timezone,
			end_date, end_timezone_type, end_timezone,
			price, operator_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`,
		b.Reference, b.DatasetID, b.PassengerFirstName, b.PassengerLastName, b.OriginName, b.DestinationName,
		b.Departs.Value, b.Departs.TimezoneType, b.Departs.Timezone,
		b.Arrives.Value, b.Arrives.TimezoneType, b.Arrives.Timezone,
		b.Price, b.OperatorName).
		Scan(&b.ID, &b.CreatedAt); err != nil {
		return storageError("create booking", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.DatasetID, &b.PassengerFirstName, &b.PassengerLastName, &b.OriginName, &b.DestinationName,
		&b.Departs.Value, &b.Departs.TimezoneType, &b.Departs.Timezone,
		&b.Arrives.Value, &b.Arrives.TimezoneType, &b.Arrives.Timezone,
		&b.Price, &b.OperatorName, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
