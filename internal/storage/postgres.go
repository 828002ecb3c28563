package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/example/takataka/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Create(ctx context.Context, r *models.Reservation) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO reservations(id, passenger_id, driver_id, origin_label, origin_lat, origin_lon, dest_label, dest_lat, dest_lon, status, created_at, updated_at)
		VALUES($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		r.ID, r.PassengerID, r.DriverID,
		r.Origin.Label, r.Origin.Coord.Lat, r.Origin.Coord.Lon,
		r.Destination.Label, r.Destination.Coord.Lat, r.Destination.Coord.Lon,
		string(r.Status), r.CreatedAt, r.UpdatedAt)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.Reservation, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id, passenger_id, COALESCE(driver_id,''), origin_label, origin_lat, origin_lon, dest_label, dest_lat, dest_lon, status, created_at, updated_at
		FROM reservations WHERE id=$1`, id)
	return scanReservation(row)
}

// Claim performs the conditional assignment as a single UPDATE so the
// status check and the write cannot be interleaved with another claimant.
// Zero rows means either the reservation is missing or not searching; a
// follow-up read-only probe tells the two apart.
func (p *PostgresStore) Claim(ctx context.Context, id, driverID string) (*models.Reservation, error) {
	row := p.db.QueryRowContext(ctx, `UPDATE reservations
		SET status=$1, driver_id=$2, updated_at=now()
		WHERE id=$3 AND status=$4
		RETURNING id, passenger_id, COALESCE(driver_id,''), origin_label, origin_lat, origin_lon, dest_label, dest_lat, dest_lon, status, created_at, updated_at`,
		string(models.StatusAssigned), driverID, id, string(models.StatusSearching))
	r, err := scanReservation(row)
	if errors.Is(err, ErrNotFound) {
		var exists bool
		if probeErr := p.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id=$1)`, id).Scan(&exists); probeErr != nil {
			return nil, probeErr
		}
		if exists {
			return nil, ErrAlreadyClaimed
		}
		return nil, ErrNotFound
	}
	return r, err
}

func scanReservation(row *sql.Row) (*models.Reservation, error) {
	var r models.Reservation
	var status string
	err := row.Scan(&r.ID, &r.PassengerID, &r.DriverID,
		&r.Origin.Label, &r.Origin.Coord.Lat, &r.Origin.Coord.Lon,
		&r.Destination.Label, &r.Destination.Coord.Lat, &r.Destination.Coord.Lon,
		&status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s, err := models.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
	}
	r.Status = s
	return &r, nil
}
