package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/example/carpool/internal/models"
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

func (p *PostgresStore) Insert(ctx context.Context, r models.Ride) (models.Ride, error) {
	r.ID = newID()
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO rides(id, driver_name, phone_number, seats_available, travel_time,
			origin_lat, origin_lng, destination_lat, destination_lng, current_lat, current_lng)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING created_at`,
		r.ID, r.DriverName, r.PhoneNumber, r.SeatsAvailable, r.TravelTime,
		r.OriginLat, r.OriginLng, r.DestinationLat, r.DestinationLng, r.CurrentLat, r.CurrentLng)
	if err := row.Scan(&r.CreatedAt); err != nil {
		return models.Ride{}, err
	}
	return r, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]models.Ride, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, driver_name, phone_number, seats_available, travel_time,
			origin_lat, origin_lng, destination_lat, destination_lng,
			current_lat, current_lng, created_at
		 FROM rides ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := make([]models.Ride, 0)
	for rows.Next() {
		var r models.Ride
		if err := rows.Scan(&r.ID, &r.DriverName, &r.PhoneNumber, &r.SeatsAvailable, &r.TravelTime,
			&r.OriginLat, &r.OriginLng, &r.DestinationLat, &r.DestinationLng,
			&r.CurrentLat, &r.CurrentLng, &r.CreatedAt); err != nil {
			return nil, err
		}
		rides = append(rides, r)
	}
	return rides, rows.Err()
}

func (p *PostgresStore) UpdatePosition(ctx context.Context, id string, lat, lng float64) (models.Ride, error) {
	row := p.db.QueryRowContext(ctx,
		`UPDATE rides SET current_lat=$1, current_lng=$2 WHERE id=$3
		 RETURNING id, driver_name, phone_number, seats_available, travel_time,
			origin_lat, origin_lng, destination_lat, destination_lng,
			current_lat, current_lng, created_at`,
		lat, lng, id)
	var r models.Ride
	err := row.Scan(&r.ID, &r.DriverName, &r.PhoneNumber, &r.SeatsAvailable, &r.TravelTime,
		&r.OriginLat, &r.OriginLng, &r.DestinationLat, &r.DestinationLng,
		&r.CurrentLat, &r.CurrentLng, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ride{}, ErrNotFound
	}
	if err != nil {
		return models.Ride{}, err
	}
	return r, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM rides WHERE id=$1`, id)
	return err
}

func (p *PostgresStore) Close() error { return p.db.Close() }
