package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, passenger_id, driver_id,
	pickup_address, pickup_lat, pickup_lng, pickup_place_id,
	destination_address, destination_lat, destination_lng, destination_place_id,
	vehicle_type, payment_method,
	base_fare, distance_fare, time_fare, surge_fare, total_fare, currency,
	estimated_distance, estimated_duration, status, surge_multiplier, notes,
	requested_at, accepted_at, started_at, completed_at, cancelled_at,
	rating_id, rating_rater_id, rating_rater_type, rating_value, rating_comment, rating_created_at`

// NextID reserves and returns the next monotonic ride id.
func (r *RideRepository) NextID(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT nextval('ride_id_seq')`).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("ride_%03d", n), nil
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (
			id, passenger_id, driver_id,
			pickup_address, pickup_lat, pickup_lng, pickup_place_id,
			destination_address, destination_lat, destination_lng, destination_place_id,
			vehicle_type, payment_method,
			base_fare, distance_fare, time_fare, surge_fare, total_fare, currency,
			estimated_distance, estimated_duration, status, surge_multiplier, notes,
			requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		          $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PassengerID,
		nullString(ride.DriverID),
		ride.Pickup.Address, ride.Pickup.Lat, ride.Pickup.Lng, nullString(ride.Pickup.PlaceID),
		ride.Destination.Address, ride.Destination.Lat, ride.Destination.Lng, nullString(ride.Destination.PlaceID),
		string(ride.VehicleType),
		string(ride.PaymentMethod),
		ride.Fare.BaseFare, ride.Fare.DistanceFare, ride.Fare.TimeFare,
		ride.Fare.SurgeFare, ride.Fare.TotalFare, ride.Fare.Currency,
		ride.EstimatedDistance,
		ride.EstimatedDuration,
		string(ride.Status),
		ride.SurgeMultiplier,
		nullString(ride.Notes),
		ride.RequestedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)

	ride, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves all rides in creation order.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+rideColumns+` FROM rides ORDER BY requested_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRides(rows)
}

// GetByUser retrieves all rides where the user is passenger or driver.
func (r *RideRepository) GetByUser(ctx context.Context, userID string) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE passenger_id = $1 OR driver_id = $1 ORDER BY requested_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRides(rows)
}

// UpdateStatus atomically moves a ride from one status to another using a
// compare-and-swap on the current status. The timestamp column for the new
// status is written only if still null.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus, driverID string, at time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1,
		    driver_id = COALESCE($2, driver_id),
		    accepted_at  = CASE WHEN $1 = 'accepted'    AND accepted_at  IS NULL THEN $3 ELSE accepted_at  END,
		    started_at   = CASE WHEN $1 = 'in_progress' AND started_at   IS NULL THEN $3 ELSE started_at   END,
		    completed_at = CASE WHEN $1 = 'completed'   AND completed_at IS NULL THEN $3 ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled'   AND cancelled_at IS NULL THEN $3 ELSE cancelled_at END
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query, string(to), nullString(driverID), at, id, string(from))
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Distinguish a missing ride from a lost status race.
		var exists bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, repository.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

// SetRating attaches a post-trip rating to a ride.
func (r *RideRepository) SetRating(ctx context.Context, id string, rating *domain.Rating) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE rides
		SET rating_id = $1, rating_rater_id = $2, rating_rater_type = $3,
		    rating_value = $4, rating_comment = $5, rating_created_at = $6
		WHERE id = $7`,
		rating.ID, rating.RaterID, string(rating.RaterType),
		rating.Value, nullString(rating.Comment), rating.CreatedAt,
		id,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var (
		ride         domain.Ride
		driverID     sql.NullString
		pickupPlace  sql.NullString
		destPlace    sql.NullString
		notes        sql.NullString
		acceptedAt   sql.NullTime
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		cancelledAt  sql.NullTime
		ratingID     sql.NullString
		raterID      sql.NullString
		raterType    sql.NullString
		ratingValue  sql.NullInt64
		ratingNote   sql.NullString
		ratedAt      sql.NullTime
	)

	err := row.Scan(
		&ride.ID, &ride.PassengerID, &driverID,
		&ride.Pickup.Address, &ride.Pickup.Lat, &ride.Pickup.Lng, &pickupPlace,
		&ride.Destination.Address, &ride.Destination.Lat, &ride.Destination.Lng, &destPlace,
		&ride.VehicleType, &ride.PaymentMethod,
		&ride.Fare.BaseFare, &ride.Fare.DistanceFare, &ride.Fare.TimeFare,
		&ride.Fare.SurgeFare, &ride.Fare.TotalFare, &ride.Fare.Currency,
		&ride.EstimatedDistance, &ride.EstimatedDuration, &ride.Status,
		&ride.SurgeMultiplier, &notes,
		&ride.RequestedAt, &acceptedAt, &startedAt, &completedAt, &cancelledAt,
		&ratingID, &raterID, &raterType, &ratingValue, &ratingNote, &ratedAt,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.Pickup.PlaceID = pickupPlace.String
	ride.Destination.PlaceID = destPlace.String
	ride.Notes = notes.String
	ride.AcceptedAt = timeOrZero(acceptedAt)
	ride.StartedAt = timeOrZero(startedAt)
	ride.CompletedAt = timeOrZero(completedAt)
	ride.CancelledAt = timeOrZero(cancelledAt)

	if ratingID.Valid {
		ride.Rating = &domain.Rating{
			ID:        ratingID.String,
			RideID:    ride.ID,
			RaterID:   raterID.String,
			RaterType: domain.RaterType(raterType.String),
			Value:     int(ratingValue.Int64),
			Comment:   ratingNote.String,
			CreatedAt: timeOrZero(ratedAt),
		}
	}

	return &ride, nil
}

func scanRides(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func timeOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
