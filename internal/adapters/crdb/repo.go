package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/stay-reservations/internal/domain"
	"github.com/robertarktes/stay-reservations/internal/observability"
)

const (
	SerializationFailureCode = "40001"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a serializable transaction. The availability check and
// the insert that follows it must commit as one unit, otherwise two concurrent
// requests can both observe a free range and double-book it.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return serializationErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return serializationErr(err)
	}
	return nil
}

func serializationErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
		return domain.ErrSerializationFailure
	}
	return err
}

// CountOverlapping counts non-cancelled bookings on the property whose
// [check_in, check_out) range intersects the requested one. Cancelled rows
// free their dates and are excluded.
func (r *Repository) CountOverlapping(ctx context.Context, tx pgx.Tx, propertyID int64, checkIn, checkOut time.Time) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE property_id = $1
		AND status IN ('pending', 'confirmed')
		AND check_in < $3 AND check_out > $2
	`, propertyID, checkIn, checkOut).Scan(&count)
	return count, err
}

// InsertBooking writes the booking with the status literal fixed to 'pending'
// in the statement itself; b.Status is not consulted.
func (r *Repository) InsertBooking(ctx context.Context, tx pgx.Tx, b *domain.Booking) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings (property_id, user_id, check_in, check_out, guests, total_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING id
	`, b.PropertyID, b.UserID, b.CheckIn, b.CheckOut, b.Guests, b.TotalPrice, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		return err
	}
	b.Status = domain.StatusPending
	return nil
}

func (r *Repository) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return getBooking(ctx, r.pool, id, "")
}

// GetBookingForUpdate locks the row so concurrent status updates on the same
// booking serialize against each other.
func (r *Repository) GetBookingForUpdate(ctx context.Context, tx pgx.Tx, id int64) (domain.Booking, error) {
	return getBooking(ctx, tx, id, " FOR UPDATE")
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getBooking(ctx context.Context, q rowQuerier, id int64, suffix string) (domain.Booking, error) {
	var b domain.Booking
	err := q.QueryRow(ctx, `
		SELECT id, property_id, user_id, check_in, check_out, guests, total_price, status, created_at
		FROM bookings WHERE id = $1`+suffix,
		id).Scan(&b.ID, &b.PropertyID, &b.UserID, &b.CheckIn, &b.CheckOut, &b.Guests, &b.TotalPrice, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

// UpdateBookingStatus applies a transition guarded by the expected current
// status; a racing update that already moved the row makes this affect zero
// rows, surfaced as ErrInvalidTransition.
func (r *Repository) UpdateBookingStatus(ctx context.Context, tx pgx.Tx, id int64, from, to domain.Status) error {
	result, err := tx.Exec(ctx, `
		UPDATE bookings SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// EnsureUser upserts the guest display row joined by the admin views. Identity
// itself is resolved from the bearer token, never from this table.
func (r *Repository) EnsureUser(ctx context.Context, id int64, name, email, phone, avatar string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, avatar)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = $2, email = $3, phone = $4, avatar = $5
	`, id, name, email, phone, avatar)
	return err
}
