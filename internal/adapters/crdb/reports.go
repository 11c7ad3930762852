package crdb

import (
	"context"
	"time"

	"github.com/robertarktes/stay-reservations/internal/domain"
)

// Read-only queries backing the aggregation views. Nothing here mutates state.

func (r *Repository) BookingsByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, property_id, user_id, check_in, check_out, guests, total_price, status, created_at
		FROM bookings WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.PropertyID, &b.UserID, &b.CheckIn, &b.CheckOut, &b.Guests, &b.TotalPrice, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// AllBookings joins guest display fields and orders pending rows first so the
// admin sees items awaiting action before resolved ones.
func (r *Repository) AllBookings(ctx context.Context) ([]domain.AdminBooking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.property_id, b.user_id, b.check_in, b.check_out, b.guests, b.total_price, b.status, b.created_at,
			COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(u.phone, ''), COALESCE(u.avatar, '')
		FROM bookings b
		LEFT JOIN users u ON b.user_id = u.id
		ORDER BY
			CASE WHEN b.status = 'pending' THEN 0 ELSE 1 END,
			b.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.AdminBooking
	for rows.Next() {
		var b domain.AdminBooking
		if err := rows.Scan(&b.ID, &b.PropertyID, &b.UserID, &b.CheckIn, &b.CheckOut, &b.Guests, &b.TotalPrice, &b.Status, &b.CreatedAt,
			&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.CustomerAvatar); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// BlockedDates returns the ranges held by pending and confirmed bookings.
// Pending ranges block deliberately, which over-blocks until the admin acts
// but avoids double-submission between request and approval.
func (r *Repository) BlockedDates(ctx context.Context, propertyID int64) ([]domain.DateRange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT check_in, check_out FROM bookings
		WHERE property_id = $1 AND status IN ('pending', 'confirmed')
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []domain.DateRange
	for rows.Next() {
		var dr domain.DateRange
		if err := rows.Scan(&dr.CheckIn, &dr.CheckOut); err != nil {
			return nil, err
		}
		ranges = append(ranges, dr)
	}
	return ranges, rows.Err()
}

// ConfirmedRevenue sums total_price over confirmed bookings only.
func (r *Repository) ConfirmedRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price), 0) FROM bookings WHERE status = 'confirmed'
	`).Scan(&revenue)
	return revenue, err
}

func (r *Repository) DailyRevenue(ctx context.Context) ([]domain.DailyRevenue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT created_at::date AS day, SUM(total_price)
		FROM bookings
		WHERE status = 'confirmed'
		GROUP BY day
		ORDER BY day ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []domain.DailyRevenue
	for rows.Next() {
		var day time.Time
		var revenue float64
		if err := rows.Scan(&day, &revenue); err != nil {
			return nil, err
		}
		series = append(series, domain.DailyRevenue{Date: day.Format(domain.DateLayout), Revenue: revenue})
	}
	return series, rows.Err()
}

func (r *Repository) CountBookings(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings`)
}

func (r *Repository) CountPendingBookings(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings WHERE status = 'pending'`)
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *Repository) count(ctx context.Context, query string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, query).Scan(&n)
	return n, err
}
