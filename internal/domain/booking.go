package domain

import (
	"time"

	"github.com/cockroachdb/errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts only the three known literals.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Wrapf(ErrValidation, "unknown status %q", s)
}

// CanTransition is the whole state machine: pending may move to confirmed or
// cancelled, both of which are terminal.
func CanTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusConfirmed || to == StatusCancelled)
}

type Booking struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	UserID     int64     `json:"user_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Guests     int       `json:"guests"`
	TotalPrice float64   `json:"total_price"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest deliberately has no status field: a freshly created booking is
// always pending, whatever the client sent on the wire.
type CreateRequest struct {
	PropertyID int64
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	TotalPrice float64
}

func NewBooking(req CreateRequest, userID int64, now time.Time) (Booking, error) {
	if req.PropertyID <= 0 {
		return Booking{}, errors.Wrap(ErrValidation, "property_id is required")
	}
	if !req.CheckIn.Before(req.CheckOut) {
		return Booking{}, errors.Wrap(ErrValidation, "check_in must be before check_out")
	}
	if req.Guests <= 0 {
		return Booking{}, errors.Wrap(ErrValidation, "guests must be positive")
	}
	if req.TotalPrice < 0 {
		return Booking{}, errors.Wrap(ErrValidation, "total_price must not be negative")
	}
	return Booking{
		PropertyID: req.PropertyID,
		UserID:     userID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Guests:     req.Guests,
		TotalPrice: req.TotalPrice,
		Status:     StatusPending,
		CreatedAt:  now,
	}, nil
}

// Property is the display view of the externally owned property catalog entry.
type Property struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	City     string   `json:"city"`
	Images   []string `json:"images"`
}
