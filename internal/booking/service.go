package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/stay-reservations/internal/adapters/crdb"
	"github.com/robertarktes/stay-reservations/internal/domain"
	"github.com/robertarktes/stay-reservations/internal/observability"
)

// Store is the durable booking record, implemented by the crdb repository.
type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	CountOverlapping(ctx context.Context, tx pgx.Tx, propertyID int64, checkIn, checkOut time.Time) (int, error)
	InsertBooking(ctx context.Context, tx pgx.Tx, b *domain.Booking) error
	InsertOutbox(ctx context.Context, tx pgx.Tx, rec crdb.OutboxRecord) error
	GetBookingForUpdate(ctx context.Context, tx pgx.Tx, id int64) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, tx pgx.Tx, id int64, from, to domain.Status) error
}

// Catalog resolves property references owned by the listing side.
type Catalog interface {
	GetProperty(ctx context.Context, id int64) (*domain.Property, error)
}

// Locker serializes create attempts per property across processes.
type Locker interface {
	AcquireBookingLock(ctx context.Context, propertyID int64, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, propertyID int64) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, body []byte) error
}

// Service drives the booking lifecycle: creation behind the availability
// check, and the admin-only status transitions.
type Service struct {
	store   Store
	catalog Catalog
	locks   Locker
	events  Publisher
	lockTTL time.Duration
	logger  observability.Logger
	now     func() time.Time
}

func NewService(store Store, catalog Catalog, locks Locker, events Publisher, lockTTL time.Duration, logger observability.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		locks:   locks,
		events:  events,
		lockTTL: lockTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates the request, checks availability and inserts the booking as
// pending, all or nothing. The redis lock is the fast path for concurrent
// attempts on one property; the serializable transaction re-checks the overlap
// at commit, so the invariant holds even if the lock expires mid-flight.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest, userID int64) (domain.Booking, error) {
	b, err := domain.NewBooking(req, userID, s.now().UTC())
	if err != nil {
		return domain.Booking{}, err
	}

	if _, err := s.catalog.GetProperty(ctx, req.PropertyID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, errors.Wrap(domain.ErrNotFound, "property")
		}
		return domain.Booking{}, err
	}

	ok, err := s.locks.AcquireBookingLock(ctx, req.PropertyID, s.lockTTL)
	if err != nil {
		return domain.Booking{}, err
	}
	if !ok {
		observability.BookingConflicts.Inc()
		return domain.Booking{}, errors.Wrap(domain.ErrConflict, "another booking attempt for this property is in flight")
	}
	defer func() {
		if err := s.locks.ReleaseBookingLock(ctx, req.PropertyID); err != nil {
			s.logger.WithError(err).WithField("property_id", req.PropertyID).Warn("failed to release booking lock")
		}
	}()

	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		count, err := s.store.CountOverlapping(ctx, tx, req.PropertyID, req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}
		if count > 0 {
			observability.BookingConflicts.Inc()
			return errors.Wrap(domain.ErrConflict, "property already booked for the selected dates")
		}
		if err := s.store.InsertBooking(ctx, tx, &b); err != nil {
			return err
		}
		return s.store.InsertOutbox(ctx, tx, s.outboxRecord("booking.created", b))
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.logger.WithField("booking_id", b.ID).WithField("property_id", b.PropertyID).Info("booking created")
	return b, nil
}

// UpdateStatus applies an admin transition. The transition table is validated
// against the row's current status under a row lock, never against what the
// caller believes the status is.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (domain.Booking, error) {
	to, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Booking{}, err
	}

	var b domain.Booking
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		cur, err := s.store.GetBookingForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(cur.Status, to) {
			return errors.Wrapf(domain.ErrInvalidTransition, "%s -> %s", cur.Status, to)
		}
		if err := s.store.UpdateBookingStatus(ctx, tx, id, cur.Status, to); err != nil {
			return err
		}
		b = cur
		b.Status = to
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	if err := s.events.PublishJSON(ctx, "booking."+string(to), s.eventPayload(b)); err != nil {
		s.logger.WithError(err).WithField("booking_id", b.ID).Warn("failed to publish status event")
	}

	s.logger.WithField("booking_id", b.ID).WithField("status", b.Status).Info("booking status updated")
	return b, nil
}

func (s *Service) outboxRecord(eventType string, b domain.Booking) crdb.OutboxRecord {
	return crdb.OutboxRecord{
		ID:            uuid.New(),
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       s.eventPayload(b),
		DedupeKey:     uuid.New().String(),
	}
}

func (s *Service) eventPayload(b domain.Booking) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"booking_id":  b.ID,
		"property_id": b.PropertyID,
		"user_id":     b.UserID,
		"check_in":    b.CheckIn.Format(domain.DateLayout),
		"check_out":   b.CheckOut.Format(domain.DateLayout),
		"status":      b.Status,
	})
	return payload
}
