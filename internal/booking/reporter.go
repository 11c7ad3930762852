package booking

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/stay-reservations/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Reader is the read side of the booking store. Everything here recomputes
// from the store on each call; there is no cache to invalidate.
type Reader interface {
	BookingsByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	AllBookings(ctx context.Context) ([]domain.AdminBooking, error)
	BlockedDates(ctx context.Context, propertyID int64) ([]domain.DateRange, error)
	ConfirmedRevenue(ctx context.Context) (float64, error)
	DailyRevenue(ctx context.Context) ([]domain.DailyRevenue, error)
	CountBookings(ctx context.Context) (int64, error)
	CountPendingBookings(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
}

type PropertyCounter interface {
	Catalog
	CountProperties(ctx context.Context) (int64, error)
}

// Reporter serves the aggregation views: per-user history, blocked-date
// calendars and the admin dashboard.
type Reporter struct {
	reader  Reader
	catalog PropertyCounter
}

func NewReporter(reader Reader, catalog PropertyCounter) *Reporter {
	return &Reporter{reader: reader, catalog: catalog}
}

// ByUser returns the user's bookings newest-first, each joined with the
// property display fields from the catalog.
func (r *Reporter) ByUser(ctx context.Context, userID int64) ([]domain.UserBooking, error) {
	bookings, err := r.reader.BookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	props, err := r.fetchProperties(ctx, propertyIDs(bookings))
	if err != nil {
		return nil, err
	}

	out := make([]domain.UserBooking, len(bookings))
	for i, b := range bookings {
		out[i] = domain.UserBooking{Booking: b, Property: props[b.PropertyID]}
	}
	return out, nil
}

func (r *Reporter) BlockedDates(ctx context.Context, propertyID int64) ([]domain.DateRange, error) {
	return r.reader.BlockedDates(ctx, propertyID)
}

// All is the admin view: guest display data joined in the store, property
// display data joined here, pending rows first.
func (r *Reporter) All(ctx context.Context) ([]domain.AdminBooking, error) {
	bookings, err := r.reader.AllBookings(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(bookings))
	seen := make(map[int64]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.PropertyID] {
			seen[b.PropertyID] = true
			ids = append(ids, b.PropertyID)
		}
	}
	props, err := r.fetchProperties(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range bookings {
		bookings[i].Property = props[bookings[i].PropertyID]
	}
	return bookings, nil
}

// DashboardStats recomputes the admin aggregates, fanning the independent
// queries out concurrently.
func (r *Reporter) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalRevenue, err = r.reader.ConfirmedRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ChartData, err = r.reader.DailyRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = r.reader.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProperties, err = r.catalog.CountProperties(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalBookings, err = r.reader.CountBookings(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingBookings, err = r.reader.CountPendingBookings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.DashboardStats{}, err
	}
	return stats, nil
}

func propertyIDs(bookings []domain.Booking) []int64 {
	ids := make([]int64, 0, len(bookings))
	seen := make(map[int64]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.PropertyID] {
			seen[b.PropertyID] = true
			ids = append(ids, b.PropertyID)
		}
	}
	return ids
}

// fetchProperties loads catalog entries concurrently. A property deleted after
// its booking was made simply yields a nil display entry.
func (r *Reporter) fetchProperties(ctx context.Context, ids []int64) (map[int64]*domain.Property, error) {
	props := make([]*domain.Property, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			p, err := r.catalog.GetProperty(gctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return err
			}
			props[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int64]*domain.Property, len(ids))
	for i, id := range ids {
		if props[i] != nil {
			out[id] = props[i]
		}
	}
	return out, nil
}
