package booking_test

import (
	"context"
	"testing"

	"github.com/robertarktes/stay-reservations/internal/booking"
	"github.com/robertarktes/stay-reservations/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	byUser  []domain.Booking
	all     []domain.AdminBooking
	blocked []domain.DateRange
	revenue float64
	daily   []domain.DailyRevenue
	users   int64
	total   int64
	pending int64
}

func (f *fakeReader) BookingsByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return f.byUser, nil
}

func (f *fakeReader) AllBookings(ctx context.Context) ([]domain.AdminBooking, error) {
	return f.all, nil
}

func (f *fakeReader) BlockedDates(ctx context.Context, propertyID int64) ([]domain.DateRange, error) {
	return f.blocked, nil
}

func (f *fakeReader) ConfirmedRevenue(ctx context.Context) (float64, error) { return f.revenue, nil }

func (f *fakeReader) DailyRevenue(ctx context.Context) ([]domain.DailyRevenue, error) {
	return f.daily, nil
}

func (f *fakeReader) CountBookings(ctx context.Context) (int64, error)        { return f.total, nil }
func (f *fakeReader) CountPendingBookings(ctx context.Context) (int64, error) { return f.pending, nil }
func (f *fakeReader) CountUsers(ctx context.Context) (int64, error)           { return f.users, nil }

func TestReporter_ByUserJoinsProperties(t *testing.T) {
	reader := &fakeReader{byUser: []domain.Booking{
		{ID: 2, PropertyID: 7, UserID: 42, Status: domain.StatusPending},
		{ID: 1, PropertyID: 99, UserID: 42, Status: domain.StatusConfirmed},
	}}
	catalog := &fakeCatalog{props: map[int64]*domain.Property{
		7: {ID: 7, Title: "Loft in the old town", City: "Riga"},
	}}
	rep := booking.NewReporter(reader, catalog)

	got, err := rep.ByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Reader order is preserved; property 99 is gone from the catalog, so its
	// display entry is simply absent.
	assert.EqualValues(t, 2, got[0].ID)
	require.NotNil(t, got[0].Property)
	assert.Equal(t, "Loft in the old town", got[0].Property.Title)
	assert.Nil(t, got[1].Property)
}

func TestReporter_BlockedDatesIdempotent(t *testing.T) {
	reader := &fakeReader{blocked: []domain.DateRange{
		{CheckIn: date("2026-04-01"), CheckOut: date("2026-04-05")},
	}}
	rep := booking.NewReporter(reader, &fakeCatalog{props: map[int64]*domain.Property{}})

	first, err := rep.BlockedDates(context.Background(), 7)
	require.NoError(t, err)
	second, err := rep.BlockedDates(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReporter_DashboardStats(t *testing.T) {
	reader := &fakeReader{
		revenue: 1250,
		daily:   []domain.DailyRevenue{{Date: "2026-04-01", Revenue: 1250}},
		users:   3,
		total:   5,
		pending: 2,
	}
	catalog := &fakeCatalog{props: map[int64]*domain.Property{
		7: {ID: 7}, 8: {ID: 8},
	}}
	rep := booking.NewReporter(reader, catalog)

	stats, err := rep.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1250.0, stats.TotalRevenue)
	assert.EqualValues(t, 3, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.TotalProperties)
	assert.EqualValues(t, 5, stats.TotalBookings)
	assert.EqualValues(t, 2, stats.PendingBookings)
	assert.Len(t, stats.ChartData, 1)
}
