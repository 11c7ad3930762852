package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/stay-reservations/internal/adapters/crdb"
	redisadapter "github.com/robertarktes/stay-reservations/internal/adapters/redis"
	"github.com/robertarktes/stay-reservations/internal/booking"
	"github.com/robertarktes/stay-reservations/internal/domain"
	"github.com/robertarktes/stay-reservations/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps bookings in memory and mimics the repository contract,
// including the half-open overlap predicate and the guarded status update.
type fakeStore struct {
	nextID   int64
	bookings map[int64]domain.Booking
	outbox   []crdb.OutboxRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, bookings: make(map[int64]domain.Booking)}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (f *fakeStore) CountOverlapping(ctx context.Context, tx pgx.Tx, propertyID int64, checkIn, checkOut time.Time) (int, error) {
	count := 0
	for _, b := range f.bookings {
		if b.PropertyID != propertyID || b.Status == domain.StatusCancelled {
			continue
		}
		if domain.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) InsertBooking(ctx context.Context, tx pgx.Tx, b *domain.Booking) error {
	b.ID = f.nextID
	f.nextID++
	b.Status = domain.StatusPending
	f.bookings[b.ID] = *b
	return nil
}

func (f *fakeStore) InsertOutbox(ctx context.Context, tx pgx.Tx, rec crdb.OutboxRecord) error {
	f.outbox = append(f.outbox, rec)
	return nil
}

func (f *fakeStore) GetBookingForUpdate(ctx context.Context, tx pgx.Tx, id int64) (domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) UpdateBookingStatus(ctx context.Context, tx pgx.Tx, id int64, from, to domain.Status) error {
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return domain.ErrInvalidTransition
	}
	b.Status = to
	f.bookings[id] = b
	return nil
}

type fakeCatalog struct {
	props map[int64]*domain.Property
}

func (f *fakeCatalog) GetProperty(ctx context.Context, id int64) (*domain.Property, error) {
	p, ok := f.props[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) CountProperties(ctx context.Context) (int64, error) {
	return int64(len(f.props)), nil
}

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) PublishJSON(ctx context.Context, key string, body []byte) error {
	f.keys = append(f.keys, key)
	return nil
}

const lockTTL = 10 * time.Second

func newTestService(t *testing.T) (*booking.Service, *fakeStore, *fakePublisher, redismock.ClientMock) {
	t.Helper()
	store := newFakeStore()
	catalog := &fakeCatalog{props: map[int64]*domain.Property{
		7: {ID: 7, Title: "Loft in the old town", City: "Riga"},
	}}
	client, mock := redismock.NewClientMock()
	pub := &fakePublisher{}
	svc := booking.NewService(store, catalog, redisadapter.NewCache(client), pub, lockTTL, observability.NewLogger())
	return svc, store, pub, mock
}

func createReq(propertyID int64, in, out string) domain.CreateRequest {
	return domain.CreateRequest{
		PropertyID: propertyID,
		CheckIn:    date(in),
		CheckOut:   date(out),
		Guests:     2,
		TotalPrice: 400,
	}
}

func date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func expectLock(mock redismock.ClientMock) {
	mock.ExpectSetNX("booklock:7", "1", lockTTL).SetVal(true)
	mock.ExpectDel("booklock:7").SetVal(1)
}

func TestCreate_Success(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	expectLock(mock)

	b, err := svc.Create(context.Background(), createReq(7, "2026-04-01", "2026-04-05"), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 1, b.ID)
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.EqualValues(t, 42, b.UserID)

	require.Len(t, store.outbox, 1)
	assert.Equal(t, "booking.created", store.outbox[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ConflictWritesNothing(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	expectLock(mock)
	expectLock(mock)

	_, err := svc.Create(context.Background(), createReq(7, "2026-04-01", "2026-04-05"), 42)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), createReq(7, "2026-04-04", "2026-04-06"), 43)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, store.bookings, 1)
	assert.Len(t, store.outbox, 1)
}

func TestCreate_BackToBackStaysDoNotConflict(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	expectLock(mock)
	expectLock(mock)

	_, err := svc.Create(context.Background(), createReq(7, "2026-04-01", "2026-04-05"), 42)
	require.NoError(t, err)

	b, err := svc.Create(context.Background(), createReq(7, "2026-04-05", "2026-04-08"), 43)
	require.NoError(t, err)
	assert.EqualValues(t, 2, b.ID)
	assert.Len(t, store.bookings, 2)
}

func TestCreate_UnknownProperty(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), createReq(99, "2026-04-01", "2026-04-05"), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_LockBusy(t *testing.T) {
	svc, store, _, mock := newTestService(t)
	mock.ExpectSetNX("booklock:7", "1", lockTTL).SetVal(false)

	_, err := svc.Create(context.Background(), createReq(7, "2026-04-01", "2026-04-05"), 42)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, store.bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ValidationSkipsLock(t *testing.T) {
	svc, store, _, mock := newTestService(t)

	req := createReq(7, "2026-04-05", "2026-04-01")
	_, err := svc.Create(context.Background(), req, 42)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ConfirmIsTerminal(t *testing.T) {
	svc, store, pub, mock := newTestService(t)
	expectLock(mock)

	created, err := svc.Create(context.Background(), createReq(7, "2026-04-01", "2026-04-05"), 42)
	require.NoError(t, err)

	b, err := svc.UpdateStatus(context.Background(), created.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, b.Status)
	assert.Equal(t, []string{"booking.confirmed"}, pub.keys)

	_, err = svc.UpdateStatus(context.Background(), created.ID, "pending")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusConfirmed, store.bookings[created.ID].Status)

	_, err = svc.UpdateStatus(context.Background(), created.ID, "cancelled")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateStatus_CancellationFreesDates(t *testing.T) {
	svc, _, _, mock := newTestService(t)
	expectLock(mock)
	expectLock(mock)

	created, err := svc.Create(context.Background(), createReq(7, "2026-05-01", "2026-05-05"), 42)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, "cancelled")
	require.NoError(t, err)

	b, err := svc.Create(context.Background(), createReq(7, "2026-05-01", "2026-05-05"), 43)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, b.ID)
}

func TestUpdateStatus_InvalidLiteral(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), 1, "approved")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateStatus_UnknownBooking(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), 12345, "confirmed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
