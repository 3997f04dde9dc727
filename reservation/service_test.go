package reservation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingIDPattern = regexp.MustCompile(`^BK-(\d{8}-\d{3}|[0-9a-f]{8})$`)

func TestCreateBookingPicksBestFit(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 2, models.TableAvailable)
	seedTable(t, db, "TBL-002", 6, models.TableAvailable)
	seedTable(t, db, "TBL-003", 8, models.TableAvailable)
	n := &recordingNotifier{}
	svc := NewService(db, n)

	res, err := svc.CreateBooking(context.Background(), bookingRequest(4))
	require.NoError(t, err)

	assert.Equal(t, "TBL-002", res.TableID)
	assert.Equal(t, models.BookingPending, res.Status)
	assert.Equal(t, models.GuestUserID, res.UserID)
	assert.Equal(t, "BK-20240215-001", res.ID)
	assert.Equal(t, notify.OutcomeDispatched, res.Notification)
	assert.Equal(t, models.TableReserved, tableStatus(t, db, "TBL-002"))
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, "TBL-001"))
	assert.Equal(t, []notify.Channel{notify.ChannelAdmin}, n.channels())
}

func TestResolverNeverReturnsUndersizedTable(t *testing.T) {
	db := setupTestDB(t)
	seats := []int{2, 4, 4, 6, 8, 10}
	for i, s := range seats {
		seedTable(t, db, fmt.Sprintf("TBL-%03d", i+1), s, models.TableAvailable)
	}
	svc := NewService(db, nil)

	for guests := 1; guests <= 12; guests++ {
		id, err := svc.FindOrValidateTable(context.Background(), guests, "2024-02-15", "19:00", "")
		if guests > 10 {
			assert.ErrorIs(t, err, ErrNoAvailability)
			continue
		}
		require.NoError(t, err)
		table, err := svc.GetTable(context.Background(), id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, table.Seats, guests, "guests=%d", guests)
	}
}

func TestCandidatesOrderedBySeatsThenID(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-004", 4, models.TableAvailable)
	seedTable(t, db, "TBL-001", 6, models.TableAvailable)
	seedTable(t, db, "TBL-003", 4, models.TableAvailable)
	seedTable(t, db, "TBL-002", 4, models.TableReserved)
	svc := NewService(db, nil)

	tables, err := svc.Candidates(context.Background(), 3, "2024-02-15", "19:00", "")
	require.NoError(t, err)
	var ids []string
	for _, tb := range tables {
		ids = append(ids, tb.ID)
	}
	assert.Equal(t, []string{"TBL-003", "TBL-004", "TBL-001"}, ids)
}

func TestCreateBookingValidation(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	svc := NewService(db, nil)

	cases := []struct {
		name  string
		mut   func(*BookingRequest)
		field string
	}{
		{"missing name", func(r *BookingRequest) { r.CustomerName = "  " }, "customerName"},
		{"missing phone", func(r *BookingRequest) { r.Phone = "" }, "phone"},
		{"bad email", func(r *BookingRequest) { r.Email = "nope" }, "email"},
		{"bad date", func(r *BookingRequest) { r.Date = "15/02/2024" }, "date"},
		{"missing time", func(r *BookingRequest) { r.Time = "" }, "time"},
		{"zero guests", func(r *BookingRequest) { r.Guests = 0 }, "guests"},
		{"negative guests", func(r *BookingRequest) { r.Guests = -2 }, "guests"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := bookingRequest(2)
			tc.mut(&req)
			_, err := svc.CreateBooking(context.Background(), req)
			var ie *InputError
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, tc.field, ie.Field)
		})
	}

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, "TBL-001"))
}

func TestCreateBookingNoAvailability(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 2, models.TableAvailable)
	n := &recordingNotifier{}
	svc := NewService(db, n)

	_, err := svc.CreateBooking(context.Background(), bookingRequest(4))
	assert.ErrorIs(t, err, ErrNoAvailability)
	assert.Empty(t, n.channels())
}

func TestRequestedTable(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	seedTable(t, db, "TBL-002", 2, models.TableAvailable)
	svc := NewService(db, nil)
	ctx := context.Background()

	req := bookingRequest(4)
	req.TableID = "TBL-404"
	_, err := svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrTableNotFound)

	req.TableID = "TBL-002"
	_, err = svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrNoAvailability, "too few seats")

	req.TableID = "TBL-001"
	first, err := svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "TBL-001", first.TableID)

	_, err = svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrNoAvailability, "same slot")

	// a reserved table can still be requested for another slot
	req.Time = "21:00"
	second, err := svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "TBL-001", second.TableID)
	assert.Equal(t, "BK-20240215-002", second.ID)
}

func TestLostClaimIsReportedAsSlotTaken(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	svc := NewService(db, nil)
	ctx := context.Background()

	stale, err := svc.Candidates(ctx, 4, "2024-02-15", "19:00", "")
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, bookingRequest(4))
	require.NoError(t, err)

	req := bookingRequest(4)
	req.normalize()
	_, err = svc.commit(ctx, "BK-20240215-099", req, stale[0])
	assert.ErrorIs(t, err, errSlotTaken)

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLostClaimMovesToNextCandidate(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	seedTable(t, db, "TBL-002", 6, models.TableAvailable)
	svc := NewService(db, nil)
	ctx := context.Background()

	// someone else grabs the best fit between resolution and commit
	require.NoError(t, db.Model(&models.Table{}).Where("id = ?", "TBL-001").
		Update("status", models.TableReserved).Error)

	res, err := svc.CreateBooking(ctx, bookingRequest(4))
	require.NoError(t, err)
	assert.Equal(t, "TBL-002", res.TableID)
}

func TestStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	n := &recordingNotifier{}
	svc := NewService(db, n)
	ctx := context.Background()

	res, err := svc.CreateBooking(ctx, bookingRequest(2))
	require.NoError(t, err)

	confirmed := models.BookingConfirmed
	b, err := svc.UpdateBooking(ctx, res.ID, BookingUpdate{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, models.TableReserved, tableStatus(t, db, "TBL-001"))

	cancelled := "cancelled"
	b, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, b.Status)
	assert.Nil(t, b.SlotKey)
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, "TBL-001"))

	assert.Equal(t, []notify.Channel{notify.ChannelAdmin, notify.ChannelCustomer}, n.channels())
	assert.Equal(t, "ada@example.com", n.msgs[1].Recipient)
}

func TestRejectIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	n := &recordingNotifier{}
	svc := NewService(db, n)
	ctx := context.Background()

	res, err := svc.CreateBooking(ctx, bookingRequest(2))
	require.NoError(t, err)

	rejected := models.BookingRejected
	for i := 0; i < 2; i++ {
		b, err := svc.UpdateBooking(ctx, res.ID, BookingUpdate{Status: &rejected})
		require.NoError(t, err)
		assert.Equal(t, models.BookingRejected, b.Status)
		assert.Equal(t, models.TableAvailable, tableStatus(t, db, "TBL-001"))
	}
	// one admin alert, one customer decision
	assert.Len(t, n.channels(), 2)

	// the freed slot can be booked again
	again, err := svc.CreateBooking(ctx, bookingRequest(2))
	require.NoError(t, err)
	assert.Equal(t, "TBL-001", again.TableID)
}

func TestInvalidTransitions(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	svc := NewService(db, nil)
	ctx := context.Background()

	res, err := svc.CreateBooking(ctx, bookingRequest(2))
	require.NoError(t, err)

	confirmed, pending, rejected, bogus := models.BookingConfirmed, models.BookingPending, models.BookingRejected, "SEATED"
	_, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{Status: &confirmed})
	require.NoError(t, err)

	_, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{Status: &pending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	var ie *InputError
	assert.True(t, errors.As(err, &ie))

	_, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{Status: &rejected})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{Status: &bogus})
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "status", ie.Field)

	_, err = svc.UpdateBooking(ctx, "BK-missing", BookingUpdate{Status: &confirmed})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	b, err := svc.GetBooking(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
}

func TestUpdateContactFields(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	n := &recordingNotifier{}
	svc := NewService(db, n)
	ctx := context.Background()

	res, err := svc.CreateBooking(ctx, bookingRequest(2))
	require.NoError(t, err)

	phone, note, blank := "555-0199", "window seat", " "
	b, err := svc.UpdateBooking(ctx, res.ID, BookingUpdate{Phone: &phone, SpecialRequests: &note})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", b.Phone)
	assert.Equal(t, "window seat", b.SpecialRequests)
	assert.Len(t, n.channels(), 1, "no customer notification without a status change")

	_, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{CustomerName: &blank})
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "customerName", ie.Field)

	bad, good := "not-an-email", "ada@lovelace.dev"
	_, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{Email: &bad})
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "email", ie.Field)

	b, err = svc.UpdateBooking(ctx, res.ID, BookingUpdate{Email: &good})
	require.NoError(t, err)
	assert.Equal(t, "ada@lovelace.dev", b.Email)

	stored, err := svc.GetBooking(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@lovelace.dev", stored.Email)
}

func TestCancelAlwaysReleasesTable(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	svc := NewService(db, nil)
	ctx := context.Background()

	req := bookingRequest(2)
	req.TableID = "TBL-001"
	early, err := svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	req.Time = "21:00"
	_, err = svc.CreateBooking(ctx, req)
	require.NoError(t, err)

	cancelled := models.BookingCancelled
	_, err = svc.UpdateBooking(ctx, early.ID, BookingUpdate{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, "TBL-001"))

	// the 21:00 slot stays taken even though the table reads AVAILABLE
	_, err = svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrNoAvailability)
}

func TestDeleteBookingReleasesTable(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	svc := NewService(db, nil)
	ctx := context.Background()

	res, err := svc.CreateBooking(ctx, bookingRequest(2))
	require.NoError(t, err)

	deleted, err := svc.DeleteBooking(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, deleted.ID)
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, "TBL-001"))

	_, err = svc.DeleteBooking(ctx, res.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListBookingsByUser(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	seedTable(t, db, "TBL-002", 4, models.TableAvailable)
	svc := NewService(db, nil)
	ctx := context.Background()

	req := bookingRequest(2)
	req.UserID = "7"
	_, err := svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, bookingRequest(2))
	require.NoError(t, err)

	mine, err := svc.ListBookings(ctx, "7")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "7", mine[0].UserID)

	all, err := svc.ListBookings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

type failingNotifier struct{}

func (failingNotifier) Name() string { return "failing" }
func (failingNotifier) Notify(context.Context, notify.Message) error {
	return errors.New("topic unreachable")
}

func TestNotifierFailureDoesNotFailBooking(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "TBL-001", 4, models.TableAvailable)
	dispatcher := notify.NewDispatcher(failingNotifier{}, nil, time.Second)
	svc := NewService(db, dispatcher)

	res, err := svc.CreateBooking(context.Background(), bookingRequest(2))
	dispatcher.Flush()
	require.NoError(t, err)
	assert.Equal(t, notify.OutcomeDispatched, res.Notification)

	confirmed := models.BookingConfirmed
	_, err = svc.UpdateBooking(context.Background(), res.ID, BookingUpdate{Status: &confirmed})
	dispatcher.Flush()
	require.NoError(t, err)

	b, err := svc.GetBooking(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.True(t, bookingIDPattern.MatchString(b.ID))
}
