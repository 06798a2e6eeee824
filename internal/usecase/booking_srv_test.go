package usecase

import (
	"context"
	"testing"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/dto/request"
	"parking-reservation/internal/token"
	"parking-reservation/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingService(f *fixture) (BookingService, *token.Service) {
	tokens := token.NewService("test-secret")
	return NewBookingService(f.repo, f.db, tokens, zap.NewNop()), tokens
}

func TestCreateBookingQuotesPrice(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(5, 10000)

	booking, err := svc.Create(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		FacilityID:    facility.ID.String(),
		VehicleClass:  "car",
		StartTime:     time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		DurationHours: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.Equal(t, int64(30000), booking.Cost)

	// Pending booking belum memegang slot
	slot := f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)]
	assert.Equal(t, 5, slot.Available)
}

func TestCreateBookingNoCapacity(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	other := f.addUser(0)
	f.addBooking(other.ID, facility.ID, entity.BookingStatusConfirmed, 2, 20000)

	_, err := svc.Create(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		FacilityID:    facility.ID.String(),
		VehicleClass:  "car",
		StartTime:     time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		DurationHours: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
}

func TestConfirmBooking(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(100000)
	facility, _ := f.addFacility(2, 15000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusPending, 2, 30000)

	resp, err := svc.Confirm(context.Background(), booking.ID.String(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, resp.Status)

	assert.Equal(t, int64(70000), f.store.users[user.ID].Balance)
	assert.Equal(t, 1, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
	assert.Equal(t, entity.BookingStatusConfirmed, f.store.bookings[booking.ID].Status)

	// Satu entry payment dan satu entry saldo_debit di ledger
	assert.Len(t, f.transactionsOfType(entity.TransactionTypePayment), 1)
	assert.Len(t, f.transactionsOfType(entity.TransactionTypeSaldoDebit), 1)
}

func TestConfirmInsufficientBalanceLeavesNothingBehind(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(10000)
	facility, _ := f.addFacility(2, 15000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusPending, 2, 30000)

	_, err := svc.Confirm(context.Background(), booking.ID.String(), user.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	// Slot yang sempat di-reserve harus kembali, status tetap pending,
	// ledger kosong
	assert.Equal(t, int64(10000), f.store.users[user.ID].Balance)
	assert.Equal(t, 2, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
	assert.Equal(t, entity.BookingStatusPending, f.store.bookings[booking.ID].Status)
	assert.Empty(t, f.transactionsOfType(entity.TransactionTypePayment))
}

func TestConfirmLastSlotOnlyOneWinner(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	facility, _ := f.addFacility(1, 10000)
	userA := f.addUser(50000)
	userB := f.addUser(50000)
	bookingA := f.addBooking(userA.ID, facility.ID, entity.BookingStatusPending, 1, 10000)
	bookingB := f.addBooking(userB.ID, facility.ID, entity.BookingStatusPending, 1, 10000)

	_, errA := svc.Confirm(context.Background(), bookingA.ID.String(), userA.ID.String())
	require.NoError(t, errA)

	_, errB := svc.Confirm(context.Background(), bookingB.ID.String(), userB.ID.String())
	assert.ErrorIs(t, errB, apperrors.ErrInsufficientCapacity)

	// Yang kalah tidak kehilangan uang dan booking-nya tetap pending
	assert.Equal(t, int64(50000), f.store.users[userB.ID].Balance)
	assert.Equal(t, entity.BookingStatusPending, f.store.bookings[bookingB.ID].Status)
}

func TestConfirmWrongOwner(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	owner := f.addUser(50000)
	stranger := f.addUser(50000)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(owner.ID, facility.ID, entity.BookingStatusPending, 1, 10000)

	_, err := svc.Confirm(context.Background(), booking.ID.String(), stranger.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGenerateEntryTokenIdempotent(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 1, 10000)

	first, err := svc.GenerateEntryToken(context.Background(), booking.ID.String(), user.ID.String())
	require.NoError(t, err)
	require.NotEmpty(t, first.EntryToken)

	second, err := svc.GenerateEntryToken(context.Background(), booking.ID.String(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.EntryToken, second.EntryToken)
}

func TestGenerateEntryTokenRequiresConfirmed(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusPending, 1, 10000)

	_, err := svc.GenerateEntryToken(context.Background(), booking.ID.String(), user.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestScanEntry(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(0)
	facility, slot := f.addFacility(1, 10000)
	slot.Available = 0
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 2, 20000)

	entryToken, err := tokens.Issue(token.TypeEntry, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	result, err := svc.ScanEntry(context.Background(), entryToken, user.ID.String())
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusActive, result.Booking.Status)
	assert.NotEmpty(t, result.ExitToken)
	assert.NotNil(t, f.store.bookings[booking.ID].ActualEntryTime)

	// Exit token yang dikembalikan harus valid untuk scan exit
	assert.True(t, tokens.Valid(result.ExitToken, token.TypeExit))
}

func TestScanEntryRejectsExitToken(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 2, 20000)

	exitToken, err := tokens.Issue(token.TypeExit, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	_, err = svc.ScanEntry(context.Background(), exitToken, user.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrWrongTokenType)
}

func TestScanEntryByStranger(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(0)
	stranger := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 2, 20000)

	entryToken, err := tokens.Issue(token.TypeEntry, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	_, err = svc.ScanEntry(context.Background(), entryToken, stranger.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestScanExitWithinDuration(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(0)
	facility, slot := f.addFacility(1, 10000)
	slot.Available = 0
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusActive, 2, 20000)
	entryTime := time.Now().Add(-90 * time.Minute)
	booking.ActualEntryTime = &entryTime

	exitToken, err := tokens.Issue(token.TypeExit, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	result, err := svc.ScanExit(context.Background(), exitToken, user.ID.String())
	require.NoError(t, err)

	// 1.5 jam dibulatkan ke atas jadi 2, masih dalam durasi
	assert.Equal(t, 2, result.ElapsedHours)
	assert.Equal(t, int64(0), result.OvertimeCharge)
	assert.Equal(t, entity.BookingStatusCompleted, f.store.bookings[booking.ID].Status)
	assert.Equal(t, 1, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
	assert.Empty(t, f.transactionsOfType(entity.TransactionTypeOvertimePayment))
}

func TestScanExitChargesOvertime(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(100000)
	facility, slot := f.addFacility(1, 15000)
	slot.Available = 0
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusActive, 2, 30000)
	entryTime := time.Now().Add(-(3*time.Hour + 15*time.Minute))
	booking.ActualEntryTime = &entryTime

	exitToken, err := tokens.Issue(token.TypeExit, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	result, err := svc.ScanExit(context.Background(), exitToken, user.ID.String())
	require.NoError(t, err)

	// 3j15m -> 4 jam, kelebihan 2 jam @ 15000
	assert.Equal(t, 4, result.ElapsedHours)
	assert.Equal(t, int64(30000), result.OvertimeCharge)
	assert.Equal(t, int64(70000), f.store.users[user.ID].Balance)
	assert.Len(t, f.transactionsOfType(entity.TransactionTypeOvertimePayment), 1)
}

func TestScanExitOvertimeInsufficientBalanceStillCompletes(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(5000)
	facility, slot := f.addFacility(1, 15000)
	slot.Available = 0
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusActive, 1, 15000)
	entryTime := time.Now().Add(-(2*time.Hour + 30*time.Minute))
	booking.ActualEntryTime = &entryTime

	exitToken, err := tokens.Issue(token.TypeExit, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	result, err := svc.ScanExit(context.Background(), exitToken, user.ID.String())
	require.NoError(t, err)

	// Kendaraan tetap keluar walau saldo tidak cukup untuk overtime
	assert.Equal(t, entity.BookingStatusCompleted, f.store.bookings[booking.ID].Status)
	assert.Equal(t, 1, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
	assert.Equal(t, int64(30000), result.OvertimeCharge)
	assert.Equal(t, int64(5000), f.store.users[user.ID].Balance)
	assert.Empty(t, f.transactionsOfType(entity.TransactionTypeOvertimePayment))
}

func TestScanExitCompletesDespiteDriftedCounter(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(0)
	facility, slot := f.addFacility(1, 10000)
	// Drift: booking masih active tapi counter sudah terlanjur penuh
	slot.Available = 1
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusActive, 2, 20000)
	entryTime := time.Now().Add(-time.Hour)
	booking.ActualEntryTime = &entryTime

	exitToken, err := tokens.Issue(token.TypeExit, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	result, err := svc.ScanExit(context.Background(), exitToken, user.ID.String())
	require.NoError(t, err)

	// Kendaraan tetap keluar; release di-cap di capacity
	assert.Equal(t, entity.BookingStatusCompleted, result.Booking.Status)
	assert.Equal(t, entity.BookingStatusCompleted, f.store.bookings[booking.ID].Status)
	assert.Equal(t, 1, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
}

func TestCancelAdminWithDriftedCounter(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, slot := f.addFacility(1, 10000)
	slot.Available = 1
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 1, 10000)

	err := svc.CancelAdmin(context.Background(), booking.ID.String())
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusCancelled, f.store.bookings[booking.ID].Status)
	assert.Equal(t, 1, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
}

func TestScanExitRequiresActive(t *testing.T) {
	f := newFixture()
	svc, tokens := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 2, 20000)

	exitToken, err := tokens.Issue(token.TypeExit, booking.ID, facility.ID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	_, err = svc.ScanExit(context.Background(), exitToken, user.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCancelPendingBooking(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(25000)
	facility, _ := f.addFacility(3, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusPending, 1, 10000)

	err := svc.Cancel(context.Background(), booking.ID.String(), user.ID.String())
	require.NoError(t, err)

	// Tidak ada uang atau slot yang bergerak
	assert.Equal(t, entity.BookingStatusCancelled, f.store.bookings[booking.ID].Status)
	assert.Equal(t, int64(25000), f.store.users[user.ID].Balance)
	assert.Equal(t, 3, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
}

func TestCancelConfirmedBookingRejected(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 1, 10000)

	err := svc.Cancel(context.Background(), booking.ID.String(), user.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCancelAdminReleasesSlotWithoutRefund(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, slot := f.addFacility(2, 10000)
	slot.Available = 1
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusConfirmed, 1, 10000)

	err := svc.CancelAdmin(context.Background(), booking.ID.String())
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusCancelled, f.store.bookings[booking.ID].Status)
	assert.Equal(t, 2, f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)].Available)
	// Tidak ada refund, hanya catatan cancellation di ledger
	assert.Equal(t, int64(0), f.store.users[user.ID].Balance)
	assert.Len(t, f.transactionsOfType(entity.TransactionTypeCancellation), 1)
}

func TestCancelAdminCompletedRejected(t *testing.T) {
	f := newFixture()
	svc, _ := newBookingService(f)

	user := f.addUser(0)
	facility, _ := f.addFacility(1, 10000)
	booking := f.addBooking(user.ID, facility.ID, entity.BookingStatusCompleted, 1, 10000)

	err := svc.CancelAdmin(context.Background(), booking.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}
