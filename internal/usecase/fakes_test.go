package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/gateway"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeStore adalah state in-memory yang dishare semua fake repository.
// fakeDB.WithTx snapshot-restore seluruh store supaya test atomicity
// jujur: kalau satu step gagal, step sebelumnya ikut batal.
type fakeStore struct {
	users        map[uuid.UUID]*entity.User
	sessions     map[string]*entity.Session
	facilities   map[uuid.UUID]*entity.Facility
	slots        map[string]*entity.FacilitySlot
	bookings     map[uuid.UUID]*entity.Booking
	transactions map[uuid.UUID]*entity.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[uuid.UUID]*entity.User{},
		sessions:     map[string]*entity.Session{},
		facilities:   map[uuid.UUID]*entity.Facility{},
		slots:        map[string]*entity.FacilitySlot{},
		bookings:     map[uuid.UUID]*entity.Booking{},
		transactions: map[uuid.UUID]*entity.Transaction{},
	}
}

func slotKey(facilityID uuid.UUID, class entity.VehicleClass) string {
	return facilityID.String() + "/" + string(class)
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.sessions {
		sess := *v
		c.sessions[k] = &sess
	}
	for k, v := range s.facilities {
		f := *v
		c.facilities[k] = &f
	}
	for k, v := range s.slots {
		slot := *v
		c.slots[k] = &slot
	}
	for k, v := range s.bookings {
		b := *v
		c.bookings[k] = &b
	}
	for k, v := range s.transactions {
		t := *v
		c.transactions[k] = &t
	}
	return c
}

func (s *fakeStore) restore(from *fakeStore) {
	s.users = from.users
	s.sessions = from.sessions
	s.facilities = from.facilities
	s.slots = from.slots
	s.bookings = from.bookings
	s.transactions = from.transactions
}

// fakeDB memenuhi database.PgxIface. Method query mentah tidak pernah
// dipakai service layer, jadi cukup no-op.
type fakeDB struct {
	store *fakeStore
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, fmt.Errorf("not implemented")
}

func (db *fakeDB) Ping(ctx context.Context) error { return nil }

func (db *fakeDB) Close() {}

func (db *fakeDB) WithTx(ctx context.Context, fn func(q database.Querier) error) error {
	snapshot := db.store.clone()
	if err := fn(db); err != nil {
		db.store.restore(snapshot)
		return err
	}
	return nil
}

// ---------- user ----------

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	u := *user
	r.store.users[user.ID] = &u
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) DebitBalance(ctx context.Context, q database.Querier, userID uuid.UUID, amount int64) error {
	user, ok := r.store.users[userID]
	if !ok || user.Balance < amount {
		return fmt.Errorf("debit %d from user %s: %w", amount, userID.String(), apperrors.ErrInsufficientBalance)
	}
	user.Balance -= amount
	return nil
}

func (r *fakeUserRepo) CreditBalance(ctx context.Context, q database.Querier, userID uuid.UUID, amount int64) error {
	user, ok := r.store.users[userID]
	if !ok {
		return fmt.Errorf("credit user %s: %w", userID.String(), apperrors.ErrNotFound)
	}
	user.Balance += amount
	return nil
}

// ---------- session ----------

type fakeSessionRepo struct {
	store *fakeStore
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	s := *session
	r.store.sessions[session.Token] = &s
	return nil
}

func (r *fakeSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	session, ok := r.store.sessions[token]
	if !ok || session.RevokedAt != nil || session.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	s := *session
	return &s, nil
}

func (r *fakeSessionRepo) Revoke(ctx context.Context, token string) error {
	session, ok := r.store.sessions[token]
	if !ok || session.RevokedAt != nil {
		return fmt.Errorf("session not found or already revoked")
	}
	now := time.Now()
	session.RevokedAt = &now
	return nil
}

func (r *fakeSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, session := range r.store.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
		}
	}
	return nil
}

// ---------- facility ----------

type fakeFacilityRepo struct {
	store *fakeStore
}

func (r *fakeFacilityRepo) Create(ctx context.Context, q database.Querier, facility *entity.Facility, slots []*entity.FacilitySlot) error {
	f := *facility
	r.store.facilities[facility.ID] = &f
	for _, slot := range slots {
		s := *slot
		r.store.slots[slotKey(slot.FacilityID, slot.VehicleClass)] = &s
	}
	return nil
}

func (r *fakeFacilityRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Facility, error) {
	facility, ok := r.store.facilities[id]
	if !ok {
		return nil, nil
	}
	f := *facility
	return &f, nil
}

func (r *fakeFacilityRepo) List(ctx context.Context, limit, offset int) ([]*entity.Facility, error) {
	var facilities []*entity.Facility
	for _, facility := range r.store.facilities {
		f := *facility
		facilities = append(facilities, &f)
	}
	sort.Slice(facilities, func(i, j int) bool {
		return facilities[i].CreatedAt.After(facilities[j].CreatedAt)
	})
	if offset >= len(facilities) {
		return nil, nil
	}
	end := offset + limit
	if end > len(facilities) {
		end = len(facilities)
	}
	return facilities[offset:end], nil
}

func (r *fakeFacilityRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.store.facilities)), nil
}

func (r *fakeFacilityRepo) FindSlot(ctx context.Context, facilityID uuid.UUID, class entity.VehicleClass) (*entity.FacilitySlot, error) {
	slot, ok := r.store.slots[slotKey(facilityID, class)]
	if !ok {
		return nil, nil
	}
	s := *slot
	return &s, nil
}

func (r *fakeFacilityRepo) SlotsByFacility(ctx context.Context, facilityID uuid.UUID) ([]*entity.FacilitySlot, error) {
	var slots []*entity.FacilitySlot
	for _, slot := range r.store.slots {
		if slot.FacilityID == facilityID {
			s := *slot
			slots = append(slots, &s)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].VehicleClass < slots[j].VehicleClass
	})
	return slots, nil
}

func (r *fakeFacilityRepo) ReserveSlot(ctx context.Context, q database.Querier, facilityID uuid.UUID, class entity.VehicleClass) error {
	slot, ok := r.store.slots[slotKey(facilityID, class)]
	if !ok || slot.Available <= 0 {
		return fmt.Errorf("reserve %s slot of facility %s: %w", class, facilityID.String(), apperrors.ErrInsufficientCapacity)
	}
	slot.Available--
	return nil
}

func (r *fakeFacilityRepo) ReleaseSlot(ctx context.Context, q database.Querier, facilityID uuid.UUID, class entity.VehicleClass) error {
	// Cap di capacity: drift tidak boleh menggagalkan release
	if slot, ok := r.store.slots[slotKey(facilityID, class)]; ok && slot.Available < slot.Capacity {
		slot.Available++
	}
	return nil
}

func (r *fakeFacilityRepo) ReconcileAvailability(ctx context.Context, facilityID uuid.UUID) error {
	found := false
	for _, slot := range r.store.slots {
		if slot.FacilityID != facilityID {
			continue
		}
		found = true
		occupied := 0
		for _, booking := range r.store.bookings {
			if booking.FacilityID == facilityID &&
				booking.VehicleClass == slot.VehicleClass &&
				(booking.Status == entity.BookingStatusConfirmed || booking.Status == entity.BookingStatusActive) {
				occupied++
			}
		}
		available := slot.Capacity - occupied
		if available < 0 {
			available = 0
		}
		slot.Available = available
	}
	if !found {
		return fmt.Errorf("reconcile availability of facility %s: %w", facilityID.String(), apperrors.ErrNotFound)
	}
	return nil
}

// ---------- booking ----------

type fakeBookingRepo struct {
	store *fakeStore
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	b := *booking
	r.store.bookings[booking.ID] = &b
	return nil
}

func (r *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, ok := r.store.bookings[id]
	if !ok {
		return nil, nil
	}
	b := *booking
	return &b, nil
}

func (r *fakeBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for _, booking := range r.store.bookings {
		if booking.UserID == userID {
			b := *booking
			bookings = append(bookings, &b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	if offset >= len(bookings) {
		return nil, nil
	}
	end := offset + limit
	if end > len(bookings) {
		end = len(bookings)
	}
	return bookings[offset:end], nil
}

func (r *fakeBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, booking := range r.store.bookings {
		if booking.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) CountConfirmedActive(ctx context.Context, facilityID uuid.UUID, class entity.VehicleClass) (int, error) {
	count := 0
	for _, booking := range r.store.bookings {
		if booking.FacilityID == facilityID && booking.VehicleClass == class &&
			(booking.Status == entity.BookingStatusConfirmed || booking.Status == entity.BookingStatusActive) {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) UpdateStatusFrom(ctx context.Context, q database.Querier, id uuid.UUID, from, to entity.BookingStatus) error {
	booking, ok := r.store.bookings[id]
	if !ok || booking.Status != from {
		return fmt.Errorf("booking %s status is no longer %s: %w", id.String(), from, apperrors.ErrInvalidState)
	}
	booking.Status = to
	return nil
}

func (r *fakeBookingRepo) SetEntryToken(ctx context.Context, id uuid.UUID, token string) error {
	booking, ok := r.store.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id.String(), apperrors.ErrNotFound)
	}
	booking.EntryToken = &token
	return nil
}

func (r *fakeBookingRepo) MarkEntered(ctx context.Context, q database.Querier, id uuid.UUID, entryTime time.Time, exitToken string) error {
	booking, ok := r.store.bookings[id]
	if !ok || booking.Status != entity.BookingStatusConfirmed {
		return fmt.Errorf("booking %s is not confirmed: %w", id.String(), apperrors.ErrInvalidState)
	}
	booking.Status = entity.BookingStatusActive
	booking.ActualEntryTime = &entryTime
	booking.ExitToken = &exitToken
	return nil
}

func (r *fakeBookingRepo) MarkCompleted(ctx context.Context, q database.Querier, id uuid.UUID, exitTime time.Time, elapsedHours int, overtimeCharge int64) error {
	booking, ok := r.store.bookings[id]
	if !ok || booking.Status != entity.BookingStatusActive {
		return fmt.Errorf("booking %s is not active: %w", id.String(), apperrors.ErrInvalidState)
	}
	booking.Status = entity.BookingStatusCompleted
	booking.ActualExitTime = &exitTime
	booking.ElapsedHours = &elapsedHours
	booking.OvertimeCharge = overtimeCharge
	return nil
}

// ---------- transaction ----------

type fakeTransactionRepo struct {
	store *fakeStore
}

func (r *fakeTransactionRepo) Create(ctx context.Context, q database.Querier, transaction *entity.Transaction) error {
	t := *transaction
	r.store.transactions[transaction.ID] = &t
	return nil
}

func (r *fakeTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	transaction, ok := r.store.transactions[id]
	if !ok {
		return nil, nil
	}
	t := *transaction
	return &t, nil
}

func (r *fakeTransactionRepo) FindByOrderID(ctx context.Context, orderID string) (*entity.Transaction, error) {
	for _, transaction := range r.store.transactions {
		if transaction.OrderID == orderID {
			t := *transaction
			return &t, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) FindByOrderIDForUpdate(ctx context.Context, q database.Querier, orderID string) (*entity.Transaction, error) {
	return r.FindByOrderID(ctx, orderID)
}

func (r *fakeTransactionRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	var transactions []*entity.Transaction
	for _, transaction := range r.store.transactions {
		if transaction.UserID == userID {
			t := *transaction
			transactions = append(transactions, &t)
		}
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})
	if offset >= len(transactions) {
		return nil, nil
	}
	end := offset + limit
	if end > len(transactions) {
		end = len(transactions)
	}
	return transactions[offset:end], nil
}

func (r *fakeTransactionRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, transaction := range r.store.transactions {
		if transaction.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeTransactionRepo) UpdateStatusFrom(ctx context.Context, q database.Querier, id uuid.UUID, from, to entity.TransactionStatus) error {
	transaction, ok := r.store.transactions[id]
	if !ok || transaction.Status != from {
		return fmt.Errorf("transaction %s status is no longer %s: %w", id.String(), from, apperrors.ErrInvalidState)
	}
	transaction.Status = to
	return nil
}

// ---------- gateway ----------

// fakeGateway merekam call dan mengembalikan hasil yang diprogram test.
type fakeGateway struct {
	chargeErr    error
	chargeResult *gateway.ChargeResult
	queryStatus  string
	queryErr     error
	queryCalls   int
	validKey     string
}

func (g *fakeGateway) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	if g.chargeResult != nil {
		return g.chargeResult, nil
	}
	return &gateway.ChargeResult{
		OrderID:           req.OrderID,
		TransactionStatus: gateway.StatusPending,
	}, nil
}

func (g *fakeGateway) QueryStatus(ctx context.Context, orderID string) (string, error) {
	g.queryCalls++
	if g.queryErr != nil {
		return "", g.queryErr
	}
	return g.queryStatus, nil
}

func (g *fakeGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	return signature == g.validKey
}

// ---------- harness ----------

type fixture struct {
	store *fakeStore
	db    *fakeDB
	repo  *repository.Repository
	gw    *fakeGateway
}

func newFixture() *fixture {
	store := newFakeStore()
	return &fixture{
		store: store,
		db:    &fakeDB{store: store},
		repo: &repository.Repository{
			User:        &fakeUserRepo{store: store},
			Session:     &fakeSessionRepo{store: store},
			Facility:    &fakeFacilityRepo{store: store},
			Booking:     &fakeBookingRepo{store: store},
			Transaction: &fakeTransactionRepo{store: store},
		},
		gw: &fakeGateway{validKey: "valid-signature"},
	}
}

func (f *fixture) addUser(balance int64) *entity.User {
	now := time.Now()
	user := &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username: "user-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		Role:     entity.RoleCustomer,
		Balance:  balance,
		IsActive: true,
	}
	f.store.users[user.ID] = user
	return user
}

func (f *fixture) addFacility(capacity int, hourlyRate int64) (*entity.Facility, *entity.FacilitySlot) {
	now := time.Now()
	facility := &entity.Facility{
		Base:    entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OwnerID: uuid.New(),
		Name:    "Central Parking",
		Address: "Jl. Sudirman No. 1",
	}
	slot := &entity.FacilitySlot{
		FacilityID:   facility.ID,
		VehicleClass: entity.VehicleClassCar,
		Capacity:     capacity,
		Available:    capacity,
		HourlyRate:   hourlyRate,
		UpdatedAt:    now,
	}
	f.store.facilities[facility.ID] = facility
	f.store.slots[slotKey(facility.ID, entity.VehicleClassCar)] = slot
	return facility, slot
}

func (f *fixture) addBooking(userID, facilityID uuid.UUID, status entity.BookingStatus, durationHours int, cost int64) *entity.Booking {
	now := time.Now()
	booking := &entity.Booking{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:        userID,
		FacilityID:    facilityID,
		VehicleClass:  entity.VehicleClassCar,
		StartTime:     now.Add(time.Hour),
		DurationHours: durationHours,
		Cost:          cost,
		Status:        status,
	}
	f.store.bookings[booking.ID] = booking
	return booking
}

func (f *fixture) addTransaction(userID uuid.UUID, typ entity.TransactionType, amount int64, status entity.TransactionStatus) *entity.Transaction {
	now := time.Now()
	transaction := &entity.Transaction{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OrderID:       "PARK-" + uuid.NewString()[:8],
		UserID:        userID,
		Type:          typ,
		Amount:        amount,
		PaymentMethod: entity.PaymentMethodBankTransfer,
		Status:        status,
	}
	f.store.transactions[transaction.ID] = transaction
	return transaction
}

func (f *fixture) transactionsOfType(typ entity.TransactionType) []*entity.Transaction {
	var result []*entity.Transaction
	for _, transaction := range f.store.transactions {
		if transaction.Type == typ {
			result = append(result, transaction)
		}
	}
	return result
}
