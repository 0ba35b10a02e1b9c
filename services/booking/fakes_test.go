package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	bookingRepo "mindwell/database/repository/booking"
	counselorRepo "mindwell/database/repository/counselor"
	"mindwell/models"

	"go.uber.org/zap"
)

// memBookingRepo mirrors the Mongo repository contract, including the partial unique
// slot index and conditional transitions.
type memBookingRepo struct {
	mu   sync.Mutex
	byID map[string]models.Booking
	// failInsert, when set, is returned by Insert.
	failInsert error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{byID: map[string]models.Booking{}}
}

func sameSlot(a, b models.Booking) bool {
	return a.CounselorID == b.CounselorID && a.Session.Date == b.Session.Date && a.Session.Time == b.Session.Time
}

func (r *memBookingRepo) Insert(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert != nil {
		return r.failInsert
	}
	b.SlotHeld = b.Status.HoldsSlot()
	for _, existing := range r.byID {
		if existing.BookingNumber == b.BookingNumber {
			return bookingRepo.ErrDuplicateNumber
		}
		if b.SlotHeld && existing.SlotHeld && sameSlot(existing, *b) {
			return fmt.Errorf("insert booking %s: %w", b.ID, bookingRepo.ErrSlotTaken)
		}
	}
	r.byID[b.ID] = *b
	return nil
}

func (r *memBookingRepo) put(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.SlotHeld = b.Status.HoldsSlot()
	r.byID[b.ID] = b
}

func (r *memBookingRepo) get(id string) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

func (r *memBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *memBookingRepo) first(match func(models.Booking) bool) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.byID {
		if match(b) {
			cp := b
			return &cp, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (r *memBookingRepo) filter(match func(models.Booking) bool) []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Booking{}
	for _, b := range r.byID {
		if match(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	return r.first(func(b models.Booking) bool { return b.ID == id })
}

func (r *memBookingRepo) GetByNumber(_ context.Context, number string) (*models.Booking, error) {
	return r.first(func(b models.Booking) bool { return b.BookingNumber == number })
}

func (r *memBookingRepo) GetByNumberForUser(_ context.Context, number, userID string) (*models.Booking, error) {
	return r.first(func(b models.Booking) bool { return b.BookingNumber == number && b.UserID == userID })
}

func (r *memBookingRepo) HasSlotConflict(_ context.Context, counselorID, date, timeSlot string) (bool, error) {
	held := r.filter(func(b models.Booking) bool {
		return b.SlotHeld && b.CounselorID == counselorID && b.Session.Date == date && b.Session.Time == timeSlot
	})
	return len(held) > 0, nil
}

func (r *memBookingRepo) BookedTimes(_ context.Context, counselorID, date string) ([]string, error) {
	held := r.filter(func(b models.Booking) bool {
		return b.SlotHeld && b.CounselorID == counselorID && b.Session.Date == date
	})
	times := make([]string, 0, len(held))
	for _, b := range held {
		times = append(times, b.Session.Time)
	}
	sort.Strings(times)
	return times, nil
}

func (r *memBookingRepo) HasCompletedBooking(_ context.Context, userID string) (bool, error) {
	done := r.filter(func(b models.Booking) bool { return b.UserID == userID && b.Status == models.BookingCompleted })
	return len(done) > 0, nil
}

func (r *memBookingRepo) ListByUser(_ context.Context, userID string, opts bookingRepo.ListOptions) ([]models.Booking, error) {
	out := r.filter(func(b models.Booking) bool { return b.UserID == userID })
	sort.Slice(out, func(i, j int) bool {
		if opts.Newest {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if int(opts.Skip) >= len(out) {
		return []models.Booking{}, nil
	}
	out = out[opts.Skip:]
	if opts.Limit > 0 && int(opts.Limit) < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *memBookingRepo) ListUpcoming(_ context.Context, userID string, now time.Time) ([]models.Booking, error) {
	out := r.filter(func(b models.Booking) bool {
		return b.UserID == userID &&
			!b.Session.ScheduledDate.Before(now) &&
			(b.Status == models.BookingPending || b.Status == models.BookingConfirmed)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Session.ScheduledDate.Before(out[j].Session.ScheduledDate) })
	return out, nil
}

func (r *memBookingRepo) ListPast(_ context.Context, userID string, now time.Time) ([]models.Booking, error) {
	out := r.filter(func(b models.Booking) bool {
		return b.UserID == userID && (b.Session.ScheduledDate.Before(now) || b.Status.IsTerminal())
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Session.ScheduledDate.After(out[j].Session.ScheduledDate) })
	return out, nil
}

func (r *memBookingRepo) ListByCounselor(_ context.Context, counselorID, date string) ([]models.Booking, error) {
	out := r.filter(func(b models.Booking) bool {
		return b.CounselorID == counselorID && (date == "" || b.Session.Date == date)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Session.ScheduledDate.Before(out[j].Session.ScheduledDate) })
	return out, nil
}

func (r *memBookingRepo) Transition(_ context.Context, id string, from []models.BookingStatus, upd models.BookingUpdate) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, bookingRepo.ErrStatusConflict
	}
	allowed := false
	for _, s := range from {
		if b.Status == s {
			allowed = true
		}
	}
	if !allowed || (upd.ExpectPayment != nil && b.Payment.Status != *upd.ExpectPayment) {
		return nil, bookingRepo.ErrStatusConflict
	}
	b.Status = upd.Status
	b.SlotHeld = upd.Status.HoldsSlot()
	b.UpdatedAt = upd.At
	if upd.PaymentStatus != nil {
		b.Payment.Status = *upd.PaymentStatus
	}
	if upd.Cancellation != nil {
		c := *upd.Cancellation
		b.Cancellation = &c
	}
	if upd.Feedback != nil {
		f := *upd.Feedback
		b.Feedback = &f
	}
	if upd.StartedAt != nil {
		b.StartedAt = upd.StartedAt
	}
	if upd.CompletedAt != nil {
		b.CompletedAt = upd.CompletedAt
	}
	r.byID[id] = b
	return &b, nil
}

func (r *memBookingRepo) SetPaymentStatus(_ context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok || !b.SlotHeld {
		return nil, bookingRepo.ErrStatusConflict
	}
	for _, s := range from {
		if b.Payment.Status == s {
			b.Payment.Status = to
			b.UpdatedAt = at
			r.byID[id] = b
			return &b, nil
		}
	}
	return nil, bookingRepo.ErrStatusConflict
}

func (r *memBookingRepo) MarkStatsApplied(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.StatsApplied = true
	r.byID[id] = b
	return nil
}

// memCounselorRepo mirrors the counselor repository's guarded writes.
type memCounselorRepo struct {
	mu   sync.Mutex
	byID map[string]models.Counselor
	// conflicts makes the next N ApplyCompletion calls lose to a concurrent writer.
	conflicts  int
	failApply  error
	applyCalls int
}

func newMemCounselorRepo(cs ...models.Counselor) *memCounselorRepo {
	r := &memCounselorRepo{byID: map[string]models.Counselor{}}
	for _, c := range cs {
		r.byID[c.ID] = c
	}
	return r
}

func (r *memCounselorRepo) get(id string) models.Counselor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

func (r *memCounselorRepo) Create(_ context.Context, c *models.Counselor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = *c
	return nil
}

func (r *memCounselorRepo) GetByID(_ context.Context, id string) (*models.Counselor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, counselorRepo.ErrNotFound
	}
	c.AssignedPatients = append([]models.AssignedPatient(nil), c.AssignedPatients...)
	c.Reviews = append([]models.Review(nil), c.Reviews...)
	c.ProcessedCompletions = append([]string(nil), c.ProcessedCompletions...)
	return &c, nil
}

func (r *memCounselorRepo) List(_ context.Context, filter models.CounselorFilter) ([]models.Counselor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Counselor{}
	for _, c := range r.byID {
		if c.IsActive && (filter.Gender == "" || c.Gender == filter.Gender) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCounselorRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return counselorRepo.ErrNotFound
	}
	c.IsActive = active
	r.byID[id] = c
	return nil
}

func (r *memCounselorRepo) AssignPatient(_ context.Context, id, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return counselorRepo.ErrNotFound
	}
	if !c.HasPatient(userID) {
		c.AssignedPatients = append(c.AssignedPatients, models.AssignedPatient{UserID: userID, Status: models.PatientStatusActive, AssignedAt: at})
		c.UpdatedAt = at
	}
	r.byID[id] = c
	return nil
}

func (r *memCounselorRepo) bump(id string, f func(*models.Counselor)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return counselorRepo.ErrNotFound
	}
	f(&c)
	r.byID[id] = c
	return nil
}

func (r *memCounselorRepo) IncrementTotalSessions(_ context.Context, id string) error {
	return r.bump(id, func(c *models.Counselor) { c.Statistics.TotalSessions++ })
}

func (r *memCounselorRepo) IncrementCancelledSessions(_ context.Context, id string) error {
	return r.bump(id, func(c *models.Counselor) { c.Statistics.CancelledSessions++ })
}

func (r *memCounselorRepo) ApplyCompletion(_ context.Context, id string, expectedVersion int64, comp models.Completion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyCalls++
	if r.failApply != nil {
		return false, r.failApply
	}
	c, ok := r.byID[id]
	if !ok {
		return false, counselorRepo.ErrNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		c.Version++
		r.byID[id] = c
		return false, counselorRepo.ErrVersionConflict
	}
	if c.HasProcessedCompletion(comp.BookingID) {
		return false, nil
	}
	if c.Version != expectedVersion {
		return false, counselorRepo.ErrVersionConflict
	}
	c.Statistics.CompletedSessions++
	c.Version++
	c.ProcessedCompletions = append(c.ProcessedCompletions, comp.BookingID)
	c.UpdatedAt = comp.At
	if comp.Review != nil {
		c.Reviews = append(c.Reviews, *comp.Review)
		c.Statistics.Rating = comp.Rating
		c.Statistics.TotalReviews = comp.TotalReviews
	}
	r.byID[id] = c
	return true, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]string
	gets, hits  int
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]string{}}
}

func (c *fakeCache) Get(_ context.Context, counselorID, date string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[counselorID+"|"+date]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, counselorID, date string, times []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[counselorID+"|"+date] = times
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, counselorID, date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, counselorID+"|"+date)
	c.invalidated = append(c.invalidated, counselorID+"|"+date)
	return nil
}

type scheduledTask struct {
	kind      string
	bookingID string
	at        time.Time
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

func (f *fakeTasks) ScheduleNoShowCheck(_ context.Context, bookingID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, scheduledTask{kind: "no-show", bookingID: bookingID, at: at})
	return nil
}

func (f *fakeTasks) ScheduleStatsRetry(_ context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, scheduledTask{kind: "stats", bookingID: bookingID})
	return nil
}

// testNow is the fixed clock for service tests: Friday 2025-05-30 10:00 UTC.
var testNow = time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *DefaultBookingService
	bookings   *memBookingRepo
	counselors *memCounselorRepo
	cache      *fakeCache
	tasks      *fakeTasks
}

func newFixture(t *testing.T, cs ...models.Counselor) *fixture {
	t.Helper()
	f := &fixture{
		bookings:   newMemBookingRepo(),
		counselors: newMemCounselorRepo(cs...),
		cache:      newFakeCache(),
		tasks:      &fakeTasks{},
	}
	f.svc = NewBookingService(f.bookings, f.counselors, zap.NewNop())
	f.svc.Cache = f.cache
	f.svc.Tasks = f.tasks
	f.svc.Now = func() time.Time { return testNow }
	return f
}

func femaleCounselor(id string) models.Counselor {
	return models.Counselor{
		ID:                     id,
		Name:                   "Dr. Amina Yusuf",
		Gender:                 models.GenderFemale,
		Specializations:        []string{"anxiety", "grief"},
		SessionTypes:           []models.SessionType{models.SessionVideoCall, models.SessionChat},
		SessionDurationMinutes: 50,
		Availability: models.CounselorAvailability{
			MaxPatientsPerDay: 8,
			AllowsNewPatients: true,
		},
		Pricing:    models.Pricing{SessionFee: 40, Currency: "USD"},
		IsActive:   true,
		IsVerified: true,
	}
}

func femaleUser(id string) models.Identity {
	return models.Identity{UserID: id, Gender: models.GenderFemale, Role: models.RoleUser}
}

func counselorIdentity(id string) models.Identity {
	return models.Identity{UserID: id, Role: models.RoleCounselor}
}

func videoRequest(counselorID, date, slot string) CreateBookingInput {
	return CreateBookingInput{
		CounselorID: counselorID,
		SessionType: models.SessionVideoCall,
		Date:        date,
		Time:        slot,
		Topic:       "anxiety",
	}
}

// seedBooking stores a booking directly, bypassing CreateBooking.
func (f *fixture) seedBooking(id, userID, counselorID string, status models.BookingStatus, at time.Time, payment models.PaymentStatus) models.Booking {
	b := models.Booking{
		ID:            id,
		BookingNumber: "MW-TEST-" + id,
		UserID:        userID,
		CounselorID:   counselorID,
		Session: models.SessionDetails{
			SessionType:     models.SessionVideoCall,
			ScheduledDate:   at,
			Date:            at.Format(dateLayout),
			Time:            at.Format(timeLayout),
			DurationMinutes: 50,
		},
		GenderMatch: models.GenderMatch{UserGender: models.GenderFemale, CounselorGender: models.GenderFemale, IsMatched: true},
		Status:      status,
		Payment:     models.Payment{Amount: 40, Currency: "USD", Status: payment},
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	f.bookings.put(b)
	return b
}
