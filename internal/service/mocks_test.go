package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"swiftride/internal/cache"
	"swiftride/internal/domain"
	"swiftride/internal/geo"
	"swiftride/internal/maps"
	"swiftride/internal/notify"
	"swiftride/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a thread-safe in-memory RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount          int32
	AssignIfPendingCallCount int32

	// Error injection
	CreateError          error
	AssignIfPendingError error
	CountError           error
}

func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{rides: make(map[string]*domain.Ride)}
}

func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ride.IdempotencyKey != "" {
		for _, r := range m.rides {
			if r.IdempotencyKey == ride.IdempotencyKey {
				return repository.ErrDuplicateKey
			}
		}
	}
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *ride
	return &clone, nil
}

func (m *MockRideRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.IdempotencyKey == key {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockRideRepository) AssignIfPending(ctx context.Context, rideID, driverID string) (bool, error) {
	atomic.AddInt32(&m.AssignIfPendingCallCount, 1)
	if m.AssignIfPendingError != nil {
		return false, m.AssignIfPendingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok || ride.Status != domain.RideStatusPending {
		return false, nil
	}
	ride.Status = domain.RideStatusOngoing
	ride.AssignedDriverID = driverID
	return true, nil
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, id string, status domain.RideStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	ride.Status = status
	return nil
}

func (m *MockRideRepository) Cancel(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok || ride.Status != domain.RideStatusPending {
		return false, nil
	}
	ride.Status = domain.RideStatusCancelled
	ride.CancelledAt = at
	ride.CancelReason = reason
	return true, nil
}

func (m *MockRideRepository) CountActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox, since time.Time) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.rides {
		if r.VehicleClass != class {
			continue
		}
		if r.Status != domain.RideStatusPending && r.Status != domain.RideStatusOngoing {
			continue
		}
		if r.CreatedAt.Before(since) {
			continue
		}
		if box.Contains(r.PickupLat, r.PickupLng) {
			count++
		}
	}
	return count, nil
}

func (m *MockRideRepository) snapshot() map[string]domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.Ride, len(m.rides))
	for id, r := range m.rides {
		out[id] = *r
	}
	return out
}

func (m *MockRideRepository) restore(snap map[string]domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = make(map[string]*domain.Ride, len(snap))
	for id := range snap {
		r := snap[id]
		m.rides[id] = &r
	}
}

var _ repository.RideRepository = (*MockRideRepository)(nil)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a thread-safe in-memory DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateStatusCallCount   int32
	UpdateLocationCallCount int32

	// Error injection
	UpdateStatusError   error
	UpdateLocationError error
	FindError           error
	CountError          error
}

func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drivers {
		if d.Phone == driver.Phone {
			return repository.ErrDuplicateKey
		}
	}
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *driver
	return &clone, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			clone := *d
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	driver.UpdatedAt = time.Now()
	return nil
}

func (m *MockDriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Latitude = lat
	driver.Longitude = lng
	driver.UpdatedAt = time.Now()
	return nil
}

func (m *MockDriverRepository) FindActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox, limit int) ([]*domain.Driver, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Driver
	for _, d := range m.drivers {
		if len(out) >= limit {
			break
		}
		if d.Status != domain.DriverStatusActive || d.VehicleClass != class {
			continue
		}
		if box.Contains(d.Latitude, d.Longitude) {
			clone := *d
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MockDriverRepository) CountActiveInBox(ctx context.Context, class domain.VehicleClass, box geo.BoundingBox) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, d := range m.drivers {
		if d.Status != domain.DriverStatusActive || d.VehicleClass != class {
			continue
		}
		if box.Contains(d.Latitude, d.Longitude) {
			count++
		}
	}
	return count, nil
}

func (m *MockDriverRepository) snapshot() map[string]domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.Driver, len(m.drivers))
	for id, d := range m.drivers {
		out[id] = *d
	}
	return out
}

func (m *MockDriverRepository) restore(snap map[string]domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers = make(map[string]*domain.Driver, len(snap))
	for id := range snap {
		d := snap[id]
		m.drivers[id] = &d
	}
}

var _ repository.DriverRepository = (*MockDriverRepository)(nil)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a thread-safe in-memory TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{trips: make(map[string]*domain.Trip)}
}

func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *trip
	m.trips[trip.ID] = &clone
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *trip
	return &clone, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *trip
	m.trips[trip.ID] = &clone
	return nil
}

func (m *MockTripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.DriverID == driverID && t.Status != domain.TripStatusCompleted {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockTripRepository) snapshot() map[string]domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.Trip, len(m.trips))
	for id, t := range m.trips {
		out[id] = *t
	}
	return out
}

func (m *MockTripRepository) restore(snap map[string]domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = make(map[string]*domain.Trip, len(snap))
	for id := range snap {
		t := snap[id]
		m.trips[id] = &t
	}
}

var _ repository.TripRepository = (*MockTripRepository)(nil)

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a thread-safe in-memory PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateCallCount int32
	CreateError     error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if payment.IdempotencyKey != "" && p.IdempotencyKey == payment.IdempotencyKey {
			return repository.ErrDuplicateKey
		}
		if p.TripID == payment.TripID && p.Status != domain.PaymentStatusFailed {
			return repository.ErrDuplicateKey
		}
	}
	clone := *payment
	m.payments[payment.ID] = &clone
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *payment
	return &clone, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) GetLiveByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.TripID == tripID && p.Status != domain.PaymentStatusFailed {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

var _ repository.PaymentRepository = (*MockPaymentRepository)(nil)

// ──────────────────────────────────────────────
// FAKE TRANSACTION RUNNER
// ──────────────────────────────────────────────

// fakeTxRunner runs transactions over the in-memory mocks. A mutex
// serializes transactions and map snapshots emulate rollback, which is
// enough to exercise the at-most-one-acceptance property without a
// database.
type fakeTxRunner struct {
	mu      sync.Mutex
	rides   *MockRideRepository
	trips   *MockTripRepository
	drivers *MockDriverRepository
}

func newFakeTxRunner(rides *MockRideRepository, trips *MockTripRepository, drivers *MockDriverRepository) *fakeTxRunner {
	return &fakeTxRunner{rides: rides, trips: trips, drivers: drivers}
}

func (r *fakeTxRunner) RunInTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rides := r.rides.snapshot()
	trips := r.trips.snapshot()
	drivers := r.drivers.snapshot()

	err := fn(repository.Tx{Rides: r.rides, Trips: r.trips, Drivers: r.drivers})
	if err != nil {
		r.rides.restore(rides)
		r.trips.restore(trips)
		r.drivers.restore(drivers)
	}
	return err
}

var _ repository.TxRunner = (*fakeTxRunner)(nil)

// ──────────────────────────────────────────────
// FAKE ROUTER
// ──────────────────────────────────────────────

// fakeRouter returns a fixed route or an injected error.
type fakeRouter struct {
	route     maps.Route
	err       error
	CallCount int32
}

func (f *fakeRouter) Route(ctx context.Context, originLat, originLng, destLat, destLng float64) (maps.Route, error) {
	atomic.AddInt32(&f.CallCount, 1)
	if f.err != nil {
		return maps.Route{}, f.err
	}
	return f.route, nil
}

// ──────────────────────────────────────────────
// RECORDING NOTIFIER
// ──────────────────────────────────────────────

// recordingNotifier captures dispatched events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Dispatch(event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) eventsNamed(name string) []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Event
	for _, e := range n.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeMatcher returns a fixed candidate list.
type fakeMatcher struct {
	drivers []cache.NearbyDriver
	err     error
}

func (f *fakeMatcher) FindNearbyDrivers(ctx context.Context, class domain.VehicleClass, lat, lng, radiusKm float64) ([]cache.NearbyDriver, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.drivers, nil
}
