package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// driverLockTTL bounds how long a dispatch holds a driver claim. The lock
// is released explicitly when assignment fails; the TTL covers crashes.
const driverLockTTL = 30 * time.Second

// Dispatcher simulates driver matching. Each booked ride gets a timer
// with a randomized delay; when it fires, the nearest unclaimed driver is
// assigned and the ride moves to accepted. Cancelling or manually
// updating the ride before the timer fires suppresses the auto-accept.
type Dispatcher struct {
	rideRepo  repository.RideRepository
	locations redis.LocationStoreInterface
	locks     redis.LockStoreInterface
	notifier  *NotificationService
	log       *logrus.Logger

	minDelay time.Duration
	maxDelay time.Duration
	radiusKm float64

	// fallbackDrivers are tried in order when the geo index has no
	// drivers near the pickup.
	fallbackDrivers []string

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDispatcher creates a new Dispatcher. locations and locks may be nil
// when Redis is not configured; matching then uses only the fallback list.
func NewDispatcher(
	rideRepo repository.RideRepository,
	locations redis.LocationStoreInterface,
	locks redis.LockStoreInterface,
	notifier *NotificationService,
	minDelay, maxDelay time.Duration,
	radiusKm float64,
	fallbackDrivers []string,
	log *logrus.Logger,
) *Dispatcher {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Dispatcher{
		rideRepo:        rideRepo,
		locations:       locations,
		locks:           locks,
		notifier:        notifier,
		log:             log,
		minDelay:        minDelay,
		maxDelay:        maxDelay,
		radiusKm:        radiusKm,
		fallbackDrivers: fallbackDrivers,
		timers:          make(map[string]*time.Timer),
	}
}

// Schedule arms the auto-accept timer for a newly requested ride.
func (d *Dispatcher) Schedule(ride *domain.Ride) {
	delay := d.minDelay
	if d.maxDelay > d.minDelay {
		delay += time.Duration(rand.Int63n(int64(d.maxDelay - d.minDelay)))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.timers[ride.ID]; exists {
		return
	}

	rideID := ride.ID
	pickup := ride.Pickup
	d.timers[rideID] = time.AfterFunc(delay, func() {
		d.autoAccept(rideID, pickup)
	})

	d.log.WithFields(logrus.Fields{
		"ride_id": rideID,
		"delay":   delay,
	}).Debug("dispatch scheduled")
}

// CancelTimer stops the pending auto-accept for a ride, if any.
func (d *Dispatcher) CancelTimer(rideID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[rideID]; ok {
		timer.Stop()
		delete(d.timers, rideID)
	}
}

// Stop cancels all pending timers. Called on shutdown.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
}

func (d *Dispatcher) autoAccept(rideID string, pickup domain.Location) {
	d.mu.Lock()
	delete(d.timers, rideID)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driverID := d.claimDriver(ctx, pickup)
	if driverID == "" {
		d.log.WithField("ride_id", rideID).Warn("no driver available, ride stays requested")
		return
	}

	ok, err := d.rideRepo.UpdateStatus(ctx, rideID,
		domain.RideStatusRequested, domain.RideStatusAccepted, driverID, time.Now())
	if err != nil {
		d.releaseDriver(ctx, driverID)
		d.log.WithError(err).WithField("ride_id", rideID).Error("auto-accept failed")
		return
	}
	if !ok {
		// The ride was cancelled or accepted between timer fire and the
		// status update. The claim is no longer needed.
		d.releaseDriver(ctx, driverID)
		d.log.WithField("ride_id", rideID).Debug("auto-accept skipped, ride left requested state")
		return
	}

	d.log.WithFields(logrus.Fields{
		"ride_id":   rideID,
		"driver_id": driverID,
	}).Info("driver assigned")

	if d.notifier != nil {
		if ride, err := d.rideRepo.GetByID(ctx, rideID); err == nil {
			d.notifier.NotifyDriverAssigned(ctx, ride)
		}
	}
}

// claimDriver picks the nearest driver to the pickup that is not already
// claimed by another dispatch. Falls back to the static list when the geo
// index is empty or unavailable.
func (d *Dispatcher) claimDriver(ctx context.Context, pickup domain.Location) string {
	if d.locations != nil {
		nearby, err := d.locations.FindNearby(ctx, pickup.Lat, pickup.Lng, d.radiusKm)
		if err != nil {
			d.log.WithError(err).Warn("nearby driver lookup failed")
		}
		for _, loc := range nearby {
			if d.tryClaim(ctx, loc.DriverID) {
				return loc.DriverID
			}
		}
	}

	for _, id := range d.fallbackDrivers {
		if d.tryClaim(ctx, id) {
			return id
		}
	}

	return ""
}

func (d *Dispatcher) tryClaim(ctx context.Context, driverID string) bool {
	if d.locks == nil {
		return true
	}
	ok, err := d.locks.AcquireDriverLock(ctx, driverID, driverLockTTL)
	if err != nil {
		d.log.WithError(err).WithField("driver_id", driverID).Warn("driver lock failed")
		return false
	}
	return ok
}

func (d *Dispatcher) releaseDriver(ctx context.Context, driverID string) {
	if d.locks == nil {
		return
	}
	if err := d.locks.ReleaseDriverLock(ctx, driverID); err != nil {
		d.log.WithError(err).WithField("driver_id", driverID).Warn("driver lock release failed")
	}
}
