package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
)

// NotificationService emits ride event notifications. The demo backend
// has no push transport, so events are written to the structured log
// where a real transport would hook in.
type NotificationService struct {
	log *logrus.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(log *logrus.Logger) *NotificationService {
	return &NotificationService{log: log}
}

// NotifyDriverAssigned notifies the passenger that a driver accepted.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, ride.PassengerID, "driver_assigned", logrus.Fields{
		"ride_id":   ride.ID,
		"driver_id": ride.DriverID,
	})
}

// NotifyStatusChanged notifies both parties of a lifecycle transition.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, ride *domain.Ride, from domain.RideStatus) {
	fields := logrus.Fields{
		"ride_id": ride.ID,
		"from":    from,
		"to":      ride.Status,
	}
	s.send(ctx, ride.PassengerID, "ride_status_changed", fields)
	if ride.DriverID != "" {
		s.send(ctx, ride.DriverID, "ride_status_changed", fields)
	}
}

func (s *NotificationService) send(ctx context.Context, userID, event string, fields logrus.Fields) {
	entry := s.log.WithField("user_id", userID).WithField("event", event)
	for k, v := range fields {
		entry = entry.WithField(k, v)
	}
	entry.Info("notification dispatched")
}
