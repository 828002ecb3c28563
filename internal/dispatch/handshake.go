// Package dispatch implements the driver-accept handshake: the atomic
// claim of a searching reservation followed by a best-effort push to the
// passenger.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/takataka/internal/models"
	"github.com/example/takataka/internal/notify"
	"github.com/example/takataka/internal/observability"
	"github.com/example/takataka/internal/storage"
)

// Handshake orchestrates the claim and the assignment notification. The
// notification channel is an explicit dependency; there is no ambient
// socket handle to reach for.
type Handshake struct {
	Store      storage.ReservationStore
	Passengers notify.Channel
	Logger     *slog.Logger
}

func NewHandshake(store storage.ReservationStore, passengers notify.Channel, logger *slog.Logger) *Handshake {
	return &Handshake{Store: store, Passengers: passengers, Logger: logger}
}

// Accept attempts to claim the reservation for the driver. On success the
// reservation is already durably assigned before the passenger push is
// attempted, so a delivery failure never rolls anything back and a claim
// failure never produces a push. Errors are storage.ErrNotFound or
// storage.ErrAlreadyClaimed; a repeat call by the winner gets
// ErrAlreadyClaimed like everyone else.
func (h *Handshake) Accept(ctx context.Context, reservationID, driverID string) (*models.Reservation, error) {
	res, err := h.Store.Claim(ctx, reservationID, driverID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			observability.ClaimRejections.WithLabelValues("not_found").Inc()
		case errors.Is(err, storage.ErrAlreadyClaimed):
			observability.ClaimRejections.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}
	observability.ClaimsTotal.Inc()

	payload := models.Assignment{ReservationID: res.ID, DriverID: res.DriverID}
	if err := h.Passengers.Publish(res.PassengerID, notify.EventRideAssigned, payload); err != nil {
		// The assignment is committed; the passenger re-syncs via the
		// read endpoint if the push was missed.
		observability.NotificationFailures.Inc()
		h.Logger.Warn("assignment push not delivered",
			"reservation_id", res.ID, "passenger_id", res.PassengerID, "error", err)
	} else {
		observability.NotificationsPublished.Inc()
	}
	return res, nil
}
