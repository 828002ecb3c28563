package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Address pairs a human-readable label with coordinates. The core treats it
// as opaque; it only flows through notification and offer payloads.
type Address struct {
	Label string `json:"label"`
	Coord Coord  `json:"coord"`
}

// Reservation is a ride request. DriverID is empty until a successful claim
// and is written exactly once, by the claim operation.
type Reservation struct {
	ID          string    `json:"id"`
	PassengerID string    `json:"passenger_id"`
	DriverID    string    `json:"driver_id,omitempty"`
	Origin      Address   `json:"origin"`
	Destination Address   `json:"destination"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReservationRequest struct {
	PassengerID string  `json:"passenger_id"`
	Origin      Address `json:"origin"`
	Destination Address `json:"destination"`
}

type Driver struct {
	ID      string    `json:"id"`
	Loc     Coord     `json:"loc"`
	Rating  float64   `json:"rating"` // 0..5
	Online  bool      `json:"online"`
	Updated time.Time `json:"updated"`
}

// RideOffer is pushed to a nearby driver when a reservation starts
// searching.
type RideOffer struct {
	ReservationID string  `json:"reservation_id"`
	Pickup        Address `json:"pickup"`
	Dropoff       Address `json:"dropoff"`
	PickupETA     float64 `json:"pickup_eta_seconds"`
}

// Assignment is the payload of the ride:assigned push to a passenger.
type Assignment struct {
	ReservationID string `json:"reservation_id"`
	DriverID      string `json:"driver_id"`
}
