package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Ride statuses
const (
	RideStatusActive    = "active"
	RideStatusCancelled = "cancelled"
	RideStatusCompleted = "completed"
)

// Ride holds the structure for the ride collection in mongo
type Ride struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	DriverID     string             `json:"driverId" bson:"driverId"`
	From         string             `json:"from" bson:"from"`
	To           string             `json:"to" bson:"to"`
	DepartureAt  primitive.DateTime `json:"departureAt" bson:"departureAt"`
	SeatsTotal   int                `json:"seatsTotal" bson:"seatsTotal"`
	SeatsLeft    int                `json:"seatsLeft" bson:"seatsLeft"`
	PricePerSeat float64            `json:"pricePerSeat" bson:"pricePerSeat"`
	Notes        string             `json:"notes" bson:"notes"`
	Status       string             `json:"status" bson:"status"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// CreateRideRequest holds the structure for offering a new ride
type CreateRideRequest struct {
	DriverID     string  `json:"driverId" validate:"required"`
	From         string  `json:"from" validate:"required,min=2,max=120"`
	To           string  `json:"to" validate:"required,min=2,max=120"`
	DepartureAt  string  `json:"departureAt" validate:"required"`
	SeatsTotal   int     `json:"seatsTotal" validate:"required,min=1,max=8"`
	PricePerSeat float64 `json:"pricePerSeat" validate:"min=0"`
	Notes        string  `json:"notes" validate:"max=500"`
}
