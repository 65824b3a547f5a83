package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Booking statuses
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking holds the structure for the booking collection in mongo
type Booking struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	RideID    primitive.ObjectID `json:"rideId" bson:"rideId"`
	RiderID   string             `json:"riderId" bson:"riderId"`
	Seats     int                `json:"seats" bson:"seats"`
	Reference string             `json:"reference" bson:"reference"`
	Status    string             `json:"status" bson:"status"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// CreateBookingRequest holds the structure for booking seats on a ride
type CreateBookingRequest struct {
	RideID  string `json:"rideId" validate:"required"`
	RiderID string `json:"riderId" validate:"required"`
	Seats   int    `json:"seats" validate:"required,min=1,max=8"`
}
