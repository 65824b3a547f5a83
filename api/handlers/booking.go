package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/raahiforwork/raahi-api/api"
	"github.com/raahiforwork/raahi-api/config"
	"github.com/raahiforwork/raahi-api/databases"
	"github.com/raahiforwork/raahi-api/models"
)

// Booking exposes the seat booking endpoints
type Booking struct {
	DB  databases.BookingDatabase
	RDB databases.RideDatabase
}

// CreateBookingHandler reserves seats on a ride. The seat decrement is
// conditional on enough seats remaining, so two riders racing for the last
// seat cannot both win.
func (bk Booking) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("invalid booking request", http.StatusBadRequest, w, err)
		return
	}

	rID, err := primitive.ObjectIDFromHex(req.RideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ride, err := bk.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get ride by ID", http.StatusNotFound, w, err)
		return
	}
	if ride.Status != models.RideStatusActive {
		config.ErrorStatus("ride is not open for booking", http.StatusConflict, w, fmt.Errorf("ride status %s", ride.Status))
		return
	}
	if ride.DriverID == req.RiderID {
		config.ErrorStatus("driver cannot book their own ride", http.StatusBadRequest, w, fmt.Errorf("rider is the driver"))
		return
	}

	filter := bson.M{
		"_id":       rID,
		"status":    models.RideStatusActive,
		"seatsLeft": bson.M{"$gte": req.Seats},
	}
	res, err := bk.RDB.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"seatsLeft": -req.Seats}})
	if err != nil {
		config.ErrorStatus("failed to reserve seats", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("not enough seats left", http.StatusConflict, w, fmt.Errorf("requested %d seats", req.Seats))
		return
	}

	booking := models.Booking{
		ID:        primitive.NewObjectID(),
		RideID:    rID,
		RiderID:   req.RiderID,
		Seats:     req.Seats,
		Reference: uuid.New().String(),
		Status:    models.BookingStatusConfirmed,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := bk.DB.InsertOne(ctx, booking); err != nil {
		// give the seats back, the reservation never completed
		if _, rbErr := bk.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{"$inc": bson.M{"seatsLeft": req.Seats}}); rbErr != nil {
			zap.S().Errorw("failed to release seats after booking insert error", "rideId", req.RideID, "error", rbErr)
		}
		config.ErrorStatus("failed to insert booking", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(booking)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// BookingsByRiderIDHandler returns all bookings made by a rider
func (bk Booking) BookingsByRiderIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	riderID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", riderID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	bookings, err := bk.DB.Find(ctx, bson.M{"riderId": riderID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get bookings by rider ID", http.StatusInternalServerError, w, err)
		return
	}
	if len(bookings) == 0 {
		bookings = []models.Booking{}
	}

	b, err := json.Marshal(bookings)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CancelBookingHandler cancels a confirmed booking and returns its seats to
// the ride
func (bk Booking) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	bookingID := mux.Vars(r)["booking_id"]

	bID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	booking, err := bk.DB.FindOne(ctx, bson.M{"_id": bID})
	if err != nil {
		config.ErrorStatus("failed to get booking by ID", http.StatusNotFound, w, err)
		return
	}

	// the status filter makes a repeated cancel a no-op for seat counts
	res, err := bk.DB.UpdateOne(ctx, bson.M{"_id": bID, "status": models.BookingStatusConfirmed},
		bson.M{"$set": bson.M{"status": models.BookingStatusCancelled}})
	if err != nil {
		config.ErrorStatus("failed to cancel booking", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("booking already cancelled", http.StatusConflict, w, mongo.ErrNoDocuments)
		return
	}

	if _, err := bk.RDB.UpdateOne(ctx, bson.M{"_id": booking.RideID}, bson.M{"$inc": bson.M{"seatsLeft": booking.Seats}}); err != nil {
		zap.S().Errorw("failed to release seats after booking cancel", "bookingId", bookingID, "error", err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Booking cancelled"}`))
}
