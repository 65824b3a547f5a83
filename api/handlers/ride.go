package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

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

// Ride exposes the ride offer endpoints
type Ride struct {
	DB databases.RideDatabase
}

// CreateRideHandler publishes a new ride offer
func (rd Ride) CreateRideHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req models.CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("invalid ride request", http.StatusBadRequest, w, err)
		return
	}

	departureAt, err := time.Parse(time.RFC3339, req.DepartureAt)
	if err != nil {
		config.ErrorStatus("departureAt must be RFC3339", http.StatusBadRequest, w, err)
		return
	}
	if departureAt.Before(time.Now()) {
		config.ErrorStatus("departureAt must be in the future", http.StatusBadRequest, w, err)
		return
	}

	ride := models.Ride{
		ID:           primitive.NewObjectID(),
		DriverID:     req.DriverID,
		From:         req.From,
		To:           req.To,
		DepartureAt:  primitive.NewDateTimeFromTime(departureAt),
		SeatsTotal:   req.SeatsTotal,
		SeatsLeft:    req.SeatsTotal,
		PricePerSeat: req.PricePerSeat,
		Notes:        req.Notes,
		Status:       models.RideStatusActive,
		CreatedAt:    primitive.NewDateTimeFromTime(time.Now()),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := rd.DB.InsertOne(ctx, ride); err != nil {
		config.ErrorStatus("failed to insert ride", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(ride)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// RideByIDHandler returns a ride given a rideID
func (rd Ride) RideByIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	rideID := mux.Vars(r)["ride_id"]

	zap.S().Debugf("ride_id: %v", rideID)

	rID, err := primitive.ObjectIDFromHex(rideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ride, err := rd.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get ride by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(ride)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RideSearchHandler finds upcoming active rides matching from/to, optionally
// narrowed to a calendar day
func (rd Ride) RideSearchHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	date := r.URL.Query().Get("date")

	filter := bson.M{
		"status":    models.RideStatusActive,
		"seatsLeft": bson.M{"$gt": 0},
	}
	if from != "" {
		filter["from"] = bson.M{"$regex": primitive.Regex{Pattern: from, Options: "i"}}
	}
	if to != "" {
		filter["to"] = bson.M{"$regex": primitive.Regex{Pattern: to, Options: "i"}}
	}
	if date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			config.ErrorStatus("date must be YYYY-MM-DD", http.StatusBadRequest, w, err)
			return
		}
		filter["departureAt"] = bson.M{
			"$gte": primitive.NewDateTimeFromTime(day),
			"$lt":  primitive.NewDateTimeFromTime(day.AddDate(0, 0, 1)),
		}
	} else {
		filter["departureAt"] = bson.M{"$gte": primitive.NewDateTimeFromTime(time.Now())}
	}

	limit := queryInt(r, "limit", 50)
	page := queryInt(r, "page", 1)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	rides, err := rd.DB.FindPaginated(ctx, filter, limit, page, bson.M{"departureAt": 1})
	if err != nil {
		config.ErrorStatus("failed to search rides", http.StatusInternalServerError, w, err)
		return
	}
	if len(rides) == 0 {
		rides = []models.Ride{}
	}

	b, err := json.Marshal(rides)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// queryInt reads a positive integer query param, falling back on a default
func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// RidesByDriverIDHandler returns all rides offered by a driver
func (rd Ride) RidesByDriverIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	driverID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", driverID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"departureAt": -1})
	rides, err := rd.DB.Find(ctx, bson.M{"driverId": driverID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get rides by driver ID", http.StatusInternalServerError, w, err)
		return
	}
	if len(rides) == 0 {
		rides = []models.Ride{}
	}

	b, err := json.Marshal(rides)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CancelRideHandler soft-cancels a ride so existing bookings can still
// reference it
func (rd Ride) CancelRideHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	rideID := mux.Vars(r)["ride_id"]

	rID, err := primitive.ObjectIDFromHex(rideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := rd.DB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{"$set": bson.M{"status": models.RideStatusCancelled}})
	if err != nil {
		config.ErrorStatus("failed to cancel ride", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("failed to get ride by ID", http.StatusNotFound, w, mongo.ErrNoDocuments)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Ride cancelled"}`))
}
