package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/raahiforwork/raahi-api/api/handlers"
	"github.com/raahiforwork/raahi-api/databases"
	"github.com/raahiforwork/raahi-api/databases/mocks"
	"github.com/raahiforwork/raahi-api/models"
)

func bookingDB(db *MockDatabaseHelper, conn databases.CollectionHelper) databases.BookingDatabase {
	db.On("Collection", "bookings").Return(conn)
	return databases.NewBookingDatabase(db)
}

func activeRideResult(rideID primitive.ObjectID, driverID string, seatsLeft int) *mocks.SingleResultHelper {
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		ride := args.Get(0).(*models.Ride)
		ride.ID = rideID
		ride.DriverID = driverID
		ride.Status = models.RideStatusActive
		ride.SeatsLeft = seatsLeft
	})
	return singleResultHelper
}

func TestBooking_CreateBookingHandlerDriverOwnRide(t *testing.T) {
	rideID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"rideId": "` + rideID.Hex() + `", "riderId": "driver-1", "seats": 1}`)
	req, err := http.NewRequest("POST", "/api/v1/booking", body)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	ridesConn := &mocks.CollectionHelper{}

	ridesConn.On("FindOne", mock.Anything, mock.Anything).Return(activeRideResult(rideID, "driver-1", 3))
	db.On("Collection", "rides").Return(ridesConn)

	bk := handlers.Booking{RDB: databases.NewRideDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(bk.CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "driver cannot book their own ride")
}

func TestBooking_CreateBookingHandlerNotEnoughSeats(t *testing.T) {
	rideID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"rideId": "` + rideID.Hex() + `", "riderId": "rider-1", "seats": 3}`)
	req, err := http.NewRequest("POST", "/api/v1/booking", body)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	ridesConn := &mocks.CollectionHelper{}

	ridesConn.On("FindOne", mock.Anything, mock.Anything).Return(activeRideResult(rideID, "driver-1", 1))
	// the conditional decrement finds no ride with enough seats
	ridesConn.On("UpdateOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		if !ok {
			return false
		}
		seats, ok := m["seatsLeft"].(bson.M)
		return ok && seats["$gte"] == 3
	}), mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	db.On("Collection", "rides").Return(ridesConn)

	bk := handlers.Booking{RDB: databases.NewRideDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(bk.CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "not enough seats left")
}

func TestBooking_CreateBookingHandlerSuccess(t *testing.T) {
	rideID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"rideId": "` + rideID.Hex() + `", "riderId": "rider-1", "seats": 2}`)
	req, err := http.NewRequest("POST", "/api/v1/booking", body)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	ridesConn := &mocks.CollectionHelper{}
	bookingsConn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}

	insertResult.On("Decode").Return(primitive.NewObjectID())
	ridesConn.On("FindOne", mock.Anything, mock.Anything).Return(activeRideResult(rideID, "driver-1", 3))
	ridesConn.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		m, ok := update.(bson.M)
		if !ok {
			return false
		}
		inc, ok := m["$inc"].(bson.M)
		return ok && inc["seatsLeft"] == -2
	})).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	bookingsConn.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		booking, ok := doc.(models.Booking)
		return ok && booking.RideID == rideID && booking.Seats == 2 && booking.Status == models.BookingStatusConfirmed && booking.Reference != ""
	})).Return(insertResult, nil)

	db.On("Collection", "rides").Return(ridesConn)
	db.On("Collection", "bookings").Return(bookingsConn)

	bk := handlers.Booking{
		DB:  databases.NewBookingDatabase(db),
		RDB: databases.NewRideDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(bk.CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"confirmed"`)
}

func TestBooking_BookingsByRiderIDHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/bookings/rider/rider-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "rider-1"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bookings := args.Get(1).(*[]models.Booking)
		*bookings = []models.Booking{{ID: primitive.NewObjectID(), RiderID: "rider-1", Seats: 1, Status: models.BookingStatusConfirmed, CreatedAt: primitive.NewDateTimeFromTime(time.Now())}}
	})
	conn.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["riderId"] == "rider-1"
	}), mock.Anything).Return(cursor, nil)

	bk := handlers.Booking{DB: bookingDB(db, conn)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(bk.BookingsByRiderIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"riderId":"rider-1"`)
}

func TestBooking_CancelBookingHandlerReturnsSeats(t *testing.T) {
	bookingID := primitive.NewObjectID()
	rideID := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/booking/"+bookingID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})

	db := &MockDatabaseHelper{}
	bookingsConn := &mocks.CollectionHelper{}
	ridesConn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		booking := args.Get(0).(*models.Booking)
		booking.ID = bookingID
		booking.RideID = rideID
		booking.Seats = 2
		booking.Status = models.BookingStatusConfirmed
	})
	bookingsConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	bookingsConn.On("UpdateOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["status"] == models.BookingStatusConfirmed
	}), mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	ridesConn.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		m, ok := update.(bson.M)
		if !ok {
			return false
		}
		inc, ok := m["$inc"].(bson.M)
		return ok && inc["seatsLeft"] == 2
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	db.On("Collection", "bookings").Return(bookingsConn)
	db.On("Collection", "rides").Return(ridesConn)

	bk := handlers.Booking{
		DB:  databases.NewBookingDatabase(db),
		RDB: databases.NewRideDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(bk.CancelBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"message": "Booking cancelled"}`, rr.Body.String())
	ridesConn.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestBooking_CancelBookingHandlerAlreadyCancelled(t *testing.T) {
	bookingID := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/booking/"+bookingID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		booking := args.Get(0).(*models.Booking)
		booking.ID = bookingID
		booking.Status = models.BookingStatusCancelled
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	bk := handlers.Booking{DB: bookingDB(db, conn)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(bk.CancelBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "booking already cancelled")
}
