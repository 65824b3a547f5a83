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

func TestChat_MessagesByRideIDHandlerBadHex(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/chat/asdf/messages", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"ride_id": "asdf"})

	c := handlers.NewChat(nil, nil, nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.MessagesByRideIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChat_MessagesByRideIDHandlerHistory(t *testing.T) {
	rideID := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/chat/"+rideID.Hex()+"/messages", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"ride_id": rideID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		messages := args.Get(1).(*[]models.ChatMessage)
		*messages = []models.ChatMessage{
			{ID: primitive.NewObjectID(), RideID: rideID, SenderID: "rider-1", SenderName: "Ayesha", Body: "kitne baje niklenge?", SentAt: primitive.NewDateTimeFromTime(time.Now())},
		}
	})
	conn.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["rideId"] == rideID
	}), mock.Anything).Return(cursor, nil)
	db.On("Collection", "chatMessages").Return(conn)

	c := handlers.NewChat(databases.NewChatMessageDatabase(db), nil, nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.MessagesByRideIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "kitne baje niklenge?")
}

func TestChat_PostMessageHandlerInvalidBody(t *testing.T) {
	rideID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"senderId": "rider-1"}`)
	req, err := http.NewRequest("POST", "/api/v1/chat/"+rideID.Hex()+"/messages", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"ride_id": rideID.Hex()})

	c := handlers.NewChat(nil, nil, nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.PostMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid chat message")
}

func TestChat_PostMessageHandlerSuccess(t *testing.T) {
	rideID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"senderId": "rider-1", "senderName": "Ayesha", "body": "main gate pe hun"}`)
	req, err := http.NewRequest("POST", "/api/v1/chat/"+rideID.Hex()+"/messages", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"ride_id": rideID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}

	insertResult.On("Decode").Return(primitive.NewObjectID())
	conn.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		msg, ok := doc.(models.ChatMessage)
		return ok && msg.RideID == rideID && msg.Body == "main gate pe hun"
	})).Return(insertResult, nil)
	db.On("Collection", "chatMessages").Return(conn)
	mockRideDriver(db, rideID, "rider-1")

	c := handlers.NewChat(databases.NewChatMessageDatabase(db), databases.NewRideDatabase(db), databases.NewBookingDatabase(db))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.PostMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"senderName":"Ayesha"`)
}

// mockRideDriver wires a rides collection whose single ride is driven by driverID
func mockRideDriver(db *MockDatabaseHelper, rideID primitive.ObjectID, driverID string) {
	rideConn := &mocks.CollectionHelper{}
	rideResult := &mocks.SingleResultHelper{}
	rideResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		ride := args.Get(0).(*models.Ride)
		ride.ID = rideID
		ride.DriverID = driverID
		ride.Status = models.RideStatusActive
	})
	rideConn.On("FindOne", mock.Anything, mock.Anything).Return(rideResult)
	db.On("Collection", "rides").Return(rideConn)
}

func TestChat_PostMessageHandlerConfirmedBookerCanPost(t *testing.T) {
	rideID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"senderId": "rider-1", "senderName": "Ayesha", "body": "H-12 gate pe milte hain"}`)
	req, err := http.NewRequest("POST", "/api/v1/chat/"+rideID.Hex()+"/messages", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"ride_id": rideID.Hex()})

	db := &MockDatabaseHelper{}
	mockRideDriver(db, rideID, "driver-7")

	bookingConn := &mocks.CollectionHelper{}
	bookingResult := &mocks.SingleResultHelper{}
	bookingResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		booking := args.Get(0).(*models.Booking)
		booking.RideID = rideID
		booking.RiderID = "rider-1"
		booking.Status = models.BookingStatusConfirmed
	})
	bookingConn.On("FindOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["rideId"] == rideID && m["riderId"] == "rider-1" && m["status"] == models.BookingStatusConfirmed
	})).Return(bookingResult)
	db.On("Collection", "bookings").Return(bookingConn)

	conn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}
	insertResult.On("Decode").Return(primitive.NewObjectID())
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult, nil)
	db.On("Collection", "chatMessages").Return(conn)

	c := handlers.NewChat(databases.NewChatMessageDatabase(db), databases.NewRideDatabase(db), databases.NewBookingDatabase(db))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.PostMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestChat_PostMessageHandlerForbiddenForStranger(t *testing.T) {
	rideID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"senderId": "rider-99", "senderName": "Bilal", "body": "seat mil jayegi?"}`)
	req, err := http.NewRequest("POST", "/api/v1/chat/"+rideID.Hex()+"/messages", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"ride_id": rideID.Hex()})

	db := &MockDatabaseHelper{}
	mockRideDriver(db, rideID, "driver-7")

	bookingConn := &mocks.CollectionHelper{}
	bookingResult := &mocks.SingleResultHelper{}
	bookingResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	bookingConn.On("FindOne", mock.Anything, mock.Anything).Return(bookingResult)
	db.On("Collection", "bookings").Return(bookingConn)

	conn := &mocks.CollectionHelper{}
	db.On("Collection", "chatMessages").Return(conn)

	c := handlers.NewChat(databases.NewChatMessageDatabase(db), databases.NewRideDatabase(db), databases.NewBookingDatabase(db))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.PostMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "sender is not on this ride")
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}
