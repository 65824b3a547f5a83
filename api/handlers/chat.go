package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/raahiforwork/raahi-api/api"
	"github.com/raahiforwork/raahi-api/config"
	"github.com/raahiforwork/raahi-api/databases"
	"github.com/raahiforwork/raahi-api/models"
)

const chatHistoryLimit = 100

var errNotOnRide = errors.New("sender is neither the driver nor a confirmed booker")

// Chat exposes the per-ride chat endpoints, both REST history and the
// websocket fanout. Posting is restricted to the ride's driver and riders
// with a confirmed booking.
type Chat struct {
	DB  databases.ChatMessageDatabase
	RDB databases.RideDatabase
	BDB databases.BookingDatabase

	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]bool
}

// NewChat creates a chat handler with an empty room table
func NewChat(db databases.ChatMessageDatabase, rdb databases.RideDatabase, bdb databases.BookingDatabase) *Chat {
	return &Chat{
		DB:  db,
		RDB: rdb,
		BDB: bdb,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*websocket.Conn]bool),
	}
}

// canPost reports whether senderID belongs to the ride, either as its driver
// or through a confirmed booking
func (c *Chat) canPost(ctx context.Context, rideID primitive.ObjectID, senderID string) bool {
	if ride, err := c.RDB.FindOne(ctx, bson.M{"_id": rideID}); err == nil && ride.DriverID == senderID {
		return true
	}
	booking, err := c.BDB.FindOne(ctx, bson.M{
		"rideId":  rideID,
		"riderId": senderID,
		"status":  models.BookingStatusConfirmed,
	})
	return err == nil && booking != nil
}

type postMessageRequest struct {
	SenderID   string `json:"senderId" validate:"required"`
	SenderName string `json:"senderName" validate:"required,max=200"`
	Body       string `json:"body" validate:"required,max=2000"`
}

// MessagesByRideIDHandler returns the most recent messages for a ride in
// chronological order
func (c *Chat) MessagesByRideIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	rideID := mux.Vars(r)["ride_id"]

	rID, err := primitive.ObjectIDFromHex(rideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	limit := queryInt(r, "limit", chatHistoryLimit)
	if limit > chatHistoryLimit {
		limit = chatHistoryLimit
	}
	opts := options.Find().SetSort(bson.M{"sentAt": 1}).SetLimit(int64(limit))
	messages, err := c.DB.Find(ctx, bson.M{"rideId": rID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get chat messages", http.StatusInternalServerError, w, err)
		return
	}
	if len(messages) == 0 {
		messages = []models.ChatMessage{}
	}

	b, err := json.Marshal(messages)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// PostMessageHandler persists a message and fans it out to any websocket
// subscribers on the same ride
func (c *Chat) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	rideID := mux.Vars(r)["ride_id"]

	rID, err := primitive.ObjectIDFromHex(rideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("invalid chat message", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if !c.canPost(ctx, rID, req.SenderID) {
		config.ErrorStatus("sender is not on this ride", http.StatusForbidden, w, errNotOnRide)
		return
	}

	msg := models.ChatMessage{
		ID:         primitive.NewObjectID(),
		RideID:     rID,
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		Body:       req.Body,
		SentAt:     primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := c.DB.InsertOne(ctx, msg); err != nil {
		config.ErrorStatus("failed to insert chat message", http.StatusInternalServerError, w, err)
		return
	}

	c.broadcast(rideID, msg)

	b, err := json.Marshal(msg)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ServeWS upgrades the connection and streams messages for one ride. Inbound
// frames are persisted and fanned out the same way as the REST route.
func (c *Chat) ServeWS(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]

	rID, err := primitive.ObjectIDFromHex(rideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("failed to upgrade websocket", "rideId", rideID, "error", err)
		return
	}

	c.join(rideID, conn)
	defer c.leave(rideID, conn)

	for {
		var req postMessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Debugw("websocket read error", "rideId", rideID, "error", err)
			}
			return
		}
		if err := validate.Struct(req); err != nil {
			continue
		}

		msg := models.ChatMessage{
			ID:         primitive.NewObjectID(),
			RideID:     rID,
			SenderID:   req.SenderID,
			SenderName: req.SenderName,
			Body:       req.Body,
			SentAt:     primitive.NewDateTimeFromTime(time.Now()),
		}
		ctx, cancel := api.WithQueryTimeout(r.Context())
		if !c.canPost(ctx, rID, req.SenderID) {
			cancel()
			zap.S().Warnw("dropping chat message from sender not on ride", "rideId", rideID, "senderId", req.SenderID)
			continue
		}
		_, err := c.DB.InsertOne(ctx, msg)
		cancel()
		if err != nil {
			zap.S().Errorw("failed to insert chat message", "rideId", rideID, "error", err)
			continue
		}
		c.broadcast(rideID, msg)
	}
}

func (c *Chat) join(rideID string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rooms[rideID] == nil {
		c.rooms[rideID] = make(map[*websocket.Conn]bool)
	}
	c.rooms[rideID][conn] = true
}

func (c *Chat) leave(rideID string, conn *websocket.Conn) {
	c.mu.Lock()
	if room := c.rooms[rideID]; room != nil {
		delete(room, conn)
		if len(room) == 0 {
			delete(c.rooms, rideID)
		}
	}
	c.mu.Unlock()
	conn.Close()
}

func (c *Chat) broadcast(rideID string, msg models.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for conn := range c.rooms[rideID] {
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(c.rooms[rideID], conn)
		}
	}
}
