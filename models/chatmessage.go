package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ChatMessage holds the structure for the chat message collection in mongo
type ChatMessage struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	RideID     primitive.ObjectID `json:"rideId" bson:"rideId"`
	SenderID   string             `json:"senderId" bson:"senderId"`
	SenderName string             `json:"senderName" bson:"senderName"`
	Body       string             `json:"body" bson:"body"`
	SentAt     primitive.DateTime `json:"sentAt" bson:"sentAt"`
}
