package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PendingVerification holds the structure for the pending verification collection in MongoDB
type PendingVerification struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Token     string             `json:"token" bson:"token"`
	UserID    string             `json:"userId" bson:"userId"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	CreatedAt interface{}        `json:"createdAt" bson:"createdAt"`
}

// PendingVerificationResponse is the body returned by the pending verification lookup
type PendingVerificationResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}
