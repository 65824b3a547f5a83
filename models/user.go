package models

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	FirstName              string      `json:"firstName" bson:"firstName"`
	LastName               string      `json:"lastName" bson:"lastName"`
	Email                  string      `json:"email" bson:"email"`
	Phone                  string      `json:"phone" bson:"phone"`
	Password               string      `json:"password" bson:"password"`
	ProfilePicture         string      `json:"profilePicture" bson:"profilePicture"`
	IsVerified             bool        `json:"isVerified" bson:"isVerified"`
	EmailVerified          bool        `json:"emailVerified" bson:"emailVerified"`
	VerifiedAt             interface{} `json:"verifiedAt" bson:"verifiedAt"`
	VerificationCode       string      `json:"verificationCode" bson:"verificationCode"`
	VerificationCodeExpiry interface{} `json:"verificationCodeExpiry" bson:"verificationCodeExpiry"`
	CreatedAt              interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt              interface{} `json:"updatedAt" bson:"updatedAt"`
}

// CreateUserRequest holds the structure for the signup request body
type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,min=7,max=20"`
	Password  string `json:"password" validate:"required,min=8"`
}
