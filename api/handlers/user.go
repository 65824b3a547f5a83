package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/raahiforwork/raahi-api/api"
	"github.com/raahiforwork/raahi-api/config"
	"github.com/raahiforwork/raahi-api/databases"
	"github.com/raahiforwork/raahi-api/mailer"
	"github.com/raahiforwork/raahi-api/models"
)

var validate = validator.New()

// User exposes the user account endpoints
type User struct {
	DB      databases.UserDatabase
	PVDB    databases.PendingVerificationDatabase
	Mail    mailer.Mailer
	BaseURL string
}

// UserHandler returns a user given a userID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user := models.User{}
	if err := u.DB.FindOne(ctx, bson.M{"_id": uID}).Decode(&user); err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	// the password hash never leaves the api
	user.Details.Password = ""

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UserCreateHandler creates an unverified account, records the pending
// verification entry and sends the first verification email
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	if err := validate.Struct(req); err != nil {
		config.ErrorStatus("invalid signup request", http.StatusBadRequest, w, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// check if the user already exists
	count, err := u.DB.CountDocuments(ctx, bson.M{"user.email": req.Email})
	if err != nil {
		config.ErrorStatus("failed to check for existing user", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	// hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
	details := models.UserDetails{
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		Email:                  req.Email,
		Phone:                  req.Phone,
		Password:               string(hashedPassword),
		IsVerified:             false,
		EmailVerified:          false,
		VerificationCode:       code,
		VerificationCodeExpiry: primitive.NewDateTimeFromTime(time.Now().Add(codeValidity)),
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	res, err := u.DB.InsertOne(ctx, details)
	if err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	userID := ""
	if oid, ok := res.Decode().(primitive.ObjectID); ok {
		userID = oid.Hex()
	}

	token := uuid.New().String()
	pending := models.PendingVerification{
		Email:     req.Email,
		Token:     token,
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: now,
	}
	if _, err := u.PVDB.InsertOne(ctx, pending); err != nil {
		config.ErrorStatus("failed to insert pending verification", http.StatusInternalServerError, w, err)
		return
	}

	verificationURL := fmt.Sprintf("%s/verify-email?uid=%s&code=%s", strings.TrimSuffix(u.BaseURL, "/"), userID, code)

	// Send email in background (non-blocking) - don't fail signup if email fails
	go func(email, firstName, lastName, url string) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.S().Errorw("panic in signup verification email", "email", email, "panic", rec)
			}
		}()
		if _, err := u.Mail.SendVerification(context.Background(), mailer.VerificationEmail{
			Email:           email,
			FirstName:       firstName,
			LastName:        lastName,
			VerificationURL: url,
		}); err != nil {
			zap.S().Errorw("failed to send signup verification email", "email", email, "error", err)
		}
	}(req.Email, req.FirstName, req.LastName, verificationURL)

	b, err := json.Marshal(map[string]string{"_id": userID, "token": token})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UserCheckEmailHandler checks if an email exists using POST
func (u User) UserCheckEmailHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.Email == "" {
		http.Error(w, `{"success": false, "message": "Email is required"}`, http.StatusBadRequest)
		return
	}

	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"user.email": requestBody.Email})
	if err != nil {
		config.ErrorStatus("failed to check for existing user", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// UpdateUserByIDHandler applies a partial update to the nested user document.
// Verification and credential fields are not writable through this route.
func (u User) UpdateUserByIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var updatedFields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updatedFields); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	for _, protected := range []string{"password", "email", "isVerified", "emailVerified", "verifiedAt", "verificationCode", "verificationCodeExpiry"} {
		delete(updatedFields, protected)
	}
	updatedFields["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	update := bson.M{}
	for key, value := range updatedFields {
		update["user."+key] = value
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := u.DB.UpdateOne(ctx, bson.M{"_id": uID}, bson.M{"$set": update})
	if err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, mongo.ErrNoDocuments)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "User updated successfully"}`))
}
