package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/raahiforwork/raahi-api/api"
	"github.com/raahiforwork/raahi-api/config"
	"github.com/raahiforwork/raahi-api/databases"
	"github.com/raahiforwork/raahi-api/mailer"
	"github.com/raahiforwork/raahi-api/models"
)

// codeValidity is how long an issued verification code stays usable
const codeValidity = 10 * time.Minute

// resendCooldown is the minimum gap between verification emails per user
const resendCooldown = time.Minute

// Verification handles the email verification workflow requests
type Verification struct {
	PVDB    databases.PendingVerificationDatabase
	UDB     databases.UserDatabase
	Mail    mailer.Mailer
	BaseURL string
}

// CheckPendingVerificationHandler answers whether an unconfirmed signup exists
// for an email address
func (v Verification) CheckPendingVerificationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.Email == "" {
		http.Error(w, `{"success": false, "message": "Email is required"}`, http.StatusBadRequest)
		return
	}

	// Normalize email to lowercase
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pending, err := v.PVDB.FindOne(ctx, bson.M{"email": requestBody.Email})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, `{"success": false, "message": "No pending verification found for this email"}`, http.StatusNotFound)
			return
		}
		config.ErrorStatus("failed to look up pending verification", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.PendingVerificationResponse{
		Token:     pending.Token,
		UserID:    pending.UserID,
		FirstName: pending.FirstName,
		LastName:  pending.LastName,
		Email:     pending.Email,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SendVerificationEmailHandler relays a verification email through the mail
// transport. All fields are validated before the transport is touched.
func (v Verification) SendVerificationEmailHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email           string `json:"email"`
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
		VerificationURL string `json:"verificationUrl"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.Email == "" || requestBody.FirstName == "" || requestBody.LastName == "" || requestBody.VerificationURL == "" {
		http.Error(w, `{"success": false, "message": "email, firstName, lastName and verificationUrl are required"}`, http.StatusBadRequest)
		return
	}

	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))

	res, err := v.Mail.SendVerification(r.Context(), mailer.VerificationEmail{
		Email:           requestBody.Email,
		FirstName:       requestBody.FirstName,
		LastName:        requestBody.LastName,
		VerificationURL: requestBody.VerificationURL,
	})
	if err != nil {
		config.ErrorStatus("failed to send verification email", mailer.StatusFor(err), w, err)
		return
	}

	b, err := json.Marshal(map[string]string{
		"message":   "Verification email sent",
		"messageId": res.MessageID,
		"recipient": res.Recipient,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateVerificationCodeHandler overwrites the verification code on a user
// record and stamps a fresh 10-minute expiry. The code string is stored
// verbatim; issuance callers decide its format.
func (v Verification) UpdateVerificationCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		UserID           string `json:"userId"`
		VerificationCode string `json:"verificationCode"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.UserID == "" || requestBody.VerificationCode == "" {
		http.Error(w, `{"success": false, "message": "userId and verificationCode are required"}`, http.StatusBadRequest)
		return
	}

	uID, err := primitive.ObjectIDFromHex(requestBody.UserID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// code and expiry are always written as a pair
	update := bson.M{
		"$set": bson.M{
			"user.verificationCode":       requestBody.VerificationCode,
			"user.verificationCodeExpiry": primitive.NewDateTimeFromTime(time.Now().Add(codeValidity)),
		},
	}
	if _, err := v.UDB.UpdateOne(ctx, bson.M{"_id": uID}, update); err != nil {
		config.ErrorStatus("failed to update verification code", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Verification code updated"}`))
}

// VerifyCodeHandler validates a submitted code against the stored one and
// flips the user to verified. The success update is conditional on the code
// still being present, so a second identical call reports an invalid code.
func (v Verification) VerifyCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		UserID           string `json:"userId"`
		VerificationCode string `json:"verificationCode"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.UserID == "" || requestBody.VerificationCode == "" {
		http.Error(w, `{"success": false, "message": "userId and verificationCode are required"}`, http.StatusBadRequest)
		return
	}

	uID, err := primitive.ObjectIDFromHex(requestBody.UserID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user := models.User{}
	if err := v.UDB.FindOne(ctx, bson.M{"_id": uID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, `{"success": false, "message": "User not found"}`, http.StatusNotFound)
			return
		}
		config.ErrorStatus("failed to get user by ID", http.StatusInternalServerError, w, err)
		return
	}

	// exact match, case-sensitive, no normalization
	if user.Details.VerificationCode == "" || user.Details.VerificationCode != requestBody.VerificationCode {
		http.Error(w, `{"success": false, "message": "Invalid verification code"}`, http.StatusBadRequest)
		return
	}

	if expiry, ok := asTime(user.Details.VerificationCodeExpiry); ok && time.Now().After(expiry) {
		http.Error(w, `{"success": false, "message": "Verification code has expired"}`, http.StatusBadRequest)
		return
	}

	// the filter re-checks the code so a concurrent verify that already
	// cleared it cannot be double-processed
	update := bson.M{
		"$set": bson.M{
			"user.isVerified":    true,
			"user.emailVerified": true,
		},
		"$unset": bson.M{
			"user.verificationCode":       "",
			"user.verificationCodeExpiry": "",
		},
		"$currentDate": bson.M{"user.verifiedAt": true},
	}
	res, err := v.UDB.UpdateOne(ctx, bson.M{"_id": uID, "user.verificationCode": requestBody.VerificationCode}, update)
	if err != nil {
		config.ErrorStatus("failed to mark user verified", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		http.Error(w, `{"success": false, "message": "Invalid verification code"}`, http.StatusBadRequest)
		return
	}

	// the pending entry has served its purpose, best-effort cleanup
	if user.Details.Email != "" {
		if err := v.PVDB.DeleteOne(ctx, bson.M{"email": user.Details.Email}); err != nil && err != mongo.ErrNoDocuments {
			zap.S().Warnw("failed to delete pending verification after verify", "email", user.Details.Email, "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"verified": true}`))
}

// ResendVerificationHandler reissues a code and resends the verification
// email. Enforces a one minute cooldown per user so the client-side timer is
// backed by a real guarantee.
func (v Verification) ResendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var requestBody struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.Email == "" {
		http.Error(w, `{"success": false, "message": "Email is required"}`, http.StatusBadRequest)
		return
	}

	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user := models.User{}
	err := v.UDB.FindOne(ctx, bson.M{"user.email": requestBody.Email}).Decode(&user)
	if err != nil {
		// unknown emails get the same success response to prevent enumeration
		if err == mongo.ErrNoDocuments {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"success": true}`))
			return
		}
		config.ErrorStatus("failed to get user by email", http.StatusInternalServerError, w, err)
		return
	}

	if user.Details.IsVerified {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success": true}`))
		return
	}

	// the code was issued codeValidity before its expiry
	if expiry, ok := asTime(user.Details.VerificationCodeExpiry); ok {
		issuedAt := expiry.Add(-codeValidity)
		if time.Since(issuedAt) < resendCooldown {
			http.Error(w, `{"success": false, "message": "Please wait at least 1 minute before requesting a new code"}`, http.StatusTooManyRequests)
			return
		}
	}

	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
	update := bson.M{
		"$set": bson.M{
			"user.verificationCode":       code,
			"user.verificationCodeExpiry": primitive.NewDateTimeFromTime(time.Now().Add(codeValidity)),
		},
	}
	if _, err := v.UDB.UpdateOne(ctx, bson.M{"user.email": requestBody.Email}, update); err != nil {
		config.ErrorStatus("failed to update verification code", http.StatusInternalServerError, w, err)
		return
	}

	verificationURL := fmt.Sprintf("%s/verify-email?uid=%s&code=%s", strings.TrimSuffix(v.BaseURL, "/"), user.ID, code)

	// Send email in background (non-blocking) - don't fail the request if email fails
	go func(email, firstName, lastName, url string) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.S().Errorw("panic in resend verification email", "email", email, "panic", rec)
			}
		}()
		if _, err := v.Mail.SendVerification(context.Background(), mailer.VerificationEmail{
			Email:           email,
			FirstName:       firstName,
			LastName:        lastName,
			VerificationURL: url,
		}); err != nil {
			zap.S().Errorw("failed to resend verification email", "email", email, "error", err)
		}
	}(requestBody.Email, user.Details.FirstName, user.Details.LastName, verificationURL)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

// asTime handles the loosely typed timestamp fields coming back from mongo
func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time(), true
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
