package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raahiforwork/raahi-api/api"
	"github.com/raahiforwork/raahi-api/api/scheduler"
	"github.com/raahiforwork/raahi-api/config"
	"github.com/raahiforwork/raahi-api/databases"
	"github.com/raahiforwork/raahi-api/mailer"
	"github.com/raahiforwork/raahi-api/models"
)

// App stores the router, db connection and mail transport, so it can be reused
type App struct {
	Router   *mux.Router
	DB       databases.CollectionHelper
	Config   config.Config
	Mailer   mailer.Mailer
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	udb := databases.NewUserDatabase(a.dbHelper)
	pvdb := databases.NewPendingVerificationDatabase(a.dbHelper)

	u := User{DB: udb, PVDB: pvdb, Mail: a.Mailer, BaseURL: a.Config.BaseURL}
	v := Verification{PVDB: pvdb, UDB: udb, Mail: a.Mailer, BaseURL: a.Config.BaseURL}
	ride := Ride{DB: databases.NewRideDatabase(a.dbHelper)}
	booking := Booking{DB: databases.NewBookingDatabase(a.dbHelper), RDB: databases.NewRideDatabase(a.dbHelper)}
	chat := NewChat(databases.NewChatMessageDatabase(a.dbHelper), databases.NewRideDatabase(a.dbHelper), databases.NewBookingDatabase(a.dbHelper))
	cloudinaryHandler := CloudinaryHandler{}

	// email endpoints get a tighter per-IP budget than the rest of the api
	mailLimiter := api.NewRateLimiter(rate.Every(12*time.Second), 5)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// websocket upgrades live outside the timeout budget
	r.Handle("/ws/chat/{ride_id}", http.HandlerFunc(chat.ServeWS)).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/check-pending-verification", http.HandlerFunc(v.CheckPendingVerificationHandler)).Methods("POST")
	apiCreate.Handle("/send-verification-email", mailLimiter.Limit(http.HandlerFunc(v.SendVerificationEmailHandler))).Methods("POST")
	apiCreate.Handle("/update-verification-code", http.HandlerFunc(v.UpdateVerificationCodeHandler)).Methods("POST")
	apiCreate.Handle("/verify-code", http.HandlerFunc(v.VerifyCodeHandler)).Methods("POST")
	apiCreate.Handle("/resend-verification", mailLimiter.Limit(http.HandlerFunc(v.ResendVerificationHandler))).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UpdateUserByIDHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/ride", api.Middleware(http.HandlerFunc(ride.CreateRideHandler))).Methods("POST")
	apiCreate.Handle("/ride/{ride_id}", api.Middleware(http.HandlerFunc(ride.RideByIDHandler))).Methods("GET")
	apiCreate.Handle("/ride/{ride_id}", api.Middleware(http.HandlerFunc(ride.CancelRideHandler))).Methods("DELETE")
	apiCreate.Handle("/rides/search", api.Middleware(http.HandlerFunc(ride.RideSearchHandler))).Methods("GET")
	apiCreate.Handle("/rides/driver/{user_id}", api.Middleware(http.HandlerFunc(ride.RidesByDriverIDHandler))).Methods("GET")

	apiCreate.Handle("/booking", api.Middleware(http.HandlerFunc(booking.CreateBookingHandler))).Methods("POST")
	apiCreate.Handle("/bookings/rider/{user_id}", api.Middleware(http.HandlerFunc(booking.BookingsByRiderIDHandler))).Methods("GET")
	apiCreate.Handle("/booking/{booking_id}", api.Middleware(http.HandlerFunc(booking.CancelBookingHandler))).Methods("DELETE")

	apiCreate.Handle("/chat/{ride_id}/messages", api.Middleware(http.HandlerFunc(chat.MessagesByRideIDHandler))).Methods("GET")
	apiCreate.Handle("/chat/{ride_id}/messages", api.Middleware(http.HandlerFunc(chat.PostMessageHandler))).Methods("POST")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("raahi-api has connected to the database")

	a.Mailer, err = mailer.New(&a.Config)
	if err != nil {
		zap.S().With(err).Error("failed to create mail transport")
		return err
	}

	// nightly purge of stale pending verifications and expired codes
	scheduler.New(databases.NewPendingVerificationDatabase(a.dbHelper), databases.NewUserDatabase(a.dbHelper)).Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
