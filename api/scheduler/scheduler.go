package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/raahiforwork/raahi-api/databases"
)

// pendingTTL is how long an unconfirmed signup entry is kept around
const pendingTTL = 24 * time.Hour

// Scheduler runs the periodic cleanup jobs for the verification workflow
type Scheduler struct {
	cron *cron.Cron
	PVDB databases.PendingVerificationDatabase
	UDB  databases.UserDatabase
}

// New creates a new scheduler instance
func New(pvDB databases.PendingVerificationDatabase, uDB databases.UserDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		PVDB: pvDB,
		UDB:  uDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Purge abandoned signups daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.purgeStalePendingVerifications)
	if err != nil {
		zap.S().Errorw("failed to register pending verification purge job", "error", err)
	}

	// Clear expired codes hourly so they cannot linger on user records
	_, err = s.cron.AddFunc("@hourly", s.clearExpiredCodes)
	if err != nil {
		zap.S().Errorw("failed to register expired code job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("verification cleanup scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("verification cleanup scheduler stopped")
}

// purgeStalePendingVerifications deletes pending entries older than pendingTTL
func (s *Scheduler) purgeStalePendingVerifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := primitive.NewDateTimeFromTime(time.Now().Add(-pendingTTL))
	deleted, err := s.PVDB.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		zap.S().Errorw("failed to purge stale pending verifications", "error", err)
		return
	}

	zap.S().Infow("pending verification purge complete", "deleted", deleted)
}

// clearExpiredCodes removes code and expiry pairs that can no longer be
// redeemed. Verified users are untouched, their pair is already cleared.
func (s *Scheduler) clearExpiredCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	filter := bson.M{
		"user.isVerified":             false,
		"user.verificationCodeExpiry": bson.M{"$lt": primitive.NewDateTimeFromTime(time.Now())},
	}
	update := bson.M{
		"$unset": bson.M{
			"user.verificationCode":       "",
			"user.verificationCodeExpiry": "",
		},
	}
	res, err := s.UDB.UpdateMany(ctx, filter, update)
	if err != nil {
		zap.S().Errorw("failed to clear expired verification codes", "error", err)
		return
	}
	if res != nil {
		zap.S().Infow("expired verification code sweep complete", "matched", res.MatchedCount)
	}
}
