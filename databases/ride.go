package databases

// go generate: mockery --name RideDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raahiforwork/raahi-api/models"
)

const rideName = "rides"

// RideDatabase contains the methods to use with the ride database
type RideDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Ride, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Ride, error)
	FindPaginated(ctx context.Context, filter interface{}, limit, page int, sort interface{}) ([]models.Ride, error)
	InsertOne(ctx context.Context, ride models.Ride, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type rideDatabase struct {
	db DatabaseHelper
}

// NewRideDatabase initializes a new instance of ride database with the provided db connection
func NewRideDatabase(db DatabaseHelper) RideDatabase {
	return &rideDatabase{
		db: db,
	}
}

func (c *rideDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Ride, error) {
	ride := &models.Ride{}
	err := c.db.Collection(rideName).FindOne(ctx, filter).Decode(ride)
	if err != nil {
		return nil, err
	}
	return ride, nil
}

func (c *rideDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Ride, error) {
	cursor, err := c.db.Collection(rideName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var rides []models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

func (c *rideDatabase) FindPaginated(ctx context.Context, filter interface{}, limit, page int, sort interface{}) ([]models.Ride, error) {
	return c.Find(ctx, filter, newFindPage(limit, page).sortedBy(sort).opts())
}

func (c *rideDatabase) InsertOne(ctx context.Context, ride models.Ride, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(rideName).InsertOne(ctx, ride, opts...)
}

func (c *rideDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(rideName).UpdateOne(ctx, filter, update, opts...)
}
