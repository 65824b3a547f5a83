package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/raahiforwork/raahi-api/databases"
	"github.com/raahiforwork/raahi-api/databases/mocks"
	"github.com/raahiforwork/raahi-api/models"
)

func TestPendingVerificationDatabase_FindOne(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.PendingVerification)
		arg.Email = "ayesha@nust.edu.pk"
		arg.Token = "mocked-token"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "pendingVerifications").Return(collectionHelper)

	// Create new database with mocked Database interface
	pvDba := databases.NewPendingVerificationDatabase(dbHelper)

	// Call method with defined filter, that in our mocked function returns
	// mocked-error
	pending, err := pvDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Nil(t, pending)
	assert.EqualError(t, err, "mocked-error")

	// Now call the same function with different different filter for correct
	// result
	pending, err = pvDba.FindOne(context.Background(), bson.M{"error": false})

	assert.NoError(t, err)
	assert.Equal(t, "ayesha@nust.edu.pk", pending.Email)
	assert.Equal(t, "mocked-token", pending.Token)
}

func TestPendingVerificationDatabase_DeleteOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("DeleteOne", context.Background(), bson.M{"email": "ayesha@nust.edu.pk"}).
		Return(int64(1), nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "pendingVerifications").Return(collectionHelper)

	pvDba := databases.NewPendingVerificationDatabase(dbHelper)

	err := pvDba.DeleteOne(context.Background(), bson.M{"email": "ayesha@nust.edu.pk"})
	assert.NoError(t, err)
}

func TestPendingVerificationDatabase_DeleteMany(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("DeleteMany", context.Background(), mock.Anything).
		Return(int64(4), nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "pendingVerifications").Return(collectionHelper)

	pvDba := databases.NewPendingVerificationDatabase(dbHelper)

	deleted, err := pvDba.DeleteMany(context.Background(), bson.M{})
	assert.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
}
