package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func newTestUser() models.User {
	return models.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleServiceCenter,
		FirstName:    "Test",
		LastName:     "User",
		BusinessName: "Test Motors",
	}
}

func TestMongoUserCollection_InsertUser(t *testing.T) {
	database := integrationDatabase(t)
	collection := database.Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	user := newTestUser()
	err := userCollection.InsertUser(context.Background(), user)
	assert.NoError(t, err)

	// Verify user was inserted
	var foundUser models.User
	err = collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&foundUser)
	assert.NoError(t, err)
	assert.Equal(t, user.Username, foundUser.Username)
	assert.Equal(t, user.Email, foundUser.Email)
	assert.Equal(t, user.Role, foundUser.Role)
	assert.True(t, foundUser.IsActive)
	assert.NotZero(t, foundUser.CreatedAt)
	assert.NotZero(t, foundUser.UpdatedAt)

	// The unique index turns a second registration into a conflict
	err = userCollection.InsertUser(context.Background(), user)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMongoUserCollection_Lookups(t *testing.T) {
	database := integrationDatabase(t)
	collection := database.Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	user := newTestUser()
	require.NoError(t, userCollection.InsertUser(context.Background(), user))

	var insertedUser models.User
	err := collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&insertedUser)
	require.NoError(t, err)

	foundUser, err := userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, user.Username, foundUser.Username)

	_, err = userCollection.FindUserByID(context.Background(), "invalid-id")
	assert.ErrorIs(t, err, ErrNotFound)

	foundUser, err = userCollection.FindUserByEmail(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.Equal(t, user.Username, foundUser.Username)

	_, err = userCollection.FindUserByUsername(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	centers, err := userCollection.FindUsers(context.Background(), models.RoleServiceCenter)
	assert.NoError(t, err)
	assert.Len(t, centers, 1)

	customers, err := userCollection.FindUsers(context.Background(), models.RoleCustomer)
	assert.NoError(t, err)
	assert.Empty(t, customers)
}

func TestMongoUserCollection_UpdateAndDelete(t *testing.T) {
	database := integrationDatabase(t)
	collection := database.Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	require.NoError(t, userCollection.InsertUser(context.Background(), newTestUser()))

	var insertedUser models.User
	err := collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&insertedUser)
	require.NoError(t, err)

	updatedUser := insertedUser
	updatedUser.FirstName = "Updated"
	err = userCollection.UpdateUser(context.Background(), insertedUser.ID.Hex(), updatedUser)
	assert.NoError(t, err)

	foundUser, err := userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, "Updated", foundUser.FirstName)
	assert.True(t, foundUser.UpdatedAt.After(insertedUser.UpdatedAt))

	err = userCollection.UpdateLastLogin(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	foundUser, err = userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	assert.NotNil(t, foundUser.LastLogin)

	err = userCollection.DeleteUser(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	_, err = userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.Error(t, err)
}
