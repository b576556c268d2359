//go:build integration

package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"account-api/pkg/cerror"
	"account-api/pkg/config"
)

const (
	TestMongoDbUserName = "root"
	TestMongoDbPassword = "12345"

	TestMongoDbDatabaseName   = "accounts"
	TestMongoDbUserCollection = "users"
)

func TestNewRepository(t *testing.T) {
	userRepository := NewRepository(nil, config.MongodbConfig{})

	assert.Implements(t, (*Repository)(nil), userRepository)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	userRepository := setupRepository(t, ctx)
	require.NoError(t, userRepository.EnsureIndexes(ctx))

	t.Run("insert and find user", func(t *testing.T) {
		user := newTestDocument("find@test.com", time.Now().UTC())
		require.NoError(t, userRepository.InsertUser(ctx, user))

		byId, err := userRepository.FindUserWithId(ctx, user.Id)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byId.Email)

		byEmail, err := userRepository.FindUserWithEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.Id, byEmail.Id)
	})

	t.Run("when email is taken insert should return conflict", func(t *testing.T) {
		require.NoError(t, userRepository.InsertUser(ctx, newTestDocument("dup@test.com", time.Now().UTC())))

		err := userRepository.InsertUser(ctx, newTestDocument("dup@test.com", time.Now().UTC()))

		assertCustomError(t, err, 409, MessageUserAlreadyExists)
	})

	t.Run("when user is absent lookups should report it", func(t *testing.T) {
		byEmail, err := userRepository.FindUserWithEmail(ctx, "absent@test.com")
		assert.NoError(t, err)
		assert.Nil(t, byEmail)

		_, err = userRepository.FindUserWithId(ctx, uuid.New().String())
		assertCustomError(t, err, 404, cerror.MessageUserNotFound)
	})

	t.Run("refresh token rotation accepts only the stored token", func(t *testing.T) {
		user := newTestDocument("rotate@test.com", time.Now().UTC())
		require.NoError(t, userRepository.InsertUser(ctx, user))

		lastLogin := time.Now().UTC()
		require.NoError(t, userRepository.SetRefreshToken(ctx, user.Id, "first", &lastLogin))

		isRotated, err := userRepository.RotateRefreshToken(ctx, user.Id, "first", "second")
		require.NoError(t, err)
		assert.True(t, isRotated)

		isRotated, err = userRepository.RotateRefreshToken(ctx, user.Id, "first", "third")
		require.NoError(t, err)
		assert.False(t, isRotated)

		stored, err := userRepository.FindUserWithId(ctx, user.Id)
		require.NoError(t, err)
		assert.Equal(t, "second", stored.RefreshToken)
		assert.NotNil(t, stored.LastLogin)

		require.NoError(t, userRepository.UnsetRefreshToken(ctx, user.Id))
		require.NoError(t, userRepository.UnsetRefreshToken(ctx, user.Id))

		stored, err = userRepository.FindUserWithId(ctx, user.Id)
		require.NoError(t, err)
		assert.Empty(t, stored.RefreshToken)
	})

	t.Run("deactivation drops the refresh token and is not repeatable", func(t *testing.T) {
		user := newTestDocument("deactivate@test.com", time.Now().UTC())
		require.NoError(t, userRepository.InsertUser(ctx, user))
		require.NoError(t, userRepository.SetRefreshToken(ctx, user.Id, "live", nil))

		deactivated, err := userRepository.UpdateActivation(ctx, user.Id, false)
		require.NoError(t, err)
		require.NotNil(t, deactivated)
		assert.False(t, deactivated.IsActive)
		assert.Empty(t, deactivated.RefreshToken)

		again, err := userRepository.UpdateActivation(ctx, user.Id, false)
		require.NoError(t, err)
		assert.Nil(t, again)

		activated, err := userRepository.UpdateActivation(ctx, user.Id, true)
		require.NoError(t, err)
		require.NotNil(t, activated)
		assert.True(t, activated.IsActive)
	})

	t.Run("update profile and password", func(t *testing.T) {
		user := newTestDocument("profile@test.com", time.Now().UTC())
		require.NoError(t, userRepository.InsertUser(ctx, user))

		updated, err := userRepository.UpdateProfile(ctx, user.Id, "Renamed User", "")
		require.NoError(t, err)
		assert.Equal(t, "Renamed User", updated.FullName)
		assert.Equal(t, "profile@test.com", updated.Email)

		_, err = userRepository.UpdateProfile(ctx, user.Id, "", "find@test.com")
		assertCustomError(t, err, 409, MessageEmailInUse)

		require.NoError(t, userRepository.UpdatePassword(ctx, user.Id, "new-hash"))
		stored, err := userRepository.FindUserWithId(ctx, user.Id)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", stored.Password)
	})
}

func TestRepository_FindUsers(t *testing.T) {
	ctx := context.Background()
	userRepository := setupRepository(t, ctx)

	createdAt := time.Now().UTC()
	for i := 0; i < 25; i++ {
		user := newTestDocument(fmt.Sprintf("user%02d@test.com", i), createdAt.Add(time.Duration(i)*time.Second))
		user.IsActive = i%5 != 0
		require.NoError(t, userRepository.InsertUser(ctx, user))
	}

	t.Run("third page of 25 users with limit 10", func(t *testing.T) {
		users, total, err := userRepository.FindUsers(ctx, &ListUsersQuery{Page: 3, Limit: 10})

		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.Len(t, users, 5)
		assert.Equal(t, "user04@test.com", users[0].Email)
		assert.Empty(t, users[0].Password)
	})

	t.Run("isActive filter", func(t *testing.T) {
		_, total, err := userRepository.FindUsers(ctx, &ListUsersQuery{Page: 1, Limit: 10, IsActive: "false"})

		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})

	t.Run("search is case insensitive and literal", func(t *testing.T) {
		users, total, err := userRepository.FindUsers(ctx, &ListUsersQuery{Page: 1, Limit: 10, Search: "USER1"})
		require.NoError(t, err)
		assert.Equal(t, int64(10), total)
		assert.Len(t, users, 10)

		_, total, err = userRepository.FindUsers(ctx, &ListUsersQuery{Page: 1, Limit: 10, Search: "user.*"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func newTestDocument(email string, createdAt time.Time) *Document {
	return &Document{
		Id:        uuid.New().String(),
		FullName:  TestFullName,
		Email:     email,
		Password:  "hash",
		Role:      RoleUser,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func setupRepository(t *testing.T, ctx context.Context) Repository {
	container := setupMongoDbContainer(t, ctx)
	mongodbUri, err := container.Endpoint(ctx, "mongodb")
	if err != nil {
		t.Fatal(fmt.Errorf("failed to get endpoint: %w", err))
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(mongodbUri).
		SetAuth(options.Credential{
			Username: TestMongoDbUserName,
			Password: TestMongoDbPassword,
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Disconnect(ctx)
	})

	return NewRepository(client, config.MongodbConfig{
		Database: TestMongoDbDatabaseName,
		Collections: map[string]string{
			config.MongodbUserCollection: TestMongoDbUserCollection,
		},
	})
}

func setupMongoDbContainer(t *testing.T, ctx context.Context) testcontainers.Container {
	req := testcontainers.ContainerRequest{
		Image: "mongo:6",
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": TestMongoDbUserName,
			"MONGO_INITDB_ROOT_PASSWORD": TestMongoDbPassword,
		},
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Waiting for connections"),
			wait.ForListeningPort("27017/tcp"),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	return container
}
