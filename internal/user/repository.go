package user

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"account-api/pkg/cerror"
	"account-api/pkg/config"
)

const (
	MessageUserAlreadyExists = "User with this email already exists"
	MessageEmailInUse        = "Email is already in use"
)

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	InsertUser(ctx context.Context, user *Document) error
	FindUserWithId(ctx context.Context, userId string) (*Document, error)
	FindUserWithEmail(ctx context.Context, email string) (*Document, error)
	SetRefreshToken(ctx context.Context, userId, refreshToken string, lastLogin *time.Time) error
	RotateRefreshToken(ctx context.Context, userId, presentedToken, nextToken string) (bool, error)
	UnsetRefreshToken(ctx context.Context, userId string) error
	UpdateProfile(ctx context.Context, userId, fullName, email string) (*Document, error)
	UpdatePassword(ctx context.Context, userId, passwordHash string) error
	UpdateActivation(ctx context.Context, userId string, isActive bool) (*Document, error)
	FindUsers(ctx context.Context, query *ListUsersQuery) ([]Document, int64, error)
}

type repository struct {
	mongoClient   *mongo.Client
	mongodbConfig config.MongodbConfig
}

func NewRepository(mongoClient *mongo.Client, mongodbConfig config.MongodbConfig) Repository {
	return &repository{
		mongoClient:   mongoClient,
		mongodbConfig: mongodbConfig,
	}
}

func (r *repository) collection() *mongo.Collection {
	return r.mongoClient.
		Database(r.mongodbConfig.Database).
		Collection(r.mongodbConfig.Collections[config.MongodbUserCollection])
}

// EnsureIndexes creates the unique email index. It is safe to call on every start.
func (r *repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return cerror.NewInternalError(
			"error occurred while create user indexes",
			zap.Error(err),
		)
	}

	return nil
}

func (r *repository) InsertUser(ctx context.Context, user *Document) error {
	_, err := r.collection().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return cerror.NewConflictError(MessageUserAlreadyExists)
		}

		return cerror.NewInternalError(
			"error occurred while insert user",
			zap.Error(err),
		)
	}

	return nil
}

func (r *repository) FindUserWithId(ctx context.Context, userId string) (*Document, error) {
	var user Document

	filter := bson.D{{Key: "_id", Value: userId}}
	err := r.collection().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cerror.NewNotFoundError(cerror.MessageUserNotFound)
		}

		return nil, cerror.NewInternalError(
			"error occurred while find user with id",
			zap.Error(err),
		)
	}

	return &user, nil
}

// FindUserWithEmail returns nil without an error when no user has the email.
func (r *repository) FindUserWithEmail(ctx context.Context, email string) (*Document, error) {
	var user Document

	filter := bson.D{{Key: "email", Value: email}}
	err := r.collection().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, cerror.NewInternalError(
			"error occurred while find user with email",
			zap.Error(err),
		)
	}

	return &user, nil
}

func (r *repository) SetRefreshToken(
	ctx context.Context,
	userId, refreshToken string,
	lastLogin *time.Time,
) error {
	set := bson.M{
		"refreshToken": refreshToken,
		"updatedAt":    time.Now().UTC(),
	}
	if lastLogin != nil {
		set["lastLogin"] = *lastLogin
	}

	result, err := r.collection().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userId}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return cerror.NewInternalError(
			"error occurred while set refresh token",
			zap.Error(err),
		)
	}

	if result.MatchedCount == 0 {
		return cerror.NewNotFoundError(cerror.MessageUserNotFound)
	}

	return nil
}

// RotateRefreshToken replaces the stored refresh token only while it still equals
// presentedToken. It reports false when another request got there first.
func (r *repository) RotateRefreshToken(
	ctx context.Context,
	userId, presentedToken, nextToken string,
) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: userId},
		{Key: "refreshToken", Value: presentedToken},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "refreshToken", Value: nextToken},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, cerror.NewInternalError(
			"error occurred while rotate refresh token",
			zap.Error(err),
		)
	}

	return result.MatchedCount == 1, nil
}

func (r *repository) UnsetRefreshToken(ctx context.Context, userId string) error {
	_, err := r.collection().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userId}},
		bson.D{
			{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: ""}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return cerror.NewInternalError(
			"error occurred while unset refresh token",
			zap.Error(err),
		)
	}

	return nil
}

// UpdateProfile sets the non-empty fields and returns the updated document.
func (r *repository) UpdateProfile(ctx context.Context, userId, fullName, email string) (*Document, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if fullName != "" {
		set["fullName"] = fullName
	}
	if email != "" {
		set["email"] = email
	}

	var user Document
	err := r.collection().FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: userId}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cerror.NewNotFoundError(cerror.MessageUserNotFound)
		}

		if mongo.IsDuplicateKeyError(err) {
			return nil, cerror.NewConflictError(MessageEmailInUse)
		}

		return nil, cerror.NewInternalError(
			"error occurred while update profile",
			zap.Error(err),
		)
	}

	return &user, nil
}

func (r *repository) UpdatePassword(ctx context.Context, userId, passwordHash string) error {
	result, err := r.collection().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userId}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return cerror.NewInternalError(
			"error occurred while update password",
			zap.Error(err),
		)
	}

	if result.MatchedCount == 0 {
		return cerror.NewNotFoundError(cerror.MessageUserNotFound)
	}

	return nil
}

// UpdateActivation flips the active flag only if it currently holds the opposite
// value and returns nil when it does not. Deactivation also drops the stored
// refresh token so the session cannot be refreshed again.
func (r *repository) UpdateActivation(ctx context.Context, userId string, isActive bool) (*Document, error) {
	filter := bson.D{
		{Key: "_id", Value: userId},
		{Key: "isActive", Value: !isActive},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "isActive", Value: isActive},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	if !isActive {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: ""}}})
	}

	var user Document
	err := r.collection().FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, cerror.NewInternalError(
			"error occurred while update user activation",
			zap.Error(err),
			zap.Bool("isActive", isActive),
		)
	}

	return &user, nil
}

// FindUsers returns one page of users, newest first, and the total match count.
func (r *repository) FindUsers(ctx context.Context, query *ListUsersQuery) ([]Document, int64, error) {
	filter := buildListFilter(query)

	total, err := r.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, cerror.NewInternalError(
			"error occurred while count users",
			zap.Error(err),
		)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(query.Skip()).
		SetLimit(int64(query.Limit)).
		SetProjection(bson.D{
			{Key: "password", Value: 0},
			{Key: "refreshToken", Value: 0},
		})

	cursor, err := r.collection().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, cerror.NewInternalError(
			"error occurred while find users",
			zap.Error(err),
		)
	}

	var users []Document
	err = cursor.All(ctx, &users)
	if err != nil {
		return nil, 0, cerror.NewError(
			fiber.StatusInternalServerError,
			"error occurred while decode users",
			zap.Error(err),
		).SetSeverity(zapcore.ErrorLevel)
	}

	return users, total, nil
}

func buildListFilter(query *ListUsersQuery) bson.M {
	filter := bson.M{}

	if query.IsActive != "" {
		filter["isActive"] = query.IsActive == "true"
	}

	if query.Role != "" {
		filter["role"] = query.Role
	}

	if query.Search != "" {
		pattern := regexp.QuoteMeta(query.Search)
		filter["$or"] = bson.A{
			bson.M{"fullName": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	return filter
}
