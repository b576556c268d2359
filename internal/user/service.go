package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"account-api/pkg/cerror"
	"account-api/pkg/config"
	"account-api/pkg/event"
	"account-api/pkg/hasher"
	"account-api/pkg/jwt_generator"
	"account-api/pkg/logger"
	"account-api/pkg/validation"
)

const (
	MessageInvalidCredentials    = "Invalid email or password"
	MessageAccountDeactivated    = "Your account has been deactivated. Please contact administrator."
	MessageUnauthorizedRequest   = "Unauthorized request"
	MessageInvalidRefreshToken   = "Invalid refresh token"
	MessageRefreshTokenUsed      = "Refresh token is expired or used"
	MessageIncorrectPassword     = "Current password is incorrect"
	MessageSamePassword          = "New password must be different from current password"
	MessageProfileFieldsRequired = "At least one field (fullName or email) is required"
	MessageUserAlreadyActive     = "User is already active"
	MessageUserAlreadyInactive   = "User is already deactivated"
	MessageSelfDeactivation      = "You cannot deactivate your own account"
)

type Service interface {
	Register(ctx context.Context, payload *RegisterPayload) (*AuthResult, error)
	Login(ctx context.Context, payload *LoginPayload) (*AuthResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*jwt_generator.Tokens, error)
	Logout(ctx context.Context, userId string) error
	GetUser(ctx context.Context, userId string) (*User, error)
	UpdateProfile(ctx context.Context, userId string, payload *UpdateProfilePayload) (*User, error)
	ChangePassword(ctx context.Context, userId string, payload *ChangePasswordPayload) error
	ListUsers(ctx context.Context, query *ListUsersQuery) (*UserList, error)
	ActivateUser(ctx context.Context, actorId, userId string) (*User, error)
	DeactivateUser(ctx context.Context, actorId, userId string) (*User, error)
}

type service struct {
	userRepository Repository
	jwtGenerator   jwt_generator.JwtGenerator
	hasher         hasher.Hasher
	publisher      event.Publisher
	jwtConfig      config.JwtConfig
}

func NewService(
	userRepository Repository,
	jwtGenerator jwt_generator.JwtGenerator,
	passwordHasher hasher.Hasher,
	publisher event.Publisher,
	jwtConfig config.JwtConfig,
) Service {
	return &service{
		userRepository: userRepository,
		jwtGenerator:   jwtGenerator,
		hasher:         passwordHasher,
		publisher:      publisher,
		jwtConfig:      jwtConfig,
	}
}

func (s *service) Register(ctx context.Context, payload *RegisterPayload) (*AuthResult, error) {
	verr := validation.RequiredFields(
		validation.Field{Name: "fullName", Value: payload.FullName},
		validation.Field{Name: "email", Value: payload.Email},
		validation.Field{Name: "password", Value: payload.Password},
	)
	if verr != nil {
		return nil, toValidationError(verr)
	}

	fullName := strings.TrimSpace(payload.FullName)
	if verr = validation.FullName(fullName); verr != nil {
		return nil, toValidationError(verr)
	}

	email := validation.NormalizeEmail(payload.Email)
	if verr = validation.Email(email); verr != nil {
		return nil, toValidationError(verr)
	}

	if verr = validation.Password(payload.Password); verr != nil {
		return nil, toValidationError(verr)
	}

	existingUser, err := s.userRepository.FindUserWithEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if existingUser != nil {
		return nil, cerror.NewConflictError(MessageUserAlreadyExists)
	}

	passwordHash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return nil, cerror.NewInternalError(
			"error occurred while generate hash from password",
			zap.Error(err),
		)
	}

	now := time.Now().UTC()
	user := &Document{
		Id:        uuid.New().String(),
		FullName:  fullName,
		Email:     email,
		Password:  passwordHash,
		Role:      RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.userRepository.InsertUser(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	err = s.userRepository.SetRefreshToken(ctx, user.Id, tokens.RefreshToken, nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.New(event.TypeUserRegistered, user.Id, user.Email))

	return &AuthResult{
		User:         user.ToUser(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Login answers an unknown email and a wrong password identically. The active flag
// is only revealed to a caller who knows the password.
func (s *service) Login(ctx context.Context, payload *LoginPayload) (*AuthResult, error) {
	verr := validation.RequiredFields(
		validation.Field{Name: "email", Value: payload.Email},
		validation.Field{Name: "password", Value: payload.Password},
	)
	if verr != nil {
		return nil, toValidationError(verr)
	}

	email := validation.NormalizeEmail(payload.Email)
	user, err := s.userRepository.FindUserWithEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil || !s.hasher.Verify(payload.Password, user.Password) {
		return nil, cerror.NewAuthenticationError(
			MessageInvalidCredentials,
			zap.String("email", email),
		)
	}

	if !user.IsActive {
		return nil, cerror.NewAuthorizationError(MessageAccountDeactivated)
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	lastLogin := time.Now().UTC()
	err = s.userRepository.SetRefreshToken(ctx, user.Id, tokens.RefreshToken, &lastLogin)
	if err != nil {
		return nil, err
	}
	user.LastLogin = &lastLogin

	return &AuthResult{
		User:         user.ToUser(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshTokens exchanges the stored refresh token for a new pair. The swap is a
// single conditional write, so of two requests presenting the same token only
// one can win.
func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (*jwt_generator.Tokens, error) {
	if refreshToken == "" {
		return nil, cerror.NewAuthenticationError(MessageUnauthorizedRequest)
	}

	claims, err := s.jwtGenerator.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, cerror.NewAuthenticationError(MessageInvalidRefreshToken, zap.Error(err))
	}

	user, err := s.userRepository.FindUserWithId(ctx, claims.Subject)
	if err != nil {
		return nil, cerror.NewAuthenticationError(
			MessageInvalidRefreshToken,
			zap.String("userId", claims.Subject),
			zap.Error(err),
		)
	}

	if user.RefreshToken != refreshToken {
		return nil, cerror.NewAuthenticationError(
			MessageRefreshTokenUsed,
			zap.String("userId", user.Id),
		)
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	isRotated, err := s.userRepository.RotateRefreshToken(ctx, user.Id, refreshToken, tokens.RefreshToken)
	if err != nil {
		return nil, err
	}

	if !isRotated {
		return nil, cerror.NewAuthenticationError(
			MessageRefreshTokenUsed,
			zap.String("userId", user.Id),
		)
	}

	return tokens, nil
}

func (s *service) Logout(ctx context.Context, userId string) error {
	return s.userRepository.UnsetRefreshToken(ctx, userId)
}

func (s *service) GetUser(ctx context.Context, userId string) (*User, error) {
	user, err := s.userRepository.FindUserWithId(ctx, userId)
	if err != nil {
		return nil, err
	}

	return user.ToUser(), nil
}

func (s *service) UpdateProfile(ctx context.Context, userId string, payload *UpdateProfilePayload) (*User, error) {
	hasFullName := payload.FullName != ""
	hasEmail := payload.Email != ""
	if !hasFullName && !hasEmail {
		return nil, cerror.NewValidationError(MessageProfileFieldsRequired)
	}

	// A supplied field is validated after trimming, so blank input is rejected
	// rather than ignored.
	fullName := strings.TrimSpace(payload.FullName)
	email := validation.NormalizeEmail(payload.Email)
	if hasFullName {
		if verr := validation.FullName(fullName); verr != nil {
			return nil, toValidationError(verr)
		}
	}

	if hasEmail {
		if verr := validation.Email(email); verr != nil {
			return nil, toValidationError(verr)
		}

		owner, err := s.userRepository.FindUserWithEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		if owner != nil && owner.Id != userId {
			return nil, cerror.NewConflictError(MessageEmailInUse)
		}
	}

	user, err := s.userRepository.UpdateProfile(ctx, userId, fullName, email)
	if err != nil {
		return nil, err
	}

	return user.ToUser(), nil
}

// ChangePassword keeps the stored refresh token, so existing sessions stay alive.
func (s *service) ChangePassword(ctx context.Context, userId string, payload *ChangePasswordPayload) error {
	verr := validation.RequiredFields(
		validation.Field{Name: "currentPassword", Value: payload.CurrentPassword},
		validation.Field{Name: "newPassword", Value: payload.NewPassword},
	)
	if verr != nil {
		return toValidationError(verr)
	}

	user, err := s.userRepository.FindUserWithId(ctx, userId)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(payload.CurrentPassword, user.Password) {
		return cerror.NewValidationError(MessageIncorrectPassword)
	}

	if verr = validation.Password(payload.NewPassword); verr != nil {
		return toValidationError(verr)
	}

	if payload.NewPassword == payload.CurrentPassword {
		return cerror.NewValidationError(MessageSamePassword)
	}

	passwordHash, err := s.hasher.Hash(payload.NewPassword)
	if err != nil {
		return cerror.NewInternalError(
			"error occurred while generate hash from password",
			zap.Error(err),
		)
	}

	err = s.userRepository.UpdatePassword(ctx, userId, passwordHash)
	if err != nil {
		return err
	}

	s.publish(ctx, event.New(event.TypeUserPasswordChanged, user.Id, user.Email))

	return nil
}

func (s *service) ListUsers(ctx context.Context, query *ListUsersQuery) (*UserList, error) {
	query.Normalize()

	documents, total, err := s.userRepository.FindUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(documents))
	for i := range documents {
		users = append(users, documents[i].ToUser())
	}

	limit := int64(query.Limit)
	return &UserList{
		Users: users,
		Pagination: Pagination{
			CurrentPage: query.Page,
			TotalPages:  (total + limit - 1) / limit,
			TotalUsers:  total,
			Limit:       query.Limit,
		},
	}, nil
}

func (s *service) ActivateUser(ctx context.Context, actorId, userId string) (*User, error) {
	user, err := s.userRepository.FindUserWithId(ctx, userId)
	if err != nil {
		return nil, err
	}

	if user.IsActive {
		return nil, cerror.NewValidationError(MessageUserAlreadyActive)
	}

	user, err = s.userRepository.UpdateActivation(ctx, userId, true)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, cerror.NewValidationError(MessageUserAlreadyActive)
	}

	s.publish(ctx, event.New(event.TypeUserActivated, user.Id, user.Email).WithActor(actorId))

	return user.ToUser(), nil
}

// DeactivateUser also revokes the target's refresh token.
func (s *service) DeactivateUser(ctx context.Context, actorId, userId string) (*User, error) {
	if actorId == userId {
		return nil, cerror.NewAuthorizationError(MessageSelfDeactivation)
	}

	user, err := s.userRepository.FindUserWithId(ctx, userId)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, cerror.NewValidationError(MessageUserAlreadyInactive)
	}

	user, err = s.userRepository.UpdateActivation(ctx, userId, false)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, cerror.NewValidationError(MessageUserAlreadyInactive)
	}

	s.publish(ctx, event.New(event.TypeUserDeactivated, user.Id, user.Email).WithActor(actorId))

	return user.ToUser(), nil
}

func (s *service) generateTokens(user *Document) (*jwt_generator.Tokens, error) {
	now := time.Now().UTC()

	accessToken, err := s.jwtGenerator.GenerateAccessToken(
		now.Add(s.jwtConfig.AccessTokenTtl),
		user.FullName,
		user.Email,
		user.Role,
		user.Id,
	)
	if err != nil {
		return nil, cerror.NewInternalError(
			"error occurred while generate access token",
			zap.Error(err),
		)
	}

	refreshToken, err := s.jwtGenerator.GenerateRefreshToken(now.Add(s.jwtConfig.RefreshTokenTtl), user.Id)
	if err != nil {
		return nil, cerror.NewInternalError(
			"error occurred while generate refresh token",
			zap.Error(err),
		)
	}

	return &jwt_generator.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// publish never fails the calling operation.
func (s *service) publish(ctx context.Context, accountEvent *event.Event) {
	err := s.publisher.Publish(ctx, accountEvent)
	if err != nil {
		logger.FromContext(ctx).Warnw(
			"failed to publish account event",
			zap.String("eventType", accountEvent.Type),
			zap.String("userId", accountEvent.UserId),
			zap.Error(err),
		)
	}
}

func toValidationError(verr *validation.Error) *cerror.CustomError {
	return cerror.NewValidationError(verr.Message, verr.Violations...)
}
