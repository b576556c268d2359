package jwt_generator

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"account-api/pkg/config"
)

var (
	ErrEmptySecret      = errors.New("jwt secret is empty")
	ErrSameSecret       = errors.New("access and refresh token secrets must differ")
	ErrInvalidSignature = errors.New("jwt token is not valid signature")
	ErrAmbiguousIssuer  = errors.New("ambiguous jwt token issuer")
	ErrExpiredToken     = errors.New("expired jwt token")
	ErrTokenNotStarted  = errors.New("jwt token is not started")
	ErrMissingSubject   = errors.New("jwt token has no subject")
)

type JwtGenerator interface {
	GenerateAccessToken(expirationTime time.Time, fullName, email, role, userId string) (string, error)
	GenerateRefreshToken(expirationTime time.Time, userId string) (string, error)
	VerifyAccessToken(rawJwtToken string) (*Claims, error)
	VerifyRefreshToken(rawJwtToken string) (*jwt.RegisteredClaims, error)
}

type jwtGenerator struct {
	accessTokenSecret  []byte
	refreshTokenSecret []byte
}

func NewJwtGenerator(jwtConfig config.JwtConfig) (JwtGenerator, error) {
	if len(jwtConfig.AccessTokenSecret) == 0 || len(jwtConfig.RefreshTokenSecret) == 0 {
		return nil, ErrEmptySecret
	}

	if string(jwtConfig.AccessTokenSecret) == string(jwtConfig.RefreshTokenSecret) {
		return nil, ErrSameSecret
	}

	return &jwtGenerator{
		accessTokenSecret:  jwtConfig.AccessTokenSecret,
		refreshTokenSecret: jwtConfig.RefreshTokenSecret,
	}, nil
}

func (jwtGenerator *jwtGenerator) GenerateAccessToken(
	expirationTime time.Time,
	fullName, email, role, userId string,
) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		FullName: fullName,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userId,
			Issuer:    IssuerDefault,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(jwtGenerator.accessTokenSecret)
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

func (jwtGenerator *jwtGenerator) GenerateRefreshToken(expirationTime time.Time, userId string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    IssuerDefault,
		Subject:   userId,
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(jwtGenerator.refreshTokenSecret)
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

func (jwtGenerator *jwtGenerator) VerifyAccessToken(rawJwtToken string) (*Claims, error) {
	var claims Claims

	err := parse(rawJwtToken, &claims, jwtGenerator.accessTokenSecret)
	if err != nil {
		return nil, err
	}

	err = verifyRegisteredClaims(&claims.RegisteredClaims)
	if err != nil {
		return nil, err
	}

	return &claims, nil
}

func (jwtGenerator *jwtGenerator) VerifyRefreshToken(rawJwtToken string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims

	err := parse(rawJwtToken, &claims, jwtGenerator.refreshTokenSecret)
	if err != nil {
		return nil, err
	}

	err = verifyRegisteredClaims(&claims)
	if err != nil {
		return nil, err
	}

	return &claims, nil
}

func parse(rawJwtToken string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(rawJwtToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}

		return secret, nil
	}, jwt.WithoutClaimsValidation())

	return err
}

func verifyRegisteredClaims(claims *jwt.RegisteredClaims) error {
	isValidIssuer := claims.VerifyIssuer(IssuerDefault, true)
	if !isValidIssuer {
		return ErrAmbiguousIssuer
	}

	now := time.Now().UTC()
	isJwtTokenNotExpired := claims.VerifyExpiresAt(now, true)
	if !isJwtTokenNotExpired {
		return ErrExpiredToken
	}

	isTokenStarted := claims.VerifyNotBefore(now, false)
	if !isTokenStarted {
		return ErrTokenNotStarted
	}

	if claims.Subject == "" {
		return ErrMissingSubject
	}

	return nil
}
