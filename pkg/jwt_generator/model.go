package jwt_generator

import "github.com/golang-jwt/jwt/v4"

const IssuerDefault = "account-api"

// Claims is carried by access tokens. The user id is the subject.
type Claims struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
