package user

import (
	"math"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = math.MaxInt32
)

// Document is the stored user record. Password holds the bcrypt hash and
// RefreshToken the single refresh token currently allowed to rotate.
type Document struct {
	Id           string     `bson:"_id"`
	FullName     string     `bson:"fullName"`
	Email        string     `bson:"email"`
	Password     string     `bson:"password"`
	Role         string     `bson:"role"`
	IsActive     bool       `bson:"isActive"`
	LastLogin    *time.Time `bson:"lastLogin"`
	RefreshToken string     `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

// User is the sanitized view of a Document returned to clients.
type User struct {
	Id        string     `json:"_id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (d *Document) ToUser() *User {
	return &User{
		Id:        d.Id,
		FullName:  d.FullName,
		Email:     d.Email,
		Role:      d.Role,
		IsActive:  d.IsActive,
		LastLogin: d.LastLogin,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type RegisterPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateProfilePayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ListUsersQuery filters the admin user list. Empty strings disable a filter.
type ListUsersQuery struct {
	Page     int
	Limit    int
	Search   string
	IsActive string
	Role     string
}

// Normalize replaces unusable paging values with the defaults and caps the
// rest, so Skip and the page count stay well inside int64.
func (q *ListUsersQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}

	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

func (q *ListUsersQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

type AuthResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
	TotalUsers  int64 `json:"totalUsers"`
	Limit       int   `json:"limit"`
}

type UserList struct {
	Users      []*User    `json:"users"`
	Pagination Pagination `json:"pagination"`
}
