package domain

import "time"

type Role string

const (
	RoleEmployer Role = "employer"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployer, RoleEmployee:
		return true
	default:
		return false
	}
}

type Profile struct {
	ID        string    `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	UserType  Role      `json:"user_type" db:"user_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Session is an authenticated caller. It is passed explicitly into every
// operation; nothing caches the current user at process scope.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	UserType Role   `json:"user_type"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
