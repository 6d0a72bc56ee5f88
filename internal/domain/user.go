package domain

import "time"

// User roles carried in JWT claims.
const (
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

type User struct {
	UserID         string     `json:"id" dynamodbav:"user_id"`
	Username       string     `json:"username" dynamodbav:"username"`
	Email          string     `json:"email" dynamodbav:"email"`
	Phone          *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash   string     `json:"-" dynamodbav:"password_hash"`
	Role           string     `json:"role" dynamodbav:"role"`
	FirstName      string     `json:"first_name" dynamodbav:"first_name"`
	LastName       string     `json:"last_name" dynamodbav:"last_name"`
	LicenseNumber  *string    `json:"license_number,omitempty" dynamodbav:"license_number"`
	Agency         *string    `json:"agency,omitempty" dynamodbav:"agency"`
	Verified       bool       `json:"verified" dynamodbav:"verified"`
	EmailConfirmed bool       `json:"email_confirmed" dynamodbav:"email_confirmed"`
	AuthProvider   string     `json:"auth_provider,omitempty" dynamodbav:"auth_provider"` // "local" | "google"
	GoogleSub      string     `json:"-"                       dynamodbav:"google_sub"`
	Enable         int        `json:"enable" dynamodbav:"enable"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Username      string  `json:"username" validate:"required"`
	Password      string  `json:"password" validate:"required,min=8,max=72"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         *string `json:"phone"`
	FirstName     string  `json:"first_name" validate:"required"`
	LastName      string  `json:"last_name" validate:"required"`
	LicenseNumber *string `json:"license_number"`
	Agency        *string `json:"agency"`
}

type UpdateUserRequest struct {
	Username      *string `json:"username"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	LicenseNumber *string `json:"license_number"`
	Agency        *string `json:"agency"`
	Role          *string `json:"role" validate:"omitempty,oneof=agent admin"`
	Enable        *int    `json:"enable"` // 1 = enabled, 0 = disabled
}
