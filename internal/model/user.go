package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountTypeAdmin marks accounts allowed to manage other users' sessions.
const AccountTypeAdmin = "admin"

// UserStore defines lookups over user accounts.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// User represents a stored user with its password hash.
type User struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	AccountType  string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary strips authentication material from the user.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		AccountType: u.AccountType,
	}
}

// UserSummary is the verified identity handed to the session manager.
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	AccountType string    `json:"accountType"`
}
