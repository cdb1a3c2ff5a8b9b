// Package repository persists user accounts.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// User is an account backed by an external identity provider.
type User struct {
	ID          uuid.UUID
	Email       string
	Name        string
	ProfilePic  string
	IsActive    bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

type UserRepository interface {
	// UpsertByEmail returns the user with email, creating it on first login.
	// created reports whether a new row was inserted.
	UpsertByEmail(ctx context.Context, email, name, profilePic string) (user *User, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// DeleteCascade removes the user together with every subscription and
	// statement upload they own.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}
