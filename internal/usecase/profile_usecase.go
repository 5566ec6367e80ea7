package usecase

import (
	"context"

	"github.com/google/uuid"
)

// Profile is the public view of an account.
type Profile struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// ProfileUsecase defines the interface for profile-related business operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, accountID uuid.UUID) (*Profile, error)
}
