// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// VerifyOTPInput carries the code mailed during registration.
type VerifyOTPInput struct {
	Email string
	OTP   string
}

// LoginInput defines the data required for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// FederatedLoginInput is the identity asserted by a verified external provider.
type FederatedLoginInput struct {
	ProviderID string
	Email      string
	Name       string
}

type PasswordResetRequestInput struct {
	Email string
}

// PasswordResetInput carries the raw secret from the reset link and the new password.
type PasswordResetInput struct {
	Token    string
	Password string
}

// --- Output DTOs ---

// MessageOutput is a user-facing confirmation.
type MessageOutput struct {
	Message string
}

// RegisterOutput is returned after the verification code has been issued.
type RegisterOutput = MessageOutput

// TokenOutput returns a freshly issued session token.
type TokenOutput struct {
	Message   string
	Token     string
	ExpiresAt time.Time
}

// AccountUsecase drives the account lifecycle: registration, verification,
// login, federation and password recovery.
type AccountUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	VerifyOTP(ctx context.Context, input *VerifyOTPInput) (*TokenOutput, error)
	Login(ctx context.Context, input *LoginInput) (*TokenOutput, error)
	FederatedLogin(ctx context.Context, input *FederatedLoginInput) (*TokenOutput, error)
	RequestPasswordReset(ctx context.Context, input *PasswordResetRequestInput) (*MessageOutput, error)
	CompletePasswordReset(ctx context.Context, input *PasswordResetInput) (*MessageOutput, error)
}
