// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoCredential is returned when an account would end up with neither a
// password nor a federated identity.
var ErrNoCredential = errors.New("account has no password and no federated identity")

// AccountState is the lifecycle state derived from an Account.
type AccountState string

const (
	StatePendingVerification AccountState = "pending_verification"
	StateVerified            AccountState = "verified"
)

// Account is the central entity: one person, one email, and the secrets
// currently in flight for them.
type Account struct {
	ID           uuid.UUID     // Stable unique identifier.
	Name         string        // Display name.
	Email        string        // Unique, stored normalized (see NormalizeEmail).
	ProviderID   string        // Federated identity id (Google 'sub'). Empty when not linked.
	PasswordHash string        // bcrypt hash. Empty for federation-only accounts.
	Verified     bool          // Set through OTP verification or federation; never unset.
	PendingOTP   *PendingOTP   // The single active verification code, if any.
	PendingReset *PendingReset // The single active password reset secret, if any.
	CreatedAt    time.Time     // Timestamp of when the account was created.
	UpdatedAt    time.Time     // Timestamp of the last modification.
}

// PendingOTP holds the plain verification code. It is low entropy and short lived.
type PendingOTP struct {
	Code      string
	ExpiresAt time.Time
}

// PendingReset holds the digest of a reset secret; the raw secret is never stored.
type PendingReset struct {
	TokenHash string
	ExpiresAt time.Time
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// State reports the lifecycle state of the account.
func (a *Account) State() AccountState {
	if a.Verified {
		return StateVerified
	}

	return StatePendingVerification
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

func (a *Account) HasFederatedIdentity() bool {
	return a.ProviderID != ""
}

// Validate checks the invariants that must hold before the account is persisted.
func (a *Account) Validate() error {
	if !a.HasPassword() && !a.HasFederatedIdentity() {
		return ErrNoCredential
	}
	if NormalizeEmail(a.Email) == "" {
		return errors.New("account email is empty")
	}

	return nil
}

// IssueOTP replaces any previous code unconditionally.
func (a *Account) IssueOTP(code string, expiresAt time.Time) {
	a.PendingOTP = &PendingOTP{Code: code, ExpiresAt: expiresAt}
}

// OTPMatches reports whether code is the active, unexpired verification code.
func (a *Account) OTPMatches(code string, now time.Time) bool {
	if a.PendingOTP == nil || code == "" {
		return false
	}
	if !now.Before(a.PendingOTP.ExpiresAt) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(a.PendingOTP.Code), []byte(code)) == 1
}

func (a *Account) ClearOTP() {
	a.PendingOTP = nil
}

// IssueReset replaces any previous reset secret unconditionally.
func (a *Account) IssueReset(tokenHash string, expiresAt time.Time) {
	a.PendingReset = &PendingReset{TokenHash: tokenHash, ExpiresAt: expiresAt}
}

// ResetMatches reports whether tokenHash is the active, unexpired reset digest.
func (a *Account) ResetMatches(tokenHash string, now time.Time) bool {
	if a.PendingReset == nil || tokenHash == "" {
		return false
	}
	if !now.Before(a.PendingReset.ExpiresAt) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(a.PendingReset.TokenHash), []byte(tokenHash)) == 1
}

func (a *Account) ClearReset() {
	a.PendingReset = nil
}

// MarkVerified moves the account to the verified state. It is idempotent.
func (a *Account) MarkVerified() {
	a.Verified = true
}

// LinkProvider attaches a federated identity. Federation proves email
// ownership, so the account becomes verified and any pending code is dropped.
func (a *Account) LinkProvider(providerID string) {
	a.ProviderID = providerID
	a.MarkVerified()
	a.ClearOTP()
}

// Clone returns a deep copy, so stores never share pending slots with callers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.PendingOTP != nil {
		otp := *a.PendingOTP
		cp.PendingOTP = &otp
	}
	if a.PendingReset != nil {
		reset := *a.PendingReset
		cp.PendingReset = &reset
	}

	return &cp
}
