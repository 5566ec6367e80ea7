package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"gatekeeper/internal/domain/service"
)

const (
	otpDigits        = 6
	resetSecretBytes = 32
)

var otpUpperBound = big.NewInt(1_000_000)

// randomSecretGenerator draws every secret from crypto/rand.
type randomSecretGenerator struct {
	source io.Reader
}

// NewSecretGenerator returns a SecretGenerator backed by crypto/rand.
func NewSecretGenerator() service.SecretGenerator {
	return &randomSecretGenerator{source: rand.Reader}
}

// GenerateOTP returns a uniformly drawn code in 000000..999999.
func (g *randomSecretGenerator) GenerateOTP() (string, error) {
	n, err := rand.Int(g.source, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func (g *randomSecretGenerator) GenerateResetSecret() (string, error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("generate reset secret: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// HashResetSecret is a lookup key, not a password hash, so a fast digest is enough.
func (g *randomSecretGenerator) HashResetSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}
