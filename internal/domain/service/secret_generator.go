package service

// SecretGenerator produces the one-time secrets handed to users.
type SecretGenerator interface {
	// GenerateOTP returns a 6-digit numeric code, leading zeros included.
	GenerateOTP() (string, error)

	// GenerateResetSecret returns a 256-bit random value as a hex string.
	GenerateResetSecret() (string, error)

	// HashResetSecret returns the digest stored in place of the raw reset secret.
	HashResetSecret(raw string) string
}
