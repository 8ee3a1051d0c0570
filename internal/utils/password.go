package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a CRM account password with bcrypt at the configured
// cost (BCRYPT_COST).  Costs below bcrypt's minimum are rejected by the
// library itself, so no clamping happens here.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.  The
// comparison is constant-time inside bcrypt; the error carries no detail a
// login response should expose, so it collapses to a bool.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
