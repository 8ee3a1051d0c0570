package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted here because these structs are used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.  The role drives the row-visibility policy applied
// by the lead repository.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  FullName      – display name shown in the UI.
//  Role          – one of superadmin, admin, hc.
//  ContactNumber – phone number of the user.
//  AvatarURL     – optional avatar image location.
//  IsActive      – whether the account is active.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    // users.id
	Email         string    // users.email
	PasswordHash  string    // users.password_hash
	FullName      string    // users.full_name
	Role          string    // users.role
	ContactNumber string    // users.contact_number
	AvatarURL     string    // users.avatar_url
	IsActive      bool      // users.is_active
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// Roles recognised by the policy layer.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleHC         = "hc"
)

// ValidRole reports whether s names one of the three application roles.
func ValidRole(s string) bool {
	return s == RoleSuperadmin || s == RoleAdmin || s == RoleHC
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user; the plain token is never stored, only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
