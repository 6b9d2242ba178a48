package entity

import "crypto/subtle"

// RefreshToken is the single outstanding refresh token of a user.
// The zero value means the user has no active session.
type RefreshToken string

func (t RefreshToken) IsZero() bool { return t == "" }

// Matches reports whether presented is exactly the stored token. A cleared
// token matches nothing.
func (t RefreshToken) Matches(presented string) bool {
	if t.IsZero() || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t), []byte(presented)) == 1
}

func (t RefreshToken) String() string { return string(t) }
