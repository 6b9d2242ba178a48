package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_Matches(t *testing.T) {
	tok := RefreshToken("abc.def.ghi")

	assert.True(t, tok.Matches("abc.def.ghi"))
	assert.False(t, tok.Matches("abc.def.ghj"))
	assert.False(t, tok.Matches(""))
	assert.False(t, RefreshToken("").Matches(""))
	assert.True(t, RefreshToken("").IsZero())
}

func TestUser_Sanitized(t *testing.T) {
	u := &User{ID: "1", Username: "alice", Password: "hash", RefreshToken: "tok"}
	s := u.Sanitized()

	assert.Empty(t, s.Password)
	assert.True(t, s.RefreshToken.IsZero())
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "hash", u.Password, "original must be untouched")
	assert.Nil(t, (*User)(nil).Sanitized())
}
