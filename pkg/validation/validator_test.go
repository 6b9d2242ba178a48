package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `form:"username" validate:"omitempty,handle"`
	Password string `json:"password" validate:"required,pwd"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

func TestToDetails_UsesTagNames(t *testing.T) {
	err := newValidator().Struct(sample{Email: "nope", Username: strings.Repeat("a", 33), Password: strings.Repeat("x", 73)})
	d := ToDetails(err)

	assert.Equal(t, "must be a valid email", d["email"])
	assert.Equal(t, "must be at most 32 characters long", d["username"])
	assert.Equal(t, "must be at most 72 bytes", d["password"])
}

func TestToDetails_Required(t *testing.T) {
	d := ToDetails(newValidator().Struct(sample{}))
	assert.Equal(t, map[string]string{"password": "is required"}, d)
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte("{bad"), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}

func TestHandle_AllowsPunctuation(t *testing.T) {
	v := newValidator()
	for _, name := range []string{"alice_a", "john.doe", "jane-d", strings.Repeat("a", 32)} {
		assert.NoError(t, v.Struct(sample{Username: name, Password: "pw"}), name)
	}
}
