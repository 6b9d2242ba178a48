package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Welcome(t *testing.T) {
	subject, text, html, err := Render(Welcome, NewWelcomeData("vplayer", "Alice", "alice", "alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "Welcome to vplayer", subject)
	assert.Contains(t, text, "Hi Alice,")
	assert.Contains(t, html, "<strong>alice</strong>")
}

func TestRender_PasswordChanged(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	_, text, _, err := Render(PasswordChanged, NewPasswordChangedData("vplayer", "", "alice", "alice@example.com", at))
	require.NoError(t, err)
	assert.Contains(t, text, "Hi alice,")
	assert.Contains(t, text, "01 March 2024, 10:30 UTC")
}

func TestRender_EscapesHTML(t *testing.T) {
	_, _, html, err := Render(Welcome, NewWelcomeData("vplayer", "<script>", "alice", "a@x.com"))
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}
