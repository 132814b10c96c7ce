package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-conductor/internal/domain"
)

func TestRenderInvitation(t *testing.T) {
	body, err := RenderInvitation(domain.Invitation{
		To:    "a@x.io",
		Topic: "Rivers & <Lakes>",
		Link:  "https://quiz.example.com?quiz_id=abc123",
	})
	require.NoError(t, err)

	assert.Contains(t, body, `href="https://quiz.example.com?quiz_id=abc123"`)
	assert.Contains(t, body, "Rivers &amp; &lt;Lakes&gt;")
	assert.NotContains(t, body, "<Lakes>")
}

func TestNewSenderRequiresCredentials(t *testing.T) {
	_, err := NewSender(Config{Host: "smtp.example.com"})
	assert.Error(t, err)

	s, err := NewSender(Config{Host: "smtp.example.com", Username: "me@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 465, s.cfg.Port)
	assert.Equal(t, "me@example.com", s.cfg.From)
}
