package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"leavestride/internal/platform/config"
)

func TestNewFallsBackToNoop(t *testing.T) {
	cfg := config.Defaults()
	mailer := New(cfg)
	_, ok := mailer.(noopMailer)
	assert.True(t, ok)
	assert.NoError(t, mailer.Send(context.Background(), Message{To: "a@example.com"}))
}

func TestBuildMessagePlainAndAlternative(t *testing.T) {
	plain := string(buildMessage(Message{From: "f@x", To: "t@x", Subject: "Hi", Text: "body"}))
	assert.True(t, strings.HasPrefix(plain, "From: f@x\r\nTo: t@x\r\nSubject: Hi\r\n"))
	assert.Contains(t, plain, "text/plain")
	assert.True(t, strings.HasSuffix(plain, "\r\nbody"))

	alt := string(buildMessage(Message{From: "f@x", To: "t@x", Subject: "Hi", Text: "body", HTML: "<p>body</p>"}))
	assert.Contains(t, alt, "multipart/alternative")
	assert.Contains(t, alt, "<p>body</p>")
	assert.True(t, strings.HasSuffix(alt, "--"+boundary+"--\r\n"))
}
