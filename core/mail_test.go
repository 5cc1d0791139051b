package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := NewConfig()
	conf.TestMode = true
	conf.AppName = "Jifunze"
	conf.FrontendBaseURL = "https://jifunze.test"

	t.Run("template", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "nia@test.cd"}},
			TemplateName: "password_reset",
			TemplateData: map[string]interface{}{"Name": "Nia", "UID": "MQ", "Token": "abc-def"},
		}
		require.NoError(t, msg.Render(conf))
		assert.True(t, msg.HasRecipients())
		assert.True(t, msg.HasContent())
		assert.Contains(t, msg.TextContent, "Hi Nia,")
		assert.Contains(t, msg.TextContent, "https://jifunze.test/password-reset/MQ/abc-def")
		assert.Contains(t, msg.TextContent, "The Jifunze Team")
		assert.NotEmpty(t, msg.HTMLContent)
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hello"}
		require.NoError(t, msg.Render(conf))
		assert.Equal(t, "hello", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
		assert.False(t, msg.HasRecipients())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "lol"}
		assert.Error(t, msg.Render(conf))
	})
}

func Test_parseTemplates(t *testing.T) {
	require.NoError(t, parseTemplates(true))
	for _, name := range []string{"welcome", "account_status", "password_reset"} {
		entry, ok := templates[name]
		require.True(t, ok, name)
		assert.NotNil(t, entry.text, name)
		assert.NotNil(t, entry.html, name)
	}
	assert.NotContains(t, templates, "_base")
}
