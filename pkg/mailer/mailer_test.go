package mailer

import (
	"context"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type decisionData struct {
	ToName                string
	Status                string
	AccessCode            string
	Message               string
	IrregularitiesSummary string
	SiteURL               string
}

func decisionMessage() *Message {
	return &Message{
		To:           mail.Address{Name: "Ana", Address: "ana@example.com"},
		Subject:      "Resultado",
		TemplateName: "decision",
		TemplateData: decisionData{
			ToName:                "Ana",
			Status:                "Deferido",
			AccessCode:            "AB12CD/2024.1",
			Message:               "Tudo certo",
			IrregularitiesSummary: "- Falta: Autorizada",
			SiteURL:               "https://example.com/",
		},
	}
}

func TestRender_Decision(t *testing.T) {
	msg := decisionMessage()
	require.NoError(t, msg.Render())

	assert.Contains(t, msg.TextContent, "Olá, Ana.")
	assert.Contains(t, msg.TextContent, "AB12CD/2024.1")
	assert.Contains(t, msg.TextContent, "- Falta: Autorizada")
	assert.Contains(t, msg.HTMLContent, `<a href="https://example.com/">`)
}

func TestRender_UnknownTemplate(t *testing.T) {
	msg := decisionMessage()
	msg.TemplateName = "nope"
	assert.Error(t, msg.Render())
}

func TestRender_NoTemplateKeepsContent(t *testing.T) {
	msg := &Message{TextContent: "texto"}
	require.NoError(t, msg.Render())
	assert.Equal(t, "texto", msg.TextContent)
}

func TestConsoleSender_Send(t *testing.T) {
	s := NewConsoleSender(zap.NewNop())
	require.NoError(t, s.Send(context.Background(), decisionMessage()))

	sent := s.Sent()
	require.Len(t, sent, 1)
	assert.True(t, strings.Contains(sent[0].TextContent, "Deferido"))
}

func TestConsoleSender_NoRecipient(t *testing.T) {
	s := NewConsoleSender(zap.NewNop())
	err := s.Send(context.Background(), &Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, s.Sent())
}

func TestSendgridSender_Prepare(t *testing.T) {
	s := NewSendgridSender("key", "Graduação", "no-reply@example.com")
	msg := decisionMessage()
	require.NoError(t, msg.Render())

	m := s.prepare(msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "Resultado", m.Personalizations[0].Subject)
	assert.Equal(t, "ana@example.com", m.Personalizations[0].To[0].Address)
	assert.Len(t, m.Content, 2)
	assert.Equal(t, "no-reply@example.com", m.From.Address)
}
