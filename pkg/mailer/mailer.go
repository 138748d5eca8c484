// Package mailer 邮件发送：模板渲染 + 发送通道（SendGrid / 控制台）。
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/*
var templatesFS embed.FS

var ErrNoRecipient = errors.New("mailer: 收件人为空")

// Message 一封待发送的邮件
type Message struct {
	To      mail.Address
	Subject string

	// 模板名（不含扩展名），对应 templates/{name}.txt 与 templates/{name}.gohtml
	TemplateName string
	TemplateData interface{}

	TextContent string
	HTMLContent string
}

// Sender 发送通道
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

var (
	parseOnce sync.Once
	textTmpls *texttmpl.Template
	htmlTmpls *htmltmpl.Template
	parseErr  error
)

func parseTemplates() {
	textTmpls, parseErr = texttmpl.New("").Option("missingkey=error").ParseFS(templatesFS, "templates/*.txt")
	if parseErr != nil {
		return
	}
	htmlTmpls, parseErr = htmltmpl.New("").Option("missingkey=error").ParseFS(templatesFS, "templates/*.gohtml")
}

// Render 按模板填充 TextContent / HTMLContent；未设置模板时保持原内容
func (m *Message) Render() error {
	if m.TemplateName == "" {
		return nil
	}
	parseOnce.Do(parseTemplates)
	if parseErr != nil {
		return fmt.Errorf("解析邮件模板失败: %w", parseErr)
	}

	var text bytes.Buffer
	if err := textTmpls.ExecuteTemplate(&text, m.TemplateName+".txt", m.TemplateData); err != nil {
		return fmt.Errorf("渲染文本模板 %s 失败: %w", m.TemplateName, err)
	}
	m.TextContent = text.String()

	if htmlTmpls.Lookup(m.TemplateName+".gohtml") != nil {
		var html bytes.Buffer
		if err := htmlTmpls.ExecuteTemplate(&html, m.TemplateName+".gohtml", m.TemplateData); err != nil {
			return fmt.Errorf("渲染 HTML 模板 %s 失败: %w", m.TemplateName, err)
		}
		m.HTMLContent = html.String()
	}
	return nil
}

func (m *Message) validate() error {
	if m.To.Address == "" {
		return ErrNoRecipient
	}
	return nil
}
