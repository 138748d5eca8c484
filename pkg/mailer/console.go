package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ConsoleSender 开发环境通道：渲染后写入日志，不真正发送
type ConsoleSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*ConsoleSender)(nil)

// NewConsoleSender 创建控制台通道
func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := msg.Render(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info("邮件（控制台输出）",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextContent),
	)

	s.mu.Lock()
	s.sent = append(s.sent, *msg)
	s.mu.Unlock()
	return nil
}

// Sent 已"发送"的邮件副本
func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
