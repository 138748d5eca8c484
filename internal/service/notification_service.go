package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	apperrors "gradff/backend/pkg/errors"
	"gradff/backend/pkg/mailer"
)

// NotificationService 向申请人发送处理结果邮件
type NotificationService interface {
	// NotifyDecision 失败时记录日志并返回错误，由调用方决定是否重试
	NotifyDecision(ctx context.Context, requestID string) error
}

type notificationService struct {
	requests RequestRegistry
	sender   mailer.Sender
	subject  string
	siteURL  string
	logger   *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(requests RequestRegistry, sender mailer.Sender, subject, siteURL string, logger *zap.Logger) NotificationService {
	return &notificationService{
		requests: requests,
		sender:   sender,
		subject:  subject,
		siteURL:  siteURL,
		logger:   logger,
	}
}

// decisionEmail 对应 templates/decision.* 中使用的字段
type decisionEmail struct {
	ToName                string
	ToEmail               string
	Status                string
	AccessCode            string
	Message               string
	IrregularitiesSummary string
	SiteURL               string
}

func (s *notificationService) NotifyDecision(ctx context.Context, requestID string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	lines := make([]string, 0, len(req.Irregularities))
	for _, it := range req.Irregularities {
		verdict := "Não autorizada"
		if it.Authorized {
			verdict = "Autorizada"
		}
		lines = append(lines, "- "+it.Name+": "+verdict)
	}

	msg := &mailer.Message{
		To:           mail.Address{Name: req.Name, Address: req.Email},
		Subject:      s.subject,
		TemplateName: "decision",
		TemplateData: decisionEmail{
			ToName:                req.Name,
			ToEmail:               req.Email,
			Status:                req.Status,
			AccessCode:            req.AccessCode,
			Message:               req.Opinion,
			IrregularitiesSummary: strings.Join(lines, "\n"),
			SiteURL:               s.siteURL,
		},
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("发送结果邮件失败",
			zap.String("request_id", requestID),
			zap.String("to", req.Email),
			zap.Error(err),
		)
		if errors.Is(err, mailer.ErrNoRecipient) {
			return err
		}
		return apperrors.Transport("notify.send", err)
	}

	s.logger.Info("结果邮件已发送", zap.String("request_id", requestID), zap.String("status", req.Status))
	return nil
}
