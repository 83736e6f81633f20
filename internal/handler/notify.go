package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

// mailPublisher 由 *amqp.Channel 实现
type mailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// notifyRoster 把兽医名册的变化投递到邮件队列。
// 通知只是附带功能，失败时记录日志而不影响已经成功的写入。
func (h *Handler) notifyRoster(mailType string, vet *domain.Vet) {
	if h.mailChannel == nil || h.config.Email.NotifyTo == "" {
		return
	}

	mailMessage := domain.MailMessage{
		Type: mailType,
		To:   h.config.Email.NotifyTo,
		Data: domain.NewVetMailData(vet),
	}

	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		slog.Error("无法序列化邮件消息", "type", mailType, "vetID", vet.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mailChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		slog.Error("无法发布邮件消息", "type", mailType, "vetID", vet.ID, "error", err)
	}
}
