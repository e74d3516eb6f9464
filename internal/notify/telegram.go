// Package notify sends access request updates to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/model"
)

const sendTimeout = 5 * time.Second

// TelegramNotifier пишет в один чат о каждой смене статуса заявки
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier создаёт уведомитель; opts пробрасываются в bot.New
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger, opts ...bot.Option) (*TelegramNotifier, error) {
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: chatID, logger: logger}, nil
}

// NotifyAccessRequest отправляет сообщение о заявке
func (n *TelegramNotifier) NotifyAccessRequest(ctx context.Context, req *model.AccessRequest) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   FormatAccessRequest(req),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Debug("Telegram notification sent",
		zap.String("request_id", req.ID.String()),
		zap.String("status", req.Status))
	return nil
}

// FormatAccessRequest builds the message text for a request
func FormatAccessRequest(req *model.AccessRequest) string {
	var sb strings.Builder

	switch req.Status {
	case model.RequestStatusApproved:
		sb.WriteString("✅ Access request approved\n")
	case model.RequestStatusRejected:
		sb.WriteString("❌ Access request rejected\n")
	default:
		sb.WriteString("📨 New access request\n")
	}

	fmt.Fprintf(&sb, "Student: %s\n", req.StudentID)
	fmt.Fprintf(&sb, "Requester: %s\n", req.RequesterGroup)
	fmt.Fprintf(&sb, "Data group: %s\n", req.DataGroup)
	if req.Purpose != "" {
		fmt.Fprintf(&sb, "Purpose: %s\n", req.Purpose)
	}
	if req.ApprovedTxID != "" {
		fmt.Fprintf(&sb, "Tx: %s\n", req.ApprovedTxID)
	}
	if req.RejectReason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", req.RejectReason)
	}
	fmt.Fprintf(&sb, "ID: %s", req.ID)

	return sb.String()
}
