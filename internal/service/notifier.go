package service

import (
	"context"

	"github.com/Freeeeeet/studentia/internal/model"
)

// Notifier сообщает о смене статуса заявки
type Notifier interface {
	NotifyAccessRequest(ctx context.Context, req *model.AccessRequest) error
}

// NopNotifier ничего не отправляет
type NopNotifier struct{}

func (NopNotifier) NotifyAccessRequest(context.Context, *model.AccessRequest) error { return nil }
