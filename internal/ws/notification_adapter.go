package ws

import (
	"context"

	"github.com/google/uuid"
)

// NotificationServiceAdapter прячет NotificationService за интерфейсом
// NotificationSaver: хаб пишет уведомление в ленту, не зная о сервисе.
type NotificationServiceAdapter struct {
	service interface {
		CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
	}
}

// NewNotificationServiceAdapter создаёт адаптер над сервисом уведомлений.
func NewNotificationServiceAdapter(service interface {
	CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{service: service}
}

// CreateNotification реализует NotificationSaver: событие уходит в ленту,
// даже если сокет получателя уже закрыт.
func (a *NotificationServiceAdapter) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	return a.service.CreateNotificationForWS(ctx, userID, event, data)
}
