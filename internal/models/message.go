package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message описывает запись в журнале сделки: реплику участника либо
// системное событие. Журнал append-only, записи не редактируются и не
// удаляются; порядок строго (created_at, id).
type Message struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	DealID    uuid.UUID  `db:"deal_id" json:"deal_id"`
	AuthorID  *uuid.UUID `db:"author_id" json:"author_id,omitempty"`
	IsSystem  bool       `db:"is_system" json:"is_system"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Notification описывает событие, отправленное пользователю.
// Клиенты опрашивают ленту раз в ~10 секунд либо держат websocket.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
