package models

import (
	"time"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Message is an append-only thread log entry.
type Message struct {
	ID         uint64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ThreadType enums.ThreadType `gorm:"column:thread_type;type:varchar(32);not null;index:ix_messages_thread" json:"thread_type"`
	ThreadID   uint64           `gorm:"column:thread_id;not null;index:ix_messages_thread" json:"thread_id"`
	SenderID   uint64           `gorm:"column:sender_id;not null" json:"sender_id"`
	SenderType enums.SenderType `gorm:"column:sender_type;type:varchar(16);not null" json:"sender_type"`
	Body       string           `gorm:"column:body;not null" json:"body"`
	IsSystem   bool             `gorm:"column:is_system;not null;default:false" json:"is_system"`
	CreatedAt  time.Time        `gorm:"column:created_at;not null;index:ix_messages_thread" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
