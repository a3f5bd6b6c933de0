package models

import (
	"time"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Party is the identity provider's user record, read-only for this service.
type Party struct {
	ID        uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Role      enums.Role `gorm:"column:role;type:varchar(16);not null;index" json:"role"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Email     string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Party) TableName() string { return "users" }
