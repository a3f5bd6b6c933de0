package models

import (
	"time"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
	"github.com/Dj0083/final-project-sub000/pkg/types"
)

// Affiliate is the attribution profile behind a tracking code.
type Affiliate struct {
	ID           uint64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID       uint64                `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	TrackingCode string                `gorm:"column:tracking_code;type:varchar(32);not null;uniqueIndex" json:"tracking_code"`
	DisplayName  string                `gorm:"column:display_name;not null" json:"display_name"`
	SocialLinks  types.SocialLinks     `gorm:"column:social_links;type:text;not null" json:"social_links"`
	Status       enums.AffiliateStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'" json:"status"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Affiliate) TableName() string { return "affiliates" }
