package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Click is an append-only attribution event.
type Click struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID   uint64    `gorm:"column:product_id;not null" json:"product_id"`
	AffiliateID uint64    `gorm:"column:affiliate_id;not null;index" json:"affiliate_id"`
	SourceIP    string    `gorm:"column:source_ip" json:"source_ip"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (Click) TableName() string { return "clicks" }

// Sale carries the commission priced at insert time.
type Sale struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID   uint64          `gorm:"column:product_id;not null" json:"product_id"`
	AffiliateID uint64          `gorm:"column:affiliate_id;not null;index:ix_sales_affiliate_created" json:"affiliate_id"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	Commission  decimal.Decimal `gorm:"column:commission;type:numeric(14,2);not null" json:"commission"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null;index:ix_sales_affiliate_created" json:"created_at"`
}

func (Sale) TableName() string { return "sales" }

// CommissionRollup is the running commission total per affiliate.
type CommissionRollup struct {
	AffiliateID uint64          `gorm:"column:affiliate_id;primaryKey;autoIncrement:false" json:"affiliate_id"`
	TotalEarned decimal.Decimal `gorm:"column:total_earned;type:numeric(14,2);not null" json:"total_earned"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (CommissionRollup) TableName() string { return "commission_rollups" }
