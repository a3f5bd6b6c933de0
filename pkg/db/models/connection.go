package models

import (
	"time"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Connection is the seller to investor handshake.
type Connection struct {
	ID          uint64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SellerID    uint64                `gorm:"column:seller_id;not null;uniqueIndex:ux_connections_pair" json:"seller_id"`
	InvestorID  uint64                `gorm:"column:investor_id;not null;uniqueIndex:ux_connections_pair;index" json:"investor_id"`
	Status      enums.HandshakeStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'" json:"status"`
	Notes       *string               `gorm:"column:notes" json:"notes,omitempty"`
	RequestedAt time.Time             `gorm:"column:requested_at;not null" json:"requested_at"`
	RespondedAt *time.Time            `gorm:"column:responded_at" json:"responded_at,omitempty"`
}

func (Connection) TableName() string { return "connections" }

func (c Connection) ThreadID() uint64 { return c.ID }
func (c Connection) ThreadStatus() enums.HandshakeStatus { return c.Status }
func (c Connection) Initiator() uint64 { return c.SellerID }
func (c Connection) Responder() uint64 { return c.InvestorID }
