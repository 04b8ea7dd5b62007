package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem ties a sold book to its order. Position preserves the order
// the buyer submitted the books in; Price is the amount at checkout time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	BookID    uuid.UUID       `gorm:"column:book_id;type:uuid;not null"`
	Position  int             `gorm:"column:position;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Book      *Book           `gorm:"foreignKey:BookID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
