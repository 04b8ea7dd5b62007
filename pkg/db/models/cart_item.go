package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookmarket-backend/pkg/enums"
)

// CartItem persists book-level snapshots tied to a Cart. Price, title and
// author are copied at add time so the cart view survives listing edits.
type CartItem struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;index"`
	BookID     uuid.UUID           `gorm:"column:book_id;type:uuid;not null"`
	Quantity   int                 `gorm:"column:quantity;not null;default:1"`
	UnitPrice  decimal.Decimal     `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Title      string              `gorm:"column:title;not null"`
	Author     string              `gorm:"column:author;not null"`
	CoverImage *string             `gorm:"column:cover_image"`
	Condition  enums.BookCondition `gorm:"column:condition;type:text;not null"`
	Book       *Book               `gorm:"foreignKey:BookID"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
