package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookmarket-backend/pkg/enums"
)

// Book represents a seller's listing. Each row is a single physical copy:
// once Sold flips to true the copy is off the market until its order is
// canceled.
type Book struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID      uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Title         string              `gorm:"column:title;not null"`
	Author        string              `gorm:"column:author;not null"`
	Description   string              `gorm:"column:description;not null"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	CoverImage    *string             `gorm:"column:cover_image"`
	Category      string              `gorm:"column:category;not null;index"`
	ISBN          *string             `gorm:"column:isbn"`
	PublishedYear *int                `gorm:"column:published_year"`
	Pages         *int                `gorm:"column:pages"`
	Condition     enums.BookCondition `gorm:"column:condition;type:text;not null;default:'good'"`
	Featured      bool                `gorm:"column:featured;not null;default:false"`
	Sold          bool                `gorm:"column:sold;not null;default:false"`
	Seller        *User               `gorm:"foreignKey:SellerID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
