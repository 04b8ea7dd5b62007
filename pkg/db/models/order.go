package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order records a completed checkout. SellerID is the seller of the first
// line item; multi-seller carts still produce a single order row.
type Order struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID        uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID       uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:numeric(10,2);not null"`
	ShipFullName   string          `gorm:"column:ship_full_name;not null"`
	ShipAddress    string          `gorm:"column:ship_address;not null"`
	ShipPhone      string          `gorm:"column:ship_phone;not null"`
	ShipCity       *string         `gorm:"column:ship_city"`
	ShipPostalCode *string         `gorm:"column:ship_postal_code"`
	PaymentMethod  string          `gorm:"column:payment_method;not null"`
	Buyer          *User           `gorm:"foreignKey:BuyerID"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
