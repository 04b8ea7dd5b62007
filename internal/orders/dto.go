package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookmarket-backend/internal/books"
	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/types"
)

// CheckoutInput carries a validated checkout request. Items preserve the
// client's submission order.
type CheckoutInput struct {
	BuyerID       uuid.UUID
	Items         []uuid.UUID
	Shipping      types.Shipping
	PaymentMethod string
}

// CheckoutResult is the 201 response payload: the created order plus the
// updated book rows.
type CheckoutResult struct {
	Message string          `json:"message"`
	Books   []books.BookDTO `json:"books"`
	Order   OrderDTO        `json:"order"`
}

// OrderItemDTO is one order line with its book summary.
type OrderItemDTO struct {
	ID       uuid.UUID       `json:"id"`
	BookID   uuid.UUID       `json:"book_id"`
	Position int             `json:"position"`
	Price    decimal.Decimal `json:"price"`
	Book     *books.BookDTO  `json:"book,omitempty"`
}

// OrderDTO is the transport shape for a completed order.
type OrderDTO struct {
	ID             uuid.UUID       `json:"id"`
	BuyerID        uuid.UUID       `json:"buyer_id"`
	BuyerUsername  string          `json:"buyer_username,omitempty"`
	SellerID       uuid.UUID       `json:"seller_id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Shipping       types.Shipping  `json:"shipping"`
	PaymentMethod  string          `json:"payment_method"`
	Items          []OrderItemDTO  `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FromModel converts a persisted order into its transport shape.
func FromModel(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		TotalPrice:    o.TotalPrice,
		PaymentMethod: o.PaymentMethod,
		Shipping: types.Shipping{
			FullName:   o.ShipFullName,
			Address:    o.ShipAddress,
			Phone:      o.ShipPhone,
			City:       o.ShipCity,
			PostalCode: o.ShipPostalCode,
		},
		Items:     make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt: o.CreatedAt,
	}
	if o.Buyer != nil {
		dto.BuyerUsername = o.Buyer.Username
	}
	for i := range o.Items {
		item := &o.Items[i]
		line := OrderItemDTO{
			ID:       item.ID,
			BookID:   item.BookID,
			Position: item.Position,
			Price:    item.Price,
		}
		if item.Book != nil {
			b := books.FromModel(item.Book)
			line.Book = &b
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

// FromModels maps a slice of orders into DTOs.
func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
