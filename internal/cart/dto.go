package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
)

// CartItemDTO is the transport shape for a single cart line.
type CartItemDTO struct {
	ID         uuid.UUID           `json:"id"`
	BookID     uuid.UUID           `json:"book_id"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  decimal.Decimal     `json:"unit_price"`
	Title      string              `json:"title"`
	Author     string              `json:"author"`
	CoverImage *string             `json:"cover_image,omitempty"`
	Condition  enums.BookCondition `json:"condition"`
	CreatedAt  time.Time           `json:"created_at"`
}

// CartDTO carries the whole cart with a computed subtotal.
type CartDTO struct {
	ID       uuid.UUID       `json:"id"`
	UserID   uuid.UUID       `json:"user_id"`
	Items    []CartItemDTO   `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AddItemInput captures the add-to-cart request after validation.
type AddItemInput struct {
	UserID   uuid.UUID
	BookID   uuid.UUID
	Quantity int
}

// FromCartModel converts a persisted cart into its transport shape.
func FromCartModel(c *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:       c.ID,
		UserID:   c.UserID,
		Items:    make([]CartItemDTO, 0, len(c.Items)),
		Subtotal: decimal.Zero,
	}
	for i := range c.Items {
		item := &c.Items[i]
		dto.Items = append(dto.Items, CartItemDTO{
			ID:         item.ID,
			BookID:     item.BookID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Title:      item.Title,
			Author:     item.Author,
			CoverImage: item.CoverImage,
			Condition:  item.Condition,
			CreatedAt:  item.CreatedAt,
		})
		dto.Subtotal = dto.Subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return dto
}
