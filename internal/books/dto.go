package books

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
	"github.com/pageturn/bookmarket-backend/pkg/pagination"
)

// BookDTO is the transport shape for a single listing.
type BookDTO struct {
	ID             uuid.UUID           `json:"id"`
	SellerID       uuid.UUID           `json:"seller_id"`
	SellerUsername string              `json:"seller_username,omitempty"`
	Title          string              `json:"title"`
	Author         string              `json:"author"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	CoverImage     *string             `json:"cover_image,omitempty"`
	Category       string              `json:"category"`
	ISBN           *string             `json:"isbn,omitempty"`
	PublishedYear  *int                `json:"published_year,omitempty"`
	Pages          *int                `json:"pages,omitempty"`
	Condition      enums.BookCondition `json:"condition"`
	Featured       bool                `json:"featured"`
	Sold           bool                `json:"sold"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// BookListDTO carries one page of listings plus the next cursor.
type BookListDTO struct {
	Books      []BookDTO `json:"books"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category string
}

// ListInput captures the inputs needed to paginate/filter the catalog.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// CreateBookInput holds validated fields for a new listing.
type CreateBookInput struct {
	SellerID      uuid.UUID
	Title         string
	Author        string
	Description   string
	Price         decimal.Decimal
	CoverImage    *string
	Category      string
	ISBN          *string
	PublishedYear *int
	Pages         *int
	Condition     enums.BookCondition
	Featured      bool
}

// UpdateBookInput holds the mutable fields for an existing listing.
// Nil pointers leave the current value untouched.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	Description   *string
	Price         *decimal.Decimal
	CoverImage    *string
	Category      *string
	ISBN          *string
	PublishedYear *int
	Pages         *int
	Condition     *enums.BookCondition
	Featured      *bool
}

// FromModel converts a persisted book into its transport shape.
func FromModel(b *models.Book) BookDTO {
	dto := BookDTO{
		ID:            b.ID,
		SellerID:      b.SellerID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		Price:         b.Price,
		CoverImage:    b.CoverImage,
		Category:      b.Category,
		ISBN:          b.ISBN,
		PublishedYear: b.PublishedYear,
		Pages:         b.Pages,
		Condition:     b.Condition,
		Featured:      b.Featured,
		Sold:          b.Sold,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.Seller != nil {
		dto.SellerUsername = b.Seller.Username
	}
	return dto
}

// FromModels maps a slice of books into DTOs.
func FromModels(rows []models.Book) []BookDTO {
	out := make([]BookDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
