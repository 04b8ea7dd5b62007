package books

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/pagination"
)

// FeaturedLimit caps how many featured listings the storefront shows.
const FeaturedLimit = 20

// Repository exposes book persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a books repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List returns unsold listings newest-first with cursor pagination.
func (r *Repository) List(ctx context.Context, input ListInput) ([]models.Book, string, error) {
	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	q := r.db.WithContext(ctx).
		Preload("Seller").
		Where("sold = ?", false)
	if input.Filters.Category != "" {
		q = q.Where("category = ?", input.Filters.Category)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Book
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// ListFeatured returns unsold featured listings, capped at FeaturedLimit.
func (r *Repository) ListFeatured(ctx context.Context) ([]models.Book, error) {
	var rows []models.Book
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("featured = ? AND sold = ?", true, false).
		Order("created_at DESC").
		Limit(FeaturedLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Search matches unsold listings on title, author, or ISBN, case-insensitive.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Book, error) {
	needle := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var rows []models.Book
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("sold = ?", false).
		Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(COALESCE(isbn, '')) LIKE ?", needle, needle, needle).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads a single listing with its seller.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Preload("Seller").First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByIDs returns the current rows for the requested ids, any order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Book
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySeller returns every listing owned by the seller, sold included.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Book, error) {
	var rows []models.Book
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new listing.
func (r *Repository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Save persists all fields of an existing listing.
func (r *Repository) Save(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Save(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes a listing by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id).Error
}

// MarkSold flips the sold flag only when the copy is still available.
// The returned bool reports whether this caller won the flip.
func (r *Repository) MarkSold(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND sold = ?", id, false).
		Update("sold", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkAvailable clears the sold flag for the provided ids.
func (r *Repository) MarkAvailable(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id IN ?", ids).
		Update("sold", false).Error
}
