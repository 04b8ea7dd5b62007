package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookmarket-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Buyer").
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Preload("Items.Book").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	return r.list(ctx, "buyer_id = ?", buyerID)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	return r.list(ctx, "seller_id = ?", sellerID)
}

func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, "")
}

func (r *repository) list(ctx context.Context, cond string, args ...any) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Buyer").
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Preload("Items.Book").
		Order("created_at DESC")
	if cond != "" {
		q = q.Where(cond, args...)
	}
	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OrderItem{}, "order_id = ?", orderID).Error
}

func (r *repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error
}

// SoldBookIDsWithoutOrder returns books flagged sold that no order item
// references.
func (r *repository) SoldBookIDsWithoutOrder(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Joins("LEFT JOIN order_items ON order_items.book_id = books.id").
		Where("books.sold = ? AND order_items.id IS NULL", true).
		Pluck("books.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// OrderedBookIDsNotSold returns books referenced by an order item but not
// flagged sold.
func (r *repository) OrderedBookIDsNotSold(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Distinct().
		Joins("JOIN order_items ON order_items.book_id = books.id").
		Where("books.sold = ?", false).
		Pluck("books.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
