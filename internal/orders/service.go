package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pageturn/bookmarket-backend/internal/books"
	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/pageturn/bookmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements checkout, listing, and cancellation.
type Service struct {
	repo  Repository
	books *books.Repository
	tx    txRunner
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, booksRepo *books.Repository, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if booksRepo == nil {
		return nil, fmt.Errorf("books repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, books: booksRepo, tx: tx}, nil
}

// Checkout reserves every requested book and records the order, all in
// one transaction. A book that is already sold fails the whole request;
// the conditional sold-flag update decides the winner under concurrency.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCheckout(input); err != nil {
		return nil, err
	}

	var result *CheckoutResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		booksRepo := s.books.WithTx(tx)
		ordersRepo := s.repo.WithTx(tx)

		reserved := make([]models.Book, 0, len(input.Items))
		total := decimal.Zero
		for _, id := range input.Items {
			book, err := booksRepo.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("book %s not found", id))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
			}

			won, err := booksRepo.MarkSold(ctx, book.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve book")
			}
			if !won {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("book %q is already sold", book.Title)).
					WithDetails(map[string]any{"book_id": book.ID})
			}

			book.Sold = true
			reserved = append(reserved, *book)
			total = total.Add(book.Price)
		}

		order := &models.Order{
			ID:             uuid.New(),
			BuyerID:        input.BuyerID,
			SellerID:       reserved[0].SellerID,
			TotalPrice:     total,
			ShipFullName:   input.Shipping.FullName,
			ShipAddress:    input.Shipping.Address,
			ShipPhone:      input.Shipping.Phone,
			ShipCity:       input.Shipping.City,
			ShipPostalCode: input.Shipping.PostalCode,
			PaymentMethod:  strings.TrimSpace(input.PaymentMethod),
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(reserved))
		for i := range reserved {
			items = append(items, models.OrderItem{
				ID:       uuid.New(),
				OrderID:  order.ID,
				BookID:   reserved[i].ID,
				Position: i,
				Price:    reserved[i].Price,
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		order.Items = items
		result = &CheckoutResult{
			Message: "order placed",
			Books:   books.FromModels(reserved),
			Order:   FromModel(order),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListPurchases returns the caller's orders as buyer, newest first.
func (s *Service) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]OrderDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return FromModels(rows), nil
}

// ListSales returns the caller's orders as seller, newest first.
func (s *Service) ListSales(ctx context.Context, sellerID uuid.UUID) ([]OrderDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return FromModels(rows), nil
}

// ListAll returns every order. Route-level role checks gate this to
// admins.
func (s *Service) ListAll(ctx context.Context) ([]OrderDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return FromModels(rows), nil
}

// Cancel deletes an order and returns its books to the market. Only the
// buyer, the seller, or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, orderID, actorID uuid.UUID, actorRole enums.UserRole) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		booksRepo := s.books.WithTx(tx)
		ordersRepo := s.repo.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.BuyerID != actorID && order.SellerID != actorID && actorRole != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to cancel this order")
		}

		bookIDs := make([]uuid.UUID, 0, len(order.Items))
		for i := range order.Items {
			bookIDs = append(bookIDs, order.Items[i].BookID)
		}
		if err := booksRepo.MarkAvailable(ctx, bookIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release books")
		}
		if err := ordersRepo.DeleteOrderItems(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order items")
		}
		if err := ordersRepo.DeleteOrder(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

func validateCheckout(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, id := range input.Items {
		if id == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item ids must be non-empty")
		}
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate item %s", id))
		}
		seen[id] = struct{}{}
	}
	if strings.TrimSpace(input.Shipping.FullName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping full name required")
	}
	if strings.TrimSpace(input.Shipping.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	if strings.TrimSpace(input.Shipping.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping phone required")
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}
	return nil
}
